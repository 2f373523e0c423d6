package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter manages per-client request rate limiting and daily quotas. Limits of zero are
// not enforced.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	requestsPerHour   int
	maxRequestsPerDay int
	maxDataPerDay     int64 // in bytes

	clients map[string]*ClientUsage
	now     func() time.Time
}

// ClientUsage tracks usage for a single client address.
type ClientUsage struct {
	RequestsThisMinute int
	RequestsThisHour   int
	RequestsToday      int
	DataToday          int64

	minuteStart time.Time
	hourStart   time.Time
	dayStart    time.Time
}

// NewRateLimiter creates a new rate limiter with the given limits.
func NewRateLimiter(requestsPerMinute, requestsPerHour, maxRequestsPerDay int, maxDataPerDay int64) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		maxRequestsPerDay: maxRequestsPerDay,
		maxDataPerDay:     maxDataPerDay,
		clients:           make(map[string]*ClientUsage),
		now:               time.Now,
	}
}

// CheckRateLimit records a request of dataSize bytes from clientID, or returns a
// *RateLimitError or *QuotaExceededError without recording it.
func (rl *RateLimiter) CheckRateLimit(clientID string, dataSize int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	usage := rl.usageFor(clientID, now)
	usage.roll(now)

	if err := rl.checkRateLimits(usage, now); err != nil {
		return err
	}
	if err := rl.checkDailyQuotas(usage, dataSize); err != nil {
		return err
	}

	usage.RequestsThisMinute++
	usage.RequestsThisHour++
	usage.RequestsToday++
	usage.DataToday += dataSize
	return nil
}

// roll starts new windows once the current ones have elapsed.
func (u *ClientUsage) roll(now time.Time) {
	if now.Sub(u.minuteStart) >= time.Minute {
		u.RequestsThisMinute = 0
		u.minuteStart = now
	}
	if now.Sub(u.hourStart) >= time.Hour {
		u.RequestsThisHour = 0
		u.hourStart = now
	}
	if !sameDay(now, u.dayStart) {
		u.RequestsToday = 0
		u.DataToday = 0
		u.dayStart = now
	}
}

func (rl *RateLimiter) checkRateLimits(usage *ClientUsage, now time.Time) error {
	if rl.requestsPerMinute > 0 && usage.RequestsThisMinute >= rl.requestsPerMinute {
		return &RateLimitError{
			Type:       "minute",
			Limit:      rl.requestsPerMinute,
			RetryAfter: usage.minuteStart.Add(time.Minute).Sub(now),
		}
	}

	if rl.requestsPerHour > 0 && usage.RequestsThisHour >= rl.requestsPerHour {
		return &RateLimitError{
			Type:       "hour",
			Limit:      rl.requestsPerHour,
			RetryAfter: usage.hourStart.Add(time.Hour).Sub(now),
		}
	}

	return nil
}

func (rl *RateLimiter) checkDailyQuotas(usage *ClientUsage, dataSize int64) error {
	y, m, d := usage.dayStart.Date()
	resets := time.Date(y, m, d+1, 0, 0, 0, 0, usage.dayStart.Location())

	if rl.maxRequestsPerDay > 0 && usage.RequestsToday >= rl.maxRequestsPerDay {
		return &QuotaExceededError{
			Type:   "requests",
			Limit:  int64(rl.maxRequestsPerDay),
			Used:   int64(usage.RequestsToday),
			Resets: resets,
		}
	}

	if rl.maxDataPerDay > 0 && usage.DataToday+dataSize > rl.maxDataPerDay {
		return &QuotaExceededError{
			Type:   "data",
			Limit:  rl.maxDataPerDay,
			Used:   usage.DataToday,
			Resets: resets,
		}
	}

	return nil
}

func (rl *RateLimiter) usageFor(clientID string, now time.Time) *ClientUsage {
	usage, exists := rl.clients[clientID]
	if !exists {
		usage = &ClientUsage{minuteStart: now, hourStart: now, dayStart: now}
		rl.clients[clientID] = usage
	}
	return usage
}

// Usage returns a snapshot of the counters for clientID.
func (rl *RateLimiter) Usage(clientID string) ClientUsage {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if usage, exists := rl.clients[clientID]; exists {
		return *usage
	}
	return ClientUsage{}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// RateLimitError represents a rate limit violation.
type RateLimitError struct {
	Type       string        // "minute" or "hour"
	Limit      int           // the limit that was exceeded
	RetryAfter time.Duration // how long to wait before retrying
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}

// QuotaExceededError represents a quota violation.
type QuotaExceededError struct {
	Type   string    // "requests" or "data"
	Limit  int64     // the limit that was exceeded
	Used   int64     // current usage
	Resets time.Time // when the quota resets
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s (used: %d, limit: %d, resets: %s)",
		e.Type, e.Used, e.Limit, e.Resets.Format(time.RFC3339))
}
