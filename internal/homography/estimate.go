package homography

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/MeKo-Tech/pitchmap/internal/geometry"
)

// MinCorrespondences is the number of point pairs that fixes a planar homography.
const MinCorrespondences = 4

// Options tunes the robust estimator.
type Options struct {
	// Threshold is the largest reprojection distance, in pitch units, of an inlier.
	Threshold float64
	// MaxIterations caps the number of RANSAC samples.
	MaxIterations int
	// Confidence is the desired probability of drawing at least one outlier-free sample.
	// It shortens the run once a large consensus set has been seen.
	Confidence float64
	// Seed fixes the sampling sequence so that calibration is reproducible.
	Seed uint64
}

// DefaultOptions returns the estimator defaults: a 5.0 unit inlier threshold, 2000 iterations and
// 0.995 confidence.
func DefaultOptions() Options {
	return Options{
		Threshold:     5.0,
		MaxIterations: 2000,
		Confidence:    0.995,
		Seed:          1,
	}
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	if !(o.Threshold > 0) || math.IsInf(o.Threshold, 0) {
		return fmt.Errorf("ransac threshold must be positive, got %v", o.Threshold)
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("ransac max iterations must be at least 1, got %d", o.MaxIterations)
	}
	if !(o.Confidence > 0 && o.Confidence < 1) {
		return fmt.Errorf("ransac confidence must be in (0, 1), got %v", o.Confidence)
	}
	return nil
}

// Result is the outcome of Estimate.
type Result struct {
	Matrix Matrix
	// ReprojectionError is the RMS distance between each pitch point and its video point mapped
	// through Matrix, taken over every correspondence, outliers included.
	ReprojectionError float64
	// Inliers flags the correspondences that formed the consensus set of the final fit.
	Inliers     []bool
	InlierCount int
}

// Estimate fits the homography mapping video onto pitch. Four correspondences give the exact
// solution; more are fitted robustly with RANSAC followed by a least-squares refit over the
// consensus set.
func Estimate(video, pitch []geometry.Point, opts Options) (Result, error) {
	if err := validateCorrespondences(video, pitch); err != nil {
		return Result{}, err
	}
	if err := opts.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var (
		h    Matrix
		mask []bool
		err  error
	)
	if len(video) == MinCorrespondences {
		h, err = estimateExact(video, pitch)
		mask = make([]bool, len(video))
		for i := range mask {
			mask[i] = true
		}
	} else {
		h, mask, err = estimateRANSAC(video, pitch, opts)
	}
	if err != nil {
		return Result{}, err
	}

	h = h.Normalized()
	if h.IsSingular() {
		return Result{}, fmt.Errorf("%w: estimated matrix is not invertible", ErrSingularTransform)
	}

	rmse, err := fitQuality(video, pitch, h)
	if err != nil {
		return Result{}, err
	}

	count := 0
	for _, in := range mask {
		if in {
			count++
		}
	}

	return Result{
		Matrix:            h,
		ReprojectionError: rmse,
		Inliers:           mask,
		InlierCount:       count,
	}, nil
}

// ReprojectionError returns the RMS distance between pitch[i] and video[i] mapped through h.
// A video point on the horizon of h has no finite residual and fails with
// ErrDegenerateProjection naming its correspondence.
func ReprojectionError(video, pitch []geometry.Point, h Matrix) (float64, error) {
	if len(video) != len(pitch) || len(video) == 0 {
		return 0, fmt.Errorf("%w: need matching, non-empty point sets", ErrInvalidInput)
	}
	if err := checkForward(h); err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range video {
		q, err := project(video[i], h)
		if err != nil {
			return 0, fmt.Errorf("correspondence %d: %w", i, err)
		}
		dx, dy := q.X-pitch[i].X, q.Y-pitch[i].Y
		sum += dx*dx + dy*dy
	}
	return math.Sqrt(sum / float64(len(video))), nil
}

// fitQuality is the RMS error of a fitted h over every correspondence, outliers included.
// When an outlier's video point lies on the horizon of h its residual is unbounded, so the
// calibration is rejected as a whole rather than reported with an infinite error.
func fitQuality(video, pitch []geometry.Point, h Matrix) (float64, error) {
	rmse, err := ReprojectionError(video, pitch, h)
	switch {
	case err == nil:
		return rmse, nil
	case errors.Is(err, ErrDegenerateProjection):
		return 0, fmt.Errorf("%w: fitted matrix sends a video point to infinity, so the error is unbounded (%v)",
			ErrSingularTransform, err)
	default:
		return 0, err
	}
}

func validateCorrespondences(video, pitch []geometry.Point) error {
	if len(video) < MinCorrespondences || len(pitch) < MinCorrespondences {
		return fmt.Errorf("%w: at least %d calibration points are required", ErrInvalidInput, MinCorrespondences)
	}
	if len(video) != len(pitch) {
		return fmt.Errorf("%w: number of video points (%d) must match number of pitch points (%d)",
			ErrInvalidInput, len(video), len(pitch))
	}
	for i := range video {
		if !video[i].IsFinite() || !pitch[i].IsFinite() {
			return fmt.Errorf("%w: correspondence %d has a non-finite coordinate", ErrInvalidInput, i)
		}
	}
	return nil
}

// estimateExact solves the four-point case. Any collinear triple leaves the map undetermined.
func estimateExact(video, pitch []geometry.Point) (Matrix, error) {
	if geometry.AnyThreeCollinear(video) || geometry.AnyThreeCollinear(pitch) {
		return Matrix{}, fmt.Errorf("%w: three of the four points are collinear", ErrSingularTransform)
	}
	h, ok := minimalModel(video, pitch)
	if !ok {
		return Matrix{}, fmt.Errorf("%w: no projective map fits the four points", ErrSingularTransform)
	}
	return h, nil
}

// minimalModel computes the exact homography for four non-degenerate correspondences.
func minimalModel(video, pitch []geometry.Point) (Matrix, bool) {
	ts, ok := conditioning(video)
	if !ok {
		return Matrix{}, false
	}
	td, ok := conditioning(pitch)
	if !ok {
		return Matrix{}, false
	}
	var p, q [4]geometry.Point
	for i := range 4 {
		p[i] = ts.apply(video[i])
		q[i] = td.apply(pitch[i])
	}
	if hn, ok := exactFromFour(p, q); ok {
		h := denormalize(hn, ts, td)
		if h.IsFinite() {
			return h, true
		}
	}
	// h22 = 0 in conditioned coordinates defeats the 8x8 parametrisation; the SVD form does not
	// fix any entry.
	h, err := fitDLT(video, pitch)
	if err != nil {
		return Matrix{}, false
	}
	return h, true
}

type consensus struct {
	mask  []bool
	count int
	sumSq float64
}

func (c consensus) betterThan(o consensus) bool {
	if c.count != o.count {
		return c.count > o.count
	}
	return c.sumSq < o.sumSq
}

func score(h Matrix, video, pitch []geometry.Point, thresholdSq float64) consensus {
	c := consensus{mask: make([]bool, len(video))}
	for i := range video {
		q, err := project(video[i], h)
		if err != nil {
			continue
		}
		dx, dy := q.X-pitch[i].X, q.Y-pitch[i].Y
		d2 := dx*dx + dy*dy
		if d2 <= thresholdSq {
			c.mask[i] = true
			c.count++
			c.sumSq += d2
		}
	}
	return c
}

func estimateRANSAC(video, pitch []geometry.Point, opts Options) (Matrix, []bool, error) {
	n := len(video)
	rng := newRand(opts.Seed)
	thresholdSq := opts.Threshold * opts.Threshold

	var (
		best      consensus
		bestModel Matrix
		found     bool
	)
	sv := make([]geometry.Point, MinCorrespondences)
	sp := make([]geometry.Point, MinCorrespondences)
	iterations := opts.MaxIterations

	for iter := 0; iter < iterations; iter++ {
		for i, idx := range sampleIndices(rng, n) {
			sv[i] = video[idx]
			sp[i] = pitch[idx]
		}
		if geometry.AnyThreeCollinear(sv) || geometry.AnyThreeCollinear(sp) {
			continue
		}
		h, ok := minimalModel(sv, sp)
		if !ok || h.IsSingular() {
			continue
		}

		c := score(h, video, pitch, thresholdSq)
		if !found || c.betterThan(best) {
			best = c
			bestModel = h
			found = true
			outlierRatio := float64(n-c.count) / float64(n)
			iterations = min(iterations, requiredIterations(opts.Confidence, outlierRatio, opts.MaxIterations))
		}
	}

	if !found || best.count < MinCorrespondences {
		return Matrix{}, nil, fmt.Errorf("%w: no consensus of %d or more correspondences within %.2f units",
			ErrSingularTransform, MinCorrespondences, opts.Threshold)
	}

	inV := make([]geometry.Point, 0, best.count)
	inP := make([]geometry.Point, 0, best.count)
	for i, in := range best.mask {
		if in {
			inV = append(inV, video[i])
			inP = append(inP, pitch[i])
		}
	}

	refined, err := fitDLT(inV, inP)
	if err != nil {
		if errors.Is(err, errRankDeficient) {
			return bestModel, best.mask, nil
		}
		return Matrix{}, nil, fmt.Errorf("%w: %v", ErrSingularTransform, err)
	}
	return refined, best.mask, nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// sampleIndices draws four distinct indices from [0, n).
func sampleIndices(rng *rand.Rand, n int) [MinCorrespondences]int {
	var idx [MinCorrespondences]int
	for i := 0; i < MinCorrespondences; i++ {
	draw:
		for {
			v := rng.IntN(n)
			for j := range i {
				if idx[j] == v {
					continue draw
				}
			}
			idx[i] = v
			break
		}
	}
	return idx
}

// requiredIterations returns the number of samples needed to draw one outlier-free sample with
// the given confidence, capped at maxIters.
func requiredIterations(confidence, outlierRatio float64, maxIters int) int {
	outlierRatio = math.Max(outlierRatio, 0)
	outlierRatio = math.Min(outlierRatio, 1)

	num := math.Max(1-confidence, math.SmallestNonzeroFloat64)
	denom := 1 - math.Pow(1-outlierRatio, MinCorrespondences)
	if denom < math.SmallestNonzeroFloat64 {
		return 0
	}
	num = math.Log(num)
	denom = math.Log(denom)
	if denom >= 0 || -num >= float64(maxIters)*(-denom) {
		return maxIters
	}
	return int(math.Round(num / denom))
}
