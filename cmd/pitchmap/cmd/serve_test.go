package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/pitchmap/internal/config"
)

func TestServeCommandFlags(t *testing.T) {
	flags := serveCmd.Flags()
	for _, name := range []string{
		"host", "port", "cors-origin", "max-body-kb", "timeout", "shutdown-timeout",
		"rate-limit-enabled", "requests-per-minute", "requests-per-hour",
		"max-requests-per-day", "max-data-per-day",
		"ransac-threshold", "ransac-max-iterations", "ransac-confidence", "ransac-seed",
	} {
		assert.NotNil(t, flags.Lookup(name), "missing flag %s", name)
	}
	assert.Equal(t, "p", flags.Lookup("port").Shorthand)
	assert.Equal(t, "H", flags.Lookup("host").Shorthand)
}

func TestServerConfigFromFlagsDefaults(t *testing.T) {
	resetFlags(t)
	cfg := config.DefaultConfig()

	sc := serverConfigFromFlags(serveCmd, &cfg)
	assert.Equal(t, cfg.ToServerConfig(), sc)
}

func TestServerConfigFromFlagsOverrides(t *testing.T) {
	resetFlags(t)
	t.Cleanup(func() { resetFlags(t) })
	cfg := config.DefaultConfig()

	flags := serveCmd.Flags()
	require.NoError(t, flags.Set("host", "0.0.0.0"))
	require.NoError(t, flags.Set("port", "9090"))
	require.NoError(t, flags.Set("max-body-kb", "16"))
	require.NoError(t, flags.Set("timeout", "5"))
	require.NoError(t, flags.Set("shutdown-timeout", "2"))
	require.NoError(t, flags.Set("rate-limit-enabled", "true"))
	require.NoError(t, flags.Set("requests-per-minute", "7"))
	require.NoError(t, flags.Set("max-data-per-day", "4096"))

	sc := serverConfigFromFlags(serveCmd, &cfg)
	assert.Equal(t, "0.0.0.0", sc.Host)
	assert.Equal(t, 9090, sc.Port)
	assert.Equal(t, int64(16*1024), sc.MaxBodyBytes)
	assert.Equal(t, 5*time.Second, sc.Timeout)
	assert.Equal(t, 2*time.Second, sc.ShutdownTimeout)
	assert.True(t, sc.RateLimit.Enabled)
	assert.Equal(t, 7, sc.RateLimit.RequestsPerMinute)
	assert.Equal(t, cfg.Server.RateLimit.RequestsPerHour, sc.RateLimit.RequestsPerHour)
	assert.Equal(t, int64(4096), sc.RateLimit.MaxDataPerDay)
}

func TestEstimatorOptionsOverrides(t *testing.T) {
	resetFlags(t)
	t.Cleanup(func() { resetFlags(t) })
	cfg := config.DefaultConfig()

	opts, err := estimatorOptions(serveCmd, &cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.EstimatorOptions(), opts)

	require.NoError(t, serveCmd.Flags().Set("ransac-threshold", "2.5"))
	require.NoError(t, serveCmd.Flags().Set("ransac-seed", "42"))
	opts, err = estimatorOptions(serveCmd, &cfg)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, opts.Threshold, 1e-12)
	assert.Equal(t, uint64(42), opts.Seed)

	require.NoError(t, serveCmd.Flags().Set("ransac-max-iterations", "0"))
	_, err = estimatorOptions(serveCmd, &cfg)
	assert.Error(t, err)
}

func TestServeCommandInvalidPort(t *testing.T) {
	_, err := execute(t, "serve", "--port", "70000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port number")
}
