package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/polyarb/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.ScanInterval())
	assert.Equal(t, []float64{50, 200}, cfg.Scanner.TargetSizes)
	assert.InDelta(t, 0.015, cfg.FeeYes(), 1e-9)
	assert.InDelta(t, 0.015, cfg.FeeNo(), 1e-9)
	assert.Equal(t, []float64{0.005, 0.010, 0.020}, cfg.Scanner.EdgeThresholds)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 3, cfg.Retries())
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBase())
}

func TestLoad_FromYAML(t *testing.T) {
	path := writeConfig(t, `
scanner:
  interval_seconds: 5
  target_sizes: [25, 100, 500]
  fee_rate_yes: 0.01
  fee_rate_no: 0.02
storage:
  dsn: ":memory:"
log:
  level: debug
  format: json
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.ScanInterval())
	assert.Equal(t, []float64{25, 100, 500}, cfg.Scanner.TargetSizes)
	assert.InDelta(t, 0.01, cfg.FeeYes(), 1e-9)
	assert.InDelta(t, 0.02, cfg.FeeNo(), 1e-9)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ExplicitZeroIsKept(t *testing.T) {
	path := writeConfig(t, `
scanner:
  fee_rate_yes: 0
  fee_rate_no: 0
api:
  max_retries: 0
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Scanner.FeeRateYes)
	assert.Zero(t, cfg.FeeYes())
	assert.Zero(t, cfg.FeeNo())
	assert.Zero(t, cfg.Retries())
}

func TestLoad_InvalidValuesAreFatal(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"negative interval", "scanner:\n  interval_seconds: -1\n", "interval_seconds"},
		{"empty sizes", "scanner:\n  target_sizes: []\n", "target_sizes must not be empty"},
		{"non-positive size", "scanner:\n  target_sizes: [50, 0]\n", "not a positive amount"},
		{"duplicate size", "scanner:\n  target_sizes: [50, 50]\n", "duplicate"},
		{"fee out of range", "scanner:\n  fee_rate_no: 1.5\n", "fee_rate_no"},
		{"negative fee", "scanner:\n  fee_rate_yes: -0.01\n", "fee_rate_yes"},
		{"negative retries", "api:\n  max_retries: -1\n", "max_retries"},
		{"bad log level", "log:\n  level: loud\n", "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := config.Load(writeConfig(t, "scanner: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse YAML")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("POLYARB_DB", "/tmp/other.db")

	cfg, err := config.Load(writeConfig(t, "log:\n  level: info\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/tmp/other.db", cfg.Storage.DSN)
}

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	assert.NoError(t, cfg.Validate())
}
