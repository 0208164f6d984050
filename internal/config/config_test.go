package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 10.0, cfg.Graph.RadiusKM, 0)
	assert.Equal(t, "inclusive", cfg.Graph.Policy)
	assert.Equal(t, 1, cfg.Graph.Workers)
	assert.Equal(t, 50, cfg.Analysis.SampleSize)
	assert.Equal(t, 5, cfg.Analysis.Top)
	assert.Equal(t, 1, cfg.Analysis.Workers)
	assert.Equal(t, "closeness", cfg.Analysis.Metric)
	assert.InDelta(t, 1.1, cfg.Predict.Factor, 1e-9)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "geocentral.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 2.0, cfg.Server.RateLimit, 0)
	assert.Equal(t, 4, cfg.Server.RateBurst)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.NoError(t, cfg.Validate("analyze"))
	assert.NoError(t, cfg.Validate("serve"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
graph:
  radius_km: 50
  policy: exclusive
analysis:
  sample_size: 10
  metric: degree
store:
  driver: postgres
  database_url: postgres://localhost/geo
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 50.0, cfg.Graph.RadiusKM, 0)
	assert.Equal(t, "exclusive", cfg.Graph.Policy)
	assert.Equal(t, 10, cfg.Analysis.SampleSize)
	assert.Equal(t, "degree", cfg.Analysis.Metric)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, 5, cfg.Analysis.Top)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
graph:
  radius_km: 50
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("GEOCENTRAL_GRAPH_RADIUS_KM", "25")
	t.Setenv("GEOCENTRAL_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.InDelta(t, 25.0, cfg.Graph.RadiusKM, 0)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("GEOCENTRAL_SERVER_PORT", "3000")
	t.Setenv("GEOCENTRAL_ANALYSIS_SAMPLE_SIZE", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Analysis.SampleSize)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("graph: [unterminated"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Graph.RadiusKM = 10
	cfg.Graph.Policy = "inclusive"
	cfg.Graph.Workers = 1
	cfg.Analysis.SampleSize = 50
	cfg.Analysis.Top = 5
	cfg.Analysis.Workers = 1
	cfg.Analysis.Metric = "closeness"
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "geocentral.db"
	cfg.Server.Port = 8080
	cfg.Server.RateLimit = 2
	cfg.Server.RateBurst = 4
	return cfg
}

func TestValidateAnalyze_Radius(t *testing.T) {
	cfg := validDefaults()
	cfg.Graph.RadiusKM = 0
	assert.NoError(t, cfg.Validate("analyze"))

	for _, r := range []float64{-1, math.NaN(), math.Inf(1)} {
		cfg.Graph.RadiusKM = r
		err := cfg.Validate("analyze")
		require.Error(t, err, "radius %v", r)
		assert.Contains(t, err.Error(), "graph.radius_km must be >= 0")
	}
}

func TestValidateAnalyze_Policy(t *testing.T) {
	cfg := validDefaults()
	cfg.Graph.Policy = "fuzzy"

	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "graph.policy")
}

func TestValidateAnalyze_SampleSizeAndMetric(t *testing.T) {
	cfg := validDefaults()
	cfg.Analysis.SampleSize = -1
	cfg.Analysis.Metric = "pagerank"

	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "analysis.sample_size must be >= 0")
	assert.Contains(t, err.Error(), "analysis.metric")
}

func TestValidateAnalyze_Workers(t *testing.T) {
	cfg := validDefaults()
	cfg.Analysis.Workers = 0

	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "workers must be >= 1")
}

func TestValidateAnalyze_IgnoresStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	assert.NoError(t, cfg.Validate("analyze"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_RateLimit(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.RateLimit = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.rate_limit")
}

func TestValidateRuns_MissingDatabase(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""
	cfg.Store.Driver = "oracle"

	err := cfg.Validate("runs")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
	assert.Contains(t, err.Error(), `store.driver "oracle" is not supported`)
}

func TestValidateMigrate_Postgres(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = "postgres://localhost/geo"

	assert.NoError(t, cfg.Validate("migrate"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
