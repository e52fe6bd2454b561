package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultArchiveURL, cfg.Archive.URL)
	assert.Equal(t, ".", cfg.Archive.WorkDir)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, 3035, cfg.Output.EPSG)
	assert.Equal(t, 50000, cfg.Postgres.BatchSize)
	assert.Equal(t, "bevconvert/1.0", cfg.HTTP.UserAgent)
	assert.Equal(t, 600, cfg.HTTP.TimeoutSecs)
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
archive:
  url: https://example.org/addresses.zip
  work_dir: /var/tmp/bev
output:
  format: gpkg
  epsg: 31287
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/addresses.zip", cfg.Archive.URL)
	assert.Equal(t, "/var/tmp/bev", cfg.Archive.WorkDir)
	assert.Equal(t, "gpkg", cfg.Output.Format)
	assert.Equal(t, 31287, cfg.Output.EPSG)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, 50000, cfg.Postgres.BatchSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
output:
  format: shp
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("BEVCONVERT_OUTPUT_FORMAT", "geojson")
	t.Setenv("BEVCONVERT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "geojson", cfg.Output.Format)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("BEVCONVERT_OUTPUT_EPSG", "4326")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4326, cfg.Output.EPSG)
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

// validDefaults returns a Config sufficient for the convert mode.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Archive.URL = DefaultArchiveURL
	cfg.Output.EPSG = 3035
	cfg.Postgres.BatchSize = 50000
	return cfg
}

func TestValidateConvert(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("convert"))
}

func TestValidateConvert_MissingURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Archive.URL = ""

	err := cfg.Validate("convert")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "archive.url is required")
}

func TestValidateConvert_BadEPSG(t *testing.T) {
	cfg := validDefaults()
	cfg.Output.EPSG = 0

	err := cfg.Validate("convert")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "output.epsg must be > 0")
}

func TestValidateLoad_NoDB(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("load")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "postgres.database_url is required")
}

func TestValidateLoad_WithDB(t *testing.T) {
	cfg := validDefaults()
	cfg.Postgres.DatabaseURL = "postgres://localhost/bev"

	assert.NoError(t, cfg.Validate("load"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
