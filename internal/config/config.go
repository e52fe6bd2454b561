// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Archive  ArchiveConfig  `yaml:"archive" mapstructure:"archive"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ArchiveConfig configures source archive acquisition.
type ArchiveConfig struct {
	URL     string `yaml:"url" mapstructure:"url"`
	WorkDir string `yaml:"work_dir" mapstructure:"work_dir"`
}

// OutputConfig configures the output writer.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
	Path   string `yaml:"path" mapstructure:"path"`
	EPSG   int    `yaml:"epsg" mapstructure:"epsg"`
}

// PostgresConfig configures the PostGIS loader.
type PostgresConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	BatchSize   int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// HTTPConfig configures the download client.
type HTTPConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultArchiveURL points at the BEV address register Stichtagsdaten archive.
const DefaultArchiveURL = "https://data.bev.gv.at/download/Adressregister/Archiv_Adressregister/Adresse_Relationale_Tabellen_Stichtagsdaten.zip"

// Validate checks that the configuration is sufficient for the given mode.
// Modes: "convert" (file output), "load" (PostGIS output).
func (c *Config) Validate(mode string) error {
	var missing []string

	if c.Archive.URL == "" {
		missing = append(missing, "archive.url is required")
	}
	if c.Output.EPSG <= 0 {
		missing = append(missing, "output.epsg must be > 0")
	}

	switch mode {
	case "convert":
	case "load":
		if c.Postgres.DatabaseURL == "" {
			missing = append(missing, "postgres.database_url is required")
		}
		if c.Postgres.BatchSize <= 0 {
			missing = append(missing, "postgres.batch_size must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: %s", strings.Join(missing, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BEVCONVERT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("archive.url", DefaultArchiveURL)
	v.SetDefault("archive.work_dir", ".")
	v.SetDefault("output.format", "csv")
	v.SetDefault("output.epsg", 3035)
	v.SetDefault("postgres.batch_size", 50000)
	v.SetDefault("http.user_agent", "bevconvert/1.0")
	v.SetDefault("http.timeout_secs", 600)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
