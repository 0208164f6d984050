package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/geocentral/internal/spatial"
)

// Config holds the full application configuration.
type Config struct {
	Graph    GraphConfig    `yaml:"graph" mapstructure:"graph"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Predict  PredictConfig  `yaml:"predict" mapstructure:"predict"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// GraphConfig configures proximity graph construction.
type GraphConfig struct {
	RadiusKM float64 `yaml:"radius_km" mapstructure:"radius_km"`
	Policy   string  `yaml:"policy" mapstructure:"policy"` // inclusive or exclusive
	Workers  int     `yaml:"workers" mapstructure:"workers"`
}

// AnalysisConfig configures centrality scoring.
type AnalysisConfig struct {
	SampleSize int    `yaml:"sample_size" mapstructure:"sample_size"`
	Top        int    `yaml:"top" mapstructure:"top"`
	Workers    int    `yaml:"workers" mapstructure:"workers"`
	Metric     string `yaml:"metric" mapstructure:"metric"`
}

// PredictConfig configures the rent prediction step.
type PredictConfig struct {
	Factor float64 `yaml:"factor" mapstructure:"factor"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite or postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port         int      `yaml:"port" mapstructure:"port"`
	RateLimit    float64  `yaml:"rate_limit" mapstructure:"rate_limit"` // analyze requests per second
	RateBurst    int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	MaxListings  int      `yaml:"max_listings" mapstructure:"max_listings"`
	AllowOrigins []string `yaml:"allow_origins" mapstructure:"allow_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOCENTRAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("graph.radius_km", spatial.DefaultRadiusKM)
	v.SetDefault("graph.policy", string(spatial.PolicyInclusive))
	v.SetDefault("graph.workers", 1)
	v.SetDefault("analysis.sample_size", 50)
	v.SetDefault("analysis.top", 5)
	v.SetDefault("analysis.workers", 1)
	v.SetDefault("analysis.metric", "closeness")
	v.SetDefault("predict.factor", 1.1)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "geocentral.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 2.0)
	v.SetDefault("server.rate_burst", 4)
	v.SetDefault("server.max_listings", 5000)
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the settings a command needs. mode is one of "analyze",
// "serve", "runs" or "migrate".
func (c *Config) Validate(mode string) error {
	var problems []string

	checkStore := func() {
		switch strings.ToLower(c.Store.Driver) {
		case "sqlite", "postgres", "postgresql", "pg":
		default:
			problems = append(problems, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
		}
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	}
	checkAnalysis := func() {
		if !spatial.ValidRadius(c.Graph.RadiusKM) {
			problems = append(problems, "graph.radius_km must be >= 0")
		}
		if _, err := spatial.ParsePolicy(c.Graph.Policy); err != nil {
			problems = append(problems, fmt.Sprintf("graph.policy %q must be inclusive or exclusive", c.Graph.Policy))
		}
		if c.Analysis.SampleSize < 0 {
			problems = append(problems, "analysis.sample_size must be >= 0")
		}
		if c.Analysis.Top < 0 {
			problems = append(problems, "analysis.top must be >= 0")
		}
		if c.Graph.Workers < 1 || c.Analysis.Workers < 1 {
			problems = append(problems, "graph.workers and analysis.workers must be >= 1")
		}
		switch strings.ToLower(c.Analysis.Metric) {
		case "", "closeness", "degree":
		default:
			problems = append(problems, fmt.Sprintf("analysis.metric %q must be closeness or degree", c.Analysis.Metric))
		}
	}

	switch mode {
	case "analyze":
		checkAnalysis()
	case "serve":
		checkAnalysis()
		checkStore()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.RateLimit <= 0 || c.Server.RateBurst < 1 {
			problems = append(problems, "server.rate_limit must be > 0 and server.rate_burst >= 1")
		}
	case "runs", "migrate":
		checkStore()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
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
