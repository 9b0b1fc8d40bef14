// Package config loads coverage-cli settings from config.yaml, .env files and
// the environment, and initialises the global logger.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/coverage-cli/internal/artifact"
)

// EnvPrefix prefixes every environment override, e.g. COVERAGE_LOG_LEVEL.
const EnvPrefix = "COVERAGE"

// DotenvFiles are loaded in order at start-up. Variables already set in the
// environment win, and earlier files win over later ones.
var DotenvFiles = []string{".env.local", ".env"}

// Config holds the full application configuration.
type Config struct {
	Geodata   GeodataConfig   `yaml:"geodata" mapstructure:"geodata"`
	Mapillary MapillaryConfig `yaml:"mapillary" mapstructure:"mapillary"`
	Probe     ProbeConfig     `yaml:"probe" mapstructure:"probe"`
	Artifacts ArtifactsConfig `yaml:"artifacts" mapstructure:"artifacts"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Supabase  SupabaseConfig  `yaml:"supabase" mapstructure:"supabase"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// GeodataConfig locates the GeoNames dumps.
type GeodataConfig struct {
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
	Dataset string `yaml:"dataset" mapstructure:"dataset"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// MapillaryConfig configures the imagery API client.
type MapillaryConfig struct {
	Token       string  `yaml:"token" mapstructure:"token"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	RadiusM     float64 `yaml:"radius_m" mapstructure:"radius_m"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ProbeConfig configures city selection.
type ProbeConfig struct {
	CitiesPerCountry int `yaml:"cities_per_country" mapstructure:"cities_per_country"`
}

// ArtifactsConfig selects where JSON artifacts are read and written.
type ArtifactsConfig struct {
	Driver string            `yaml:"driver" mapstructure:"driver"`
	Dir    string            `yaml:"dir" mapstructure:"dir"`
	S3     artifact.S3Config `yaml:"s3" mapstructure:"s3"`
}

// StoreConfig selects the database backend for populate.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// SupabaseConfig configures the hosted REST backend.
type SupabaseConfig struct {
	URL        string  `yaml:"url" mapstructure:"url"`
	ServiceKey string  `yaml:"service_key" mapstructure:"service_key"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// legacyEnv maps config keys to the variable names used by the web frontend
// that shares the same .env files.
var legacyEnv = map[string]string{
	"mapillary.token":      "NEXT_PUBLIC_MAPILLARY_ACCESS_TOKEN",
	"supabase.url":         "NEXT_PUBLIC_SUPABASE_URL",
	"supabase.service_key": "SUPABASE_SERVICE_ROLE_KEY",
}

// LoadDotenv loads DotenvFiles, ignoring files that do not exist.
func LoadDotenv() error {
	for _, name := range DotenvFiles {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return eris.Wrapf(err, "config: load %s", name)
		}
	}
	return nil
}

// Load reads configuration from .env files, config.yaml and the environment.
func Load() (*Config, error) {
	if err := LoadDotenv(); err != nil {
		return nil, err
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", key)
		}
	}

	// Defaults
	v.SetDefault("geodata.data_dir", "./geonames")
	v.SetDefault("geodata.dataset", "cities15000")
	v.SetDefault("geodata.base_url", "https://download.geonames.org/export/dump")
	v.SetDefault("mapillary.base_url", "https://graph.mapillary.com")
	v.SetDefault("mapillary.radius_m", 500)
	v.SetDefault("mapillary.rate_limit", 10)
	v.SetDefault("mapillary.timeout_secs", 30)
	v.SetDefault("probe.cities_per_country", 10)
	v.SetDefault("artifacts.driver", "file")
	v.SetDefault("artifacts.dir", ".")
	v.SetDefault("artifacts.s3.endpoint", "")
	v.SetDefault("artifacts.s3.access_key", "")
	v.SetDefault("artifacts.s3.secret_key", "")
	v.SetDefault("artifacts.s3.bucket", "coverage-artifacts")
	v.SetDefault("artifacts.s3.prefix", "")
	v.SetDefault("artifacts.s3.region", "")
	v.SetDefault("artifacts.s3.use_ssl", true)
	v.SetDefault("store.driver", "supabase")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.sqlite_path", "coverage.db")
	v.SetDefault("supabase.rate_limit", 0)
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

// Validate checks that the settings needed by mode are present. Modes are
// the command names: export, probe, populate, migrate and run.
func (c *Config) Validate(mode string) error {
	var errs []string

	needGeodata := func() {
		if c.Geodata.DataDir == "" {
			errs = append(errs, "geodata.data_dir is required")
		}
		if c.Geodata.Dataset == "" {
			errs = append(errs, "geodata.dataset is required")
		}
	}
	needMapillary := func() {
		if c.Mapillary.Token == "" {
			errs = append(errs, "mapillary.token is required (or NEXT_PUBLIC_MAPILLARY_ACCESS_TOKEN)")
		}
		if c.Mapillary.RadiusM <= 0 {
			errs = append(errs, "mapillary.radius_m must be > 0")
		}
		if c.Probe.CitiesPerCountry <= 0 {
			errs = append(errs, "probe.cities_per_country must be > 0")
		}
	}
	needArtifacts := func() {
		switch c.Artifacts.Driver {
		case "file":
		case "s3":
			if c.Artifacts.S3.Endpoint == "" {
				errs = append(errs, "artifacts.s3.endpoint is required")
			}
			if c.Artifacts.S3.Bucket == "" {
				errs = append(errs, "artifacts.s3.bucket is required")
			}
		default:
			errs = append(errs, "artifacts.driver must be file or s3")
		}
	}
	needDatabaseURL := func() {
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	}
	needStore := func() {
		switch c.Store.Driver {
		case "supabase":
			if c.Supabase.URL == "" {
				errs = append(errs, "supabase.url is required (or NEXT_PUBLIC_SUPABASE_URL)")
			}
			if c.Supabase.ServiceKey == "" {
				errs = append(errs, "supabase.service_key is required (or SUPABASE_SERVICE_ROLE_KEY)")
			}
		case "postgres":
			needDatabaseURL()
		case "sqlite":
			if c.Store.SQLitePath == "" {
				errs = append(errs, "store.sqlite_path is required")
			}
		default:
			errs = append(errs, "store.driver must be supabase, postgres or sqlite")
		}
	}

	switch mode {
	case "export":
		needGeodata()
		needArtifacts()
	case "probe":
		needGeodata()
		needMapillary()
		needArtifacts()
	case "populate":
		needArtifacts()
		needStore()
	case "migrate":
		needDatabaseURL()
	case "run":
		needGeodata()
		needMapillary()
		needArtifacts()
		needStore()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
