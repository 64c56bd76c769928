package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/webinar-impact/webinar-impact/internal/cohort"
)

// EnvPrefix is prepended to every variable name, e.g. WIA_DB_PATH.
const EnvPrefix = "WIA"

type Config struct {
	DBPath         string `envconfig:"DB_PATH" default:"./wia.db"`
	Port           int    `envconfig:"PORT" default:"8080"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string `envconfig:"LOG_FORMAT" default:"json"`
	DefaultHorizon string `envconfig:"DEFAULT_HORIZON" default:"gmv_d30"`
	MaxUploadMB    int64  `envconfig:"MAX_UPLOAD_MB" default:"32"`
}

// Load reads the optional dotenv files (".env" when none are given) and
// then the environment. Variables already set win over dotenv values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := cohort.ParseHorizon(c.DefaultHorizon); err != nil {
		return fmt.Errorf("WIA_DEFAULT_HORIZON: %w", err)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("WIA_PORT: %d is not a valid port", c.Port)
	}
	if c.MaxUploadMB <= 0 {
		return errors.New("WIA_MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// Horizon returns the parsed default GMV horizon.
func (c *Config) Horizon() cohort.Horizon {
	h, _ := cohort.ParseHorizon(c.DefaultHorizon)
	return h
}

// MaxUploadBytes is the request body limit for dataset uploads.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
