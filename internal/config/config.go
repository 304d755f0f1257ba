// Package config loads runtime settings for the web front and the terminal
// client.
//
// Sources apply in order, later ones winning: built-in defaults, a JSON or
// YAML file (-c/-config or ELIBRARY_CONFIG), ELIBRARY_* environment variables,
// then command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"
)

const (
	EnvPrefix     = "ELIBRARY_"
	EnvConfigFile = EnvPrefix + "CONFIG"
)

type Config struct {
	ListenAddr     string
	APIBaseURL     string
	StorageDSN     string
	SecretKey      string
	SessionTTL     time.Duration
	RequestTimeout time.Duration
	PageSize       int
	SearchDebounce time.Duration
	CacheTTL       time.Duration
	RateRPS        float64
	RateBurst      int
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Enable it only behind a reverse proxy that sets those headers.
	TrustProxy bool
	Language   string
	LogLevel   string
	LogFormat  string

	S3User     string
	S3Password string
	S3Bucket   string
	S3Region   string
	S3Endpoint string
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8080"
	c.APIBaseURL = "https://e-library.samduuf.uz"
	c.StorageDSN = "elibrary.db"
	c.SessionTTL = 7 * 24 * time.Hour
	c.RequestTimeout = 15 * time.Second
	c.PageSize = 15
	c.SearchDebounce = 300 * time.Millisecond
	c.CacheTTL = time.Minute
	c.RateRPS = 10
	c.RateBurst = 20
	c.Language = "uz"
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.S3Region = "us-east-1"
}

// Load builds a Config from defaults, the config file, the environment and
// args (usually os.Args[1:]).
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, configPath(args)); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api base url %q must be an absolute http(s) URL", c.APIBaseURL))
	}
	if c.StorageDSN == "" {
		errs = append(errs, errors.New("storage dsn is empty"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page size must be positive, got %d", c.PageSize))
	}
	if c.SearchDebounce < 0 {
		errs = append(errs, fmt.Errorf("search debounce must not be negative, got %s", c.SearchDebounce))
	}
	if c.RateRPS <= 0 || c.RateBurst <= 0 {
		errs = append(errs, fmt.Errorf("rate limit must be positive, got %v rps burst %d", c.RateRPS, c.RateBurst))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL))
	}
	return errors.Join(errs...)
}

// MirrorEnabled reports whether the S3 book mirror is configured.
func (c *Config) MirrorEnabled() bool {
	return c.S3Endpoint != "" && c.S3Bucket != ""
}
