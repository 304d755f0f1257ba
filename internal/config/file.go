package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/elibrary/internal/flagx"
	"github.com/dmitrijs2005/elibrary/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape. Pointer fields tell "absent" apart from
// zero, so a file only overrides what it names. Durations accept "300ms"
// strings or integer nanoseconds.
type fileConfig struct {
	ListenAddr     *string         `json:"listen_addr" yaml:"listen_addr"`
	APIBaseURL     *string         `json:"api_base_url" yaml:"api_base_url"`
	StorageDSN     *string         `json:"storage_dsn" yaml:"storage_dsn"`
	SecretKey      *string         `json:"secret_key" yaml:"secret_key"`
	SessionTTL     *timex.Duration `json:"session_ttl" yaml:"session_ttl"`
	RequestTimeout *timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	PageSize       *int            `json:"page_size" yaml:"page_size"`
	SearchDebounce *timex.Duration `json:"search_debounce" yaml:"search_debounce"`
	CacheTTL       *timex.Duration `json:"cache_ttl" yaml:"cache_ttl"`
	RateRPS        *float64        `json:"rate_rps" yaml:"rate_rps"`
	RateBurst      *int            `json:"rate_burst" yaml:"rate_burst"`
	TrustProxy     *bool           `json:"trust_proxy" yaml:"trust_proxy"`
	Language       *string         `json:"language" yaml:"language"`
	LogLevel       *string         `json:"log_level" yaml:"log_level"`
	LogFormat      *string         `json:"log_format" yaml:"log_format"`

	S3 struct {
		User     *string `json:"user" yaml:"user"`
		Password *string `json:"password" yaml:"password"`
		Bucket   *string `json:"bucket" yaml:"bucket"`
		Region   *string `json:"region" yaml:"region"`
		Endpoint *string `json:"endpoint" yaml:"endpoint"`
	} `json:"s3" yaml:"s3"`
}

func configPath(args []string) string {
	return flagx.ConfigFileFlag(args, EnvConfigFile)
}

// parseFile overlays cfg with the file at path. YAML is chosen by the
// .yaml/.yml extension, JSON otherwise. An empty path is a no-op.
func parseFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.ListenAddr, fc.ListenAddr)
	setString(&cfg.APIBaseURL, fc.APIBaseURL)
	setString(&cfg.StorageDSN, fc.StorageDSN)
	setString(&cfg.SecretKey, fc.SecretKey)
	setString(&cfg.Language, fc.Language)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	setString(&cfg.S3User, fc.S3.User)
	setString(&cfg.S3Password, fc.S3.Password)
	setString(&cfg.S3Bucket, fc.S3.Bucket)
	setString(&cfg.S3Region, fc.S3.Region)
	setString(&cfg.S3Endpoint, fc.S3.Endpoint)

	if fc.SessionTTL != nil {
		cfg.SessionTTL = fc.SessionTTL.Duration
	}
	if fc.RequestTimeout != nil {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.SearchDebounce != nil {
		cfg.SearchDebounce = fc.SearchDebounce.Duration
	}
	if fc.CacheTTL != nil {
		cfg.CacheTTL = fc.CacheTTL.Duration
	}
	if fc.PageSize != nil {
		cfg.PageSize = *fc.PageSize
	}
	if fc.RateRPS != nil {
		cfg.RateRPS = *fc.RateRPS
	}
	if fc.RateBurst != nil {
		cfg.RateBurst = *fc.RateBurst
	}
	if fc.TrustProxy != nil {
		cfg.TrustProxy = *fc.TrustProxy
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
