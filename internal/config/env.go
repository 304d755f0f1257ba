package config

import (
	"fmt"
	"strconv"
	"time"
)

type lookupFunc func(key string) (string, bool)

// parseEnv overlays cfg with ELIBRARY_* variables.
func parseEnv(cfg *Config, lookup lookupFunc) error {
	strs := map[string]*string{
		"LISTEN_ADDR":  &cfg.ListenAddr,
		"API_BASE_URL": &cfg.APIBaseURL,
		"STORAGE_DSN":  &cfg.StorageDSN,
		"SECRET_KEY":   &cfg.SecretKey,
		"LANGUAGE":     &cfg.Language,
		"LOG_LEVEL":    &cfg.LogLevel,
		"LOG_FORMAT":   &cfg.LogFormat,
		"S3_USER":      &cfg.S3User,
		"S3_PASSWORD":  &cfg.S3Password,
		"S3_BUCKET":    &cfg.S3Bucket,
		"S3_REGION":    &cfg.S3Region,
		"S3_ENDPOINT":  &cfg.S3Endpoint,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"SESSION_TTL":     &cfg.SessionTTL,
		"REQUEST_TIMEOUT": &cfg.RequestTimeout,
		"SEARCH_DEBOUNCE": &cfg.SearchDebounce,
		"CACHE_TTL":       &cfg.CacheTTL,
	}
	for name, dst := range durations {
		if v, ok := lookup(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = d
		}
	}

	ints := map[string]*int{
		"PAGE_SIZE":  &cfg.PageSize,
		"RATE_BURST": &cfg.RateBurst,
	}
	for name, dst := range ints {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	if v, ok := lookup(EnvPrefix + "RATE_RPS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sRATE_RPS: %w", EnvPrefix, err)
		}
		cfg.RateRPS = f
	}

	if v, ok := lookup(EnvPrefix + "TRUST_PROXY"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sTRUST_PROXY: %w", EnvPrefix, err)
		}
		cfg.TrustProxy = b
	}
	return nil
}
