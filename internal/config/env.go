package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variable names understood by ApplyEnv.
// Durations are given in (fractional) seconds.
const (
	EnvUserAgent       = "SCRAPER_USER_AGENT"
	EnvTimeout         = "SCRAPER_REQUEST_TIMEOUT_SECONDS"
	EnvMaxRetries      = "SCRAPER_MAX_RETRIES"
	EnvBackoffBase     = "SCRAPER_BACKOFF_BASE_SECONDS"
	EnvRateLimit       = "SCRAPER_RATE_LIMIT_SECONDS"
	EnvRespectRobots   = "SCRAPER_RESPECT_ROBOTS"
	EnvMaxPagesPerSeed = "SCRAPER_MAX_PAGES_PER_SEED"
	EnvConcurrency     = "SCRAPER_CONCURRENCY"
)

// Short aliases of the duration variables. The full name wins when both
// are set.
const (
	EnvTimeoutAlias     = "SCRAPER_TIMEOUT"
	EnvBackoffBaseAlias = "SCRAPER_BACKOFF_BASE"
	EnvRateLimitAlias   = "SCRAPER_RATE_LIMIT"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with the SCRAPER_* variables present in the process
// environment.
func ApplyEnv(cfg *Config) error {
	return ApplyEnvFrom(cfg, os.LookupEnv)
}

// ApplyEnvFrom overrides cfg with the SCRAPER_* variables returned by lookup.
// Unset or empty variables leave the current value untouched.
func ApplyEnvFrom(cfg *Config, lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}
	// getEither reports which of key and alias supplied the value.
	getEither := func(key, alias string) (string, string, bool) {
		if v, ok := get(key); ok {
			return key, v, true
		}
		v, ok := get(alias)
		return alias, v, ok
	}

	if v, ok := get(EnvUserAgent); ok {
		cfg.UserAgent = v
	}
	if key, v, ok := getEither(EnvTimeout, EnvTimeoutAlias); ok {
		f, err := parseFloat(key, v)
		if err != nil {
			return err
		}
		cfg.Timeout = seconds(f)
	}
	if v, ok := get(EnvMaxRetries); ok {
		n, err := parseInt(EnvMaxRetries, v)
		if err != nil {
			return err
		}
		cfg.MaxRetries = n
	}
	if key, v, ok := getEither(EnvBackoffBase, EnvBackoffBaseAlias); ok {
		f, err := parseFloat(key, v)
		if err != nil {
			return err
		}
		cfg.BackoffBase = seconds(f)
	}
	if key, v, ok := getEither(EnvRateLimit, EnvRateLimitAlias); ok {
		f, err := parseFloat(key, v)
		if err != nil {
			return err
		}
		cfg.RateLimit = seconds(f)
	}
	if v, ok := get(EnvRespectRobots); ok {
		cfg.RespectRobots = ParseBool(v)
	}
	if v, ok := get(EnvMaxPagesPerSeed); ok {
		n, err := parseInt(EnvMaxPagesPerSeed, v)
		if err != nil {
			return err
		}
		cfg.MaxPagesPerSeed = n
	}
	if v, ok := get(EnvConcurrency); ok {
		n, err := parseInt(EnvConcurrency, v)
		if err != nil {
			return err
		}
		cfg.Concurrency = n
	}
	return nil
}

// ParseBool reports whether v is one of 1, true, yes, y, on (case-insensitive).
// Anything else is false.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func parseFloat(key, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidEnvValue, key, v)
	}
	return f, nil
}

func parseInt(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidEnvValue, key, v)
	}
	return n, nil
}
