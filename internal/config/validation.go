package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validSSLModes are the PostgreSQL SSL modes accepted by pgx.
var validSSLModes = map[string]struct{}{
	"disable":     {},
	"allow":       {},
	"prefer":      {},
	"require":     {},
	"verify-ca":   {},
	"verify-full": {},
}

// Validate checks the configuration for invalid values.
// Returns a sentinel error (wrapped with detail) on the first failure so
// callers can use errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Language {
	case "auto", "en", "zh":
	default:
		return fmt.Errorf("%w: %q (expected auto, en or zh)", ErrInvalidLanguage, c.Language)
	}

	if c.ToolTimeoutSeconds < MinToolTimeoutSeconds || c.ToolTimeoutSeconds > MaxToolTimeoutSeconds {
		return fmt.Errorf("%w: %d (expected %d-%d seconds)",
			ErrInvalidToolTimeout, c.ToolTimeoutSeconds, MinToolTimeoutSeconds, MaxToolTimeoutSeconds)
	}

	if c.TranscriptLimit < 1 || c.TranscriptLimit > MaxTranscriptLimit {
		return fmt.Errorf("%w: %d (expected 1-%d)",
			ErrInvalidTranscriptLimit, c.TranscriptLimit, MaxTranscriptLimit)
	}

	if c.RetrieverTopK < 1 || c.RetrieverTopK > 50 {
		return fmt.Errorf("%w: %d (expected 1-50)", ErrInvalidTopK, c.RetrieverTopK)
	}

	if err := validateHTTPURL(c.PredictorURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPredictorURL, err)
	}

	if c.Storage == StoragePostgres {
		if strings.TrimSpace(c.PostgresHost) == "" {
			return fmt.Errorf("%w: host is empty", ErrInvalidPostgresHost)
		}
		if c.PostgresPort < 1 || c.PostgresPort > 65535 {
			return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
		}
		if strings.TrimSpace(c.PostgresDBName) == "" {
			return fmt.Errorf("%w: database name is empty", ErrInvalidPostgresDBName)
		}
		if _, ok := validSSLModes[c.PostgresSSLMode]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
		}
	}

	return nil
}

// validateHTTPURL checks that s is an absolute http(s) URL.
func validateHTTPURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is empty")
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}
