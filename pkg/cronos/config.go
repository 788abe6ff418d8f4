package cronos

import "time"

// Config represents the configuration for the Cronos registration API client
type Config struct {
	// BaseURL is the registration API base URL
	BaseURL string

	// PublicKey identifies the application on the token endpoint
	PublicKey string

	// PrivateKey is the application secret paired with PublicKey
	PrivateKey string

	// Timeout is the per-request HTTP timeout
	Timeout time.Duration

	// TokenTTL bounds how long a cached application token is reused
	// before a fresh one is requested
	TokenTTL time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	if c.PublicKey == "" {
		return ErrInvalidConfig
	}
	if c.PrivateKey == "" {
		return ErrInvalidConfig
	}
	return nil
}
