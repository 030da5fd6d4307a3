package shipserv

import (
	"errors"
	"strings"
)

// Errors for portal configuration
var (
	ErrConfigMissingBaseURL      = errors.New("shipserv: base url is required")
	ErrConfigMissingClientID     = errors.New("shipserv: client id is required")
	ErrConfigMissingClientSecret = errors.New("shipserv: client secret is required")
)

// Config holds the portal connection settings
type Config struct {
	// BaseURL is the portal API root
	BaseURL string
	// ClientID is the OAuth2 client id
	ClientID string
	// ClientSecret is the OAuth2 client secret
	ClientSecret string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Validate validates the configuration and fills defaults
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.ClientID == "" {
		return ErrConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrConfigMissingClientSecret
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		c.BaseURL = "https://" + c.BaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
