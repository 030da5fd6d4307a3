package pds

import (
	"errors"
	"strings"
)

// Errors for pds configuration
var (
	ErrConfigMissingBaseURL = errors.New("pds: base url is required")
	ErrConfigMissingToken   = errors.New("pds: token is required")
)

// Config holds the REST connection settings
type Config struct {
	// BaseURL is the API root
	BaseURL string
	// Token is the bearer credential
	Token string
	// DocumentTypeUUID is the default document type for uploads
	DocumentTypeUUID string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Validate validates the configuration and fills defaults
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.Token == "" {
		return ErrConfigMissingToken
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
