package odoo

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Errors for odoo configuration
var (
	ErrConfigMissingURL      = errors.New("odoo: url is required")
	ErrConfigMissingDB       = errors.New("odoo: database is required")
	ErrConfigMissingLogin    = errors.New("odoo: login is required")
	ErrConfigMissingPassword = errors.New("odoo: password is required")
)

// Config holds the XML-RPC connection settings
type Config struct {
	// URL is the server base URL
	URL string
	// DB is the database name
	DB string
	// Login is the account login
	Login string
	// Password is the account password or API key
	Password string
	// OrderRefPatterns are regular expressions that recognize backend
	// order numbers in a document reference. A quote whose reference
	// matches one updates the existing order instead of creating a
	// new one.
	OrderRefPatterns []string
	// ProductID is the placeholder product all order lines book
	// against; line identity lives in the name text
	ProductID int64
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Validate validates the configuration, fills defaults and compiles
// the order reference patterns.
func (c *Config) Validate() ([]*regexp.Regexp, error) {
	if c.URL == "" {
		return nil, ErrConfigMissingURL
	}
	if c.DB == "" {
		return nil, ErrConfigMissingDB
	}
	if c.Login == "" {
		return nil, ErrConfigMissingLogin
	}
	if c.Password == "" {
		return nil, ErrConfigMissingPassword
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		c.URL = "https://" + c.URL
	}
	if len(c.OrderRefPatterns) == 0 {
		c.OrderRefPatterns = []string{`^S\d+$`}
	}
	if c.ProductID == 0 {
		c.ProductID = 3
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}

	patterns := make([]*regexp.Regexp, 0, len(c.OrderRefPatterns))
	for _, p := range c.OrderRefPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("odoo: invalid order reference pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}
