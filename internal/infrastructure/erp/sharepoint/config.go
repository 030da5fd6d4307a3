package sharepoint

import (
	"errors"

	"github.com/procuregate/gateway/internal/domain/document"
)

// Errors for sharepoint configuration
var (
	ErrConfigMissingTenantID     = errors.New("sharepoint: tenant id is required")
	ErrConfigMissingClientID     = errors.New("sharepoint: client id is required")
	ErrConfigMissingClientSecret = errors.New("sharepoint: client secret is required")
	ErrConfigMissingHostname     = errors.New("sharepoint: hostname is required")
	ErrConfigMissingSiteName     = errors.New("sharepoint: site name is required")
)

// Config holds the Graph API connection settings
type Config struct {
	// TenantID is the directory tenant
	TenantID string
	// ClientID identifies the registered application
	ClientID string
	// ClientSecret is the application credential
	ClientSecret string
	// Hostname is the site host, e.g. "factorship.sharepoint.com"
	Hostname string
	// SiteName is the site the lists live on
	SiteName string
	// HeaderList is the list holding document headers
	HeaderList string
	// ItemList is the list holding line items
	ItemList string
	// FilterFieldByType maps a document type to the header field its
	// backend id is stored under. Lookups filter on the same field.
	FilterFieldByType map[document.DocumentType]string
	// LoginBaseURL is the token endpoint host, overridable for tests
	LoginBaseURL string
	// GraphBaseURL is the Graph API host, overridable for tests
	GraphBaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Validate validates the configuration and fills defaults
func (c *Config) Validate() error {
	if c.TenantID == "" {
		return ErrConfigMissingTenantID
	}
	if c.ClientID == "" {
		return ErrConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrConfigMissingClientSecret
	}
	if c.Hostname == "" {
		return ErrConfigMissingHostname
	}
	if c.SiteName == "" {
		return ErrConfigMissingSiteName
	}
	if c.HeaderList == "" {
		c.HeaderList = "Anfragen"
	}
	if c.ItemList == "" {
		c.ItemList = "Anfragepos"
	}
	if len(c.FilterFieldByType) == 0 {
		c.FilterFieldByType = map[document.DocumentType]string{
			document.TypeRequestForQuote: "ERPNr",
			document.TypePurchaseOrder:   "ERPNrOrder",
		}
	}
	if c.LoginBaseURL == "" {
		c.LoginBaseURL = "https://login.microsoftonline.com"
	}
	if c.GraphBaseURL == "" {
		c.GraphBaseURL = "https://graph.microsoft.com/v1.0"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// filterField returns the header field the backend id of the given
// document type is stored under.
func (c *Config) filterField(docType document.DocumentType) string {
	if field, ok := c.FilterFieldByType[docType]; ok {
		return field
	}
	return "ERPNr"
}
