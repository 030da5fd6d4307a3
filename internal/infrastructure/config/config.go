package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Portal     PortalConfig
	Collmex    CollmexConfig
	Odoo       OdooConfig
	SharePoint SharePointConfig
	PDS        PDSConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// PortalConfig holds marketplace portal connection settings
type PortalConfig struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	TimeoutSeconds int
}

// CollmexConfig holds the flat-record backend settings
type CollmexConfig struct {
	Enabled        bool
	APIURL         string
	Login          string
	Password       string
	CustomerID     string
	TimeoutSeconds int
}

// OdooConfig holds the XML-RPC backend settings
type OdooConfig struct {
	Enabled          bool
	URL              string
	DB               string
	Login            string
	Password         string
	OrderRefPatterns []string
	ProductID        int64
	TimeoutSeconds   int
}

// SharePointConfig holds the Graph list backend settings
type SharePointConfig struct {
	Enabled        bool
	TenantID       string
	ClientID       string
	ClientSecret   string
	Hostname       string
	SiteName       string
	HeaderList     string
	ItemList       string
	TimeoutSeconds int
}

// PDSConfig holds the generic REST backend settings
type PDSConfig struct {
	Enabled          bool
	BaseURL          string
	Token            string
	DocumentTypeUUID string
	TimeoutSeconds   int
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with GATEWAY_ prefix (e.g., GATEWAY_PORTAL_CLIENT_SECRET)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("GATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Portal: PortalConfig{
			BaseURL:        v.GetString("portal.base_url"),
			ClientID:       v.GetString("portal.client_id"),
			ClientSecret:   v.GetString("portal.client_secret"),
			TimeoutSeconds: v.GetInt("portal.timeout_seconds"),
		},
		Collmex: CollmexConfig{
			Enabled:        v.GetBool("collmex.enabled"),
			APIURL:         v.GetString("collmex.api_url"),
			Login:          v.GetString("collmex.login"),
			Password:       v.GetString("collmex.password"),
			CustomerID:     v.GetString("collmex.customer_id"),
			TimeoutSeconds: v.GetInt("collmex.timeout_seconds"),
		},
		Odoo: OdooConfig{
			Enabled:          v.GetBool("odoo.enabled"),
			URL:              v.GetString("odoo.url"),
			DB:               v.GetString("odoo.db"),
			Login:            v.GetString("odoo.login"),
			Password:         v.GetString("odoo.password"),
			OrderRefPatterns: v.GetStringSlice("odoo.order_ref_patterns"),
			ProductID:        v.GetInt64("odoo.product_id"),
			TimeoutSeconds:   v.GetInt("odoo.timeout_seconds"),
		},
		SharePoint: SharePointConfig{
			Enabled:        v.GetBool("sharepoint.enabled"),
			TenantID:       v.GetString("sharepoint.tenant_id"),
			ClientID:       v.GetString("sharepoint.client_id"),
			ClientSecret:   v.GetString("sharepoint.client_secret"),
			Hostname:       v.GetString("sharepoint.hostname"),
			SiteName:       v.GetString("sharepoint.site_name"),
			HeaderList:     v.GetString("sharepoint.header_list"),
			ItemList:       v.GetString("sharepoint.item_list"),
			TimeoutSeconds: v.GetInt("sharepoint.timeout_seconds"),
		},
		PDS: PDSConfig{
			Enabled:          v.GetBool("pds.enabled"),
			BaseURL:          v.GetString("pds.base_url"),
			Token:            v.GetString("pds.token"),
			DocumentTypeUUID: v.GetString("pds.document_type_uuid"),
			TimeoutSeconds:   v.GetInt("pds.timeout_seconds"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "procurement-gateway"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// Backend round trips happen inside request handling, so the
		// write timeout must outlast the slowest backend timeout.
		cfg.HTTP.WriteTimeout = 120 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Portal.TimeoutSeconds == 0 {
		cfg.Portal.TimeoutSeconds = 30
	}
	if cfg.Collmex.TimeoutSeconds == 0 {
		cfg.Collmex.TimeoutSeconds = 30
	}
	if cfg.Odoo.TimeoutSeconds == 0 {
		cfg.Odoo.TimeoutSeconds = 30
	}
	if cfg.SharePoint.TimeoutSeconds == 0 {
		cfg.SharePoint.TimeoutSeconds = 30
	}
	if cfg.PDS.TimeoutSeconds == 0 {
		cfg.PDS.TimeoutSeconds = 30
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url is required")
	}

	enabled := 0
	if c.Collmex.Enabled {
		enabled++
	}
	if c.Odoo.Enabled {
		enabled++
	}
	if c.SharePoint.Enabled {
		enabled++
	}
	if c.PDS.Enabled {
		enabled++
	}
	if enabled == 0 {
		return fmt.Errorf("at least one backend must be enabled")
	}

	// Credentials are never defaulted; a misconfigured backend fails
	// at startup, not on the first document.
	if c.Collmex.Enabled {
		if c.Collmex.APIURL == "" {
			return fmt.Errorf("collmex.api_url is required when collmex is enabled")
		}
		if c.Collmex.Login == "" || c.Collmex.Password == "" {
			return fmt.Errorf("collmex.login and collmex.password are required when collmex is enabled")
		}
	}
	if c.Odoo.Enabled {
		if c.Odoo.URL == "" || c.Odoo.DB == "" {
			return fmt.Errorf("odoo.url and odoo.db are required when odoo is enabled")
		}
		if c.Odoo.Login == "" || c.Odoo.Password == "" {
			return fmt.Errorf("odoo.login and odoo.password are required when odoo is enabled")
		}
	}
	if c.SharePoint.Enabled {
		if c.SharePoint.TenantID == "" || c.SharePoint.ClientID == "" || c.SharePoint.ClientSecret == "" {
			return fmt.Errorf("sharepoint.tenant_id, sharepoint.client_id and sharepoint.client_secret are required when sharepoint is enabled")
		}
		if c.SharePoint.Hostname == "" || c.SharePoint.SiteName == "" {
			return fmt.Errorf("sharepoint.hostname and sharepoint.site_name are required when sharepoint is enabled")
		}
	}
	if c.PDS.Enabled {
		if c.PDS.BaseURL == "" || c.PDS.Token == "" {
			return fmt.Errorf("pds.base_url and pds.token are required when pds is enabled")
		}
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Portal.ClientID == "" || c.Portal.ClientSecret == "" {
			return fmt.Errorf("portal.client_id and portal.client_secret are required in production")
		}
		if strings.HasPrefix(c.Portal.BaseURL, "http://") {
			return fmt.Errorf("portal.base_url must use https in production")
		}
		if c.Log.Format == "console" {
			return fmt.Errorf("log.format must be json in production")
		}
	}

	return nil
}
