package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedEnv = []string{
	"GATEWAY_APP_NAME",
	"GATEWAY_APP_ENV",
	"GATEWAY_APP_PORT",
	"GATEWAY_LOG_LEVEL",
	"GATEWAY_LOG_FORMAT",
	"GATEWAY_PORTAL_BASE_URL",
	"GATEWAY_PORTAL_CLIENT_ID",
	"GATEWAY_PORTAL_CLIENT_SECRET",
	"GATEWAY_COLLMEX_ENABLED",
	"GATEWAY_COLLMEX_API_URL",
	"GATEWAY_COLLMEX_LOGIN",
	"GATEWAY_COLLMEX_PASSWORD",
	"GATEWAY_ODOO_ENABLED",
	"GATEWAY_ODOO_URL",
	"GATEWAY_ODOO_DB",
	"GATEWAY_ODOO_LOGIN",
	"GATEWAY_ODOO_PASSWORD",
	"GATEWAY_SHAREPOINT_ENABLED",
	"GATEWAY_SHAREPOINT_TENANT_ID",
	"GATEWAY_SHAREPOINT_CLIENT_ID",
	"GATEWAY_SHAREPOINT_CLIENT_SECRET",
	"GATEWAY_SHAREPOINT_HOSTNAME",
	"GATEWAY_SHAREPOINT_SITE_NAME",
	"GATEWAY_PDS_ENABLED",
	"GATEWAY_PDS_BASE_URL",
	"GATEWAY_PDS_TOKEN",
}

// withCleanEnv snapshots the gateway env vars, clears them, and restores
// the snapshot when the test finishes.
func withCleanEnv(t *testing.T) {
	t.Helper()
	original := map[string]string{}
	for _, key := range managedEnv {
		original[key] = os.Getenv(key)
		os.Unsetenv(key)
	}
	t.Cleanup(func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
}

// setMinimalValid configures the smallest setup that passes validation
func setMinimalValid() {
	os.Setenv("GATEWAY_PORTAL_BASE_URL", "https://portal.example.com")
	os.Setenv("GATEWAY_COLLMEX_ENABLED", "true")
	os.Setenv("GATEWAY_COLLMEX_API_URL", "https://www.collmex.de/c.cmx?123,0,data_exchange")
	os.Setenv("GATEWAY_COLLMEX_LOGIN", "user")
	os.Setenv("GATEWAY_COLLMEX_PASSWORD", "pass")
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		withCleanEnv(t)
		setMinimalValid()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "procurement-gateway", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "console", cfg.Log.Format)
		assert.Equal(t, 30, cfg.Portal.TimeoutSeconds)
		assert.Equal(t, 30, cfg.Collmex.TimeoutSeconds)
	})

	t.Run("loads values from environment variables with GATEWAY prefix", func(t *testing.T) {
		withCleanEnv(t)
		setMinimalValid()
		os.Setenv("GATEWAY_APP_NAME", "gateway-staging")
		os.Setenv("GATEWAY_APP_PORT", "9000")
		os.Setenv("GATEWAY_LOG_LEVEL", "debug")
		os.Setenv("GATEWAY_PORTAL_CLIENT_ID", "client-7")
		os.Setenv("GATEWAY_PORTAL_CLIENT_SECRET", "hunter2")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "gateway-staging", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "client-7", cfg.Portal.ClientID)
		assert.Equal(t, "hunter2", cfg.Portal.ClientSecret)
	})

	t.Run("requires portal base url", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("GATEWAY_COLLMEX_ENABLED", "true")
		os.Setenv("GATEWAY_COLLMEX_API_URL", "https://www.collmex.de/c.cmx")
		os.Setenv("GATEWAY_COLLMEX_LOGIN", "user")
		os.Setenv("GATEWAY_COLLMEX_PASSWORD", "pass")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "portal.base_url is required")
	})

	t.Run("requires at least one backend", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("GATEWAY_PORTAL_BASE_URL", "https://portal.example.com")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one backend must be enabled")
	})

	t.Run("enabled backend without credentials fails", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("GATEWAY_PORTAL_BASE_URL", "https://portal.example.com")
		os.Setenv("GATEWAY_ODOO_ENABLED", "true")
		os.Setenv("GATEWAY_ODOO_URL", "https://odoo.example.com")
		os.Setenv("GATEWAY_ODOO_DB", "erp")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "odoo.login and odoo.password are required")
	})

	t.Run("enabled sharepoint without site fails", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("GATEWAY_PORTAL_BASE_URL", "https://portal.example.com")
		os.Setenv("GATEWAY_SHAREPOINT_ENABLED", "true")
		os.Setenv("GATEWAY_SHAREPOINT_TENANT_ID", "tenant-1")
		os.Setenv("GATEWAY_SHAREPOINT_CLIENT_ID", "client-1")
		os.Setenv("GATEWAY_SHAREPOINT_CLIENT_SECRET", "secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sharepoint.hostname and sharepoint.site_name are required")
	})

	t.Run("enabled pds without token fails", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("GATEWAY_PORTAL_BASE_URL", "https://portal.example.com")
		os.Setenv("GATEWAY_PDS_ENABLED", "true")
		os.Setenv("GATEWAY_PDS_BASE_URL", "https://pds.example.com")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pds.base_url and pds.token are required")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func() {
		setMinimalValid()
		os.Setenv("GATEWAY_APP_ENV", "production")
		os.Setenv("GATEWAY_LOG_FORMAT", "json")
		os.Setenv("GATEWAY_PORTAL_CLIENT_ID", "client-7")
		os.Setenv("GATEWAY_PORTAL_CLIENT_SECRET", "hunter2")
	}

	t.Run("requires portal credentials in production", func(t *testing.T) {
		withCleanEnv(t)
		setValidProductionBase()
		os.Unsetenv("GATEWAY_PORTAL_CLIENT_SECRET")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "portal.client_id and portal.client_secret are required in production")
	})

	t.Run("rejects plain http portal url in production", func(t *testing.T) {
		withCleanEnv(t)
		setValidProductionBase()
		os.Setenv("GATEWAY_PORTAL_BASE_URL", "http://portal.example.com")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must use https in production")
	})

	t.Run("rejects console logs in production", func(t *testing.T) {
		withCleanEnv(t)
		setValidProductionBase()
		os.Setenv("GATEWAY_LOG_FORMAT", "console")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log.format must be json in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		withCleanEnv(t)
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
		assert.Equal(t, "json", cfg.Log.Format)
	})
}
