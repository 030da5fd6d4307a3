package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/procuregate/gateway/internal/infrastructure/logger"
	"github.com/procuregate/gateway/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config holds router configuration
type Config struct {
	// Env selects the gin mode: "production" runs in release mode
	Env string
	// APIVersion is the version prefix, "v1" when empty
	APIVersion string
	// TrustedProxies restricts which proxies client ips are taken from
	TrustedProxies []string
}

// New builds the gin engine with the gateway middleware chain and all
// routes registered under the versioned API group.
func New(cfg Config, log *zap.Logger, registrars ...RouteRegistrar) (*gin.Engine, error) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.RegisterValidations(); err != nil {
		return nil, err
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	version := cfg.APIVersion
	if version == "" {
		version = "v1"
	}
	api := engine.Group("/api/" + version)
	for _, registrar := range registrars {
		registrar.RegisterRoutes(api)
	}

	return engine, nil
}
