package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/procuregate/gateway/internal/application/dispatch"
	"github.com/procuregate/gateway/internal/domain/document"
	"github.com/procuregate/gateway/internal/infrastructure/config"
	"github.com/procuregate/gateway/internal/infrastructure/erp/collmex"
	"github.com/procuregate/gateway/internal/infrastructure/erp/odoo"
	"github.com/procuregate/gateway/internal/infrastructure/erp/pds"
	"github.com/procuregate/gateway/internal/infrastructure/erp/sharepoint"
	"github.com/procuregate/gateway/internal/infrastructure/logger"
	"github.com/procuregate/gateway/internal/infrastructure/portal/shipserv"
	"github.com/procuregate/gateway/internal/interfaces/http/handler"
	"github.com/procuregate/gateway/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting procurement gateway",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Portal client
	portal, err := shipserv.NewClient(&shipserv.Config{
		BaseURL:        cfg.Portal.BaseURL,
		ClientID:       cfg.Portal.ClientID,
		ClientSecret:   cfg.Portal.ClientSecret,
		TimeoutSeconds: cfg.Portal.TimeoutSeconds,
	}, logger.Named(log, "shipserv"))
	if err != nil {
		log.Fatal("Failed to create portal client", zap.Error(err))
	}

	// Backend adapters. The list backend doubles as the side channel
	// the flat-record backend reads portal snapshots from, so it is
	// built first.
	registry := dispatch.NewRegistry()

	var sharepointAdapter *sharepoint.Adapter
	if cfg.SharePoint.Enabled {
		sharepointAdapter, err = sharepoint.NewAdapter(&sharepoint.Config{
			TenantID:       cfg.SharePoint.TenantID,
			ClientID:       cfg.SharePoint.ClientID,
			ClientSecret:   cfg.SharePoint.ClientSecret,
			Hostname:       cfg.SharePoint.Hostname,
			SiteName:       cfg.SharePoint.SiteName,
			HeaderList:     cfg.SharePoint.HeaderList,
			ItemList:       cfg.SharePoint.ItemList,
			TimeoutSeconds: cfg.SharePoint.TimeoutSeconds,
		}, logger.Named(log, "sharepoint"))
		if err != nil {
			log.Fatal("Failed to create sharepoint adapter", zap.Error(err))
		}
		if err := registry.Register("sharepoint", sharepointAdapter.Capabilities()); err != nil {
			log.Fatal("Failed to register sharepoint backend", zap.Error(err))
		}
	}

	if cfg.Collmex.Enabled {
		var side document.SideChannel
		if sharepointAdapter != nil {
			side = sharepointAdapter
		}
		collmexAdapter, err := collmex.NewAdapter(&collmex.Config{
			APIURL:         cfg.Collmex.APIURL,
			Login:          cfg.Collmex.Login,
			Password:       cfg.Collmex.Password,
			CustomerID:     cfg.Collmex.CustomerID,
			TimeoutSeconds: cfg.Collmex.TimeoutSeconds,
		}, side, logger.Named(log, "collmex"))
		if err != nil {
			log.Fatal("Failed to create collmex adapter", zap.Error(err))
		}
		if err := registry.Register("collmex", collmexAdapter.Capabilities()); err != nil {
			log.Fatal("Failed to register collmex backend", zap.Error(err))
		}
	}

	var odooAdapter *odoo.Adapter
	if cfg.Odoo.Enabled {
		odooAdapter, err = odoo.NewAdapter(&odoo.Config{
			URL:              cfg.Odoo.URL,
			DB:               cfg.Odoo.DB,
			Login:            cfg.Odoo.Login,
			Password:         cfg.Odoo.Password,
			OrderRefPatterns: cfg.Odoo.OrderRefPatterns,
			ProductID:        cfg.Odoo.ProductID,
			TimeoutSeconds:   cfg.Odoo.TimeoutSeconds,
		}, logger.Named(log, "odoo"))
		if err != nil {
			log.Fatal("Failed to create odoo adapter", zap.Error(err))
		}
		if err := registry.Register("odoo", odooAdapter.Capabilities()); err != nil {
			log.Fatal("Failed to register odoo backend", zap.Error(err))
		}
	}

	if cfg.PDS.Enabled {
		pdsAdapter, err := pds.NewAdapter(&pds.Config{
			BaseURL:          cfg.PDS.BaseURL,
			Token:            cfg.PDS.Token,
			DocumentTypeUUID: cfg.PDS.DocumentTypeUUID,
			TimeoutSeconds:   cfg.PDS.TimeoutSeconds,
		}, logger.Named(log, "pds"))
		if err != nil {
			log.Fatal("Failed to create pds adapter", zap.Error(err))
		}
		if err := registry.Register("pds", pdsAdapter.Capabilities()); err != nil {
			log.Fatal("Failed to register pds backend", zap.Error(err))
		}
	}

	dispatcher := dispatch.NewService(registry, logger.Named(log, "dispatch"))
	log.Info("Backends registered", zap.Strings("backends", registry.Names()))

	// HTTP layer
	registrars := []router.RouteRegistrar{
		handler.NewSystemHandler(registry.Names()),
		handler.NewDocumentHandler(portal, dispatcher),
		handler.NewERPHandler(portal, dispatcher),
	}
	if odooAdapter != nil {
		registrars = append(registrars, handler.NewOfferHandler(portal, odooAdapter))
	}
	if sharepointAdapter != nil {
		registrars = append(registrars, handler.NewLinkHandler(sharepointAdapter))
	}

	engine, err := router.New(router.Config{
		Env:            cfg.App.Env,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	}, log, registrars...)
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
