package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/campusride/internal/api/router"
	"github.com/wolfman30/campusride/internal/app/bootstrap"
	appconfig "github.com/wolfman30/campusride/internal/config"
	"github.com/wolfman30/campusride/internal/deeplink"
	"github.com/wolfman30/campusride/internal/forms"
	"github.com/wolfman30/campusride/internal/listings"
	"github.com/wolfman30/campusride/internal/observability/metrics"
	"github.com/wolfman30/campusride/internal/submission"
	"github.com/wolfman30/campusride/internal/validation"
	"github.com/wolfman30/campusride/internal/web"
	"github.com/wolfman30/campusride/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting campusride web server",
		"env", cfg.Env,
		"port", cfg.Port,
		"store", cfg.StoreBackend,
	)

	startCtx, startCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer startCancel()

	store, closeStore, err := bootstrap.BuildRecordStore(startCtx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize record store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	auditLog, closeAudit, err := bootstrap.BuildAuditLog(startCtx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize audit log", "error", err)
		os.Exit(1)
	}
	defer closeAudit()

	catalog, err := listings.LoadCatalog(cfg.ListingsFile)
	if err != nil {
		logger.Error("failed to load ride listings", "error", err)
		os.Exit(1)
	}
	links, err := deeplink.NewBuilder(cfg.WhatsAppBaseURL, cfg.WhatsAppNumber, nil)
	if err != nil {
		logger.Error("failed to configure chat links", "error", err)
		os.Exit(1)
	}

	reg, metricsHandler := setupMetrics()

	fields := validation.New(time.Now)
	pipelineOpts := submission.Options{
		Store:     store,
		Validator: forms.NewValidator(fields),
		Logger:    logger.Component("submission"),
		Metrics:   metrics.NewFormMetrics(reg),
		Latency:   cfg.SubmitLatency,
	}
	if cfg.SubmitLatency == 0 {
		pipelineOpts.Latency = -1
	}
	if auditLog != nil {
		pipelineOpts.Auditor = auditLog
	}

	site, err := web.NewHandler(web.Options{
		Pipeline: submission.New(pipelineOpts),
		Fields:   fields,
		Catalog:  catalog,
		Links:    links,
		Metrics:  metrics.NewSiteMetrics(reg),
		Logger:   logger.Component("web"),
	})
	if err != nil {
		logger.Error("failed to build site handler", "error", err)
		os.Exit(1)
	}

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		Site:               site,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	// Create HTTP server; the write timeout leaves room for the acknowledgement delay.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15*time.Second + cfg.SubmitLatency,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics builds the registry shared by every collector and its scrape handler.
func setupMetrics() (*prometheus.Registry, http.Handler) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
