// Command server runs the service-order integration API.
//
// It bridges a Telegram-driven intake flow with two backoffice systems: every
// accepted intake becomes a Zammad helpdesk ticket and, best effort, an
// ERPNext issue cross-linked to it. An embedded SQLite ledger provides the
// idempotency and reverse-lookup store.
//
// Startup order: env → config → logging → tracing → ledger → gateways → HTTP.
// The process shuts down gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/pixelsc/integration-service/docs"
	"github.com/pixelsc/integration-service/internal/config"
	"github.com/pixelsc/integration-service/internal/erpnext"
	httpapi "github.com/pixelsc/integration-service/internal/http"
	"github.com/pixelsc/integration-service/internal/observability"
	"github.com/pixelsc/integration-service/internal/repo"
	"github.com/pixelsc/integration-service/internal/sysutil"
	"github.com/pixelsc/integration-service/internal/zammad"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// @title          Service Order Integration API
// @version        1.0
// @description    Idempotent intake of service orders into Zammad and ERPNext, plus closure reconciliation.
// @BasePath       /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	// Local development convenience; production supplies real env.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging
	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting integration service")

	// Tracing
	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Intake ledger (SQLite)
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open ledger failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("ledger migration failed")
	}

	// Outbound gateways
	helpdesk := zammad.New(cfg.Zammad)
	erp := erpnext.New(cfg.ERPNext)
	if !helpdesk.Configured() {
		log.Warn().Msg("zammad gateway not configured; intake will fail until ZAMMAD_TOKEN is set")
	}
	if !erp.Enabled() {
		log.Info().Msg("erpnext gateway disabled; intakes will carry no ERP issue reference")
	}

	// HTTP engine
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, helpdesk, erp, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("stopped")
}
