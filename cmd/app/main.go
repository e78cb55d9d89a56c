// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ott-subscription-gateway/internal/config"
	"ott-subscription-gateway/internal/infra/crm"
	"ott-subscription-gateway/internal/infra/hitlog"
	"ott-subscription-gateway/internal/infra/logging"
	"ott-subscription-gateway/internal/infra/metrics"
	"ott-subscription-gateway/internal/infra/web"
	"ott-subscription-gateway/internal/usecase"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no redaction)")
	flag.Parse()

	// .env is optional; environment variables override file config either way.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv: %v", err)
	}

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Runtime.Dev {
		log.Printf("[DEV MODE] Enabled")
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Infra ----
	hits, err := hitlog.NewRecorder(cfg.HitLog.Dir, logger)
	if err != nil {
		log.Fatalf("hitlog: %v", err)
	}
	gateway := crm.NewClient(cfg.CRM, logger)

	// ---- Use cases ----
	resolver := usecase.NewContactResolver(gateway, logger)
	subUC := usecase.NewSubscriptionUseCase(gateway, resolver, cfg.CRM, logger)

	// ---- HTTP ----
	srv := web.NewServer(resolver, subUC, hits, cfg.Auth, logger)
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).
			Str("crm_base_url", cfg.CRM.BaseURL).
			Str("crm_api_key", logging.Redact(cfg.CRM.APIKey, cfg.Runtime.Dev)).
			Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// ---- Graceful shutdown ----
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}
