package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scontreeno/scontreeno/cmd/mainconfig"
	"github.com/scontreeno/scontreeno/internal/api/router"
	appconfig "github.com/scontreeno/scontreeno/internal/config"
	"github.com/scontreeno/scontreeno/internal/messaging"
	"github.com/scontreeno/scontreeno/internal/observability/metrics"
	"github.com/scontreeno/scontreeno/internal/receipt"
	"github.com/scontreeno/scontreeno/internal/storage"
	"github.com/scontreeno/scontreeno/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting scontreeno API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if err := cfg.ValidateIntake(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	store := storage.NewStore(s3Client, cfg.ReceiptBucket, logger.Logger)
	fetcher := messaging.NewMediaFetcher(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	receiptMetrics := metrics.NewReceiptMetrics(prometheus.DefaultRegisterer)

	intakeHandler := receipt.NewIntakeHandler(cfg.TwilioWebhookSecret, fetcher, store, receiptMetrics, logger)

	r := router.New(&router.Config{
		Logger:         logger,
		IntakeHandler:  intakeHandler,
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

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
}
