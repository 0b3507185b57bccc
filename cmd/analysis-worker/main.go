package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/scontreeno/scontreeno/cmd/mainconfig"
	"github.com/scontreeno/scontreeno/internal/analysis"
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

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	awsConfig, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	s3Client := s3.NewFromConfig(awsConfig)
	store := storage.NewStore(s3Client, cfg.ReceiptBucket, logger.Logger)

	analyzer, err := analysis.New(analysis.Config{
		Endpoint:     cfg.DocIntelEndpoint,
		Key:          cfg.DocIntelKey,
		ModelID:      cfg.DocIntelModelID,
		PollInterval: cfg.DocIntelPollInterval,
		Timeout:      cfg.DocIntelTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to create analysis client", "error", err)
		os.Exit(1)
	}

	messenger := messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	receiptMetrics := metrics.NewReceiptMetrics(prometheus.DefaultRegisterer)
	processor := receipt.NewProcessor(store, analyzer, messenger, receiptMetrics, logger)

	var worker *receipt.Worker
	if cfg.UseMemoryQueue {
		logger.Warn("using in-memory queue; object notifications from S3 will not arrive")
		worker = receipt.NewWorker(
			processor,
			receipt.NewMemoryQueue(64),
			logger,
			receipt.WithWorkerCount(cfg.WorkerCount),
		)
	} else {
		sqsClient := sqs.NewFromConfig(awsConfig)
		worker = receipt.NewWorker(
			processor,
			receipt.NewSQSQueue(sqsClient, cfg.ReceiptEventsQueueURL),
			logger,
			receipt.WithWorkerCount(cfg.WorkerCount),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker.Start(ctx)
	logger.Info("analysis worker started", "workers", cfg.WorkerCount)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down analysis worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("analysis worker stopped")
	case <-doneCtx.Done():
		logger.Error("analysis worker shutdown timed out", "error", doneCtx.Err())
	}
}
