package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/scontreeno/scontreeno/cmd/mainconfig"
	"github.com/scontreeno/scontreeno/internal/analysis"
	appconfig "github.com/scontreeno/scontreeno/internal/config"
	"github.com/scontreeno/scontreeno/internal/messaging"
	"github.com/scontreeno/scontreeno/internal/receipt"
	"github.com/scontreeno/scontreeno/internal/storage"
	"github.com/scontreeno/scontreeno/pkg/logging"
)

// Alternative deployment of the analysis stage: S3 invokes this function
// directly on object creation, no SQS queue in between.
func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if err := cfg.ValidateAnalysis(); err != nil {
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
	processor := receipt.NewProcessor(store, analyzer, messenger, nil, logger)

	lambda.Start(func(ctx context.Context, evt events.S3Event) error {
		return processor.ProcessEvent(ctx, evt)
	})
}
