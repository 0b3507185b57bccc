package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration, read once at process start and
// treated as immutable afterwards.
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	UseMemoryQueue bool
	WorkerCount    int

	// Messaging gateway (Twilio WhatsApp sandbox by default).
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioWebhookSecret string
	TwilioFromNumber    string

	// Document Intelligence service.
	DocIntelEndpoint     string
	DocIntelKey          string
	DocIntelModelID      string
	DocIntelPollInterval time.Duration
	DocIntelTimeout      time.Duration

	// Receipt object storage and its created-object notification queue.
	ReceiptBucket         string
	ReceiptEventsQueueURL string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 2),

		TwilioAccountSID:    getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:     getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWebhookSecret: getEnv("TWILIO_WEBHOOK_SECRET", ""),
		TwilioFromNumber:    getEnv("TWILIO_FROM_NUMBER", "whatsapp:+14155238886"),

		DocIntelEndpoint:     getEnv("DOCINTEL_ENDPOINT", ""),
		DocIntelKey:          getEnv("DOCINTEL_KEY", ""),
		DocIntelModelID:      getEnv("DOCINTEL_MODEL_ID", "prebuilt-receipt"),
		DocIntelPollInterval: getEnvAsDuration("DOCINTEL_POLL_INTERVAL", 2*time.Second),
		DocIntelTimeout:      getEnvAsDuration("DOCINTEL_TIMEOUT", 2*time.Minute),

		ReceiptBucket:         getEnv("RECEIPT_BUCKET", ""),
		ReceiptEventsQueueURL: getEnv("RECEIPT_EVENTS_QUEUE_URL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// ValidateIntake checks the settings the webhook API cannot run without.
func (c *Config) ValidateIntake() error {
	if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" {
		return errors.New("config: TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required")
	}
	if c.ReceiptBucket == "" {
		return errors.New("config: RECEIPT_BUCKET is required")
	}
	return nil
}

// ValidateAnalysis checks the settings the analysis stage cannot run without.
func (c *Config) ValidateAnalysis() error {
	if err := c.ValidateIntake(); err != nil {
		return err
	}
	if c.DocIntelEndpoint == "" || c.DocIntelKey == "" {
		return errors.New("config: DOCINTEL_ENDPOINT and DOCINTEL_KEY are required")
	}
	return nil
}

// ValidateWorker checks the settings the queue-driven analysis worker cannot
// run without. The Lambda deployment has no queue and skips this.
func (c *Config) ValidateWorker() error {
	if err := c.ValidateAnalysis(); err != nil {
		return err
	}
	if !c.UseMemoryQueue && c.ReceiptEventsQueueURL == "" {
		return errors.New("config: RECEIPT_EVENTS_QUEUE_URL is required unless USE_MEMORY_QUEUE=true")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
