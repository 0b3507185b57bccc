package receipt

import "context"

// queueClient abstracts the storage-notification queue so the worker can run
// against SQS in deployments and the in-memory queue in tests and local dev.
// Message bodies are the S3 event notification JSON produced by the bucket.
type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}
