package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/scontreeno/scontreeno/internal/analysis"
	"github.com/scontreeno/scontreeno/internal/messaging"
	"github.com/scontreeno/scontreeno/internal/observability/metrics"
	"github.com/scontreeno/scontreeno/internal/storage"
	"github.com/scontreeno/scontreeno/pkg/logging"
)

type objectGetter interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// Processor runs the analysis stage for one stored receipt object: download,
// analyze, compose, send. It holds no state across calls; the object key is
// the only routing input.
type Processor struct {
	store     objectGetter
	analyzer  analysis.Analyzer
	messenger messaging.ReplyMessenger
	metrics   *metrics.ReceiptMetrics
	logger    *logging.Logger
}

// NewProcessor wires the analysis-stage dependencies.
func NewProcessor(store objectGetter, analyzer analysis.Analyzer, messenger messaging.ReplyMessenger, m *metrics.ReceiptMetrics, logger *logging.Logger) *Processor {
	if store == nil {
		panic("receipt: object store cannot be nil")
	}
	if analyzer == nil {
		panic("receipt: analyzer cannot be nil")
	}
	if messenger == nil {
		panic("receipt: messenger cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Processor{
		store:     store,
		analyzer:  analyzer,
		messenger: messenger,
		metrics:   m,
		logger:    logger,
	}
}

// ProcessObject handles the creation of one stored receipt object. The reply
// target is parsed from the object key; any failure between download and
// composition degrades to the fallback text, and a reply is dispatched either
// way. Only an unroutable key or a send failure surfaces as an error.
func (p *Processor) ProcessObject(ctx context.Context, key string) error {
	waID, address, err := storage.ParseObjectKey(key)
	if err != nil {
		return err
	}

	reply, composeErr := p.composeForObject(ctx, key)
	if composeErr != nil {
		p.logger.Error("receipt analysis failed", "error", composeErr, "s3_key", key, "wa_id", waID)
		p.metrics.ObserveAnalysis("failed")
		reply = FallbackReply
	} else {
		p.metrics.ObserveAnalysis("succeeded")
	}

	kind := "result"
	if reply == FallbackReply {
		kind = "fallback"
	}

	if err := p.messenger.SendReply(ctx, address, reply); err != nil {
		p.metrics.ObserveReply("send_failed")
		return fmt.Errorf("receipt: send reply to %s: %w", address, err)
	}

	p.metrics.ObserveReply(kind)
	p.logger.Info("receipt reply sent", "wa_id", waID, "kind", kind)
	return nil
}

// ProcessEvent handles a storage object-created event, processing every record
// it carries. Record failures are independent; the first error is returned
// after all records have been attempted.
func (p *Processor) ProcessEvent(ctx context.Context, evt events.S3Event) error {
	var firstErr error
	for _, record := range evt.Records {
		key := objectKeyFromRecord(record)
		if err := p.ProcessObject(ctx, key); err != nil {
			p.logger.Error("failed to process stored receipt", "error", err, "s3_key", key)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (p *Processor) composeForObject(ctx context.Context, key string) (string, error) {
	body, err := p.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer body.Close()

	start := time.Now()
	result, err := p.analyzer.Analyze(ctx, body)
	p.metrics.ObserveAnalyzeLatency(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	if result == nil || len(result.Documents) == 0 {
		return "", errors.New("receipt: analysis returned no documents")
	}

	return ComposeReply(result.Documents[0]), nil
}
