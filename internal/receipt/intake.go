package receipt

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/scontreeno/scontreeno/internal/messaging"
	"github.com/scontreeno/scontreeno/internal/observability/metrics"
	"github.com/scontreeno/scontreeno/internal/storage"
	"github.com/scontreeno/scontreeno/pkg/logging"
)

var intakeTracer = otel.Tracer("scontreeno.internal.receipt.intake")

// acceptedMediaTypes is the content-type allowlist for uploads. PDF receipts
// are rejected until the analysis profile is validated against them.
var acceptedMediaTypes = map[string]bool{
	"image/jpeg": true,
}

type mediaFetcher interface {
	Fetch(ctx context.Context, mediaURL string) ([]byte, error)
}

type objectPutter interface {
	Put(ctx context.Context, key string, body io.Reader) error
}

// IntakeHandler receives gateway webhook deliveries, validates the attached
// receipt image and persists it. Each invocation produces exactly one reply
// (the webhook response body) and at most one stored object.
type IntakeHandler struct {
	webhookSecret string
	fetcher       mediaFetcher
	store         objectPutter
	metrics       *metrics.ReceiptMetrics
	logger        *logging.Logger
}

// NewIntakeHandler creates the intake webhook handler. webhookSecret enables
// gateway signature validation when non-empty.
func NewIntakeHandler(webhookSecret string, fetcher mediaFetcher, store objectPutter, m *metrics.ReceiptMetrics, logger *logging.Logger) *IntakeHandler {
	if fetcher == nil {
		panic("receipt: media fetcher cannot be nil")
	}
	if store == nil {
		panic("receipt: object store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IntakeHandler{
		webhookSecret: webhookSecret,
		fetcher:       fetcher,
		store:         store,
		metrics:       m,
		logger:        logger,
	}
}

// HealthCheck responds to liveness probes.
func (h *IntakeHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleWebhook handles POST /webhooks/twilio/messages.
func (h *IntakeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := intakeTracer.Start(r.Context(), "receipt.intake.webhook")
	defer span.End()
	start := time.Now()

	if h.webhookSecret != "" {
		if !messaging.ValidateSignature(r, h.webhookSecret, buildAbsoluteURL(r)) {
			h.logger.Warn("invalid gateway signature")
			h.metrics.ObserveInbound("bad_signature")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	msg, err := messaging.ParseInbound(r)
	if err != nil {
		h.logger.Error("failed to parse gateway webhook", "error", err)
		h.metrics.ObserveInbound("bad_request")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("scontreeno.wa_id", msg.WaID),
		attribute.String("scontreeno.num_media", msg.NumMedia),
	)

	outcome, reply := h.process(ctx, msg)
	h.metrics.ObserveInbound(outcome)
	h.metrics.ObserveWebhookLatency(time.Since(start).Seconds())

	respondTwiML(w, reply)
}

// process runs the short-circuiting validation sequence. Every branch returns
// a distinct reply; only the final one writes to storage.
func (h *IntakeHandler) process(ctx context.Context, msg *messaging.InboundMessage) (outcome, reply string) {
	name := msg.ProfileName

	if !msg.HasMedia() {
		return "no_media", fmt.Sprintf("Welcome to Scontreeno, %s. Please, upload a receipt. I'll analyze and store it for you.", name)
	}

	if !acceptedMediaTypes[msg.MediaContentType] {
		return "unsupported_type", fmt.Sprintf("I'm sorry, %s. I can only process JPG images at the moment. Please send me an image. Thanks", name)
	}

	if msg.MediaURL == "" {
		return "missing_url", fmt.Sprintf("I'm sorry, %s. I'm having problems in receiving image. Can you please try again?", name)
	}

	data, err := h.fetcher.Fetch(ctx, msg.MediaURL)
	if err != nil {
		h.logger.Error("failed to download media", "error", err, "wa_id", msg.WaID)
		return "fetch_failed", fmt.Sprintf("I'm sorry, %s. I'm having problems in receiving your media. Can you please try again?", name)
	}

	key := storage.BuildObjectKey(msg.WaID, msg.From)
	if err := h.store.Put(ctx, key, bytes.NewReader(data)); err != nil {
		h.logger.Error("failed to store receipt image", "error", err, "s3_key", key)
		return "store_failed", fmt.Sprintf("I'm sorry, %s. I'm having problems in receiving your media. Can you please try again?", name)
	}

	h.logger.Info("receipt image stored", "wa_id", msg.WaID, "s3_key", key)
	return "stored", fmt.Sprintf("Thanks, %s. Your receipt has been received. \U0001F941 I'm processing it!", name)
}

// respondTwiML wraps the reply text in the message response the gateway
// expects, escaping sender-controlled content.
func respondTwiML(w http.ResponseWriter, reply string) {
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(reply))

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Response><Message>%s</Message></Response>`, escaped.String())
}

func buildAbsoluteURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.Scheme != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
