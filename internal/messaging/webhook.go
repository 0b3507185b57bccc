package messaging

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// InboundMessage is one webhook delivery from the messaging gateway. It is
// constructed from the form payload, consumed once and never persisted.
type InboundMessage struct {
	ProfileName      string
	WaID             string
	From             string
	NumMedia         string
	MediaContentType string
	MediaURL         string
}

// HasMedia reports whether the delivery carries at least one attachment.
func (m InboundMessage) HasMedia() bool {
	return m.NumMedia != "" && m.NumMedia != "0"
}

// ParseInbound parses a Twilio WhatsApp webhook request. Only the first media
// slot is considered; the gateway numbers additional attachments MediaUrl1..N
// but the pipeline stores one receipt per delivery.
func ParseInbound(r *http.Request) (*InboundMessage, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse form: %w", err)
	}

	return &InboundMessage{
		ProfileName:      r.FormValue("ProfileName"),
		WaID:             r.FormValue("WaId"),
		From:             r.FormValue("From"),
		NumMedia:         r.FormValue("NumMedia"),
		MediaContentType: r.FormValue("MediaContentType0"),
		MediaURL:         r.FormValue("MediaUrl0"),
	}, nil
}

// ValidateSignature validates that a request came from the gateway.
func ValidateSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}

	if err := r.ParseForm(); err != nil {
		return false
	}

	payload := buildSignaturePayload(webhookURL, r.PostForm)
	expected := computeSignature(payload, authToken)

	return hmac.Equal([]byte(signature), []byte(expected))
}

// buildSignaturePayload creates the payload string for signature verification:
// the webhook URL followed by every form param in key order.
func buildSignaturePayload(url string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(url)

	for _, key := range keys {
		for _, value := range params[key] {
			payload.WriteString(key)
			payload.WriteString(value)
		}
	}

	return payload.String()
}

// computeSignature computes the HMAC-SHA1 signature
func computeSignature(data, key string) string {
	h := hmac.New(sha1.New, []byte(key))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
