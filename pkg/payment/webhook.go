package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"

	HeaderWebhookID        = "webhook-id"
	HeaderWebhookTimestamp = "webhook-timestamp"
	HeaderWebhookSignature = "webhook-signature"

	DefaultSignatureTolerance = 5 * time.Minute
)

var (
	ErrMissingSignature = errors.New("missing webhook signature headers")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrStaleTimestamp   = errors.New("webhook timestamp outside tolerance")
)

// WebhookEvent is the gateway's event envelope.
type WebhookEvent struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	CreatedDate string         `json:"createdDate,omitempty"`
	Payload     WebhookPayload `json:"payload"`
}

type WebhookPayload struct {
	ID                   string                 `json:"id"`
	Status               string                 `json:"status,omitempty"`
	Amount               int64                  `json:"amount,omitempty"`
	Currency             string                 `json:"currency,omitempty"`
	Metadata             map[string]interface{} `json:"metadata"`
	PaymentMethodDetails *PaymentMethodDetails  `json:"paymentMethodDetails,omitempty"`
}

type PaymentMethodDetails struct {
	Type string `json:"type"`
}

// MetadataString returns metadata[key] when it is a non-empty string.
func (p WebhookPayload) MetadataString(key string) string {
	if p.Metadata == nil {
		return ""
	}
	s, _ := p.Metadata[key].(string)
	return s
}

// MethodType returns the payment method type or an empty string.
func (p WebhookPayload) MethodType() string {
	if p.PaymentMethodDetails == nil {
		return ""
	}
	return p.PaymentMethodDetails.Type
}

// SignatureVerifier checks Standard Webhooks signatures:
// base64(HMAC-SHA256(secret, id + "." + timestamp + "." + body)).
type SignatureVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewSignatureVerifier accepts a "whsec_"-prefixed base64 secret. An empty
// secret yields a verifier that accepts everything.
func NewSignatureVerifier(secret string, tolerance time.Duration) (*SignatureVerifier, error) {
	if tolerance <= 0 {
		tolerance = DefaultSignatureTolerance
	}
	v := &SignatureVerifier{tolerance: tolerance, now: time.Now}
	if secret == "" {
		return v, nil
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, "whsec_"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode webhook secret: %w", err)
	}
	v.secret = key
	return v, nil
}

func (v *SignatureVerifier) Enabled() bool {
	return len(v.secret) > 0
}

func (v *SignatureVerifier) Verify(header http.Header, body []byte) error {
	if !v.Enabled() {
		return nil
	}

	id := header.Get(HeaderWebhookID)
	ts := header.Get(HeaderWebhookTimestamp)
	sigs := header.Get(HeaderWebhookSignature)
	if id == "" || ts == "" || sigs == "" {
		return ErrMissingSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	sent := time.Unix(unix, 0)
	if d := v.now().Sub(sent); d > v.tolerance || d < -v.tolerance {
		return ErrStaleTimestamp
	}

	expected := v.sign(id, ts, body)
	for _, candidate := range strings.Fields(sigs) {
		version, sig, ok := strings.Cut(candidate, ",")
		if !ok || version != "v1" {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// Sign produces the "v1,<sig>" header value for the given delivery.
func (v *SignatureVerifier) Sign(id string, ts time.Time, body []byte) string {
	return "v1," + v.sign(id, strconv.FormatInt(ts.Unix(), 10), body)
}

func (v *SignatureVerifier) sign(id, ts string, body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(id))
	mac.Write([]byte("."))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
