package webhook

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/carebook-api/internal/service/webhook"
	"github.com/jwalitptl/carebook-api/pkg/payment"
)

type mockWebhookService struct {
	mock.Mock
}

func (m *mockWebhookService) Handle(ctx context.Context, evt *payment.WebhookEvent) (webhook.Outcome, error) {
	args := m.Called(ctx, evt)
	return args.Get(0).(webhook.Outcome), args.Error(1)
}

var testSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("webhook-test-secret"))

func setup(t *testing.T, secret string) (*gin.Engine, *mockWebhookService, *payment.SignatureVerifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	verifier, err := payment.NewSignatureVerifier(secret, time.Minute)
	require.NoError(t, err)

	svc := &mockWebhookService{}
	engine := gin.New()
	NewHandler(svc, verifier, zerolog.Nop()).RegisterRoutes(engine.Group("/api/v1"))
	return engine, svc, verifier
}

func signedRequest(v *payment.SignatureVerifier, body []byte) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	now := time.Now()
	req.Header.Set(payment.HeaderWebhookID, "msg_1")
	req.Header.Set(payment.HeaderWebhookTimestamp, strconv.FormatInt(now.Unix(), 10))
	req.Header.Set(payment.HeaderWebhookSignature, v.Sign("msg_1", now, body))
	return req
}

func TestReceive_AcknowledgesVerifiedDelivery(t *testing.T) {
	engine, svc, verifier := setup(t, testSecret)

	body := []byte(`{"id":"evt_1","type":"payment.succeeded","payload":{"id":"pay_1","metadata":{"booking_id":"b1"}}}`)
	svc.On("Handle", mock.Anything, mock.MatchedBy(func(evt *payment.WebhookEvent) bool {
		return evt.ID == "evt_1" && evt.Payload.MetadataString("booking_id") == "b1"
	})).Return(webhook.OutcomeApplied, nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, signedRequest(verifier, body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true,"outcome":"applied"}`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestReceive_IgnoredEventsStillReturn200(t *testing.T) {
	engine, svc, verifier := setup(t, testSecret)

	body := []byte(`{"id":"evt_2","type":"refund.succeeded","payload":{"id":"r1"}}`)
	svc.On("Handle", mock.Anything, mock.Anything).Return(webhook.OutcomeIgnored, nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, signedRequest(verifier, body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ignored"`)
}

func TestReceive_RejectsBadSignature(t *testing.T) {
	engine, svc, verifier := setup(t, testSecret)

	body := []byte(`{"id":"evt_1","type":"payment.succeeded","payload":{"id":"pay_1"}}`)
	req := signedRequest(verifier, body)
	req.Header.Set(payment.HeaderWebhookSignature, "v1,bm90LXRoZS1zaWduYXR1cmU=")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid signature"}`, w.Body.String())
	svc.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestReceive_RejectsUnsignedWhenSecretConfigured(t *testing.T) {
	engine, svc, _ := setup(t, testSecret)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestReceive_MalformedJSON(t *testing.T) {
	engine, svc, verifier := setup(t, testSecret)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, signedRequest(verifier, []byte(`{"id":`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid JSON payload"}`, w.Body.String())
	svc.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestReceive_NoSecretSkipsVerification(t *testing.T) {
	engine, svc, _ := setup(t, "")

	svc.On("Handle", mock.Anything, mock.Anything).Return(webhook.OutcomeNoMatch, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment",
		bytes.NewReader([]byte(`{"id":"evt_3","type":"payment.succeeded","payload":{"id":"p"}}`)))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"no_match"`)
}

func TestReceive_StoreFailureAsksForRedelivery(t *testing.T) {
	engine, svc, verifier := setup(t, testSecret)

	body := []byte(`{"id":"evt_4","type":"payment.succeeded","payload":{"id":"pay_1","metadata":{"booking_id":"b1"}}}`)
	svc.On("Handle", mock.Anything, mock.Anything).
		Return(webhook.Outcome(""), errors.New("failed to load booking for webhook: connection refused"))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, signedRequest(verifier, body))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.NotContains(t, w.Body.String(), "received")
}
