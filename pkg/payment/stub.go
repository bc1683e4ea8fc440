package payment

import (
	"context"
	"net/url"

	"github.com/google/uuid"
)

// StubGateway is a no-op gateway for local development. The redirect goes
// straight to the success URL.
type StubGateway struct{}

func (StubGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.AmountMinor <= 0 {
		return nil, ErrInvalidAmount
	}

	id := "stub_" + uuid.NewString()
	redirect := req.SuccessURL
	if u, err := url.Parse(req.SuccessURL); err == nil && req.SuccessURL != "" {
		q := u.Query()
		q.Set("checkout_id", id)
		u.RawQuery = q.Encode()
		redirect = u.String()
	}
	return &CheckoutSession{ID: id, RedirectURL: redirect, Status: "created"}, nil
}
