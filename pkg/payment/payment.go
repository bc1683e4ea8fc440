package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// CheckoutRequest asks the gateway for a hosted checkout page.
type CheckoutRequest struct {
	// AmountMinor is in the currency's minor unit (cents).
	AmountMinor    int64
	Currency       string
	SuccessURL     string
	CancelURL      string
	FailureURL     string
	Metadata       map[string]string
	IdempotencyKey string
}

// CheckoutSession is the gateway's answer to a CheckoutRequest.
type CheckoutSession struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirectUrl"`
	Status      string `json:"status,omitempty"`
}

type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

var ErrInvalidAmount = errors.New("amount must be greater than zero")

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a currency amount to its rounded minor-unit integer.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}
	minor := amount.Mul(hundred).Round(0).IntPart()
	if minor <= 0 {
		return 0, ErrInvalidAmount
	}
	return minor, nil
}
