package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentRecordStatus string

const (
	PaymentRecordPending   PaymentRecordStatus = "pending"
	PaymentRecordCompleted PaymentRecordStatus = "completed"
	PaymentRecordFailed    PaymentRecordStatus = "failed"
)

// Payment is one checkout attempt for a booking. AttemptID travels through
// the gateway metadata so late webhooks can be matched to their attempt.
type Payment struct {
	Base
	BookingID        uuid.UUID           `db:"booking_id" json:"booking_id"`
	UserID           uuid.UUID           `db:"user_id" json:"user_id"`
	Amount           decimal.Decimal     `db:"amount" json:"amount"`
	Currency         string              `db:"currency" json:"currency"`
	Status           PaymentRecordStatus `db:"status" json:"status"`
	CheckoutID       string              `db:"checkout_id" json:"checkout_id"`
	AttemptID        uuid.UUID           `db:"attempt_id" json:"attempt_id"`
	GatewayPaymentID *string             `db:"gateway_payment_id" json:"gateway_payment_id,omitempty"`
	PaymentMethod    *string             `db:"payment_method" json:"payment_method,omitempty"`
}
