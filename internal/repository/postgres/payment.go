package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
)

const paymentColumns = `id, booking_id, user_id, amount, currency, status, checkout_id,
		attempt_id, gateway_payment_id, payment_method, created_at, updated_at`

type paymentRepository struct {
	BaseRepository
}

func NewPaymentRepository(base BaseRepository) repository.PaymentRepository {
	return &paymentRepository{base}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.UserID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.CheckoutID,
		payment.AttemptID,
		payment.GatewayPaymentID,
		payment.PaymentMethod,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetLatestByBooking returns the most recent checkout attempt for a booking.
func (r *paymentRepository) GetLatestByBooking(ctx context.Context, bookingID uuid.UUID) (*model.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var payment model.Payment
	if err := r.db.GetContext(ctx, &payment, query, bookingID); err != nil {
		return nil, wrapGet(err, "payment")
	}
	return &payment, nil
}

func (r *paymentRepository) GetByAttemptID(ctx context.Context, attemptID uuid.UUID) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE attempt_id = $1`

	var payment model.Payment
	if err := r.db.GetContext(ctx, &payment, query, attemptID); err != nil {
		return nil, wrapGet(err, "payment")
	}
	return &payment, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PaymentRecordStatus, gatewayPaymentID, method *string) error {
	query := `
		UPDATE payments
		SET status = $1,
			gateway_payment_id = COALESCE($2, gateway_payment_id),
			payment_method = COALESCE($3, payment_method),
			updated_at = NOW()
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query, status, gatewayPaymentID, method, id)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	return requireAffected(result, "payment")
}
