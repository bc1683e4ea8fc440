package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
)

type analyticsRepository struct {
	BaseRepository
}

func NewAnalyticsRepository(base BaseRepository) repository.AnalyticsRepository {
	return &analyticsRepository{base}
}

func dateConditions(dates model.DateRange) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	if dates.From != nil {
		args = append(args, *dates.From)
		conditions = append(conditions, fmt.Sprintf("b.booking_date >= $%d", len(args)))
	}
	if dates.To != nil {
		args = append(args, *dates.To)
		conditions = append(conditions, fmt.Sprintf("b.booking_date <= $%d", len(args)))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *analyticsRepository) BookingAnalytics(ctx context.Context, dates model.DateRange) (*model.BookingAnalytics, error) {
	where, args := dateConditions(dates)

	result := &model.BookingAnalytics{
		DateRange:       dates,
		ByStatus:        map[model.BookingStatus]int{},
		ByPaymentStatus: map[model.PaymentStatus]int{},
		PaidRevenue:     decimal.Zero,
		ByService:       []model.ServiceBookingCount{},
	}

	var statusRows []struct {
		Status        model.BookingStatus `db:"status"`
		PaymentStatus model.PaymentStatus `db:"payment_status"`
		Count         int                 `db:"count"`
	}
	statusQuery := `
		SELECT b.status, b.payment_status, COUNT(*) AS count
		FROM bookings b` + where + `
		GROUP BY b.status, b.payment_status
	`
	if err := r.db.SelectContext(ctx, &statusRows, statusQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}
	for _, row := range statusRows {
		result.TotalBookings += row.Count
		result.ByStatus[row.Status] += row.Count
		result.ByPaymentStatus[row.PaymentStatus] += row.Count
	}

	revenueQuery := `
		SELECT COALESCE(SUM(b.total_amount), 0)
		FROM bookings b` + where
	if where == "" {
		revenueQuery += " WHERE b.payment_status = 'paid'"
	} else {
		revenueQuery += " AND b.payment_status = 'paid'"
	}
	if err := r.db.GetContext(ctx, &result.PaidRevenue, revenueQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to sum paid revenue: %w", err)
	}

	serviceQuery := `
		SELECT s.id AS service_id, s.name AS service_name, COUNT(*) AS bookings
		FROM bookings b
		JOIN services s ON s.id = b.service_id` + where + `
		GROUP BY s.id, s.name
		ORDER BY bookings DESC, s.name
	`
	if err := r.db.SelectContext(ctx, &result.ByService, serviceQuery, args...); err != nil {
		return nil, fmt.Errorf("failed to count bookings by service: %w", err)
	}

	return result, nil
}
