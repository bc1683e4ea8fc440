package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ServiceBookingCount struct {
	ServiceID   uuid.UUID `db:"service_id" json:"service_id"`
	ServiceName string    `db:"service_name" json:"service_name"`
	Bookings    int       `db:"bookings" json:"bookings"`
}

type BookingAnalytics struct {
	DateRange
	TotalBookings   int                   `json:"total_bookings"`
	ByStatus        map[BookingStatus]int `json:"by_status"`
	ByPaymentStatus map[PaymentStatus]int `json:"by_payment_status"`
	PaidRevenue     decimal.Decimal       `json:"paid_revenue"`
	ByService       []ServiceBookingCount `json:"by_service"`
}
