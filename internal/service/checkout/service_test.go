package checkout

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
	"github.com/jwalitptl/carebook-api/internal/repository/mocks"
	"github.com/jwalitptl/carebook-api/internal/session"
	apperrors "github.com/jwalitptl/carebook-api/pkg/errors"
	"github.com/jwalitptl/carebook-api/pkg/metrics"
	"github.com/jwalitptl/carebook-api/pkg/payment"
)

type mockGateway struct{ mock.Mock }

func (m *mockGateway) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

type fixture struct {
	svc      *Service
	bookings *mocks.BookingRepository
	payments *mocks.PaymentRepository
	gateway  *mockGateway
	owner    *session.Session
	booking  *model.Booking
}

func newFixture(total string) *fixture {
	f := &fixture{
		bookings: new(mocks.BookingRepository),
		payments: new(mocks.PaymentRepository),
		gateway:  new(mockGateway),
		owner:    &session.Session{UserID: uuid.New(), Roles: []model.Role{model.RolePatient}},
	}
	f.svc = NewService(f.bookings, f.payments, f.gateway, "ZAR", metrics.New("test"), zerolog.Nop())
	f.booking = &model.Booking{
		UserID:        f.owner.UserID,
		TotalAmount:   decimal.RequireFromString(total),
		Status:        model.BookingStatusPending,
		PaymentStatus: model.PaymentStatusPending,
	}
	f.booking.ID = uuid.New()
	return f
}

func (f *fixture) request() Request {
	return Request{
		BookingID:  f.booking.ID.String(),
		SuccessURL: "https://app.example.com/booking/success",
		CancelURL:  "https://app.example.com/booking/cancel",
	}
}

func TestCreateCheckout_UsesStoredAmount(t *testing.T) {
	f := newFixture("500.00")
	f.bookings.On("Get", mock.Anything, f.booking.ID).Return(f.booking, nil)

	var sent payment.CheckoutRequest
	f.gateway.On("CreateCheckout", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(payment.CheckoutRequest) }).
		Return(&payment.CheckoutSession{ID: "ch_1", RedirectURL: "https://pay.example.com/ch_1"}, nil)

	var stored *model.Payment
	f.payments.On("Create", mock.Anything, mock.AnythingOfType("*model.Payment")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*model.Payment) }).
		Return(nil)

	req := f.request()
	req.Amount = 1
	req.Metadata = map[string]string{"booking_id": "spoofed", "source": "web"}

	res, err := f.svc.CreateCheckout(context.Background(), f.owner, req)
	require.NoError(t, err)

	assert.Equal(t, "ch_1", res.CheckoutID)
	assert.Equal(t, "https://pay.example.com/ch_1", res.RedirectURL)

	assert.Equal(t, int64(50000), sent.AmountMinor)
	assert.Equal(t, "ZAR", sent.Currency)
	assert.Equal(t, f.booking.ID.String(), sent.Metadata[MetaBookingID])
	assert.Equal(t, f.owner.UserID.String(), sent.Metadata[MetaUserID])
	assert.Equal(t, "web", sent.Metadata["source"])
	assert.Equal(t, sent.IdempotencyKey, sent.Metadata[MetaAttemptID])

	require.NotNil(t, stored)
	assert.Equal(t, model.PaymentRecordPending, stored.Status)
	assert.True(t, f.booking.TotalAmount.Equal(stored.Amount))
	assert.Equal(t, sent.Metadata[MetaAttemptID], stored.AttemptID.String())
	assert.Equal(t, "ch_1", stored.CheckoutID)
}

func TestCreateCheckout_GroupBookingAmount(t *testing.T) {
	f := newFixture("1200")
	f.bookings.On("Get", mock.Anything, f.booking.ID).Return(f.booking, nil)
	f.gateway.On("CreateCheckout", mock.Anything, mock.MatchedBy(func(r payment.CheckoutRequest) bool {
		return r.AmountMinor == 120000
	})).Return(&payment.CheckoutSession{ID: "ch_2"}, nil)
	f.payments.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.CreateCheckout(context.Background(), f.owner, f.request())
	require.NoError(t, err)
	f.gateway.AssertExpectations(t)
}

func TestCreateCheckout_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *fixture) (*session.Session, Request)
		status int
	}{
		{
			name: "no session",
			setup: func(f *fixture) (*session.Session, Request) {
				return nil, f.request()
			},
			status: http.StatusUnauthorized,
		},
		{
			name: "malformed booking id",
			setup: func(f *fixture) (*session.Session, Request) {
				req := f.request()
				req.BookingID = "not-a-uuid"
				return f.owner, req
			},
			status: http.StatusBadRequest,
		},
		{
			name: "unknown booking",
			setup: func(f *fixture) (*session.Session, Request) {
				f.bookings.On("Get", mock.Anything, f.booking.ID).Return(nil, repository.ErrNotFound)
				return f.owner, f.request()
			},
			status: http.StatusNotFound,
		},
		{
			name: "other user's booking",
			setup: func(f *fixture) (*session.Session, Request) {
				f.bookings.On("Get", mock.Anything, f.booking.ID).Return(f.booking, nil)
				return &session.Session{UserID: uuid.New()}, f.request()
			},
			status: http.StatusForbidden,
		},
		{
			name: "already paid",
			setup: func(f *fixture) (*session.Session, Request) {
				f.booking.PaymentStatus = model.PaymentStatusPaid
				f.bookings.On("Get", mock.Anything, f.booking.ID).Return(f.booking, nil)
				return f.owner, f.request()
			},
			status: http.StatusBadRequest,
		},
		{
			name: "zero amount",
			setup: func(f *fixture) (*session.Session, Request) {
				f.booking.TotalAmount = decimal.Zero
				f.bookings.On("Get", mock.Anything, f.booking.ID).Return(f.booking, nil)
				return f.owner, f.request()
			},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("250.00")
			sess, req := tt.setup(f)

			_, err := f.svc.CreateCheckout(context.Background(), sess, req)
			require.Error(t, err)
			assert.Equal(t, tt.status, apperrors.StatusOf(err))
			f.gateway.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything)
			f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateCheckout_GatewayFailureWritesNothing(t *testing.T) {
	f := newFixture("300")
	f.bookings.On("Get", mock.Anything, f.booking.ID).Return(f.booking, nil)
	f.gateway.On("CreateCheckout", mock.Anything, mock.Anything).Return(nil, errors.New("gateway timeout"))

	_, err := f.svc.CreateCheckout(context.Background(), f.owner, f.request())
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperrors.StatusOf(err))
	f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}
