package invitation

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/carebook-api/internal/email"
	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
	"github.com/jwalitptl/carebook-api/internal/repository/mocks"
	"github.com/jwalitptl/carebook-api/internal/session"
	apperrors "github.com/jwalitptl/carebook-api/pkg/errors"
	"github.com/jwalitptl/carebook-api/pkg/metrics"
	"github.com/jwalitptl/carebook-api/pkg/security"
)

var inviteNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendInvitation(ctx context.Context, inv email.Invitation) error {
	return m.Called(ctx, inv).Error(0)
}

type mockEmitter struct{ mock.Mock }

func (m *mockEmitter) Emit(ctx context.Context, eventType string, payload interface{}) error {
	return m.Called(ctx, eventType, payload).Error(0)
}

func (m *mockEmitter) BookingChanged(ctx context.Context, eventType string, b *model.Booking) {
	m.Called(ctx, eventType, b)
}

type fixture struct {
	svc           *Service
	users         *mocks.UserRepository
	practitioners *mocks.PractitionerRepository
	invitations   *mocks.InvitationRepository
	mailer        *mockMailer
	events        *mockEmitter
	admin         *session.Session
}

func newFixture() *fixture {
	f := &fixture{
		users:         new(mocks.UserRepository),
		practitioners: new(mocks.PractitionerRepository),
		invitations:   new(mocks.InvitationRepository),
		mailer:        new(mockMailer),
		events:        new(mockEmitter),
		admin:         &session.Session{UserID: uuid.New(), Roles: []model.Role{model.RoleAdmin}},
	}
	f.svc = NewService(f.users, f.practitioners, f.invitations, security.NewBcryptHasher(4),
		f.mailer, f.events, "https://carebook.example/", metrics.New("test"), zerolog.Nop())
	f.svc.now = func() time.Time { return inviteNow }
	f.svc.newToken = func() string { return "tok123" }
	f.events.On("Emit", mock.Anything, model.EventStaffInvited, mock.Anything).Return(nil).Maybe()
	return f
}

func inviteRequest() *model.InviteRequest {
	return &model.InviteRequest{
		Name:              "Sipho Dlamini",
		Email:             " Sipho@Example.com ",
		Title:             "Dr.",
		Specialization:    "Physiotherapy",
		TemporaryPassword: "Welcome-2026",
	}
}

func (f *fixture) expectAccountCreated() {
	f.users.On("GetByEmail", mock.Anything, "sipho@example.com").Return(nil, repository.ErrNotFound)
	f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "sipho@example.com" && u.EmailConfirmed && u.PasswordHash != "Welcome-2026"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.User).ID = uuid.New()
	}).Return(nil)
}

func TestInvite_FullProvisioning(t *testing.T) {
	f := newFixture()
	f.expectAccountCreated()
	f.practitioners.On("Create", mock.Anything, mock.MatchedBy(func(p *model.Practitioner) bool {
		return !p.IsActive && p.UserID != nil && p.Title == "Dr."
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Practitioner).ID = uuid.New()
	}).Return(nil)
	f.users.On("AssignRole", mock.Anything, mock.Anything, model.RolePractitioner).Return(nil)
	f.invitations.On("Create", mock.Anything, mock.MatchedBy(func(inv *model.Invitation) bool {
		return inv.Token == "tok123" && inv.ExpiresAt.Equal(inviteNow.Add(7*24*time.Hour))
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Invitation).ID = uuid.New()
	}).Return(nil)
	f.practitioners.On("CreateProfile", mock.Anything, mock.Anything).Return(nil)
	f.mailer.On("SendInvitation", mock.Anything, mock.MatchedBy(func(m email.Invitation) bool {
		return m.To == "sipho@example.com" &&
			m.TemporaryPassword == "Welcome-2026" &&
			m.OnboardingURL == "https://carebook.example/auth?token=tok123"
	})).Return(nil)

	resp, err := f.svc.Invite(context.Background(), f.admin, inviteRequest())
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Invitation sent", resp.Message)
	require.NotNil(t, resp.Invitation)
	assert.Equal(t, "tok123", resp.Invitation.Token)
	assert.False(t, resp.Practitioner.IsActive)
	f.mailer.AssertExpectations(t)
	f.users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestInvite_RequiresAdmin(t *testing.T) {
	f := newFixture()
	practitioner := &session.Session{UserID: uuid.New(), Roles: []model.Role{model.RolePractitioner}}

	_, err := f.svc.Invite(context.Background(), practitioner, inviteRequest())
	assert.Equal(t, http.StatusForbidden, apperrors.StatusOf(err))
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	_, err = f.svc.Invite(context.Background(), nil, inviteRequest())
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))
}

func TestInvite_ExistingEmail(t *testing.T) {
	f := newFixture()
	f.users.On("GetByEmail", mock.Anything, "sipho@example.com").Return(&model.User{}, nil)

	_, err := f.svc.Invite(context.Background(), f.admin, inviteRequest())
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInvite_RollsBackAccountWhenPractitionerFails(t *testing.T) {
	f := newFixture()
	f.expectAccountCreated()
	f.practitioners.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))
	f.users.On("Delete", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Invite(context.Background(), f.admin, inviteRequest())
	assert.Equal(t, http.StatusInternalServerError, apperrors.StatusOf(err))

	created := f.users.Calls[1].Arguments.Get(1).(*model.User)
	f.users.AssertCalled(t, "Delete", mock.Anything, created.ID)
	f.users.AssertNotCalled(t, "AssignRole", mock.Anything, mock.Anything, mock.Anything)
	f.invitations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.mailer.AssertNotCalled(t, "SendInvitation", mock.Anything, mock.Anything)
}

func TestInvite_BestEffortStepsDoNotUnwind(t *testing.T) {
	f := newFixture()
	f.expectAccountCreated()
	f.practitioners.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Practitioner).ID = uuid.New()
	}).Return(nil)
	f.users.On("AssignRole", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("role insert failed"))
	f.invitations.On("Create", mock.Anything, mock.Anything).Return(errors.New("token insert failed"))
	f.practitioners.On("CreateProfile", mock.Anything, mock.Anything).Return(errors.New("profile insert failed"))
	f.mailer.On("SendInvitation", mock.Anything, mock.MatchedBy(func(m email.Invitation) bool {
		return m.OnboardingURL == ""
	})).Return(errors.New("smtp down"))

	resp, err := f.svc.Invite(context.Background(), f.admin, inviteRequest())
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Invitation)
	assert.Contains(t, resp.Message, "could not be sent")
	f.users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAccept(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	practitioner := &model.Practitioner{UserID: &userID, Name: "Sipho"}
	practitioner.ID = uuid.New()
	inv := &model.Invitation{ID: uuid.New(), PractitionerID: practitioner.ID, Token: "tok123", ExpiresAt: inviteNow.Add(time.Hour)}

	f.invitations.On("GetByToken", mock.Anything, "tok123").Return(inv, nil)
	f.practitioners.On("Get", mock.Anything, practitioner.ID).Return(practitioner, nil)
	f.users.On("UpdatePassword", mock.Anything, userID, mock.AnythingOfType("string")).Return(nil)
	f.practitioners.On("Activate", mock.Anything, practitioner.ID).Return(nil)
	f.practitioners.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(p *model.PractitionerProfile) bool {
		return p.PractitionerID == practitioner.ID && p.Bio == "Sports injuries"
	})).Return(nil)
	f.invitations.On("MarkAccepted", mock.Anything, inv.ID, inviteNow).Return(nil)

	got, err := f.svc.Accept(context.Background(), &model.OnboardingRequest{
		Token:       "tok123",
		NewPassword: "my-own-secret",
		Bio:         " Sports injuries ",
	})
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	f.invitations.AssertExpectations(t)
}

func (f *fixture) pendingInvitation() (*model.Invitation, uuid.UUID) {
	userID := uuid.New()
	practitioner := &model.Practitioner{UserID: &userID, Name: "Sipho"}
	practitioner.ID = uuid.New()
	inv := &model.Invitation{ID: uuid.New(), PractitionerID: practitioner.ID, Token: "tok123", ExpiresAt: inviteNow.Add(time.Hour)}
	f.invitations.On("GetByToken", mock.Anything, "tok123").Return(inv, nil)
	f.practitioners.On("Get", mock.Anything, practitioner.ID).Return(practitioner, nil)
	return inv, userID
}

func TestAccept_ClaimsInvitationBeforeSettingPassword(t *testing.T) {
	f := newFixture()
	inv, _ := f.pendingInvitation()
	// A concurrent request already claimed the token.
	f.invitations.On("MarkAccepted", mock.Anything, inv.ID, inviteNow).Return(repository.ErrNotFound)

	_, err := f.svc.Accept(context.Background(), &model.OnboardingRequest{Token: "tok123", NewPassword: "my-own-secret"})

	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
	f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	f.practitioners.AssertNotCalled(t, "Activate", mock.Anything, mock.Anything)
}

func TestAccept_ReopensInvitationWhenPasswordFails(t *testing.T) {
	f := newFixture()
	inv, userID := f.pendingInvitation()
	f.invitations.On("MarkAccepted", mock.Anything, inv.ID, inviteNow).Return(nil)
	f.users.On("UpdatePassword", mock.Anything, userID, mock.AnythingOfType("string")).Return(errors.New("connection reset"))
	f.invitations.On("ReleaseAcceptance", mock.Anything, inv.ID).Return(nil)

	_, err := f.svc.Accept(context.Background(), &model.OnboardingRequest{Token: "tok123", NewPassword: "my-own-secret"})

	assert.Error(t, err)
	f.invitations.AssertExpectations(t)
	f.practitioners.AssertNotCalled(t, "Activate", mock.Anything, mock.Anything)
}

func TestAccept_UnusableInvitation(t *testing.T) {
	accepted := inviteNow.Add(-time.Hour)
	tests := []struct {
		name string
		inv  *model.Invitation
		err  error
	}{
		{"unknown token", nil, repository.ErrNotFound},
		{"expired", &model.Invitation{ExpiresAt: inviteNow.Add(-time.Minute)}, nil},
		{"already accepted", &model.Invitation{ExpiresAt: inviteNow.Add(time.Hour), AcceptedAt: &accepted}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.inv == nil {
				f.invitations.On("GetByToken", mock.Anything, "tok").Return(nil, tt.err)
			} else {
				f.invitations.On("GetByToken", mock.Anything, "tok").Return(tt.inv, nil)
			}

			_, err := f.svc.Accept(context.Background(), &model.OnboardingRequest{Token: "tok", NewPassword: "long-enough"})
			assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
			f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
