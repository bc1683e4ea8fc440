package email

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/carebook-api/config"
)

func TestRenderInvitation(t *testing.T) {
	body, err := renderInvitation(Invitation{
		To:                "lerato@example.com",
		Name:              "Lerato <b>",
		Title:             "Dr.",
		TemporaryPassword: "Temp-1234",
		OnboardingURL:     "https://carebook.example/auth?token=abc",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Dr. Lerato &lt;b&gt;")
	assert.Contains(t, body, "Temp-1234")
	assert.Contains(t, body, `href="https://carebook.example/auth?token=abc"`)
}

func TestRenderInvitation_WithoutLink(t *testing.T) {
	body, err := renderInvitation(Invitation{To: "a@example.com", TemporaryPassword: "x"})
	require.NoError(t, err)
	assert.NotContains(t, body, "Complete your onboarding")
}

func TestNewService_FallsBackToLogging(t *testing.T) {
	svc := NewService(config.EmailConfig{}, zerolog.Nop())
	_, ok := svc.(*logService)
	require.True(t, ok)
	assert.NoError(t, svc.SendInvitation(context.Background(), Invitation{To: "a@example.com"}))

	smtp := NewService(config.EmailConfig{Host: "smtp.example.com", Port: 587, From: "noreply@example.com"}, zerolog.Nop())
	_, ok = smtp.(*smtpService)
	assert.True(t, ok)
}
