package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/carebook-api/config"
)

// Invitation is the content of a staff invitation email.
type Invitation struct {
	To                string
	Name              string
	Title             string
	TemporaryPassword string
	OnboardingURL     string
}

type Service interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}

var invitationTemplate = template.Must(template.New("invitation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Welcome to the team{{if .Name}}, {{if .Title}}{{.Title}} {{end}}{{.Name}}{{end}}</h2>
  <p>An account has been created for you. Sign in with:</p>
  <p>Email: <strong>{{.To}}</strong><br>
  Temporary password: <strong>{{.TemporaryPassword}}</strong></p>
  {{if .OnboardingURL}}<p><a href="{{.OnboardingURL}}">Complete your onboarding</a> to set your own password and profile.</p>{{end}}
  <p>If you were not expecting this invitation you can ignore this email.</p>
</body>
</html>
`))

const invitationSubject = "You have been invited to join the practice"

func renderInvitation(inv Invitation) (string, error) {
	var buf bytes.Buffer
	if err := invitationTemplate.Execute(&buf, inv); err != nil {
		return "", fmt.Errorf("failed to render invitation: %w", err)
	}
	return buf.String(), nil
}

// NewService returns an SMTP sender when SMTP is configured and a logging
// stand-in otherwise.
func NewService(cfg config.EmailConfig, logger zerolog.Logger) Service {
	if !cfg.Enabled() {
		logger.Warn().Msg("SMTP is not configured, emails will only be logged")
		return &logService{logger: logger}
	}
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
	logger zerolog.Logger
}

func (s *smtpService) SendInvitation(ctx context.Context, inv Invitation) error {
	body, err := renderInvitation(inv)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", inv.To)
	m.SetHeader("Subject", invitationSubject)
	m.SetBody("text/html", body)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send invitation to %s: %w", inv.To, err)
	}
	s.logger.Info().Str("to", inv.To).Msg("Invitation email sent")
	return nil
}

type logService struct {
	logger zerolog.Logger
}

func (s *logService) SendInvitation(_ context.Context, inv Invitation) error {
	if _, err := renderInvitation(inv); err != nil {
		return err
	}
	s.logger.Info().
		Str("to", inv.To).
		Str("onboarding_url", inv.OnboardingURL).
		Msg("Invitation email not sent, SMTP disabled")
	return nil
}
