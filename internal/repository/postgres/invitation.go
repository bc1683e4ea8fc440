package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
)

type invitationRepository struct {
	BaseRepository
}

func NewInvitationRepository(base BaseRepository) repository.InvitationRepository {
	return &invitationRepository{base}
}

func (r *invitationRepository) Create(ctx context.Context, invitation *model.Invitation) error {
	query := `
		INSERT INTO invitations (id, practitioner_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	invitation.ID = uuid.New()
	invitation.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		invitation.ID,
		invitation.PractitionerID,
		invitation.Token,
		invitation.ExpiresAt,
		invitation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*model.Invitation, error) {
	query := `
		SELECT id, practitioner_id, token, expires_at, accepted_at, created_at
		FROM invitations
		WHERE token = $1
	`
	var invitation model.Invitation
	if err := r.db.GetContext(ctx, &invitation, query, token); err != nil {
		return nil, wrapGet(err, "invitation")
	}
	return &invitation, nil
}

// MarkAccepted only succeeds once per invitation.
func (r *invitationRepository) MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE invitations SET accepted_at = $1 WHERE id = $2 AND accepted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to accept invitation: %w", err)
	}
	return requireAffected(result, "invitation")
}

func (r *invitationRepository) ReleaseAcceptance(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE invitations SET accepted_at = NULL WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to reopen invitation: %w", err)
	}
	return nil
}
