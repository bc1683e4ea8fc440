package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/repository"
)

const practitionerColumns = `id, user_id, name, email, title, specialization, is_active, created_at, updated_at`

type practitionerRepository struct {
	BaseRepository
}

func NewPractitionerRepository(base BaseRepository) repository.PractitionerRepository {
	return &practitionerRepository{base}
}

func (r *practitionerRepository) Create(ctx context.Context, p *model.Practitioner) error {
	query := `
		INSERT INTO practitioners (` + practitionerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.UserID,
		p.Name,
		p.Email,
		p.Title,
		p.Specialization,
		p.IsActive,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create practitioner: %w", err)
	}
	return nil
}

func (r *practitionerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Practitioner, error) {
	query := `SELECT ` + practitionerColumns + ` FROM practitioners WHERE id = $1`

	var p model.Practitioner
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, wrapGet(err, "practitioner")
	}
	return &p, nil
}

func (r *practitionerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Practitioner, error) {
	query := `SELECT ` + practitionerColumns + ` FROM practitioners WHERE user_id = $1`

	var p model.Practitioner
	if err := r.db.GetContext(ctx, &p, query, userID); err != nil {
		return nil, wrapGet(err, "practitioner")
	}
	return &p, nil
}

func (r *practitionerRepository) ListActive(ctx context.Context) ([]*model.Practitioner, error) {
	query := `
		SELECT ` + practitionerColumns + `
		FROM practitioners
		WHERE is_active = TRUE
		ORDER BY name
	`
	practitioners := []*model.Practitioner{}
	if err := r.db.SelectContext(ctx, &practitioners, query); err != nil {
		return nil, fmt.Errorf("failed to list practitioners: %w", err)
	}
	return practitioners, nil
}

func (r *practitionerRepository) Activate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE practitioners SET is_active = TRUE, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to activate practitioner: %w", err)
	}
	return requireAffected(result, "practitioner")
}

func (r *practitionerRepository) CreateProfile(ctx context.Context, profile *model.PractitionerProfile) error {
	query := `
		INSERT INTO practitioner_profiles (id, practitioner_id, bio, languages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (practitioner_id) DO NOTHING
	`
	profile.ID = uuid.New()
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.PractitionerID,
		profile.Bio,
		profile.Languages,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create practitioner profile: %w", err)
	}
	return nil
}

// UpdateProfile upserts so onboarding works even if the empty profile was
// never created.
func (r *practitionerRepository) UpdateProfile(ctx context.Context, profile *model.PractitionerProfile) error {
	query := `
		INSERT INTO practitioner_profiles (id, practitioner_id, bio, languages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (practitioner_id) DO UPDATE
		SET bio = EXCLUDED.bio, languages = EXCLUDED.languages, updated_at = NOW()
	`
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query, profile.ID, profile.PractitionerID, profile.Bio, profile.Languages)
	if err != nil {
		return fmt.Errorf("failed to update practitioner profile: %w", err)
	}
	return nil
}
