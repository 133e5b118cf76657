package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/agora-ir/platform/internal/model"
	"github.com/agora-ir/platform/internal/repository"
	"github.com/agora-ir/platform/pkg/apperror"
)

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `
	id, user_id,
	COALESCE(first_name, '') AS first_name,
	COALESCE(last_name, '') AS last_name,
	COALESCE(email, '') AS email,
	COALESCE(phone, '') AS phone,
	COALESCE(device_token, '') AS device_token,
	COALESCE(push_token, '') AS push_token,
	created_at, updated_at
`

func (r *profileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE user_id = $1
	`
	var profile model.UserProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, apperror.NotFound("profile", err)
	}
	return &profile, nil
}

func (r *profileRepository) ListByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*model.UserProfile, error) {
	if len(userIDs) == 0 {
		return map[uuid.UUID]*model.UserProfile{}, nil
	}

	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id.String())
	}

	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE user_id = ANY($1)
	`
	var profiles []*model.UserProfile
	if err := r.db.SelectContext(ctx, &profiles, query, pq.Array(ids)); err != nil {
		return nil, apperror.DataUnavailable("profile", err)
	}

	byUser := make(map[uuid.UUID]*model.UserProfile, len(profiles))
	for _, p := range profiles {
		byUser[p.UserID] = p
	}
	return byUser, nil
}
