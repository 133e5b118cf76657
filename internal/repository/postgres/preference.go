package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/agora-ir/platform/internal/model"
	"github.com/agora-ir/platform/internal/repository"
	"github.com/agora-ir/platform/pkg/apperror"
)

type preferenceRepository struct {
	db *sqlx.DB
}

func NewPreferenceRepository(db *sqlx.DB) repository.PreferenceRepository {
	return &preferenceRepository{db: db}
}

// preferenceRow is the scan target; the array columns need pq types before
// they can become model slices.
type preferenceRow struct {
	ID            uuid.UUID      `db:"id"`
	UserID        uuid.UUID      `db:"user_id"`
	Channel       string         `db:"channel"`
	Enabled       bool           `db:"enabled"`
	FrequencyDays int            `db:"frequency_days"`
	Companies     pq.StringArray `db:"companies"`
	GICSSectors   pq.StringArray `db:"gics_sectors"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (row *preferenceRow) toModel() (*model.NotificationPreference, error) {
	companies := make([]uuid.UUID, 0, len(row.Companies))
	for _, raw := range row.Companies {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid company id %q on preference %s: %w", raw, row.ID, err)
		}
		companies = append(companies, id)
	}

	return &model.NotificationPreference{
		ID:            row.ID,
		UserID:        row.UserID,
		Channel:       model.Channel(row.Channel),
		Enabled:       row.Enabled,
		FrequencyDays: row.FrequencyDays,
		Companies:     companies,
		GICSSectors:   []string(row.GICSSectors),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

const preferenceColumns = `
	id, user_id, channel, enabled, frequency_days,
	COALESCE(companies, '{}') AS companies,
	COALESCE(gics_sectors, '{}') AS gics_sectors,
	created_at, updated_at
`

func (r *preferenceRepository) ListEnabled(ctx context.Context) ([]*model.NotificationPreference, error) {
	query := `
		SELECT ` + preferenceColumns + `
		FROM notification_preferences
		WHERE enabled = true
		ORDER BY user_id, channel
	`
	var rows []*preferenceRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, apperror.DataUnavailable("preference", err)
	}
	return rowsToModels(rows)
}

func (r *preferenceRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.NotificationPreference, error) {
	query := `
		SELECT ` + preferenceColumns + `
		FROM notification_preferences
		WHERE user_id = $1 AND enabled = true
		ORDER BY channel
	`
	var rows []*preferenceRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, apperror.DataUnavailable("preference", err)
	}
	return rowsToModels(rows)
}

func rowsToModels(rows []*preferenceRow) ([]*model.NotificationPreference, error) {
	prefs := make([]*model.NotificationPreference, 0, len(rows))
	for _, row := range rows {
		pref, err := row.toModel()
		if err != nil {
			return nil, err
		}
		prefs = append(prefs, pref)
	}
	return prefs, nil
}
