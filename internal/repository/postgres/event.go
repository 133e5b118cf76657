package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/agora-ir/platform/internal/model"
	"github.com/agora-ir/platform/internal/repository"
	"github.com/agora-ir/platform/pkg/apperror"
)

type eventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) repository.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) ListUpcoming(ctx context.Context, withinDays int) ([]*model.Event, error) {
	query := `
		SELECT id, name, event_type, host_company, company_id,
			   start_time, end_time, location,
			   COALESCE(description, '') AS description
		FROM events
		WHERE start_time >= $1 AND start_time <= $2
		ORDER BY start_time ASC
	`
	now := time.Now()
	until := now.AddDate(0, 0, withinDays)

	var events []*model.Event
	if err := r.db.SelectContext(ctx, &events, query, now, until); err != nil {
		return nil, apperror.DataUnavailable("event", err)
	}
	return events, nil
}
