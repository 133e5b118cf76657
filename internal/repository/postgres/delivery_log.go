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

type deliveryLogRepository struct {
	db *sqlx.DB
}

func NewDeliveryLogRepository(db *sqlx.DB) repository.DeliveryLogRepository {
	return &deliveryLogRepository{db: db}
}

func (r *deliveryLogRepository) Create(ctx context.Context, attempt *model.DispatchAttempt) error {
	query := `
		INSERT INTO notification_logs (
			id, user_id, channel, event_ids, status,
			message_id, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}

	eventIDs := make([]string, 0, len(attempt.EventIDs))
	for _, id := range attempt.EventIDs {
		eventIDs = append(eventIDs, id.String())
	}

	_, err := r.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.UserID,
		attempt.Channel,
		pq.Array(eventIDs),
		attempt.Status,
		attempt.MessageID,
		attempt.ErrorMessage,
		attempt.CreatedAt,
	)
	if err != nil {
		return apperror.LogWrite(err)
	}
	return nil
}

type attemptRow struct {
	ID           uuid.UUID      `db:"id"`
	UserID       uuid.UUID      `db:"user_id"`
	Channel      string         `db:"channel"`
	EventIDs     pq.StringArray `db:"event_ids"`
	Status       string         `db:"status"`
	MessageID    string         `db:"message_id"`
	ErrorMessage string         `db:"error_message"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r *deliveryLogRepository) List(ctx context.Context, filters model.AttemptFilters) ([]*model.DispatchAttempt, error) {
	query := `
		SELECT id, user_id, channel, event_ids, status,
			   COALESCE(message_id, '') AS message_id,
			   COALESCE(error_message, '') AS error_message,
			   created_at
		FROM notification_logs
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argCount)
		args = append(args, *filters.UserID)
		argCount++
	}
	if filters.Channel != "" {
		query += fmt.Sprintf(" AND channel = $%d", argCount)
		args = append(args, filters.Channel)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if filters.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, *filters.Since)
		argCount++
	}

	query += " ORDER BY created_at DESC"
	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filters.Limit)
	}

	var rows []*attemptRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list dispatch attempts: %w", err)
	}

	attempts := make([]*model.DispatchAttempt, 0, len(rows))
	for _, row := range rows {
		attempt, err := row.toModel()
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

func (row *attemptRow) toModel() (*model.DispatchAttempt, error) {
	eventIDs := make([]uuid.UUID, 0, len(row.EventIDs))
	for _, raw := range row.EventIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid event id %q on attempt %s: %w", raw, row.ID, err)
		}
		eventIDs = append(eventIDs, id)
	}

	return &model.DispatchAttempt{
		ID:           row.ID,
		UserID:       row.UserID,
		Channel:      model.Channel(row.Channel),
		EventIDs:     eventIDs,
		Status:       model.AttemptStatus(row.Status),
		MessageID:    row.MessageID,
		ErrorMessage: row.ErrorMessage,
		CreatedAt:    row.CreatedAt,
	}, nil
}
