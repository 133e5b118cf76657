package model

import (
	"time"

	"github.com/google/uuid"
)

type AttemptStatus string

const (
	AttemptStatusSent   AttemptStatus = "sent"
	AttemptStatusFailed AttemptStatus = "failed"
)

// DispatchAttempt is the audit record of one send attempt for one
// (user, channel) pair. Rows are append-only and never mutated: a partial
// run keeps every record written before the failure.
type DispatchAttempt struct {
	ID           uuid.UUID     `db:"id" json:"id"`
	UserID       uuid.UUID     `db:"user_id" json:"user_id"`
	Channel      Channel       `db:"channel" json:"channel"`
	EventIDs     []uuid.UUID   `db:"-" json:"event_ids"`
	Status       AttemptStatus `db:"status" json:"status"`
	MessageID    string        `db:"message_id" json:"message_id,omitempty"`
	ErrorMessage string        `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// SentAttempt builds the record for a delivery that reached the provider.
func SentAttempt(userID uuid.UUID, ch Channel, eventIDs []uuid.UUID, messageID string) *DispatchAttempt {
	return &DispatchAttempt{
		ID:        uuid.New(),
		UserID:    userID,
		Channel:   ch,
		EventIDs:  eventIDs,
		Status:    AttemptStatusSent,
		MessageID: messageID,
		CreatedAt: time.Now().UTC(),
	}
}

// FailedAttempt builds the record for a delivery the provider rejected or
// that never left the process.
func FailedAttempt(userID uuid.UUID, ch Channel, eventIDs []uuid.UUID, sendErr error) *DispatchAttempt {
	return &DispatchAttempt{
		ID:           uuid.New(),
		UserID:       userID,
		Channel:      ch,
		EventIDs:     eventIDs,
		Status:       AttemptStatusFailed,
		ErrorMessage: sendErr.Error(),
		CreatedAt:    time.Now().UTC(),
	}
}
