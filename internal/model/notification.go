package model

import (
	"time"

	"github.com/google/uuid"
)

// SendNotificationRequest is the per-delivery contract: everything a single
// send needs, carried in the request so the delivery path has no implicit
// dependencies on stores it did not fetch from.
type SendNotificationRequest struct {
	UserID        uuid.UUID      `json:"user_id" binding:"required"`
	Channel       Channel        `json:"channel" binding:"required,channel"`
	Events        []EventSummary `json:"events" binding:"required,min=1,dive"`
	FirstName     string         `json:"first_name"`
	LastName      string         `json:"last_name"`
	FrequencyDays int            `json:"frequency_days" binding:"required,min=1"`
}

// SendResult is the structured outcome of one delivery.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DispatchRequest triggers a full dispatch run.
type DispatchRequest struct {
	Manual bool `json:"manual"`
}

// TestNotificationRequest asks for a single-user test email.
type TestNotificationRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// AttemptFilters narrows a delivery log listing.
type AttemptFilters struct {
	UserID  *uuid.UUID
	Channel Channel
	Status  AttemptStatus
	Since   *time.Time
	Limit   int
}
