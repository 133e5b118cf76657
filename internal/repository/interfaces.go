package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/agora-ir/platform/internal/model"
)

// All repository interfaces in one file
type (
	// EventRepository reads the event store the CRUD application owns.
	// The dispatch engine never writes events.
	EventRepository interface {
		// ListUpcoming returns events starting within [now, now+withinDays],
		// ordered by start time ascending.
		ListUpcoming(ctx context.Context, withinDays int) ([]*model.Event, error)
	}

	// PreferenceRepository reads notification preferences.
	PreferenceRepository interface {
		// ListEnabled returns every enabled preference across all users.
		ListEnabled(ctx context.Context) ([]*model.NotificationPreference, error)
		// ListForUser returns every enabled preference for one user.
		ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.NotificationPreference, error)
	}

	// ProfileRepository reads user profiles and contact points.
	ProfileRepository interface {
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error)
		ListByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*model.UserProfile, error)
	}

	// DeliveryLogRepository is the append-only audit sink for dispatch
	// attempts. Create must be safe for concurrent callers; one attempt is
	// one atomic record.
	DeliveryLogRepository interface {
		Create(ctx context.Context, attempt *model.DispatchAttempt) error
		List(ctx context.Context, filters model.AttemptFilters) ([]*model.DispatchAttempt, error)
	}
)
