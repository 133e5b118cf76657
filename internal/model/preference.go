package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationPreference holds one user's subscription for one channel.
// A user has at most one preference row per channel (enforced by a unique
// index on user_id, channel). Empty Companies and GICSSectors means the
// user wants to hear about every event.
type NotificationPreference struct {
	ID            uuid.UUID   `db:"id"`
	UserID        uuid.UUID   `db:"user_id"`
	Channel       Channel     `db:"channel"`
	Enabled       bool        `db:"enabled"`
	FrequencyDays int         `db:"frequency_days"`
	Companies     []uuid.UUID `db:"-"`
	GICSSectors   []string    `db:"-"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func (p *NotificationPreference) HasCompanyScope() bool {
	return len(p.Companies) > 0
}

func (p *NotificationPreference) HasSectorScope() bool {
	return len(p.GICSSectors) > 0
}

// Unscoped reports whether the preference carries no filters at all.
func (p *NotificationPreference) Unscoped() bool {
	return !p.HasCompanyScope() && !p.HasSectorScope()
}

// WantsCompany reports whether the given company id is in the company scope.
func (p *NotificationPreference) WantsCompany(companyID uuid.UUID) bool {
	for _, id := range p.Companies {
		if id == companyID {
			return true
		}
	}
	return false
}
