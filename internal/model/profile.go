package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserProfile carries the display name and per-channel contact points for
// one platform user. Contact values are opaque to the dispatch engine; the
// providers validate addresses and phone numbers on their side.
type UserProfile struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	FirstName   string    `db:"first_name"`
	LastName    string    `db:"last_name"`
	Email       string    `db:"email"`
	Phone       string    `db:"phone"`
	DeviceToken string    `db:"device_token"`
	PushToken   string    `db:"push_token"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// DisplayName joins the name parts, falling back to "User" when both are
// empty so rendered copy never greets a blank.
func (p *UserProfile) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if name == "" {
		return "User"
	}
	return name
}

// Contact returns the contact point used to reach the user on a channel.
func (p *UserProfile) Contact(ch Channel) string {
	switch ch {
	case ChannelEmail:
		return p.Email
	case ChannelSMS:
		return p.Phone
	case ChannelDesktop:
		return p.DeviceToken
	case ChannelMobile:
		return p.PushToken
	}
	return ""
}
