package model

// Message is a rendered, channel-addressed payload ready for its sender.
// Exactly one shape is populated per channel: Subject+Body for email,
// Body for SMS, Push for the desktop and mobile variants.
type Message struct {
	Channel Channel
	Subject string
	Body    string
	Push    *PushPayload
}

// PushPayload is the structured payload enqueued for out-of-band delivery
// on the desktop and mobile channels. No formatting requirement applies;
// the consuming client renders it natively.
type PushPayload struct {
	UserID        string         `json:"user_id"`
	Title         string         `json:"title"`
	Body          string         `json:"body"`
	FrequencyDays int            `json:"frequency_days"`
	Events        []EventSummary `json:"events"`
}
