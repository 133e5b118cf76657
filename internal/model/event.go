package model

import (
	"time"

	"github.com/google/uuid"
)

// Event is an investor-relations event as stored by the event service.
// Rows are read-only from the dispatch engine's point of view: a dispatch
// run works against the snapshot it fetched at the start of the run.
type Event struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Type        string     `db:"event_type" json:"type"`
	HostCompany string     `db:"host_company" json:"host_company"`
	CompanyID   *uuid.UUID `db:"company_id" json:"company_id,omitempty"`
	StartTime   time.Time  `db:"start_time" json:"start_time"`
	EndTime     time.Time  `db:"end_time" json:"end_time"`
	Location    string     `db:"location" json:"location"`
	Description string     `db:"description" json:"description,omitempty"`
}

// EventSummary is the wire form of an event inside a delivery request.
type EventSummary struct {
	ID          uuid.UUID `json:"id" binding:"required"`
	Name        string    `json:"name" binding:"required"`
	Type        string    `json:"type"`
	HostCompany string    `json:"host_company"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location"`
	Description string    `json:"description,omitempty"`
}

// Summary converts a stored event into its wire form.
func (e *Event) Summary() EventSummary {
	return EventSummary{
		ID:          e.ID,
		Name:        e.Name,
		Type:        e.Type,
		HostCompany: e.HostCompany,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Location:    e.Location,
		Description: e.Description,
	}
}

// Summaries converts a slice of events, preserving order.
func Summaries(events []*Event) []EventSummary {
	out := make([]EventSummary, 0, len(events))
	for _, e := range events {
		out = append(out, e.Summary())
	}
	return out
}

// EventIDs returns the ids of the given summaries, preserving order.
func EventIDs(events []EventSummary) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}
