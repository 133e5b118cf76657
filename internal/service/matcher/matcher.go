// Package matcher decides which events in a window qualify under one
// user's notification preference. Everything here is pure: no clock reads,
// no I/O, so the rules are testable in isolation.
package matcher

import (
	"time"

	"github.com/agora-ir/platform/internal/model"
)

// Match filters a window of events through one preference. Rules, per
// event, first match wins:
//
//  1. the preference scopes companies and the event's host company is in
//     the set
//  2. the preference scopes GICS sectors (matches unconditionally; see
//     the note on sectorScopeMatches)
//  3. the preference carries no scoping filters at all
//
// An event failing every rule is excluded. Each event is considered once,
// so the result holds no duplicates and keeps the window's order.
func Match(events []*model.Event, pref *model.NotificationPreference) []*model.Event {
	matched := make([]*model.Event, 0, len(events))
	for _, event := range events {
		if matches(event, pref) {
			matched = append(matched, event)
		}
	}
	return matched
}

func matches(event *model.Event, pref *model.NotificationPreference) bool {
	if pref.HasCompanyScope() {
		if event.CompanyID != nil && pref.WantsCompany(*event.CompanyID) {
			return true
		}
	}

	if pref.HasSectorScope() {
		return sectorScopeMatches(event, pref)
	}

	return pref.Unscoped()
}

// sectorScopeMatches is a known gap: events carry no sector classification
// yet, so any sector scope matches every event. Real sector membership
// needs an event-to-GICS mapping that product has not defined; do not
// quietly tighten this without that mapping.
func sectorScopeMatches(_ *model.Event, _ *model.NotificationPreference) bool {
	return true
}

// WithinLeadTime narrows a shared run window to the events starting within
// the preference's own lead time. The dispatcher fetches one window per run
// sized by the widest lead time; each preference sees its slice of it.
func WithinLeadTime(events []*model.Event, days int, now time.Time) []*model.Event {
	cutoff := now.AddDate(0, 0, days)
	inRange := make([]*model.Event, 0, len(events))
	for _, event := range events {
		if !event.StartTime.Before(now) && !event.StartTime.After(cutoff) {
			inRange = append(inRange, event)
		}
	}
	return inRange
}
