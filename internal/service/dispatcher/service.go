// Package dispatcher orchestrates a notification run: fetch the event
// window once, match it against every enabled preference, and fan the
// resulting (user, channel) units out to the channel senders. Units are
// independent failure domains; one bad delivery never blocks another.
package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agora-ir/platform/internal/model"
	"github.com/agora-ir/platform/internal/repository"
	"github.com/agora-ir/platform/internal/service/matcher"
	"github.com/agora-ir/platform/internal/service/notification"
	"github.com/agora-ir/platform/pkg/apperror"
	"github.com/agora-ir/platform/pkg/logger"
	"github.com/agora-ir/platform/pkg/metrics"
)

const (
	// testLeadDays is the implicit lead time for single-user test sends.
	testLeadDays = 7
	// testMaxEvents caps how many matched events a test send includes.
	testMaxEvents = 3
)

type Config struct {
	// WindowDays sizes the shared event window fetched once per run.
	// Preferences with a shorter lead time see a date-filtered slice.
	WindowDays int
	// Concurrency bounds how many (user, channel) units are in flight.
	Concurrency int
}

// RunSummary is the terminal state of one dispatch run.
type RunSummary struct {
	Manual         bool                     `json:"manual"`
	EventsInWindow int                      `json:"events_in_window"`
	Attempted      int                      `json:"attempted"`
	Sent           int                      `json:"sent"`
	Failed         int                      `json:"failed"`
	ChannelErrors  map[model.Channel]string `json:"channel_errors,omitempty"`
	StartedAt      time.Time                `json:"started_at"`
	FinishedAt     time.Time                `json:"finished_at"`
}

type Service struct {
	eventRepo   repository.EventRepository
	prefRepo    repository.PreferenceRepository
	profileRepo repository.ProfileRepository
	notifSvc    notification.Service
	config      Config
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

func NewService(
	eventRepo repository.EventRepository,
	prefRepo repository.PreferenceRepository,
	profileRepo repository.ProfileRepository,
	notifSvc notification.Service,
	config Config,
	m *metrics.Metrics,
	logger *logger.Logger,
) *Service {
	if config.WindowDays <= 0 {
		config.WindowDays = testLeadDays
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &Service{
		eventRepo:   eventRepo,
		prefRepo:    prefRepo,
		profileRepo: profileRepo,
		notifSvc:    notifSvc,
		config:      config,
		metrics:     m,
		logger:      logger,
	}
}

// unit is one independent (user, channel) delivery.
type unit struct {
	profile *model.UserProfile
	pref    *model.NotificationPreference
}

// Run executes one full dispatch. An unreachable store makes the run
// report zero processed and return the error; it never panics and never
// leaves half-written log records behind (each attempt is one atomic row).
func (s *Service) Run(ctx context.Context, manual bool) (*RunSummary, error) {
	summary := &RunSummary{
		Manual:        manual,
		StartedAt:     time.Now().UTC(),
		ChannelErrors: map[model.Channel]string{},
	}
	timer := time.Now()
	defer func() {
		summary.FinishedAt = time.Now().UTC()
		s.metrics.RunDuration.Observe(time.Since(timer).Seconds())
	}()

	// The window and the preference list are fetched completely before any
	// fan-out; no unit ever reads a partial snapshot. Preferences come
	// first: the widest lead time among them sizes the window, so a user
	// subscribed further out than the configured default still sees their
	// events.
	prefs, err := s.prefRepo.ListEnabled(ctx)
	if err != nil {
		s.logger.Error(err, "dispatch run aborted: preferences unavailable")
		return summary, err
	}

	windowDays := s.config.WindowDays
	for _, pref := range prefs {
		if pref.FrequencyDays > windowDays {
			windowDays = pref.FrequencyDays
		}
	}

	events, err := s.eventRepo.ListUpcoming(ctx, windowDays)
	if err != nil {
		s.logger.Error(err, "dispatch run aborted: event window unavailable")
		return summary, err
	}
	summary.EventsInWindow = len(events)
	s.metrics.RunEventsFetched.Set(float64(len(events)))

	units, err := s.buildUnits(ctx, prefs)
	if err != nil {
		s.logger.Error(err, "dispatch run aborted: profiles unavailable")
		return summary, err
	}

	units = s.preflightChannels(units, summary)

	s.logger.Info("dispatch run starting",
		"manual", manual,
		"events_in_window", len(events),
		"units", len(units),
	)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.config.Concurrency)
	)

	now := time.Now()
	for _, u := range units {
		wg.Add(1)
		sem <- struct{}{}
		go func(u unit) {
			defer wg.Done()
			defer func() { <-sem }()

			attempted, sent := s.dispatchUnit(ctx, u, events, now)

			mu.Lock()
			if attempted {
				summary.Attempted++
				if sent {
					summary.Sent++
				} else {
					summary.Failed++
				}
			}
			mu.Unlock()
		}(u)
	}
	wg.Wait()

	s.logger.Info("dispatch run finished",
		"attempted", summary.Attempted,
		"sent", summary.Sent,
		"failed", summary.Failed,
	)
	return summary, nil
}

// buildUnits pairs every enabled preference with its user's profile.
// Preferences without a profile are skipped with a warning; there is no
// contact point to deliver to.
func (s *Service) buildUnits(ctx context.Context, prefs []*model.NotificationPreference) ([]unit, error) {
	seen := map[uuid.UUID]struct{}{}
	userIDs := make([]uuid.UUID, 0, len(prefs))
	for _, pref := range prefs {
		if _, ok := seen[pref.UserID]; ok {
			continue
		}
		seen[pref.UserID] = struct{}{}
		userIDs = append(userIDs, pref.UserID)
	}

	profiles, err := s.profileRepo.ListByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	units := make([]unit, 0, len(prefs))
	for _, pref := range prefs {
		profile, ok := profiles[pref.UserID]
		if !ok {
			s.logger.Warn("skipping preference without profile", "user_id", pref.UserID.String(), "channel", pref.Channel.String())
			continue
		}
		units = append(units, unit{profile: profile, pref: pref})
	}
	return units, nil
}

// preflightChannels checks configuration once per channel in use, before
// any send on it. A misconfigured channel is dropped for the whole run;
// the other channels proceed untouched. A channel with no units is never
// checked, so an unused credential may stay unset.
func (s *Service) preflightChannels(units []unit, summary *RunSummary) []unit {
	inUse := map[model.Channel]bool{}
	for _, u := range units {
		inUse[u.pref.Channel] = true
	}

	bad := map[model.Channel]bool{}
	for ch := range inUse {
		if err := s.notifSvc.PreflightChannel(ch); err != nil {
			if apperror.IsChannelConfig(err) {
				s.metrics.ChannelConfigErrors.WithLabelValues(ch.String()).Inc()
			}
			s.logger.Error(err, "channel disabled for this run", "channel", ch.String())
			summary.ChannelErrors[ch] = err.Error()
			bad[ch] = true
		}
	}
	if len(bad) == 0 {
		return units
	}

	kept := units[:0]
	for _, u := range units {
		if !bad[u.pref.Channel] {
			kept = append(kept, u)
		}
	}
	return kept
}

// dispatchUnit runs match, render, send and log for one unit. It reports
// whether a send was attempted and whether it succeeded; an empty match is
// neither (no send, no log entry).
func (s *Service) dispatchUnit(ctx context.Context, u unit, window []*model.Event, now time.Time) (attempted, sent bool) {
	inLeadTime := matcher.WithinLeadTime(window, u.pref.FrequencyDays, now)
	matched := matcher.Match(inLeadTime, u.pref)
	if len(matched) == 0 {
		return false, false
	}

	attempt, err := s.notifSvc.Deliver(ctx, u.profile, u.pref.Channel, model.Summaries(matched), u.pref.FrequencyDays)
	if attempt == nil {
		// The channel degraded between the run-level gate and this unit;
		// nothing was sent, so nothing was logged and nothing counts.
		if err != nil {
			s.logger.Error(err, "unit skipped: channel became unavailable",
				"user_id", u.profile.UserID.String(),
				"channel", u.pref.Channel.String(),
			)
		}
		return false, false
	}
	return true, err == nil
}

// TestNotification sends a single email to one user over the standard
// 7-day window, capped at the first 3 matched events. The user's email
// preference supplies the scoping filters when one exists.
func (s *Service) TestNotification(ctx context.Context, userID uuid.UUID) (*model.SendResult, error) {
	events, err := s.eventRepo.ListUpcoming(ctx, testLeadDays)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return &model.SendResult{Success: false, Error: "no upcoming events within the test window"}, nil
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	pref := &model.NotificationPreference{
		UserID:        userID,
		Channel:       model.ChannelEmail,
		Enabled:       true,
		FrequencyDays: testLeadDays,
	}
	prefs, err := s.prefRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, p := range prefs {
		if p.Channel == model.ChannelEmail {
			pref.Companies = p.Companies
			pref.GICSSectors = p.GICSSectors
			break
		}
	}

	matched := matcher.Match(events, pref)
	if len(matched) == 0 {
		return &model.SendResult{Success: false, Error: "no events match the user's preferences"}, nil
	}
	if len(matched) > testMaxEvents {
		matched = matched[:testMaxEvents]
	}

	attempt, err := s.notifSvc.Deliver(ctx, profile, model.ChannelEmail, model.Summaries(matched), testLeadDays)
	if err != nil {
		return &model.SendResult{Success: false, Error: err.Error()}, nil
	}
	return &model.SendResult{Success: true, MessageID: attempt.MessageID}, nil
}
