package dispatcher

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-ir/platform/internal/channel"
	"github.com/agora-ir/platform/internal/model"
	"github.com/agora-ir/platform/internal/service/notification"
	"github.com/agora-ir/platform/pkg/apperror"
	"github.com/agora-ir/platform/pkg/logger"
	"github.com/agora-ir/platform/pkg/metrics"
)

type stubEventRepo struct {
	events []*model.Event
	err    error
	// honorWindow makes the stub filter by the requested window the way
	// the real store's date bounds do.
	honorWindow bool
}

func (r *stubEventRepo) ListUpcoming(_ context.Context, withinDays int) ([]*model.Event, error) {
	if r.err != nil {
		return nil, r.err
	}
	if !r.honorWindow {
		return r.events, nil
	}
	cutoff := time.Now().AddDate(0, 0, withinDays)
	var out []*model.Event
	for _, e := range r.events {
		if !e.StartTime.After(cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubPrefRepo struct {
	prefs []*model.NotificationPreference
	err   error
}

func (r *stubPrefRepo) ListEnabled(_ context.Context) ([]*model.NotificationPreference, error) {
	return r.prefs, r.err
}

func (r *stubPrefRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]*model.NotificationPreference, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*model.NotificationPreference
	for _, p := range r.prefs {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubProfileRepo struct {
	profiles map[uuid.UUID]*model.UserProfile
	err      error
}

func (r *stubProfileRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.UserProfile, error) {
	if r.err != nil {
		return nil, r.err
	}
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, apperror.NotFound("profile", nil)
	}
	return profile, nil
}

func (r *stubProfileRepo) ListByUserIDs(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*model.UserProfile, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make(map[uuid.UUID]*model.UserProfile, len(userIDs))
	for _, id := range userIDs {
		if profile, ok := r.profiles[id]; ok {
			out[id] = profile
		}
	}
	return out, nil
}

// memoryLogRepo is a mutex-guarded in-memory delivery log.
type memoryLogRepo struct {
	mu        sync.Mutex
	attempts  []*model.DispatchAttempt
	createErr error
}

func (r *memoryLogRepo) Create(_ context.Context, attempt *model.DispatchAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *memoryLogRepo) List(_ context.Context, filters model.AttemptFilters) ([]*model.DispatchAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.DispatchAttempt, 0, len(r.attempts))
	for _, a := range r.attempts {
		if filters.Channel != "" && a.Channel != filters.Channel {
			continue
		}
		if filters.Status != "" && a.Status != filters.Status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *memoryLogRepo) byChannel(ch model.Channel) []*model.DispatchAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.DispatchAttempt
	for _, a := range r.attempts {
		if a.Channel == ch {
			out = append(out, a)
		}
	}
	return out
}

type sentCall struct {
	msg       *model.Message
	recipient string
}

// fakeSender records sends; preflightErr and sendErr force the two
// sender-side failure modes.
type fakeSender struct {
	mu           sync.Mutex
	ch           model.Channel
	preflightErr error
	sendErr      error
	calls        []sentCall
}

func (s *fakeSender) Channel() model.Channel { return s.ch }
func (s *fakeSender) Preflight() error       { return s.preflightErr }

func (s *fakeSender) Send(_ context.Context, msg *model.Message, recipient string) (*channel.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	s.calls = append(s.calls, sentCall{msg: msg, recipient: recipient})
	return &channel.Receipt{MessageID: fmt.Sprintf("fake-%d", len(s.calls))}, nil
}

func (s *fakeSender) sendCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fixture struct {
	svc       *Service
	events    *stubEventRepo
	prefs     *stubPrefRepo
	profiles  *stubProfileRepo
	log       *memoryLogRepo
	senders   map[model.Channel]*fakeSender
	registry  channel.Registry
	companyID uuid.UUID
}

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.FatalLevel, Output: io.Discard})
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		events:    &stubEventRepo{},
		prefs:     &stubPrefRepo{},
		profiles:  &stubProfileRepo{profiles: map[uuid.UUID]*model.UserProfile{}},
		log:       &memoryLogRepo{},
		senders:   map[model.Channel]*fakeSender{},
		companyID: uuid.New(),
	}

	f.registry = channel.Registry{}
	for _, ch := range model.Channels() {
		sender := &fakeSender{ch: ch}
		f.senders[ch] = sender
		f.registry[ch] = sender
	}

	m := metrics.NewUnregistered("dispatch_test")
	log := testLogger()
	notifSvc := notification.NewService(f.registry, f.log, f.profiles, m, log)
	f.svc = NewService(f.events, f.prefs, f.profiles, notifSvc, Config{WindowDays: 7, Concurrency: 4}, m, log)
	return f
}

func (f *fixture) addEvent(name string, startIn time.Duration, companyID *uuid.UUID) *model.Event {
	event := &model.Event{
		ID:          uuid.New(),
		Name:        name,
		Type:        "earnings_call",
		HostCompany: "ACME Corp",
		CompanyID:   companyID,
		StartTime:   time.Now().Add(startIn),
	}
	f.events.events = append(f.events.events, event)
	return event
}

func (f *fixture) addUser(ch model.Channel, companies ...uuid.UUID) uuid.UUID {
	userID := uuid.New()
	f.profiles.profiles[userID] = &model.UserProfile{
		ID:        uuid.New(),
		UserID:    userID,
		FirstName: "Alex",
		LastName:  "Investor",
		Email:     "alex@example.com",
		Phone:     "+15550001111",
	}
	f.prefs.prefs = append(f.prefs.prefs, &model.NotificationPreference{
		ID:            uuid.New(),
		UserID:        userID,
		Channel:       ch,
		Enabled:       true,
		FrequencyDays: 7,
		Companies:     companies,
	})
	return userID
}

func TestRun_MatchedEmailIsSentAndLogged(t *testing.T) {
	f := newFixture(t)
	event := f.addEvent("Q3 Earnings Call", 48*time.Hour, &f.companyID)
	userID := f.addUser(model.ChannelEmail, f.companyID)

	summary, err := f.svc.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.EventsInWindow)
	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, f.senders[model.ChannelEmail].sendCount())

	attempts := f.log.byChannel(model.ChannelEmail)
	require.Len(t, attempts, 1)
	assert.Equal(t, userID, attempts[0].UserID)
	assert.Equal(t, model.AttemptStatusSent, attempts[0].Status)
	assert.NotEmpty(t, attempts[0].MessageID)
	assert.Equal(t, []uuid.UUID{event.ID}, attempts[0].EventIDs)
}

func TestRun_NonMatchingScopeProducesNoAttempt(t *testing.T) {
	f := newFixture(t)
	f.addEvent("Q3 Earnings Call", 48*time.Hour, &f.companyID)
	f.addUser(model.ChannelEmail, uuid.New()) // scoped to some other company

	summary, err := f.svc.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Attempted)
	assert.Equal(t, 0, f.senders[model.ChannelEmail].sendCount())
	assert.Empty(t, f.log.attempts)
}

func TestRun_MisconfiguredChannelIsIsolated(t *testing.T) {
	f := newFixture(t)
	f.addEvent("Q3 Earnings Call", 48*time.Hour, &f.companyID)
	f.addUser(model.ChannelEmail, f.companyID)
	f.addUser(model.ChannelSMS, f.companyID)
	f.senders[model.ChannelSMS].preflightErr = apperror.ChannelConfig("sms", fmt.Errorf("missing TWILIO_ACCOUNT_SID"))

	summary, err := f.svc.Run(context.Background(), false)
	require.NoError(t, err)

	// Email proceeded; sms was gated before any send, with no attempt record.
	assert.Equal(t, 1, summary.Sent)
	assert.Contains(t, summary.ChannelErrors, model.ChannelSMS)
	assert.Equal(t, 0, f.senders[model.ChannelSMS].sendCount())
	assert.Empty(t, f.log.byChannel(model.ChannelSMS))
	assert.Len(t, f.log.byChannel(model.ChannelEmail), 1)
}

func TestRun_TransportFailureLogsFailedAttempt(t *testing.T) {
	f := newFixture(t)
	f.addEvent("Q3 Earnings Call", 48*time.Hour, &f.companyID)
	userID := f.addUser(model.ChannelEmail, f.companyID)
	f.senders[model.ChannelEmail].sendErr = apperror.Transport("email", fmt.Errorf("provider returned 500"))

	summary, err := f.svc.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 0, summary.Sent)
	assert.Equal(t, 1, summary.Failed)

	attempts := f.log.byChannel(model.ChannelEmail)
	require.Len(t, attempts, 1)
	assert.Equal(t, userID, attempts[0].UserID)
	assert.Equal(t, model.AttemptStatusFailed, attempts[0].Status)
	assert.Empty(t, attempts[0].MessageID)
	assert.Contains(t, attempts[0].ErrorMessage, "provider returned 500")
}

func TestRun_FailureDoesNotBlockOtherUnits(t *testing.T) {
	f := newFixture(t)
	f.addEvent("Q3 Earnings Call", 48*time.Hour, &f.companyID)
	f.addUser(model.ChannelEmail, f.companyID)
	f.addUser(model.ChannelSMS, f.companyID)
	f.senders[model.ChannelSMS].sendErr = apperror.Transport("sms", fmt.Errorf("timeout"))

	summary, err := f.svc.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Attempted)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, f.log.attempts, 2)
}

func TestRun_UnavailableEventStoreAbortsRun(t *testing.T) {
	f := newFixture(t)
	f.addUser(model.ChannelEmail, f.companyID)
	f.events.err = apperror.DataUnavailable("event", fmt.Errorf("connection refused"))

	summary, err := f.svc.Run(context.Background(), false)
	require.Error(t, err)
	assert.True(t, apperror.IsDataUnavailable(err))
	assert.Equal(t, 0, summary.Attempted)
	assert.Empty(t, f.log.attempts)
}

func TestRun_PreferenceWithoutProfileIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.addEvent("Q3 Earnings Call", 48*time.Hour, &f.companyID)
	f.prefs.prefs = append(f.prefs.prefs, &model.NotificationPreference{
		ID:            uuid.New(),
		UserID:        uuid.New(), // no profile stored for this user
		Channel:       model.ChannelEmail,
		Enabled:       true,
		FrequencyDays: 7,
	})

	summary, err := f.svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Attempted)
}

func TestRun_LogWriteFailureDoesNotFailDeliveries(t *testing.T) {
	f := newFixture(t)
	f.addEvent("Q3 Earnings Call", 48*time.Hour, &f.companyID)
	f.addUser(model.ChannelEmail, f.companyID)
	f.log.createErr = fmt.Errorf("disk full")

	summary, err := f.svc.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, f.senders[model.ChannelEmail].sendCount())
}

func TestRun_EventOutsideLeadTimeIsExcluded(t *testing.T) {
	f := newFixture(t)
	f.addEvent("Far Future AGM", 20*24*time.Hour, &f.companyID)
	f.addUser(model.ChannelEmail, f.companyID)
	// Window fetch is stubbed wide; the per-preference lead time still
	// filters the event out.
	summary, err := f.svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Attempted)
}

func TestRun_WindowWidensToLongestLeadTime(t *testing.T) {
	f := newFixture(t)
	f.events.honorWindow = true
	f.addEvent("Annual Investor Day", 14*24*time.Hour, &f.companyID)
	f.addUser(model.ChannelEmail, f.companyID)
	// The preference's lead time exceeds the configured 7-day window; the
	// run must widen its fetch so the event is still seen.
	f.prefs.prefs[0].FrequencyDays = 30

	summary, err := f.svc.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.EventsInWindow)
	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 1, summary.Sent)
	assert.Len(t, f.log.byChannel(model.ChannelEmail), 1)
}

// degradingSender passes its first preflight and fails every later one,
// like credentials revoked mid-run.
type degradingSender struct {
	fakeSender
	checkMu sync.Mutex
	checks  int
}

func (s *degradingSender) Preflight() error {
	s.checkMu.Lock()
	defer s.checkMu.Unlock()
	s.checks++
	if s.checks > 1 {
		return apperror.ChannelConfig(s.ch.String(), fmt.Errorf("credentials revoked"))
	}
	return nil
}

func TestRun_ChannelDegradedAfterGateCountsNothing(t *testing.T) {
	f := newFixture(t)
	f.addEvent("Q3 Earnings Call", 48*time.Hour, &f.companyID)
	f.addUser(model.ChannelSMS, f.companyID)
	f.registry[model.ChannelSMS] = &degradingSender{fakeSender: fakeSender{ch: model.ChannelSMS}}

	summary, err := f.svc.Run(context.Background(), false)
	require.NoError(t, err)

	// The run-level gate passed but the unit's delivery never started, so
	// the summary counts stay consistent with the (empty) delivery log.
	assert.Equal(t, 0, summary.Attempted)
	assert.Equal(t, 0, summary.Sent)
	assert.Equal(t, 0, summary.Failed)
	assert.Empty(t, f.log.attempts)
}

func TestTestNotification_SendsEmailCappedAtThreeEvents(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.addEvent(fmt.Sprintf("Event %d", i), time.Duration(i+1)*24*time.Hour, &f.companyID)
	}
	userID := f.addUser(model.ChannelSMS, f.companyID) // test sends go by email regardless

	result, err := f.svc.TestNotification(context.Background(), userID)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.MessageID)
	assert.Equal(t, 1, f.senders[model.ChannelEmail].sendCount())
	assert.Equal(t, 0, f.senders[model.ChannelSMS].sendCount())

	attempts := f.log.byChannel(model.ChannelEmail)
	require.Len(t, attempts, 1)
	assert.Len(t, attempts[0].EventIDs, 3)
}

func TestTestNotification_NoUpcomingEvents(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(model.ChannelEmail, f.companyID)

	result, err := f.svc.TestNotification(context.Background(), userID)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "no upcoming events within the test window", result.Error)
	assert.Equal(t, 0, f.senders[model.ChannelEmail].sendCount())
}

func TestTestNotification_UsesEmailPreferenceScoping(t *testing.T) {
	f := newFixture(t)
	f.addEvent("Competitor AGM", 48*time.Hour, &f.companyID)
	otherCompany := uuid.New()
	userID := f.addUser(model.ChannelEmail, otherCompany)

	result, err := f.svc.TestNotification(context.Background(), userID)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "no events match the user's preferences", result.Error)
}
