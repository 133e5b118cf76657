package renderer

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-ir/platform/internal/model"
)

func testProfile() *model.UserProfile {
	return &model.UserProfile{
		UserID:    uuid.New(),
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
	}
}

func testEvents(n int) []model.EventSummary {
	start := time.Date(2026, 9, 3, 14, 30, 0, 0, time.UTC)
	events := make([]model.EventSummary, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, model.EventSummary{
			ID:          uuid.New(),
			Name:        "Q3 Earnings Call",
			Type:        "earnings_call",
			HostCompany: "ACME Corp",
			StartTime:   start.Add(time.Duration(i) * 24 * time.Hour),
			Location:    "Virtual",
		})
	}
	return events
}

func TestEmailSubjectPluralization(t *testing.T) {
	tests := []struct {
		count, days int
		want        string
	}{
		{1, 1, "AGORA: 1 Upcoming Event in 1 Day"},
		{1, 7, "AGORA: 1 Upcoming Event in 7 Days"},
		{3, 7, "AGORA: 3 Upcoming Events in 7 Days"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EmailSubject(tt.count, tt.days))
	}
}

func TestRenderEmail(t *testing.T) {
	events := testEvents(2)
	msg, err := Render(model.ChannelEmail, testProfile(), events, 7)
	require.NoError(t, err)

	assert.Equal(t, model.ChannelEmail, msg.Channel)
	assert.Equal(t, "AGORA: 2 Upcoming Events in 7 Days", msg.Subject)
	assert.Contains(t, msg.Body, "Hello Jane Doe,")
	assert.Contains(t, msg.Body, "You have 2 upcoming events in the next 7 days")
	assert.Contains(t, msg.Body, "Q3 Earnings Call")
	// Stored event types read with spaces, not underscores.
	assert.Contains(t, msg.Body, "earnings call")
	assert.NotContains(t, msg.Body, "earnings_call")
	assert.Contains(t, msg.Body, "9/3/2026")
	assert.Contains(t, msg.Body, "2:30:00 PM")
}

func TestRenderEmailOmitsEmptyDescription(t *testing.T) {
	events := testEvents(1)
	msg, err := Render(model.ChannelEmail, testProfile(), events, 7)
	require.NoError(t, err)
	withoutDesc := msg.Body

	events[0].Description = "Discussion of quarterly results."
	msg, err = Render(model.ChannelEmail, testProfile(), events, 7)
	require.NoError(t, err)

	assert.Contains(t, msg.Body, "Discussion of quarterly results.")
	assert.NotContains(t, withoutDesc, "Discussion of quarterly results.")
}

func TestRenderSMS(t *testing.T) {
	events := testEvents(1)
	msg, err := Render(model.ChannelSMS, testProfile(), events, 3)
	require.NoError(t, err)

	assert.Equal(t, model.ChannelSMS, msg.Channel)
	assert.Empty(t, msg.Subject)
	assert.Contains(t, msg.Body, "AGORA Alert: Hi Jane, you have 1 upcoming event in 3 days:")
	assert.Contains(t, msg.Body, "• Q3 Earnings Call - ACME Corp (9/3/2026)")
	assert.Contains(t, msg.Body, "Check your AGORA dashboard for details.")
}

func TestRenderSMSFallsBackToUser(t *testing.T) {
	profile := testProfile()
	profile.FirstName = "  "
	msg, err := Render(model.ChannelSMS, profile, testEvents(1), 7)
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "Hi User,")
}

func TestRenderPush(t *testing.T) {
	profile := testProfile()
	events := testEvents(2)

	for _, ch := range []model.Channel{model.ChannelDesktop, model.ChannelMobile} {
		msg, err := Render(ch, profile, events, 7)
		require.NoError(t, err)
		require.NotNil(t, msg.Push)

		assert.Equal(t, ch, msg.Channel)
		assert.Equal(t, profile.UserID.String(), msg.Push.UserID)
		assert.Equal(t, "AGORA: 2 Upcoming Events in 7 Days", msg.Push.Title)
		assert.Equal(t, 7, msg.Push.FrequencyDays)
		assert.Equal(t, events, msg.Push.Events)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	profile := testProfile()
	events := testEvents(3)

	first, err := Render(model.ChannelEmail, profile, events, 7)
	require.NoError(t, err)
	second, err := Render(model.ChannelEmail, profile, events, 7)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderUnsupportedChannel(t *testing.T) {
	_, err := Render(model.Channel("fax"), testProfile(), testEvents(1), 7)
	assert.Error(t, err)
}
