// Package renderer turns matched events into channel-ready payloads. It
// performs no I/O and reads no clock: the same inputs always produce
// byte-identical output.
package renderer

import (
	"fmt"
	"strings"

	"github.com/agora-ir/platform/internal/model"
)

const (
	dateFormat = "1/2/2006"
	timeFormat = "3:04:05 PM"
)

// Render produces the payload for one channel. Event order is preserved;
// the caller has already sorted and capped the list.
func Render(ch model.Channel, profile *model.UserProfile, events []model.EventSummary, frequencyDays int) (*model.Message, error) {
	switch ch {
	case model.ChannelEmail:
		return renderEmail(profile, events, frequencyDays), nil
	case model.ChannelSMS:
		return renderSMS(profile, events, frequencyDays), nil
	case model.ChannelDesktop, model.ChannelMobile:
		return renderPush(ch, profile, events, frequencyDays), nil
	default:
		return nil, fmt.Errorf("unsupported channel: %s", ch)
	}
}

func renderEmail(profile *model.UserProfile, events []model.EventSummary, frequencyDays int) *model.Message {
	var blocks strings.Builder
	for _, event := range events {
		blocks.WriteString(fmt.Sprintf(`
    <div style="border: 1px solid #333; margin: 10px 0; padding: 15px; background-color: #1a1a1a; border-radius: 4px;">
      <h3 style="color: #B8860B; margin: 0 0 10px 0;">%s</h3>
      <p style="color: #cccccc; margin: 5px 0;"><strong>Company:</strong> %s</p>
      <p style="color: #cccccc; margin: 5px 0;"><strong>Type:</strong> %s</p>
      <p style="color: #cccccc; margin: 5px 0;"><strong>Date:</strong> %s at %s</p>
      <p style="color: #cccccc; margin: 5px 0;"><strong>Location:</strong> %s</p>`,
			event.Name,
			event.HostCompany,
			humanType(event.Type),
			event.StartTime.Format(dateFormat),
			event.StartTime.Format(timeFormat),
			event.Location,
		))
		if event.Description != "" {
			blocks.WriteString(fmt.Sprintf(`
      <p style="color: #cccccc; margin: 10px 0 0 0;">%s</p>`, event.Description))
		}
		blocks.WriteString("\n    </div>\n")
	}

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Upcoming Events - AGORA</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #000000; color: #ffffff; margin: 0; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto;">
    <div style="text-align: center; margin-bottom: 30px;">
      <h1 style="color: #B8860B; margin-bottom: 5px;">AGORA</h1>
      <p style="color: #cccccc; margin: 0;">Bloomberg-Style IR Platform</p>
    </div>

    <h2 style="color: #B8860B;">Hello %s,</h2>
    <p style="color: #cccccc; line-height: 1.6;">
      You have %d upcoming %s in the next %d %s based on your notification preferences:
    </p>
%s
    <div style="margin-top: 30px; padding: 20px; background-color: #2d2d2d; border-radius: 4px;">
      <p style="color: #cccccc; margin: 0; font-size: 14px;">
        You're receiving this notification because you've subscribed to receive updates about upcoming events.
        You can manage your notification preferences in your AGORA account settings.
      </p>
    </div>

    <div style="text-align: center; margin-top: 20px;">
      <p style="color: #888888; font-size: 12px;">
        © 2024 AGORA - Bloomberg-Style IR Platform
      </p>
    </div>
  </div>
</body>
</html>
`,
		profile.DisplayName(),
		len(events), pluralize(len(events), "event", "events"),
		frequencyDays, pluralize(frequencyDays, "day", "days"),
		blocks.String(),
	)

	return &model.Message{
		Channel: model.ChannelEmail,
		Subject: EmailSubject(len(events), frequencyDays),
		Body:    body,
	}
}

// EmailSubject encodes the event count and lead time, e.g.
// "AGORA: 1 Upcoming Event in 7 Days".
func EmailSubject(eventCount, frequencyDays int) string {
	return fmt.Sprintf("AGORA: %d Upcoming Event%s in %d Day%s",
		eventCount, pluralSuffix(eventCount),
		frequencyDays, pluralSuffix(frequencyDays),
	)
}

func renderSMS(profile *model.UserProfile, events []model.EventSummary, frequencyDays int) *model.Message {
	var lines []string
	for _, event := range events {
		lines = append(lines, fmt.Sprintf("• %s - %s (%s)",
			event.Name, event.HostCompany, event.StartTime.Format(dateFormat)))
	}

	body := fmt.Sprintf("AGORA Alert: Hi %s, you have %d upcoming event%s in %d day%s:\n\n%s\n\nCheck your AGORA dashboard for details.",
		firstName(profile),
		len(events), pluralSuffix(len(events)),
		frequencyDays, pluralSuffix(frequencyDays),
		strings.Join(lines, "\n"),
	)

	return &model.Message{
		Channel: model.ChannelSMS,
		Body:    body,
	}
}

func renderPush(ch model.Channel, profile *model.UserProfile, events []model.EventSummary, frequencyDays int) *model.Message {
	return &model.Message{
		Channel: ch,
		Push: &model.PushPayload{
			UserID:        profile.UserID.String(),
			Title:         EmailSubject(len(events), frequencyDays),
			Body:          fmt.Sprintf("%d upcoming event%s in the next %d day%s", len(events), pluralSuffix(len(events)), frequencyDays, pluralSuffix(frequencyDays)),
			FrequencyDays: frequencyDays,
			Events:        events,
		},
	}
}

// humanType replaces the underscore separators of stored event types with
// spaces: "earnings_call" reads "earnings call".
func humanType(eventType string) string {
	return strings.ReplaceAll(eventType, "_", " ")
}

func firstName(profile *model.UserProfile) string {
	if name := strings.TrimSpace(profile.FirstName); name != "" {
		return name
	}
	return "User"
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

func pluralSuffix(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
