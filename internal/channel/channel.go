// Package channel holds the delivery edge of the dispatch engine: one
// sender per transport. The variant set is closed; the dispatcher selects
// a sender by channel tag and every sender obeys the same contract.
package channel

import (
	"context"

	"github.com/agora-ir/platform/internal/model"
)

// Receipt is the proof a delivery left the process: a provider message id
// for email and SMS, a locally generated correlation id for the queued
// desktop and mobile variants.
type Receipt struct {
	MessageID string
}

// Sender performs exactly one outbound call (or local enqueue) per Send.
// Retry policy belongs to the caller, never to a sender.
//
// Preflight reports a ChannelConfig error when required credentials are
// missing; it never touches the network, so the dispatcher can gate a whole
// channel before fanning out. Send reports Transport errors for remote
// failures, which the dispatcher isolates to the single attempt.
type Sender interface {
	Channel() model.Channel
	Preflight() error
	Send(ctx context.Context, msg *model.Message, recipient string) (*Receipt, error)
}

// Registry maps each configured channel to its sender.
type Registry map[model.Channel]Sender

func (r Registry) Get(ch model.Channel) (Sender, bool) {
	s, ok := r[ch]
	return s, ok
}
