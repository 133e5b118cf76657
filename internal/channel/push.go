package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/agora-ir/platform/internal/model"
	"github.com/agora-ir/platform/pkg/apperror"
	"github.com/agora-ir/platform/pkg/messaging"
)

// pushSender enqueues the structured payload for out-of-band delivery; the
// desktop client and the mobile push relay drain their queues outside this
// process. With no provider round trip, the receipt carries a locally
// generated correlation id like "desktop-<uuid>".
type pushSender struct {
	channel model.Channel
	broker  messaging.Broker
	queue   string
}

func NewDesktopSender(broker messaging.Broker) Sender {
	return &pushSender{
		channel: model.ChannelDesktop,
		broker:  broker,
		queue:   "notifications:desktop",
	}
}

func NewMobileSender(broker messaging.Broker) Sender {
	return &pushSender{
		channel: model.ChannelMobile,
		broker:  broker,
		queue:   "notifications:mobile",
	}
}

func (s *pushSender) Channel() model.Channel { return s.channel }

func (s *pushSender) Preflight() error {
	if s.broker == nil {
		return apperror.ChannelConfig(s.channel.String(), errors.New("no message broker configured"))
	}
	return nil
}

func (s *pushSender) Send(ctx context.Context, msg *model.Message, recipient string) (*Receipt, error) {
	if msg.Push == nil {
		return nil, apperror.Transport(s.channel.String(), errors.New("message has no push payload"))
	}

	envelope := messaging.Message{
		Type: "event_notification",
		Payload: map[string]interface{}{
			"recipient": recipient,
			"payload":   msg.Push,
		},
	}
	if err := s.broker.Publish(ctx, s.queue, envelope); err != nil {
		return nil, apperror.Transport(s.channel.String(), err)
	}

	return &Receipt{MessageID: fmt.Sprintf("%s-%s", s.channel, uuid.New())}, nil
}
