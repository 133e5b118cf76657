package notification

import (
	"context"
	"fmt"

	"github.com/agora-ir/platform/internal/channel"
	"github.com/agora-ir/platform/internal/model"
	"github.com/agora-ir/platform/internal/repository"
	"github.com/agora-ir/platform/internal/service/renderer"
	"github.com/agora-ir/platform/pkg/apperror"
	"github.com/agora-ir/platform/pkg/logger"
	"github.com/agora-ir/platform/pkg/metrics"
)

// Service runs the delivery pipeline for one (user, channel) pair:
// render, send, log. The three steps are strictly ordered; the log write
// happens for every send attempt, success or failure.
type Service interface {
	// Deliver performs one delivery. The returned attempt is non-nil
	// whenever a send was actually attempted (and has then been handed to
	// the delivery log); the error reports why a delivery failed. A
	// channel misconfiguration returns an error with no attempt, since no
	// send was tried.
	Deliver(ctx context.Context, profile *model.UserProfile, ch model.Channel, events []model.EventSummary, frequencyDays int) (*model.DispatchAttempt, error)

	// HandleRequest serves the per-delivery API contract: it resolves the
	// recipient's contact point and delegates to Deliver.
	HandleRequest(ctx context.Context, req *model.SendNotificationRequest) (*model.SendResult, error)

	// PreflightChannel verifies a channel's sender configuration without
	// touching the network.
	PreflightChannel(ch model.Channel) error
}

type service struct {
	senders     channel.Registry
	logRepo     repository.DeliveryLogRepository
	profileRepo repository.ProfileRepository
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

func NewService(
	senders channel.Registry,
	logRepo repository.DeliveryLogRepository,
	profileRepo repository.ProfileRepository,
	m *metrics.Metrics,
	logger *logger.Logger,
) Service {
	return &service{
		senders:     senders,
		logRepo:     logRepo,
		profileRepo: profileRepo,
		metrics:     m,
		logger:      logger,
	}
}

func (s *service) PreflightChannel(ch model.Channel) error {
	sender, ok := s.senders.Get(ch)
	if !ok {
		return apperror.ChannelConfig(ch.String(), fmt.Errorf("no sender registered"))
	}
	return sender.Preflight()
}

func (s *service) Deliver(ctx context.Context, profile *model.UserProfile, ch model.Channel, events []model.EventSummary, frequencyDays int) (*model.DispatchAttempt, error) {
	sender, ok := s.senders.Get(ch)
	if !ok {
		return nil, apperror.ChannelConfig(ch.String(), fmt.Errorf("no sender registered"))
	}
	if err := sender.Preflight(); err != nil {
		return nil, err
	}

	eventIDs := model.EventIDs(events)

	msg, err := renderer.Render(ch, profile, events, frequencyDays)
	if err != nil {
		attempt := model.FailedAttempt(profile.UserID, ch, eventIDs, err)
		s.recordAttempt(ctx, attempt)
		return attempt, err
	}

	s.metrics.DeliveriesAttempted.WithLabelValues(ch.String()).Inc()

	receipt, err := sender.Send(ctx, msg, profile.Contact(ch))
	if err != nil {
		s.metrics.DeliveriesFailed.WithLabelValues(ch.String()).Inc()
		s.logger.Error(err, "delivery failed", "user_id", profile.UserID.String(), "channel", ch.String())

		attempt := model.FailedAttempt(profile.UserID, ch, eventIDs, err)
		s.recordAttempt(ctx, attempt)
		return attempt, err
	}

	s.metrics.DeliveriesSent.WithLabelValues(ch.String()).Inc()
	s.logger.Info("delivery sent", "user_id", profile.UserID.String(), "channel", ch.String(), "message_id", receipt.MessageID)

	attempt := model.SentAttempt(profile.UserID, ch, eventIDs, receipt.MessageID)
	s.recordAttempt(ctx, attempt)
	return attempt, nil
}

// recordAttempt appends to the delivery log. A log write failure is its
// own fault domain: it is surfaced and counted but never fails the
// delivery, and the completed send is never retried because of it.
func (s *service) recordAttempt(ctx context.Context, attempt *model.DispatchAttempt) {
	if err := s.logRepo.Create(ctx, attempt); err != nil {
		s.metrics.LogWriteFailures.Inc()
		s.logger.Error(err, "failed to record dispatch attempt",
			"user_id", attempt.UserID.String(),
			"channel", attempt.Channel.String(),
			"status", string(attempt.Status),
		)
	}
}

func (s *service) HandleRequest(ctx context.Context, req *model.SendNotificationRequest) (*model.SendResult, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	// The request's name fields win: the caller may be previewing copy for
	// a name that is not saved yet.
	if req.FirstName != "" {
		profile.FirstName = req.FirstName
	}
	if req.LastName != "" {
		profile.LastName = req.LastName
	}

	attempt, err := s.Deliver(ctx, profile, req.Channel, req.Events, req.FrequencyDays)
	if err != nil {
		return &model.SendResult{Success: false, Error: err.Error()}, err
	}
	return &model.SendResult{Success: true, MessageID: attempt.MessageID}, nil
}
