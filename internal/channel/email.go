package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mrz1836/postmark"
	"gopkg.in/gomail.v2"

	"github.com/agora-ir/platform/internal/config"
	"github.com/agora-ir/platform/internal/model"
	"github.com/agora-ir/platform/pkg/apperror"
)

const (
	EmailProviderPostmark = "postmark"
	EmailProviderSMTP     = "smtp"
)

// NewEmailSender picks the email transport by configured provider name.
// Construction always succeeds even with empty credentials; missing
// configuration surfaces through Preflight once the channel actually has
// recipients.
func NewEmailSender(provider string, creds config.ChannelCredentials) (Sender, error) {
	switch provider {
	case EmailProviderPostmark:
		return newPostmarkSender(creds), nil
	case EmailProviderSMTP:
		return newSMTPSender(creds), nil
	default:
		return nil, fmt.Errorf("unknown email provider: %s", provider)
	}
}

// postmarkSender delivers through Postmark's transactional API. The
// provider returns a message id we keep in the audit record.
type postmarkSender struct {
	client *postmark.Client
	sender string
}

func newPostmarkSender(creds config.ChannelCredentials) *postmarkSender {
	return &postmarkSender{
		client: postmark.NewClient(creds.PostmarkServerToken, creds.PostmarkAccountToken),
		sender: creds.EmailSender,
	}
}

func (s *postmarkSender) Channel() model.Channel { return model.ChannelEmail }

func (s *postmarkSender) Preflight() error {
	if s.sender == "" {
		return apperror.ChannelConfig("email", errors.New("EMAIL_SENDER is not set"))
	}
	// The account token is only needed for account-level API calls.
	if s.client == nil || s.clientUnconfigured() {
		return apperror.ChannelConfig("email", errors.New("POSTMARK_SERVER_TOKEN is not set"))
	}
	return nil
}

func (s *postmarkSender) clientUnconfigured() bool {
	return s.client.ServerToken == ""
}

func (s *postmarkSender) Send(ctx context.Context, msg *model.Message, recipient string) (*Receipt, error) {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.sender,
		To:       recipient,
		Subject:  msg.Subject,
		HTMLBody: msg.Body,
	})
	if err != nil {
		return nil, apperror.Transport("email", err)
	}
	if resp.ErrorCode > 0 {
		return nil, apperror.Transport("email", fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message))
	}
	return &Receipt{MessageID: resp.MessageID}, nil
}

// smtpSender delivers over plain SMTP, for development and self-hosted
// relays. SMTP has no provider round trip, so the receipt carries a local
// correlation id.
type smtpSender struct {
	dialer *gomail.Dialer
	host   string
	sender string
}

func newSMTPSender(creds config.ChannelCredentials) *smtpSender {
	return &smtpSender{
		dialer: gomail.NewDialer(creds.SMTPHost, creds.SMTPPort, creds.SMTPUser, creds.SMTPPassword),
		host:   creds.SMTPHost,
		sender: creds.EmailSender,
	}
}

func (s *smtpSender) Channel() model.Channel { return model.ChannelEmail }

func (s *smtpSender) Preflight() error {
	if s.host == "" {
		return apperror.ChannelConfig("email", errors.New("SMTP_HOST is not set"))
	}
	if s.sender == "" {
		return apperror.ChannelConfig("email", errors.New("EMAIL_SENDER is not set"))
	}
	return nil
}

func (s *smtpSender) Send(_ context.Context, msg *model.Message, recipient string) (*Receipt, error) {
	m := gomail.NewMessage()
	m.SetHeader("From", s.sender)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return nil, apperror.Transport("email", err)
	}
	return &Receipt{MessageID: "smtp-" + uuid.New().String()}, nil
}
