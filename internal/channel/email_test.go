package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-ir/platform/internal/config"
	"github.com/agora-ir/platform/pkg/apperror"
)

func TestNewEmailSenderProviderSelection(t *testing.T) {
	creds := config.ChannelCredentials{EmailSender: "noreply@example.com"}

	sender, err := NewEmailSender(EmailProviderPostmark, creds)
	require.NoError(t, err)
	assert.IsType(t, &postmarkSender{}, sender)

	sender, err = NewEmailSender(EmailProviderSMTP, creds)
	require.NoError(t, err)
	assert.IsType(t, &smtpSender{}, sender)

	_, err = NewEmailSender("sendgrid", creds)
	assert.Error(t, err)
}

func TestPostmarkPreflight(t *testing.T) {
	sender := newPostmarkSender(config.ChannelCredentials{
		PostmarkServerToken: "server-token",
		EmailSender:         "noreply@example.com",
	})
	assert.NoError(t, sender.Preflight())

	missingFrom := newPostmarkSender(config.ChannelCredentials{PostmarkServerToken: "server-token"})
	err := missingFrom.Preflight()
	require.Error(t, err)
	assert.True(t, apperror.IsChannelConfig(err))

	missingToken := newPostmarkSender(config.ChannelCredentials{EmailSender: "noreply@example.com"})
	err = missingToken.Preflight()
	require.Error(t, err)
	assert.True(t, apperror.IsChannelConfig(err))
	assert.Contains(t, err.Error(), "POSTMARK_SERVER_TOKEN")
}

func TestSMTPPreflight(t *testing.T) {
	sender := newSMTPSender(config.ChannelCredentials{
		SMTPHost:    "smtp.example.com",
		SMTPPort:    587,
		EmailSender: "noreply@example.com",
	})
	assert.NoError(t, sender.Preflight())

	missingHost := newSMTPSender(config.ChannelCredentials{EmailSender: "noreply@example.com"})
	err := missingHost.Preflight()
	require.Error(t, err)
	assert.True(t, apperror.IsChannelConfig(err))
}
