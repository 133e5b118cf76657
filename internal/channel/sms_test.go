package channel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-ir/platform/internal/config"
	"github.com/agora-ir/platform/internal/model"
	"github.com/agora-ir/platform/pkg/apperror"
)

func twilioCreds() config.ChannelCredentials {
	return config.ChannelCredentials{
		TwilioAccountSID: "AC00000000000000000000000000000000",
		TwilioAuthToken:  "secret",
		TwilioFromNumber: "+15550009999",
	}
}

func TestSMSPreflight(t *testing.T) {
	assert.NoError(t, NewSMSSender(twilioCreds()).Preflight())

	creds := twilioCreds()
	creds.TwilioAuthToken = ""
	err := NewSMSSender(creds).Preflight()
	require.Error(t, err)
	assert.True(t, apperror.IsChannelConfig(err))
}

func TestSMSSend(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"From": r.PostFormValue("From"),
			"To":   r.PostFormValue("To"),
			"Body": r.PostFormValue("Body"),
		}
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC00000000000000000000000000000000", user)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid": "SM123"}`))
	}))
	defer srv.Close()

	sender := NewSMSSender(twilioCreds()).(*twilioSender)
	sender.baseURL = srv.URL

	receipt, err := sender.Send(context.Background(), &model.Message{
		Channel: model.ChannelSMS,
		Body:    "AGORA Alert: Hi Jane, you have 1 upcoming event in 7 days",
	}, "+15551230000")
	require.NoError(t, err)

	assert.Equal(t, "SM123", receipt.MessageID)
	assert.Equal(t, "+15550009999", gotForm["From"])
	assert.Equal(t, "+15551230000", gotForm["To"])
	assert.Contains(t, gotForm["Body"], "AGORA Alert")
}

func TestSMSSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "Authentication Error"}`))
	}))
	defer srv.Close()

	sender := NewSMSSender(twilioCreds()).(*twilioSender)
	sender.baseURL = srv.URL

	_, err := sender.Send(context.Background(), &model.Message{Body: "hi"}, "+15551230000")
	require.Error(t, err)
	assert.True(t, apperror.IsTransport(err))
	assert.Contains(t, err.Error(), "Twilio API error 401: Authentication Error")
}
