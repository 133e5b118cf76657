package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agora-ir/platform/internal/config"
	"github.com/agora-ir/platform/internal/model"
	"github.com/agora-ir/platform/pkg/apperror"
)

const twilioBaseURL = "https://api.twilio.com"

// twilioSender posts one message to Twilio's Messages endpoint per Send.
// Twilio answers synchronously with the message SID we keep as the
// provider message id.
type twilioSender struct {
	httpClient *http.Client
	baseURL    string
	accountSID string
	authToken  string
	fromNumber string
}

func NewSMSSender(creds config.ChannelCredentials) Sender {
	return &twilioSender{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    twilioBaseURL,
		accountSID: creds.TwilioAccountSID,
		authToken:  creds.TwilioAuthToken,
		fromNumber: creds.TwilioFromNumber,
	}
}

func (s *twilioSender) Channel() model.Channel { return model.ChannelSMS }

func (s *twilioSender) Preflight() error {
	if s.accountSID == "" || s.authToken == "" || s.fromNumber == "" {
		return apperror.ChannelConfig("sms", errors.New("Twilio credentials are not set"))
	}
	return nil
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
}

func (s *twilioSender) Send(ctx context.Context, msg *model.Message, recipient string) (*Receipt, error) {
	form := url.Values{}
	form.Set("From", s.fromNumber)
	form.Set("To", recipient)
	form.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperror.Transport("sms", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Transport("sms", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, apperror.Transport("sms", err)
	}

	var parsed twilioResponse
	if err := json.Unmarshal(body, &parsed); err != nil && resp.StatusCode < 300 {
		return nil, apperror.Transport("sms", fmt.Errorf("unreadable Twilio response: %w", err))
	}

	if resp.StatusCode >= 300 {
		detail := parsed.Message
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return nil, apperror.Transport("sms", fmt.Errorf("Twilio API error %d: %s", resp.StatusCode, detail))
	}

	return &Receipt{MessageID: parsed.SID}, nil
}
