package telephony

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/voxlane/frontdesk/internal/logging"
)

// Call status values Twilio posts to the status callback.
const (
	StatusQueued     = "queued"
	StatusRinging    = "ringing"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusBusy       = "busy"
	StatusNoAnswer   = "no-answer"
	StatusCanceled   = "canceled"
)

// TerminalStatus reports whether a call status means the call is over.
func TerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusBusy, StatusNoAnswer, StatusCanceled:
		return true
	}
	return false
}

// TwilioClient talks to the Twilio REST API: sending SMS and fetching call
// recordings. All requests authenticate with account SID basic auth.
type TwilioClient struct {
	rest       *resty.Client
	apiBase    string
	accountSID string
	fromNumber string
	log        *logging.Logger
}

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// NewTwilioClient creates a Twilio API client. Empty credentials produce a
// disabled client whose operations fail cleanly.
func NewTwilioClient(accountSID, authToken, fromNumber string, log *logging.Logger) *TwilioClient {
	rest := resty.New().SetBasicAuth(accountSID, authToken)
	return &TwilioClient{
		rest:       rest,
		apiBase:    twilioAPIBase,
		accountSID: accountSID,
		fromNumber: fromNumber,
		log:        log.Sub("twilio"),
	}
}

// SetAPIBase overrides the API base URL. Tests point it at a local server.
func (c *TwilioClient) SetAPIBase(base string) {
	c.apiBase = base
}

// Enabled reports whether credentials were configured.
func (c *TwilioClient) Enabled() bool {
	return c.accountSID != ""
}

// SendSMS sends a text message from the configured number.
func (c *TwilioClient) SendSMS(ctx context.Context, to, body string) error {
	if !c.Enabled() {
		return fmt.Errorf("twilio client not configured")
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":   to,
			"From": c.fromNumber,
			"Body": body,
		}).
		Post(fmt.Sprintf("%s/Accounts/%s/Messages.json", c.apiBase, c.accountSID))
	if err != nil {
		return fmt.Errorf("sending sms: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sending sms: status %d: %s", resp.StatusCode(), resp.String())
	}

	c.log.Info().Str("to", to).Msg("sms sent")
	return nil
}

// DownloadRecording fetches the audio of a finished recording. Twilio serves
// the media at the recording URL plus an extension.
func (c *TwilioClient) DownloadRecording(ctx context.Context, recordingURL string) ([]byte, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("twilio client not configured")
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		Get(recordingURL + ".mp3")
	if err != nil {
		return nil, fmt.Errorf("downloading recording: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("downloading recording: status %d", resp.StatusCode())
	}

	return resp.Body(), nil
}
