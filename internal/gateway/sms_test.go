package gateway

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlane/frontdesk/internal/llm"
)

func (env *testEnv) text(t *testing.T, from, body string) string {
	t.Helper()
	rr := env.postForm(t, "/sms/incoming", url.Values{
		"From": {from},
		"To":   {"+15559990000"},
		"Body": {body},
	})
	return rr.Body.String()
}

func TestSMS_ReplyAndThreadPersistence(t *testing.T) {
	env := newTestEnv(t)
	env.genLLM.CompleteFunc = func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{Content: "We have 10am and 2pm open tomorrow."}, nil
	}

	body := env.text(t, "+15551234567", "do you have any openings tomorrow?")
	assert.Contains(t, body, "<Message>We have 10am and 2pm open tomorrow.</Message>")

	sess := env.smsSessions.GetOrCreate("dental", "+15551234567")
	require.Len(t, sess.Turns, 2)
	assert.Equal(t, "do you have any openings tomorrow?", sess.Turns[0].Content)
}

func TestSMS_ThreadContextCarriesAcrossMessages(t *testing.T) {
	env := newTestEnv(t)
	var lastHistory []llm.Message
	env.genLLM.CompleteFunc = func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		lastHistory = req.Messages
		return &llm.CompletionResponse{Content: "Got it."}, nil
	}

	env.text(t, "+15551234567", "hi, I'm Maria")
	env.text(t, "+15551234567", "what time do you close?")

	// The second turn sees the whole thread.
	require.Len(t, lastHistory, 3)
	assert.Equal(t, "hi, I'm Maria", lastHistory[0].Content)
	assert.Equal(t, "Got it.", lastHistory[1].Content)
	assert.Equal(t, "what time do you close?", lastHistory[2].Content)
}

func TestSMS_BookingCreatesAppointment(t *testing.T) {
	env := newTestEnv(t)
	env.genLLM.CompleteFunc = func(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{
			Content: "Booked!\nBOOKING: Maria|15551234567||2026-09-03|10:00|trim",
		}, nil
	}

	body := env.text(t, "+15551234567", "book me for 10am Thursday")
	assert.Contains(t, body, "all set for 2026-09-03 at 10:00")

	appts := env.bookings.List("dental")
	require.Len(t, appts, 1)
	assert.Equal(t, "sms", appts[0].Source)
}

func TestSMS_UnknownNumberIgnored(t *testing.T) {
	env := newTestEnv(t)

	rr := env.postForm(t, "/sms/incoming", url.Values{
		"From": {"+15551234567"}, "To": {"+19990000000"}, "Body": {"hello"},
	})
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestSMS_GenerationErrorApologizes(t *testing.T) {
	env := newTestEnv(t)
	env.genLLM.CompleteFunc = func(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return nil, context.DeadlineExceeded
	}

	body := env.text(t, "+15551234567", "hello?")
	assert.Contains(t, body, "something went wrong")
}
