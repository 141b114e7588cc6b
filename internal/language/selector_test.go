package language

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voxlane/frontdesk/internal/llm"
	"github.com/voxlane/frontdesk/internal/logging"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

func TestDetectShortInputDefaults(t *testing.T) {
	s := NewSelector(&llm.MockClient{}, "m", silentLog())
	assert.Equal(t, DefaultLanguage, s.Detect(context.Background(), ""))
	assert.Equal(t, DefaultLanguage, s.Detect(context.Background(), "  a "))
}

func TestDetectUsesModelAnswer(t *testing.T) {
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: `"spanish."`}, nil
		},
	}
	s := NewSelector(mock, "m", silentLog())
	assert.Equal(t, "Spanish", s.Detect(context.Background(), "hola, quiero una cita"))
}

func TestDetectFailureDegradesToDefault(t *testing.T) {
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, errors.New("model down")
		},
	}
	s := NewSelector(mock, "m", silentLog())
	assert.Equal(t, DefaultLanguage, s.Detect(context.Background(), "bonjour tout le monde"))
}

func TestDetectImplausibleAnswerDefaults(t *testing.T) {
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: "Thelanguageofthistextisdefinitelyoneofthefollowing"}, nil
		},
	}
	s := NewSelector(mock, "m", silentLog())
	assert.Equal(t, DefaultLanguage, s.Detect(context.Background(), "hello there friend"))
}

func TestEvaluateLatinScript(t *testing.T) {
	d := Evaluate("Spanish", true, 0.1)
	assert.False(t, d.Recapture)
	assert.Equal(t, CaptureGather, d.NextCapture)
	assert.Equal(t, "es-ES", d.LocaleHint)
}

func TestEvaluateNonLatinFirstUtterance(t *testing.T) {
	d := Evaluate("Japanese", true, 0.9)
	assert.True(t, d.Recapture)
	assert.Equal(t, CaptureRecord, d.NextCapture)
}

func TestEvaluateNonLatinLowConfidence(t *testing.T) {
	d := Evaluate("Punjabi", false, 0.4)
	assert.True(t, d.Recapture)
}

func TestEvaluateNonLatinTrustedTranscript(t *testing.T) {
	// Subsequent utterance with decent confidence proceeds, but the next
	// capture still uses record mode.
	d := Evaluate("Arabic", false, 0.8)
	assert.False(t, d.Recapture)
	assert.Equal(t, CaptureRecord, d.NextCapture)
}

func TestEvaluateBoundaryConfidence(t *testing.T) {
	assert.False(t, Evaluate("Chinese", false, 0.5).Recapture)
	assert.True(t, Evaluate("Chinese", false, 0.499).Recapture)
}

func TestLocaleHintFallback(t *testing.T) {
	assert.Equal(t, "en-US", LocaleHint("Klingon"))
	assert.Equal(t, "ja-JP", LocaleHint("Japanese"))
	assert.Equal(t, "hi-IN", LocaleHint("hindi"))
}

func TestNonLatinScript(t *testing.T) {
	assert.True(t, NonLatinScript("Korean"))
	assert.False(t, NonLatinScript("French"))
	assert.False(t, NonLatinScript(""))
}
