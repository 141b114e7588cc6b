// Package language decides, per caller turn, what language is being spoken
// and how the next utterance should be captured. Live speech recognition is
// historically unreliable for non-Latin-script languages, so those fall back
// to record-then-transcribe.
package language

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voxlane/frontdesk/internal/llm"
	"github.com/voxlane/frontdesk/internal/logging"
)

// DefaultLanguage is assumed on empty, ambiguous, or failed detection.
const DefaultLanguage = "English"

// CaptureMode selects how the next caller utterance is captured.
type CaptureMode string

const (
	// CaptureGather uses the provider's live speech recognition.
	CaptureGather CaptureMode = "gather"
	// CaptureRecord records audio and transcribes it afterwards.
	CaptureRecord CaptureMode = "record"
)

// lowConfidence is the recognizer confidence below which a non-Latin-script
// transcript is not trusted.
const lowConfidence = 0.5

// nonLatinScript lists languages whose live transcription quality is poor
// enough to warrant the record-and-transcribe fallback.
var nonLatinScript = map[string]bool{
	"Japanese": true, "Punjabi": true, "Chinese": true, "Hindi": true,
	"Arabic": true, "Russian": true, "Korean": true, "Thai": true,
	"Vietnamese": true, "Bengali": true, "Tamil": true, "Telugu": true,
	"Gujarati": true, "Kannada": true, "Malayalam": true, "Marathi": true,
	"Urdu": true, "Hebrew": true, "Greek": true, "Georgian": true,
	"Armenian": true, "Khmer": true, "Lao": true, "Myanmar": true,
	"Tibetan": true, "Mongolian": true, "Nepali": true, "Sinhala": true,
}

// localeHints maps language names to provider locale codes for live speech
// recognition. Unknown languages fall back to en-US.
var localeHints = map[string]string{
	"English": "en-US", "Spanish": "es-ES", "French": "fr-FR",
	"German": "de-DE", "Italian": "it-IT", "Portuguese": "pt-PT",
	"Chinese": "zh-CN", "Japanese": "ja-JP", "Korean": "ko-KR",
	"Hindi": "hi-IN", "Punjabi": "pa-IN", "Arabic": "ar-SA",
	"Russian": "ru-RU", "Dutch": "nl-NL", "Polish": "pl-PL",
	"Turkish": "tr-TR", "Swedish": "sv-SE", "Norwegian": "nb-NO",
	"Danish": "da-DK", "Finnish": "fi-FI", "Greek": "el-GR",
	"Czech": "cs-CZ", "Romanian": "ro-RO", "Hungarian": "hu-HU",
	"Thai": "th-TH", "Vietnamese": "vi-VN", "Indonesian": "id-ID",
	"Malay": "ms-MY",
}

// NonLatinScript reports whether the language needs the record fallback.
func NonLatinScript(lang string) bool {
	return nonLatinScript[lang]
}

// LocaleHint maps a language name to the recognizer locale code.
func LocaleHint(lang string) string {
	if code, ok := localeHints[lang]; ok {
		return code
	}
	for name, code := range localeHints {
		if strings.EqualFold(name, lang) {
			return code
		}
	}
	return "en-US"
}

// Decision is the outcome of evaluating one caller turn.
type Decision struct {
	Language    string      // detected language for this turn
	Recapture   bool        // transcript untrusted: re-prompt via record, defer the reply
	NextCapture CaptureMode // how to capture the following utterance
	LocaleHint  string      // recognizer locale for CaptureGather
}

// Selector detects the spoken language and applies the capture policy.
type Selector struct {
	client llm.Client
	model  string
	log    *logging.Logger
}

// NewSelector creates a language strategy selector.
func NewSelector(client llm.Client, model string, log *logging.Logger) *Selector {
	return &Selector{client: client, model: model, log: log.Sub("language")}
}

// Detect classifies the language of the text with a cheap low-token model
// call. It never fails: empty or very short input, detection errors, and
// implausible answers all degrade to DefaultLanguage.
func (s *Selector) Detect(ctx context.Context, text string) string {
	if len(strings.TrimSpace(text)) < 3 {
		return DefaultLanguage
	}

	sample := text
	if len(sample) > 200 {
		sample = sample[:200]
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	zero := 0.0
	resp, err := s.client.Complete(ctx, llm.CompletionRequest{
		Model: s.model,
		Messages: []llm.Message{{
			Role: llm.RoleUser,
			Content: fmt.Sprintf(
				"Detect the language of this text and respond with ONLY the language name in English (e.g., 'Spanish', 'Punjabi', 'English').\n\nText: %s\n\nRespond with just the language name, nothing else.",
				sample),
		}},
		MaxTokens:   15,
		Temperature: &zero,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("language detection failed, defaulting")
		return DefaultLanguage
	}

	lang := cleanLanguageName(resp.Content)
	if lang == "" || len(lang) >= 30 {
		return DefaultLanguage
	}
	return lang
}

// Evaluate applies the capture policy for one turn.
//
// A non-Latin-script transcript is distrusted when it is the caller's first
// utterance or the recognizer's confidence is below 0.5; the caller is then
// asked to repeat via record-and-transcribe before any reply is generated.
// Otherwise the transcript stands, and the next capture uses record mode for
// non-Latin scripts and live recognition for everything else.
func Evaluate(lang string, firstUtterance bool, confidence float64) Decision {
	d := Decision{
		Language:    lang,
		NextCapture: CaptureGather,
		LocaleHint:  LocaleHint(lang),
	}
	if !NonLatinScript(lang) {
		return d
	}
	d.NextCapture = CaptureRecord
	if firstUtterance || confidence < lowConfidence {
		d.Recapture = true
	}
	return d
}

// cleanLanguageName normalizes a model answer like `"spanish."` to "Spanish".
func cleanLanguageName(raw string) string {
	lang := strings.NewReplacer(`"`, "", "'", "", ".", "").Replace(raw)
	fields := strings.Fields(lang)
	if len(fields) == 0 {
		return ""
	}
	lang = fields[0]
	return strings.ToUpper(lang[:1]) + strings.ToLower(lang[1:])
}
