package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Synthesizer turns reply text into spoken audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Transcriber turns recorded caller audio into text. The language hint is a
// full language name ("Mandarin") or empty for auto-detection.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

// OpenAISpeech implements Synthesizer and Transcriber against the OpenAI
// audio endpoints.
type OpenAISpeech struct {
	apiKey   string
	baseURL  string
	ttsModel string
	voice    string
	sttModel string
	client   *http.Client
}

// NewOpenAISpeech creates a speech client. baseURL defaults to the public
// API when empty.
func NewOpenAISpeech(apiKey, baseURL, ttsModel, voice, sttModel string) *OpenAISpeech {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAISpeech{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		ttsModel: ttsModel,
		voice:    voice,
		sttModel: sttModel,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Synthesize renders text to MP3 audio.
func (s *OpenAISpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{
		"model": s.ttsModel,
		"voice": s.voice,
		"input": text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Transcribe sends recorded audio through the transcription endpoint.
func (s *OpenAISpeech) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", "recording.mp3")
	if err != nil {
		return "", fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("failed to build form: %w", err)
	}
	if err := mw.WriteField("model", s.sttModel); err != nil {
		return "", fmt.Errorf("failed to build form: %w", err)
	}
	if language != "" {
		if code := isoCode(language); code != "" {
			if err := mw.WriteField("language", code); err != nil {
				return "", fmt.Errorf("failed to build form: %w", err)
			}
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}

// isoCode maps the language names the detector produces to the two-letter
// codes the transcription endpoint accepts. Unknown names return empty and
// let the model auto-detect.
func isoCode(language string) string {
	codes := map[string]string{
		"english":    "en",
		"mandarin":   "zh",
		"chinese":    "zh",
		"cantonese":  "zh",
		"japanese":   "ja",
		"korean":     "ko",
		"arabic":     "ar",
		"hindi":      "hi",
		"russian":    "ru",
		"greek":      "el",
		"hebrew":     "he",
		"thai":       "th",
		"vietnamese": "vi",
		"spanish":    "es",
		"french":     "fr",
		"german":     "de",
		"italian":    "it",
		"portuguese": "pt",
		"ukrainian":  "uk",
		"bengali":    "bn",
		"tamil":      "ta",
		"telugu":     "te",
		"urdu":       "ur",
		"persian":    "fa",
		"farsi":      "fa",
		"punjabi":    "pa",
		"gujarati":   "gu",
		"marathi":    "mr",
		"kannada":    "kn",
		"malayalam":  "ml",
		"burmese":    "my",
		"khmer":      "km",
		"lao":        "lo",
		"georgian":   "ka",
		"armenian":   "hy",
		"amharic":    "am",
	}
	return codes[strings.ToLower(strings.TrimSpace(language))]
}
