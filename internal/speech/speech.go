// Package speech declares the boundary contracts for the speech
// collaborators. Recognition happens upstream of this service: turns
// arrive already transcribed, carrying the recognizer's confidence.
// Synthesis is the one outbound speech dependency, kept behind a narrow
// interface so the engine never couples to a vendor API.
package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/asharanees/language-peer/internal/domain"
)

// Transcript is recognized speech as it enters the engine.
type Transcript struct {
	Text string `json:"text"`
	// Confidence is the recognizer's estimate in [0,1]. Nil means the
	// text was typed, not spoken.
	Confidence *float64 `json:"confidence,omitempty"`
	Language   string   `json:"language,omitempty"`
}

// SynthesisRequest asks for audio for one agent reply.
type SynthesisRequest struct {
	Text         string `json:"text"`
	VoiceProfile string `json:"voice_profile"`
	Language     string `json:"language,omitempty"`
}

// Synthesizer converts agent text into audio. Implementations must honor
// ctx cancellation.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (audio []byte, contentType string, err error)
}

// HTTPSynthesizer calls a speech-synthesis service over HTTP. The service
// accepts a form-encoded POST and returns raw audio.
type HTTPSynthesizer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSynthesizer creates a synthesizer against baseURL.
func NewHTTPSynthesizer(baseURL string, timeout time.Duration) *HTTPSynthesizer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSynthesizer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSynthesizer) Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, string, error) {
	if req.Text == "" {
		return nil, "", domain.NewValidationError("text", "must not be empty")
	}

	form := url.Values{}
	form.Set("text", req.Text)
	form.Set("voice", req.VoiceProfile)
	if req.Language != "" {
		form.Set("language", req.Language)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/synthesize", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, "", fmt.Errorf("build synthesis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("synthesis call: %w: %w", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("synthesis call: %w: status %d", domain.ErrExternalService, resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read synthesis response: %w: %w", domain.ErrExternalService, err)
	}
	return audio, resp.Header.Get("Content-Type"), nil
}
