package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/asharanees/language-peer/internal/speech"
)

// SpeechHandler handles speech-synthesis endpoints.
type SpeechHandler struct {
	synth speech.Synthesizer
}

// NewSpeechHandler creates a speech handler.
func NewSpeechHandler(synth speech.Synthesizer) *SpeechHandler {
	return &SpeechHandler{synth: synth}
}

// RegisterRoutes registers speech routes.
func (h *SpeechHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/synthesize", h.Synthesize)
}

type synthesizeRequest struct {
	Text         string `json:"text"`
	VoiceProfile string `json:"voice_profile"`
	Language     string `json:"language,omitempty"`
}

// Synthesize converts agent text to audio and streams it back.
func (h *SpeechHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if err := decodeJSON(r, &req); err != nil {
		DomainError(w, err)
		return
	}

	audio, contentType, err := h.synth.Synthesize(r.Context(), speech.SynthesisRequest{
		Text:         req.Text,
		VoiceProfile: req.VoiceProfile,
		Language:     req.Language,
	})
	if err != nil {
		DomainError(w, err)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		return
	}
}
