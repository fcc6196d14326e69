package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/asharanees/language-peer/internal/domain"
)

func TestHTTPSynthesizer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/synthesize" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.FormValue("text"); got != "hello learner" {
			t.Errorf("text = %q", got)
		}
		if got := r.FormValue("voice"); got != "warm-female" {
			t.Errorf("voice = %q", got)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	syn := NewHTTPSynthesizer(srv.URL, 5*time.Second)
	audio, contentType, err := syn.Synthesize(context.Background(), SynthesisRequest{
		Text:         "hello learner",
		VoiceProfile: "warm-female",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Errorf("audio = %q", audio)
	}
	if contentType != "audio/mpeg" {
		t.Errorf("content type = %q", contentType)
	}
}

func TestHTTPSynthesizerRejectsEmptyText(t *testing.T) {
	syn := NewHTTPSynthesizer("http://localhost:0", time.Second)
	if _, _, err := syn.Synthesize(context.Background(), SynthesisRequest{}); !domain.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestHTTPSynthesizerMapsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "voice model unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	syn := NewHTTPSynthesizer(srv.URL, time.Second)
	_, _, err := syn.Synthesize(context.Background(), SynthesisRequest{Text: "hi", VoiceProfile: "v"})
	if !errors.Is(err, domain.ErrExternalService) {
		t.Fatalf("err = %v, want ErrExternalService", err)
	}
}
