package emotion

import (
	"testing"
	"time"

	"github.com/asharanees/language-peer/internal/domain"
)

func userMsg(content string) domain.Message {
	return domain.Message{Sender: domain.SenderUser, Content: content}
}

func TestInferEmptyHistory(t *testing.T) {
	state := Infer(nil, time.Now())

	if state.Frustration != 0 || state.Confidence != 0 || state.Engagement != 0 {
		t.Errorf("expected zero state for empty history, got %+v", state)
	}
}

func TestInferFrustrationCues(t *testing.T) {
	msgs := []domain.Message{
		userMsg("this is too hard for me"),
		userMsg("I don't understand this at all"),
		userMsg("I'm so confused right now"),
	}

	state := Infer(msgs, time.Now())

	if state.Frustration < 0.9 {
		t.Errorf("expected high frustration, got %v", state.Frustration)
	}
}

func TestInferShortMessagePenalty(t *testing.T) {
	msgs := []domain.Message{
		userMsg("I really enjoyed reading about the museum yesterday"),
		userMsg("ok"),
		userMsg("yes"),
	}

	state := Infer(msgs, time.Now())

	if state.Frustration == 0 {
		t.Error("expected short-message penalty to raise frustration")
	}
}

func TestInferNoShortPenaltyForSingleMessage(t *testing.T) {
	state := Infer([]domain.Message{userMsg("hi")}, time.Now())

	if state.Frustration != 0 {
		t.Errorf("single short message should not be penalized, got frustration %v", state.Frustration)
	}
}

func TestInferConfidenceCues(t *testing.T) {
	msgs := []domain.Message{
		userMsg("I think the answer is the past tense"),
		userMsg("that makes sense, I got it"),
	}

	state := Infer(msgs, time.Now())

	if state.Confidence != 1 {
		t.Errorf("expected confidence 1, got %v", state.Confidence)
	}
}

func TestInferEngagementFromQuestions(t *testing.T) {
	msgs := []domain.Message{
		userMsg("What is the difference between ser and estar?"),
		userMsg("how do I conjugate this verb"),
		userMsg("thanks"),
	}

	state := Infer(msgs, time.Now())

	want := 2.0 / 3.0
	if diff := state.Engagement - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected engagement %v, got %v", want, state.Engagement)
	}
}

// All three scores must stay within [0,1] no matter how many cues pile up
// in a single message.
func TestInferScoresAlwaysBounded(t *testing.T) {
	cueStorm := "too hard confused give up difficult I can't no idea don't understand"
	var msgs []domain.Message
	for i := 0; i < 8; i++ {
		msgs = append(msgs, userMsg(cueStorm))
	}

	state := Infer(msgs, time.Now())

	for name, v := range map[string]float64{
		"frustration": state.Frustration,
		"confidence":  state.Confidence,
		"engagement":  state.Engagement,
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s = %v, want within [0,1]", name, v)
		}
	}
}

func TestInferDeterministic(t *testing.T) {
	msgs := []domain.Message{
		userMsg("What does this word mean?"),
		userMsg("I think I understand now"),
	}
	now := time.Unix(1700000000, 0)

	a := Infer(msgs, now)
	b := Infer(msgs, now)

	if a != b {
		t.Errorf("inference is not deterministic: %+v vs %+v", a, b)
	}
}

func TestInferUsesOnlyRecentWindow(t *testing.T) {
	// Five calm messages after three frustrated ones: the old cues must
	// fall outside the window.
	msgs := []domain.Message{
		userMsg("this is too hard"),
		userMsg("I give up"),
		userMsg("so confused"),
		userMsg("actually this lesson went quite well for me today"),
		userMsg("I think I finally understand the grammar rule here"),
		userMsg("the examples made it much clearer than before now"),
		userMsg("I would like to try some harder exercises next"),
		userMsg("could we also practice speaking at some point please"),
	}

	state := Infer(msgs, time.Now())

	if state.Frustration != 0 {
		t.Errorf("messages outside the window leaked in, frustration = %v", state.Frustration)
	}
}
