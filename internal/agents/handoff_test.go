package agents

import (
	"testing"

	"github.com/asharanees/language-peer/internal/domain"
)

func userText(content string) domain.Message {
	return domain.Message{Sender: domain.SenderUser, Content: content}
}

func spokenMsg(content string, confidence float64) domain.Message {
	return domain.Message{Sender: domain.SenderUser, Content: content, TranscriptConfidence: &confidence}
}

func TestRecommendHandoffFrustrationToGeneralist(t *testing.T) {
	state := domain.EmotionalState{Frustration: 0.9}
	recent := []domain.Message{
		userText("this is too hard"),
		userText("I don't understand"),
		userText("I'm so confused"),
	}

	rec := RecommendHandoff(state, AgentGrammarGuide, nil, recent, DefaultThresholds())

	if rec == nil {
		t.Fatal("expected a handoff recommendation")
	}
	if rec.Target != AgentFriendlyTutor {
		t.Errorf("expected handoff to %q, got %q", AgentFriendlyTutor, rec.Target)
	}
	if rec.Reason != "high frustration" {
		t.Errorf("unexpected reason %q", rec.Reason)
	}
}

func TestRecommendHandoffNoSwitchWhenAlreadyGeneralist(t *testing.T) {
	state := domain.EmotionalState{Frustration: 0.9}

	rec := RecommendHandoff(state, AgentFriendlyTutor, nil, []domain.Message{userText("too hard")}, DefaultThresholds())

	if rec != nil {
		t.Errorf("generalist already active, expected nil, got %+v", rec)
	}
}

func TestRecommendHandoffPronunciation(t *testing.T) {
	state := domain.EmotionalState{}
	recent := []domain.Message{
		spokenMsg("I wend to the", 0.3),
		spokenMsg("the par was nice", 0.35),
		spokenMsg("we walk around", 0.5),
	}

	rec := RecommendHandoff(state, AgentFriendlyTutor, nil, recent, DefaultThresholds())

	if rec == nil {
		t.Fatal("expected pronunciation handoff")
	}
	if rec.Target != AgentPronunciationCoach {
		t.Errorf("expected %q, got %q", AgentPronunciationCoach, rec.Target)
	}
}

// Detector priority is fixed: when both the frustration and pronunciation
// detectors would fire, frustration wins.
func TestRecommendHandoffFrustrationBeatsPronunciation(t *testing.T) {
	state := domain.EmotionalState{Frustration: 0.8}
	recent := []domain.Message{
		spokenMsg("this is too hard", 0.2),
		spokenMsg("I give up", 0.3),
	}

	rec := RecommendHandoff(state, AgentConversationPartner, nil, recent, DefaultThresholds())

	if rec == nil {
		t.Fatal("expected a handoff recommendation")
	}
	if rec.Target != AgentFriendlyTutor {
		t.Errorf("frustration detector must win, got handoff to %q", rec.Target)
	}
}

func TestRecommendHandoffGrammarFocus(t *testing.T) {
	state := domain.EmotionalState{}
	recent := []domain.Message{
		userText("why is this the past tense and not present perfect grammar"),
		userText("how do I conjugate this verb, which tense fits"),
	}

	rec := RecommendHandoff(state, AgentFriendlyTutor, nil, recent, DefaultThresholds())

	if rec == nil {
		t.Fatal("expected grammar-focus handoff")
	}
	if rec.Target != AgentGrammarGuide {
		t.Errorf("expected %q, got %q", AgentGrammarGuide, rec.Target)
	}
}

func TestRecommendHandoffReadiness(t *testing.T) {
	state := domain.EmotionalState{}
	profile := &domain.UserProfile{Proficiency: domain.ProficiencyAdvanced}
	long := "Yesterday I spent the whole afternoon walking around the old town and discovered a tiny bookshop, what do you recommend I read next?"
	recent := []domain.Message{
		userText(long),
		userText(long),
	}

	rec := RecommendHandoff(state, AgentFriendlyTutor, profile, recent, DefaultThresholds())

	if rec == nil {
		t.Fatal("expected readiness handoff")
	}
	if rec.Target != AgentConversationPartner {
		t.Errorf("expected %q, got %q", AgentConversationPartner, rec.Target)
	}
}

func TestRecommendHandoffNoTrigger(t *testing.T) {
	state := domain.EmotionalState{Frustration: 0.2, Confidence: 0.5, Engagement: 0.4}
	recent := []domain.Message{
		userText("I had a nice weekend"),
	}

	rec := RecommendHandoff(state, AgentGrammarGuide, nil, recent, DefaultThresholds())

	if rec != nil {
		t.Errorf("no detector should fire, got %+v", rec)
	}
}

func TestPronunciationScoreWeighsVeryLowHeavier(t *testing.T) {
	t1 := DefaultThresholds()
	veryLow := []domain.Message{spokenMsg("a", 0.2), userText("b"), userText("c")}
	merelyLow := []domain.Message{spokenMsg("a", 0.5), userText("b"), userText("c")}

	if vs, ms := pronunciationScore(veryLow, t1), pronunciationScore(merelyLow, t1); vs <= ms {
		t.Errorf("very low confidence (%v) must outweigh merely low (%v)", vs, ms)
	}
}

func TestGrammarFocusScoreEmpty(t *testing.T) {
	if got := grammarFocusScore(nil); got != 0 {
		t.Errorf("expected 0 for no messages, got %v", got)
	}
}
