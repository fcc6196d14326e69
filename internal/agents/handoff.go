package agents

import (
	"github.com/asharanees/language-peer/internal/domain"
	"github.com/asharanees/language-peer/internal/signals"
)

// Thresholds are the cutoffs the handoff detectors compare against. The
// defaults carry over from the original tuning; they are configuration, not
// derived values, and are exposed so deployments can adjust them.
type Thresholds struct {
	Frustration         float64
	Pronunciation       float64
	GrammarFocus        float64
	Readiness           float64
	LowConfidenceCutoff float64
	VeryLowConfidence   float64
}

// DefaultThresholds returns the standard cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Frustration:         0.7,
		Pronunciation:       0.6,
		GrammarFocus:        0.7,
		Readiness:           0.7,
		LowConfidenceCutoff: 0.6,
		VeryLowConfidence:   0.4,
	}
}

// handoffWindow is how many trailing messages handoff evaluation sees.
const handoffWindow = 10

// RecommendHandoff evaluates the four handoff detectors against the
// trailing conversation and returns the first that fires, or nil when the
// current agent should keep the session. Detector order is fixed:
// frustration, pronunciation, grammar focus, conversation readiness.
func RecommendHandoff(
	state domain.EmotionalState,
	currentAgent string,
	profile *domain.UserProfile,
	recent []domain.Message,
	t Thresholds,
) *domain.Recommendation {
	if len(recent) > handoffWindow {
		recent = recent[len(recent)-handoffWindow:]
	}
	user := userSubset(recent)

	if state.Frustration > t.Frustration && currentAgent != AgentFriendlyTutor {
		return &domain.Recommendation{
			Kind:       domain.RecommendAgent,
			Target:     AgentFriendlyTutor,
			Confidence: state.Frustration,
			Reason:     "high frustration",
		}
	}

	if score := pronunciationScore(user, t); score > t.Pronunciation && currentAgent != AgentPronunciationCoach {
		return &domain.Recommendation{
			Kind:       domain.RecommendAgent,
			Target:     AgentPronunciationCoach,
			Confidence: score,
			Reason:     "recurring pronunciation issues",
		}
	}

	if score := grammarFocusScore(user); score > t.GrammarFocus && currentAgent != AgentGrammarGuide {
		return &domain.Recommendation{
			Kind:       domain.RecommendAgent,
			Target:     AgentGrammarGuide,
			Confidence: score,
			Reason:     "grammar-focused questions",
		}
	}

	if score := readinessScore(user, profile); score > t.Readiness && currentAgent != AgentConversationPartner {
		return &domain.Recommendation{
			Kind:       domain.RecommendAgent,
			Target:     AgentConversationPartner,
			Confidence: score,
			Reason:     "ready for free conversation",
		}
	}

	return nil
}

// pronunciationScore measures how often recent speech came through with low
// transcription confidence. Very muddy transcriptions (below the
// very-low cutoff) weigh half again as much as merely low ones.
func pronunciationScore(user []domain.Message, t Thresholds) float64 {
	if len(user) == 0 {
		return 0
	}
	var weighted float64
	for _, msg := range user {
		if msg.TranscriptConfidence == nil {
			continue
		}
		switch c := *msg.TranscriptConfidence; {
		case c < t.VeryLowConfidence:
			weighted += 1.5
		case c < t.LowConfidenceCutoff:
			weighted += 1.0
		}
	}
	return signals.Clamp01(weighted / float64(len(user)))
}

// grammarFocusScore is keyword-weighted: each message contributes its
// grammar-keyword hit count, scaled so that a learner consistently asking
// about structure crosses the threshold.
func grammarFocusScore(user []domain.Message) float64 {
	if len(user) == 0 {
		return 0
	}
	total := 0
	for _, msg := range user {
		total += signals.CountMatches(msg.Content, grammarKeywords)
	}
	return signals.Clamp01(float64(total) * 0.5 / float64(len(user)))
}

// readinessScore blends proficiency, message length, and curiosity into a
// single conversational-readiness figure.
func readinessScore(user []domain.Message, profile *domain.UserProfile) float64 {
	if len(user) == 0 {
		return 0
	}

	levelWeight := 0.2
	if profile != nil {
		switch profile.Proficiency {
		case domain.ProficiencyIntermediate:
			levelWeight = 0.5
		case domain.ProficiencyAdvanced:
			levelWeight = 0.8
		}
	}

	var totalLen float64
	questions := 0
	for _, msg := range user {
		totalLen += float64(len(msg.Content))
		if signals.HasInterrogative(msg.Content) {
			questions++
		}
	}
	avgLen := totalLen / float64(len(user))
	questionRatio := float64(questions) / float64(len(user))

	score := levelWeight*0.4 + signals.Clamp01(avgLen/80)*0.3 + questionRatio*0.3
	return signals.Clamp01(score)
}
