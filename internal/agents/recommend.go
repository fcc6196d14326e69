package agents

import (
	"sort"

	"github.com/asharanees/language-peer/internal/domain"
	"github.com/asharanees/language-peer/internal/signals"
)

// Candidate generation confidences. The values mirror the original tuning
// and are deliberately plain constants; see Thresholds for the runtime-
// tunable cutoffs.
const (
	preferenceConfidence   = 0.9
	goalConfidence         = 0.8
	levelConfidence        = 0.7
	lowTranscriptionWeight = 0.8
	grammarContextWeight   = 0.7
	defaultConfidence      = 0.5
)

// contextWindow is how many trailing user messages feed contextual
// candidate generation.
const contextWindow = 5

// goalAgents maps learning goals to the personality that serves them.
var goalAgents = map[string]string{
	"pronunciation-improvement": AgentPronunciationCoach,
	"grammar-mastery":           AgentGrammarGuide,
	"conversational-fluency":    AgentConversationPartner,
	"conversation-practice":     AgentConversationPartner,
	"vocabulary-building":       AgentVocabularyBuilder,
}

// levelAgents maps proficiency bands to a sensible starting personality.
var levelAgents = map[domain.Proficiency]string{
	domain.ProficiencyBeginner:     AgentFriendlyTutor,
	domain.ProficiencyIntermediate: AgentGrammarGuide,
	domain.ProficiencyAdvanced:     AgentConversationPartner,
}

// grammarKeywords flag a learner who is explicitly asking about structure.
var grammarKeywords = []string{
	"grammar", "tense", "conjugat", "plural", "article", "preposition",
	"past tense", "present perfect", "word order",
}

// RecommendAgent scores candidate personalities for a new session and
// returns the strongest one. Candidates are generated in a fixed order
// (preference, goals, level, context) and sorted by confidence with a
// stable sort, so earlier-generated candidates win ties.
func RecommendAgent(catalog *Catalog, profile *domain.UserProfile, recent []domain.Message) domain.Recommendation {
	type candidate struct {
		agent      string
		confidence float64
		reason     string
	}
	var candidates []candidate

	if profile != nil {
		for _, preferred := range profile.PreferredAgents {
			if catalog.Exists(preferred) {
				candidates = append(candidates, candidate{preferred, preferenceConfidence, "user preference"})
				break
			}
		}
		for _, goal := range profile.LearningGoals {
			if agent, ok := goalAgents[goal]; ok {
				candidates = append(candidates, candidate{agent, goalConfidence, "learning goal: " + goal})
			}
		}
		if agent, ok := levelAgents[profile.Proficiency]; ok {
			candidates = append(candidates, candidate{agent, levelConfidence, "proficiency level: " + string(profile.Proficiency)})
		}
	}

	if agent, confidence, reason, ok := contextualCandidate(recent); ok {
		candidates = append(candidates, candidate{agent, confidence, reason})
	}

	if len(candidates) == 0 {
		return domain.Recommendation{
			Kind:       domain.RecommendAgent,
			Target:     AgentFriendlyTutor,
			Confidence: defaultConfidence,
			Reason:     "default",
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].confidence > candidates[j].confidence
	})

	top := candidates[0]
	return domain.Recommendation{
		Kind:       domain.RecommendAgent,
		Target:     top.agent,
		Confidence: top.confidence,
		Reason:     top.reason,
	}
}

// contextualCandidate derives at most one candidate from live conversation
// content: muddy transcriptions point at the pronunciation coach, explicit
// grammar talk at the grammar guide.
func contextualCandidate(recent []domain.Message) (agent string, confidence float64, reason string, ok bool) {
	user := userSubset(recent)
	if len(user) > contextWindow {
		user = user[len(user)-contextWindow:]
	}

	var confSum float64
	var confCount int
	for _, msg := range user {
		if msg.TranscriptConfidence != nil {
			confSum += *msg.TranscriptConfidence
			confCount++
		}
	}
	if confCount >= 2 && confSum/float64(confCount) < DefaultThresholds().LowConfidenceCutoff {
		return AgentPronunciationCoach, lowTranscriptionWeight, "low transcription confidence", true
	}

	for _, msg := range user {
		if signals.ContainsAny(msg.Content, grammarKeywords) {
			return AgentGrammarGuide, grammarContextWeight, "grammar questions in conversation", true
		}
	}

	return "", 0, "", false
}

func userSubset(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if m.Sender == domain.SenderUser {
			out = append(out, m)
		}
	}
	return out
}
