// Package recommend derives longer-horizon suggestions (next topic, next
// difficulty, next agent) from a learner's session history. It follows the
// same combine-and-fallback pattern as the grammar analyzer: the reasoning
// model may enrich a suggestion, but a rule-based default always exists.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/asharanees/language-peer/internal/agents"
	"github.com/asharanees/language-peer/internal/domain"
	"github.com/asharanees/language-peer/internal/store"
)

// historyWindow is how many recent sessions feed the engine.
const historyWindow = 10

// Difficulty adjustment targets.
const (
	DifficultyIncrease = "increase"
	DifficultyMaintain = "maintain"
	DifficultyDecrease = "decrease"
)

// Score bands that drive the difficulty recommendation.
const (
	advanceBand = 0.85
	reviewBand  = 0.5
)

// topicPool maps learning goals to conversation topics the engine can
// suggest without a model.
var topicPool = map[string][]string{
	"pronunciation-improvement": {"tongue twisters", "reading aloud", "ordering at a restaurant"},
	"grammar-mastery":           {"telling a story in the past", "making future plans", "giving advice"},
	"conversational-fluency":    {"weekend plans", "current events", "hobbies and interests"},
	"conversation-practice":     {"weekend plans", "current events", "hobbies and interests"},
	"vocabulary-building":       {"describing your city", "food and cooking", "work and career"},
}

var defaultTopics = []string{"daily routines", "travel stories", "favorite foods"}

// Engine computes recommendations for a learner.
type Engine struct {
	repo      store.Repository
	catalog   *agents.Catalog
	completer agents.Completer
	logger    *slog.Logger
}

// NewEngine creates a recommendation engine. completer may be nil; the
// engine then runs fully rule-based.
func NewEngine(repo store.Repository, catalog *agents.Catalog, completer agents.Completer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{repo: repo, catalog: catalog, completer: completer, logger: logger}
}

// ForUser builds the advisory recommendation set for a learner from their
// profile and recent session history.
func (e *Engine) ForUser(ctx context.Context, userID string) ([]domain.Recommendation, error) {
	profile, err := e.repo.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	history, err := e.repo.ListUserSessions(ctx, userID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("load session history: %w", err)
	}

	recs := []domain.Recommendation{
		e.nextAgent(profile),
		e.nextDifficulty(history),
		e.nextTopic(ctx, profile, history),
	}
	return recs, nil
}

// OnSessionEnd recomputes recommendations asynchronously at a session
// boundary. Failures are logged, never surfaced: recommendations are
// advisory output, not session state.
func (e *Engine) OnSessionEnd(userID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		recs, err := e.ForUser(ctx, userID)
		if err != nil {
			e.logger.Warn("Recommendation refresh failed", "user_id", userID, "error", err)
			return
		}
		e.logger.Info("Recommendations refreshed", "user_id", userID, "count", len(recs))
	}()
}

func (e *Engine) nextAgent(profile *domain.UserProfile) domain.Recommendation {
	return agents.RecommendAgent(e.catalog, profile, nil)
}

// nextDifficulty bands the average grammar score of completed sessions:
// consistently high scores earn harder material, consistently low ones a
// step back.
func (e *Engine) nextDifficulty(history []*domain.Session) domain.Recommendation {
	var sum float64
	var count int
	for _, s := range history {
		if s.Status == domain.SessionCompleted && s.Metrics.TurnCount > 0 {
			sum += s.Metrics.GrammarAvg
			count++
		}
	}
	if count == 0 {
		return domain.Recommendation{
			Kind:       domain.RecommendDifficulty,
			Target:     DifficultyMaintain,
			Confidence: 0.5,
			Reason:     "not enough completed sessions to judge",
		}
	}

	avg := sum / float64(count)
	switch {
	case avg >= advanceBand:
		return domain.Recommendation{
			Kind:       domain.RecommendDifficulty,
			Target:     DifficultyIncrease,
			Confidence: 0.8,
			Reason:     fmt.Sprintf("average grammar score %.2f across %d sessions", avg, count),
		}
	case avg < reviewBand:
		return domain.Recommendation{
			Kind:       domain.RecommendDifficulty,
			Target:     DifficultyDecrease,
			Confidence: 0.8,
			Reason:     fmt.Sprintf("average grammar score %.2f across %d sessions", avg, count),
		}
	default:
		return domain.Recommendation{
			Kind:       domain.RecommendDifficulty,
			Target:     DifficultyMaintain,
			Confidence: 0.7,
			Reason:     fmt.Sprintf("average grammar score %.2f across %d sessions", avg, count),
		}
	}
}

// nextTopic prefers a model suggestion grounded in the learner's goals and
// recently covered topics; when the model is absent or fails, it picks the
// first pool topic the learner has not covered recently.
func (e *Engine) nextTopic(ctx context.Context, profile *domain.UserProfile, history []*domain.Session) domain.Recommendation {
	covered := make(map[string]struct{})
	for _, s := range history {
		if s.Topic != "" {
			covered[strings.ToLower(s.Topic)] = struct{}{}
		}
	}

	if e.completer != nil {
		if topic, err := e.modelTopic(ctx, profile, covered); err == nil && topic != "" {
			return domain.Recommendation{
				Kind:       domain.RecommendTopic,
				Target:     topic,
				Confidence: 0.75,
				Reason:     "suggested from learning goals and recent sessions",
			}
		} else if err != nil {
			e.logger.Warn("Model topic suggestion unavailable, using pool", "error", err)
		}
	}

	return e.poolTopic(profile, covered)
}

func (e *Engine) modelTopic(ctx context.Context, profile *domain.UserProfile, covered map[string]struct{}) (string, error) {
	var sb strings.Builder
	sb.WriteString("Learner goals: ")
	if profile != nil && len(profile.LearningGoals) > 0 {
		sb.WriteString(strings.Join(profile.LearningGoals, ", "))
	} else {
		sb.WriteString("general practice")
	}
	if len(covered) > 0 {
		sb.WriteString(". Recently covered topics: ")
		first := true
		for t := range covered {
			if !first {
				sb.WriteString(", ")
			}
			sb.WriteString(t)
			first = false
		}
	}

	topic, err := e.completer.Complete(ctx,
		"Suggest one fresh conversation topic for a language learner. Reply with the topic only, under six words, no punctuation.",
		sb.String(), "")
	if err != nil {
		return "", err
	}
	topic = strings.TrimSpace(strings.Trim(topic, `."'`))
	if topic == "" || len(topic) > 60 {
		return "", fmt.Errorf("%w: unusable topic suggestion", domain.ErrUnparsableResponse)
	}
	return topic, nil
}

func (e *Engine) poolTopic(profile *domain.UserProfile, covered map[string]struct{}) domain.Recommendation {
	pick := func(topics []string) (string, bool) {
		for _, t := range topics {
			if _, done := covered[strings.ToLower(t)]; !done {
				return t, true
			}
		}
		return "", false
	}

	if profile != nil {
		for _, goal := range profile.LearningGoals {
			if topics, ok := topicPool[goal]; ok {
				if t, ok := pick(topics); ok {
					return domain.Recommendation{
						Kind:       domain.RecommendTopic,
						Target:     t,
						Confidence: 0.6,
						Reason:     "supports learning goal: " + goal,
					}
				}
			}
		}
	}

	t, ok := pick(defaultTopics)
	if !ok {
		t = defaultTopics[0]
	}
	return domain.Recommendation{
		Kind:       domain.RecommendTopic,
		Target:     t,
		Confidence: 0.5,
		Reason:     "general practice topic",
	}
}
