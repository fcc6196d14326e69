package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/asharanees/language-peer/internal/domain"
)

// Completer is the slice of the reasoning collaborator the response
// strategy consumes.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userText, contextSummary string) (string, error)
}

// ResponseContext carries everything a personality needs to produce one
// conversational reply.
type ResponseContext struct {
	Personality domain.AgentPersonality
	Profile     *domain.UserProfile
	Topic       string
	UserText    string
	Recent      []domain.Message
	Emotional   domain.EmotionalState
	Feedback    []domain.FeedbackInstance
	TurnCount   int
}

// Responder generates agent replies. A single implementation serves the
// whole catalog: personality differences live in SupportConfig data, not
// in per-personality code.
type Responder interface {
	GenerateResponse(ctx context.Context, rc ResponseContext) (string, error)
	Greet(ctx context.Context, personality domain.AgentPersonality, profile *domain.UserProfile, topic string) (string, error)
}

// ModelResponder drives replies through the reasoning model, shaping the
// system prompt from personality configuration.
type ModelResponder struct {
	completer Completer
}

// NewModelResponder creates a responder backed by the given completer.
func NewModelResponder(completer Completer) *ModelResponder {
	return &ModelResponder{completer: completer}
}

// GenerateResponse asks the model for the personality's next reply.
func (r *ModelResponder) GenerateResponse(ctx context.Context, rc ResponseContext) (string, error) {
	system := buildSystemPrompt(rc)
	summary := buildContextSummary(rc)
	reply, err := r.completer.Complete(ctx, system, rc.UserText, summary)
	if err != nil {
		return "", fmt.Errorf("generate response for %s: %w", rc.Personality.ID, err)
	}
	return reply, nil
}

// Greet produces the opening message of a session.
func (r *ModelResponder) Greet(ctx context.Context, personality domain.AgentPersonality, profile *domain.UserProfile, topic string) (string, error) {
	var sb strings.Builder
	sb.WriteString(personality.SystemPrompt)
	sb.WriteString("\nGreet the learner in one or two short sentences and invite them to start talking.")
	if topic != "" {
		sb.WriteString(" Steer toward the topic: " + topic + ".")
	}

	user := "A new learner joined."
	if profile != nil {
		user = fmt.Sprintf("A new %s learner joined.", profile.Proficiency)
		if profile.Name != "" {
			user += " Their name is " + profile.Name + "."
		}
	}

	greeting, err := r.completer.Complete(ctx, sb.String(), user, "")
	if err != nil {
		return "", fmt.Errorf("greet with %s: %w", personality.ID, err)
	}
	return greeting, nil
}

// buildSystemPrompt folds the personality's supportive-strategy
// configuration into prompt directives.
func buildSystemPrompt(rc ResponseContext) string {
	p := rc.Personality
	var sb strings.Builder
	sb.WriteString(p.SystemPrompt)
	sb.WriteString("\n")

	switch p.Support.ErrorHandling {
	case domain.ErrorHandlingGentle:
		sb.WriteString("Correct mistakes indirectly by naturally rephrasing what the learner said.\n")
	case domain.ErrorHandlingDirect:
		sb.WriteString("Point out the most important mistake explicitly, then continue the conversation.\n")
	case domain.ErrorHandlingDeferred:
		sb.WriteString("Do not correct mistakes now; keep the conversation flowing.\n")
	}

	if every := p.Support.EncouragementEvery; every > 0 && rc.TurnCount > 0 && rc.TurnCount%every == 0 {
		sb.WriteString("Include a short, genuine encouragement in this reply.\n")
	}

	if p.Support.Difficulty == domain.DifficultyAdaptive && rc.Profile != nil {
		fmt.Fprintf(&sb, "Match your language to a %s learner.\n", rc.Profile.Proficiency)
	}

	if rc.Emotional.Frustration > 0.5 {
		sb.WriteString("The learner seems frustrated; slow down and simplify.\n")
	}

	return sb.String()
}

// buildContextSummary condenses recent conversation and detected errors so
// the model sees the session without the full transcript.
func buildContextSummary(rc ResponseContext) string {
	var sb strings.Builder
	if rc.Topic != "" {
		sb.WriteString("Topic: " + rc.Topic + ". ")
	}
	n := len(rc.Recent)
	if n > 6 {
		rc.Recent = rc.Recent[n-6:]
	}
	for _, msg := range rc.Recent {
		fmt.Fprintf(&sb, "[%s] %s ", msg.Sender, msg.Content)
	}
	if len(rc.Feedback) > 0 {
		sb.WriteString("Detected issues this turn: ")
		for i, f := range rc.Feedback {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(f.Message)
		}
		sb.WriteString(".")
	}
	return strings.TrimSpace(sb.String())
}
