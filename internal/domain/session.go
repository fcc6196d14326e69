// Package domain contains core domain types for the Language Peer engine.
package domain

import (
	"time"
)

// SessionStatus is the lifecycle state of a tutoring session.
type SessionStatus string

const (
	// SessionActive means the session accepts turns.
	SessionActive SessionStatus = "active"
	// SessionCompleted means the session was ended explicitly and is immutable.
	SessionCompleted SessionStatus = "completed"
	// SessionAbandoned means the session timed out with no activity.
	SessionAbandoned SessionStatus = "abandoned"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// Message is a single conversation entry. Messages are append-only and
// never mutated after creation.
type Message struct {
	ID      string `json:"id"`
	Sender  Sender `json:"sender"`
	Content string `json:"content"`
	// TranscriptConfidence is set when the message arrived through speech
	// recognition; nil for typed input.
	TranscriptConfidence *float64           `json:"transcript_confidence,omitempty"`
	Feedback             []FeedbackInstance `json:"feedback,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
}

// HandoffRecord documents a mid-session agent replacement.
type HandoffRecord struct {
	FromAgent string    `json:"from_agent"`
	ToAgent   string    `json:"to_agent"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

// PerformanceMetrics aggregates per-turn language scores for a session.
type PerformanceMetrics struct {
	GrammarAvg       float64 `json:"grammar_avg"`
	FluencyAvg       float64 `json:"fluency_avg"`
	VocabularyAvg    float64 `json:"vocabulary_avg"`
	TurnCount        int     `json:"turn_count"`
	ErrorCount       int     `json:"error_count"`
	ImprovementCount int     `json:"improvement_count"`
}

// RecordTurn folds one turn's scores into the running averages.
// A turn counts as an improvement when its grammar score beats the
// running average before the turn was applied.
func (m *PerformanceMetrics) RecordTurn(grammar, fluency, vocabulary float64, errors int) {
	if m.TurnCount > 0 && grammar > m.GrammarAvg {
		m.ImprovementCount++
	}
	n := float64(m.TurnCount)
	m.GrammarAvg = (m.GrammarAvg*n + grammar) / (n + 1)
	m.FluencyAvg = (m.FluencyAvg*n + fluency) / (n + 1)
	m.VocabularyAvg = (m.VocabularyAvg*n + vocabulary) / (n + 1)
	m.TurnCount++
	m.ErrorCount += errors
}

// Session is the aggregate root for one tutoring conversation. It is owned
// by a single session worker for its lifetime and becomes immutable once it
// reaches a terminal status.
type Session struct {
	ID             string             `json:"id"`
	UserID         string             `json:"user_id"`
	AgentID        string             `json:"agent_id"`
	Topic          string             `json:"topic,omitempty"`
	Status         SessionStatus      `json:"status"`
	Messages       []Message          `json:"messages"`
	Handoffs       []HandoffRecord    `json:"handoffs,omitempty"`
	Metrics        PerformanceMetrics `json:"metrics"`
	Emotional      EmotionalState     `json:"emotional_state"`
	StartedAt      time.Time          `json:"started_at"`
	EndedAt        *time.Time         `json:"ended_at,omitempty"`
	LastActivityAt time.Time          `json:"last_activity_at"`
}

// IsActive reports whether the session still accepts turns.
func (s *Session) IsActive() bool {
	return s.Status == SessionActive
}

// AppendMessage adds a message to the session history and bumps the
// activity timestamp.
func (s *Session) AppendMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.LastActivityAt = msg.CreatedAt
}

// RecentMessages returns the last n messages from history.
func (s *Session) RecentMessages(n int) []Message {
	if n >= len(s.Messages) {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// RecentUserMessages returns up to n of the most recent user-authored
// messages, oldest first.
func (s *Session) RecentUserMessages(n int) []Message {
	var out []Message
	for i := len(s.Messages) - 1; i >= 0 && len(out) < n; i-- {
		if s.Messages[i].Sender == SenderUser {
			out = append(out, s.Messages[i])
		}
	}
	// Restore chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// ApplyHandoff replaces the active agent and records the switch in session
// history. Callers must hold the session worker's lock so the swap and the
// record land together.
func (s *Session) ApplyHandoff(toAgent, reason string, at time.Time) {
	s.Handoffs = append(s.Handoffs, HandoffRecord{
		FromAgent: s.AgentID,
		ToAgent:   toAgent,
		Reason:    reason,
		At:        at,
	})
	s.AgentID = toAgent
}

// IdleFor reports whether the session has seen no activity for at least d.
func (s *Session) IdleFor(d time.Duration, now time.Time) bool {
	return now.Sub(s.LastActivityAt) >= d
}
