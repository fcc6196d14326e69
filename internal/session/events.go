package session

import (
	"time"

	"github.com/asharanees/language-peer/internal/domain"
)

// Event types published to session event streams.
const (
	EventGreeting  = "greeting"
	EventFeedback  = "feedback"
	EventHandoff   = "handoff"
	EventCompleted = "completed"
	EventAbandoned = "abandoned"
)

// Event is one entry on a session's live event stream.
type Event struct {
	Type      string                    `json:"type"`
	SessionID string                    `json:"session_id"`
	Message   string                    `json:"message,omitempty"`
	Feedback  []domain.FeedbackInstance `json:"feedback,omitempty"`
	Handoff   *domain.HandoffRecord     `json:"handoff,omitempty"`
	At        time.Time                 `json:"at"`
}

// EventSink receives session events for delivery to live subscribers.
// Publish must not block the turn pipeline.
type EventSink interface {
	Publish(event Event)
}

// publish sends an event to the sink when one is configured.
func (o *Orchestrator) publish(event Event) {
	if o.events != nil {
		o.events.Publish(event)
	}
}
