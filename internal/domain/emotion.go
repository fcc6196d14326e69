package domain

import "time"

// EmotionalState holds the three normalized engagement heuristics derived
// from recent user messages. Each score is always within [0,1]. The state
// is recomputed every user turn and never persisted across sessions.
type EmotionalState struct {
	Frustration float64   `json:"frustration"`
	Confidence  float64   `json:"confidence"`
	Engagement  float64   `json:"engagement"`
	UpdatedAt   time.Time `json:"updated_at"`
}
