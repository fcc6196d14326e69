package domain

// ErrorHandlingMode controls how a personality surfaces corrections.
type ErrorHandlingMode string

const (
	// ErrorHandlingGentle folds corrections into the reply conversationally.
	ErrorHandlingGentle ErrorHandlingMode = "gentle"
	// ErrorHandlingDirect states corrections explicitly.
	ErrorHandlingDirect ErrorHandlingMode = "direct"
	// ErrorHandlingDeferred batches corrections for session summaries.
	ErrorHandlingDeferred ErrorHandlingMode = "deferred"
)

// DifficultyMode controls how a personality adjusts its language level.
type DifficultyMode string

const (
	DifficultyFixed    DifficultyMode = "fixed"
	DifficultyAdaptive DifficultyMode = "adaptive"
)

// SupportConfig is the data-driven behavior of an agent personality.
// Personality differences are expressed here rather than in code so that
// one response strategy serves the whole catalog.
type SupportConfig struct {
	ErrorHandling ErrorHandlingMode `json:"error_handling"`
	// EncouragementEvery inserts an encouragement roughly every N user
	// turns; 0 disables scheduled encouragement.
	EncouragementEvery int            `json:"encouragement_every"`
	Difficulty         DifficultyMode `json:"difficulty"`
}

// AgentPersonality is an immutable catalog entry describing one
// conversational strategy. The catalog is loaded once at process start and
// looked up by ID; entries are never modified afterwards.
type AgentPersonality struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Style         string        `json:"style"`
	Support       SupportConfig `json:"support"`
	VoiceProfile  string        `json:"voice_profile"`
	SystemPrompt  string        `json:"system_prompt"`
	Greeting      string        `json:"greeting"`
	FallbackReply string        `json:"fallback_reply"`
}
