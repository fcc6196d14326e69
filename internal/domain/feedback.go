package domain

// FeedbackType categorizes a feedback instance.
type FeedbackType string

const (
	FeedbackGrammar       FeedbackType = "grammar"
	FeedbackVocabulary    FeedbackType = "vocabulary"
	FeedbackEncouragement FeedbackType = "encouragement"
	FeedbackMilestone     FeedbackType = "milestone"
)

// Severity is the ordinal importance of a language error, used for
// sorting and capping feedback.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Weight returns the numeric weight used for severity-weighted error rates
// and for ordering (high > medium > low).
func (s Severity) Weight() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// FeedbackSource identifies which stage of the analysis pipeline produced
// a feedback instance.
type FeedbackSource string

const (
	SourceRules FeedbackSource = "rules"
	SourceModel FeedbackSource = "model"
)

// Span marks the byte offsets of the analyzed text a feedback instance
// refers to. End is exclusive.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FeedbackInstance is one piece of language feedback attached to the
// message that triggered it. Instances are never mutated after creation.
type FeedbackInstance struct {
	Type       FeedbackType   `json:"type"`
	Span       Span           `json:"span"`
	Severity   Severity       `json:"severity"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion,omitempty"`
	Confidence float64        `json:"confidence"`
	Source     FeedbackSource `json:"source"`
}

// Strictness controls error-severity sensitivity and result caps in the
// grammar analyzer.
type Strictness string

const (
	StrictnessLenient  Strictness = "lenient"
	StrictnessModerate Strictness = "moderate"
	StrictnessStrict   Strictness = "strict"
)

// MaxErrors returns the feedback cap for the strictness level.
func (s Strictness) MaxErrors() int {
	switch s {
	case StrictnessStrict:
		return 10
	case StrictnessLenient:
		return 5
	default:
		return 7
	}
}
