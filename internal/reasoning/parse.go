package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/asharanees/language-peer/internal/domain"
	"github.com/asharanees/language-peer/internal/grammar"
)

// grammarAnalysisPrompt instructs the model to emit the structured payload
// parseGrammarPayload expects.
const grammarAnalysisPrompt = `You are a language-teaching assistant. Analyze the learner message for grammar and vocabulary errors the given rule patterns would miss.

Respond with JSON only, no prose, matching exactly:
{
  "errors": [
    {"type": "grammar|vocabulary", "start": 0, "end": 0, "severity": "low|medium|high", "message": "", "suggestion": ""}
  ],
  "fluency_score": 0.0,
  "vocabulary_score": 0.0
}
Offsets are byte positions into the learner message. Scores are within [0,1].`

// modelError is the wire shape of one model-reported finding.
type modelError struct {
	Type       string  `json:"type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Severity   string  `json:"severity"`
	Message    string  `json:"message"`
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// modelPayload is the wire shape of the full structured response.
type modelPayload struct {
	Errors          []modelError `json:"errors"`
	FluencyScore    float64      `json:"fluency_score"`
	VocabularyScore float64      `json:"vocabulary_score"`
}

// defaultModelErrorConfidence is assumed when the model omits a per-error
// confidence.
const defaultModelErrorConfidence = 0.85

// parseGrammarPayload turns a raw model reply into a ModelAnalysis. Models
// routinely wrap JSON in markdown fences; those are tolerated. Anything
// that does not decode into the expected schema is an ErrUnparsableResponse.
func parseGrammarPayload(raw string, textLen int) (*grammar.ModelAnalysis, error) {
	cleaned := stripJSONFences(raw)

	var payload modelPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnparsableResponse, err)
	}

	analysis := &grammar.ModelAnalysis{
		Fluency:    clampScore(payload.FluencyScore),
		Vocabulary: clampScore(payload.VocabularyScore),
	}

	for _, e := range payload.Errors {
		severity, ok := parseSeverity(e.Severity)
		if !ok {
			return nil, fmt.Errorf("%w: unknown severity %q", domain.ErrUnparsableResponse, e.Severity)
		}
		if e.Start < 0 || e.End < e.Start {
			return nil, fmt.Errorf("%w: invalid span [%d,%d)", domain.ErrUnparsableResponse, e.Start, e.End)
		}
		if e.End > textLen {
			e.End = textLen
		}
		confidence := e.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = defaultModelErrorConfidence
		}
		analysis.Errors = append(analysis.Errors, domain.FeedbackInstance{
			Type:       parseFeedbackType(e.Type),
			Span:       domain.Span{Start: e.Start, End: e.End},
			Severity:   severity,
			Message:    e.Message,
			Suggestion: e.Suggestion,
			Confidence: confidence,
			Source:     domain.SourceModel,
		})
	}

	return analysis, nil
}

// stripJSONFences removes a surrounding markdown code fence, if present.
func stripJSONFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func parseSeverity(s string) (domain.Severity, bool) {
	switch strings.ToLower(s) {
	case "low":
		return domain.SeverityLow, true
	case "medium":
		return domain.SeverityMedium, true
	case "high":
		return domain.SeverityHigh, true
	default:
		return "", false
	}
}

func parseFeedbackType(s string) domain.FeedbackType {
	switch strings.ToLower(s) {
	case "vocabulary":
		return domain.FeedbackVocabulary
	default:
		return domain.FeedbackGrammar
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
