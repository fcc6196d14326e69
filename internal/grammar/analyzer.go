package grammar

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/asharanees/language-peer/internal/domain"
	"github.com/asharanees/language-peer/internal/signals"
)

// modelConfidence is the assumed reliability of reasoning-model findings.
// The final confidence is the midpoint between the rule engine's own
// confidence and this value whenever a model response was available.
const modelConfidence = 0.9

// ModelAnalysis is the structured contribution of the reasoning model:
// additional findings plus auxiliary sub-scores.
type ModelAnalysis struct {
	Errors     []domain.FeedbackInstance
	Fluency    float64
	Vocabulary float64
}

// ModelAnalyzer is the slice of the reasoning collaborator the analyzer
// consumes. Implementations may fail or return unparsable output; the
// analyzer degrades to rule-only results in both cases.
type ModelAnalyzer interface {
	AnalyzeGrammar(ctx context.Context, text string, level domain.Proficiency, topic string) (*ModelAnalysis, error)
}

// Result is the aggregate outcome of analyzing one message.
type Result struct {
	Errors          []domain.FeedbackInstance `json:"errors"`
	GrammarScore    float64                   `json:"grammar_score"`
	FluencyScore    float64                   `json:"fluency_score"`
	VocabularyScore float64                   `json:"vocabulary_score"`
	Confidence      float64                   `json:"confidence"`
	ModelUsed       bool                      `json:"model_used"`
}

// Analyzer runs the grammar/vocabulary pipeline: rule engine, optional
// model call, combine-and-prioritize, scoring.
type Analyzer struct {
	model      ModelAnalyzer
	strictness domain.Strictness
	logger     *slog.Logger
}

// NewAnalyzer creates an analyzer. model may be nil, which pins the
// analyzer to rule-only operation.
func NewAnalyzer(model ModelAnalyzer, strictness domain.Strictness, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{model: model, strictness: strictness, logger: logger}
}

// Analyze scores one message of learner text. It never fails: when the
// model call errors or returns garbage, the rule-based result stands alone
// at the rule engine's raw confidence.
func (a *Analyzer) Analyze(ctx context.Context, text string, level domain.Proficiency, topic string) Result {
	errors := runRules(text)

	var analysis *ModelAnalysis
	if a.model != nil {
		var err error
		analysis, err = a.model.AnalyzeGrammar(ctx, text, level, topic)
		if err != nil {
			a.logger.Warn("model grammar analysis unavailable, using rules only", "error", err)
			analysis = nil
		}
	}
	if analysis != nil {
		errors = append(errors, analysis.Errors...)
	}

	errors = CombineAndPrioritize(errors, a.strictness)

	result := Result{
		Errors:       errors,
		GrammarScore: Score(errors, signals.WordCount(text), a.strictness),
		ModelUsed:    analysis != nil,
	}

	if analysis != nil {
		result.FluencyScore = round2(signals.Clamp01(analysis.Fluency))
		result.VocabularyScore = round2(signals.Clamp01(analysis.Vocabulary))
		result.Confidence = (ruleConfidence + modelConfidence) / 2
	} else {
		result.FluencyScore = fallbackFluency(text)
		result.VocabularyScore = round2(signals.TypeTokenRatio(text))
		result.Confidence = ruleConfidence
	}

	return result
}

// CombineAndPrioritize merges rule and model findings into the final
// feedback set: duplicates sharing identical spans are dropped (first
// occurrence wins), lenient mode discards low-severity findings, strict
// mode promotes them to medium, the rest are ordered by severity then by
// position, and the list is capped per strictness. The function is
// idempotent and does not mutate its input.
func CombineAndPrioritize(errors []domain.FeedbackInstance, strictness domain.Strictness) []domain.FeedbackInstance {
	seen := make(map[domain.Span]struct{}, len(errors))
	out := make([]domain.FeedbackInstance, 0, len(errors))
	for _, e := range errors {
		if _, dup := seen[e.Span]; dup {
			continue
		}
		seen[e.Span] = struct{}{}

		switch strictness {
		case domain.StrictnessLenient:
			if e.Severity == domain.SeverityLow {
				continue
			}
		case domain.StrictnessStrict:
			if e.Severity == domain.SeverityLow {
				e.Severity = domain.SeverityMedium
			}
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if wi, wj := out[i].Severity.Weight(), out[j].Severity.Weight(); wi != wj {
			return wi > wj
		}
		return out[i].Span.Start < out[j].Span.Start
	})

	if max := strictness.MaxErrors(); len(out) > max {
		out = out[:max]
	}
	return out
}

// Score computes the overall grammar score from the final feedback set:
// max(0, 1 - errorRate*0.2) where errorRate is the severity-weighted error
// count over the word count, nudged by the strictness mode and rounded to
// two decimals.
func Score(errors []domain.FeedbackInstance, wordCount int, strictness domain.Strictness) float64 {
	if wordCount < 1 {
		wordCount = 1
	}
	weighted := 0
	for _, e := range errors {
		weighted += e.Severity.Weight()
	}
	rate := float64(weighted) / float64(wordCount)

	score := 1 - rate*0.2
	if score < 0 {
		score = 0
	}
	switch strictness {
	case domain.StrictnessLenient:
		score += 0.1
	case domain.StrictnessStrict:
		score -= 0.1
	}
	return round2(signals.Clamp01(score))
}

// fallbackFluency estimates fluency without a model from sentence length:
// longer, fuller sentences read as more fluent, topping out at twelve
// words per sentence.
func fallbackFluency(text string) float64 {
	words := signals.WordCount(text)
	sentences := signals.SentenceCount(text)
	if sentences < 1 {
		return 0
	}
	perSentence := float64(words) / float64(sentences)
	return round2(signals.Clamp01(perSentence / 12))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
