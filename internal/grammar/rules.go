// Package grammar analyzes learner text for language errors. A fixed rule
// engine always runs; a reasoning-model collaborator contributes additional
// findings when available, and its absence degrades the result rather than
// failing it.
package grammar

import (
	"regexp"
	"strings"

	"github.com/asharanees/language-peer/internal/domain"
)

// ruleConfidence is the rule engine's self-assessed confidence. Pattern
// matches are precise but cover a narrow slice of real errors.
const ruleConfidence = 0.75

// rule is one ordered pattern matcher. Rules run in declaration order and
// every match becomes a feedback instance.
type rule struct {
	name       string
	pattern    *regexp.Regexp
	ftype      domain.FeedbackType
	severity   domain.Severity
	message    string
	suggestion string
}

// ruleSet is the fixed, ordered rule catalog. Order matters: when two rules
// match the same span, the earlier rule's finding survives deduplication.
var ruleSet = []rule{
	{
		name:       "aux-verb-base-form",
		pattern:    regexp.MustCompile(`(?i)\b(am|is|are|was|were)\s+(go|went|come|came|see|saw|do|did|eat|ate|run|ran|take|took)\b`),
		ftype:      domain.FeedbackGrammar,
		severity:   domain.SeverityHigh,
		message:    "a form of \"to be\" followed by a bare verb is not a valid tense",
		suggestion: "use either the simple past (\"I went\") or the progressive (\"I am going\")",
	},
	{
		name:       "first-person-agreement",
		pattern:    regexp.MustCompile(`(?i)\bI\s+(is|are|were)\b`),
		ftype:      domain.FeedbackGrammar,
		severity:   domain.SeverityHigh,
		message:    "\"I\" takes \"am\" or \"was\"",
		suggestion: "say \"I am\" or \"I was\"",
	},
	{
		name:       "third-person-s",
		pattern:    regexp.MustCompile(`(?i)\b(he|she|it)\s+(go|do|want|need|like|have|say|make)\b`),
		ftype:      domain.FeedbackGrammar,
		severity:   domain.SeverityHigh,
		message:    "third-person singular verbs need an -s ending",
		suggestion: "add -s or -es to the verb (\"she goes\")",
	},
	{
		name:       "double-negative",
		pattern:    regexp.MustCompile(`(?i)\b(don't|doesn't|didn't|can't|won't|not)\s+\w+\s+(no|nothing|nobody|nowhere)\b`),
		ftype:      domain.FeedbackGrammar,
		severity:   domain.SeverityMedium,
		message:    "double negatives cancel each other in English",
		suggestion: "keep a single negation (\"I don't have anything\")",
	},
	{
		name:       "double-comparative",
		pattern:    regexp.MustCompile(`(?i)\bmore\s+(better|worse|easier|harder|bigger|smaller|faster|slower)\b`),
		ftype:      domain.FeedbackGrammar,
		severity:   domain.SeverityMedium,
		message:    "comparatives are not combined with \"more\"",
		suggestion: "drop \"more\" (\"better\", \"easier\")",
	},
	{
		name:       "article-an",
		pattern:    regexp.MustCompile(`(?i)\ba\s+(?:[aeiou])\w*\b`),
		ftype:      domain.FeedbackGrammar,
		severity:   domain.SeverityLow,
		message:    "\"a\" before a vowel sound should be \"an\"",
		suggestion: "use \"an\" (\"an apple\")",
	},
	{
		name:       "repeated-word",
		pattern:    regexp.MustCompile(`(?i)\b(\w+)\s+(\w+)\b`),
		ftype:      domain.FeedbackVocabulary,
		severity:   domain.SeverityLow,
		message:    "word repeated back to back",
		suggestion: "remove the duplicate word",
	},
}

// runRules applies the ordered rule set to text and returns one feedback
// instance per match.
func runRules(text string) []domain.FeedbackInstance {
	var out []domain.FeedbackInstance
	for _, r := range ruleSet {
		for _, loc := range r.pattern.FindAllStringSubmatchIndex(text, -1) {
			if r.name == "repeated-word" && !sameWord(text, loc) {
				continue
			}
			out = append(out, domain.FeedbackInstance{
				Type:       r.ftype,
				Span:       domain.Span{Start: loc[0], End: loc[1]},
				Severity:   r.severity,
				Message:    r.message,
				Suggestion: r.suggestion,
				Confidence: ruleConfidence,
				Source:     domain.SourceRules,
			})
		}
	}
	return out
}

// sameWord checks that the two submatches of the repeated-word rule are the
// same token. Go's regexp has no backreferences, so equality is checked here.
func sameWord(text string, loc []int) bool {
	if len(loc) < 6 || loc[2] < 0 || loc[4] < 0 {
		return false
	}
	return strings.EqualFold(text[loc[2]:loc[3]], text[loc[4]:loc[5]])
}
