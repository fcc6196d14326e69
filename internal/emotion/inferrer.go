// Package emotion infers a learner's frustration, confidence, and
// engagement from recent conversation history. Inference is a pure
// function over message content: same input, same output.
package emotion

import (
	"time"

	"github.com/asharanees/language-peer/internal/domain"
	"github.com/asharanees/language-peer/internal/signals"
)

// recentWindow is how many trailing user messages inference considers.
const recentWindow = 5

// shortMessageLen marks messages short enough to read as disengaged when
// they appear among longer ones.
const shortMessageLen = 10

// confidentMessageLen marks messages long enough to read as confident
// production regardless of phrasing.
const confidentMessageLen = 50

var frustrationPhrases = []string{
	"too hard",
	"don't understand",
	"dont understand",
	"confused",
	"confusing",
	"give up",
	"this is hard",
	"i can't",
	"i cant",
	"no idea",
	"frustrat",
	"difficult",
}

var confidencePhrases = []string{
	"i think",
	"i believe",
	"i know",
	"definitely",
	"of course",
	"easy",
	"i got it",
	"makes sense",
	"i understand",
}

// Infer computes an EmotionalState from the trailing user messages of a
// session. Only the most recent messages (up to five) are considered; each
// cue counter is normalized by the number of messages examined and clamped
// to [0,1].
func Infer(userMessages []domain.Message, now time.Time) domain.EmotionalState {
	if len(userMessages) > recentWindow {
		userMessages = userMessages[len(userMessages)-recentWindow:]
	}

	var frustration, confidence, engagement float64
	for _, msg := range userMessages {
		if signals.ContainsAny(msg.Content, frustrationPhrases) {
			frustration++
		}
		// Very short replies among longer ones signal disengagement or
		// giving up, not economy of language.
		if len(msg.Content) < shortMessageLen && len(userMessages) > 1 {
			frustration += 0.5
		}

		if signals.ContainsAny(msg.Content, confidencePhrases) || len(msg.Content) > confidentMessageLen {
			confidence++
		}

		if signals.HasInterrogative(msg.Content) {
			engagement++
		}
	}

	divisor := float64(len(userMessages))
	if divisor < 1 {
		divisor = 1
	}

	return domain.EmotionalState{
		Frustration: signals.Clamp01(frustration / divisor),
		Confidence:  signals.Clamp01(confidence / divisor),
		Engagement:  signals.Clamp01(engagement / divisor),
		UpdatedAt:   now,
	}
}
