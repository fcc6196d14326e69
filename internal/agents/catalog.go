// Package agents holds the personality catalog and the decision logic for
// selecting and handing off between conversational agent personalities.
package agents

import (
	"fmt"

	"github.com/asharanees/language-peer/internal/domain"
)

// Well-known personality IDs. The decision logic targets these directly.
const (
	AgentFriendlyTutor       = "friendly-tutor"
	AgentPronunciationCoach  = "pronunciation-coach"
	AgentGrammarGuide        = "grammar-guide"
	AgentConversationPartner = "conversation-partner"
	AgentVocabularyBuilder   = "vocabulary-builder"
)

// Catalog is the read-mostly registry of agent personalities. It is
// populated once at startup and never modified afterwards, so lookups need
// no locking.
type Catalog struct {
	byID  map[string]domain.AgentPersonality
	order []string
}

// NewCatalog builds a catalog from the given entries.
func NewCatalog(entries []domain.AgentPersonality) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]domain.AgentPersonality, len(entries))}
	for _, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("personality with empty id")
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate personality id %q", e.ID)
		}
		c.byID[e.ID] = e
		c.order = append(c.order, e.ID)
	}
	return c, nil
}

// DefaultCatalog returns the built-in personality set.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultPersonalities)
	if err != nil {
		// The built-in table is fixed; a failure here is a programming error.
		panic(err)
	}
	return c
}

// Get looks up a personality by ID.
func (c *Catalog) Get(id string) (domain.AgentPersonality, error) {
	p, ok := c.byID[id]
	if !ok {
		return domain.AgentPersonality{}, fmt.Errorf("%w: %q", domain.ErrAgentNotFound, id)
	}
	return p, nil
}

// Exists reports whether the catalog contains the given ID.
func (c *Catalog) Exists(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// List returns all personalities in registration order.
func (c *Catalog) List() []domain.AgentPersonality {
	out := make([]domain.AgentPersonality, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

var defaultPersonalities = []domain.AgentPersonality{
	{
		ID:    AgentFriendlyTutor,
		Name:  "Maya",
		Style: "supportive-generalist",
		Support: domain.SupportConfig{
			ErrorHandling:      domain.ErrorHandlingGentle,
			EncouragementEvery: 3,
			Difficulty:         domain.DifficultyAdaptive,
		},
		VoiceProfile:  "warm-female-1",
		SystemPrompt:  "You are Maya, a warm and patient language tutor. Keep the conversation light, celebrate small wins, and correct mistakes softly by rephrasing.",
		Greeting:      "Hi! I'm Maya. Let's practice together — what would you like to talk about today?",
		FallbackReply: "That's interesting! Tell me a little more about that.",
	},
	{
		ID:    AgentPronunciationCoach,
		Name:  "Diego",
		Style: "pronunciation-specialist",
		Support: domain.SupportConfig{
			ErrorHandling:      domain.ErrorHandlingDirect,
			EncouragementEvery: 4,
			Difficulty:         domain.DifficultyFixed,
		},
		VoiceProfile:  "clear-male-1",
		SystemPrompt:  "You are Diego, a pronunciation coach. Focus on sounds the learner struggles with, suggest minimal pairs, and ask them to repeat tricky words.",
		Greeting:      "Hello, I'm Diego. Let's work on making your speech clear and confident. Say something for me!",
		FallbackReply: "Let's try that once more, nice and slowly.",
	},
	{
		ID:    AgentGrammarGuide,
		Name:  "Ingrid",
		Style: "grammar-specialist",
		Support: domain.SupportConfig{
			ErrorHandling:      domain.ErrorHandlingDirect,
			EncouragementEvery: 5,
			Difficulty:         domain.DifficultyAdaptive,
		},
		VoiceProfile:  "neutral-female-2",
		SystemPrompt:  "You are Ingrid, a precise but friendly grammar guide. Explain the rule behind each correction in one short sentence and give one example.",
		Greeting:      "Hi, I'm Ingrid. We'll sharpen your grammar as we chat. What's on your mind?",
		FallbackReply: "Good effort — let's look at how to phrase that.",
	},
	{
		ID:    AgentConversationPartner,
		Name:  "Sam",
		Style: "conversational-practice",
		Support: domain.SupportConfig{
			ErrorHandling:      domain.ErrorHandlingDeferred,
			EncouragementEvery: 0,
			Difficulty:         domain.DifficultyAdaptive,
		},
		VoiceProfile:  "casual-male-2",
		SystemPrompt:  "You are Sam, a relaxed conversation partner. Keep the dialogue flowing naturally, ask open questions, and save corrections for later unless asked.",
		Greeting:      "Hey, I'm Sam. No pressure here — let's just have a real conversation.",
		FallbackReply: "Ha, right. So what happened next?",
	},
	{
		ID:    AgentVocabularyBuilder,
		Name:  "Amara",
		Style: "vocabulary-specialist",
		Support: domain.SupportConfig{
			ErrorHandling:      domain.ErrorHandlingGentle,
			EncouragementEvery: 3,
			Difficulty:         domain.DifficultyAdaptive,
		},
		VoiceProfile:  "bright-female-3",
		SystemPrompt:  "You are Amara, a vocabulary builder. Introduce one or two useful new words each turn, define them briefly, and invite the learner to use them.",
		Greeting:      "Hello! I'm Amara. Ready to pick up some new words today?",
		FallbackReply: "Here's a useful word for that — let's work it into a sentence.",
	},
}
