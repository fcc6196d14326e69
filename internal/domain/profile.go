package domain

import "time"

// Proficiency is a coarse language-level band used for agent selection and
// difficulty recommendations.
type Proficiency string

const (
	ProficiencyBeginner     Proficiency = "beginner"
	ProficiencyIntermediate Proficiency = "intermediate"
	ProficiencyAdvanced     Proficiency = "advanced"
)

// Valid reports whether p is one of the known bands.
func (p Proficiency) Valid() bool {
	switch p {
	case ProficiencyBeginner, ProficiencyIntermediate, ProficiencyAdvanced:
		return true
	}
	return false
}

// UserProfile describes a learner. Profiles live behind the persistence
// boundary; the engine reads them when selecting agents and building
// recommendations.
type UserProfile struct {
	UserID          string      `json:"user_id"`
	Name            string      `json:"name,omitempty"`
	NativeLanguage  string      `json:"native_language,omitempty"`
	TargetLanguage  string      `json:"target_language"`
	Proficiency     Proficiency `json:"proficiency"`
	LearningGoals   []string    `json:"learning_goals,omitempty"`
	PreferredAgents []string    `json:"preferred_agents,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// HasGoal reports whether the profile lists the given learning goal.
func (p *UserProfile) HasGoal(goal string) bool {
	for _, g := range p.LearningGoals {
		if g == goal {
			return true
		}
	}
	return false
}
