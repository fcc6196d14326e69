package domain

// RecommendationKind is what a recommendation targets.
type RecommendationKind string

const (
	RecommendAgent      RecommendationKind = "agent"
	RecommendTopic      RecommendationKind = "topic"
	RecommendDifficulty RecommendationKind = "difficulty"
)

// Recommendation is advisory output from the personalization engine. It is
// recomputed on demand and never stored as authoritative state.
type Recommendation struct {
	Kind       RecommendationKind `json:"kind"`
	Target     string             `json:"target"`
	Confidence float64            `json:"confidence"`
	Reason     string             `json:"reason"`
}
