package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/asharanees/language-peer/internal/domain"
	"github.com/asharanees/language-peer/internal/store"
)

// Recommender produces the advisory recommendation set for a learner.
type Recommender interface {
	ForUser(ctx context.Context, userID string) ([]domain.Recommendation, error)
}

// UserHandler handles learner profile and recommendation endpoints.
type UserHandler struct {
	repo        store.Repository
	recommender Recommender
}

// NewUserHandler creates a user handler.
func NewUserHandler(repo store.Repository, recommender Recommender) *UserHandler {
	return &UserHandler{repo: repo, recommender: recommender}
}

// RegisterRoutes registers user routes.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/users/{userID}", func(r chi.Router) {
		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.PutProfile)
		r.Get("/recommendations", h.Recommendations)
	})
}

// GetProfile returns the learner's profile.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	profile, err := h.repo.GetUserProfile(r.Context(), userID)
	if err != nil {
		DomainError(w, err)
		return
	}
	if profile == nil {
		Error(w, http.StatusNotFound, "profile not found")
		return
	}
	JSON(w, http.StatusOK, profile)
}

type putProfileRequest struct {
	Name            string   `json:"name,omitempty"`
	NativeLanguage  string   `json:"native_language,omitempty"`
	TargetLanguage  string   `json:"target_language"`
	Proficiency     string   `json:"proficiency"`
	LearningGoals   []string `json:"learning_goals,omitempty"`
	PreferredAgents []string `json:"preferred_agents,omitempty"`
}

// PutProfile creates or replaces the learner's profile.
func (h *UserHandler) PutProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req putProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		DomainError(w, err)
		return
	}
	if req.TargetLanguage == "" {
		DomainError(w, domain.NewValidationError("targetLanguage", "must not be empty"))
		return
	}
	level := domain.Proficiency(req.Proficiency)
	if !level.Valid() {
		DomainError(w, domain.NewValidationError("proficiency", "must be beginner, intermediate, or advanced"))
		return
	}

	now := time.Now()
	profile := &domain.UserProfile{
		UserID:          userID,
		Name:            req.Name,
		NativeLanguage:  req.NativeLanguage,
		TargetLanguage:  req.TargetLanguage,
		Proficiency:     level,
		LearningGoals:   req.LearningGoals,
		PreferredAgents: req.PreferredAgents,
		UpdatedAt:       now,
	}
	if existing, err := h.repo.GetUserProfile(r.Context(), userID); err == nil && existing != nil {
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.CreatedAt = now
	}

	if err := h.repo.UpsertUserProfile(r.Context(), profile); err != nil {
		DomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, profile)
}

// Recommendations returns the learner's current recommendation set.
func (h *UserHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.recommender.ForUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		DomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"recommendations": recs})
}
