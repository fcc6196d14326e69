package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/asharanees/language-peer/internal/agents"
	"github.com/asharanees/language-peer/internal/domain"
	"github.com/asharanees/language-peer/internal/session"
)

// SessionService is the orchestrator surface the handlers depend on.
type SessionService interface {
	StartSession(ctx context.Context, userID, agentID, topic string) (*session.StartResult, error)
	ProcessTurn(ctx context.Context, req session.TurnRequest) (*session.TurnResult, error)
	EndSession(ctx context.Context, sessionID string) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
}

// SessionHandler handles session lifecycle endpoints.
type SessionHandler struct {
	svc     SessionService
	catalog *agents.Catalog
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(svc SessionService, catalog *agents.Catalog) *SessionHandler {
	return &SessionHandler{svc: svc, catalog: catalog}
}

// RegisterRoutes registers session routes.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/agents", h.ListAgents)
		r.Post("/sessions", h.Create)
		r.Get("/sessions/{sessionID}", h.Get)
		r.Post("/sessions/{sessionID}/messages", h.Message)
		r.Delete("/sessions/{sessionID}", h.End)
	})
}

type createSessionRequest struct {
	UserID  string `json:"user_id"`
	AgentID string `json:"agent_id,omitempty"`
	Topic   string `json:"topic,omitempty"`
}

// Create starts a new tutoring session.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		DomainError(w, err)
		return
	}

	res, err := h.svc.StartSession(r.Context(), req.UserID, req.AgentID, req.Topic)
	if err != nil {
		DomainError(w, err)
		return
	}
	JSON(w, http.StatusCreated, res)
}

type turnRequest struct {
	Text                 string   `json:"text"`
	TranscriptConfidence *float64 `json:"transcript_confidence,omitempty"`
}

// Message submits one user turn to a session.
func (h *SessionHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := decodeJSON(r, &req); err != nil {
		DomainError(w, err)
		return
	}

	res, err := h.svc.ProcessTurn(r.Context(), session.TurnRequest{
		SessionID:            chi.URLParam(r, "sessionID"),
		Text:                 req.Text,
		TranscriptConfidence: req.TranscriptConfidence,
	})
	if err != nil {
		DomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

// Get returns a session snapshot with its full history.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		DomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, sess)
}

// End completes a session.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.EndSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		DomainError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": string(domain.SessionCompleted)})
}

// ListAgents returns the personality catalog.
func (h *SessionHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{"agents": h.catalog.List()})
}
