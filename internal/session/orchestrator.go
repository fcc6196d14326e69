// Package session implements the session orchestrator: the state machine
// that owns tutoring sessions, sequences the per-turn pipeline, and applies
// fallback policy when external collaborators fail.
//
// Turns within one session are strictly sequential: each live session
// carries its own lock, held for the whole turn, so handoff decisions
// always see a consistent agent state. Sessions are independent of each
// other and process turns fully in parallel.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asharanees/language-peer/internal/agents"
	"github.com/asharanees/language-peer/internal/domain"
	"github.com/asharanees/language-peer/internal/emotion"
	"github.com/asharanees/language-peer/internal/grammar"
	"github.com/asharanees/language-peer/internal/store"
)

var errTurnPanic = errors.New("turn processing panicked")

// recentWindow is how many trailing messages downstream decisions see.
const recentWindow = 10

// StartResult is the outcome of creating a session.
type StartResult struct {
	SessionID   string                  `json:"session_id"`
	ActiveAgent domain.AgentPersonality `json:"active_agent"`
	Greeting    string                  `json:"greeting"`
}

// TurnResult is the outcome of one processed turn.
type TurnResult struct {
	AgentResponse string                    `json:"agent_response"`
	Feedback      []domain.FeedbackInstance `json:"feedback"`
	Handoff       *domain.HandoffRecord     `json:"handoff,omitempty"`
	Emotional     domain.EmotionalState     `json:"emotional_state"`
	GrammarScore  float64                   `json:"grammar_score"`
}

// liveSession pairs a session aggregate with its worker lock and the
// learner profile loaded at session start.
type liveSession struct {
	mu      sync.Mutex
	session *domain.Session
	profile *domain.UserProfile
}

// Orchestrator owns the live-session registry and the turn pipeline.
type Orchestrator struct {
	repo       store.Repository
	catalog    *agents.Catalog
	responder  agents.Responder
	analyzer   *grammar.Analyzer
	thresholds agents.Thresholds
	events     EventSink
	onEnd      func(userID string)
	logger     *slog.Logger

	processTurn TurnFunc

	mu   sync.RWMutex
	live map[string]*liveSession
}

// Options configures an Orchestrator.
type Options struct {
	Repo       store.Repository
	Catalog    *agents.Catalog
	Responder  agents.Responder
	Analyzer   *grammar.Analyzer
	Thresholds agents.Thresholds
	Events     EventSink
	// OnSessionEnd is invoked after a session completes, for async
	// post-session work such as refreshing recommendations.
	OnSessionEnd func(userID string)
	Interceptors []TurnInterceptor
	Logger       *slog.Logger
}

// New creates an orchestrator. Repo, Catalog, and Analyzer are required;
// Responder may be nil, which pins every reply to the personality
// fallbacks.
func New(opts Options) (*Orchestrator, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("orchestrator requires a repository")
	}
	if opts.Catalog == nil {
		return nil, fmt.Errorf("orchestrator requires a personality catalog")
	}
	if opts.Analyzer == nil {
		return nil, fmt.Errorf("orchestrator requires an analyzer")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	o := &Orchestrator{
		repo:       opts.Repo,
		catalog:    opts.Catalog,
		responder:  opts.Responder,
		analyzer:   opts.Analyzer,
		thresholds: opts.Thresholds,
		events:     opts.Events,
		onEnd:      opts.OnSessionEnd,
		logger:     logger,
		live:       make(map[string]*liveSession),
	}
	o.processTurn = chainInterceptors(o.turn, opts.Interceptors)
	return o, nil
}

// StartSession creates a session for a user: selects the agent, generates
// the greeting, persists the new aggregate, and registers it live. The
// session enters the active state once a greeting exists; greeting
// generation cannot fail outright because every personality carries a
// canned fallback.
func (o *Orchestrator) StartSession(ctx context.Context, userID, agentID, topic string) (*StartResult, error) {
	if userID == "" {
		return nil, domain.NewValidationError("userId", "must not be empty")
	}
	if agentID != "" && !o.catalog.Exists(agentID) {
		return nil, domain.NewValidationError("agentId", fmt.Sprintf("unknown agent %q", agentID))
	}

	profile, err := o.repo.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if agentID == "" {
		rec := agents.RecommendAgent(o.catalog, profile, nil)
		agentID = rec.Target
		o.logger.Info("Agent selected", "user_id", userID, "agent_id", agentID, "confidence", rec.Confidence, "reason", rec.Reason)
	}
	personality, err := o.catalog.Get(agentID)
	if err != nil {
		return nil, err
	}

	greeting := personality.Greeting
	if o.responder != nil {
		if generated, err := o.responder.Greet(ctx, personality, profile, topic); err != nil {
			o.logger.Warn("Greeting generation failed, using canned greeting", "agent_id", agentID, "error", err)
		} else {
			greeting = generated
		}
	}

	now := time.Now()
	sess := &domain.Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		AgentID:        agentID,
		Topic:          topic,
		Status:         domain.SessionActive,
		StartedAt:      now,
		LastActivityAt: now,
	}
	greetingMsg := domain.Message{
		ID:        uuid.NewString(),
		Sender:    domain.SenderAgent,
		Content:   greeting,
		CreatedAt: now,
	}
	sess.AppendMessage(greetingMsg)

	if err := o.repo.PutSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist new session: %w", err)
	}
	if err := o.repo.AppendMessage(ctx, sess.ID, greetingMsg); err != nil {
		o.logger.Warn("Failed to persist greeting message", "session_id", sess.ID, "error", err)
	}

	o.mu.Lock()
	o.live[sess.ID] = &liveSession{session: sess, profile: profile}
	o.mu.Unlock()

	o.publish(Event{Type: EventGreeting, SessionID: sess.ID, Message: greeting, At: now})
	o.logger.Info("Session started", "session_id", sess.ID, "user_id", userID, "agent_id", agentID)

	return &StartResult{SessionID: sess.ID, ActiveAgent: personality, Greeting: greeting}, nil
}

// ProcessTurn runs one user turn through the interceptor chain and the
// core pipeline.
func (o *Orchestrator) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	return o.processTurn(ctx, req)
}

// turn is the core per-turn pipeline: append the user message, infer
// emotional state, evaluate handoff, score the text, generate the agent
// reply, and fold the results into session metrics.
func (o *Orchestrator) turn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if req.Text == "" {
		return nil, domain.NewValidationError("text", "must not be empty")
	}
	if c := req.TranscriptConfidence; c != nil && (*c < 0 || *c > 1) {
		return nil, domain.NewValidationError("transcriptConfidence", "must be within [0,1]")
	}

	ls, err := o.acquire(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	sess := ls.session
	if !sess.IsActive() {
		return nil, fmt.Errorf("%w: %q is %s", domain.ErrSessionInactive, sess.ID, sess.Status)
	}

	now := time.Now()
	userMsg := domain.Message{
		ID:                   uuid.NewString(),
		Sender:               domain.SenderUser,
		Content:              req.Text,
		TranscriptConfidence: req.TranscriptConfidence,
		CreatedAt:            now,
	}
	sess.AppendMessage(userMsg)

	sess.Emotional = emotion.Infer(sess.RecentUserMessages(5), now)

	var handoff *domain.HandoffRecord
	if rec := agents.RecommendHandoff(sess.Emotional, sess.AgentID, ls.profile, sess.RecentMessages(recentWindow), o.thresholds); rec != nil {
		sess.ApplyHandoff(rec.Target, rec.Reason, now)
		handoff = &sess.Handoffs[len(sess.Handoffs)-1]
		o.logger.Info("Agent handoff",
			"session_id", sess.ID,
			"from", handoff.FromAgent,
			"to", handoff.ToAgent,
			"reason", handoff.Reason)
		o.publish(Event{Type: EventHandoff, SessionID: sess.ID, Handoff: handoff, At: now})
	}

	level := domain.ProficiencyBeginner
	if ls.profile != nil {
		level = ls.profile.Proficiency
	}
	analysis := o.analyzer.Analyze(ctx, req.Text, level, sess.Topic)

	personality, err := o.catalog.Get(sess.AgentID)
	if err != nil {
		return nil, err
	}

	reply := personality.FallbackReply
	if o.responder != nil {
		generated, err := o.responder.GenerateResponse(ctx, agents.ResponseContext{
			Personality: personality,
			Profile:     ls.profile,
			Topic:       sess.Topic,
			UserText:    req.Text,
			Recent:      sess.RecentMessages(recentWindow),
			Emotional:   sess.Emotional,
			Feedback:    analysis.Errors,
			TurnCount:   sess.Metrics.TurnCount + 1,
		})
		if err != nil {
			o.logger.Warn("Agent response failed, using fallback reply",
				"session_id", sess.ID,
				"agent_id", personality.ID,
				"error", err)
		} else {
			reply = generated
		}
	}

	agentMsg := domain.Message{
		ID:        uuid.NewString(),
		Sender:    domain.SenderAgent,
		Content:   reply,
		Feedback:  analysis.Errors,
		CreatedAt: time.Now(),
	}
	sess.AppendMessage(agentMsg)

	sess.Metrics.RecordTurn(analysis.GrammarScore, analysis.FluencyScore, analysis.VocabularyScore, len(analysis.Errors))

	o.persistTurn(ctx, sess, userMsg, agentMsg)

	if len(analysis.Errors) > 0 {
		o.publish(Event{Type: EventFeedback, SessionID: sess.ID, Feedback: analysis.Errors, At: agentMsg.CreatedAt})
	}

	return &TurnResult{
		AgentResponse: reply,
		Feedback:      analysis.Errors,
		Handoff:       handoff,
		Emotional:     sess.Emotional,
		GrammarScore:  analysis.GrammarScore,
	}, nil
}

// persistTurn writes the turn's messages and the updated aggregate. Write
// failures degrade to a warning: the in-memory aggregate remains
// authoritative for the session's lifetime and the next write retries the
// full state.
func (o *Orchestrator) persistTurn(ctx context.Context, sess *domain.Session, msgs ...domain.Message) {
	for _, msg := range msgs {
		if err := o.repo.AppendMessage(ctx, sess.ID, msg); err != nil {
			o.logger.Warn("Failed to persist message", "session_id", sess.ID, "message_id", msg.ID, "error", err)
		}
	}
	if err := o.repo.PutSession(ctx, sess); err != nil {
		o.logger.Warn("Failed to persist session state", "session_id", sess.ID, "error", err)
	}
}

// EndSession completes an active session, performs the final persistence
// write, and evicts it from the registry. Unlike per-turn writes, the
// completion write is surfaced: losing it would leave the session active
// forever from the caller's point of view.
func (o *Orchestrator) EndSession(ctx context.Context, sessionID string) error {
	ls, err := o.acquire(ctx, sessionID)
	if err != nil {
		return err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	sess := ls.session
	if !sess.IsActive() {
		return fmt.Errorf("%w: %q is %s", domain.ErrSessionInactive, sess.ID, sess.Status)
	}

	now := time.Now()
	sess.Status = domain.SessionCompleted
	sess.EndedAt = &now

	if err := o.repo.PutSession(ctx, sess); err != nil {
		// Roll back so a retried end request can try the write again.
		sess.Status = domain.SessionActive
		sess.EndedAt = nil
		return fmt.Errorf("%w: persist completed session: %w", domain.ErrExternalService, err)
	}

	o.evict(sessionID)
	o.publish(Event{Type: EventCompleted, SessionID: sessionID, At: now})
	o.logger.Info("Session completed", "session_id", sessionID, "turns", sess.Metrics.TurnCount)

	if o.onEnd != nil {
		o.onEnd(sess.UserID)
	}
	return nil
}

// GetSession returns a snapshot of a session, live or persisted.
func (o *Orchestrator) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	o.mu.RLock()
	ls, ok := o.live[sessionID]
	o.mu.RUnlock()
	if ok {
		ls.mu.Lock()
		defer ls.mu.Unlock()
		snapshot := *ls.session
		snapshot.Messages = append([]domain.Message(nil), ls.session.Messages...)
		snapshot.Handoffs = append([]domain.HandoffRecord(nil), ls.session.Handoffs...)
		return &snapshot, nil
	}
	return o.repo.GetSession(ctx, sessionID)
}

// acquire returns the live session, resuming it from the store when the
// process restarted under an active session.
func (o *Orchestrator) acquire(ctx context.Context, sessionID string) (*liveSession, error) {
	if sessionID == "" {
		return nil, domain.NewValidationError("sessionId", "must not be empty")
	}

	o.mu.RLock()
	ls, ok := o.live[sessionID]
	o.mu.RUnlock()
	if ok {
		return ls, nil
	}

	sess, err := o.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsActive() {
		return nil, fmt.Errorf("%w: %q is %s", domain.ErrSessionInactive, sess.ID, sess.Status)
	}
	profile, err := o.repo.GetUserProfile(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if existing, ok := o.live[sessionID]; ok {
		return existing, nil
	}
	ls = &liveSession{session: sess, profile: profile}
	o.live[sessionID] = ls
	o.logger.Info("Session resumed from store", "session_id", sessionID)
	return ls, nil
}

func (o *Orchestrator) evict(sessionID string) {
	o.mu.Lock()
	delete(o.live, sessionID)
	o.mu.Unlock()
}

// LiveCount reports how many sessions are currently registered.
func (o *Orchestrator) LiveCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.live)
}
