package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/asharanees/language-peer/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return repo
}

func TestGetSessionNotFound(t *testing.T) {
	repo := newTestStore(t)

	_, err := repo.GetSession(context.Background(), "missing")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	session := &domain.Session{
		ID:             "s1",
		UserID:         "u1",
		AgentID:        "friendly-tutor",
		Topic:          "travel",
		Status:         domain.SessionActive,
		Metrics:        domain.PerformanceMetrics{GrammarAvg: 0.9, TurnCount: 2, ErrorCount: 1},
		StartedAt:      now,
		LastActivityAt: now,
	}
	session.Handoffs = []domain.HandoffRecord{{FromAgent: "friendly-tutor", ToAgent: "grammar-guide", Reason: "grammar-focused questions", At: now}}

	if err := repo.PutSession(ctx, session); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}

	confidence := 0.8
	messages := []domain.Message{
		{ID: "m1", Sender: domain.SenderUser, Content: "hello", TranscriptConfidence: &confidence, CreatedAt: now},
		{ID: "m2", Sender: domain.SenderAgent, Content: "hi there", CreatedAt: now, Feedback: []domain.FeedbackInstance{
			{Type: domain.FeedbackGrammar, Span: domain.Span{Start: 0, End: 5}, Severity: domain.SeverityHigh, Message: "x", Source: domain.SourceRules, Confidence: 0.75},
		}},
	}
	for _, msg := range messages {
		if err := repo.AppendMessage(ctx, session.ID, msg); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	got, err := repo.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}

	if got.UserID != "u1" || got.AgentID != "friendly-tutor" || got.Topic != "travel" {
		t.Errorf("session fields lost: %+v", got)
	}
	if got.Status != domain.SessionActive {
		t.Errorf("expected active status, got %q", got.Status)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].ID != "m1" || got.Messages[1].ID != "m2" {
		t.Errorf("message order lost: %v, %v", got.Messages[0].ID, got.Messages[1].ID)
	}
	if got.Messages[0].TranscriptConfidence == nil || *got.Messages[0].TranscriptConfidence != 0.8 {
		t.Error("transcript confidence lost")
	}
	if len(got.Messages[1].Feedback) != 1 || got.Messages[1].Feedback[0].Severity != domain.SeverityHigh {
		t.Errorf("feedback lost: %+v", got.Messages[1].Feedback)
	}
	if len(got.Handoffs) != 1 || got.Handoffs[0].ToAgent != "grammar-guide" {
		t.Errorf("handoffs lost: %+v", got.Handoffs)
	}
	if got.Metrics.TurnCount != 2 {
		t.Errorf("metrics lost: %+v", got.Metrics)
	}
}

func TestPutSessionUpdatesExisting(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	session := &domain.Session{
		ID: "s1", UserID: "u1", AgentID: "friendly-tutor",
		Status: domain.SessionActive, StartedAt: now, LastActivityAt: now,
	}
	if err := repo.PutSession(ctx, session); err != nil {
		t.Fatalf("initial put failed: %v", err)
	}

	ended := now.Add(10 * time.Minute)
	session.Status = domain.SessionCompleted
	session.EndedAt = &ended
	session.AgentID = "grammar-guide"
	if err := repo.PutSession(ctx, session); err != nil {
		t.Fatalf("update put failed: %v", err)
	}

	got, err := repo.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Status != domain.SessionCompleted || got.AgentID != "grammar-guide" {
		t.Errorf("update lost: %+v", got)
	}
	if got.EndedAt == nil {
		t.Error("ended_at not persisted")
	}
}

func TestUserProfileRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	missing, err := repo.GetUserProfile(ctx, "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing profile, got %+v", missing)
	}

	profile := &domain.UserProfile{
		UserID:          "u1",
		Name:            "Kenji",
		NativeLanguage:  "ja",
		TargetLanguage:  "en",
		Proficiency:     domain.ProficiencyIntermediate,
		LearningGoals:   []string{"pronunciation-improvement"},
		PreferredAgents: []string{"conversation-partner"},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := repo.UpsertUserProfile(ctx, profile); err != nil {
		t.Fatalf("UpsertUserProfile failed: %v", err)
	}

	got, err := repo.GetUserProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserProfile failed: %v", err)
	}
	if got.Name != "Kenji" || got.Proficiency != domain.ProficiencyIntermediate {
		t.Errorf("profile fields lost: %+v", got)
	}
	if len(got.LearningGoals) != 1 || got.LearningGoals[0] != "pronunciation-improvement" {
		t.Errorf("goals lost: %v", got.LearningGoals)
	}
}

func TestListUserSessions(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	for i, id := range []string{"s1", "s2", "s3"} {
		session := &domain.Session{
			ID: id, UserID: "u1", AgentID: "friendly-tutor",
			Status:         domain.SessionCompleted,
			StartedAt:      base.Add(time.Duration(i) * time.Hour),
			LastActivityAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.PutSession(ctx, session); err != nil {
			t.Fatalf("put %s failed: %v", id, err)
		}
	}

	sessions, err := repo.ListUserSessions(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("ListUserSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "s3" || sessions[1].ID != "s2" {
		t.Errorf("expected newest first, got %s, %s", sessions[0].ID, sessions[1].ID)
	}

	other, err := repo.ListUserSessions(ctx, "someone-else", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no sessions for other user, got %d", len(other))
	}
}
