package domain

import (
	"testing"
	"time"
)

func TestRecordTurnAverages(t *testing.T) {
	var m PerformanceMetrics

	m.RecordTurn(0.8, 0.6, 0.5, 2)
	m.RecordTurn(0.6, 0.8, 0.7, 1)

	if m.TurnCount != 2 {
		t.Errorf("turn count = %d, want 2", m.TurnCount)
	}
	if got, want := m.GrammarAvg, 0.7; got != want {
		t.Errorf("grammar avg = %v, want %v", got, want)
	}
	if m.ErrorCount != 3 {
		t.Errorf("error count = %d, want 3", m.ErrorCount)
	}
}

func TestRecordTurnCountsImprovements(t *testing.T) {
	var m PerformanceMetrics

	// First turn never counts as an improvement.
	m.RecordTurn(0.5, 0.5, 0.5, 0)
	if m.ImprovementCount != 0 {
		t.Fatalf("improvement after first turn = %d", m.ImprovementCount)
	}

	// Beats the running average of 0.5.
	m.RecordTurn(0.9, 0.5, 0.5, 0)
	if m.ImprovementCount != 1 {
		t.Errorf("improvement count = %d, want 1", m.ImprovementCount)
	}

	// Below the new average, no improvement.
	m.RecordTurn(0.4, 0.5, 0.5, 0)
	if m.ImprovementCount != 1 {
		t.Errorf("improvement count = %d, want 1", m.ImprovementCount)
	}
}

func TestRecentUserMessages(t *testing.T) {
	now := time.Now()
	s := &Session{}
	for i, msg := range []struct {
		sender Sender
		text   string
	}{
		{SenderAgent, "hello"},
		{SenderUser, "one"},
		{SenderAgent, "ok"},
		{SenderUser, "two"},
		{SenderUser, "three"},
	} {
		s.AppendMessage(Message{Sender: msg.sender, Content: msg.text, CreatedAt: now.Add(time.Duration(i) * time.Second)})
	}

	got := s.RecentUserMessages(2)
	if len(got) != 2 || got[0].Content != "two" || got[1].Content != "three" {
		t.Errorf("recent user messages = %+v", got)
	}

	all := s.RecentUserMessages(10)
	if len(all) != 3 || all[0].Content != "one" {
		t.Errorf("all user messages = %+v", all)
	}
}

func TestApplyHandoff(t *testing.T) {
	now := time.Now()
	s := &Session{AgentID: "grammar-guide", Status: SessionActive}

	s.ApplyHandoff("friendly-tutor", "high frustration", now)

	if s.AgentID != "friendly-tutor" {
		t.Errorf("agent = %q", s.AgentID)
	}
	if len(s.Handoffs) != 1 {
		t.Fatalf("handoff records = %d", len(s.Handoffs))
	}
	rec := s.Handoffs[0]
	if rec.FromAgent != "grammar-guide" || rec.ToAgent != "friendly-tutor" || !rec.At.Equal(now) {
		t.Errorf("handoff record = %+v", rec)
	}
}

func TestIdleFor(t *testing.T) {
	now := time.Now()
	s := &Session{LastActivityAt: now.Add(-45 * time.Minute)}

	if !s.IdleFor(30*time.Minute, now) {
		t.Error("expected idle past ttl")
	}
	if s.IdleFor(time.Hour, now) {
		t.Error("not idle within ttl")
	}
}
