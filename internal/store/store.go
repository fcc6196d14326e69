// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/asharanees/language-peer/internal/domain"
)

// Repository defines the persistence boundary of the engine. Calls are
// atomic and may fail; idempotent reads are retried internally on SQLite
// concurrency errors, writes never are (their side effects would be
// ambiguous on retry).
type Repository interface {
	// GetSession retrieves a session with its full message history.
	// Returns domain.ErrSessionNotFound for unknown ids.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// PutSession creates or updates the session aggregate row. Messages
	// are persisted separately through AppendMessage.
	PutSession(ctx context.Context, session *domain.Session) error

	// AppendMessage persists one message of a session.
	AppendMessage(ctx context.Context, sessionID string, msg domain.Message) error

	// GetUserProfile retrieves a learner profile, or nil when the user
	// has none yet.
	GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error)

	// UpsertUserProfile creates or updates a learner profile.
	UpsertUserProfile(ctx context.Context, profile *domain.UserProfile) error

	// ListUserSessions returns the user's most recent sessions, newest
	// first, without message history. Used by the personalization engine.
	ListUserSessions(ctx context.Context, userID string, limit int) ([]*domain.Session, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
