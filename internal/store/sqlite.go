package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/asharanees/language-peer/internal/domain"
	"github.com/asharanees/language-peer/internal/shared"
	_ "modernc.org/sqlite"
)

// readRetries bounds how often idempotent reads are retried on SQLITE_BUSY.
const readRetries = 3

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		topic TEXT,
		status TEXT NOT NULL,
		metrics_json TEXT NOT NULL,
		handoffs_json TEXT,
		emotional_json TEXT,
		started_at INTEGER NOT NULL,
		ended_at INTEGER,
		last_activity_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, started_at);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		sender TEXT NOT NULL,
		content TEXT NOT NULL,
		transcript_confidence REAL,
		feedback_json TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		name TEXT,
		native_language TEXT,
		target_language TEXT NOT NULL,
		proficiency TEXT NOT NULL,
		goals_json TEXT,
		preferred_json TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withReadRetry retries an idempotent read on SQLite concurrency errors
// with exponential backoff. Writes go through without retry.
func withReadRetry(ctx context.Context, fn func() error) error {
	delay := 50 * time.Millisecond
	var err error
	for i := 0; i < readRetries; i++ {
		err = fn()
		if err == nil || !shared.IsSQLiteConflictError(err) {
			return err
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}

// GetSession retrieves a session and its ordered message history.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var session *domain.Session
	err := withReadRetry(ctx, func() error {
		var err error
		session, err = s.getSession(ctx, id)
		return err
	})
	return session, err
}

func (s *SQLiteStore) getSession(ctx context.Context, id string) (*domain.Session, error) {
	query := `
		SELECT id, user_id, agent_id, topic, status,
		       metrics_json, handoffs_json, emotional_json,
		       started_at, ended_at, last_activity_at
		FROM sessions WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, id)

	var session domain.Session
	var topic, handoffsJSON, emotionalJSON sql.NullString
	var metricsJSON string
	var startedAt, lastActivity int64
	var endedAt sql.NullInt64

	err := row.Scan(
		&session.ID, &session.UserID, &session.AgentID, &topic, &session.Status,
		&metricsJSON, &handoffsJSON, &emotionalJSON,
		&startedAt, &endedAt, &lastActivity,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", domain.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	session.Topic = topic.String
	session.StartedAt = time.Unix(startedAt, 0)
	session.LastActivityAt = time.Unix(lastActivity, 0)
	if endedAt.Valid {
		t := time.Unix(endedAt.Int64, 0)
		session.EndedAt = &t
	}
	if err := json.Unmarshal([]byte(metricsJSON), &session.Metrics); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}
	if handoffsJSON.Valid && handoffsJSON.String != "" {
		if err := json.Unmarshal([]byte(handoffsJSON.String), &session.Handoffs); err != nil {
			return nil, fmt.Errorf("decode handoffs: %w", err)
		}
	}
	if emotionalJSON.Valid && emotionalJSON.String != "" {
		if err := json.Unmarshal([]byte(emotionalJSON.String), &session.Emotional); err != nil {
			return nil, fmt.Errorf("decode emotional state: %w", err)
		}
	}

	messages, err := s.sessionMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Messages = messages

	return &session, nil
}

func (s *SQLiteStore) sessionMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	query := `
		SELECT id, sender, content, transcript_confidence, feedback_json, created_at
		FROM messages WHERE session_id = ? ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var confidence sql.NullFloat64
		var feedbackJSON sql.NullString
		var createdAt int64

		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Content, &confidence, &feedbackJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		if confidence.Valid {
			c := confidence.Float64
			msg.TranscriptConfidence = &c
		}
		if feedbackJSON.Valid && feedbackJSON.String != "" {
			if err := json.Unmarshal([]byte(feedbackJSON.String), &msg.Feedback); err != nil {
				return nil, fmt.Errorf("decode feedback: %w", err)
			}
		}
		msg.CreatedAt = time.Unix(createdAt, 0)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// PutSession creates or updates the session aggregate row.
func (s *SQLiteStore) PutSession(ctx context.Context, session *domain.Session) error {
	metricsJSON, err := json.Marshal(session.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	handoffsJSON, err := json.Marshal(session.Handoffs)
	if err != nil {
		return fmt.Errorf("encode handoffs: %w", err)
	}
	emotionalJSON, err := json.Marshal(session.Emotional)
	if err != nil {
		return fmt.Errorf("encode emotional state: %w", err)
	}

	var endedAt interface{}
	if session.EndedAt != nil {
		endedAt = session.EndedAt.Unix()
	}

	query := `
		INSERT INTO sessions (id, user_id, agent_id, topic, status,
			metrics_json, handoffs_json, emotional_json,
			started_at, ended_at, last_activity_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			agent_id = excluded.agent_id,
			status = excluded.status,
			metrics_json = excluded.metrics_json,
			handoffs_json = excluded.handoffs_json,
			emotional_json = excluded.emotional_json,
			ended_at = excluded.ended_at,
			last_activity_at = excluded.last_activity_at`

	_, err = s.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.AgentID, session.Topic, session.Status,
		string(metricsJSON), string(handoffsJSON), string(emotionalJSON),
		session.StartedAt.Unix(), endedAt, session.LastActivityAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// AppendMessage persists one message. The sequence number is derived from
// the current message count so ordering survives identical timestamps.
func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID string, msg domain.Message) error {
	var feedbackJSON interface{}
	if len(msg.Feedback) > 0 {
		b, err := json.Marshal(msg.Feedback)
		if err != nil {
			return fmt.Errorf("encode feedback: %w", err)
		}
		feedbackJSON = string(b)
	}

	var confidence interface{}
	if msg.TranscriptConfidence != nil {
		confidence = *msg.TranscriptConfidence
	}

	query := `
		INSERT INTO messages (id, session_id, seq, sender, content, transcript_confidence, feedback_json, created_at)
		VALUES (?, ?, (SELECT COUNT(*) FROM messages WHERE session_id = ?), ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID, sessionID, sessionID, msg.Sender, msg.Content, confidence, feedbackJSON, msg.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// GetUserProfile retrieves a learner profile, nil when absent.
func (s *SQLiteStore) GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var profile *domain.UserProfile
	err := withReadRetry(ctx, func() error {
		var err error
		profile, err = s.getUserProfile(ctx, userID)
		return err
	})
	return profile, err
}

func (s *SQLiteStore) getUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `
		SELECT user_id, name, native_language, target_language, proficiency,
		       goals_json, preferred_json, created_at, updated_at
		FROM profiles WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var profile domain.UserProfile
	var name, native, goalsJSON, preferredJSON sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(
		&profile.UserID, &name, &native, &profile.TargetLanguage, &profile.Proficiency,
		&goalsJSON, &preferredJSON, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile row: %w", err)
	}

	profile.Name = name.String
	profile.NativeLanguage = native.String
	profile.CreatedAt = time.Unix(createdAt, 0)
	profile.UpdatedAt = time.Unix(updatedAt, 0)
	if goalsJSON.Valid && goalsJSON.String != "" {
		if err := json.Unmarshal([]byte(goalsJSON.String), &profile.LearningGoals); err != nil {
			return nil, fmt.Errorf("decode goals: %w", err)
		}
	}
	if preferredJSON.Valid && preferredJSON.String != "" {
		if err := json.Unmarshal([]byte(preferredJSON.String), &profile.PreferredAgents); err != nil {
			return nil, fmt.Errorf("decode preferred agents: %w", err)
		}
	}

	return &profile, nil
}

// UpsertUserProfile creates or updates a learner profile.
func (s *SQLiteStore) UpsertUserProfile(ctx context.Context, profile *domain.UserProfile) error {
	goalsJSON, err := json.Marshal(profile.LearningGoals)
	if err != nil {
		return fmt.Errorf("encode goals: %w", err)
	}
	preferredJSON, err := json.Marshal(profile.PreferredAgents)
	if err != nil {
		return fmt.Errorf("encode preferred agents: %w", err)
	}

	query := `
		INSERT INTO profiles (user_id, name, native_language, target_language, proficiency,
			goals_json, preferred_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name,
			native_language = excluded.native_language,
			target_language = excluded.target_language,
			proficiency = excluded.proficiency,
			goals_json = excluded.goals_json,
			preferred_json = excluded.preferred_json,
			updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		profile.UserID, profile.Name, profile.NativeLanguage, profile.TargetLanguage, profile.Proficiency,
		string(goalsJSON), string(preferredJSON), profile.CreatedAt.Unix(), profile.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// ListUserSessions returns the user's most recent sessions without message
// history, newest first.
func (s *SQLiteStore) ListUserSessions(ctx context.Context, userID string, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, user_id, agent_id, topic, status,
		       metrics_json, started_at, ended_at, last_activity_at
		FROM sessions WHERE user_id = ?
		ORDER BY started_at DESC LIMIT ?`

	var sessions []*domain.Session
	err := withReadRetry(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query, userID, limit)
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}
		defer rows.Close()

		sessions = sessions[:0]
		for rows.Next() {
			var session domain.Session
			var topic sql.NullString
			var metricsJSON string
			var startedAt, lastActivity int64
			var endedAt sql.NullInt64

			if err := rows.Scan(
				&session.ID, &session.UserID, &session.AgentID, &topic, &session.Status,
				&metricsJSON, &startedAt, &endedAt, &lastActivity,
			); err != nil {
				return fmt.Errorf("scan session row: %w", err)
			}
			session.Topic = topic.String
			session.StartedAt = time.Unix(startedAt, 0)
			session.LastActivityAt = time.Unix(lastActivity, 0)
			if endedAt.Valid {
				t := time.Unix(endedAt.Int64, 0)
				session.EndedAt = &t
			}
			if err := json.Unmarshal([]byte(metricsJSON), &session.Metrics); err != nil {
				return fmt.Errorf("decode metrics: %w", err)
			}
			sessions = append(sessions, &session)
		}
		return rows.Err()
	})
	return sessions, err
}
