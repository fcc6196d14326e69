package session

import (
	"context"
	"time"

	"github.com/asharanees/language-peer/internal/domain"
)

// StartReaper runs a background goroutine that periodically sweeps live
// sessions and marks the ones idle beyond ttl as abandoned. It stops when
// ctx is cancelled.
func (o *Orchestrator) StartReaper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		o.logger.Info("Session reaper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				o.reapIdleSessions(ctx, ttl)
			case <-ctx.Done():
				o.logger.Info("Session reaper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func (o *Orchestrator) reapIdleSessions(ctx context.Context, ttl time.Duration) {
	now := time.Now()

	o.mu.RLock()
	candidates := make([]*liveSession, 0, len(o.live))
	for _, ls := range o.live {
		candidates = append(candidates, ls)
	}
	o.mu.RUnlock()

	reaped := 0
	for _, ls := range candidates {
		if o.reapIfIdle(ctx, ls, ttl, now) {
			reaped++
		}
	}
	if reaped > 0 {
		o.logger.Info("Session reaper marked idle sessions abandoned", "count", reaped)
	}
}

// reapIfIdle re-checks idleness under the session lock: a turn may have
// arrived between the sweep snapshot and now.
func (o *Orchestrator) reapIfIdle(ctx context.Context, ls *liveSession, ttl time.Duration, now time.Time) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	sess := ls.session
	if !sess.IsActive() || !sess.IdleFor(ttl, now) {
		return false
	}

	sess.Status = domain.SessionAbandoned
	ended := now
	sess.EndedAt = &ended

	if err := o.repo.PutSession(ctx, sess); err != nil {
		o.logger.Warn("Session reaper failed to persist abandoned session",
			"session_id", sess.ID,
			"error", err)
	}

	o.evict(sess.ID)
	o.publish(Event{Type: EventAbandoned, SessionID: sess.ID, At: now})
	o.logger.Info("Session abandoned after idle timeout",
		"session_id", sess.ID,
		"user_id", sess.UserID,
		"idle", now.Sub(sess.LastActivityAt).Round(time.Second))
	return true
}
