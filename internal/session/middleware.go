package session

import (
	"context"
	"log/slog"
	"time"
)

// TurnRequest is one caller-submitted turn.
type TurnRequest struct {
	SessionID string
	Text      string
	// TranscriptConfidence is set when the text came through speech
	// recognition.
	TranscriptConfidence *float64
}

// TurnFunc processes one turn. The orchestrator's core pipeline has this
// shape so cross-cutting behavior can be composed around it.
type TurnFunc func(ctx context.Context, req TurnRequest) (*TurnResult, error)

// TurnInterceptor wraps a TurnFunc with additional behavior. Interceptors
// are composed at construction time; there is no global registration.
type TurnInterceptor func(next TurnFunc) TurnFunc

// chainInterceptors applies interceptors so the first listed runs
// outermost.
func chainInterceptors(core TurnFunc, interceptors []TurnInterceptor) TurnFunc {
	for i := len(interceptors) - 1; i >= 0; i-- {
		core = interceptors[i](core)
	}
	return core
}

// LoggingInterceptor logs every processed turn with its outcome and
// duration.
func LoggingInterceptor(logger *slog.Logger) TurnInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next TurnFunc) TurnFunc {
		return func(ctx context.Context, req TurnRequest) (*TurnResult, error) {
			start := time.Now()
			result, err := next(ctx, req)
			if err != nil {
				logger.Warn("Turn failed",
					"session_id", req.SessionID,
					"duration", time.Since(start),
					"error", err)
				return result, err
			}
			logger.Info("Turn processed",
				"session_id", req.SessionID,
				"duration", time.Since(start),
				"feedback_count", len(result.Feedback),
				"handoff", result.Handoff != nil)
			return result, nil
		}
	}
}

// RecoveryInterceptor converts a panic in the turn pipeline into an error
// so one bad turn cannot take the worker down.
func RecoveryInterceptor(logger *slog.Logger) TurnInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next TurnFunc) TurnFunc {
		return func(ctx context.Context, req TurnRequest) (result *TurnResult, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Turn panicked", "session_id", req.SessionID, "panic", r)
					result = nil
					err = errTurnPanic
				}
			}()
			return next(ctx, req)
		}
	}
}
