package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"github.com/asharanees/language-peer/internal/session"
)

// subscriberBuffer bounds how many undelivered events one subscriber may
// hold before the hub starts dropping.
const subscriberBuffer = 32

// EventHub fans session events out to live WebSocket subscribers. It
// implements session.EventSink; Publish never blocks the turn pipeline,
// slow subscribers lose events rather than stall everyone else.
type EventHub struct {
	mu   sync.RWMutex
	subs map[string]map[chan session.Event]struct{}
}

// NewEventHub creates an event hub.
func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[string]map[chan session.Event]struct{})}
}

// Publish delivers an event to every subscriber of its session.
func (h *EventHub) Publish(event session.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[event.SessionID] {
		select {
		case ch <- event:
		default:
			slog.Debug("Event subscriber full, dropping event",
				"session_id", event.SessionID,
				"type", event.Type)
		}
	}
}

// Subscribe registers a new subscriber for a session and returns its
// channel plus an unsubscribe func.
func (h *EventHub) Subscribe(sessionID string) (<-chan session.Event, func()) {
	ch := make(chan session.Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan session.Event]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		if set, ok := h.subs[sessionID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, sessionID)
			}
		}
		h.mu.Unlock()
	}
}

// SubscriberCount reports how many subscribers a session currently has.
func (h *EventHub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

// EventsHandler upgrades to WebSocket and streams a session's events.
type EventsHandler struct {
	hub *EventHub
	svc SessionService
}

// NewEventsHandler creates the event-stream handler.
func NewEventsHandler(hub *EventHub, svc SessionService) *EventsHandler {
	return &EventsHandler{hub: hub, svc: svc}
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	// Reject unknown sessions before upgrading.
	if _, err := h.svc.GetSession(r.Context(), sessionID); err != nil {
		DomainError(w, err)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "session_id", sessionID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "session_id", sessionID)
		}
	}()

	events, unsubscribe := h.hub.Subscribe(sessionID)
	defer unsubscribe()
	slog.Info("Event stream opened", "session_id", sessionID, "ip", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain inbound frames so pings are answered and closure is noticed.
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event := <-events:
			if err := wsjson.Write(ctx, ws, event); err != nil {
				slog.Debug("Event write failed", "session_id", sessionID, "error", err)
				return
			}
			// Terminal events end the stream.
			if event.Type == session.EventCompleted || event.Type == session.EventAbandoned {
				slog.Info("Event stream closing after terminal event",
					"session_id", sessionID,
					"type", event.Type)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
