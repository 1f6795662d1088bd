package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/parley/internal/logging"
)

// StreamManager fans turn updates out to SSE subscribers, keyed by request id.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a channel for requestID. The returned func unsubscribes
// and is safe to call after Close.
func (sm *StreamManager) Subscribe(requestID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	if _, ok := sm.subscribers[requestID]; !ok {
		sm.subscribers[requestID] = make(map[chan string]struct{})
	}
	sm.subscribers[requestID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[requestID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(sm.subscribers, requestID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of requestID. Slow subscribers lose messages.
func (sm *StreamManager) Broadcast(requestID, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[requestID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("sse: subscriber buffer full, dropping message", "request_id", requestID)
		}
	}
}

// Close ends every subscription of requestID.
func (sm *StreamManager) Close(requestID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for ch := range sm.subscribers[requestID] {
		close(ch)
	}
	delete(sm.subscribers, requestID)
}

// Subscribers returns the number of live subscriptions for requestID.
func (sm *StreamManager) Subscribers(requestID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[requestID])
}

// SubscribeEvents handles GET /api/events?request_id=... (SSE). It relays the
// updates of a turn started elsewhere with the same request id.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming_unsupported"})
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("request_id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "request_id is required"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				fmt.Fprintf(w, "event: done\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			fmt.Fprintf(w, "event: update\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
