package http

import (
	"log/slog"
	"sync"

	"github.com/nullvoyager/voyager/internal/logging"
)

// StreamManager fans out state diffs to the SSE subscribers of each session.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for the session. The returned func
// unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
			close(ch)
		})
	}
}

// Subscribers returns the number of open subscriptions for the session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast sends msg to every subscriber of the session. Slow clients miss messages.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	subs, ok := sm.subscribers[sessionID]
	if !ok {
		return
	}
	sm.logger.Debug("broadcasting state diff", "session_id", sessionID, "subscribers", len(subs), "payload_size", len(msg))
	for ch := range subs {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE client buffer full, dropping message", "session_id", sessionID)
		}
	}
}
