package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/transit/internal/logging"
	"github.com/aretw0/transit/pkg/domain"
)

// AllTopics receives every broadcast regardless of its topic.
const AllTopics = "*"

// StreamManager handles active SSE connections. Topics are distinguisher
// mode names.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // topic -> set of channels
	logger      *slog.Logger
}

// NewStreamManager creates a manager with no subscribers.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for topic. The returned function
// unregisters and closes it.
func (sm *StreamManager) Subscribe(topic string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[topic]; !ok {
		sm.subscribers[topic] = make(map[chan<- string]struct{})
	}
	sm.subscribers[topic][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[topic]; ok {
			if _, live := subs[ch]; !live {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, topic)
			}
		}
	}
}

// Subscribers returns the number of channels registered for topic.
func (sm *StreamManager) Subscribers(topic string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[topic])
}

// Broadcast sends msg to the subscribers of topic and of AllTopics. Slow
// subscribers lose the message.
func (sm *StreamManager) Broadcast(topic string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "topic", topic, "payload_size", len(msg))

	for _, t := range []string{topic, AllTopics} {
		for ch := range sm.subscribers[t] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("SSE: Client buffer full, dropping message", "topic", t)
			}
		}
		if topic == AllTopics {
			break
		}
	}
}

// StreamEvent is the payload of a transition event on the stream.
type StreamEvent struct {
	Outcome string `json:"outcome"`
	*domain.TransitionEvent
	Error string `json:"error,omitempty"`
}

// Hooks broadcasts every transition event under its mode.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	publish := func(outcome string) func(context.Context, *domain.TransitionEvent) {
		return func(_ context.Context, e *domain.TransitionEvent) {
			payload := StreamEvent{Outcome: outcome, TransitionEvent: e}
			if e.Err != nil {
				payload.Error = e.Err.Error()
			}
			b, err := json.Marshal(payload)
			if err != nil {
				sm.logger.Error("SSE: failed to encode event", "error", err)
				return
			}
			sm.Broadcast(e.Mode.String(), string(b))
		}
	}
	return domain.LifecycleHooks{
		OnTransitionApplied: publish("applied"),
		OnTransitionSkipped: publish("skipped"),
		OnTransitionFailed:  publish("failed"),
		OnCacheHit:          publish("cached"),
	}
}
