package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/grove/pkg/domain"
)

// topicAll receives every annotation regardless of policy.
const topicAll = ""

// StreamManager fans annotation events out to SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // policy -> set of channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for one policy ("" for all). The returned function
// unregisters and closes it.
func (sm *StreamManager) Subscribe(policy string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[policy]; !ok {
		sm.subscribers[policy] = make(map[chan<- string]struct{})
	}
	sm.subscribers[policy][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[policy]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, policy)
			}
		}
	}
}

// Broadcast sends msg to the subscribers of policy and to the catch-all subscribers.
func (sm *StreamManager) Broadcast(policy string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "policy", policy, "payload_size", len(msg))

	for _, topic := range []string{policy, topicAll} {
		for ch := range sm.subscribers[topic] {
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client)
				sm.logger.Warn("SSE: Client buffer full, dropping message", "policy", policy)
			}
		}
		if policy == topicAll {
			break
		}
	}
}

// Hooks returns lifecycle hooks broadcasting every annotation, chained after next.
func (sm *StreamManager) Hooks(next domain.LifecycleHooks) domain.LifecycleHooks {
	hooks := next
	hooks.OnAnnotate = func(ctx context.Context, e *domain.AnnotationEvent) {
		if payload, err := json.Marshal(e); err == nil {
			sm.Broadcast(e.Policy, string(payload))
		}
		if next.OnAnnotate != nil {
			next.OnAnnotate(ctx, e)
		}
	}
	return hooks
}
