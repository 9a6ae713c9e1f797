// Package subscription keeps track of the handlers an instance has attached to a host.
//
// Every binding is keyed by its (source, event) pair. Binding a key that is already bound
// closes the old subscription first, so repeated activations never register a handler twice.
package subscription

import (
	"sort"
	"sync"

	"github.com/aretw0/grove/pkg/domain"
	"github.com/aretw0/grove/pkg/ports"
)

// Key identifies one binding: which handler listens to which event of which source.
// Source is empty for document-level events.
type Key struct {
	Source  domain.NodeID
	Event   domain.EventType
	Handler string
}

// DocumentKey is the key of a document-level event binding.
func DocumentKey(ev domain.EventType, handler string) Key {
	return Key{Event: ev, Handler: handler}
}

// GroupKey is the key of a per-group change binding.
func GroupKey(group domain.NodeID, handler string) Key {
	return Key{Source: group, Event: domain.EventGroupChanged, Handler: handler}
}

// Manager holds the live bindings of one instance.
type Manager struct {
	mu       sync.Mutex
	bindings map[Key]ports.Subscription
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		bindings: make(map[Key]ports.Subscription),
	}
}

// Bind unsubscribes any existing binding for key, then subscribes again.
func (m *Manager) Bind(key Key, subscribe func() ports.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.bindings[key]; ok {
		old.Close()
		delete(m.bindings, key)
	}
	m.bindings[key] = subscribe()
}

// Unbind closes the binding for key. It reports whether one existed.
func (m *Manager) Unbind(key Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.bindings[key]
	if !ok {
		return false
	}
	sub.Close()
	delete(m.bindings, key)
	return true
}

// UnbindAll closes every binding and returns how many there were. Safe on an empty manager.
func (m *Manager) UnbindAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.bindings)
	for key, sub := range m.bindings {
		sub.Close()
		delete(m.bindings, key)
	}
	return n
}

// Bound reports whether key is bound.
func (m *Manager) Bound(key Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bindings[key]
	return ok
}

// Len returns the number of bindings.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bindings)
}

// Keys returns the bound keys in a deterministic order.
func (m *Manager) Keys() []Key {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]Key, 0, len(m.bindings))
	for k := range m.bindings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Event != keys[j].Event {
			return keys[i].Event < keys[j].Event
		}
		if keys[i].Source != keys[j].Source {
			return keys[i].Source < keys[j].Source
		}
		return keys[i].Handler < keys[j].Handler
	})
	return keys
}
