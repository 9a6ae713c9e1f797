package memory

import (
	"context"
	"sync"

	"github.com/aretw0/grove/pkg/domain"
	"github.com/aretw0/grove/pkg/ports"
)

// Registry implements ports.InstanceRegistry in memory.
// Safe for concurrent use.
type Registry struct {
	data map[domain.NodeID]domain.InstanceID
	mu   sync.RWMutex
}

var _ ports.InstanceRegistry = (*Registry)(nil)

// NewRegistry creates a new in-memory registry.
func NewRegistry() *Registry {
	return &Registry{
		data: make(map[domain.NodeID]domain.InstanceID),
	}
}

// Stamp records id as the current instance of owner.
func (r *Registry) Stamp(ctx context.Context, owner domain.NodeID, id domain.InstanceID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[owner] = id
	return nil
}

// Lookup returns the instance stamped on owner.
func (r *Registry) Lookup(ctx context.Context, owner domain.NodeID) (domain.InstanceID, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.data[owner]
	return id, ok, nil
}

// Release removes the stamp if it still belongs to id.
func (r *Registry) Release(ctx context.Context, owner domain.NodeID, id domain.InstanceID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.data[owner]; ok && cur == id {
		delete(r.data, owner)
	}
	return nil
}
