package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/grove/pkg/domain"
)

// Policy is what the outer surfaces need from a running policy instance.
type Policy interface {
	// Sweep runs the one-shot pass over the whole document and returns how many
	// nodes it processed or changed.
	Sweep(ctx context.Context) (int, error)
	// Report returns the running journal of the last activation.
	Report() string
	// Active reports whether the policy has handlers attached.
	Active() bool
}

// Registry manages the running policies by name.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		policies: make(map[string]Policy),
	}
}

// Register adds a policy to the registry.
// If a policy with the same name exists, it is overwritten.
func (r *Registry) Register(name string, p Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[name] = p
}

// Get looks up a policy by name.
func (r *Registry) Get(name string) (Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.policies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownPolicy, name)
	}
	return p, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sweep looks up a policy by name and runs its one-shot pass.
// Returns an error if the policy is not found.
func (r *Registry) Sweep(ctx context.Context, name string) (int, error) {
	p, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	return p.Sweep(ctx)
}
