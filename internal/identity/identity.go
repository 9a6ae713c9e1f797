// Package identity assigns random identifiers to script instances and decides whether an
// instance is still the authoritative one for its owner node.
//
// Script components get re-instantiated and copy-pasted while a document is edited, and
// every copy re-runs activation. Handlers registered by a superseded instance must detect
// that someone else now owns the stamp and switch themselves off.
package identity

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/aretw0/grove/pkg/domain"
	"github.com/aretw0/grove/pkg/ports"
)

// Identity is the identifier of one running instance, bound to its owner node.
type Identity struct {
	id       domain.InstanceID
	owner    domain.Node
	host     ports.GraphHost
	registry ports.InstanceRegistry
}

// Option configures New.
type Option func(*options)

type options struct {
	rnd *rand.Rand
}

// WithRand draws the identifier from r instead of the global source.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rnd = r
	}
}

// New draws an identifier in [0, domain.MaxInstanceID) and stamps it on owner.
func New(ctx context.Context, host ports.GraphHost, registry ports.InstanceRegistry, owner domain.Node, opts ...Option) (*Identity, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	var n int
	if o.rnd != nil {
		n = o.rnd.IntN(domain.MaxInstanceID)
	} else {
		n = rand.IntN(domain.MaxInstanceID)
	}

	i := &Identity{
		id:       domain.InstanceID(n),
		owner:    owner,
		host:     host,
		registry: registry,
	}
	if err := i.Stamp(ctx); err != nil {
		return nil, err
	}
	return i, nil
}

// ID returns the instance identifier.
func (i *Identity) ID() domain.InstanceID { return i.id }

// Owner returns the node hosting this instance.
func (i *Identity) Owner() domain.Node { return i.owner }

// Status is the display form of the stamp, e.g. "id: 42".
func (i *Identity) Status() string { return fmt.Sprintf("id: %d", i.id) }

// Stamp (re)claims the owner node for this instance.
func (i *Identity) Stamp(ctx context.Context) error {
	if err := i.registry.Stamp(ctx, i.owner.ID, i.id); err != nil {
		return fmt.Errorf("failed to stamp instance %d on %s: %w", i.id, i.owner.ID, err)
	}
	return nil
}

// Release gives up the stamp, leaving a successor's stamp untouched.
func (i *Identity) Release(ctx context.Context) error {
	if err := i.registry.Release(ctx, i.owner.ID, i.id); err != nil {
		return fmt.Errorf("failed to release instance %d on %s: %w", i.id, i.owner.ID, err)
	}
	return nil
}

// Authoritative reports whether exactly one live node with the owner's nickname and
// declared kind carries this instance's stamp.
func (i *Identity) Authoritative(ctx context.Context) (bool, error) {
	nodes, err := i.host.ListNodes(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list nodes: %w", err)
	}

	matches := 0
	for _, n := range nodes {
		if n.Name != i.owner.Name || n.Role != i.owner.Role || n.Kind != i.owner.Kind {
			continue
		}
		id, ok, err := i.registry.Lookup(ctx, n.ID)
		if err != nil {
			return false, fmt.Errorf("failed to look up stamp of %s: %w", n.ID, err)
		}
		if ok && id == i.id {
			matches++
		}
	}
	return matches == 1, nil
}
