// Package redis stores instance stamps in Redis so that several processes annotating the
// same document agree on which instance owns a script component.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/grove/pkg/domain"
	"github.com/aretw0/grove/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Registry implements ports.InstanceRegistry using Redis strings.
type Registry struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ ports.InstanceRegistry = (*Registry)(nil)

// Option configures the Registry.
type Option func(*Registry)

// WithPrefix sets the key prefix (default "grove:").
func WithPrefix(prefix string) Option {
	return func(r *Registry) {
		r.prefix = prefix
	}
}

// WithTTL expires stamps that are not refreshed. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		r.ttl = ttl
	}
}

// New connects to addr.
func New(addr string, opts ...Option) *Registry {
	return NewFromClient(backend.NewClient(&backend.Options{Addr: addr}), opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Registry {
	r := &Registry{client: client, prefix: "grove:"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Client returns the underlying client.
func (r *Registry) Client() *backend.Client { return r.client }

func (r *Registry) key(owner domain.NodeID) string {
	return r.prefix + "instance:" + string(owner)
}

// Stamp records id as the instance owning owner.
func (r *Registry) Stamp(ctx context.Context, owner domain.NodeID, id domain.InstanceID) error {
	if err := r.client.Set(ctx, r.key(owner), int(id), r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set stamp: %w", err)
	}
	return nil
}

// Lookup returns the instance owning owner.
func (r *Registry) Lookup(ctx context.Context, owner domain.NodeID) (domain.InstanceID, bool, error) {
	val, err := r.client.Get(ctx, r.key(owner)).Result()
	if errors.Is(err, backend.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get stamp: %w", err)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt stamp %q for %s: %w", val, owner, err)
	}
	return domain.InstanceID(n), true, nil
}

// Release removes the stamp if it still equals id.
func (r *Registry) Release(ctx context.Context, owner domain.NodeID, id domain.InstanceID) error {
	if err := r.client.Eval(ctx, compareAndDelete, []string{r.key(owner)}, strconv.Itoa(int(id))).Err(); err != nil {
		return fmt.Errorf("redis release stamp: %w", err)
	}
	return nil
}
