package ports

import (
	"context"

	"github.com/aretw0/grove/pkg/domain"
)

// InstanceRegistry records the instance stamped on each owner node.
// It is the structured counterpart of writing "id: N" into a component status field.
type InstanceRegistry interface {
	// Stamp records id as the current instance of owner, replacing any previous stamp.
	Stamp(ctx context.Context, owner domain.NodeID, id domain.InstanceID) error

	// Lookup returns the instance stamped on owner.
	Lookup(ctx context.Context, owner domain.NodeID) (domain.InstanceID, bool, error)

	// Release removes the stamp on owner only if it still equals id.
	Release(ctx context.Context, owner domain.NodeID, id domain.InstanceID) error
}
