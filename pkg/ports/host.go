package ports

import (
	"context"

	"github.com/aretw0/grove/pkg/domain"
)

// Handler receives a host notification.
// Returned errors are surfaced by the host to whoever caused the notification.
type Handler func(ctx context.Context, ev domain.Event) error

// Subscription is a registered handler. Close detaches it and is safe to call more than once.
type Subscription interface {
	Close()
}

// GraphHost defines the document the engine observes and annotates.
// Hosts dispatch notifications serially, in registration order, and never run a handler
// while another one is still running.
type GraphHost interface {
	// ListNodes returns a snapshot of every node in the document.
	ListNodes(ctx context.Context) ([]domain.Node, error)

	// ListGroups returns a snapshot of every group in the document.
	ListGroups(ctx context.Context) ([]domain.Node, error)

	OnNodesAdded(h Handler) Subscription
	OnNodesRemoved(h Handler) Subscription
	// OnGroupChanged subscribes to changes (nickname, colour, membership) of a single group.
	OnGroupChanged(group domain.NodeID, h Handler) Subscription
	OnUndoStateChanged(h Handler) Subscription

	// Presentation mutators. They return domain.ErrNodeNotFound once the node is gone.
	SetGroupColor(ctx context.Context, group domain.NodeID, color domain.Color) error
	RenameGroup(ctx context.Context, group domain.NodeID, name string) error
	SetParamDisplayMode(ctx context.Context, param domain.NodeID, mode domain.DisplayMode) error
	SetWireWeight(ctx context.Context, edge domain.Edge, weight domain.WireWeight) error
}
