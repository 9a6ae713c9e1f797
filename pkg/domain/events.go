package domain

import (
	"context"
)

// EventType defines the category of a host notification.
type EventType string

const (
	EventNodesAdded       EventType = "nodes_added"
	EventNodesRemoved     EventType = "nodes_removed"
	EventGroupChanged     EventType = "group_changed"
	EventUndoStateChanged EventType = "undo_state_changed"
)

// Event is a notification raised by the host.
type Event struct {
	Type EventType `json:"type"`

	// Nodes holds the added or removed nodes.
	Nodes []Node `json:"nodes,omitempty"`

	// Group holds a snapshot of the changed group for EventGroupChanged.
	Group Node `json:"group,omitempty"`
}

// AnnotationKind names a presentation change issued by a policy.
type AnnotationKind string

const (
	AnnotationColor   AnnotationKind = "color"
	AnnotationRename  AnnotationKind = "rename"
	AnnotationDisplay AnnotationKind = "display"
	AnnotationWire    AnnotationKind = "wire"
)

// HandledEvent is reported every time a policy handler runs to completion.
type HandledEvent struct {
	Policy   string     `json:"policy"`
	Instance InstanceID `json:"instance"`
	Type     EventType  `json:"type"`
}

// AnnotationEvent is reported for each presentation mutation a policy issues.
type AnnotationEvent struct {
	Policy string         `json:"policy"`
	Kind   AnnotationKind `json:"kind"`
	NodeID NodeID         `json:"node_id"`
	Value  string         `json:"value"`
}

// InstanceEvent is reported when an instance activates or deactivates.
type InstanceEvent struct {
	Policy   string     `json:"policy"`
	Instance InstanceID `json:"instance"`
	Reason   string     `json:"reason,omitempty"`
}

// Deactivation reasons.
const (
	ReasonDisabled = "disabled"
	ReasonStale    = "stale"
	ReasonDeleted  = "deleted"
)

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnActivate   func(context.Context, *InstanceEvent)
	OnDeactivate func(context.Context, *InstanceEvent)
	OnHandled    func(context.Context, *HandledEvent)
	OnAnnotate   func(context.Context, *AnnotationEvent)
}
