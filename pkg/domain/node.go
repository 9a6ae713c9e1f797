package domain

// NodeID is the stable identity of a document object.
type NodeID string

// InstanceID identifies one running script instance.
type InstanceID int

// Role defines what a node is in the document.
type Role string

const (
	RoleGroup     Role = "group"
	RoleParam     Role = "param"
	RoleComponent Role = "component"
	RoleOther     Role = "other"
)

// Kind is a declared type marker on top of a Role.
// It replaces matching on concrete host type names.
type Kind string

const (
	// KindNone is the zero marker.
	KindNone Kind = ""
	// KindSwatch marks a param node that supplies a named colour.
	KindSwatch Kind = "swatch"
	// KindScript marks a component that hosts one of the engine's policies.
	KindScript Kind = "script"
)

// DisplayMode controls how a param node draws its label.
type DisplayMode string

const (
	DisplayIcon DisplayMode = "icon"
	DisplayName DisplayMode = "name"
)

// WireWeight controls how the wires into an input are drawn.
type WireWeight string

const (
	WeightDefault WireWeight = "default"
	WeightFaint   WireWeight = "faint"
	WeightHidden  WireWeight = "hidden"
)

// Input is the receiving end of a wire bundle.
type Input struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Sources are the top-level nodes owning the upstream outputs.
	Sources []NodeID   `json:"sources,omitempty" yaml:"sources,omitempty"`
	Weight  WireWeight `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Edge addresses the wires of one input on one node.
type Edge struct {
	Node  NodeID `json:"node"`
	Input int    `json:"input"`
}

// Node represents an object owned by the host document.
// The engine only reads and annotates nodes; it never creates or destroys them.
type Node struct {
	ID    NodeID `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"` // nickname
	Role  Role   `json:"role" yaml:"role"`
	Kind  Kind   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Color Color  `json:"color,omitempty" yaml:"color,omitempty"`

	// Members is the ordered membership of a group. Members may be groups themselves.
	Members []NodeID `json:"members,omitempty" yaml:"members,omitempty"`

	// Inputs holds the single implicit input of a param, or one entry per input param of a component.
	Inputs []Input `json:"inputs,omitempty" yaml:"inputs,omitempty"`

	Display DisplayMode `json:"display,omitempty" yaml:"display,omitempty"`
}

// IsGroup reports whether the node is a group.
func (n Node) IsGroup() bool { return n.Role == RoleGroup }

// IsParam reports whether the node is a parameter (swatches included).
func (n Node) IsParam() bool { return n.Role == RoleParam }

// IsSwatch reports whether the node is a named colour source.
func (n Node) IsSwatch() bool { return n.Role == RoleParam && n.Kind == KindSwatch }

// IsScript reports whether the node is a script component hosting a policy.
func (n Node) IsScript() bool { return n.Role == RoleComponent && n.Kind == KindScript }

// InputNamed returns the input with the given name, if any.
func (n Node) InputNamed(name string) (Input, bool) {
	for _, in := range n.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}

// Clone returns a deep copy so host snapshots can't alias document state.
func (n Node) Clone() Node {
	c := n
	if n.Members != nil {
		c.Members = append([]NodeID(nil), n.Members...)
	}
	if n.Inputs != nil {
		c.Inputs = make([]Input, len(n.Inputs))
		for i, in := range n.Inputs {
			c.Inputs[i] = in
			if in.Sources != nil {
				c.Inputs[i].Sources = append([]NodeID(nil), in.Sources...)
			}
		}
	}
	return c
}
