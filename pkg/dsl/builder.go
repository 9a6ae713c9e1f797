package dsl

import (
	"fmt"

	"github.com/aretw0/grove/pkg/adapters/file"
	"github.com/aretw0/grove/pkg/adapters/memory"
	"github.com/aretw0/grove/pkg/domain"
)

// Builder manages the graph construction. Nodes keep their insertion order.
type Builder struct {
	order []domain.NodeID
	nodes map[domain.NodeID]*NodeBuilder
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[domain.NodeID]*NodeBuilder),
	}
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id domain.NodeID, name string, role domain.Role) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{
			ID:   id,
			Name: name,
			Role: role,
		},
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Group adds a group node.
func (b *Builder) Group(id domain.NodeID, name string) *NodeBuilder {
	return b.Add(id, name, domain.RoleGroup)
}

// Param adds a parameter shown as an icon, the default of a freshly placed parameter.
func (b *Builder) Param(id domain.NodeID, name string) *NodeBuilder {
	return b.Add(id, name, domain.RoleParam).Display(domain.DisplayIcon)
}

// Swatch adds a colour swatch; its nickname carries the prefix it maps.
func (b *Builder) Swatch(id domain.NodeID, name string, color domain.Color) *NodeBuilder {
	nb := b.Add(id, name, domain.RoleParam)
	nb.node.Kind = domain.KindSwatch
	nb.node.Color = color
	return nb
}

// Component adds a plain component.
func (b *Builder) Component(id domain.NodeID, name string) *NodeBuilder {
	return b.Add(id, name, domain.RoleComponent)
}

// Script adds a script component able to host a policy.
func (b *Builder) Script(id domain.NodeID, name string) *NodeBuilder {
	nb := b.Component(id, name)
	nb.node.Kind = domain.KindScript
	return nb
}

// Nodes returns copies of the nodes in insertion order.
func (b *Builder) Nodes() []domain.Node {
	nodes := make([]domain.Node, 0, len(b.order))
	for _, id := range b.order {
		nodes = append(nodes, b.nodes[id].Build())
	}
	return nodes
}

// Build validates the references of the graph and compiles it into a memory document.
func (b *Builder) Build(opts ...memory.Option) (*memory.Document, error) {
	nodes := b.Nodes()
	if err := file.Validate(nodes); err != nil {
		return nil, err
	}
	doc, err := memory.NewFromNodes(nodes, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory document: %w", err)
	}
	return doc, nil
}
