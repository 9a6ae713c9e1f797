package dsl

import "github.com/aretw0/grove/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node domain.Node
}

// Members sets the children of a group.
func (n *NodeBuilder) Members(ids ...domain.NodeID) *NodeBuilder {
	n.node.Members = append(n.node.Members, ids...)
	return n
}

// Color sets the node colour.
func (n *NodeBuilder) Color(c domain.Color) *NodeBuilder {
	n.node.Color = c
	return n
}

// Display sets how a parameter is shown.
func (n *NodeBuilder) Display(mode domain.DisplayMode) *NodeBuilder {
	n.node.Display = mode
	return n
}

// Input appends a named input wired from sources.
func (n *NodeBuilder) Input(name string, sources ...domain.NodeID) *NodeBuilder {
	n.node.Inputs = append(n.node.Inputs, domain.Input{Name: name, Sources: sources, Weight: domain.WeightDefault})
	return n
}

// Wire appends an unnamed input wired from sources with the given weight.
func (n *NodeBuilder) Wire(weight domain.WireWeight, sources ...domain.NodeID) *NodeBuilder {
	n.node.Inputs = append(n.node.Inputs, domain.Input{Sources: sources, Weight: weight})
	return n
}

// Colors wires the swatches a colour policy hosted by this script reads.
func (n *NodeBuilder) Colors(swatches ...domain.NodeID) *NodeBuilder {
	return n.Input(domain.InputColors, swatches...)
}

// Build returns a copy of the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	return n.node.Clone()
}
