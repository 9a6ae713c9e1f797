package dsl

import (
	"testing"

	"github.com/aretw0/grove/pkg/domain"
)

func TestBuilder_Document(t *testing.T) {
	// 1. Build the graph using DSL
	b := New()

	b.Script("colgrps", "ColGrps").Colors("blue")
	b.Swatch("blue", "in_Blue", domain.RGB(0, 0, 255))
	b.Group("g1", "in_Width").Members("p1")
	b.Param("p1", "Width")
	b.Component("c1", "Box").Input("W", "p1")

	// 2. Compile to Document
	doc, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	// 3. Verify specific nodes
	script, ok := doc.Node("colgrps")
	if !ok {
		t.Fatal("Expected script node")
	}
	if !script.IsScript() {
		t.Errorf("Expected a script component, got %+v", script)
	}
	colors, ok := script.InputNamed(domain.InputColors)
	if !ok || len(colors.Sources) != 1 || colors.Sources[0] != "blue" {
		t.Errorf("Unexpected colour input: %+v", colors)
	}

	blue, _ := doc.Node("blue")
	if !blue.IsSwatch() || blue.Color != domain.RGB(0, 0, 255) {
		t.Errorf("Unexpected swatch: %+v", blue)
	}

	p1, _ := doc.Node("p1")
	if p1.Display != domain.DisplayIcon {
		t.Errorf("Expected icon display, got %q", p1.Display)
	}

	g1, _ := doc.Node("g1")
	if len(g1.Members) != 1 || g1.Members[0] != "p1" {
		t.Errorf("Unexpected members: %v", g1.Members)
	}
}

func TestBuilder_InsertionOrderAndReuse(t *testing.T) {
	b := New()
	b.Group("g1", "A")
	b.Param("p1", "Width")
	b.Group("g1", "ignored").Members("p1")

	nodes := b.Nodes()
	if len(nodes) != 2 {
		t.Fatalf("Expected 2 nodes, got %d", len(nodes))
	}
	if nodes[0].ID != "g1" || nodes[0].Name != "A" || len(nodes[0].Members) != 1 {
		t.Errorf("Expected the existing builder to be reused, got %+v", nodes[0])
	}

	// Nodes are copies.
	nodes[0].Members[0] = "tampered"
	if b.Nodes()[0].Members[0] != "p1" {
		t.Error("Expected Nodes to return copies")
	}
}

func TestBuilder_DanglingReference(t *testing.T) {
	b := New()
	b.Component("c1", "Box").Wire(domain.WeightFaint, "missing")

	if _, err := b.Build(); err == nil {
		t.Error("Expected error for a wire from a missing node")
	}
}
