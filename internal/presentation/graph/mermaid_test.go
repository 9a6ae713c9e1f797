package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/grove/internal/presentation/graph"
	"github.com/aretw0/grove/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name        string
		nodes       []domain.Node
		overlay     *graph.GraphOverlay
		contains    []string
		notContains []string
	}{
		{
			name: "Node Shapes",
			nodes: []domain.Node{
				{ID: "c1", Name: "Box", Role: domain.RoleComponent},
				{ID: "s1", Name: "ColGrps", Role: domain.RoleComponent, Kind: domain.KindScript},
				{ID: "p1", Name: "Width", Role: domain.RoleParam},
				{ID: "w1", Name: "in_Blue", Role: domain.RoleParam, Kind: domain.KindSwatch},
			},
			contains: []string{
				"c1[\"Box\"]",
				"s1{{\"ColGrps\"}}",
				"p1[/\"Width\"/]",
				"w1((\"in_Blue\"))",
			},
		},
		{
			name: "ID Sanitization",
			nodes: []domain.Node{
				{ID: "path/to/node.x", Name: "n"},
				{ID: "hyphen-ated", Name: "say \"hi\""},
			},
			contains: []string{
				"path_to_node_x[\"n\"]",
				"hyphen_ated[\"say 'hi'\"]",
			},
		},
		{
			name: "Wire Weights",
			nodes: []domain.Node{
				{ID: "a", Name: "A"},
				{ID: "b", Name: "B", Inputs: []domain.Input{
					{Sources: []domain.NodeID{"a"}},
					{Name: "Y", Sources: []domain.NodeID{"a"}, Weight: domain.WeightFaint},
					{Sources: []domain.NodeID{"a"}, Weight: domain.WeightFaint},
					{Sources: []domain.NodeID{"a"}, Weight: domain.WeightHidden},
				}},
			},
			contains: []string{
				"a --> b",
				"a -. \"Y\" .-> b",
				"a -.-> b",
				"a ~~~ b",
			},
		},
		{
			name: "Nested Groups",
			nodes: []domain.Node{
				{ID: "g1", Name: "in_Outer", Role: domain.RoleGroup, Members: []domain.NodeID{"g2", "a"}, Color: domain.RGB(0, 0, 255)},
				{ID: "g2", Name: "Inner", Role: domain.RoleGroup, Members: []domain.NodeID{"b"}},
				{ID: "a", Name: "A"},
				{ID: "b", Name: "B"},
			},
			contains: []string{
				"    subgraph g1[\"in_Outer\"]\n        subgraph g2[\"Inner\"]\n            b[\"B\"]\n        end\n        a[\"A\"]\n    end\n",
				"style g1 fill:#0000ff",
			},
			notContains: []string{
				"style g2",
			},
		},
		{
			name: "Overlay",
			nodes: []domain.Node{
				{ID: "g1", Name: "G", Role: domain.RoleGroup},
				{ID: "a", Name: "A"},
			},
			overlay: &graph.GraphOverlay{Annotated: []domain.NodeID{"a", "a", "g1", "gone"}},
			contains: []string{
				"classDef annotated",
				"class a annotated;",
			},
			notContains: []string{
				"class g1 annotated;",
				"class gone",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.nodes, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() missing %q\nGot:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.notContains {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() unexpectedly contains %q\nGot:\n%s", unwanted, got)
				}
			}
			if strings.Count(got, "class a annotated;") > 1 {
				t.Errorf("GenerateMermaid() styled a node twice\nGot:\n%s", got)
			}
		})
	}
}
