package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/grove/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	// Annotated lists the nodes a policy changed.
	Annotated []domain.NodeID
}

// GenerateMermaid produces a Mermaid flowchart from a document.
// Groups become subgraphs filled with the group colour. A node listed in several groups
// is drawn inside the first one reached. Node shapes:
// - Component: [Rectangle]
// - Script: {{Hexagon}}
// - Param: [/Parallelogram/]
// - Swatch: ((Circle))
// Wires: default -->, faint -.->, hidden ~~~.
func GenerateMermaid(nodes []domain.Node, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	byID := make(map[domain.NodeID]domain.Node, len(nodes))
	nested := make(map[domain.NodeID]bool)
	for _, n := range nodes {
		byID[n.ID] = n
		if n.IsGroup() {
			for _, m := range n.Members {
				nested[m] = true
			}
		}
	}

	placed := make(map[domain.NodeID]bool)
	for _, n := range nodes {
		if n.IsGroup() && !nested[n.ID] {
			writeGroup(&sb, n, byID, placed, "    ")
		}
	}
	// Groups only reachable through a cycle have no root; draw them flat.
	for _, n := range nodes {
		if n.IsGroup() && !placed[n.ID] {
			writeGroup(&sb, n, byID, placed, "    ")
		}
	}
	for _, n := range nodes {
		if !n.IsGroup() && !placed[n.ID] {
			sb.WriteString("    " + nodeLabel(n) + "\n")
		}
	}

	for _, n := range nodes {
		for _, in := range n.Inputs {
			for _, src := range in.Sources {
				sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(string(src)), arrow(in), sanitizeMermaidID(string(n.ID))))
			}
		}
	}

	for _, n := range nodes {
		if n.IsGroup() && !n.Color.IsZero() {
			sb.WriteString(fmt.Sprintf("    style %s fill:%s\n", sanitizeMermaidID(string(n.ID)), n.Color.Hex()))
		}
	}

	// Apply Overlay Styles
	if overlay != nil && len(overlay.Annotated) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef annotated stroke:#fbc02d,stroke-width:3px;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Annotated {
			n, ok := byID[id]
			if !ok || n.IsGroup() {
				continue
			}
			safeID := sanitizeMermaidID(string(id))
			if !seen[safeID] {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s annotated;\n", safeID))
			}
		}
	}

	return sb.String()
}

func writeGroup(sb *strings.Builder, g domain.Node, byID map[domain.NodeID]domain.Node, placed map[domain.NodeID]bool, indent string) {
	placed[g.ID] = true
	sb.WriteString(fmt.Sprintf("%ssubgraph %s[\"%s\"]\n", indent, sanitizeMermaidID(string(g.ID)), escape(g.Name)))
	for _, id := range g.Members {
		m, ok := byID[id]
		if !ok || placed[id] {
			continue
		}
		if m.IsGroup() {
			writeGroup(sb, m, byID, placed, indent+"    ")
			continue
		}
		placed[id] = true
		sb.WriteString(indent + "    " + nodeLabel(m) + "\n")
	}
	sb.WriteString(indent + "end\n")
}

func nodeLabel(n domain.Node) string {
	opener, closer := "[", "]"
	switch {
	case n.IsSwatch():
		opener, closer = "((", "))"
	case n.IsScript():
		opener, closer = "{{", "}}"
	case n.IsParam():
		opener, closer = "[/", "/]"
	}
	return fmt.Sprintf("%s%s\"%s\"%s", sanitizeMermaidID(string(n.ID)), opener, escape(n.Name), closer)
}

func arrow(in domain.Input) string {
	label := escape(in.Name)
	switch in.Weight {
	case domain.WeightFaint:
		if label != "" {
			return fmt.Sprintf("-. \"%s\" .->", label)
		}
		return "-.->"
	case domain.WeightHidden:
		return "~~~"
	}
	if label != "" {
		return fmt.Sprintf("-- \"%s\" -->", label)
	}
	return "-->"
}

// escape replaces double quotes, which would end a Mermaid label.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
