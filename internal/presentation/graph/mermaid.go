package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/graph"
)

// Overlay contains run state to highlight on the diagram.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart for a compiled graph.
// Start and End are drawn as circles, nodes whose name contains "tool" as
// subroutines, everything else as rectangles. Conditional edges are dotted.
func GenerateMermaid(g *graph.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	fmt.Fprintf(&sb, "    %s((\"start\"))\n", sanitizeMermaidID(graph.Start))

	for _, node := range g.Nodes() {
		opener, closer := "[", "]"
		if strings.Contains(strings.ToLower(node), "tool") {
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(node), opener, node, closer)
	}
	fmt.Fprintf(&sb, "    %s((\"end\"))\n", sanitizeMermaidID(graph.End))

	for _, e := range g.Edges() {
		arrow := "-->"
		if e.Conditional {
			arrow = "-.->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.From), arrow, sanitizeMermaidID(e.To))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on both light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// "end" is a Mermaid keyword, so the terminals get upper-case ids.
func sanitizeMermaidID(id string) string {
	switch id {
	case graph.Start:
		return "START"
	case graph.End:
		return "END"
	}
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
