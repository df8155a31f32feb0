package graph

import (
	"fmt"
	"strings"

	"github.com/meshed/agentgraph/pkg/domain"
	flow "github.com/meshed/agentgraph/pkg/graph"
	"github.com/meshed/agentgraph/pkg/nodekit"
)

const terminalID = "END"

// GraphOverlay contains dynamic run data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
	Faulted      bool
}

// OverlayFromState builds an overlay from the trace and cursor of s.
func OverlayFromState(s *domain.State) *GraphOverlay {
	if s == nil {
		return nil
	}
	o := &GraphOverlay{CurrentNode: s.Cursor, Faulted: s.Fault != nil}
	for _, m := range s.Trace {
		if m.Node != "" {
			o.VisitedNodes = append(o.VisitedNodes, m.Node)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of a workflow.
// It applies semantic styling:
// - Start: ((Circle))
// - Model-driven (extraction, aggregation): {{Hexagon}}
// - Default: [Rectangle]
// Routing edges come from the router table; a plain router function has no
// inspectable edges, so only nodes are drawn.
func GenerateMermaid(wf *flow.Workflow, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, name := range wf.Nodes.Names() {
		node, _ := wf.Nodes.Lookup(name)
		safeID := sanitizeMermaidID(name)

		opener, closer := "[", "]"
		switch node.(type) {
		case *nodekit.Extraction, *nodekit.Aggregation:
			opener, closer = "{{", "}}"
		}
		if name == wf.Start {
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, name, closer)
	}

	table, ok := wf.Router.(*flow.Table)
	if ok {
		edges := table.Edges()
		for _, e := range edges {
			if e.To == domain.Terminal {
				fmt.Fprintf(&sb, "    %s(((\"end\")))\n", terminalID)
				break
			}
		}
		for _, e := range edges {
			from, to := sanitizeMermaidID(e.From), sanitizeMermaidID(e.To)
			if e.To == domain.Terminal {
				to = terminalID
			}
			label := strings.ReplaceAll(e.Label, "\"", "'")

			switch e.Kind {
			case flow.EdgeFault:
				fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", from, label, to)
			case flow.EdgeRule:
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, label, to)
			default:
				fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef faulted fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || seen[safeID] {
				continue
			}
			seen[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}

		if overlay.CurrentNode != "" {
			class := "current"
			if overlay.Faulted {
				class = "faulted"
			}
			fmt.Fprintf(&sb, "    class %s %s;\n", sanitizeMermaidID(overlay.CurrentNode), class)
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
