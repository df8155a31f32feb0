package tui

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/muesli/termenv"
)

// Summary renders the outcome of a finished run.
type Summary struct {
	// Render turns markdown into terminal output. Nil prints markdown as is.
	Render func(string) (string, error)
}

// Markdown describes record and the artifacts (path to content) it produced.
func (s Summary) Markdown(record *domain.RunRecord, artifacts map[string]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Run `%s`\n\n", record.ID)
	fmt.Fprintf(&sb, "- **workflow**: %s\n", record.Workflow)
	fmt.Fprintf(&sb, "- **steps**: %d\n", record.Steps)
	if !record.StartedAt.IsZero() && !record.FinishedAt.IsZero() {
		fmt.Fprintf(&sb, "- **duration**: %s\n", record.FinishedAt.Sub(record.StartedAt).Round(1e6))
	}
	if f := record.Fault(); f != nil {
		fmt.Fprintf(&sb, "- **fault**: `%s` at `%s`: %s\n", f.Kind, f.Node, f.Message)
	} else {
		sb.WriteString("- **status**: completed\n")
	}

	paths := make([]string, 0, len(artifacts))
	for p := range artifacts {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(&sb, "\n## %s\n\n```%s\n%s\n```\n", p, fenceLanguage(p), strings.TrimRight(artifacts[p], "\n"))
	}
	return sb.String()
}

// Print writes the rendered summary to w.
func (s Summary) Print(w io.Writer, record *domain.RunRecord, artifacts map[string]string) error {
	md := s.Markdown(record, artifacts)
	if s.Render != nil {
		if rendered, err := s.Render(md); err == nil {
			md = rendered
		}
	}
	_, err := io.WriteString(w, md)
	return err
}

// FaultLine formats a fault for a single status line, in red on color terminals.
func FaultLine(w io.Writer, f *domain.Fault) string {
	if f == nil {
		return ""
	}
	out := termenv.NewOutput(w)
	line := fmt.Sprintf("✗ %s", f.Error())
	if f.Node != "" {
		line += " (node " + f.Node + ")"
	}
	return out.String(line).Foreground(out.Color("#ef4444")).Bold().String()
}

func fenceLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sql":
		return "sql"
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	}
	return ""
}
