package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/meshed/agentgraph/pkg/ports"
	"github.com/meshed/agentgraph/pkg/prompt"
	"github.com/meshed/agentgraph/workflows/dbtmigration"
)

// Validate reports the registered workflows and checks that every prompt they use
// resolves and carries the placeholders its node renders. Workflow definitions themselves are checked when the app is built.
// Capability discovery is reported but never fails validation, since remote
// servers may be offline.
func Validate(ctx context.Context, app *App, w io.Writer) error {
	for _, info := range app.Service.Workflows() {
		fmt.Fprintf(w, "✓ workflow %s: %d nodes, start %s, max %d steps\n", info.Name, len(info.Nodes), info.Start, info.MaxSteps)
	}

	var errs []error
	for _, req := range dbtmigration.PromptRequirements() {
		text, err := app.Prompts.Lookup(ctx, req.Name)
		if err == nil {
			err = req.Check(text)
		}
		if err != nil {
			errs = append(errs, err)
			fmt.Fprintf(w, "✗ prompt %q: %v\n", req.Name, err)
			continue
		}
		fmt.Fprintf(w, "✓ prompt %q (placeholders: %v)\n", req.Name, prompt.Placeholders(text))
	}

	if lister, ok := app.Tools.(ports.CapabilityLister); ok {
		caps, err := lister.ListCapabilities(ctx)
		if err != nil {
			fmt.Fprintf(w, "! capability discovery: %v\n", err)
		}
		for _, c := range caps {
			fmt.Fprintf(w, "✓ capability %s\n", c.Name)
		}
	}
	return errors.Join(errs...)
}
