package ports

import "context"

// PromptLibrary defines how nodes retrieve prompt templates.
// This allows the prompt source (single markdown file, directory, memory) to be decoupled.
type PromptLibrary interface {
	// Lookup returns the template registered under name.
	// It returns prompt.ErrPromptNotFound (wrapped) when nothing matches.
	Lookup(ctx context.Context, name string) (string, error)

	// Names lists the available prompt names, used by 'agentgraph validate'.
	Names(ctx context.Context) ([]string, error)
}
