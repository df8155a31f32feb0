package prompt

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"
)

// Metadata is the frontmatter of a prompt document.
type Metadata struct {
	Name        string   `json:"name" mapstructure:"name"`
	Description string   `json:"description" mapstructure:"description"`
	Variables   []string `json:"variables" mapstructure:"variables"`
}

// Library is a PromptLibrary backed by a loam repository of markdown documents.
// A document's prompt name is its "name" frontmatter key, or its ID without extension.
type Library struct {
	Repo *loam.TypedRepository[Metadata]
}

// OpenLibrary opens the prompt directory at dir read-only.
func OpenLibrary(dir string) (*Library, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve prompt directory: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithVersioning(false),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open prompt repository: %w", err)
	}
	return NewLibrary(loam.NewTypedRepository[Metadata](repo)), nil
}

// NewLibrary wraps an existing typed repository.
func NewLibrary(repo *loam.TypedRepository[Metadata]) *Library {
	return &Library{Repo: repo}
}

type entry struct {
	name string
	body string
}

func (l *Library) entries(ctx context.Context) ([]entry, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	out := make([]entry, 0, len(docs))
	for _, doc := range docs {
		name := doc.Data.Name
		if name == "" {
			name = trimExtension(doc.ID)
		}
		out = append(out, entry{name: name, body: strings.TrimSpace(doc.Content)})
	}
	return out, nil
}

// Lookup returns the body of the prompt named name, with the same exact-then-substring
// matching as Sections.
func (l *Library) Lookup(ctx context.Context, name string) (string, error) {
	entries, err := l.entries(ctx)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.name == name {
			return e.body, nil
		}
	}
	needle := strings.ToLower(name)
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.name), needle) {
			return e.body, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrPromptNotFound, name)
}

// Names lists every prompt name in the repository.
func (l *Library) Names(ctx context.Context) ([]string, error) {
	entries, err := l.entries(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
	}
	return names, nil
}

func trimExtension(id string) string {
	id = filepath.ToSlash(id)
	return strings.TrimSuffix(id, filepath.Ext(id))
}
