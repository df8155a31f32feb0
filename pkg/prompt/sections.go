package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrPromptNotFound is returned when no template matches a lookup.
var ErrPromptNotFound = errors.New("prompt not found")

// Section is one named block of a prompts file.
type Section struct {
	Name string
	Body string
}

// ParseSections splits markdown into sections.
// Lines starting with "# " or "## " open a section named after the heading text;
// deeper headings and anything inside a ``` fence belong to the body. Text before
// the first heading is dropped.
func ParseSections(text string) []Section {
	var (
		out     []Section
		current *Section
		buf     []string
		fenced  bool
	)

	flush := func() {
		if current != nil {
			current.Body = strings.TrimSpace(strings.Join(buf, "\n"))
			out = append(out, *current)
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			fenced = !fenced
		}
		if name, ok := heading(line); ok && !fenced {
			flush()
			current = &Section{Name: name}
			buf = nil
			continue
		}
		if current != nil {
			buf = append(buf, line)
		}
	}
	flush()
	return out
}

func heading(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, "## ")
	if !ok {
		rest, ok = strings.CutPrefix(line, "# ")
	}
	if !ok {
		return "", false
	}
	name := strings.TrimSpace(rest)
	return name, name != ""
}

// Sections is a PromptLibrary over the sections of one markdown document.
type Sections struct {
	source   string
	sections []Section
}

// NewSections parses text into a library. source names the document in errors.
func NewSections(source, text string) *Sections {
	return &Sections{source: source, sections: ParseSections(text)}
}

// LoadFile reads and parses a prompts file.
func LoadFile(path string) (*Sections, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}
	return NewSections(path, string(data)), nil
}

// Lookup returns the body of the section named name.
// An exact heading match wins; otherwise the first heading that contains name,
// case-insensitively, in document order.
func (s *Sections) Lookup(ctx context.Context, name string) (string, error) {
	for _, sec := range s.sections {
		if sec.Name == name {
			return sec.Body, nil
		}
	}
	needle := strings.ToLower(name)
	for _, sec := range s.sections {
		if strings.Contains(strings.ToLower(sec.Name), needle) {
			return sec.Body, nil
		}
	}
	return "", fmt.Errorf("%w: %q in %s", ErrPromptNotFound, name, s.source)
}

// Names returns the section headings in document order.
func (s *Sections) Names(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(s.sections))
	for _, sec := range s.sections {
		names = append(names, sec.Name)
	}
	return names, nil
}
