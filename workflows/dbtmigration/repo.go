package dbtmigration

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/nodekit"
	"github.com/meshed/agentgraph/pkg/ports"
	"github.com/spf13/cast"
)

// treePageSize is the listing page size requested from the repository.
const treePageSize = 500

// repoFetch locates one file in a repository tree and reads it.
type repoFetch struct {
	Project string
	Path    string
	Ref     string
	// Names are the acceptable file names, in order of preference.
	Names []string
}

// fetchResult is the outcome of one repoFetch. Records are recorded by the caller
// so concurrent fetches keep a deterministic trace.
type fetchResult struct {
	Content string
	Records []domain.CallRecord
	Fault   *domain.Fault
}

func (f repoFetch) run(ctx context.Context, tools ports.ToolAdapter, deadline time.Duration) fetchResult {
	var res fetchResult

	tree := nodekit.InvokeTool(ctx, tools, domain.ToolCall{
		Capability: CapRepoTree,
		Args: map[string]any{
			"project_id": f.Project,
			"path":       f.Path,
			"ref":        f.Ref,
			"recursive":  true,
			"per_page":   treePageSize,
		},
		Deadline: deadline,
	})
	res.Records = append(res.Records, tree)
	if !tree.OK() {
		res.Fault = tree.Fault
		return res
	}

	path, ok := findBlob(tree.Result, f.Names)
	if !ok {
		res.Fault = &domain.Fault{
			Kind:    domain.FaultToolError,
			Code:    domain.CodeNotFound,
			Message: fmt.Sprintf("no file named %s under %q", strings.Join(f.Names, " or "), f.Path),
		}
		return res
	}

	file := nodekit.InvokeTool(ctx, tools, domain.ToolCall{
		Capability: CapRepoFile,
		Args:       map[string]any{"project_id": f.Project, "file_path": path, "ref": f.Ref},
		Deadline:   deadline,
	})
	res.Records = append(res.Records, file)
	if !file.OK() {
		res.Fault = file.Fault
		return res
	}

	content, err := fileContent(file.Result)
	if err != nil {
		res.Fault = &domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeRemote, Message: err.Error()}
		return res
	}
	if strings.TrimSpace(content) == "" {
		res.Fault = &domain.Fault{
			Kind:    domain.FaultToolError,
			Code:    domain.CodeNotFound,
			Message: fmt.Sprintf("file %s is empty", path),
		}
		return res
	}
	res.Content = content
	return res
}

// findBlob returns the path of the first blob entry matching names, preferring
// earlier names.
func findBlob(tree any, names []string) (string, bool) {
	if s, ok := tree.(string); ok {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return "", false
		}
		tree = decoded
	}
	items, _ := tree.([]any)
	for _, name := range names {
		for _, item := range items {
			entry, ok := item.(map[string]any)
			if !ok || cast.ToString(entry["type"]) != "blob" {
				continue
			}
			if cast.ToString(entry["name"]) == name {
				return cast.ToString(entry["path"]), true
			}
		}
	}
	return "", false
}

// fileContent extracts the text of a file read. The repository returns either the
// text itself or an object with content and an optional base64 encoding.
func fileContent(result any) (string, error) {
	switch v := result.(type) {
	case string:
		return v, nil
	case map[string]any:
		content := cast.ToString(v["content"])
		if cast.ToString(v["encoding"]) != "base64" {
			return content, nil
		}
		data, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return "", fmt.Errorf("invalid base64 file content: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("unexpected file result %T", result)
}

func modelFiles(model string) []string {
	return []string{model + ".sql"}
}

func schemaFiles(model string) []string {
	return []string{
		"schema_" + model + ".yaml",
		model + "_schema.yaml",
		"schema_" + model + ".yml",
		model + "_schema.yml",
	}
}
