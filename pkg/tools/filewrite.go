package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileWriteTool writes file contents confined to the workspace.
type FileWriteTool struct {
	Root string
}

func (f *FileWriteTool) Name() string { return "write_file" }

func (f *FileWriteTool) Description() string {
	return `Writes content to a file in the workspace, overwriting it if it exists. Parent directories are created as needed. Paths that escape the workspace are refused.`
}

func (f *FileWriteTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Path to the file, relative to the workspace root",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The content to write",
			},
		},
		"required": []string{"path", "content"},
	}
}

func (f *FileWriteTool) SideEffect() SideEffectType { return SideEffectMutating }

func (f *FileWriteTool) Execute(_ context.Context, input map[string]any) (ToolOutput, error) {
	path, ok := input["path"].(string)
	if !ok || path == "" {
		return Errf(KindInvalidInput, "path is required"), nil
	}
	content, ok := input["content"].(string)
	if !ok {
		return Errf(KindInvalidInput, "content is required"), nil
	}

	abs, err := safePath(f.Root, path)
	if err != nil {
		return Errf(KindPathEscape, "%s", path), nil
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return Errf(KindInvalidInput, "%s", err), nil
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return Errf(KindInvalidInput, "%s", err), nil
	}
	return ToolOutput{Content: fmt.Sprintf("Wrote %d bytes to %s", len(content), path)}, nil
}
