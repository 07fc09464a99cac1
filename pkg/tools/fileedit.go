package tools

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// FileEditTool replaces the first occurrence of a text fragment in a file.
type FileEditTool struct {
	Root string
}

func (f *FileEditTool) Name() string { return "edit_file" }

func (f *FileEditTool) Description() string {
	return `Replaces the first occurrence of old_text with new_text in a workspace file. Fails when old_text is not present.`
}

func (f *FileEditTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Path to the file, relative to the workspace root",
			},
			"old_text": map[string]any{
				"type":        "string",
				"description": "Exact text to find",
			},
			"new_text": map[string]any{
				"type":        "string",
				"description": "Text to replace it with",
			},
		},
		"required": []string{"path", "old_text", "new_text"},
	}
}

func (f *FileEditTool) SideEffect() SideEffectType { return SideEffectMutating }

func (f *FileEditTool) Execute(_ context.Context, input map[string]any) (ToolOutput, error) {
	path, ok := input["path"].(string)
	if !ok || path == "" {
		return Errf(KindInvalidInput, "path is required"), nil
	}
	oldText, ok := input["old_text"].(string)
	if !ok || oldText == "" {
		return Errf(KindInvalidInput, "old_text is required"), nil
	}
	newText, _ := input["new_text"].(string)

	abs, err := safePath(f.Root, path)
	if err != nil {
		return Errf(KindPathEscape, "%s", path), nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return Errf(KindInvalidInput, "%s", err), nil
	}
	text := string(data)
	if !strings.Contains(text, oldText) {
		return Errf(KindInvalidInput, "text not found in %s", path), nil
	}

	text = strings.Replace(text, oldText, newText, 1)
	if err := os.WriteFile(abs, []byte(text), 0o644); err != nil {
		return Errf(KindInvalidInput, "%s", err), nil
	}
	return ToolOutput{Content: fmt.Sprintf("Edited %s", path)}, nil
}
