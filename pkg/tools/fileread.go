package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gopdf "github.com/ledongthuc/pdf"
)

const fileReadMaxOutput = 50000 // characters

// FileReadTool reads file contents confined to the workspace.
type FileReadTool struct {
	Root string // workspace root; reads outside it are refused
}

func (f *FileReadTool) Name() string { return "read_file" }

func (f *FileReadTool) Description() string {
	return `Reads a file from the workspace.

Usage:
- The path parameter is resolved relative to the workspace root; paths that escape the workspace are refused.
- Optionally pass limit to read only the first N lines.
- PDF files (.pdf) are read as extracted plain text.
- Output is truncated at 50000 characters.`
}

func (f *FileReadTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Path to the file, relative to the workspace root",
			},
			"limit": map[string]any{
				"type":        "number",
				"description": "Maximum number of lines to read",
			},
		},
		"required": []string{"path"},
	}
}

func (f *FileReadTool) SideEffect() SideEffectType { return SideEffectNone }

func (f *FileReadTool) Execute(_ context.Context, input map[string]any) (ToolOutput, error) {
	path, ok := input["path"].(string)
	if !ok || path == "" {
		return Errf(KindInvalidInput, "path is required"), nil
	}

	abs, err := safePath(f.Root, path)
	if err != nil {
		return Errf(KindPathEscape, "%s", path), nil
	}

	if strings.ToLower(filepath.Ext(abs)) == ".pdf" {
		return f.readPDF(abs)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return Errf(KindInvalidInput, "%s", err), nil
	}

	content := string(data)
	if limit, ok := input["limit"].(float64); ok && limit > 0 {
		lines := strings.Split(content, "\n")
		if len(lines) > int(limit) {
			lines = lines[:int(limit)]
		}
		content = strings.Join(lines, "\n")
	}
	if len(content) > fileReadMaxOutput {
		content = content[:fileReadMaxOutput]
	}
	if content == "" {
		return ToolOutput{Content: "(empty file)"}, nil
	}
	return ToolOutput{Content: content}, nil
}

// readPDF extracts plain text from a PDF file.
func (f *FileReadTool) readPDF(path string) (ToolOutput, error) {
	pdfFile, reader, err := gopdf.Open(path)
	if err != nil {
		return Errf(KindInvalidInput, "open PDF: %s", err), nil
	}
	defer pdfFile.Close()

	var sb strings.Builder
	for p := 1; p <= reader.NumPage(); p++ {
		page := reader.Page(p)
		if page.V.IsNull() {
			continue
		}
		text, extractErr := page.GetPlainText(nil)
		if extractErr != nil {
			fmt.Fprintf(&sb, "[page %d: error extracting text: %s]\n", p, extractErr)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	content := strings.TrimSpace(sb.String())
	if content == "" {
		return ToolOutput{Content: "(no text extracted from PDF)"}, nil
	}
	if len(content) > fileReadMaxOutput {
		content = content[:fileReadMaxOutput]
	}
	return ToolOutput{Content: content}, nil
}
