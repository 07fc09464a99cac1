package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	bashDefaultTimeout = 120 * time.Second
	bashMaxTimeout     = 600 * time.Second
	bashMaxOutput      = 50000 // characters
)

// dangerousPatterns are rejected before any command reaches the shell.
var dangerousPatterns = []string{"rm -rf /", "sudo", "shutdown"}

// BashTool executes shell commands inside the workspace.
type BashTool struct {
	CWD string // working directory for command execution
}

func (b *BashTool) Name() string { return "bash" }

func (b *BashTool) Description() string {
	return `Executes a bash command and returns its combined stdout and stderr.

Usage:
- Commands run in the workspace directory with a 120 second default timeout.
- Output longer than 50000 characters is truncated.
- Obviously destructive commands are rejected.`
}

func (b *BashTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The command to execute",
			},
			"timeout": map[string]any{
				"type":        "integer",
				"description": "Optional timeout in milliseconds (max 600000)",
			},
		},
		"required": []string{"command"},
	}
}

func (b *BashTool) SideEffect() SideEffectType { return SideEffectMutating }

func (b *BashTool) Execute(ctx context.Context, input map[string]any) (ToolOutput, error) {
	command, ok := input["command"].(string)
	if !ok || command == "" {
		return Errf(KindInvalidInput, "command is required"), nil
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(command, pattern) {
			return Errf(KindDangerous, "command contains forbidden pattern %q", pattern), nil
		}
	}

	timeout := bashDefaultTimeout
	if t, ok := input["timeout"].(float64); ok && t > 0 {
		timeout = time.Duration(t) * time.Millisecond
		if timeout > bashMaxTimeout {
			timeout = bashMaxTimeout
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	if b.CWD != "" {
		cmd.Dir = b.CWD
	}

	output, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return Errf(KindTimedOut, "command timed out after %s", timeout), nil
	}

	result := strings.TrimSpace(string(output))
	if result == "" {
		result = "(no output)"
	}
	if len(result) > bashMaxOutput {
		result = result[:bashMaxOutput] + fmt.Sprintf(
			"\n... (truncated, %d total characters)", len(output))
	}

	if err != nil {
		// Non-zero exit code; report the output as the error content.
		return ToolOutput{Content: result, IsError: true}, nil
	}
	return ToolOutput{Content: result}, nil
}
