package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jg-phare/crew/pkg/background"
)

const taskOutputDefaultTimeout = 30 * time.Second

// TaskOutputTool reads output from a background unit by handle.
type TaskOutputTool struct {
	Executor *background.Executor
}

func (t *TaskOutputTool) Name() string { return "TaskOutput" }

func (t *TaskOutputTool) Description() string {
	return `Read the output of a background task (a spawned teammate or background command) by handle. Each call returns only output produced since the previous call. With block=true it waits up to timeout_ms for new output.`
}

func (t *TaskOutputTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"task_id": map[string]any{
				"type":        "string",
				"description": "Handle returned when the task was started (e.g. t1, b2)",
			},
			"block": map[string]any{
				"type":        "boolean",
				"description": "Wait for new output when none is pending",
			},
			"timeout_ms": map[string]any{
				"type":        "integer",
				"description": "Maximum wait in milliseconds when blocking (default 30000)",
			},
		},
		"required": []string{"task_id"},
	}
}

func (t *TaskOutputTool) SideEffect() SideEffectType { return SideEffectNone }

func (t *TaskOutputTool) Execute(_ context.Context, input map[string]any) (ToolOutput, error) {
	handle, ok := input["task_id"].(string)
	if !ok || handle == "" {
		return Errf(KindInvalidInput, "task_id is required"), nil
	}
	block, _ := input["block"].(bool)
	timeout := taskOutputDefaultTimeout
	if ms, ok := input["timeout_ms"].(float64); ok && ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	out, err := t.Executor.Output(handle, block, timeout)
	if errors.Is(err, background.ErrUnknownHandle) {
		return Errf(KindTaskNotFound, "%s", handle), nil
	}
	if err != nil {
		return Errf(KindInvalidInput, "%s", err), nil
	}
	if out == "" {
		return ToolOutput{Content: "(no new output)"}, nil
	}
	return ToolOutput{Content: out}, nil
}

// TaskStopTool cancels a background unit.
type TaskStopTool struct {
	Executor *background.Executor
}

func (t *TaskStopTool) Name() string { return "TaskStop" }

func (t *TaskStopTool) Description() string {
	return `Stop a running background task by handle. The task's context is cancelled and it is given a short grace period to exit.`
}

func (t *TaskStopTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"task_id": map[string]any{
				"type":        "string",
				"description": "Handle of the task to stop",
			},
		},
		"required": []string{"task_id"},
	}
}

func (t *TaskStopTool) SideEffect() SideEffectType { return SideEffectMutating }

func (t *TaskStopTool) Execute(_ context.Context, input map[string]any) (ToolOutput, error) {
	handle, ok := input["task_id"].(string)
	if !ok || handle == "" {
		return Errf(KindInvalidInput, "task_id is required"), nil
	}

	err := t.Executor.Stop(handle)
	if errors.Is(err, background.ErrUnknownHandle) {
		return Errf(KindTaskNotFound, "%s", handle), nil
	}
	if err != nil {
		return Errf(KindInvalidInput, "%s", err), nil
	}
	return ToolOutput{Content: fmt.Sprintf("Stopped %s", handle)}, nil
}
