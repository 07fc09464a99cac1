package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jg-phare/crew/pkg/board"
)

// TaskCreateTool adds a work item to the shared task board.
type TaskCreateTool struct {
	Board *board.Board
}

func (t *TaskCreateTool) Name() string { return "TaskCreate" }

func (t *TaskCreateTool) Description() string {
	return `Create a task on the shared team task board. Returns the created task including its assigned id.`
}

func (t *TaskCreateTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subject": map[string]any{
				"type":        "string",
				"description": "Short imperative summary of the task",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Optional detailed description",
			},
		},
		"required": []string{"subject"},
	}
}

func (t *TaskCreateTool) SideEffect() SideEffectType { return SideEffectMutating }

func (t *TaskCreateTool) Execute(_ context.Context, input map[string]any) (ToolOutput, error) {
	subject, ok := input["subject"].(string)
	if !ok || subject == "" {
		return Errf(KindInvalidInput, "subject is required"), nil
	}
	body, _ := input["body"].(string)

	task, err := t.Board.Create(subject, body)
	if err != nil {
		return Errf(KindInvalidInput, "%s", err), nil
	}
	return ToolOutput{Content: renderTask(task)}, nil
}

// TaskGetTool fetches one task by id.
type TaskGetTool struct {
	Board *board.Board
}

func (t *TaskGetTool) Name() string { return "TaskGet" }

func (t *TaskGetTool) Description() string {
	return `Get a single task from the team task board by id.`
}

func (t *TaskGetTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"task_id": map[string]any{
				"type":        "string",
				"description": "Id of the task",
			},
		},
		"required": []string{"task_id"},
	}
}

func (t *TaskGetTool) SideEffect() SideEffectType { return SideEffectNone }

func (t *TaskGetTool) Execute(_ context.Context, input map[string]any) (ToolOutput, error) {
	id, ok := input["task_id"].(string)
	if !ok || id == "" {
		return Errf(KindInvalidInput, "task_id is required"), nil
	}

	task, err := t.Board.Get(id)
	if errors.Is(err, board.ErrNotFound) {
		return Errf(KindTaskNotFound, "%s", id), nil
	}
	if err != nil {
		return Errf(KindInvalidInput, "%s", err), nil
	}
	return ToolOutput{Content: renderTask(task)}, nil
}

// TaskUpdateTool applies a partial update to a task: status, owner,
// subject, body, and blocking edges.
type TaskUpdateTool struct {
	Board *board.Board
}

func (t *TaskUpdateTool) Name() string { return "TaskUpdate" }

func (t *TaskUpdateTool) Description() string {
	return `Update a task on the team task board. Only the provided fields change.

- status: pending | in_progress | completed | cancelled. Completing or cancelling a task unblocks every task that was waiting on it.
- owner: agent id claiming the task. Set owner and status in_progress together when you claim a task.
- addBlockedBy / removeBlockedBy: edit the task's blocking dependencies by task id.`
}

func (t *TaskUpdateTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"task_id": map[string]any{
				"type":        "string",
				"description": "Id of the task to update",
			},
			"status": map[string]any{
				"type": "string",
				"enum": []string{"pending", "in_progress", "completed", "cancelled"},
			},
			"owner": map[string]any{
				"type":        "string",
				"description": "Agent id that owns the task",
			},
			"subject": map[string]any{"type": "string"},
			"body":    map[string]any{"type": "string"},
			"addBlockedBy": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"removeBlockedBy": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"task_id"},
	}
}

func (t *TaskUpdateTool) SideEffect() SideEffectType { return SideEffectMutating }

func (t *TaskUpdateTool) Execute(_ context.Context, input map[string]any) (ToolOutput, error) {
	id, ok := input["task_id"].(string)
	if !ok || id == "" {
		return Errf(KindInvalidInput, "task_id is required"), nil
	}

	var u board.Update
	if s, ok := input["status"].(string); ok {
		status := board.Status(s)
		if !status.Valid() {
			return Errf(KindInvalidInput, "unknown status %q", s), nil
		}
		u.Status = &status
	}
	if owner, ok := input["owner"].(string); ok {
		u.Owner = &owner
	}
	if subject, ok := input["subject"].(string); ok {
		u.Subject = &subject
	}
	if body, ok := input["body"].(string); ok {
		u.Body = &body
	}
	u.AddBlockedBy = stringList(input["addBlockedBy"])
	u.RemoveBlockedBy = stringList(input["removeBlockedBy"])

	task, err := t.Board.Apply(id, u)
	if errors.Is(err, board.ErrNotFound) {
		return Errf(KindTaskNotFound, "%s", id), nil
	}
	if err != nil {
		return Errf(KindInvalidInput, "%s", err), nil
	}
	return ToolOutput{Content: renderTask(task)}, nil
}

// TaskListTool lists every task on the board.
type TaskListTool struct {
	Board *board.Board
}

func (t *TaskListTool) Name() string { return "TaskList" }

func (t *TaskListTool) Description() string {
	return `List all tasks on the team task board with status, owner, and blocking dependencies.`
}

func (t *TaskListTool) InputSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *TaskListTool) SideEffect() SideEffectType { return SideEffectNone }

func (t *TaskListTool) Execute(_ context.Context, _ map[string]any) (ToolOutput, error) {
	tasks, err := t.Board.List()
	if err != nil {
		return Errf(KindInvalidInput, "%s", err), nil
	}
	if len(tasks) == 0 {
		return ToolOutput{Content: "No tasks"}, nil
	}

	var sb strings.Builder
	for _, task := range tasks {
		line := fmt.Sprintf("#%s [%s] %s", task.ID, task.Status, task.Subject)
		if task.Owner != "" {
			line += " (owner: " + task.Owner + ")"
		}
		if task.Blocked() {
			line += " (blocked by: " + strings.Join(task.BlockedBy, ", ") + ")"
		}
		sb.WriteString(line + "\n")
	}
	return ToolOutput{Content: strings.TrimRight(sb.String(), "\n")}, nil
}

func renderTask(t board.Task) string {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Sprintf("#%s [%s] %s", t.ID, t.Status, t.Subject)
	}
	return string(data)
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
