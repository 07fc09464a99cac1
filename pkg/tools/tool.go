package tools

import (
	"context"
	"fmt"
)

// SideEffectType classifies a tool's impact on system state.
type SideEffectType int

const (
	SideEffectNone     SideEffectType = iota // read_file, TaskGet, TaskList
	SideEffectMutating                       // bash, write_file, edit_file, TaskCreate, TaskUpdate
	SideEffectSpawns                         // Task, TeamCreate
)

// ToolOutput is the result of a tool execution.
type ToolOutput struct {
	Content string // text content for the tool_result
	IsError bool   // when true, content is an error message
}

// Tool is the interface every tool must implement.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]any // JSON Schema object for the tools array
	SideEffect() SideEffectType
	Execute(ctx context.Context, input map[string]any) (ToolOutput, error)
}

// Error kinds surfaced in tool results as "Error: <kind>: <detail>".
const (
	KindRecipientNotFound = "RecipientNotFound"
	KindTeamNotFound      = "TeamNotFound"
	KindAlreadyExists     = "AlreadyExists"
	KindTaskNotFound      = "TaskNotFound"
	KindTimedOut          = "TimedOut"
	KindDangerous         = "Dangerous"
	KindPathEscape        = "PathEscape"
	KindInvalidInput      = "InvalidInput"
	KindOracleError       = "OracleError"
)

// Errf formats a failed tool result. Tool failures are reported to the
// model this way, never as Go errors from Execute.
func Errf(kind, format string, args ...any) ToolOutput {
	return ToolOutput{
		Content: fmt.Sprintf("Error: %s: %s", kind, fmt.Sprintf(format, args...)),
		IsError: true,
	}
}
