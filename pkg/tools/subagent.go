package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// AgentType describes a subagent profile: which tools it gets and the
// system prompt framing its role.
type AgentType struct {
	Description string
	Tools       []string // nil means every tool except Task and team management
	Prompt      string
}

// AgentTypes is the fixed subagent profile registry.
var AgentTypes = map[string]AgentType{
	"Explore": {
		Description: "Read-only agent for exploring code, finding files, searching",
		Tools:       []string{"bash", "read_file"},
		Prompt:      "You are an exploration agent. Search and analyze, but never modify files. Return a concise summary.",
	},
	"Plan": {
		Description: "Planning agent for designing implementation strategies",
		Tools:       []string{"bash", "read_file"},
		Prompt:      "You are a planning agent. Analyze the codebase and output a numbered implementation plan. Do NOT make changes.",
	},
	"general-purpose": {
		Description: "Full agent for implementing features and fixing bugs",
		Tools:       nil,
		Prompt:      "You are a coding agent. Implement the requested changes efficiently.",
	},
}

// AgentTypeDescriptions renders the one-line-per-type digest for system
// prompts.
func AgentTypeDescriptions() string {
	names := make([]string, 0, len(AgentTypes))
	for name := range AgentTypes {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "- %s: %s\n", name, AgentTypes[name].Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// SubagentRunner executes an ephemeral subagent with an isolated
// conversation and the profile's filtered tool set, returning its final
// text reply.
type SubagentRunner func(ctx context.Context, agentType AgentType, typeName, prompt string) (string, error)

// TaskTool launches work that outlives a single tool call: an ephemeral
// subagent with isolated context, or, when team_name is given, a
// persistent teammate in an existing team.
type TaskTool struct {
	Runner      SubagentRunner
	Coordinator Coordinator
}

func (t *TaskTool) Name() string { return "Task" }

func (t *TaskTool) Description() string {
	return fmt.Sprintf(`Launch an agent to handle a delegated piece of work.

Two modes:
- Subagent (default): runs with an isolated conversation and a tool set filtered by subagent_type, then returns its final reply. Available types:
%s
- Teammate: pass team_name and name to spawn a persistent teammate into that team instead. The teammate keeps running, drains its inbox between rounds, and participates in the shared task board. Returns a JSON record of the spawn.`, AgentTypeDescriptions())
}

func (t *TaskTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": map[string]any{
				"type":        "string",
				"description": "Short (3-5 word) description of the task",
			},
			"prompt": map[string]any{
				"type":        "string",
				"description": "The task for the agent to perform",
			},
			"subagent_type": map[string]any{
				"type":        "string",
				"description": "Subagent profile: Explore, Plan, or general-purpose",
			},
			"team_name": map[string]any{
				"type":        "string",
				"description": "Spawn a persistent teammate into this team instead of a subagent",
			},
			"name": map[string]any{
				"type":        "string",
				"description": "Teammate name (required with team_name)",
			},
		},
		"required": []string{"description", "prompt"},
	}
}

func (t *TaskTool) SideEffect() SideEffectType { return SideEffectSpawns }

func (t *TaskTool) Execute(ctx context.Context, input map[string]any) (ToolOutput, error) {
	prompt, ok := input["prompt"].(string)
	if !ok || prompt == "" {
		return Errf(KindInvalidInput, "prompt is required"), nil
	}

	if teamName, _ := input["team_name"].(string); teamName != "" {
		name, _ := input["name"].(string)
		if name == "" {
			return Errf(KindInvalidInput, "name is required when spawning into a team"), nil
		}
		if t.Coordinator == nil {
			return Errf(KindInvalidInput, "team spawning is not available"), nil
		}
		result, err := t.Coordinator.Spawn(ctx, name, teamName, prompt)
		if err != nil {
			return ToolOutput{Content: "Error: " + err.Error(), IsError: true}, nil
		}
		return ToolOutput{Content: result}, nil
	}

	typeName, _ := input["subagent_type"].(string)
	if typeName == "" {
		typeName = "general-purpose"
	}
	agentType, ok := AgentTypes[typeName]
	if !ok {
		return Errf(KindInvalidInput, "unknown agent type %q", typeName), nil
	}
	if t.Runner == nil {
		return Errf(KindInvalidInput, "subagent execution is not available"), nil
	}

	result, err := t.Runner(ctx, agentType, typeName, prompt)
	if err != nil {
		return Errf(KindOracleError, "%s", err), nil
	}
	return ToolOutput{Content: result}, nil
}
