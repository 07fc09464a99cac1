package tools

import "context"

// TeamDeleteTool shuts down a team and all its members.
type TeamDeleteTool struct {
	Coordinator Coordinator
}

func (t *TeamDeleteTool) Name() string { return "TeamDelete" }

func (t *TeamDeleteTool) Description() string {
	return `Delete a team. Every member receives a shutdown_request, member statuses flip to shutdown, and the team is removed from the registry. The team directory on disk is retained. Safe to call more than once.`
}

func (t *TeamDeleteTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"team_name": map[string]any{
				"type":        "string",
				"description": "Name of the team to delete",
			},
		},
		"required": []string{"team_name"},
	}
}

func (t *TeamDeleteTool) SideEffect() SideEffectType { return SideEffectMutating }

func (t *TeamDeleteTool) Execute(ctx context.Context, input map[string]any) (ToolOutput, error) {
	teamName, ok := input["team_name"].(string)
	if !ok || teamName == "" {
		return Errf(KindInvalidInput, "team_name is required"), nil
	}

	result, err := t.Coordinator.DeleteTeam(ctx, teamName)
	if err != nil {
		return ToolOutput{Content: "Error: " + err.Error(), IsError: true}, nil
	}
	return ToolOutput{Content: result}, nil
}
