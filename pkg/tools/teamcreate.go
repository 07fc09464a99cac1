package tools

import "context"

// TeamCreateTool creates a new agent team.
type TeamCreateTool struct {
	Coordinator Coordinator
}

func (t *TeamCreateTool) Name() string { return "TeamCreate" }

func (t *TeamCreateTool) Description() string {
	return `Create a new team to coordinate multiple agents working on a project.

## Team Workflow
1. Create a team with TeamCreate.
2. Create tasks with TaskCreate and wire dependencies with TaskUpdate.
3. Spawn teammates with the Task tool, passing team_name and name.
4. Assign tasks by setting owner via TaskUpdate.
5. Communicate through SendMessage; teammates cannot hear you otherwise.
6. When done, shut the team down with TeamDelete.`
}

func (t *TeamCreateTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"team_name": map[string]any{
				"type":        "string",
				"description": "Name for the team",
			},
		},
		"required": []string{"team_name"},
	}
}

func (t *TeamCreateTool) SideEffect() SideEffectType { return SideEffectSpawns }

func (t *TeamCreateTool) Execute(ctx context.Context, input map[string]any) (ToolOutput, error) {
	teamName, ok := input["team_name"].(string)
	if !ok || teamName == "" {
		return Errf(KindInvalidInput, "team_name is required"), nil
	}

	result, err := t.Coordinator.CreateTeam(ctx, teamName)
	if err != nil {
		return ToolOutput{Content: "Error: " + err.Error(), IsError: true}, nil
	}
	return ToolOutput{Content: result}, nil
}
