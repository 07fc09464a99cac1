package tools

import (
	"context"

	"github.com/jg-phare/crew/pkg/skills"
)

// SkillTool loads a skill's full instructions into the conversation.
type SkillTool struct {
	Loader *skills.Loader
}

func (s *SkillTool) Name() string { return "Skill" }

func (s *SkillTool) Description() string {
	return `Load a skill: expert instructions for a specific kind of task. The skill's full content is injected into the conversation as this tool's result; follow those instructions to complete the task. Invoke a skill as soon as the task matches its description.`
}

func (s *SkillTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "Name of the skill to load",
			},
			"args": map[string]any{
				"type":        "string",
				"description": "Optional arguments for the skill (e.g. a target file)",
			},
		},
		"required": []string{"name"},
	}
}

func (s *SkillTool) SideEffect() SideEffectType { return SideEffectNone }

func (s *SkillTool) Execute(_ context.Context, input map[string]any) (ToolOutput, error) {
	name, ok := input["name"].(string)
	if !ok || name == "" {
		return Errf(KindInvalidInput, "name is required"), nil
	}
	args, _ := input["args"].(string)

	injection, err := s.Loader.Injection(name, args)
	if err != nil {
		return Errf(KindInvalidInput, "%s", err), nil
	}
	return ToolOutput{Content: injection}, nil
}
