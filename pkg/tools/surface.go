package tools

import (
	"github.com/jg-phare/crew/pkg/background"
	"github.com/jg-phare/crew/pkg/board"
	"github.com/jg-phare/crew/pkg/skills"
)

// Deps carries the shared infrastructure the tool surface is built on.
type Deps struct {
	Workspace   string // root directory for file tools and bash
	Board       *board.Board
	Executor    *background.Executor
	Coordinator Coordinator
	Skills      *skills.Loader
	Subagent    SubagentRunner
}

// register adds the full tool set to r. Team management is always
// registered; callers decide whether it is enabled.
func register(r *Registry, d Deps) {
	r.Register(&BashTool{CWD: d.Workspace})
	r.Register(&FileReadTool{Root: d.Workspace})
	r.Register(&FileWriteTool{Root: d.Workspace})
	r.Register(&FileEditTool{Root: d.Workspace})
	r.Register(&TaskTool{Runner: d.Subagent, Coordinator: d.Coordinator})
	r.Register(&SkillTool{Loader: d.Skills})
	r.Register(&TaskCreateTool{Board: d.Board})
	r.Register(&TaskGetTool{Board: d.Board})
	r.Register(&TaskUpdateTool{Board: d.Board})
	r.Register(&TaskListTool{Board: d.Board})
	r.Register(&TaskOutputTool{Executor: d.Executor})
	r.Register(&TaskStopTool{Executor: d.Executor})
	r.Register(&SendMessageTool{Coordinator: d.Coordinator})
	r.Register(&TeamCreateTool{Coordinator: d.Coordinator})
	r.Register(&TeamDeleteTool{Coordinator: d.Coordinator})
}

// NewUserRegistry builds the 15-tool surface of the top-level user agent.
func NewUserRegistry(d Deps) *Registry {
	r := NewRegistry()
	register(r, d)
	return r
}

// NewTeammateRegistry builds the 13-tool teammate surface. Team
// management tools are registered but disabled, so a teammate that asks
// for them is refused.
func NewTeammateRegistry(d Deps) *Registry {
	r := NewRegistry(WithDisabled("TeamCreate", "TeamDelete"))
	register(r, d)
	return r
}
