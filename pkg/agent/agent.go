// Package agent implements the round-based loop that drives one agent:
// drain inbox, call the model, dispatch tools, compact, and either return
// to the caller (top-level) or idle on the inbox (teammate).
package agent

import (
	"context"
	"fmt"

	"github.com/jg-phare/crew/pkg/compact"
	"github.com/jg-phare/crew/pkg/llm"
	"github.com/jg-phare/crew/pkg/tools"
)

// DefaultMaxRounds caps runaway tool loops within a single Run call.
const DefaultMaxRounds = 50

// Config wires an agent loop.
type Config struct {
	Client       llm.Client
	Registry     *tools.Registry
	SystemPrompt string
	Compactor    *compact.Compactor // optional
	MaxRounds    int                // default DefaultMaxRounds
}

func (c Config) maxRounds() int {
	if c.MaxRounds > 0 {
		return c.MaxRounds
	}
	return DefaultMaxRounds
}

// Result is the outcome of one top-level Run invocation.
type Result struct {
	Text   string // final text-only reply
	Rounds int
}

// Agent is a top-level, user-driven loop. The conversation persists
// across Run calls so a REPL can hold one session.
type Agent struct {
	cfg          Config
	conversation []llm.Message
	collab       Collab // optional; lets the top-level agent drain its own inbox
}

// New creates a top-level agent. collab may be nil when the agent has no
// inbox of its own.
func New(cfg Config, collab Collab) *Agent {
	return &Agent{cfg: cfg, collab: collab}
}

// Run appends the user prompt and loops through model calls and tool
// dispatch until the model answers with a text-only reply, which is
// returned to the caller.
func (a *Agent) Run(ctx context.Context, prompt string) (*Result, error) {
	a.conversation = append(a.conversation, llm.UserText(prompt))

	for round := 1; round <= a.cfg.maxRounds(); round++ {
		if a.collab != nil {
			observations, _, err := drainObservations(a.collab)
			if err != nil {
				return nil, err
			}
			a.conversation = append(a.conversation, observations...)
		}

		resp, err := a.cfg.Client.Complete(ctx, a.request())
		if err != nil {
			// A model failure ends the round, not the session. Surface it
			// as the terminal text so the caller can show it and retry.
			return &Result{Text: fmt.Sprintf("Error: OracleError: %s", err), Rounds: round}, nil
		}

		done, text := a.dispatch(ctx, resp)
		a.compactIfNeeded(ctx)
		if done {
			return &Result{Text: text, Rounds: round}, nil
		}
	}
	return nil, fmt.Errorf("no final reply after %d rounds", a.cfg.maxRounds())
}

// Conversation exposes the accumulated history (for inspection and
// tests).
func (a *Agent) Conversation() []llm.Message {
	return a.conversation
}

func (a *Agent) request() *llm.Request {
	return &llm.Request{
		System:   a.cfg.SystemPrompt,
		Messages: a.conversation,
		Tools:    a.cfg.Registry.Definitions(),
	}
}

// dispatch appends the model turn and, for tool calls, the tool results.
// It reports whether the reply was terminal (text-only) and its text.
func (a *Agent) dispatch(ctx context.Context, resp *llm.Response) (done bool, text string) {
	a.conversation = append(a.conversation, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})

	uses := resp.ToolUses()
	if len(uses) == 0 {
		return true, resp.TextContent()
	}

	results := executeTools(ctx, a.cfg.Registry, uses)
	a.conversation = append(a.conversation, llm.Message{Role: llm.RoleUser, Content: results})
	return false, ""
}

func (a *Agent) compactIfNeeded(ctx context.Context) {
	if a.cfg.Compactor != nil && a.cfg.Compactor.ShouldCompact(a.conversation) {
		a.conversation = a.cfg.Compactor.Compact(ctx, a.conversation)
	}
}

// executeTools runs each tool_use block in order and returns one
// tool_result block per call, in request order. Tool failures are
// reported to the model, never raised.
func executeTools(ctx context.Context, registry *tools.Registry, uses []llm.ContentBlock) []llm.ContentBlock {
	results := make([]llm.ContentBlock, 0, len(uses))
	for _, use := range uses {
		content, isError := runTool(ctx, registry, use)
		results = append(results, llm.ToolResult(use.ID, content, isError))
	}
	return results
}

func runTool(ctx context.Context, registry *tools.Registry, use llm.ContentBlock) (content string, isError bool) {
	tool, ok := registry.Get(use.Name)
	if !ok {
		return fmt.Sprintf("Error: InvalidInput: unknown tool %q", use.Name), true
	}
	if registry.IsDisabled(use.Name) {
		return fmt.Sprintf("Error: InvalidInput: tool %q is not available to this agent", use.Name), true
	}

	out, err := tool.Execute(ctx, use.Input)
	if err != nil {
		return fmt.Sprintf("Error: %s", err), true
	}
	return out.Content, out.IsError
}
