// Crew is an interactive multi-agent coding assistant. The top-level
// agent talks to the user and can spin up teams of persistent teammates
// that coordinate through file-backed inboxes and a shared task board.
//
// Usage:
//
//	source .env
//	go run ./cmd/crew/ -workspace .
//
//	# one-shot
//	go run ./cmd/crew/ -prompt "create a team and plan the refactor"
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/jg-phare/crew/pkg/agent"
	"github.com/jg-phare/crew/pkg/background"
	"github.com/jg-phare/crew/pkg/board"
	"github.com/jg-phare/crew/pkg/compact"
	"github.com/jg-phare/crew/pkg/inbox"
	"github.com/jg-phare/crew/pkg/llm"
	"github.com/jg-phare/crew/pkg/skills"
	"github.com/jg-phare/crew/pkg/team"
	"github.com/jg-phare/crew/pkg/tools"
)

func main() {
	baseURL := flag.String("base-url", "https://api.anthropic.com", "API base URL")
	apiKey := flag.String("api-key", "", "API key (overrides ANTHROPIC_API_KEY)")
	model := flag.String("model", "claude-sonnet-4-5-20250929", "Model ID")
	workspace := flag.String("workspace", "", "Workspace root (default: current directory)")
	prompt := flag.String("prompt", "", "One-shot prompt; omit for the interactive REPL")
	envFile := flag.String("env", ".env", "Path to .env file (empty to skip)")
	flag.Parse()

	if *envFile != "" {
		loadEnvFile(*envFile)
	}
	if *apiKey == "" {
		*apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: no API key: set ANTHROPIC_API_KEY or use -api-key")
		os.Exit(1)
	}
	if *workspace == "" {
		cwd, err := os.Getwd()
		if err != nil {
			log.Fatalf("resolve workspace: %v", err)
		}
		*workspace = cwd
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, err := buildApp(*workspace, llm.Config{
		BaseURL: *baseURL,
		APIKey:  *apiKey,
		Model:   *model,
	})
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	if *prompt != "" {
		if err := app.runOnce(ctx, *prompt); err != nil {
			log.Fatal(err)
		}
		return
	}
	app.repl(ctx)
}

// app holds the wired-up assistant: one lead agent over shared
// infrastructure, plus the factories that build teammate and subagent
// loops on demand.
type app struct {
	lead     *agent.Agent
	registry *team.Registry
}

func buildApp(workspace string, llmCfg llm.Config) (*app, error) {
	client := llm.NewClient(llmCfg)
	stateDir := filepath.Join(workspace, ".crew")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	taskBoard := board.New(stateDir)
	executor := background.NewExecutor()
	store := &inbox.Store{Logf: log.Printf}
	loader, err := skills.NewLoader(filepath.Join(workspace, "skills"))
	if err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	compactor := compact.NewCompactor(compact.Config{Client: client})

	// The registry's teammate runner and the tool deps both need the
	// registry itself; the closures bind it late.
	var reg *team.Registry
	var leadDeps tools.Deps

	subagent := func(ctx context.Context, at tools.AgentType, typeName, prompt string) (string, error) {
		sub := agent.New(agent.Config{
			Client:       client,
			Registry:     filteredRegistry(leadDeps, at.Tools),
			SystemPrompt: at.Prompt,
			Compactor:    compactor,
		}, nil)
		res, err := sub.Run(ctx, prompt)
		if err != nil {
			return "", err
		}
		return res.Text, nil
	}

	runner := func(ctx context.Context, tm *team.Teammate, out *background.Output) error {
		deps := leadDeps
		deps.Coordinator = reg.CoordinatorForTeammate(tm)
		cfg := agent.Config{
			Client:       client,
			Registry:     tools.NewTeammateRegistry(deps),
			SystemPrompt: teammatePrompt(tm, loader),
			Compactor:    compactor,
		}
		return agent.RunTeammate(ctx, cfg, reg.CollabFor(tm), out)
	}

	reg = team.NewRegistry(team.RegistryConfig{
		BaseDir:  stateDir,
		Store:    store,
		Executor: executor,
		Runner:   runner,
	})

	leadDeps = tools.Deps{
		Workspace:   workspace,
		Board:       taskBoard,
		Executor:    executor,
		Coordinator: reg.CoordinatorFor(),
		Skills:      loader,
		Subagent:    subagent,
	}

	lead := agent.New(agent.Config{
		Client:       client,
		Registry:     tools.NewUserRegistry(leadDeps),
		SystemPrompt: leadPrompt(workspace, loader),
		Compactor:    compactor,
	}, &leadCollab{reg: reg})

	return &app{lead: lead, registry: reg}, nil
}

func (a *app) runOnce(ctx context.Context, prompt string) error {
	res, err := a.lead.Run(ctx, prompt)
	if err != nil {
		return err
	}
	fmt.Println(res.Text)
	return nil
}

func (a *app) repl(ctx context.Context) {
	fmt.Println("crew: type a request, or 'exit' to quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("crew> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return
		case "status":
			fmt.Println(a.registry.TeamStatus(""))
			continue
		}

		res, err := a.lead.Run(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s\n", res.Text)
	}
}

// leadCollab lets the top-level agent drain its own inbox, where
// shutdown and plan-approval responses arrive. The lead never idles or
// changes lifecycle status.
type leadCollab struct {
	reg *team.Registry
}

func (c *leadCollab) AgentID() string { return c.reg.LeadAgentID() }

func (c *leadCollab) Drain() ([]inbox.Message, error) {
	return c.reg.Drain(c.reg.LeadInboxPath())
}

func (c *leadCollab) Respond(msgType, recipient, content, requestID string) error {
	_, err := c.reg.Send(c.reg.LeadAgentID(), "", msgType, recipient, content, requestID)
	return err
}

func (c *leadCollab) Wait(ctx context.Context) error { return ctx.Err() }
func (c *leadCollab) SetStatus(string)               {}
func (c *leadCollab) Status() string                 { return "active" }

// filteredRegistry builds a subagent registry restricted to the named
// tools. A nil allow list means every tool except Task (no recursive
// spawning) and team management, which stay with the user agent.
func filteredRegistry(deps tools.Deps, allowed []string) *tools.Registry {
	full := tools.NewUserRegistry(deps)
	if allowed == nil {
		for _, name := range full.Names() {
			switch name {
			case "Task", "TeamCreate", "TeamDelete":
			default:
				allowed = append(allowed, name)
			}
		}
	}
	r := tools.NewRegistry()
	for _, name := range allowed {
		if tool, ok := full.Get(name); ok {
			r.Register(tool)
		}
	}
	return r
}

func leadPrompt(workspace string, loader *skills.Loader) string {
	return fmt.Sprintf(`You are the lead of a coding assistant crew working in %s.

You can work alone with your file and bash tools, or delegate:
- Use Task with subagent_type for one-shot isolated work.
- Use TeamCreate, then Task with team_name and name, to build a persistent team. Teammates share a task board (TaskCreate/TaskGet/TaskUpdate/TaskList) and message each other with SendMessage.
- Watch teammate progress with TaskOutput and wind teams down with TeamDelete.

Available skills:
%s`, workspace, loader.Descriptions())
}

func teammatePrompt(tm *team.Teammate, loader *skills.Loader) string {
	return fmt.Sprintf(`You are %s, a teammate in team %q.

Work the shared task board: claim unblocked, unowned pending tasks with TaskUpdate (set owner to %s and status to in_progress), do the work, then mark them completed. Coordinate with teammates via SendMessage. When you receive a shutdown request, finish your current step and acknowledge.

Available skills:
%s`, tm.AgentID(), tm.Team, tm.AgentID(), loader.Descriptions())
}

// loadEnvFile reads KEY=VALUE lines and sets any that are not already in
// the environment.
func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.Trim(strings.TrimSpace(val), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}
