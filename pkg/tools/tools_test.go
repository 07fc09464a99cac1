package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jg-phare/crew/pkg/background"
	"github.com/jg-phare/crew/pkg/board"
	"github.com/jg-phare/crew/pkg/skills"
)

func execTool(t *testing.T, tool Tool, input map[string]any) ToolOutput {
	t.Helper()
	out, err := tool.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("%s.Execute: %v", tool.Name(), err)
	}
	return out
}

func TestUserRegistryHasFifteenTools(t *testing.T) {
	r := NewUserRegistry(Deps{})
	names := r.Names()
	if len(names) != 15 {
		t.Errorf("user tool count = %d (%v), want 15", len(names), names)
	}
	for _, want := range []string{"TeamCreate", "TeamDelete", "SendMessage", "Task", "Skill"} {
		if _, ok := r.Get(want); !ok {
			t.Errorf("missing tool %s", want)
		}
	}
}

func TestTeammateRegistryRefusesTeamManagement(t *testing.T) {
	r := NewTeammateRegistry(Deps{})
	names := r.Names()
	if len(names) != 13 {
		t.Errorf("teammate tool count = %d (%v), want 13", len(names), names)
	}
	for _, refused := range []string{"TeamCreate", "TeamDelete"} {
		if !r.IsDisabled(refused) {
			t.Errorf("%s should be disabled for teammates", refused)
		}
		for _, n := range names {
			if n == refused {
				t.Errorf("%s leaked into teammate definitions", refused)
			}
		}
	}
	if len(r.Definitions()) != 13 {
		t.Errorf("definitions = %d, want 13", len(r.Definitions()))
	}
}

func TestBashRejectsDangerousCommands(t *testing.T) {
	b := &BashTool{CWD: t.TempDir()}
	for _, cmd := range []string{"rm -rf / --no-preserve-root", "sudo reboot", "shutdown -h now"} {
		out := execTool(t, b, map[string]any{"command": cmd})
		if !out.IsError || !strings.HasPrefix(out.Content, "Error: Dangerous:") {
			t.Errorf("command %q: output = %+v, want Dangerous error", cmd, out)
		}
	}
}

func TestBashCapturesOutput(t *testing.T) {
	b := &BashTool{CWD: t.TempDir()}
	out := execTool(t, b, map[string]any{"command": "echo hello; echo oops >&2"})
	if out.IsError {
		t.Fatalf("unexpected error: %s", out.Content)
	}
	if !strings.Contains(out.Content, "hello") || !strings.Contains(out.Content, "oops") {
		t.Errorf("combined output = %q", out.Content)
	}
}

func TestBashEmptyOutputPlaceholder(t *testing.T) {
	b := &BashTool{CWD: t.TempDir()}
	out := execTool(t, b, map[string]any{"command": "true"})
	if out.Content != "(no output)" {
		t.Errorf("output = %q, want (no output)", out.Content)
	}
}

func TestBashTimeout(t *testing.T) {
	b := &BashTool{CWD: t.TempDir()}
	out := execTool(t, b, map[string]any{"command": "sleep 5", "timeout": float64(50)})
	if !out.IsError || !strings.HasPrefix(out.Content, "Error: TimedOut:") {
		t.Errorf("output = %+v, want TimedOut error", out)
	}
}

func TestBashNonZeroExit(t *testing.T) {
	b := &BashTool{CWD: t.TempDir()}
	out := execTool(t, b, map[string]any{"command": "echo failing; exit 3"})
	if !out.IsError || !strings.Contains(out.Content, "failing") {
		t.Errorf("output = %+v, want error with command output", out)
	}
}

func TestFileToolsRoundTrip(t *testing.T) {
	root := t.TempDir()
	write := &FileWriteTool{Root: root}
	read := &FileReadTool{Root: root}
	edit := &FileEditTool{Root: root}

	out := execTool(t, write, map[string]any{"path": "notes/plan.txt", "content": "step one\nstep two"})
	if out.IsError {
		t.Fatalf("write: %s", out.Content)
	}

	out = execTool(t, read, map[string]any{"path": "notes/plan.txt"})
	if out.Content != "step one\nstep two" {
		t.Errorf("read = %q", out.Content)
	}

	out = execTool(t, edit, map[string]any{"path": "notes/plan.txt", "old_text": "step two", "new_text": "step 2"})
	if out.IsError {
		t.Fatalf("edit: %s", out.Content)
	}
	out = execTool(t, read, map[string]any{"path": "notes/plan.txt", "limit": float64(2)})
	if !strings.Contains(out.Content, "step 2") {
		t.Errorf("read after edit = %q", out.Content)
	}
}

func TestFileEditReplacesFirstOccurrenceOnly(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "f.txt"), []byte("aaa bbb aaa"), 0o644)

	edit := &FileEditTool{Root: root}
	execTool(t, edit, map[string]any{"path": "f.txt", "old_text": "aaa", "new_text": "ccc"})

	data, _ := os.ReadFile(filepath.Join(root, "f.txt"))
	if string(data) != "ccc bbb aaa" {
		t.Errorf("content = %q, want first occurrence replaced only", data)
	}
}

func TestFileEditTextNotFound(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "f.txt"), []byte("content"), 0o644)

	edit := &FileEditTool{Root: root}
	out := execTool(t, edit, map[string]any{"path": "f.txt", "old_text": "missing", "new_text": "x"})
	if !out.IsError || !strings.Contains(out.Content, "text not found") {
		t.Errorf("output = %+v", out)
	}
}

func TestPathEscapeRefused(t *testing.T) {
	root := t.TempDir()
	for _, tool := range []Tool{
		&FileReadTool{Root: root},
		&FileWriteTool{Root: root},
		&FileEditTool{Root: root},
	} {
		input := map[string]any{"path": "../outside.txt", "content": "x", "old_text": "a", "new_text": "b"}
		out := execTool(t, tool, input)
		if !out.IsError || !strings.HasPrefix(out.Content, "Error: PathEscape:") {
			t.Errorf("%s: output = %+v, want PathEscape error", tool.Name(), out)
		}
	}
}

func TestSymlinkEscapeRefused(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("secret"), 0o644)
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	read := &FileReadTool{Root: root}
	out := execTool(t, read, map[string]any{"path": "link/secret.txt"})
	if !out.IsError || !strings.HasPrefix(out.Content, "Error: PathEscape:") {
		t.Errorf("read through symlink = %+v, want PathEscape error", out)
	}

	write := &FileWriteTool{Root: root}
	out = execTool(t, write, map[string]any{"path": "link/new.txt", "content": "x"})
	if !out.IsError || !strings.HasPrefix(out.Content, "Error: PathEscape:") {
		t.Errorf("write through symlink = %+v, want PathEscape error", out)
	}
}

func TestSymlinkInsideWorkspaceAllowed(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "real"), 0o755)
	os.WriteFile(filepath.Join(root, "real", "f.txt"), []byte("data"), 0o644)
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	read := &FileReadTool{Root: root}
	out := execTool(t, read, map[string]any{"path": "alias/f.txt"})
	if out.IsError || !strings.Contains(out.Content, "data") {
		t.Errorf("read through internal symlink = %+v", out)
	}
}

func TestTaskBoardToolsFlow(t *testing.T) {
	b := board.New(t.TempDir())
	create := &TaskCreateTool{Board: b}
	get := &TaskGetTool{Board: b}
	update := &TaskUpdateTool{Board: b}
	list := &TaskListTool{Board: b}

	out := execTool(t, create, map[string]any{"subject": "build parser", "body": "recursive descent"})
	if out.IsError || !strings.Contains(out.Content, `"id":"1"`) {
		t.Fatalf("create = %+v", out)
	}
	execTool(t, create, map[string]any{"subject": "write docs"})

	out = execTool(t, update, map[string]any{
		"task_id":      "2",
		"addBlockedBy": []any{"1"},
		"owner":        "alice@core",
	})
	if out.IsError {
		t.Fatalf("update = %+v", out)
	}

	out = execTool(t, list, map[string]any{})
	if !strings.Contains(out.Content, "blocked by: 1") || !strings.Contains(out.Content, "owner: alice@core") {
		t.Errorf("list = %q", out.Content)
	}

	out = execTool(t, update, map[string]any{"task_id": "1", "status": "completed"})
	if out.IsError {
		t.Fatalf("complete = %+v", out)
	}
	out = execTool(t, get, map[string]any{"task_id": "2"})
	if strings.Contains(out.Content, "blockedBy") {
		t.Errorf("task 2 still blocked after 1 completed: %q", out.Content)
	}
}

func TestTaskToolsUnknownID(t *testing.T) {
	b := board.New(t.TempDir())
	for _, tool := range []Tool{&TaskGetTool{Board: b}, &TaskUpdateTool{Board: b}} {
		out := execTool(t, tool, map[string]any{"task_id": "99"})
		if !out.IsError || !strings.HasPrefix(out.Content, "Error: TaskNotFound:") {
			t.Errorf("%s: output = %+v, want TaskNotFound", tool.Name(), out)
		}
	}
}

func TestTaskOutputAndStop(t *testing.T) {
	e := background.NewExecutor()
	handle := e.Run(context.Background(), func(ctx context.Context, out *background.Output) error {
		out.Append("background result")
		return nil
	}, "bash")
	e.Wait(context.Background(), handle)

	outputTool := &TaskOutputTool{Executor: e}
	out := execTool(t, outputTool, map[string]any{"task_id": handle})
	if out.Content != "background result" {
		t.Errorf("output = %q", out.Content)
	}
	out = execTool(t, outputTool, map[string]any{"task_id": handle})
	if out.Content != "(no new output)" {
		t.Errorf("second read = %q", out.Content)
	}

	out = execTool(t, outputTool, map[string]any{"task_id": "t99"})
	if !out.IsError || !strings.HasPrefix(out.Content, "Error: TaskNotFound:") {
		t.Errorf("unknown handle output = %+v", out)
	}

	stop := &TaskStopTool{Executor: e}
	out = execTool(t, stop, map[string]any{"task_id": handle})
	if out.IsError {
		t.Errorf("stop = %+v", out)
	}
}

// fakeCoordinator records calls and returns canned results.
type fakeCoordinator struct {
	sent      []string
	sendErr   error
	spawned   []string
	createErr error
}

func (f *fakeCoordinator) CreateTeam(_ context.Context, name string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	return "Team '" + name + "' created", nil
}

func (f *fakeCoordinator) DeleteTeam(_ context.Context, name string) (string, error) {
	return "Team '" + name + "' deleted", nil
}

func (f *fakeCoordinator) Spawn(_ context.Context, name, team, prompt string) (string, error) {
	f.spawned = append(f.spawned, name+"@"+team)
	return fmt.Sprintf(`{"name":%q,"team":%q,"status":"active"}`, name, team), nil
}

func (f *fakeCoordinator) Send(_ context.Context, msgType, recipient, content, requestID string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, msgType+":"+recipient)
	return "Message sent to " + recipient, nil
}

func TestSendMessageValidation(t *testing.T) {
	tool := &SendMessageTool{Coordinator: &fakeCoordinator{}}

	out := execTool(t, tool, map[string]any{"type": "gossip", "content": "hi", "recipient": "a"})
	if !out.IsError || !strings.Contains(out.Content, "unknown message type") {
		t.Errorf("bad type output = %+v", out)
	}

	out = execTool(t, tool, map[string]any{"type": "message", "content": "hi"})
	if !out.IsError || !strings.Contains(out.Content, "recipient is required") {
		t.Errorf("missing recipient output = %+v", out)
	}

	// Broadcast needs no recipient.
	out = execTool(t, tool, map[string]any{"type": "broadcast", "content": "all hands"})
	if out.IsError {
		t.Errorf("broadcast output = %+v", out)
	}
}

func TestSendMessageSurfacesCoordinatorError(t *testing.T) {
	tool := &SendMessageTool{Coordinator: &fakeCoordinator{sendErr: fmt.Errorf("RecipientNotFound: ghost")}}
	out := execTool(t, tool, map[string]any{"type": "message", "recipient": "ghost", "content": "hi"})
	if !out.IsError || out.Content != "Error: RecipientNotFound: ghost" {
		t.Errorf("output = %+v", out)
	}
}

func TestTaskToolSpawnsTeammate(t *testing.T) {
	coord := &fakeCoordinator{}
	tool := &TaskTool{Coordinator: coord}

	out := execTool(t, tool, map[string]any{
		"description": "spawn worker",
		"prompt":      "work on the parser",
		"team_name":   "core",
		"name":        "alice",
	})
	if out.IsError {
		t.Fatalf("spawn output = %+v", out)
	}
	if !strings.Contains(out.Content, `"status":"active"`) {
		t.Errorf("spawn blob = %q", out.Content)
	}
	if len(coord.spawned) != 1 || coord.spawned[0] != "alice@core" {
		t.Errorf("spawned = %v", coord.spawned)
	}
}

func TestTaskToolRunsSubagent(t *testing.T) {
	var gotType string
	tool := &TaskTool{Runner: func(_ context.Context, at AgentType, typeName, prompt string) (string, error) {
		gotType = typeName
		return "explored: " + prompt, nil
	}}

	out := execTool(t, tool, map[string]any{
		"description":   "look around",
		"prompt":        "find the config",
		"subagent_type": "Explore",
	})
	if out.IsError || out.Content != "explored: find the config" {
		t.Errorf("output = %+v", out)
	}
	if gotType != "Explore" {
		t.Errorf("agent type = %q", gotType)
	}

	out = execTool(t, tool, map[string]any{"description": "x", "prompt": "y", "subagent_type": "Wizard"})
	if !out.IsError || !strings.Contains(out.Content, "unknown agent type") {
		t.Errorf("unknown type output = %+v", out)
	}
}

func TestSkillToolInjectsContent(t *testing.T) {
	root := t.TempDir()
	skillDir := filepath.Join(root, "pdf")
	os.MkdirAll(skillDir, 0o755)
	os.WriteFile(filepath.Join(skillDir, "SKILL.md"),
		[]byte("---\nname: pdf-processing\ndescription: PDF work\n---\n\nUse pdftotext."), 0o644)

	loader, err := skills.NewLoader(root)
	if err != nil {
		t.Fatal(err)
	}
	tool := &SkillTool{Loader: loader}

	out := execTool(t, tool, map[string]any{"name": "pdf-processing"})
	if out.IsError || !strings.Contains(out.Content, "<skill-loaded name=\"pdf-processing\">") {
		t.Errorf("output = %+v", out)
	}

	out = execTool(t, tool, map[string]any{"name": "nope"})
	if !out.IsError {
		t.Errorf("unknown skill output = %+v", out)
	}
}
