package team

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jg-phare/crew/pkg/background"
	"github.com/jg-phare/crew/pkg/inbox"
)

// Sentinel errors. Their text doubles as the error kind in tool results.
var (
	ErrTeamNotFound      = errors.New("TeamNotFound")
	ErrAlreadyExists     = errors.New("AlreadyExists")
	ErrRecipientNotFound = errors.New("RecipientNotFound")
	ErrInvalidInput      = errors.New("InvalidInput")
)

// Team groups teammates under a name and a directory on disk.
type Team struct {
	Name    string
	Dir     string
	Members []*Teammate // spawn order
}

// member returns the named member, or nil.
func (t *Team) member(name string) *Teammate {
	for _, m := range t.Members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// PendingShutdown records an unacknowledged shutdown_request.
type PendingShutdown struct {
	Team     string
	Name     string
	IssuedAt time.Time
}

// TeammateRunner drives a spawned teammate's loop. Injected so tests can
// spawn without a live model.
type TeammateRunner func(ctx context.Context, tm *Teammate, out *background.Output) error

// Registry owns the live set of teammates, keyed by team and name, and
// keeps each team's config.json in sync with memory.
type Registry struct {
	baseDir     string // directory holding teams/
	leadAgentID string
	store       *inbox.Store
	exec        *background.Executor
	runner      TeammateRunner

	mu       sync.Mutex
	teams    map[string]*Team
	spawnSeq int
	pending  map[string]PendingShutdown
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	BaseDir     string // working directory; teams live under BaseDir/teams
	LeadAgentID string
	Store       *inbox.Store
	Executor    *background.Executor
	Runner      TeammateRunner // optional; nil spawns record-only teammates
}

// NewRegistry creates an empty Registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	store := cfg.Store
	if store == nil {
		store = &inbox.Store{}
	}
	lead := cfg.LeadAgentID
	if lead == "" {
		lead = "team-lead"
	}
	return &Registry{
		baseDir:     cfg.BaseDir,
		leadAgentID: lead,
		store:       store,
		exec:        cfg.Executor,
		runner:      cfg.Runner,
		teams:       make(map[string]*Team),
		pending:     make(map[string]PendingShutdown),
	}
}

// LeadAgentID returns the controller's agent id.
func (r *Registry) LeadAgentID() string { return r.leadAgentID }

// LeadInboxPath returns the controller's own inbox file, where shutdown
// and plan-approval acks are delivered.
func (r *Registry) LeadInboxPath() string {
	return filepath.Join(r.teamsDir(), "inbox."+sanitizeName(r.leadAgentID)+".jsonl")
}

// teamsDir returns the directory that holds all team directories.
func (r *Registry) teamsDir() string { return filepath.Join(r.baseDir, "teams") }

// CreateTeam creates the team directory and an empty config.json.
func (r *Registry) CreateTeam(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.teams[name]; ok {
		return "", fmt.Errorf("%w: team %q", ErrAlreadyExists, name)
	}

	dir := filepath.Join(r.teamsDir(), name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create team directory: %w", err)
	}
	cfg := TeamConfig{Name: name, LeadAgentID: r.leadAgentID}
	if err := writeConfig(dir, cfg); err != nil {
		return "", err
	}

	r.teams[name] = &Team{Name: name, Dir: dir}
	return fmt.Sprintf("Team %q created. Config: %s", name, filepath.Join(dir, "config.json")), nil
}

// Spawn creates a teammate record in an existing team, delivers the
// initial prompt to its inbox, starts its loop on the executor, and
// rewrites the team config. Returns a JSON blob describing the spawn.
func (r *Registry) Spawn(ctx context.Context, name, teamName, prompt string) (string, error) {
	r.mu.Lock()
	team, ok := r.teams[teamName]
	if !ok {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: team %q", ErrTeamNotFound, teamName)
	}
	if team.member(name) != nil {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: teammate %q in team %q", ErrAlreadyExists, name, teamName)
	}

	tm := &Teammate{
		Name:      name,
		Team:      teamName,
		Color:     Palette[r.spawnSeq%len(Palette)],
		InboxPath: filepath.Join(team.Dir, "inbox."+sanitizeName(name)+".jsonl"),
		status:    StatusActive,
	}
	r.spawnSeq++
	team.Members = append(team.Members, tm)
	r.mu.Unlock()

	if prompt != "" {
		msg := inbox.NewMessage(inbox.TypeMessage, r.leadAgentID, tm.AgentID(), prompt)
		if err := r.store.Append(tm.InboxPath, msg); err != nil {
			return "", fmt.Errorf("deliver initial prompt: %w", err)
		}
	}

	if r.runner != nil && r.exec != nil {
		tm.Handle = r.exec.Run(ctx, func(ctx context.Context, out *background.Output) error {
			return r.runner(ctx, tm, out)
		}, background.TaskTypeTeammate)
	}

	if err := r.UpdateTeamConfig(teamName); err != nil {
		return "", err
	}
	return fmt.Sprintf(`{"name":%q,"team":%q,"status":%q}`, name, teamName, StatusActive), nil
}

// DeleteTeam runs the shutdown protocol for every member and removes the
// team from the registry. The team directory is retained; its config is
// rewritten with zero members. Idempotent.
func (r *Registry) DeleteTeam(name string) (string, error) {
	r.mu.Lock()
	team, ok := r.teams[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Sprintf("Team %q deleted", name), nil
	}
	members := append([]*Teammate(nil), team.Members...)
	delete(r.teams, name)
	r.mu.Unlock()

	for _, tm := range members {
		requestID := uuid.NewString()
		r.mu.Lock()
		r.pending[requestID] = PendingShutdown{Team: name, Name: tm.Name, IssuedAt: time.Now()}
		r.mu.Unlock()

		msg := inbox.NewMessage(inbox.TypeShutdownRequest, r.leadAgentID, tm.AgentID(), "team is shutting down")
		msg.RequestID = requestID
		// Best effort: the status flip below guarantees termination even
		// when the request cannot be delivered.
		r.store.Append(tm.InboxPath, msg)
		tm.SetStatus(StatusShutdown)
	}

	writeConfig(team.Dir, TeamConfig{Name: name, LeadAgentID: r.leadAgentID})
	return fmt.Sprintf("Team %q deleted", name), nil
}

// Find returns the named teammate. With an empty team it searches all
// teams and returns the first match in sorted team order.
func (r *Registry) Find(name, teamName string) *Teammate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(name, teamName)
}

func (r *Registry) findLocked(name, teamName string) *Teammate {
	// Observations show senders as "name@team", so both forms resolve.
	// The id's embedded team wins over the caller's scope.
	if i := strings.IndexByte(name, '@'); i >= 0 {
		teamName = name[i+1:]
		name = name[:i]
	}
	if teamName != "" {
		team, ok := r.teams[teamName]
		if !ok {
			return nil
		}
		return team.member(name)
	}
	for _, tn := range r.teamNamesLocked() {
		if tm := r.teams[tn].member(name); tm != nil {
			return tm
		}
	}
	return nil
}

// TeamNames returns all team names in sorted order.
func (r *Registry) TeamNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.teamNamesLocked()
}

func (r *Registry) teamNamesLocked() []string {
	names := make([]string, 0, len(r.teams))
	for n := range r.teams {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// UpdateTeamConfig rewrites a team's config.json from the in-memory
// registry.
func (r *Registry) UpdateTeamConfig(teamName string) error {
	r.mu.Lock()
	team, ok := r.teams[teamName]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: team %q", ErrTeamNotFound, teamName)
	}
	cfg := TeamConfig{Name: team.Name, LeadAgentID: r.leadAgentID}
	for _, m := range team.Members {
		cfg.Members = append(cfg.Members, MemberConfig{
			Name:      m.Name,
			AgentID:   m.AgentID(),
			Status:    m.Status(),
			Color:     m.Color,
			InboxPath: m.InboxPath,
		})
	}
	dir := team.Dir
	r.mu.Unlock()

	return writeConfig(dir, cfg)
}

// TeamStatus renders a human-readable snapshot of one team, or of all
// teams when teamName is empty. With no teams at all it returns the
// literal "No teams".
func (r *Registry) TeamStatus(teamName string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.teams) == 0 {
		return "No teams"
	}

	names := r.teamNamesLocked()
	if teamName != "" {
		if _, ok := r.teams[teamName]; !ok {
			return fmt.Sprintf("No team named %q", teamName)
		}
		names = []string{teamName}
	}

	var sb strings.Builder
	for _, tn := range names {
		team := r.teams[tn]
		fmt.Fprintf(&sb, "Team %s (%d members)\n", team.Name, len(team.Members))
		for _, m := range team.Members {
			fmt.Fprintf(&sb, "  %s [%s] %s\n", m.AgentID(), m.Status(), m.Color)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Send delivers a message on behalf of sender. Broadcasts expand to every
// member of team except the sender, enumerated at send time. Non-broadcast
// recipients are resolved within team first, then across all teams.
func (r *Registry) Send(sender, teamName, msgType, recipient, content, requestID string) (string, error) {
	if !inbox.ValidType(msgType) {
		return "", fmt.Errorf("%w: unknown message type %q", ErrInvalidInput, msgType)
	}

	if msgType == inbox.TypeBroadcast {
		return r.broadcast(sender, teamName, content)
	}

	agentID, inboxPath, found := r.resolveRecipient(recipient, teamName)
	if !found {
		return "", fmt.Errorf("%w: %s", ErrRecipientNotFound, recipient)
	}

	if msgType == inbox.TypeShutdownRequest {
		if requestID == "" {
			requestID = uuid.NewString()
		}
		r.mu.Lock()
		r.pending[requestID] = PendingShutdown{Team: teamName, Name: recipient, IssuedAt: time.Now()}
		r.mu.Unlock()
	}

	msg := inbox.NewMessage(msgType, sender, agentID, content)
	msg.RequestID = requestID
	if err := r.store.Append(inboxPath, msg); err != nil {
		return "", err
	}
	return fmt.Sprintf("Message sent to %s", recipient), nil
}

// resolveRecipient maps a recipient name to its agent id and inbox file.
// The controller is addressable by its agent id or bare name; teammates
// resolve within teamName first, then across all teams.
func (r *Registry) resolveRecipient(recipient, teamName string) (agentID, inboxPath string, found bool) {
	leadName := r.leadAgentID
	if i := strings.IndexByte(leadName, '@'); i >= 0 {
		leadName = leadName[:i]
	}
	if recipient == r.leadAgentID || recipient == leadName {
		return r.leadAgentID, r.LeadInboxPath(), true
	}

	r.mu.Lock()
	tm := r.findLocked(recipient, teamName)
	if tm == nil && teamName != "" {
		tm = r.findLocked(recipient, "")
	}
	r.mu.Unlock()
	if tm == nil {
		return "", "", false
	}
	return tm.AgentID(), tm.InboxPath, true
}

func (r *Registry) broadcast(sender, teamName, content string) (string, error) {
	r.mu.Lock()
	team, ok := r.teams[teamName]
	if !ok {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: team %q", ErrTeamNotFound, teamName)
	}
	// Enumerate members(T) \ {sender} at send time.
	senderName := sender
	if i := strings.IndexByte(senderName, '@'); i >= 0 {
		senderName = senderName[:i]
	}
	var recipients []*Teammate
	for _, m := range team.Members {
		if m.Name != senderName {
			recipients = append(recipients, m)
		}
	}
	r.mu.Unlock()

	for _, tm := range recipients {
		msg := inbox.NewMessage(inbox.TypeBroadcast, sender, tm.AgentID(), content)
		if err := r.store.Append(tm.InboxPath, msg); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Broadcast reached %d teammates", len(recipients)), nil
}

// Drain atomically drains the inbox at the given path. Shutdown acks that
// match a pending shutdown are consumed here rather than surfaced: the
// protocol completes and the caller sees only ordinary traffic.
func (r *Registry) Drain(inboxPath string) ([]inbox.Message, error) {
	msgs, err := r.store.Drain(inboxPath)
	if err != nil || len(msgs) == 0 {
		return msgs, err
	}

	out := msgs[:0]
	for _, m := range msgs {
		if m.Type == inbox.TypeShutdownResponse && m.RequestID != "" {
			r.mu.Lock()
			_, pending := r.pending[m.RequestID]
			if pending {
				delete(r.pending, m.RequestID)
			}
			r.mu.Unlock()
			if pending {
				continue
			}
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// PendingShutdowns returns a snapshot of unacknowledged shutdown requests.
func (r *Registry) PendingShutdowns() map[string]PendingShutdown {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]PendingShutdown, len(r.pending))
	for k, v := range r.pending {
		snap[k] = v
	}
	return snap
}
