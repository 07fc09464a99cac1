// Package team owns the live set of teammates, their on-disk team
// directories, and the coordination protocols that run over their inboxes.
package team

import (
	"regexp"
	"sync"
)

// Teammate statuses.
const (
	StatusActive   = "active"
	StatusIdle     = "idle"
	StatusShutdown = "shutdown"
)

// Palette is the teammate color cycle, assigned modulo its length in
// global spawn order.
var Palette = []string{"blue", "green", "yellow", "magenta", "cyan"}

// Teammate is one member of a team. The record is owned by the registry;
// status is the only field mutated after spawn, from the teammate's own
// loop, so it is guarded.
type Teammate struct {
	Name      string
	Team      string
	Color     string
	InboxPath string
	Handle    string // background executor handle, set at spawn

	mu     sync.Mutex
	status string
}

// AgentID returns the globally unique "name@team" identifier.
func (t *Teammate) AgentID() string { return t.Name + "@" + t.Team }

// Status returns the current lifecycle status.
func (t *Teammate) Status() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// SetStatus transitions the teammate's status. Shutdown is terminal.
func (t *Teammate) SetStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusShutdown {
		return
	}
	t.status = status
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// sanitizeName makes a teammate name safe for use in a file name.
func sanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}
