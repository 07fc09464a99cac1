package team

import (
	"context"

	"github.com/jg-phare/crew/pkg/inbox"
)

// Collab is the communication surface a teammate's agent loop runs
// against: its own inbox, its own identity, and the shutdown handshake.
type Collab struct {
	reg *Registry
	tm  *Teammate
}

// CollabFor binds a teammate to the registry for its loop.
func (r *Registry) CollabFor(tm *Teammate) *Collab {
	return &Collab{reg: r, tm: tm}
}

// AgentID returns the teammate's "name@team" identifier.
func (c *Collab) AgentID() string { return c.tm.AgentID() }

// Drain non-blockingly drains the teammate's own inbox.
func (c *Collab) Drain() ([]inbox.Message, error) {
	return c.reg.Drain(c.tm.InboxPath)
}

// Respond sends a message on behalf of the teammate.
func (c *Collab) Respond(msgType, recipient, content, requestID string) error {
	_, err := c.reg.Send(c.tm.AgentID(), c.tm.Team, msgType, recipient, content, requestID)
	return err
}

// Wait blocks until new inbox traffic, shutdown, or context cancellation.
func (c *Collab) Wait(ctx context.Context) error {
	return c.reg.WaitForMessage(ctx, c.tm)
}

// SetStatus transitions the teammate's lifecycle status and keeps the
// team config in sync.
func (c *Collab) SetStatus(status string) {
	c.tm.SetStatus(status)
	c.reg.UpdateTeamConfig(c.tm.Team)
}

// Status returns the teammate's current status.
func (c *Collab) Status() string { return c.tm.Status() }
