package team

import (
	"context"
	"strings"

	"github.com/jg-phare/crew/pkg/inbox"
	"github.com/jg-phare/crew/pkg/tools"
)

// Coordinator binds a Registry to a particular sender, satisfying the
// tools.Coordinator interface the messaging tools are built against.
type Coordinator struct {
	reg    *Registry
	sender string // agent id of the acting agent
	team   string // team scope for sends; empty for the controller
}

var _ tools.Coordinator = (*Coordinator)(nil)

// CoordinatorFor returns the controller-side coordinator.
func (r *Registry) CoordinatorFor() *Coordinator {
	return &Coordinator{reg: r, sender: r.leadAgentID}
}

// CoordinatorForTeammate returns a coordinator acting as tm.
func (r *Registry) CoordinatorForTeammate(tm *Teammate) *Coordinator {
	return &Coordinator{reg: r, sender: tm.AgentID(), team: tm.Team}
}

func (c *Coordinator) CreateTeam(_ context.Context, name string) (string, error) {
	return c.reg.CreateTeam(name)
}

func (c *Coordinator) DeleteTeam(_ context.Context, name string) (string, error) {
	return c.reg.DeleteTeam(name)
}

func (c *Coordinator) Spawn(ctx context.Context, name, teamName, prompt string) (string, error) {
	return c.reg.Spawn(ctx, name, teamName, prompt)
}

// Send routes through the registry in the sender's team scope. A
// controller broadcast with no explicit scope goes to the sole team; with
// several teams the recipient-less send is ambiguous and refused.
func (c *Coordinator) Send(_ context.Context, msgType, recipient, content, requestID string) (string, error) {
	teamName := c.team
	if teamName == "" && msgType == inbox.TypeBroadcast {
		names := c.reg.TeamNames()
		switch len(names) {
		case 0:
			return "", ErrTeamNotFound
		case 1:
			teamName = names[0]
		default:
			return "", errAmbiguousBroadcast(names)
		}
	}
	return c.reg.Send(c.sender, teamName, msgType, recipient, content, requestID)
}

func errAmbiguousBroadcast(names []string) error {
	return &ambiguousBroadcastError{teams: names}
}

type ambiguousBroadcastError struct{ teams []string }

func (e *ambiguousBroadcastError) Error() string {
	return "InvalidInput: broadcast is ambiguous across teams " + strings.Join(e.teams, ", ")
}

func (e *ambiguousBroadcastError) Unwrap() error { return ErrInvalidInput }
