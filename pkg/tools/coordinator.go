package tools

import "context"

// Coordinator is the team-management surface the messaging tools depend
// on. It is implemented by the teammate registry; defining it here keeps
// the tool layer free of a dependency on the team package.
type Coordinator interface {
	// CreateTeam creates a named team and returns a confirmation string.
	CreateTeam(ctx context.Context, name string) (string, error)
	// DeleteTeam shuts down every member and removes the team.
	DeleteTeam(ctx context.Context, name string) (string, error)
	// Spawn starts a teammate in an existing team and returns the spawn
	// record as a JSON blob.
	Spawn(ctx context.Context, name, team, prompt string) (string, error)
	// Send delivers a message (or expands a broadcast) on behalf of the
	// tool's sender and returns a delivery report.
	Send(ctx context.Context, msgType, recipient, content, requestID string) (string, error)
}
