package agent

import (
	"context"
	"fmt"

	"github.com/jg-phare/crew/pkg/background"
	"github.com/jg-phare/crew/pkg/inbox"
	"github.com/jg-phare/crew/pkg/llm"
)

// Collab is the communication surface a loop runs against: the agent's
// own inbox, identity, and status. Implemented by the team registry.
type Collab interface {
	AgentID() string
	Drain() ([]inbox.Message, error)
	Respond(msgType, recipient, content, requestID string) error
	Wait(ctx context.Context) error
	SetStatus(status string)
	Status() string
}

// Teammate statuses, mirrored here so the loop does not depend on the
// team package.
const (
	statusActive   = "active"
	statusIdle     = "idle"
	statusShutdown = "shutdown"
)

// RunTeammate drives a worker teammate until it is asked to shut down or
// the context is cancelled. Text replies and tool traffic summaries are
// appended to out so the controller can observe progress via TaskOutput.
func RunTeammate(ctx context.Context, cfg Config, collab Collab, out *background.Output) error {
	var conversation []llm.Message

	for {
		if ctx.Err() != nil {
			collab.SetStatus(statusShutdown)
			return ctx.Err()
		}

		// Pre-round drain: every message becomes an observation turn.
		observations, shutdownReq, err := drainObservations(collab)
		if err != nil {
			return err
		}
		conversation = append(conversation, observations...)

		// Shutdown check. The registry may also have flipped the status
		// directly (team deletion is best-effort about delivery).
		if shutdownReq != nil {
			ackShutdown(collab, *shutdownReq)
			return nil
		}
		if collab.Status() == statusShutdown {
			return nil
		}

		resp, err := cfg.Client.Complete(ctx, &llm.Request{
			System:   cfg.SystemPrompt,
			Messages: conversation,
			Tools:    cfg.Registry.Definitions(),
		})
		if err != nil {
			// Oracle failure ends the round, not the teammate. Idle until
			// new traffic gives it a reason to try again.
			out.Appendf("\nError: OracleError: %s", err)
			if waitIdle(ctx, collab) != nil {
				return nil
			}
			continue
		}

		conversation = append(conversation, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})

		uses := resp.ToolUses()
		if len(uses) > 0 {
			results := executeTools(ctx, cfg.Registry, uses)
			conversation = append(conversation, llm.Message{Role: llm.RoleUser, Content: results})
			for _, use := range uses {
				out.Appendf("\n[tool] %s", use.Name)
			}
		} else if text := resp.TextContent(); text != "" {
			out.Appendf("\n%s", text)
		}

		if cfg.Compactor != nil && cfg.Compactor.ShouldCompact(conversation) {
			conversation = cfg.Compactor.Compact(ctx, conversation)
		}

		// Idle transition: a text-only reply quiesces the worker until
		// the inbox wakes it.
		if len(uses) == 0 {
			if waitIdle(ctx, collab) != nil {
				return nil
			}
		}
	}
}

// waitIdle parks the teammate on its inbox. A non-nil return means the
// context was cancelled and the loop should exit.
func waitIdle(ctx context.Context, collab Collab) error {
	collab.SetStatus(statusIdle)
	if err := collab.Wait(ctx); err != nil {
		collab.SetStatus(statusShutdown)
		return err
	}
	collab.SetStatus(statusActive)
	return nil
}

// ackShutdown completes the two-phase shutdown: respond to the
// originating sender echoing the request id, then flip to shutdown.
func ackShutdown(collab Collab, req inbox.Message) {
	collab.Respond(inbox.TypeShutdownResponse, req.Sender, "shutting down", req.RequestID)
	collab.SetStatus(statusShutdown)
}

// drainObservations drains the inbox and renders each message as a
// user-role observation turn. A pending shutdown_request, if any, is
// returned separately for the loop's shutdown check.
func drainObservations(collab Collab) ([]llm.Message, *inbox.Message, error) {
	msgs, err := collab.Drain()
	if err != nil {
		return nil, nil, err
	}

	var observations []llm.Message
	var shutdownReq *inbox.Message
	for i, m := range msgs {
		if m.Type == inbox.TypeShutdownRequest && shutdownReq == nil {
			shutdownReq = &msgs[i]
			continue
		}
		observations = append(observations, llm.UserText(formatObservation(m)))
	}
	return observations, shutdownReq, nil
}

// formatObservation renders an inbox message as a bracketed tag carrying
// type, sender, and content.
func formatObservation(m inbox.Message) string {
	if m.RequestID != "" {
		return fmt.Sprintf("[inbox] type=%s from=%s request_id=%s: %s", m.Type, m.Sender, m.RequestID, m.Content)
	}
	return fmt.Sprintf("[inbox] type=%s from=%s: %s", m.Type, m.Sender, m.Content)
}
