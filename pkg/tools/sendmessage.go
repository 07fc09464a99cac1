package tools

import (
	"context"

	"github.com/jg-phare/crew/pkg/inbox"
)

// SendMessageTool sends messages between teammates.
type SendMessageTool struct {
	Coordinator Coordinator
}

func (s *SendMessageTool) Name() string { return "SendMessage" }

func (s *SendMessageTool) Description() string {
	return `Send messages to agent teammates and handle protocol requests/responses in a team.

## Message Types

### type: "message" - Send a Direct Message
Send a message to a single specific teammate. You MUST specify the recipient by name.

IMPORTANT for teammates: your plain text output is NOT visible to the team lead or other teammates. To communicate with anyone on your team, you MUST use this tool.

### type: "broadcast" - Send to ALL Teammates (USE SPARINGLY)
Send the same message to everyone on the team at once. Leave recipient empty. Each broadcast delivers one copy per teammate, so costs scale with team size; default to "message" for normal communication.

### type: "shutdown_request" - Ask a Teammate to Shut Down
The teammate finishes its current work, acknowledges, and exits.

### type: "shutdown_response" - Acknowledge a Shutdown Request
When you receive a shutdown_request, you MUST respond with this type, echoing the requestId from the message as request_id.

### type: "plan_approval_response" - Reply in a Plan-Approval Exchange
Approve or reject a proposed plan, echoing the request_id.

## Notes
- Inbox messages are delivered to you automatically; you never need to poll.
- Always refer to teammates by NAME.`
}

func (s *SendMessageTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type": map[string]any{
				"type":        "string",
				"enum":        []string{"message", "broadcast", "shutdown_request", "shutdown_response", "plan_approval_response"},
				"description": "Message type",
			},
			"recipient": map[string]any{
				"type":        "string",
				"description": "Name of the recipient teammate (required for non-broadcast)",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "Message content",
			},
			"request_id": map[string]any{
				"type":        "string",
				"description": "Id of the request being responded to",
			},
		},
		"required": []string{"type", "content"},
	}
}

func (s *SendMessageTool) SideEffect() SideEffectType { return SideEffectMutating }

func (s *SendMessageTool) Execute(ctx context.Context, input map[string]any) (ToolOutput, error) {
	msgType, ok := input["type"].(string)
	if !ok || msgType == "" {
		return Errf(KindInvalidInput, "type is required"), nil
	}
	if !inbox.ValidType(msgType) {
		return Errf(KindInvalidInput, "unknown message type %q", msgType), nil
	}
	content, ok := input["content"].(string)
	if !ok || content == "" {
		return Errf(KindInvalidInput, "content is required"), nil
	}

	recipient, _ := input["recipient"].(string)
	if recipient == "" && msgType != inbox.TypeBroadcast {
		return Errf(KindInvalidInput, "recipient is required for type %q", msgType), nil
	}
	requestID, _ := input["request_id"].(string)

	result, err := s.Coordinator.Send(ctx, msgType, recipient, content, requestID)
	if err != nil {
		return ToolOutput{Content: "Error: " + err.Error(), IsError: true}, nil
	}
	return ToolOutput{Content: result}, nil
}
