package inbox

import (
	"time"

	"github.com/google/uuid"
)

// Message types. Exactly these five are valid on the wire.
const (
	TypeMessage          = "message"
	TypeBroadcast        = "broadcast"
	TypeShutdownRequest  = "shutdown_request"
	TypeShutdownResponse = "shutdown_response"
	TypePlanApproval     = "plan_approval_response"
)

// ValidType reports whether t is one of the five message types.
func ValidType(t string) bool {
	switch t {
	case TypeMessage, TypeBroadcast, TypeShutdownRequest, TypeShutdownResponse, TypePlanApproval:
		return true
	}
	return false
}

// Message is one entry in an inbox. Messages are immutable once written;
// RequestID correlates shutdown and plan-approval exchanges.
type Message struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"requestId,omitempty"`
}

// NewMessage builds a Message with a fresh id and the current time.
func NewMessage(msgType, sender, recipient, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Sender:    sender,
		Recipient: recipient,
		Content:   content,
		Timestamp: time.Now(),
	}
}
