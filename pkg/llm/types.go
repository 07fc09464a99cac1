package llm

// Content block types used in messages and responses.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Stop reasons returned by the model.
const (
	StopEndTurn   = "end_turn"
	StopToolUse   = "tool_use"
	StopMaxTokens = "max_tokens"
)

// ContentBlock is a single block in a message: text, a tool invocation
// requested by the model, or a tool result reported back to it.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	// tool_use fields
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// tool_result fields
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// Message is one conversation turn.
type Message struct {
	Role    string         `json:"role"` // "user" | "assistant"
	Content []ContentBlock `json:"content"`
}

// UserText builds a user turn holding a single text block.
func UserText(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{{Type: BlockText, Text: text}}}
}

// AssistantText builds an assistant turn holding a single text block.
func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Content: []ContentBlock{{Type: BlockText, Text: text}}}
}

// ToolResult builds a tool_result block for the given tool_use id.
func ToolResult(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{
		Type:      BlockToolResult,
		ToolUseID: toolUseID,
		Content:   content,
		IsError:   isError,
	}
}

// ToolDefinition describes a tool in the request's tools array.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Request is a messages-API completion request.
type Request struct {
	Model     string           `json:"model"`
	System    string           `json:"system,omitempty"`
	Messages  []Message        `json:"messages"`
	MaxTokens int              `json:"max_tokens"`
	Tools     []ToolDefinition `json:"tools,omitempty"`
}

// Usage reports token consumption for a single response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the accumulated result of a completion call.
type Response struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Content    []ContentBlock `json:"content"`
	Usage      Usage          `json:"usage"`
}

// TextContent concatenates all text blocks in the response.
func (r *Response) TextContent() string {
	var out string
	for _, b := range r.Content {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}

// ToolUses returns the tool_use blocks in response order.
func (r *Response) ToolUses() []ContentBlock {
	var uses []ContentBlock
	for _, b := range r.Content {
		if b.Type == BlockToolUse {
			uses = append(uses, b)
		}
	}
	return uses
}
