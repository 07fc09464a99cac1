package compact

import (
	"fmt"

	"github.com/jg-phare/crew/pkg/llm"
)

// TokenEstimator estimates token counts for text and messages.
type TokenEstimator interface {
	Estimate(text string) int
	EstimateMessages(messages []llm.Message) int
}

// SimpleEstimator uses the ~4 characters per token heuristic.
type SimpleEstimator struct{}

// Estimate returns an approximate token count for a string.
func (e *SimpleEstimator) Estimate(text string) int {
	return len(text) / 4
}

// EstimateMessages returns an approximate total token count for a message slice.
func (e *SimpleEstimator) EstimateMessages(messages []llm.Message) int {
	total := 0
	for _, msg := range messages {
		total += e.Estimate(ContentString(msg))
		total += 4 // overhead per message (role, separators)
	}
	return total
}

// ContentString flattens a message's content blocks to plain text for
// estimation and summarization.
func ContentString(msg llm.Message) string {
	var out []byte
	for _, block := range msg.Content {
		switch block.Type {
		case llm.BlockText:
			out = append(out, block.Text...)
		case llm.BlockToolUse:
			out = append(out, fmt.Sprintf("[tool call %s %v]", block.Name, block.Input)...)
		case llm.BlockToolResult:
			out = append(out, block.Content...)
		}
	}
	return string(out)
}
