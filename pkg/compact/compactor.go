// Package compact shrinks long conversations by replacing their middle with
// a short LLM-produced summary, keeping the head and the most recent turns
// verbatim.
package compact

import (
	"context"
	"fmt"
	"strings"

	"github.com/jg-phare/crew/pkg/llm"
)

// Config holds the knobs of a Compactor.
type Config struct {
	Client       llm.Client
	Estimator    TokenEstimator // default: SimpleEstimator
	Model        string         // summary model; defaults to the client's model
	Threshold    int            // token count above which ShouldCompact fires; default 40000
	PreserveHead int            // leading messages kept verbatim; default 2
	PreserveTail int            // trailing messages kept verbatim; default 10
}

// Compactor implements context window management via conversation
// summarization.
type Compactor struct {
	client       llm.Client
	estimator    TokenEstimator
	model        string
	threshold    int
	preserveHead int
	preserveTail int
}

// NewCompactor creates a Compactor with defaults for unset config fields.
func NewCompactor(cfg Config) *Compactor {
	c := &Compactor{
		client:       cfg.Client,
		estimator:    cfg.Estimator,
		model:        cfg.Model,
		threshold:    cfg.Threshold,
		preserveHead: cfg.PreserveHead,
		preserveTail: cfg.PreserveTail,
	}
	if c.estimator == nil {
		c.estimator = &SimpleEstimator{}
	}
	if c.threshold == 0 {
		c.threshold = 40000
	}
	if c.preserveHead == 0 {
		c.preserveHead = 2
	}
	if c.preserveTail == 0 {
		c.preserveTail = 10
	}
	if c.model == "" && cfg.Client != nil {
		c.model = cfg.Client.Model()
	}
	return c
}

// ShouldCompact reports whether the conversation's estimated token cost
// exceeds the threshold.
func (c *Compactor) ShouldCompact(messages []llm.Message) bool {
	return c.estimator.EstimateMessages(messages) > c.threshold
}

// Compact replaces the interior of the conversation with a one-message
// summary. The first preserveHead and last preserveTail messages survive
// verbatim, and the boundary never separates a tool call from its result.
// When the conversation is too short to have an interior, or the summary
// call fails, the input is returned unchanged.
func (c *Compactor) Compact(ctx context.Context, messages []llm.Message) []llm.Message {
	head := c.preserveHead
	tailStart := len(messages) - c.preserveTail
	tailStart = adjustForToolPairs(messages, tailStart)
	if tailStart <= head {
		return messages
	}

	interior := messages[head:tailStart]
	if c.client == nil {
		return messages
	}

	summary, err := c.summarize(ctx, interior)
	if err != nil || summary == "" {
		return messages
	}

	out := make([]llm.Message, 0, head+1+len(messages)-tailStart)
	out = append(out, messages[:head]...)
	out = append(out, llm.UserText("[Previous conversation summary]\n\n"+summary))
	out = append(out, messages[tailStart:]...)
	return out
}

// adjustForToolPairs moves the boundary backward while it would separate an
// assistant tool call from the tool results that answer it.
func adjustForToolPairs(messages []llm.Message, idx int) int {
	// A boundary on a tool result would strand its call in the interior;
	// pull the call (and any intervening results) into the preserved tail.
	for idx > 0 && idx < len(messages) && isToolResult(messages[idx]) {
		idx--
	}
	return idx
}

func isToolResult(m llm.Message) bool {
	for _, b := range m.Content {
		if b.Type == llm.BlockToolResult {
			return true
		}
	}
	return false
}

const summaryPrompt = `Summarize the following conversation, preserving:
1. Key decisions and their rationale
2. File paths and code changes made
3. Task state: what is done, claimed, or blocked
4. Pending obligations, open questions, and messages awaiting replies
5. Tool outputs that are still relevant

Be concise but complete. Use a structured format with sections.`

func (c *Compactor) summarize(ctx context.Context, interior []llm.Message) (string, error) {
	var sb strings.Builder
	sb.WriteString(summaryPrompt)
	sb.WriteString("\n\n--- CONVERSATION TO SUMMARIZE ---\n")
	for _, msg := range interior {
		content := ContentString(msg)
		if len(content) > 2000 {
			content = content[:2000] + "..."
		}
		fmt.Fprintf(&sb, "[%s]: %s\n\n", msg.Role, content)
	}

	resp, err := c.client.Complete(ctx, &llm.Request{
		Model:     c.model,
		MaxTokens: 4096,
		Messages:  []llm.Message{llm.UserText(sb.String())},
	})
	if err != nil {
		return "", fmt.Errorf("compaction summary: %w", err)
	}
	return resp.TextContent(), nil
}
