// Package conversation implements the bounded, round-indexed message log
// each agent owns: an append-only sequence with selective observation
// truncation on read and truncation-on-append for oversized tool results.
package conversation

import (
	"encoding/json"
	"fmt"

	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

const defaultTruncateContent = 25000

const truncationSuffix = " …very long output, truncated!"

// Message is one entry in a Conversation. Index records the round at which
// it was produced; OBSERVATION messages never precede the ASSISTANT message
// whose ToolCall.ID they answer.
type Message struct {
	Index      int
	Role       models.Role
	Content    string
	ToolCall   *models.ToolCall
	ToolResult *models.ToolResult
}

// Conversation holds one agent's ordered message history.
type Conversation struct {
	messages        []Message
	round           int
	truncateContent int
	lenObservations *int
}

// Option configures a Conversation at construction.
type Option func(*Conversation)

// WithTruncateContent overrides the default 25,000-character observation
// truncation budget.
func WithTruncateContent(n int) Option {
	return func(c *Conversation) { c.truncateContent = n }
}

// WithLenObservations sets the sliding window of recent observations kept in
// full by Messages(); nil (the default) keeps everything.
func WithLenObservations(n int) Option {
	return func(c *Conversation) {
		v := n
		c.lenObservations = &v
	}
}

// New creates an empty Conversation at round 0.
func New(opts ...Option) *Conversation {
	c := &Conversation{truncateContent: defaultTruncateContent}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Round returns the current round counter.
func (c *Conversation) Round() int { return c.round }

// NextRound advances the round counter. Every agent round calls this exactly
// once before producing messages for that round.
func (c *Conversation) NextRound() { c.round++ }

func (c *Conversation) append(m Message) {
	m.Index = c.round
	c.messages = append(c.messages, m)
}

// AppendSystem appends a SYSTEM message. Callers must append all SYSTEM
// messages before any other role (spec invariant: SYSTEM precedes all).
func (c *Conversation) AppendSystem(content string) {
	c.append(Message{Role: models.RoleSystem, Content: content})
}

// AppendUser appends a USER message.
func (c *Conversation) AppendUser(content string) {
	c.append(Message{Role: models.RoleUser, Content: content})
}

// AppendAssistant appends an ASSISTANT message, optionally carrying the
// model's tool call.
func (c *Conversation) AppendAssistant(content string, call *models.ToolCall) {
	c.append(Message{Role: models.RoleAssistant, Content: content, ToolCall: call})
}

// AppendObservation appends an OBSERVATION message, truncating an oversized
// result in place. result.ID must match the ToolCall.ID of the ASSISTANT
// message it answers.
func (c *Conversation) AppendObservation(result models.ToolResult) {
	result.Result = c.truncate(result.Result)
	c.append(Message{Role: models.RoleObservation, ToolResult: &result})
}

// truncate rewrites any string exceeding the configured budget — whether the
// result itself or a string value inside a map — to a prefix plus the
// truncation marker, sized so the total length equals the budget. This only
// ever runs at append time; dumped logs never change shape afterwards.
func (c *Conversation) truncate(result any) any {
	switch v := result.(type) {
	case string:
		return c.truncateString(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			if s, ok := val.(string); ok {
				out[k] = c.truncateString(s)
			} else {
				out[k] = val
			}
		}
		return out
	default:
		return result
	}
}

func (c *Conversation) truncateString(s string) string {
	if len(s) <= c.truncateContent {
		return s
	}
	prefixLen := c.truncateContent - len(truncationSuffix)
	if prefixLen < 0 {
		prefixLen = 0
	}
	return s[:prefixLen] + truncationSuffix
}

// ReplaceLastUserMessage rewrites the content of the most recent USER
// message in place, used when an autoprompter's output supersedes the
// hard-coded initial prompt an agent was eagerly seeded with at
// construction (spec §4.9 step 1).
func (c *Conversation) ReplaceLastUserMessage(content string) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == models.RoleUser {
			c.messages[i].Content = content
			return
		}
	}
}

// Messages returns the messages visible to the backend for this round,
// applying the conversation's len_observations window: OBSERVATION messages
// older than round-len_observations are dropped entirely, and ASSISTANT
// messages in that same window keep their thought content but lose their
// tool_data (spec §4.4).
func (c *Conversation) Messages() []Message {
	return c.messagesWithWindow(c.lenObservations)
}

// MessagesWithWindow is Messages with an explicit override of the
// len_observations window for this call only (used by SingleAgent, which
// hard-codes a window of 5 regardless of configuration).
func (c *Conversation) MessagesWithWindow(lenObservations *int) []Message {
	return c.messagesWithWindow(lenObservations)
}

func (c *Conversation) messagesWithWindow(lenObservations *int) []Message {
	if lenObservations == nil {
		out := make([]Message, len(c.messages))
		copy(out, c.messages)
		return out
	}
	truncBefore := c.round - *lenObservations
	out := make([]Message, 0, len(c.messages))
	for _, m := range c.messages {
		switch {
		case m.Role == models.RoleObservation && m.Index <= truncBefore:
			continue
		case m.Role == models.RoleAssistant && m.Index <= truncBefore:
			out = append(out, Message{Index: m.Index, Role: m.Role, Content: m.Content})
		default:
			out = append(out, m)
		}
	}
	return out
}

// Dump serializes the whole conversation into plain records suitable for
// the run log.
func (c *Conversation) Dump() []models.MessageRecord {
	out := make([]models.MessageRecord, 0, len(c.messages))
	for _, m := range c.messages {
		out = append(out, models.MessageRecord{
			Role:       m.Role,
			Index:      m.Index,
			Content:    m.Content,
			ToolCall:   m.ToolCall,
			ToolResult: m.ToolResult,
		})
	}
	return out
}

// FindCallName returns the tool name of the ASSISTANT message whose
// ToolCall.ID matches id, for validating the observation-matches-call
// invariant in tests.
func (c *Conversation) FindCallName(id string) (string, bool) {
	for _, m := range c.messages {
		if m.Role == models.RoleAssistant && m.ToolCall != nil && m.ToolCall.ID == id {
			return m.ToolCall.Name, true
		}
	}
	return "", false
}

// String renders the conversation for debug logging.
func (c *Conversation) String() string {
	b, err := json.Marshal(c.Dump())
	if err != nil {
		return fmt.Sprintf("<conversation: %d messages, marshal error: %v>", len(c.messages), err)
	}
	return string(b)
}
