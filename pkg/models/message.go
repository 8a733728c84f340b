// Package models holds the wire-level data types shared across the agent,
// backend, and conversation packages.
package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Role identifies the author of a Message within a Conversation.
type Role string

const (
	RoleSystem      Role = "SYSTEM"
	RoleUser        Role = "USER"
	RoleAssistant   Role = "ASSISTANT"
	RoleObservation Role = "OBSERVATION"
)

// ToolCall is the model's request to invoke a tool. Arguments holds the raw,
// backend-native form (a JSON string for most providers); ParsedArguments is
// populated once Backend.ParseToolArguments succeeds.
type ToolCall struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Arguments       json.RawMessage `json:"arguments"`
	ParsedArguments map[string]any `json:"parsed_arguments,omitempty"`
}

// NewToolCallID returns a fresh unique id suitable for ToolCall.ID.
func NewToolCallID() string {
	return uuid.NewString()
}

// Formatted renders a human-readable one-line summary of the call, for
// console/debug-trace output.
func (c ToolCall) Formatted() string {
	if c.ParsedArguments != nil {
		args, err := json.Marshal(c.ParsedArguments)
		if err != nil {
			return c.Name + "(<unmarshalable args>)"
		}
		return c.Name + "(" + string(args) + ")"
	}
	return c.Name + "(" + string(c.Arguments) + ")"
}

// ToolResult is the outcome of dispatching a ToolCall, always appended to the
// issuing agent's conversation as an OBSERVATION message.
type ToolResult struct {
	Name   string `json:"name"`
	ID     string `json:"id"`
	Result any    `json:"result"`
}

// ErrorResult builds a ToolResult carrying {"error": msg}, the shape used
// throughout for ToolArgumentError / ToolExecutionError conditions.
func ErrorResult(call ToolCall, msg string) ToolResult {
	return ToolResult{
		Name:   call.Name,
		ID:     call.ID,
		Result: map[string]any{"error": msg},
	}
}

// ForCall wraps an arbitrary result value, keyed to the originating call.
func ForCall(call ToolCall, result any) ToolResult {
	return ToolResult{Name: call.Name, ID: call.ID, Result: result}
}
