// Package providers implements the uniform LLM call surface used by every
// agent in the pipeline. A Provider translates the neutral message, tool and
// reply records defined here to and from one vendor's wire format; agents
// never see provider-specific types.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Mode selects the reply contract for a single invocation.
type Mode string

const (
	// ModeText requests a free-text assistant reply.
	ModeText Mode = "text"
	// ModeJSON requests a structured JSON reply. The provider may use
	// server-side structured output; callers must still re-validate.
	ModeJSON Mode = "json"
	// ModeTools enables tool calling over the bound tool set.
	ModeTools Mode = "tools"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is the neutral conversation record. ToolCallID is set on tool
// result messages; ToolCalls on assistant messages that requested tools.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }

// UserMessage builds a user-role message.
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolMessage builds a tool result message bound to the triggering call.
func ToolMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}

// Tool describes one callable tool in provider-neutral form. Parameters is a
// JSON Schema object (type/properties/required).
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is a single tool request emitted by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Request carries one invocation over the current conversation.
type Request struct {
	Messages    []Message `json:"messages"`
	Mode        Mode      `json:"mode"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	// Schema optionally constrains ModeJSON output (JSON Schema object).
	Schema map[string]any `json:"schema,omitempty"`
	// Tools is the bound tool set for ModeTools.
	Tools []Tool `json:"tools,omitempty"`
}

// Reply is the provider-neutral invocation result.
//
// In ModeJSON, Parsed holds the first JSON document isolated from Content
// (nil when none was found, with ParseError set). In ModeTools an empty
// ToolCalls slice marks a terminal assistant reply.
type Reply struct {
	Content    string          `json:"content"`
	Parsed     json.RawMessage `json:"parsed,omitempty"`
	ParseError string          `json:"parse_error,omitempty"`
	ToolCalls  []ToolCall      `json:"tool_calls,omitempty"`
	Model      string          `json:"model,omitempty"`
	Usage      Usage           `json:"usage"`
}

// AssistantMessage converts the reply into its transcript form.
func (r *Reply) AssistantMessage() Message {
	return Message{Role: RoleAssistant, Content: r.Content, ToolCalls: r.ToolCalls}
}

// Usage reports token accounting when the provider supplies it.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Provider is the single capability the pipeline needs from an LLM vendor.
// Invoke must not retry internally; retry policy lives in core/retry.
type Provider interface {
	Name() string
	Invoke(ctx context.Context, req *Request) (*Reply, error)
	Close() error
}

// PermanentError marks a provider failure that will not resolve with
// retries (invalid schema, rejected tool set, context length exceeded).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err is marked non-retryable.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// transientMarkers identify provider-side failures that justify downgrading
// structured-output mode for the remainder of an agent invocation.
var transientMarkers = []string{
	" 502", " 503", " 504", "502 ", "503 ", "504 ",
	"bad gateway", "service unavailable", "gateway timeout", "overloaded",
}

// IsTransientStructuredFailure reports whether err looks like a transient
// provider rejection of structured-output mode (the structured-output
// downgrade heuristic).
func IsTransientStructuredFailure(err error) bool {
	if err == nil || IsPermanent(err) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
