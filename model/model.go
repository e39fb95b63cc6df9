package model

import (
	"context"
	"fmt"
)

// Role values used in conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// WebSearchToolName is the well-known name adapters map to their provider's
// native web search facility.
const WebSearchToolName = "web_search"

// Message is a single provider-neutral conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolDefinition declaratively exposes a callable tool to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
// MaxUses, when positive, caps how often a provider-executed tool (such as
// web search) may run within a single completion.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	MaxUses     int            `json:"max_uses,omitempty"`
}

// WebSearchTool returns the search tool definition with a bounded use count.
func WebSearchTool(maxUses int) ToolDefinition {
	return ToolDefinition{
		Name:        WebSearchToolName,
		Description: "Search the web for current information.",
		MaxUses:     maxUses,
	}
}

// Request captures the normalized input for a completion call.
type Request struct {
	System   string           `json:"system"`
	Messages []Message        `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name               string `json:"name"`
	Provider           string `json:"provider"` // "anthropic", "openai", "mock", etc.
	SupportsForcedTool bool   `json:"supports_forced_tool"`
}

// Model is the completion capability consumed by the writer and judge agents.
//
// Complete sends a free-form request; when Tools are present the model may
// (but is not forced to) use them. CompleteForced instructs the provider to
// invoke exactly the given tool and returns its arguments, which the provider
// API guarantees conform to the tool's parameter schema; callers need no
// validation step.
//
// Neither operation retries on failure; provider errors propagate wrapped.
type Model interface {
	Complete(ctx context.Context, req Request) (string, error)
	CompleteForced(ctx context.Context, req Request, tool ToolDefinition) (map[string]any, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model for tests and examples. Replies
// are consumed from per-operation queues in call order, and every call is
// recorded for assertions.
type MockModel struct {
	info Info

	completions []string
	forced      []map[string]any

	// Calls records every Complete invocation in order.
	Calls []Request
	// ForcedCalls records every CompleteForced invocation in order.
	ForcedCalls []ForcedCall

	// Err, when set, is returned by the next operation instead of a reply.
	Err error
}

// ForcedCall captures one CompleteForced invocation.
type ForcedCall struct {
	Request Request
	Tool    ToolDefinition
}

// NewMockModel constructs an empty MockModel.
func NewMockModel() *MockModel {
	return &MockModel{
		info: Info{Name: "mock", Provider: "mock", SupportsForcedTool: true},
	}
}

// QueueCompletion appends canned replies for future Complete calls.
func (m *MockModel) QueueCompletion(replies ...string) {
	m.completions = append(m.completions, replies...)
}

// QueueForced appends canned structured results for future CompleteForced calls.
func (m *MockModel) QueueForced(results ...map[string]any) {
	m.forced = append(m.forced, results...)
}

// Complete implements Model by popping the next queued reply.
func (m *MockModel) Complete(_ context.Context, req Request) (string, error) {
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.completions) == 0 {
		return "", fmt.Errorf("mock model: no completion queued for call %d", len(m.Calls))
	}
	reply := m.completions[0]
	m.completions = m.completions[1:]
	return reply, nil
}

// CompleteForced implements Model by popping the next queued structured result.
func (m *MockModel) CompleteForced(_ context.Context, req Request, tool ToolDefinition) (map[string]any, error) {
	m.ForcedCalls = append(m.ForcedCalls, ForcedCall{Request: req, Tool: tool})
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.forced) == 0 {
		return nil, fmt.Errorf("mock model: no forced result queued for call %d", len(m.ForcedCalls))
	}
	result := m.forced[0]
	m.forced = m.forced[1:]
	return result, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
