// Package anthropic provides a model wrapper for the Anthropic Claude API.
//
// It is the canonical factweave backend: the web_search tool maps to the
// provider-executed web_search_20250305 server tool, and CompleteForced uses
// tool_choice to guarantee a schema-conformant verdict.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/factweave/factweave/model"
)

// Options configures the Anthropic model adapter (model id, temperature,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaudeSonnet4_20250514,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// Complete implements model.Model. Tool definitions enable (but do not force)
// tool use; the web_search tool is executed server-side by the provider, so
// the returned text already reflects search results.
func (m *Model) Complete(ctx context.Context, req model.Request) (string, error) {
	params := m.buildParams(req)

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	return text, nil
}

// CompleteForced implements model.Model. The given tool is appended to the
// request's tool set and tool_choice pins the response to it; the API
// guarantees the returned input conforms to the tool's parameter schema.
func (m *Model) CompleteForced(ctx context.Context, req model.Request, tool model.ToolDefinition) (map[string]any, error) {
	req.Tools = append(req.Tools, tool)
	params := m.buildParams(req)
	params.ToolChoice = anthropic.ToolChoiceUnionParam{
		OfTool: &anthropic.ToolChoiceToolParam{Name: tool.Name},
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type != "tool_use" {
			continue
		}
		toolBlock := block.AsToolUse()
		if toolBlock.Name != tool.Name {
			continue
		}
		raw, err := json.Marshal(toolBlock.Input)
		if err != nil {
			return nil, fmt.Errorf("anthropic tool input: %w", err)
		}
		var args map[string]any
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("anthropic tool input: %w", err)
		}
		return args, nil
	}

	return nil, fmt.Errorf("anthropic response missing forced %q tool call", tool.Name)
}

// buildParams assembles the Messages API request from a normalized request.
func (m *Model) buildParams(req model.Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    buildMessages(req.Messages),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}
	return params
}

// buildMessages converts normalized messages to Anthropic message params.
func buildMessages(messages []model.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		block := anthropic.NewTextBlock(msg.Content)
		switch msg.Role {
		case model.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(block))
		default:
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

// buildTools converts tool definitions to Anthropic tool params. The
// web_search tool becomes the native server tool; everything else is a
// client tool with its JSON schema copied over.
func buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		if tool.Name == model.WebSearchToolName {
			search := anthropic.WebSearchTool20250305Param{}
			if tool.MaxUses > 0 {
				search.MaxUses = anthropic.Int(int64(tool.MaxUses))
			}
			out = append(out, anthropic.ToolUnionParam{OfWebSearchTool20250305: &search})
			continue
		}

		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if tool.Parameters != nil {
			if properties, ok := tool.Parameters["properties"]; ok {
				inputSchema.Properties = properties
			}
			inputSchema.Required = requiredStrings(tool.Parameters["required"])
		}

		tu := anthropic.ToolUnionParamOfTool(inputSchema, tool.Name)
		if tool.Description != "" && tu.OfTool != nil {
			tu.OfTool.Description = anthropic.String(tool.Description)
		}
		out = append(out, tu)
	}
	return out
}

// requiredStrings normalizes a JSON schema "required" value to []string.
func requiredStrings(v any) []string {
	switch req := v.(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:               string(m.opts.Model),
		Provider:           "anthropic",
		SupportsForcedTool: true,
	}
}
