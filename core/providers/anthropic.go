package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/fluxion-eng/fluxion/core/jsonx"
)

// AnthropicProvider speaks the Anthropic Messages API. Claude has no
// server-side JSON mode; ModeJSON is emulated by an output-format
// instruction, and callers re-validate the payload as they do for every
// backend.
type AnthropicProvider struct {
	client *anthropic.Client
	config Config
}

const anthropicJSONInstruction = "Respond with a single valid JSON document and nothing else. " +
	"No prose, no code fences."

// NewAnthropicProvider creates a provider backed by the Anthropic API.
func NewAnthropicProvider(cfg Config) (*AnthropicProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("anthropic: model is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	client := anthropic.NewClient(opts...)
	return &AnthropicProvider{client: &client, config: cfg}, nil
}

// Name returns the backend label plus model.
func (p *AnthropicProvider) Name() string { return "anthropic:" + p.config.Model }

// Close releases provider resources.
func (p *AnthropicProvider) Close() error { return nil }

// Invoke performs one message completion in the requested mode.
func (p *AnthropicProvider) Invoke(ctx context.Context, req *Request) (*Reply, error) {
	params := p.buildParams(req)

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic invoke: %w", err)
	}

	reply := p.convertResponse(msg)
	if req.Mode == ModeJSON {
		if parsed, perr := jsonx.ExtractRaw(reply.Content); perr != nil {
			reply.ParseError = perr.Error()
		} else {
			reply.Parsed = parsed
		}
	}
	return reply, nil
}

func (p *AnthropicProvider) buildParams(req *Request) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	var system []string
	var rest []Message
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	if req.Mode == ModeJSON {
		system = append(system, anthropicJSONInstruction)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: int64(maxTokens),
		Messages:  p.convertMessages(rest),
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}

	temp := p.config.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	// The Messages API caps temperature at 1.
	if temp > 1 {
		temp = 1
	}
	params.Temperature = anthropic.Float(temp)

	if req.Mode == ModeTools {
		params.Tools = p.convertTools(req.Tools)
	}

	return params
}

func (p *AnthropicProvider) convertMessages(messages []Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			result = append(result, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))

		case RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.ToolCalls)+1)
				if msg.Content != "" {
					blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
				}
				for _, tc := range msg.ToolCalls {
					blocks = append(blocks, anthropic.ContentBlockParamUnion{
						OfToolUse: &anthropic.ToolUseBlockParam{
							ID:    tc.ID,
							Name:  tc.Name,
							Input: tc.Arguments,
						},
					})
				}
				result = append(result, anthropic.NewAssistantMessage(blocks...))
			} else {
				result = append(result, anthropic.NewAssistantMessage(
					anthropic.NewTextBlock(msg.Content),
				))
			}

		case RoleTool:
			result = append(result, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
			))
		}
	}

	return result
}

func (p *AnthropicProvider) convertTools(tools []Tool) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		result[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: anthropicSchema(tool.Parameters),
			},
		}
	}
	return result
}

func anthropicSchema(params map[string]any) anthropic.ToolInputSchemaParam {
	return anthropic.ToolInputSchemaParam{
		Type:       "object",
		Properties: params["properties"],
		Required:   requiredFields(params),
	}
}

func requiredFields(params map[string]any) []string {
	req, ok := params["required"].([]any)
	if !ok {
		// Schemas built in Go carry []string directly.
		if rs, ok := params["required"].([]string); ok {
			return rs
		}
		return nil
	}
	result := make([]string, 0, len(req))
	for _, r := range req {
		if s, ok := r.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

func (p *AnthropicProvider) convertResponse(msg *anthropic.Message) *Reply {
	var content strings.Builder
	var toolCalls []ToolCall

	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			content.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			args, _ := b.Input.MarshalJSON()
			toolCalls = append(toolCalls, ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: string(args),
			})
		}
	}

	return &Reply{
		Content:   content.String(),
		Model:     string(msg.Model),
		ToolCalls: toolCalls,
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
}
