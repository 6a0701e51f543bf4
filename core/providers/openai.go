package providers

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/fluxion-eng/fluxion/core/jsonx"
)

// OpenAIProvider speaks the OpenAI chat-completions wire format. It serves
// three backends: api.openai.com, OpenRouter and Ollama, differing only in
// base URL and credential.
type OpenAIProvider struct {
	client openai.Client
	config Config
	label  string
}

// NewOpenAIProvider builds an OpenAI-compatible provider. label names the
// backend in logs ("openai", "openrouter", "ollama"); defaultBaseURL is used
// when the config does not override it.
func NewOpenAIProvider(cfg Config, label, defaultBaseURL string) (*OpenAIProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%s: model is required", label)
	}

	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		config: cfg,
		label:  label,
	}, nil
}

// Name returns the backend label plus model.
func (p *OpenAIProvider) Name() string {
	return p.label + ":" + p.config.Model
}

// Close releases provider resources.
func (p *OpenAIProvider) Close() error { return nil }

// Invoke performs one chat completion in the requested mode.
func (p *OpenAIProvider) Invoke(ctx context.Context, req *Request) (*Reply, error) {
	params := p.buildParams(req)

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s invoke: %w", p.label, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%s invoke: empty choices", p.label)
	}

	msg := completion.Choices[0].Message
	reply := &Reply{
		Content: msg.Content,
		Model:   completion.Model,
		Usage: Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:  int(completion.Usage.TotalTokens),
		},
	}

	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	if req.Mode == ModeJSON {
		if parsed, perr := jsonx.ExtractRaw(reply.Content); perr != nil {
			reply.ParseError = perr.Error()
		} else {
			reply.Parsed = parsed
		}
	}

	return reply, nil
}

func (p *OpenAIProvider) buildParams(req *Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.config.Model),
		Messages: p.convertMessages(req.Messages),
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	} else {
		params.Temperature = openai.Float(p.config.Temperature)
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	switch req.Mode {
	case ModeJSON:
		if req.Schema != nil {
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
					JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
						Name:   "structured_output",
						Schema: req.Schema,
						Strict: openai.Bool(false),
					},
				},
			}
		} else {
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			}
		}
	case ModeTools:
		params.Tools = p.convertTools(req.Tools)
	}

	return params
}

func (p *OpenAIProvider) convertMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))

		case RoleUser:
			result = append(result, openai.UserMessage(msg.Content))

		case RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				assistant := openai.ChatCompletionAssistantMessageParam{}
				if msg.Content != "" {
					assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					}
				}
				for _, tc := range msg.ToolCalls {
					assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: tc.Arguments,
						},
					})
				}
				result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
			} else {
				result = append(result, openai.AssistantMessage(msg.Content))
			}

		case RoleTool:
			result = append(result, openai.ToolMessage(msg.Content, msg.ToolCallID))
		}
	}

	return result
}

func (p *OpenAIProvider) convertTools(tools []Tool) []openai.ChatCompletionToolParam {
	result := make([]openai.ChatCompletionToolParam, len(tools))
	for i, tool := range tools {
		result[i] = openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  shared.FunctionParameters(tool.Parameters),
			},
		}
	}
	return result
}
