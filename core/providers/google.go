package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/fluxion-eng/fluxion/core/jsonx"
)

// GoogleProvider wraps the genai SDK. System messages map to the system
// instruction; tool traffic maps to function call/response parts. Gemini
// does not return tool-call IDs, so the provider synthesizes them and keys
// function responses by tool name.
type GoogleProvider struct {
	client *genai.Client
	config Config
}

// NewGoogleProvider creates a provider backed by the Gemini API.
func NewGoogleProvider(cfg Config) (*GoogleProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("google: model is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}

	return &GoogleProvider{client: client, config: cfg}, nil
}

// Name returns the backend label plus model.
func (p *GoogleProvider) Name() string { return "google:" + p.config.Model }

// Close releases provider resources.
func (p *GoogleProvider) Close() error { return nil }

// Invoke performs one generation in the requested mode.
func (p *GoogleProvider) Invoke(ctx context.Context, req *Request) (*Reply, error) {
	contents, system := p.convertMessages(req.Messages)

	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	temp := p.config.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	cfg.Temperature = genai.Ptr(float32(temp))

	switch req.Mode {
	case ModeJSON:
		cfg.ResponseMIMEType = "application/json"
	case ModeTools:
		cfg.Tools = p.convertTools(req.Tools)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.config.Model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("google invoke: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("google invoke: empty candidates")
	}

	reply := &Reply{Model: p.config.Model}
	if resp.UsageMetadata != nil {
		reply.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			args, _ := json.Marshal(part.FunctionCall.Args)
			reply.ToolCalls = append(reply.ToolCalls, ToolCall{
				ID:        "call_" + uuid.New().String()[:8],
				Name:      part.FunctionCall.Name,
				Arguments: string(args),
			})
		}
	}
	reply.Content = text.String()

	if req.Mode == ModeJSON {
		if parsed, perr := jsonx.ExtractRaw(reply.Content); perr != nil {
			reply.ParseError = perr.Error()
		} else {
			reply.Parsed = parsed
		}
	}

	return reply, nil
}

// convertMessages maps the neutral transcript to genai contents plus a
// combined system instruction. Tool result messages become function
// response parts; Gemini matches them by function name, so the original
// tool name is recovered from the preceding assistant tool calls.
func (p *GoogleProvider) convertMessages(messages []Message) ([]*genai.Content, string) {
	var system []string
	var contents []*genai.Content
	callNames := make(map[string]string)

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, msg.Content)

		case RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.Content}},
			})

		case RoleAssistant:
			parts := []*genai.Part{}
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				callNames[tc.ID] = tc.Name
				var args map[string]any
				_ = json.Unmarshal([]byte(tc.Arguments), &args)
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{Name: tc.Name, Args: args},
				})
			}
			if len(parts) == 0 {
				parts = append(parts, &genai.Part{Text: ""})
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})

		case RoleTool:
			name := callNames[msg.ToolCallID]
			var payload map[string]any
			if err := json.Unmarshal([]byte(msg.Content), &payload); err != nil {
				payload = map[string]any{"result": msg.Content}
			}
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{Name: name, Response: payload},
				}},
			})
		}
	}

	return contents, strings.Join(system, "\n\n")
}

func (p *GoogleProvider) convertTools(tools []Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, tool := range tools {
		decls[i] = &genai.FunctionDeclaration{
			Name:                 tool.Name,
			Description:          tool.Description,
			ParametersJsonSchema: tool.Parameters,
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}
