// Package invoke wraps provider calls with the retry harness and the
// parsing conventions every agent shares: fence stripping for text output,
// lenient document extraction for JSON output, and the downgrade from
// structured to free-form mode when a provider transiently rejects
// structured requests.
package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fluxion-eng/fluxion/core/jsonx"
	"github.com/fluxion-eng/fluxion/core/providers"
	"github.com/fluxion-eng/fluxion/core/retry"
)

// Caller issues validated LLM calls on behalf of one agent.
type Caller struct {
	Provider    providers.Provider
	Harness     *retry.Harness
	Logger      *slog.Logger
	Temperature *float64
	MaxTokens   int
}

func (c *Caller) harness() *retry.Harness {
	if c.Harness != nil {
		return c.Harness
	}
	return retry.New()
}

func (c *Caller) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Text invokes the model in free-text mode until validate accepts the
// fence-stripped content. The returned result carries the final reply and
// the attempt log.
func (c *Caller) Text(ctx context.Context, name string, msgs []providers.Message, validate func(content string) error) (*retry.Result, error) {
	return c.harness().Do(ctx, name,
		func(ctx context.Context) (*providers.Reply, error) {
			return c.Provider.Invoke(ctx, &providers.Request{
				Messages:    msgs,
				Mode:        providers.ModeText,
				Temperature: c.Temperature,
				MaxTokens:   c.MaxTokens,
			})
		},
		func(reply *providers.Reply) error {
			content := Clean(reply.Content)
			if content == "" {
				return fmt.Errorf("empty reply")
			}
			if validate != nil {
				return validate(content)
			}
			return nil
		})
}

// JSON invokes the model in structured mode until validate accepts the
// parsed document. If a provider transiently rejects a structured request,
// the remaining attempts fall back to free-text mode and the document is
// extracted from the raw reply instead.
func (c *Caller) JSON(ctx context.Context, name string, msgs []providers.Message, schema map[string]any, validate func(doc json.RawMessage) error) (json.RawMessage, *retry.Result, error) {
	mode := providers.ModeJSON
	var accepted json.RawMessage

	res, err := c.harness().Do(ctx, name,
		func(ctx context.Context) (*providers.Reply, error) {
			reply, err := c.Provider.Invoke(ctx, &providers.Request{
				Messages:    msgs,
				Mode:        mode,
				Schema:      schema,
				Temperature: c.Temperature,
				MaxTokens:   c.MaxTokens,
			})
			if err != nil {
				if mode == providers.ModeJSON && providers.IsTransientStructuredFailure(err) {
					c.logger().Warn("structured output rejected, downgrading to text",
						"agent", name, "error", err)
					mode = providers.ModeText
				}
				return nil, err
			}
			return reply, nil
		},
		func(reply *providers.Reply) error {
			doc := reply.Parsed
			if len(doc) == 0 {
				raw, err := jsonx.ExtractRaw(reply.Content)
				if err != nil {
					if reply.ParseError != "" {
						return fmt.Errorf("unparseable reply: %s", reply.ParseError)
					}
					return fmt.Errorf("no JSON document in reply: %w", err)
				}
				doc = raw
			}
			if validate != nil {
				if err := validate(doc); err != nil {
					return err
				}
			}
			accepted = doc
			return nil
		})
	if err != nil {
		return nil, res, err
	}
	return accepted, res, nil
}

// Clean strips Markdown code fences and surrounding whitespace from model
// output.
func Clean(content string) string {
	return strings.TrimSpace(jsonx.StripFences(content))
}
