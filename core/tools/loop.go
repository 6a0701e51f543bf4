package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fluxion-eng/fluxion/core/providers"
)

// DefaultLoopIters bounds tool-calling loops that do not set their own cap.
const DefaultLoopIters = 8

// Loop runs the tool-calling conversation pattern: invoke the model with a
// bound tool set, dispatch every requested call in emission order, feed
// results back, and repeat until the model answers without tool calls or the
// iteration cap is hit.
type Loop struct {
	Provider provider
	Registry *Registry
	MaxIters int
	Logger   *slog.Logger

	// Temperature and MaxTokens are forwarded on every request when set.
	Temperature *float64
	MaxTokens   int
}

// provider is the minimal call surface the loop needs.
type provider interface {
	Invoke(ctx context.Context, req *providers.Request) (*providers.Reply, error)
}

// LoopResult reports the loop outcome.
type LoopResult struct {
	// Reply is the final assistant reply, the one without tool calls or the
	// last reply before the cap cut the loop off.
	Reply *providers.Reply
	// Messages is the full conversation including tool traffic.
	Messages []providers.Message
	// Iterations counts LLM invocations performed.
	Iterations int
	// Dispatches counts tool executions performed.
	Dispatches int
	// CapHit is true when the loop was terminated by the iteration cap.
	CapHit bool
}

// Run executes the loop over the given base conversation. The base slice is
// not mutated.
func (l *Loop) Run(ctx context.Context, base []providers.Message) (*LoopResult, error) {
	if l.Provider == nil || l.Registry == nil {
		return nil, fmt.Errorf("tools: loop requires a provider and a registry")
	}
	limit := l.MaxIters
	if limit <= 0 {
		limit = DefaultLoopIters
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	msgs := make([]providers.Message, len(base))
	copy(msgs, base)
	toolSet := l.Registry.Tools()

	res := &LoopResult{}
	for {
		reply, err := l.Provider.Invoke(ctx, &providers.Request{
			Messages:    msgs,
			Mode:        providers.ModeTools,
			Tools:       toolSet,
			Temperature: l.Temperature,
			MaxTokens:   l.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("tools: loop invoke: %w", err)
		}
		res.Iterations++
		res.Reply = reply
		msgs = append(msgs, reply.AssistantMessage())

		if len(reply.ToolCalls) == 0 {
			break
		}

		for _, call := range reply.ToolCalls {
			payload, ok := l.Registry.Dispatch(ctx, call.Name, call.Arguments)
			res.Dispatches++
			logger.Debug("tool dispatched", "tool", call.Name, "ok", ok)
			msgs = append(msgs, providers.ToolMessage(call.ID, payload))
		}

		if res.Iterations >= limit {
			last := reply.ToolCalls[len(reply.ToolCalls)-1]
			msgs = append(msgs, providers.ToolMessage(last.ID,
				fmt.Sprintf(`{"error":"tool iteration limit of %d reached; answer with the results gathered so far"}`, limit)))
			res.CapHit = true
			logger.Warn("tool loop iteration cap reached", "cap", limit)
			break
		}
	}

	res.Messages = msgs
	return res, nil
}
