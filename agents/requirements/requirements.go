// Package requirements implements the first pipeline stage: turning the raw
// problem statement into a structured Markdown requirements summary.
package requirements

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fluxion-eng/fluxion/core/invoke"
	"github.com/fluxion-eng/fluxion/core/providers"
	"github.com/fluxion-eng/fluxion/core/retry"
	"github.com/fluxion-eng/fluxion/core/state"
)

const Name = "requirements_analyst"

type Config struct {
	Provider    providers.Provider
	Harness     *retry.Harness
	Logger      *slog.Logger
	Temperature *float64
	MaxTokens   int
}

type Agent struct {
	caller invoke.Caller
	logger *slog.Logger
}

func New(cfg Config) *Agent {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Agent{
		caller: invoke.Caller{
			Provider:    cfg.Provider,
			Harness:     cfg.Harness,
			Logger:      cfg.Logger,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
		logger: cfg.Logger,
	}
}

func (a *Agent) Name() string { return Name }

// Step reads the problem statement and writes the requirements summary.
func (a *Agent) Step(ctx context.Context, st *state.DesignState) error {
	if err := st.Require(state.FieldProblemStatement); err != nil {
		return err
	}

	msgs := []providers.Message{
		providers.SystemMessage(systemPrompt),
		providers.UserMessage(userPrompt(st.ProblemStatement)),
	}

	res, err := a.caller.Text(ctx, Name, msgs, func(content string) error {
		if !strings.Contains(content, "Executive Summary") {
			return fmt.Errorf("missing Executive Summary section")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", Name, err)
	}

	st.Requirements = invoke.Clean(res.Reply.Content)
	st.Append(Name, res.Reply.AssistantMessage())
	a.logger.Info("requirements captured", "chars", len(st.Requirements), "attempts", len(res.Attempts))
	return nil
}
