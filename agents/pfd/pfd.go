// Package pfd implements the process flow diagram stage: a textual PFD
// covering units, streams and the overall flow description.
package pfd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fluxion-eng/fluxion/core/invoke"
	"github.com/fluxion-eng/fluxion/core/providers"
	"github.com/fluxion-eng/fluxion/core/retry"
	"github.com/fluxion-eng/fluxion/core/state"
)

const Name = "pfd_designer"

// minContentLength guards against degenerate one-line replies.
const minContentLength = 100

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

// Step writes the basic PFD document.
func (a *Agent) Step(ctx context.Context, st *state.DesignState) error {
	if err := st.Require(state.FieldDesignBasis, state.FieldSelectedConceptDetails); err != nil {
		return err
	}

	msgs := []providers.Message{
		providers.SystemMessage(systemPrompt),
		providers.UserMessage(userPrompt(st.DesignBasis, st.SelectedConceptDetails)),
	}

	res, err := a.caller.Text(ctx, Name, msgs, func(content string) error {
		if len(content) <= minContentLength {
			return fmt.Errorf("PFD too short: %d chars", len(content))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", Name, err)
	}

	st.BasicPFD = invoke.Clean(res.Reply.Content)
	st.Append(Name, res.Reply.AssistantMessage())
	a.logger.Info("pfd drafted", "chars", len(st.BasicPFD), "attempts", len(res.Attempts))
	return nil
}
