// Package manager implements the final stage: the project manager's
// approval-style report over the whole design package.
package manager

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

const Name = "project_manager"

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

// Step writes the project manager report over the full design package.
func (a *Agent) Step(ctx context.Context, st *state.DesignState) error {
	if err := st.Require(
		state.FieldRequirements,
		state.FieldDesignBasis,
		state.FieldEquipmentAndStreamList,
		state.FieldSafetyRiskAnalystReport,
	); err != nil {
		return err
	}

	msgs := []providers.Message{
		providers.SystemMessage(systemPrompt),
		providers.UserMessage(userPrompt(st)),
	}

	res, err := a.caller.Text(ctx, Name, msgs, func(content string) error {
		if !strings.Contains(content, "Approval Status") {
			return fmt.Errorf("missing Approval Status section")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", Name, err)
	}

	st.ProjectManagerReport = invoke.Clean(res.Reply.Content)
	st.Append(Name, res.Reply.AssistantMessage())
	a.logger.Info("project manager report written", "chars", len(st.ProjectManagerReport), "attempts", len(res.Attempts))
	return nil
}
