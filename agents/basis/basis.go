// Package basis implements the design basis stage: the selected concept and
// requirements are consolidated into a fixed-structure design basis document.
package basis

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

const Name = "design_basis_analyst"

var requiredSections = []string{
	"Executive Summary",
	"Design Scope",
	"Feed Specifications",
	"Product Specifications",
	"Components",
	"Assumptions & Constraints",
}

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

// Step writes the design basis document.
func (a *Agent) Step(ctx context.Context, st *state.DesignState) error {
	if err := st.Require(state.FieldRequirements, state.FieldSelectedConceptDetails); err != nil {
		return err
	}

	msgs := []providers.Message{
		providers.SystemMessage(systemPrompt),
		providers.UserMessage(userPrompt(st.Requirements, st.SelectedConceptName, st.SelectedConceptDetails)),
	}

	res, err := a.caller.Text(ctx, Name, msgs, func(content string) error {
		for _, section := range requiredSections {
			if !strings.Contains(content, section) {
				return fmt.Errorf("missing %s section", section)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", Name, err)
	}

	st.DesignBasis = invoke.Clean(res.Reply.Content)
	st.Append(Name, res.Reply.AssistantMessage())
	a.logger.Info("design basis written", "chars", len(st.DesignBasis), "attempts", len(res.Attempts))
	return nil
}
