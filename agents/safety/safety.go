// Package safety implements the hazard review stage: a preliminary risk
// assessment of the designed process in Markdown form.
package safety

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/fluxion-eng/fluxion/core/invoke"
	"github.com/fluxion-eng/fluxion/core/providers"
	"github.com/fluxion-eng/fluxion/core/retry"
	"github.com/fluxion-eng/fluxion/core/state"
)

const Name = "safety_risk_analyst"

const (
	minHazards = 3
	maxHazards = 5
)

var hazardHeading = regexp.MustCompile(`(?m)^#{2,3}\s+Hazard\b`)

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

// Step writes the safety and risk assessment.
func (a *Agent) Step(ctx context.Context, st *state.DesignState) error {
	if err := st.Require(state.FieldBasicPFD, state.FieldEquipmentAndStreamList); err != nil {
		return err
	}

	msgs := []providers.Message{
		providers.SystemMessage(systemPrompt),
		providers.UserMessage(userPrompt(st.BasicPFD, string(st.EquipmentAndStreamList))),
	}

	res, err := a.caller.Text(ctx, Name, msgs, func(content string) error {
		n := len(hazardHeading.FindAllString(content, -1))
		if n < minHazards || n > maxHazards {
			return fmt.Errorf("expected %d-%d hazard sections, found %d", minHazards, maxHazards, n)
		}
		if !strings.Contains(content, "Overall Assessment") {
			return fmt.Errorf("missing Overall Assessment section")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", Name, err)
	}

	st.SafetyRiskAnalystReport = invoke.Clean(res.Reply.Content)
	st.Append(Name, res.Reply.AssistantMessage())
	a.logger.Info("safety review written", "chars", len(st.SafetyRiskAnalystReport), "attempts", len(res.Attempts))
	return nil
}
