// Package innovative implements the concept generation stage: a spread of
// candidate process concepts across maturity levels, as structured JSON.
package innovative

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fluxion-eng/fluxion/core/chem"
	"github.com/fluxion-eng/fluxion/core/invoke"
	"github.com/fluxion-eng/fluxion/core/providers"
	"github.com/fluxion-eng/fluxion/core/retry"
	"github.com/fluxion-eng/fluxion/core/state"
)

const Name = "innovative_researcher"

const (
	minConcepts = 3
	maxConcepts = 6
)

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

// Step reads the requirements and writes the research concepts document.
func (a *Agent) Step(ctx context.Context, st *state.DesignState) error {
	if err := st.Require(state.FieldProblemStatement, state.FieldRequirements); err != nil {
		return err
	}

	msgs := []providers.Message{
		providers.SystemMessage(systemPrompt),
		providers.UserMessage(userPrompt(st.ProblemStatement, st.Requirements)),
	}

	var list chem.ConceptList
	_, res, err := a.caller.JSON(ctx, Name, msgs, conceptSchema, func(raw json.RawMessage) error {
		list = chem.ConceptList{}
		if err := json.Unmarshal(raw, &list); err != nil {
			return fmt.Errorf("concepts do not parse: %w", err)
		}
		return validateConcepts(list.Concepts)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", Name, err)
	}

	// Re-marshal so downstream stages see the canonical wrapper shape.
	normalized, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("%s: %w", Name, err)
	}
	st.ResearchConcepts = normalized
	st.Append(Name, res.Reply.AssistantMessage())
	a.logger.Info("concepts generated", "count", len(list.Concepts), "attempts", len(res.Attempts))
	return nil
}

func validateConcepts(concepts []chem.Concept) error {
	if len(concepts) < minConcepts || len(concepts) > maxConcepts {
		return fmt.Errorf("expected %d-%d concepts, got %d", minConcepts, maxConcepts, len(concepts))
	}
	seen := make(map[chem.Maturity]bool)
	for i, c := range concepts {
		if c.Name == "" || c.Description == "" {
			return fmt.Errorf("concept %d: name and description are required", i)
		}
		if len(c.UnitOperations) == 0 {
			return fmt.Errorf("concept %q: unit_operations is empty", c.Name)
		}
		if len(c.KeyBenefits) == 0 {
			return fmt.Errorf("concept %q: key_benefits is empty", c.Name)
		}
		if c.FeasibilityScore != nil {
			return fmt.Errorf("concept %q: feasibility_score belongs to the review stage", c.Name)
		}
		valid := false
		for _, m := range chem.ValidMaturities() {
			if c.Maturity == m {
				valid = true
			}
		}
		if !valid {
			return fmt.Errorf("concept %q: unknown maturity %q", c.Name, c.Maturity)
		}
		seen[c.Maturity] = true
	}
	for _, m := range chem.ValidMaturities() {
		if !seen[m] {
			return fmt.Errorf("no concept with maturity %q", m)
		}
	}
	return nil
}
