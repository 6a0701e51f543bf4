// Package conservative implements the concept review stage: each candidate
// concept is scored for feasibility and annotated with risks and
// recommendations, in place.
package conservative

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

const Name = "conservative_researcher"

const (
	minScore = 1
	maxScore = 10
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

// Step reads the generated concepts and overwrites them with the scored,
// risk-annotated version.
func (a *Agent) Step(ctx context.Context, st *state.DesignState) error {
	if err := st.Require(state.FieldRequirements, state.FieldResearchConcepts); err != nil {
		return err
	}

	var input chem.ConceptList
	if err := json.Unmarshal(st.ResearchConcepts, &input); err != nil {
		return fmt.Errorf("%s: research concepts do not parse: %w", Name, err)
	}

	msgs := []providers.Message{
		providers.SystemMessage(systemPrompt),
		providers.UserMessage(userPrompt(st.Requirements, string(st.ResearchConcepts))),
	}

	var reviewed chem.ConceptList
	_, res, err := a.caller.JSON(ctx, Name, msgs, nil, func(raw json.RawMessage) error {
		list, err := normalize(raw)
		if err != nil {
			return err
		}
		if len(list.Concepts) != len(input.Concepts) {
			return fmt.Errorf("expected %d concepts back, got %d", len(input.Concepts), len(list.Concepts))
		}
		for _, c := range list.Concepts {
			if c.FeasibilityScore == nil {
				return fmt.Errorf("concept %q: missing feasibility_score", c.Name)
			}
			if s := *c.FeasibilityScore; s < minScore || s > maxScore {
				return fmt.Errorf("concept %q: feasibility_score %d outside %d..%d", c.Name, s, minScore, maxScore)
			}
		}
		reviewed = list
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", Name, err)
	}

	normalized, err := json.Marshal(reviewed)
	if err != nil {
		return fmt.Errorf("%s: %w", Name, err)
	}
	st.ResearchConcepts = normalized
	st.Append(Name, res.Reply.AssistantMessage())
	a.logger.Info("concepts reviewed", "count", len(reviewed.Concepts), "attempts", len(res.Attempts))
	return nil
}

// normalize accepts either the canonical {"concepts": [...]} wrapper or a
// bare concept array, which some models emit despite instructions.
func normalize(raw json.RawMessage) (chem.ConceptList, error) {
	var list chem.ConceptList
	if err := json.Unmarshal(raw, &list); err == nil && len(list.Concepts) > 0 {
		return list, nil
	}
	var bare []chem.Concept
	if err := json.Unmarshal(raw, &bare); err == nil && len(bare) > 0 {
		return chem.ConceptList{Concepts: bare}, nil
	}
	return chem.ConceptList{}, fmt.Errorf("reply is neither a concept list nor a concept array")
}
