// Package detailer implements concept selection and elaboration: one
// reviewed concept is chosen (interactively or by score) and expanded into
// a detailed engineering brief.
package detailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fluxion-eng/fluxion/core/chem"
	"github.com/fluxion-eng/fluxion/core/invoke"
	"github.com/fluxion-eng/fluxion/core/providers"
	"github.com/fluxion-eng/fluxion/core/retry"
	"github.com/fluxion-eng/fluxion/core/state"
)

const Name = "concept_detailer"

// Selector chooses a concept index. Returning ok=false falls back to the
// default score-based policy.
type Selector func(concepts []chem.Concept) (int, bool)

type Config struct {
	Provider    providers.Provider
	Harness     *retry.Harness
	Logger      *slog.Logger
	Temperature *float64
	MaxTokens   int

	// Selector overrides the default selection policy, e.g. with an
	// interactive prompt. Optional.
	Selector Selector
}

type Agent struct {
	caller   invoke.Caller
	logger   *slog.Logger
	selector Selector
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
		logger:   cfg.Logger,
		selector: cfg.Selector,
	}
}

func (a *Agent) Name() string { return Name }

// Step selects a concept and writes its name plus the detailed brief.
func (a *Agent) Step(ctx context.Context, st *state.DesignState) error {
	if err := st.Require(state.FieldRequirements, state.FieldResearchConcepts); err != nil {
		return err
	}

	var list chem.ConceptList
	if err := json.Unmarshal(st.ResearchConcepts, &list); err != nil {
		return fmt.Errorf("%s: research concepts do not parse: %w", Name, err)
	}
	if len(list.Concepts) == 0 {
		return fmt.Errorf("%s: no concepts to select from", Name)
	}

	idx := a.selectIndex(list.Concepts)
	chosen := list.Concepts[idx]
	a.logger.Info("concept selected", "name", chosen.Name, "index", idx,
		"score", scoreOf(chosen))

	conceptJSON, err := json.MarshalIndent(chosen, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", Name, err)
	}

	msgs := []providers.Message{
		providers.SystemMessage(systemPrompt),
		providers.UserMessage(userPrompt(st.Requirements, string(conceptJSON))),
	}

	res, err := a.caller.Text(ctx, Name, msgs, func(content string) error {
		if !strings.Contains(content, "Concept Summary") {
			return fmt.Errorf("missing Concept Summary section")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", Name, err)
	}

	st.SelectedConceptName = chosen.Name
	st.SelectedConceptDetails = invoke.Clean(res.Reply.Content)
	st.Append(Name, res.Reply.AssistantMessage())
	return nil
}

// selectIndex applies the configured selector, falling back to the highest
// feasibility score with the earliest concept winning ties.
func (a *Agent) selectIndex(concepts []chem.Concept) int {
	if a.selector != nil {
		if idx, ok := a.selector(concepts); ok && idx >= 0 && idx < len(concepts) {
			return idx
		}
	}
	best := 0
	for i := 1; i < len(concepts); i++ {
		if scoreOf(concepts[i]) > scoreOf(concepts[best]) {
			best = i
		}
	}
	return best
}

func scoreOf(c chem.Concept) int {
	if c.FeasibilityScore == nil {
		return 0
	}
	return *c.FeasibilityScore
}
