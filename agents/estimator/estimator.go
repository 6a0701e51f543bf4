// Package estimator implements the stream data estimation stage: the
// placeholder flowsheet numbers are replaced with a reconciled mass and
// energy picture, stream by stream.
package estimator

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

const Name = "stream_estimator"

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

// Step overwrites the equipment and stream list with populated stream data.
func (a *Agent) Step(ctx context.Context, st *state.DesignState) error {
	if err := st.Require(state.FieldEquipmentAndStreamList, state.FieldDesignBasis); err != nil {
		return err
	}

	input, err := chem.ParseEquipmentAndStreams(st.EquipmentAndStreamList)
	if err != nil {
		return fmt.Errorf("%s: current list does not parse: %w", Name, err)
	}
	wantStreams := input.StreamIDs()
	wantEquipment := input.EquipmentIDs()

	msgs := []providers.Message{
		providers.SystemMessage(systemPrompt),
		providers.UserMessage(userPrompt(st.DesignBasis, string(st.EquipmentAndStreamList))),
	}

	var estimated *chem.EquipmentAndStreams
	_, res, err := a.caller.JSON(ctx, Name, msgs, nil, func(raw json.RawMessage) error {
		es, err := chem.ParseEquipmentAndStreams(raw)
		if err != nil {
			return fmt.Errorf("estimate does not parse: %w", err)
		}
		if err := checkIDStability(es, wantEquipment, wantStreams); err != nil {
			return err
		}
		// Canonicalize before the closure check so mass-basis keys the
		// model invented still count toward the sum.
		for i := range es.Streams {
			chem.CanonicalizeMassFractions(&es.Streams[i])
		}
		if err := chem.CheckCompositionClosure(es); err != nil {
			return err
		}
		estimated = es
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", Name, err)
	}

	// Open balances are logged, not fatal.
	if violations, err := chem.CheckMassBalance(estimated); err != nil {
		a.logger.Warn("mass balance not closed", "violations", len(violations), "error", err)
	}

	normalized, err := json.Marshal(estimated)
	if err != nil {
		return fmt.Errorf("%s: %w", Name, err)
	}
	st.EquipmentAndStreamList = normalized
	st.Append(Name, res.Reply.AssistantMessage())
	a.logger.Info("stream data estimated",
		"streams", len(estimated.Streams), "attempts", len(res.Attempts))
	return nil
}

// checkIDStability verifies the estimator returned the same flowsheet it was
// given: no items invented, none dropped.
func checkIDStability(es *chem.EquipmentAndStreams, wantEquipment, wantStreams map[string]struct{}) error {
	gotStreams := es.StreamIDs()
	for id := range wantStreams {
		if _, ok := gotStreams[id]; !ok {
			return fmt.Errorf("stream %s dropped from estimate", id)
		}
	}
	for id := range gotStreams {
		if _, ok := wantStreams[id]; !ok {
			return fmt.Errorf("stream %s invented by estimate", id)
		}
	}
	gotEquipment := es.EquipmentIDs()
	for id := range wantEquipment {
		if _, ok := gotEquipment[id]; !ok {
			return fmt.Errorf("equipment %s dropped from estimate", id)
		}
	}
	for id := range gotEquipment {
		if _, ok := wantEquipment[id]; !ok {
			return fmt.Errorf("equipment %s invented by estimate", id)
		}
	}
	return nil
}
