// Package builder implements the equipment and stream list stage: the
// textual PFD is transcribed into the structured flowsheet artifact with
// placeholder numeric values for the estimator to fill in.
package builder

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

const Name = "equipment_stream_builder"

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

// Step writes the structured equipment and stream list.
func (a *Agent) Step(ctx context.Context, st *state.DesignState) error {
	if err := st.Require(state.FieldSelectedConceptDetails, state.FieldBasicPFD, state.FieldDesignBasis); err != nil {
		return err
	}

	msgs := []providers.Message{
		providers.SystemMessage(systemPrompt),
		providers.UserMessage(userPrompt(st.SelectedConceptDetails, st.DesignBasis, st.BasicPFD)),
	}

	var parsed *chem.EquipmentAndStreams
	_, res, err := a.caller.JSON(ctx, Name, msgs, nil, func(raw json.RawMessage) error {
		es, err := chem.ParseEquipmentAndStreams(raw)
		if err != nil {
			return fmt.Errorf("list does not parse: %w", err)
		}
		if len(es.Equipments) == 0 {
			return fmt.Errorf("equipments is empty")
		}
		if len(es.Streams) == 0 {
			return fmt.Errorf("streams is empty")
		}
		if err := checkConnectivity(es); err != nil {
			return err
		}
		parsed = es
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", Name, err)
	}

	normalized, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("%s: %w", Name, err)
	}
	st.EquipmentAndStreamList = normalized
	st.Append(Name, res.Reply.AssistantMessage())
	a.logger.Info("equipment list built",
		"equipments", len(parsed.Equipments), "streams", len(parsed.Streams),
		"attempts", len(res.Attempts))
	return nil
}

// checkConnectivity verifies every stream endpoint names a known equipment
// item or a battery-limit marker.
func checkConnectivity(es *chem.EquipmentAndStreams) error {
	ids := es.EquipmentIDs()
	valid := func(endpoint string) bool {
		if endpoint == "FEED" || endpoint == "PRODUCT" {
			return true
		}
		_, ok := ids[endpoint]
		return ok
	}
	for _, s := range es.Streams {
		if !valid(s.From) {
			return fmt.Errorf("stream %s: unknown source %q", s.ID, s.From)
		}
		if !valid(s.To) {
			return fmt.Errorf("stream %s: unknown destination %q", s.ID, s.To)
		}
	}
	return nil
}
