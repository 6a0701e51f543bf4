// Package sizing implements the equipment sizing stage: each equipment item
// is sized through a tool-calling loop bound to deterministic sizing
// calculations.
package sizing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fluxion-eng/fluxion/core/chem"
	"github.com/fluxion-eng/fluxion/core/jsonx"
	"github.com/fluxion-eng/fluxion/core/providers"
	"github.com/fluxion-eng/fluxion/core/retry"
	"github.com/fluxion-eng/fluxion/core/state"
	"github.com/fluxion-eng/fluxion/core/tools"
)

const Name = "equipment_sizing"

// loopCap bounds the tool-calling loop per equipment item.
const loopCap = 5

type Config struct {
	Provider    providers.Provider
	Harness     *retry.Harness
	Logger      *slog.Logger
	Temperature *float64
	MaxTokens   int

	// Registry overrides the default tool set. Optional.
	Registry *tools.Registry

	// PropertyBackendURL points the property lookup tool at a remote
	// service. Optional; the builtin table is always available.
	PropertyBackendURL string
}

type Agent struct {
	provider providers.Provider
	harness  *retry.Harness
	logger   *slog.Logger
	registry *tools.Registry

	temperature *float64
	maxTokens   int
}

func New(cfg Config) *Agent {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = tools.NewRegistry(cfg.Logger)
		tools.RegisterSizingTools(reg)
		tools.RegisterBalanceTools(reg)
		tools.RegisterPropertyTool(reg, tools.NewPropertyLookup(cfg.PropertyBackendURL))
	}
	harness := cfg.Harness
	if harness == nil {
		harness = retry.Light()
	}
	return &Agent{
		provider:    cfg.Provider,
		harness:     harness,
		logger:      cfg.Logger,
		registry:    reg,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (a *Agent) Name() string { return Name }

// Step sizes every equipment item in the list, category by category.
// Items are updated in place; none are ever removed.
func (a *Agent) Step(ctx context.Context, st *state.DesignState) error {
	if err := st.Require(state.FieldEquipmentAndStreamList); err != nil {
		return err
	}

	es, err := chem.ParseEquipmentAndStreams(st.EquipmentAndStreamList)
	if err != nil {
		return fmt.Errorf("%s: list does not parse: %w", Name, err)
	}

	for _, category := range es.Categories() {
		for i := range es.Equipments {
			if es.Equipments[i].Category != category {
				continue
			}
			if err := a.sizeItem(ctx, st, es, &es.Equipments[i]); err != nil {
				return fmt.Errorf("%s: %s: %w", Name, es.Equipments[i].ID, err)
			}
		}
	}

	normalized, err := json.Marshal(es)
	if err != nil {
		return fmt.Errorf("%s: %w", Name, err)
	}
	st.EquipmentAndStreamList = normalized
	a.logger.Info("equipment sized", "items", len(es.Equipments))
	return nil
}

// sizeItem runs the tool loop for one item and merges the sized result back.
func (a *Agent) sizeItem(ctx context.Context, st *state.DesignState, es *chem.EquipmentAndStreams, item *chem.Equipment) error {
	itemJSON, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return err
	}
	streamsJSON, err := json.MarshalIndent(connectedStreams(es, item), "", "  ")
	if err != nil {
		return err
	}

	base := []providers.Message{
		providers.SystemMessage(systemPrompt),
		providers.UserMessage(userPrompt(item.ID, string(itemJSON), string(streamsJSON))),
	}
	loop := &tools.Loop{
		Provider:    a.provider,
		Registry:    a.registry,
		MaxIters:    loopCap,
		Logger:      a.logger,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	}

	var sized *chem.Equipment
	var loopRes *tools.LoopResult
	_, err = a.harness.Do(ctx, Name+"/"+item.ID,
		func(ctx context.Context) (*providers.Reply, error) {
			res, err := loop.Run(ctx, base)
			if err != nil {
				return nil, err
			}
			loopRes = res
			return res.Reply, nil
		},
		func(reply *providers.Reply) error {
			got, err := parseSizedItem(reply.Content, item.ID)
			if err != nil {
				return err
			}
			sized = got
			return nil
		})
	if err != nil {
		return err
	}

	for _, msg := range loopRes.Messages[len(base):] {
		st.Append(Name, msg)
	}

	if len(sized.SizingParameters) > 0 {
		item.SizingParameters = sized.SizingParameters
	}
	if sized.DutyOrLoad != nil {
		item.DutyOrLoad = sized.DutyOrLoad
	}
	if sized.DesignCriteria != "" {
		item.DesignCriteria = sized.DesignCriteria
	}
	if sized.Notes != "" {
		item.Notes = sized.Notes
	}
	a.logger.Info("item sized", "id", item.ID,
		"parameters", len(item.SizingParameters), "tool_calls", loopRes.Dispatches)
	return nil
}

// parseSizedItem extracts the sized equipment record from the final reply.
// Models sometimes return a list or the whole flowsheet; the record whose id
// matches the request wins.
func parseSizedItem(content, id string) (*chem.Equipment, error) {
	raw, err := jsonx.ExtractRaw(content)
	if err != nil {
		return nil, fmt.Errorf("no JSON in sizing reply: %w", err)
	}

	var single chem.Equipment
	if err := json.Unmarshal(raw, &single); err == nil {
		if single.ID == id || (single.ID == "" && len(single.SizingParameters) > 0) {
			single.ID = id
			return &single, nil
		}
	}

	var list []chem.Equipment
	if err := json.Unmarshal(raw, &list); err == nil {
		for i := range list {
			if list[i].ID == id {
				return &list[i], nil
			}
		}
	}

	var wrapped chem.EquipmentAndStreams
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		for i := range wrapped.Equipments {
			if wrapped.Equipments[i].ID == id {
				return &wrapped.Equipments[i], nil
			}
		}
	}

	return nil, fmt.Errorf("sizing reply carries no equipment with id %s", id)
}

func connectedStreams(es *chem.EquipmentAndStreams, item *chem.Equipment) []chem.Stream {
	var out []chem.Stream
	for _, id := range append(append([]string{}, item.StreamsIn...), item.StreamsOut...) {
		if s := es.StreamByID(id); s != nil {
			out = append(out, *s)
		}
	}
	return out
}
