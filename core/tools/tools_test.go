package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxion-eng/fluxion/core/providers"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(slog.Default())
	RegisterSizingTools(r)
	RegisterBalanceTools(r)
	return r
}

func dispatchInto(t *testing.T, r *Registry, name, args string) map[string]any {
	t.Helper()
	payload, ok := r.Dispatch(context.Background(), name, args)
	require.True(t, ok, "dispatch failed: %s", payload)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &out))
	return out
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry(nil)
	spec := Spec{Name: "x", Handler: func(context.Context, json.RawMessage) (any, error) { return nil, nil }}
	require.NoError(t, r.Register(spec))
	assert.Error(t, r.Register(spec))
}

func TestDispatchNeverRaises(t *testing.T) {
	r := newTestRegistry(t)

	payload, ok := r.Dispatch(context.Background(), "no_such_tool", "{}")
	assert.False(t, ok)
	assert.Contains(t, payload, `"error"`)
	assert.Contains(t, payload, "no_such_tool")

	payload, ok = r.Dispatch(context.Background(), ToolSizePump, "{not json")
	assert.False(t, ok)
	assert.Contains(t, payload, "malformed arguments")

	payload, ok = r.Dispatch(context.Background(), ToolSizePump, `{"volume_flow_m3h":-1}`)
	assert.False(t, ok)
	assert.Contains(t, payload, `"error"`)
}

func TestToolsDeclarationsSorted(t *testing.T) {
	r := newTestRegistry(t)
	tools := r.Tools()
	require.Len(t, tools, 6)
	names := make([]string, len(tools))
	for i, tl := range tools {
		names[i] = tl.Name
		assert.NotEmpty(t, tl.Description)
		assert.Equal(t, "object", tl.Parameters["type"])
	}
	assert.IsIncreasing(t, names)
}

func TestSizeHeatExchanger(t *testing.T) {
	r := newTestRegistry(t)
	out := dispatchInto(t, r, ToolSizeHeatExchanger,
		`{"duty_kw": 500, "u_w_m2k": 800, "lmtd_c": 25}`)
	assert.InDelta(t, 25.0, out["area_m2"], 0.01)

	// Cooling duties come in negative; area must still be positive.
	out = dispatchInto(t, r, ToolSizeHeatExchanger,
		`{"duty_kw": -500, "u_w_m2k": 800, "lmtd_c": 25}`)
	assert.InDelta(t, 25.0, out["area_m2"], 0.01)
}

func TestSizePump(t *testing.T) {
	r := newTestRegistry(t)
	out := dispatchInto(t, r, ToolSizePump,
		`{"volume_flow_m3h": 50, "head_m": 40, "density_kg_m3": 1000, "efficiency": 0.65}`)
	// m = 1000·50/3600 kg/s; P_h = m·g·H/1000 kW.
	assert.InDelta(t, 5.448, out["hydraulic_kw"], 0.01)
	assert.InDelta(t, 8.382, out["brake_kw"], 0.01)

	out = dispatchInto(t, r, ToolSizePump,
		`{"volume_flow_m3h": 50, "head_m": 40, "density_kg_m3": 1000}`)
	assert.Equal(t, 0.7, out["efficiency"], "default efficiency applies")
}

func TestSizeVessel(t *testing.T) {
	r := newTestRegistry(t)
	out := dispatchInto(t, r, ToolSizeVessel,
		`{"volume_flow_m3h": 30, "residence_time_min": 10, "l_over_d": 3, "fill_fraction": 0.5}`)
	assert.InDelta(t, 10.0, out["volume_m3"], 0.01)
	d := out["diameter_m"].(float64)
	l := out["length_m"].(float64)
	assert.InDelta(t, 3.0, l/d, 0.01)
}

func TestSizeCompressor(t *testing.T) {
	r := newTestRegistry(t)
	out := dispatchInto(t, r, ToolSizeCompressor,
		`{"molar_flow_kmolh": 100, "t_in_c": 25, "p_in_kpa": 100, "p_out_kpa": 300}`)
	power := out["power_kw"].(float64)
	assert.Greater(t, power, 0.0)
	assert.Greater(t, out["t_out_c"].(float64), 25.0)
	assert.InDelta(t, 3.0, out["pressure_ratio"], 0.001)

	payload, ok := r.Dispatch(context.Background(), ToolSizeCompressor,
		`{"molar_flow_kmolh": 100, "t_in_c": 25, "p_in_kpa": 300, "p_out_kpa": 100}`)
	assert.False(t, ok)
	assert.Contains(t, payload, "discharge pressure")
}

func TestMassEnergyBalance(t *testing.T) {
	r := newTestRegistry(t)
	out := dispatchInto(t, r, ToolMassEnergyBalance,
		`{"inlet_mass_flows_kgh": [1000, 250], "outlet_mass_flows_kgh": [1250]}`)
	assert.Equal(t, true, out["closed"])
	assert.InDelta(t, 0.0, out["imbalance_kgh"], 1e-9)

	out = dispatchInto(t, r, ToolMassEnergyBalance,
		`{"inlet_mass_flows_kgh": [1000], "outlet_mass_flows_kgh": [800],
		  "t_in_c": 20, "t_out_c": 60, "cp_kj_kgk": 4.18}`)
	assert.Equal(t, false, out["closed"])
	assert.InDelta(t, 1000.0/3600*4.18*40, out["sensible_duty_kw"].(float64), 0.01)
}

func TestConvertComposition(t *testing.T) {
	r := newTestRegistry(t)
	out := dispatchInto(t, r, ToolConvertComposition,
		`{"direction": "molar_to_mass",
		  "fractions": {"water": 0.5, "ethanol": 0.5},
		  "molecular_weights": {"water": 18.02, "ethanol": 46.07}}`)
	fracs := out["fractions"].(map[string]any)
	assert.InDelta(t, 0.2812, fracs["water"].(float64), 0.001)
	assert.InDelta(t, 0.7188, fracs["ethanol"].(float64), 0.001)
	assert.InDelta(t, 1.0, out["sum"].(float64), 0.001)

	payload, ok := r.Dispatch(context.Background(), ToolConvertComposition,
		`{"direction": "sideways", "fractions": {"water": 1}, "molecular_weights": {"water": 18}}`)
	assert.False(t, ok)
	assert.Contains(t, payload, "direction")
}

func TestPropertyLookupBuiltin(t *testing.T) {
	lookup := NewPropertyLookup("")
	props, err := lookup.Lookup(context.Background(), "Ethanol")
	require.NoError(t, err)
	assert.InDelta(t, 46.07, props.MolecularWeight, 0.01)
	assert.Equal(t, "builtin", props.Source)

	// Aliases resolve to the canonical entry.
	props, err = lookup.Lookup(context.Background(), "H2O")
	require.NoError(t, err)
	assert.Equal(t, "water", props.Name)

	_, err = lookup.Lookup(context.Background(), "unobtainium")
	assert.Error(t, err)
}

func TestPropertyLookupRemoteAndCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "glycerol", r.URL.Query().Get("component"))
		json.NewEncoder(w).Encode(ComponentProperties{
			Name: "glycerol", MolecularWeight: 92.09, LiquidDensity: 1261,
		})
	}))
	defer srv.Close()

	lookup := NewPropertyLookup(srv.URL)
	for i := 0; i < 3; i++ {
		props, err := lookup.Lookup(context.Background(), "glycerol")
		require.NoError(t, err)
		assert.Equal(t, "remote", props.Source)
		assert.InDelta(t, 92.09, props.MolecularWeight, 0.01)
	}
	assert.Equal(t, 1, hits, "repeat lookups served from cache")
}

func TestPropertyToolRegistration(t *testing.T) {
	r := NewRegistry(nil)
	RegisterPropertyTool(r, NewPropertyLookup(""))
	out := dispatchInto(t, r, ToolLookupProperties, `{"component": "toluene"}`)
	assert.InDelta(t, 92.14, out["molecular_weight_kg_kmol"], 0.01)
}

func TestLoopTerminalReply(t *testing.T) {
	fake := providers.NewFake(providers.TextReply("done"))
	loop := &Loop{Provider: fake, Registry: newTestRegistry(t)}

	res, err := loop.Run(context.Background(), []providers.Message{
		providers.SystemMessage("sys"),
		providers.UserMessage("size it"),
	})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Reply.Content)
	assert.Equal(t, 1, res.Iterations)
	assert.Zero(t, res.Dispatches)
	assert.False(t, res.CapHit)
	require.Len(t, res.Messages, 3)
	assert.Equal(t, providers.RoleAssistant, res.Messages[2].Role)

	req := fake.LastRequest()
	assert.Equal(t, providers.ModeTools, req.Mode)
	assert.NotEmpty(t, req.Tools)
}

func TestLoopDispatchesThenTerminates(t *testing.T) {
	fake := providers.NewFake(
		providers.ToolCallReply("", providers.ToolCall{
			ID:        "call_1",
			Name:      ToolSizeHeatExchanger,
			Arguments: `{"duty_kw": 500, "u_w_m2k": 800, "lmtd_c": 25}`,
		}),
		providers.TextReply(`{"sizing_parameters":[{"name":"Area","quantity":{"value":25,"unit":"m2"}}]}`),
	)
	loop := &Loop{Provider: fake, Registry: newTestRegistry(t)}

	res, err := loop.Run(context.Background(), []providers.Message{providers.UserMessage("size E-101")})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, 1, res.Dispatches)
	assert.False(t, res.CapHit)

	// user, assistant(tool call), tool result, assistant(final).
	require.Len(t, res.Messages, 4)
	toolMsg := res.Messages[2]
	assert.Equal(t, providers.RoleTool, toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Contains(t, toolMsg.Content, "area_m2")
}

func TestLoopEmissionOrder(t *testing.T) {
	fake := providers.NewFake(
		providers.ToolCallReply("",
			providers.ToolCall{ID: "c1", Name: ToolSizePump,
				Arguments: `{"volume_flow_m3h": 10, "head_m": 20, "density_kg_m3": 1000}`},
			providers.ToolCall{ID: "c2", Name: ToolSizeVessel,
				Arguments: `{"volume_flow_m3h": 10, "residence_time_min": 5}`},
		),
		providers.TextReply("done"),
	)
	loop := &Loop{Provider: fake, Registry: newTestRegistry(t)}

	res, err := loop.Run(context.Background(), []providers.Message{providers.UserMessage("go")})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Dispatches)
	assert.Equal(t, "c1", res.Messages[2].ToolCallID)
	assert.Equal(t, "c2", res.Messages[3].ToolCallID)
}

func TestLoopUnknownToolContinues(t *testing.T) {
	fake := providers.NewFake(
		providers.ToolCallReply("", providers.ToolCall{ID: "c1", Name: "bogus", Arguments: "{}"}),
		providers.TextReply("recovered"),
	)
	loop := &Loop{Provider: fake, Registry: newTestRegistry(t)}

	res, err := loop.Run(context.Background(), []providers.Message{providers.UserMessage("go")})
	require.NoError(t, err)
	assert.Equal(t, "recovered", res.Reply.Content)
	assert.Contains(t, res.Messages[2].Content, `"error"`)
}

func TestLoopCap(t *testing.T) {
	call := providers.ToolCallReply("", providers.ToolCall{
		ID: "c", Name: ToolSizePump,
		Arguments: `{"volume_flow_m3h": 10, "head_m": 20, "density_kg_m3": 1000}`,
	})
	// The fake repeats its last step, so the model keeps requesting tools.
	fake := providers.NewFake(call)
	loop := &Loop{Provider: fake, Registry: newTestRegistry(t), MaxIters: 3}

	res, err := loop.Run(context.Background(), []providers.Message{providers.UserMessage("go")})
	require.NoError(t, err)
	assert.True(t, res.CapHit)
	assert.Equal(t, 3, res.Iterations)
	last := res.Messages[len(res.Messages)-1]
	assert.Equal(t, providers.RoleTool, last.Role)
	assert.Contains(t, last.Content, "iteration limit")
}
