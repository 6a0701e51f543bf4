package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/fluxion-eng/fluxion/core/chem"
)

const (
	ToolMassEnergyBalance  = "mass_energy_balance"
	ToolConvertComposition = "convert_composition"
)

// RegisterBalanceTools adds the stream balance and composition conversion
// tools to a registry.
func RegisterBalanceTools(r *Registry) {
	r.MustRegister(Spec{
		Name: ToolMassEnergyBalance,
		Description: "Check mass closure around a single unit: sums inlet and outlet mass flows " +
			"and reports the imbalance. Optionally estimates sensible heat duty when inlet and " +
			"outlet temperatures and a heat capacity are provided.",
		Parameters: schema(
			[]string{"inlet_mass_flows_kgh", "outlet_mass_flows_kgh"},
			map[string]any{
				"inlet_mass_flows_kgh": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "number"},
					"description": "Mass flow of each inlet stream in kg/h",
				},
				"outlet_mass_flows_kgh": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "number"},
					"description": "Mass flow of each outlet stream in kg/h",
				},
				"t_in_c":    num("Inlet temperature in °C, for duty estimation"),
				"t_out_c":   num("Outlet temperature in °C, for duty estimation"),
				"cp_kj_kgk": num("Mass heat capacity in kJ/(kg·K), for duty estimation"),
			},
		),
		Handler: massEnergyBalance,
	})

	r.MustRegister(Spec{
		Name: ToolConvertComposition,
		Description: "Convert a stream composition between molar and mass basis using component " +
			"molecular weights in kg/kmol. direction is 'molar_to_mass' or 'mass_to_molar'.",
		Parameters: schema(
			[]string{"direction", "fractions", "molecular_weights"},
			map[string]any{
				"direction": map[string]any{
					"type":        "string",
					"enum":        []string{"molar_to_mass", "mass_to_molar"},
					"description": "Conversion direction",
				},
				"fractions": map[string]any{
					"type":        "object",
					"description": "Component name to fraction, summing to 1.0",
				},
				"molecular_weights": map[string]any{
					"type":        "object",
					"description": "Component name to molecular weight in kg/kmol",
				},
			},
		),
		Handler: convertComposition,
	})
}

type balanceArgs struct {
	In      []float64 `json:"inlet_mass_flows_kgh"`
	Out     []float64 `json:"outlet_mass_flows_kgh"`
	TinC    *float64  `json:"t_in_c"`
	ToutC   *float64  `json:"t_out_c"`
	CpKJKgK *float64  `json:"cp_kj_kgk"`
}

func massEnergyBalance(_ context.Context, raw json.RawMessage) (any, error) {
	var args balanceArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	if len(args.In) == 0 || len(args.Out) == 0 {
		return nil, fmt.Errorf("at least one inlet and one outlet flow are required")
	}
	in, out := 0.0, 0.0
	for _, v := range args.In {
		in += v
	}
	for _, v := range args.Out {
		out += v
	}
	ref := math.Max(in, out)
	rel := 0.0
	if ref > 0 {
		rel = math.Abs(in-out) / ref
	}
	result := map[string]any{
		"inlet_total_kgh":    round3(in),
		"outlet_total_kgh":   round3(out),
		"imbalance_kgh":      round3(in - out),
		"relative_imbalance": round3(rel),
		"closed":             rel <= chem.MassBalanceTolerance,
		"tolerance":          chem.MassBalanceTolerance,
	}
	if args.TinC != nil && args.ToutC != nil && args.CpKJKgK != nil {
		dutyKW := in / 3600 * *args.CpKJKgK * (*args.ToutC - *args.TinC)
		result["sensible_duty_kw"] = round3(dutyKW)
		result["duty_basis"] = "Q = m · cp · ΔT on the inlet total"
	}
	return result, nil
}

type convertArgs struct {
	Direction string             `json:"direction"`
	Fractions map[string]float64 `json:"fractions"`
	Weights   map[string]float64 `json:"molecular_weights"`
}

func convertComposition(_ context.Context, raw json.RawMessage) (any, error) {
	var args convertArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	if len(args.Fractions) == 0 {
		return nil, fmt.Errorf("fractions must not be empty")
	}

	var converted map[string]float64
	var err error
	switch args.Direction {
	case "molar_to_mass":
		converted, err = chem.MolarToMassFractions(args.Fractions, args.Weights)
	case "mass_to_molar":
		converted, err = chem.MassToMolarFractions(args.Fractions, args.Weights)
	default:
		return nil, fmt.Errorf("direction must be molar_to_mass or mass_to_molar, got %q", args.Direction)
	}
	if err != nil {
		return nil, err
	}

	rounded := make(map[string]float64, len(converted))
	sum := 0.0
	for comp, v := range converted {
		rounded[comp] = math.Round(v*1e4) / 1e4
		sum += v
	}
	return map[string]any{
		"direction": args.Direction,
		"fractions": rounded,
		"sum":       round3(sum),
	}, nil
}
