package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
)

// Stable tool names the model emits verbatim.
const (
	ToolSizeHeatExchanger = "size_heat_exchanger_basic"
	ToolSizePump          = "size_pump_basic"
	ToolSizeVessel        = "size_vessel_basic"
	ToolSizeCompressor    = "size_compressor_basic"
)

const (
	gravity      = 9.80665  // m/s²
	gasConstant  = 8.314462 // kJ/(kmol·K)
	kelvinOffset = 273.15
)

// RegisterSizingTools adds the four equipment sizing tools to a registry.
func RegisterSizingTools(r *Registry) {
	r.MustRegister(Spec{
		Name: ToolSizeHeatExchanger,
		Description: "Size a shell-and-tube heat exchanger from duty, overall heat transfer " +
			"coefficient and log-mean temperature difference. Returns the required area.",
		Parameters: schema(
			[]string{"duty_kw", "u_w_m2k", "lmtd_c"},
			map[string]any{
				"duty_kw": num("Heat duty in kW"),
				"u_w_m2k": num("Overall heat transfer coefficient in W/(m²·K)"),
				"lmtd_c":  num("Log-mean temperature difference in °C"),
			},
		),
		Handler: sizeHeatExchanger,
	})

	r.MustRegister(Spec{
		Name: ToolSizePump,
		Description: "Size a centrifugal pump from volumetric flow, differential head and fluid " +
			"density. Returns hydraulic and brake power.",
		Parameters: schema(
			[]string{"volume_flow_m3h", "head_m", "density_kg_m3"},
			map[string]any{
				"volume_flow_m3h": num("Volumetric flow in m³/h"),
				"head_m":          num("Differential head in m"),
				"density_kg_m3":   num("Fluid density in kg/m³"),
				"efficiency":      num("Pump efficiency as a fraction, default 0.7"),
			},
		),
		Handler: sizePump,
	})

	r.MustRegister(Spec{
		Name: ToolSizeVessel,
		Description: "Size a vertical process vessel from volumetric flow and residence time. " +
			"Returns working volume, diameter and tangent length.",
		Parameters: schema(
			[]string{"volume_flow_m3h", "residence_time_min"},
			map[string]any{
				"volume_flow_m3h":    num("Volumetric flow in m³/h"),
				"residence_time_min": num("Residence time in minutes"),
				"l_over_d":           num("Length-to-diameter ratio, default 3"),
				"fill_fraction":      num("Liquid fill fraction, default 0.5"),
			},
		),
		Handler: sizeVessel,
	})

	r.MustRegister(Spec{
		Name: ToolSizeCompressor,
		Description: "Size a single-stage gas compressor (adiabatic, ideal gas) from molar flow " +
			"and suction/discharge conditions. Returns shaft power and discharge temperature.",
		Parameters: schema(
			[]string{"molar_flow_kmolh", "t_in_c", "p_in_kpa", "p_out_kpa"},
			map[string]any{
				"molar_flow_kmolh": num("Molar flow in kmol/h"),
				"t_in_c":           num("Suction temperature in °C"),
				"p_in_kpa":         num("Suction pressure in kPa(a)"),
				"p_out_kpa":        num("Discharge pressure in kPa(a)"),
				"efficiency":       num("Isentropic efficiency as a fraction, default 0.75"),
				"k":                num("Heat capacity ratio Cp/Cv, default 1.4"),
			},
		),
		Handler: sizeCompressor,
	})
}

type heatExchangerArgs struct {
	DutyKW float64 `json:"duty_kw"`
	U      float64 `json:"u_w_m2k"`
	LMTD   float64 `json:"lmtd_c"`
}

func sizeHeatExchanger(_ context.Context, raw json.RawMessage) (any, error) {
	var args heatExchangerArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	if args.U <= 0 || args.LMTD <= 0 {
		return nil, fmt.Errorf("u_w_m2k and lmtd_c must be positive")
	}
	duty := math.Abs(args.DutyKW)
	area := duty * 1000 / (args.U * args.LMTD)
	return map[string]any{
		"area_m2":    round2(area),
		"duty_kw":    round2(duty),
		"u_w_m2k":    args.U,
		"lmtd_c":     args.LMTD,
		"basis":      "A = Q / (U · LMTD)",
		"area_units": "m2",
		"duty_units": "kW",
	}, nil
}

type pumpArgs struct {
	VolumeFlow float64 `json:"volume_flow_m3h"`
	Head       float64 `json:"head_m"`
	Density    float64 `json:"density_kg_m3"`
	Efficiency float64 `json:"efficiency"`
}

func sizePump(_ context.Context, raw json.RawMessage) (any, error) {
	var args pumpArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	if args.VolumeFlow <= 0 || args.Head <= 0 || args.Density <= 0 {
		return nil, fmt.Errorf("volume_flow_m3h, head_m and density_kg_m3 must be positive")
	}
	eff := args.Efficiency
	if eff <= 0 || eff > 1 {
		eff = 0.7
	}
	massFlowKgS := args.Density * args.VolumeFlow / 3600
	hydraulicKW := massFlowKgS * gravity * args.Head / 1000
	brakeKW := hydraulicKW / eff
	return map[string]any{
		"hydraulic_kw": round3(hydraulicKW),
		"brake_kw":     round3(brakeKW),
		"efficiency":   eff,
		"head_m":       args.Head,
		"power_units":  "kW",
	}, nil
}

type vesselArgs struct {
	VolumeFlow    float64 `json:"volume_flow_m3h"`
	ResidenceTime float64 `json:"residence_time_min"`
	LOverD        float64 `json:"l_over_d"`
	FillFraction  float64 `json:"fill_fraction"`
}

func sizeVessel(_ context.Context, raw json.RawMessage) (any, error) {
	var args vesselArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	if args.VolumeFlow <= 0 || args.ResidenceTime <= 0 {
		return nil, fmt.Errorf("volume_flow_m3h and residence_time_min must be positive")
	}
	lOverD := args.LOverD
	if lOverD <= 0 {
		lOverD = 3
	}
	fill := args.FillFraction
	if fill <= 0 || fill > 1 {
		fill = 0.5
	}
	volume := args.VolumeFlow * args.ResidenceTime / 60 / fill
	// Cylindrical shell: V = π/4 · D² · L with L = lOverD · D.
	diameter := math.Cbrt(4 * volume / (math.Pi * lOverD))
	length := lOverD * diameter
	return map[string]any{
		"volume_m3":     round3(volume),
		"diameter_m":    round3(diameter),
		"length_m":      round3(length),
		"l_over_d":      lOverD,
		"fill_fraction": fill,
	}, nil
}

type compressorArgs struct {
	MolarFlow  float64 `json:"molar_flow_kmolh"`
	TinC       float64 `json:"t_in_c"`
	PinKPa     float64 `json:"p_in_kpa"`
	PoutKPa    float64 `json:"p_out_kpa"`
	Efficiency float64 `json:"efficiency"`
	K          float64 `json:"k"`
}

func sizeCompressor(_ context.Context, raw json.RawMessage) (any, error) {
	var args compressorArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	if args.MolarFlow <= 0 || args.PinKPa <= 0 || args.PoutKPa <= 0 {
		return nil, fmt.Errorf("molar_flow_kmolh, p_in_kpa and p_out_kpa must be positive")
	}
	if args.PoutKPa <= args.PinKPa {
		return nil, fmt.Errorf("discharge pressure must exceed suction pressure")
	}
	eff := args.Efficiency
	if eff <= 0 || eff > 1 {
		eff = 0.75
	}
	k := args.K
	if k <= 1 {
		k = 1.4
	}

	ratio := args.PoutKPa / args.PinKPa
	t1 := args.TinC + kelvinOffset
	exp := (k - 1) / k
	// Ideal adiabatic head per kmol, kJ/kmol.
	idealWork := gasConstant * t1 * k / (k - 1) * (math.Pow(ratio, exp) - 1)
	powerKW := args.MolarFlow / 3600 * idealWork / eff
	tOutIdeal := t1 * math.Pow(ratio, exp)
	tOut := t1 + (tOutIdeal-t1)/eff

	return map[string]any{
		"power_kw":       round3(powerKW),
		"t_out_c":        round2(tOut - kelvinOffset),
		"pressure_ratio": round3(ratio),
		"efficiency":     eff,
		"k":              k,
		"power_units":    "kW",
	}, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
