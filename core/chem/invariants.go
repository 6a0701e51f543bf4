package chem

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

const (
	// CompositionTolerance is the allowed deviation of a stream's
	// composition sum from 1.0.
	CompositionTolerance = 1e-3

	// MassBalanceTolerance is the allowed relative mass imbalance per unit.
	MassBalanceTolerance = 1e-2
)

// MassFractionPrefix is the canonical key namespace for mass-basis
// composition entries.
const MassFractionPrefix = "m_"

// massBasisUnits lists composition units that indicate a mass basis.
var massBasisUnits = map[string]bool{
	"wt%":           true,
	"wt fraction":   true,
	"mass fraction": true,
	"mass%":         true,
	"kg/kg":         true,
	"w/w":           true,
}

// IsMassBasisUnit reports whether a composition unit denotes mass fractions.
func IsMassBasisUnit(unit string) bool {
	return massBasisUnits[strings.ToLower(strings.TrimSpace(unit))]
}

// CanonicalizeMassFractions rewrites mass-basis composition keys into the
// m_<component> namespace, stripping any verbose prefix the model invented
// (mass_fraction_Ethanol, massfrac_Water, wt_Methanol). Molar-basis keys are
// left untouched. The rewrite is idempotent.
func CanonicalizeMassFractions(s *Stream) {
	if len(s.Compositions) == 0 {
		return
	}
	out := make(map[string]Quantity, len(s.Compositions))
	for key, q := range s.Compositions {
		name := key
		if IsMassBasisUnit(q.Unit) || hasMassPrefix(key) {
			name = MassFractionPrefix + strippedComponent(key)
		}
		out[name] = q
	}
	s.Compositions = out
}

var massKeyPrefixes = []string{
	"mass_fraction_", "massfraction_", "massfrac_", "mass_frac_", "wt_fraction_", "wt_",
}

func hasMassPrefix(key string) bool {
	lower := strings.ToLower(key)
	if strings.HasPrefix(key, MassFractionPrefix) {
		return true
	}
	for _, p := range massKeyPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// strippedComponent removes any recognized mass prefix from a composition key.
func strippedComponent(key string) string {
	if strings.HasPrefix(key, MassFractionPrefix) {
		return key[len(MassFractionPrefix):]
	}
	lower := strings.ToLower(key)
	for _, p := range massKeyPrefixes {
		if strings.HasPrefix(lower, p) {
			return key[len(p):]
		}
	}
	return key
}

// CompositionSum returns the sum of all composition fractions on a stream.
// Percent-basis entries are converted to fractions before summing.
func CompositionSum(s *Stream) float64 {
	vals := make([]float64, 0, len(s.Compositions))
	for _, q := range s.Compositions {
		v := q.Value
		if strings.Contains(q.Unit, "%") {
			v /= 100
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return 0
	}
	return floats.Sum(vals)
}

// CheckCompositionClosure verifies every stream's composition sums to
// 1.0 within CompositionTolerance. Streams without compositions are skipped.
func CheckCompositionClosure(es *EquipmentAndStreams) error {
	for i := range es.Streams {
		s := &es.Streams[i]
		if len(s.Compositions) == 0 {
			continue
		}
		sum := CompositionSum(s)
		if math.Abs(sum-1.0) > CompositionTolerance {
			return fmt.Errorf("stream %s: composition sum %.4f outside 1.0 ± %.0e",
				s.ID, sum, CompositionTolerance)
		}
	}
	return nil
}

// UnitImbalance holds the mass-balance closure result for one equipment item.
type UnitImbalance struct {
	EquipmentID string  `json:"equipment_id"`
	InletMass   float64 `json:"inlet_mass"`
	OutletMass  float64 `json:"outlet_mass"`
	Relative    float64 `json:"relative"`
}

// CheckMassBalance verifies per-unit mass conservation:
// |Σ inlet − Σ outlet| ≤ tol · max(Σ inlet, Σ outlet). Units where either
// side has no mass_flow data are skipped (feed headers, utility boundaries).
func CheckMassBalance(es *EquipmentAndStreams) ([]UnitImbalance, error) {
	var violations []UnitImbalance
	for _, e := range es.Equipments {
		in, okIn := totalMassFlow(es, e.StreamsIn)
		out, okOut := totalMassFlow(es, e.StreamsOut)
		if !okIn || !okOut {
			continue
		}
		ref := math.Max(in, out)
		if ref == 0 {
			continue
		}
		rel := math.Abs(in-out) / ref
		if rel > MassBalanceTolerance {
			violations = append(violations, UnitImbalance{
				EquipmentID: e.ID,
				InletMass:   in,
				OutletMass:  out,
				Relative:    rel,
			})
		}
	}
	if len(violations) > 0 {
		return violations, fmt.Errorf("mass balance open on %d unit(s), first: %s (%.1f%% off)",
			len(violations), violations[0].EquipmentID, violations[0].Relative*100)
	}
	return nil, nil
}

func totalMassFlow(es *EquipmentAndStreams, ids []string) (float64, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	total := 0.0
	found := false
	for _, id := range ids {
		s := es.StreamByID(id)
		if s == nil {
			continue
		}
		if q, ok := s.Properties["mass_flow"]; ok {
			total += q.Value
			found = true
		}
	}
	return total, found
}

// MolarToMassFractions converts molar fractions to mass fractions using the
// supplied molecular weights (kg/kmol). Components without a declared weight
// abort the conversion.
func MolarToMassFractions(molar map[string]float64, weights map[string]float64) (map[string]float64, error) {
	denom := 0.0
	for comp, x := range molar {
		mw, ok := weights[comp]
		if !ok {
			return nil, fmt.Errorf("no molecular weight declared for %q", comp)
		}
		denom += x * mw
	}
	if denom == 0 {
		return nil, fmt.Errorf("zero total molar mass")
	}
	out := make(map[string]float64, len(molar))
	for comp, x := range molar {
		out[comp] = x * weights[comp] / denom
	}
	return out, nil
}

// MassToMolarFractions converts mass fractions to molar fractions using the
// supplied molecular weights (kg/kmol).
func MassToMolarFractions(mass map[string]float64, weights map[string]float64) (map[string]float64, error) {
	denom := 0.0
	for comp, w := range mass {
		mw, ok := weights[comp]
		if !ok {
			return nil, fmt.Errorf("no molecular weight declared for %q", comp)
		}
		if mw == 0 {
			return nil, fmt.Errorf("zero molecular weight for %q", comp)
		}
		denom += w / mw
	}
	if denom == 0 {
		return nil, fmt.Errorf("zero total moles")
	}
	out := make(map[string]float64, len(mass))
	for comp, w := range mass {
		out[comp] = (w / weights[comp]) / denom
	}
	return out, nil
}
