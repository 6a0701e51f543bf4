package chem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frac(v float64) Quantity { return Quantity{Value: v, Unit: "mol fraction"} }

func TestCanonicalizeMassFractions(t *testing.T) {
	s := &Stream{
		ID: "S-101",
		Compositions: map[string]Quantity{
			"mass_fraction_Ethanol": {Value: 0.95, Unit: "wt%"},
			"wt_Water":              {Value: 0.05, Unit: "kg/kg"},
			"Methanol":              {Value: 0.0, Unit: "mol fraction"},
		},
	}

	CanonicalizeMassFractions(s)

	assert.Contains(t, s.Compositions, "m_Ethanol")
	assert.Contains(t, s.Compositions, "m_Water")
	assert.Contains(t, s.Compositions, "Methanol")
	assert.NotContains(t, s.Compositions, "mass_fraction_Ethanol")
	assert.NotContains(t, s.Compositions, "wt_Water")

	// Running it twice must not change anything.
	before := len(s.Compositions)
	CanonicalizeMassFractions(s)
	assert.Len(t, s.Compositions, before)
	assert.Contains(t, s.Compositions, "m_Ethanol")
}

func TestCheckCompositionClosure(t *testing.T) {
	es := &EquipmentAndStreams{
		Streams: []Stream{
			{ID: "S-1", Compositions: map[string]Quantity{
				"Ethanol": frac(0.95),
				"Water":   frac(0.0504),
			}},
		},
	}
	require.NoError(t, CheckCompositionClosure(es))

	es.Streams[0].Compositions["Water"] = frac(0.1)
	err := CheckCompositionClosure(es)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S-1")
}

func TestCheckCompositionClosurePercentBasis(t *testing.T) {
	es := &EquipmentAndStreams{
		Streams: []Stream{
			{ID: "S-1", Compositions: map[string]Quantity{
				"m_Ethanol": {Value: 95, Unit: "wt%"},
				"m_Water":   {Value: 5, Unit: "wt%"},
			}},
		},
	}
	assert.NoError(t, CheckCompositionClosure(es))
}

func TestCheckMassBalance(t *testing.T) {
	kgb := func(v float64) map[string]Quantity {
		return map[string]Quantity{"mass_flow": {Value: v, Unit: "kg/h"}}
	}
	es := &EquipmentAndStreams{
		Equipments: []Equipment{
			{ID: "E-101", StreamsIn: []string{"S-1", "S-2"}, StreamsOut: []string{"S-3"}},
		},
		Streams: []Stream{
			{ID: "S-1", Properties: kgb(6000)},
			{ID: "S-2", Properties: kgb(4000)},
			{ID: "S-3", Properties: kgb(10000)},
		},
	}
	_, err := CheckMassBalance(es)
	require.NoError(t, err)

	es.Streams[2].Properties["mass_flow"] = Quantity{Value: 8000, Unit: "kg/h"}
	violations, err := CheckMassBalance(es)
	require.Error(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "E-101", violations[0].EquipmentID)
	assert.InDelta(t, 0.2, violations[0].Relative, 1e-9)
}

func TestCheckMassBalanceSkipsBoundaries(t *testing.T) {
	// A feed header with no inlet streams must not be flagged.
	es := &EquipmentAndStreams{
		Equipments: []Equipment{
			{ID: "FEED", StreamsOut: []string{"S-1"}},
		},
		Streams: []Stream{
			{ID: "S-1", Properties: map[string]Quantity{"mass_flow": {Value: 100, Unit: "kg/h"}}},
		},
	}
	_, err := CheckMassBalance(es)
	assert.NoError(t, err)
}

func TestMolarMassRoundTrip(t *testing.T) {
	weights := map[string]float64{"Ethanol": 46.07, "Water": 18.015}
	molar := map[string]float64{"Ethanol": 0.95, "Water": 0.05}

	mass, err := MolarToMassFractions(molar, weights)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mass["Ethanol"]+mass["Water"], 1e-12)
	assert.Greater(t, mass["Ethanol"], molar["Ethanol"]) // heavier component enriches

	back, err := MassToMolarFractions(mass, weights)
	require.NoError(t, err)
	assert.InDelta(t, molar["Ethanol"], back["Ethanol"], 1e-9)
	assert.InDelta(t, molar["Water"], back["Water"], 1e-9)
}

func TestMolarToMassMissingWeight(t *testing.T) {
	_, err := MolarToMassFractions(map[string]float64{"Xylene": 1.0}, map[string]float64{})
	assert.Error(t, err)
}

func TestEquipmentAndStreamsLookups(t *testing.T) {
	es := &EquipmentAndStreams{
		Equipments: []Equipment{
			{ID: "E-101", Category: "heat_exchanger"},
			{ID: "P-101", Category: "pump"},
			{ID: "E-102", Category: "heat_exchanger"},
		},
		Streams: []Stream{{ID: "S-1"}},
	}

	require.NotNil(t, es.EquipmentByID("P-101"))
	assert.Nil(t, es.EquipmentByID("V-999"))
	require.NotNil(t, es.StreamByID("S-1"))
	assert.Equal(t, []string{"heat_exchanger", "pump"}, es.Categories())
	assert.Len(t, es.EquipmentIDs(), 3)
	assert.Len(t, es.StreamIDs(), 1)
}
