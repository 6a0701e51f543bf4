package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxion-eng/fluxion/core/chem"
	"github.com/fluxion-eng/fluxion/core/providers"
	"github.com/fluxion-eng/fluxion/core/retry"
	"github.com/fluxion-eng/fluxion/core/state"
)

const goodList = `{
  "equipments": [
    {"id": "P-101", "name": "Feed Pump", "service": "s", "type": "centrifugal pump",
     "category": "pump", "streams_in": ["S-101"], "streams_out": ["S-102"],
     "design_criteria": "", "sizing_parameters": [], "notes": ""}
  ],
  "streams": [
    {"id": "S-101", "name": "Feed", "description": "", "from": "FEED", "to": "P-101",
     "phase": "Liquid", "properties": {"mass_flow": {"value": 0.0, "unit": "kg/h"}},
     "compositions": {}, "notes": ""},
    {"id": "S-102", "name": "Pumped Feed", "description": "", "from": "P-101", "to": "PRODUCT",
     "phase": "Liquid", "properties": {"mass_flow": {"value": 0.0, "unit": "kg/h"}},
     "compositions": {}, "notes": ""}
  ],
  "notes_and_assumptions": ["placeholders pending estimation"]
}`

func seeded() *state.DesignState {
	st := state.New("problem")
	st.SelectedConceptDetails = "## Concept Summary\npumped transfer"
	st.DesignBasis = "basis"
	st.BasicPFD = "## Units\n| P-101 | Feed Pump |"
	return st
}

func TestStepWritesList(t *testing.T) {
	fake := providers.NewFake(providers.JSONReply(goodList))
	agent := New(Config{Provider: fake, Harness: retry.Light()})

	st := seeded()
	require.NoError(t, agent.Step(context.Background(), st))

	es, err := chem.ParseEquipmentAndStreams(st.EquipmentAndStreamList)
	require.NoError(t, err)
	assert.Len(t, es.Equipments, 1)
	assert.Len(t, es.Streams, 2)
	assert.Equal(t, providers.ModeJSON, fake.LastRequest().Mode)
	assert.Contains(t, fake.LastRequest().Messages[1].Content, "pumped transfer")
}

func TestStepRejectsEmptyEquipments(t *testing.T) {
	fake := providers.NewFake(
		providers.JSONReply(`{"equipments": [], "streams": [], "notes_and_assumptions": []}`),
		providers.JSONReply(goodList),
	)
	agent := New(Config{Provider: fake, Harness: &retry.Harness{MaxAttempts: 3}})

	require.NoError(t, agent.Step(context.Background(), seeded()))
	assert.Equal(t, 2, fake.Calls())
}

func TestStepRejectsDanglingStream(t *testing.T) {
	dangling := `{
	  "equipments": [
	    {"id": "P-101", "name": "Pump", "category": "pump",
	     "streams_in": ["S-101"], "streams_out": ["S-102"]}
	  ],
	  "streams": [
	    {"id": "S-101", "from": "FEED", "to": "X-999", "phase": "Liquid"}
	  ],
	  "notes_and_assumptions": []
	}`
	fake := providers.NewFake(providers.JSONReply(dangling))
	agent := New(Config{Provider: fake, Harness: retry.Light()})

	err := agent.Step(context.Background(), seeded())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "X-999")
}

func TestStepRequiresPFD(t *testing.T) {
	agent := New(Config{Provider: providers.NewFake()})
	st := state.New("p")
	st.SelectedConceptDetails = "detail"
	st.DesignBasis = "basis"
	err := agent.Step(context.Background(), st)
	assert.ErrorIs(t, err, state.ErrMissingState)
}

func TestStepRequiresConceptDetail(t *testing.T) {
	agent := New(Config{Provider: providers.NewFake()})
	st := seeded()
	st.SelectedConceptDetails = ""
	err := agent.Step(context.Background(), st)
	assert.ErrorIs(t, err, state.ErrMissingState)
}
