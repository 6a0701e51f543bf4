package sizing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxion-eng/fluxion/core/chem"
	"github.com/fluxion-eng/fluxion/core/providers"
	"github.com/fluxion-eng/fluxion/core/retry"
	"github.com/fluxion-eng/fluxion/core/state"
	"github.com/fluxion-eng/fluxion/core/tools"
)

const coolerList = `{
  "equipments": [
    {"id": "E-101", "name": "Cooler", "category": "heat_exchanger",
     "streams_in": ["S-101"], "streams_out": ["S-102"],
     "sizing_parameters": []}
  ],
  "streams": [
    {"id": "S-101", "from": "FEED", "to": "E-101", "phase": "Liquid",
     "properties": {"mass_flow": {"value": 50000, "unit": "kg/h"},
                    "temperature": {"value": 80, "unit": "C"}}},
    {"id": "S-102", "from": "E-101", "to": "PRODUCT", "phase": "Liquid",
     "properties": {"mass_flow": {"value": 50000, "unit": "kg/h"},
                    "temperature": {"value": 40, "unit": "C"}}}
  ],
  "notes_and_assumptions": []
}`

const sizedCooler = `{
  "id": "E-101", "name": "Cooler", "category": "heat_exchanger",
  "streams_in": ["S-101"], "streams_out": ["S-102"],
  "sizing_parameters": [
    {"name": "Area", "quantity": {"value": 116.1, "unit": "m2"}}
  ],
  "duty_or_load": {"value": -2322, "unit": "kW"}
}`

func seeded() *state.DesignState {
	st := state.New("problem")
	st.EquipmentAndStreamList = []byte(coolerList)
	return st
}

func TestStepSizesItemThroughToolLoop(t *testing.T) {
	fake := providers.NewFake(
		providers.ToolCallReply("", providers.ToolCall{
			ID:        "call_1",
			Name:      tools.ToolSizeHeatExchanger,
			Arguments: `{"duty_kw": 2322, "u_w_m2k": 800, "lmtd_c": 25}`,
		}),
		providers.TextReply(sizedCooler),
	)
	agent := New(Config{Provider: fake, Harness: retry.Light()})

	st := seeded()
	require.NoError(t, agent.Step(context.Background(), st))

	es, err := chem.ParseEquipmentAndStreams(st.EquipmentAndStreamList)
	require.NoError(t, err)
	item := es.EquipmentByID("E-101")
	require.NotNil(t, item)
	require.Len(t, item.SizingParameters, 1)
	assert.Equal(t, "Area", item.SizingParameters[0].Name)
	assert.InDelta(t, 116.1, item.SizingParameters[0].Quantity.Value, 0.01)
	require.NotNil(t, item.DutyOrLoad)

	// Transcript: assistant tool call, tool result, final assistant.
	require.Len(t, st.Transcript, 3)
	assert.Len(t, st.Transcript[0].Message.ToolCalls, 1)
	assert.Equal(t, providers.RoleTool, st.Transcript[1].Message.Role)
	assert.Contains(t, st.Transcript[1].Message.Content, "area_m2")
	assert.Equal(t, 2, fake.Calls(), "tool dispatched exactly once")
}

func TestStepSelectsMatchingIDFromList(t *testing.T) {
	multi := `[
	  {"id": "X-999", "sizing_parameters": [{"name": "Area", "quantity": {"value": 1, "unit": "m2"}}]},
	  ` + sizedCooler + `
	]`
	fake := providers.NewFake(providers.TextReply(multi))
	agent := New(Config{Provider: fake, Harness: retry.Light()})

	st := seeded()
	require.NoError(t, agent.Step(context.Background(), st))

	es, err := chem.ParseEquipmentAndStreams(st.EquipmentAndStreamList)
	require.NoError(t, err)
	item := es.EquipmentByID("E-101")
	require.Len(t, item.SizingParameters, 1)
	assert.InDelta(t, 116.1, item.SizingParameters[0].Quantity.Value, 0.01)
}

func TestStepNeverRemovesItems(t *testing.T) {
	fake := providers.NewFake(providers.TextReply(sizedCooler))
	agent := New(Config{Provider: fake, Harness: retry.Light()})

	st := seeded()
	require.NoError(t, agent.Step(context.Background(), st))

	es, err := chem.ParseEquipmentAndStreams(st.EquipmentAndStreamList)
	require.NoError(t, err)
	assert.Len(t, es.Equipments, 1)
	assert.Len(t, es.Streams, 2)
}

func TestStepRetriesOnUnparseableReply(t *testing.T) {
	fake := providers.NewFake(
		providers.TextReply("I could not size this."),
		providers.TextReply(sizedCooler),
	)
	agent := New(Config{Provider: fake, Harness: &retry.Harness{MaxAttempts: 3}})

	st := seeded()
	require.NoError(t, agent.Step(context.Background(), st))
	assert.Equal(t, 2, fake.Calls())
}

func TestStepWrongIDFails(t *testing.T) {
	wrong := strings.ReplaceAll(sizedCooler, "E-101", "E-202")
	fake := providers.NewFake(providers.TextReply(wrong))
	agent := New(Config{Provider: fake, Harness: retry.Light()})

	err := agent.Step(context.Background(), seeded())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E-101")
}

func TestParseSizedItemBareObjectWithoutID(t *testing.T) {
	bare := `{"sizing_parameters": [{"name": "Power", "quantity": {"value": 12, "unit": "kW"}}]}`
	item, err := parseSizedItem(bare, "P-101")
	require.NoError(t, err)
	assert.Equal(t, "P-101", item.ID)
	assert.Len(t, item.SizingParameters, 1)
}
