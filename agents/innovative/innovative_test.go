package innovative

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxion-eng/fluxion/core/chem"
	"github.com/fluxion-eng/fluxion/core/providers"
	"github.com/fluxion-eng/fluxion/core/retry"
	"github.com/fluxion-eng/fluxion/core/state"
)

const goodConcepts = `{
  "concepts": [
    {"name": "A", "maturity": "conventional", "description": "d",
     "unit_operations": ["distillation"], "key_benefits": ["proven"]},
    {"name": "B", "maturity": "innovative", "description": "d",
     "unit_operations": ["membrane"], "key_benefits": ["compact"]},
    {"name": "C", "maturity": "state_of_the_art", "description": "d",
     "unit_operations": ["reactive distillation"], "key_benefits": ["efficient"]}
  ]
}`

func seeded() *state.DesignState {
	st := state.New("problem")
	st.Requirements = "## Executive Summary\nreqs"
	return st
}

func TestStepWritesConcepts(t *testing.T) {
	fake := providers.NewFake(providers.JSONReply(goodConcepts))
	agent := New(Config{Provider: fake, Harness: retry.Light()})

	st := seeded()
	require.NoError(t, agent.Step(context.Background(), st))

	var list chem.ConceptList
	require.NoError(t, json.Unmarshal(st.ResearchConcepts, &list))
	assert.Len(t, list.Concepts, 3)

	req := fake.LastRequest()
	assert.Equal(t, providers.ModeJSON, req.Mode)
	assert.NotNil(t, req.Schema)
}

func TestStepRejectsPrematureScores(t *testing.T) {
	scored := `{"concepts": [
	  {"name": "A", "maturity": "conventional", "description": "d",
	   "unit_operations": ["x"], "key_benefits": ["y"], "feasibility_score": 8},
	  {"name": "B", "maturity": "innovative", "description": "d",
	   "unit_operations": ["x"], "key_benefits": ["y"]},
	  {"name": "C", "maturity": "state_of_the_art", "description": "d",
	   "unit_operations": ["x"], "key_benefits": ["y"]}
	]}`
	fake := providers.NewFake(
		providers.JSONReply(scored),
		providers.JSONReply(goodConcepts),
	)
	agent := New(Config{Provider: fake, Harness: &retry.Harness{MaxAttempts: 3}})

	require.NoError(t, agent.Step(context.Background(), seeded()))
	assert.Equal(t, 2, fake.Calls())
}

func TestStepRejectsMissingMaturityCoverage(t *testing.T) {
	flat := `{"concepts": [
	  {"name": "A", "maturity": "conventional", "description": "d",
	   "unit_operations": ["x"], "key_benefits": ["y"]},
	  {"name": "B", "maturity": "conventional", "description": "d",
	   "unit_operations": ["x"], "key_benefits": ["y"]},
	  {"name": "C", "maturity": "conventional", "description": "d",
	   "unit_operations": ["x"], "key_benefits": ["y"]}
	]}`
	fake := providers.NewFake(providers.JSONReply(flat))
	agent := New(Config{Provider: fake, Harness: retry.Light()})

	err := agent.Step(context.Background(), seeded())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maturity")
}

func TestStepRequiresRequirements(t *testing.T) {
	agent := New(Config{Provider: providers.NewFake()})
	err := agent.Step(context.Background(), state.New("p"))
	assert.ErrorIs(t, err, state.ErrMissingState)
}

func TestStepAcceptsFencedJSON(t *testing.T) {
	fake := providers.NewFake(providers.TextReply("```json\n" + goodConcepts + "\n```"))
	agent := New(Config{Provider: fake, Harness: retry.Light()})

	st := seeded()
	require.NoError(t, agent.Step(context.Background(), st))
	assert.NotEmpty(t, st.ResearchConcepts)
}
