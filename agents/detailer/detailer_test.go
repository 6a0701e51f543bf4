package detailer

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

func score(n int) *int { return &n }

func seeded(t *testing.T, concepts []chem.Concept) *state.DesignState {
	t.Helper()
	raw, err := json.Marshal(chem.ConceptList{Concepts: concepts})
	require.NoError(t, err)
	st := state.New("problem")
	st.Requirements = "reqs"
	st.ResearchConcepts = raw
	return st
}

const brief = "## Concept Summary\n\nChosen for feasibility.\n\n## Process Narrative\n..."

func TestStepDefaultSelectionHighestScore(t *testing.T) {
	fake := providers.NewFake(providers.TextReply(brief))
	agent := New(Config{Provider: fake, Harness: retry.Light()})

	st := seeded(t, []chem.Concept{
		{Name: "low", FeasibilityScore: score(4)},
		{Name: "high", FeasibilityScore: score(9)},
		{Name: "mid", FeasibilityScore: score(6)},
	})
	require.NoError(t, agent.Step(context.Background(), st))

	assert.Equal(t, "high", st.SelectedConceptName)
	assert.Contains(t, st.SelectedConceptDetails, "Concept Summary")
	assert.Contains(t, fake.LastRequest().Messages[1].Content, `"high"`)
}

func TestStepTieBreaksToFirst(t *testing.T) {
	fake := providers.NewFake(providers.TextReply(brief))
	agent := New(Config{Provider: fake, Harness: retry.Light()})

	st := seeded(t, []chem.Concept{
		{Name: "first", FeasibilityScore: score(7)},
		{Name: "second", FeasibilityScore: score(7)},
	})
	require.NoError(t, agent.Step(context.Background(), st))
	assert.Equal(t, "first", st.SelectedConceptName)
}

func TestStepSelectorOverrides(t *testing.T) {
	fake := providers.NewFake(providers.TextReply(brief))
	agent := New(Config{
		Provider: fake,
		Harness:  retry.Light(),
		Selector: func(concepts []chem.Concept) (int, bool) { return 0, true },
	})

	st := seeded(t, []chem.Concept{
		{Name: "manual", FeasibilityScore: score(2)},
		{Name: "best", FeasibilityScore: score(9)},
	})
	require.NoError(t, agent.Step(context.Background(), st))
	assert.Equal(t, "manual", st.SelectedConceptName)
}

func TestStepSelectorDeclineFallsBack(t *testing.T) {
	fake := providers.NewFake(providers.TextReply(brief))
	agent := New(Config{
		Provider: fake,
		Harness:  retry.Light(),
		Selector: func(concepts []chem.Concept) (int, bool) { return 0, false },
	})

	st := seeded(t, []chem.Concept{
		{Name: "a", FeasibilityScore: score(2)},
		{Name: "b", FeasibilityScore: score(9)},
	})
	require.NoError(t, agent.Step(context.Background(), st))
	assert.Equal(t, "b", st.SelectedConceptName)
}

func TestStepEmptyConceptsFails(t *testing.T) {
	agent := New(Config{Provider: providers.NewFake()})
	st := state.New("p")
	st.Requirements = "reqs"
	st.ResearchConcepts = json.RawMessage(`{"concepts": []}`)
	err := agent.Step(context.Background(), st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no concepts")
}
