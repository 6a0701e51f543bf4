package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxion-eng/fluxion/core/state"
)

type stubAgent struct {
	name string
	fn   func(st *state.DesignState) error
}

func (a *stubAgent) Name() string { return a.name }
func (a *stubAgent) Step(_ context.Context, st *state.DesignState) error {
	if a.fn != nil {
		return a.fn(st)
	}
	return nil
}

func TestRunExecutesInOrder(t *testing.T) {
	var order []string
	mk := func(name string) Agent {
		return &stubAgent{name: name, fn: func(st *state.DesignState) error {
			order = append(order, name)
			return nil
		}}
	}
	o := New(Config{Delay: -1}, mk("one"), mk("two"), mk("three"))

	st, err := o.Run(context.Background(), state.New("p"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, order)
	assert.Empty(t, st.Error)
	assert.Len(t, o.Checkpoints(), 3)
}

func TestRunAbortsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	reached := false
	o := New(Config{Delay: -1},
		&stubAgent{name: "first", fn: func(st *state.DesignState) error {
			st.Requirements = "partial"
			return nil
		}},
		&stubAgent{name: "second", fn: func(st *state.DesignState) error { return boom }},
		&stubAgent{name: "third", fn: func(st *state.DesignState) error {
			reached = true
			return nil
		}},
	)

	st, err := o.Run(context.Background(), state.New("p"))
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "second", stepErr.Agent)
	assert.ErrorIs(t, err, boom)

	assert.False(t, reached, "agents after the failure must not run")
	assert.Equal(t, "partial", st.Requirements, "partial state survives")
	assert.Contains(t, st.Error, "boom")
	assert.Len(t, o.Checkpoints(), 1)
}

func TestRunStepLimit(t *testing.T) {
	agents := make([]Agent, 3)
	for i := range agents {
		agents[i] = &stubAgent{name: "a"}
	}
	o := New(Config{Delay: -1, MaxSteps: 2}, agents...)

	_, err := o.Run(context.Background(), state.New("p"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step limit")
}

func TestRunContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := New(Config{Delay: -1}, &stubAgent{name: "a"})

	st, err := o.Run(ctx, state.New("p"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotEmpty(t, st.Error)
}

func TestCheckpointIsolation(t *testing.T) {
	o := New(Config{Delay: -1},
		&stubAgent{name: "writer", fn: func(st *state.DesignState) error {
			st.Requirements = "v1"
			return nil
		}},
		&stubAgent{name: "mutator", fn: func(st *state.DesignState) error {
			st.Requirements = "v2"
			return nil
		}},
	)

	_, err := o.Run(context.Background(), state.New("p"))
	require.NoError(t, err)

	cps := o.Checkpoints()
	require.Len(t, cps, 2)
	assert.Equal(t, "v1", cps[0].State.Requirements, "checkpoint is a deep copy")
	assert.Equal(t, "v2", cps[1].State.Requirements)
}

func TestCheckpointDirWritesSnapshots(t *testing.T) {
	dir := t.TempDir()
	o := New(Config{Delay: -1, CheckpointDir: dir}, &stubAgent{name: "only"})

	_, err := o.Run(context.Background(), state.New("p"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "01_only.json", entries[0].Name())

	raw, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"problem_statement": "p"`)
}
