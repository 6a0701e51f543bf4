// Package orchestrator drives the agent pipeline: a linear sequence of
// agents over one shared design state, with pacing between nodes, a
// checkpoint after every node, and abort-with-partial-state on failure.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fluxion-eng/fluxion/core/state"
)

const (
	// DefaultDelay paces provider calls between pipeline nodes.
	DefaultDelay = 500 * time.Millisecond

	// DefaultMaxSteps bounds total agent executions per run.
	DefaultMaxSteps = 100
)

// Agent is one pipeline stage.
type Agent interface {
	Name() string
	Step(ctx context.Context, st *state.DesignState) error
}

// StepError reports which agent aborted the run.
type StepError struct {
	Agent string
	Err   error
}

func (e *StepError) Error() string { return fmt.Sprintf("agent %s: %v", e.Agent, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

// Checkpoint is the state snapshot taken after one node completed.
type Checkpoint struct {
	Agent string
	At    time.Time
	State *state.DesignState
}

type Config struct {
	// Delay is the pause between pipeline nodes. Negative disables pacing;
	// zero means DefaultDelay.
	Delay time.Duration

	// MaxSteps bounds agent executions; zero means DefaultMaxSteps.
	MaxSteps int

	// CheckpointDir, when set, receives a state snapshot file per node.
	CheckpointDir string

	Logger *slog.Logger
}

// Orchestrator executes a fixed agent sequence.
type Orchestrator struct {
	agents      []Agent
	cfg         Config
	logger      *slog.Logger
	checkpoints []Checkpoint
}

func New(cfg Config, agents ...Agent) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Delay == 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	return &Orchestrator{agents: agents, cfg: cfg, logger: cfg.Logger}
}

// Run drives every agent in order over st. On agent failure the run stops,
// st.Error records the cause, and the partial state is returned with a
// *StepError. The state passed in is always the state returned.
func (o *Orchestrator) Run(ctx context.Context, st *state.DesignState) (*state.DesignState, error) {
	steps := 0
	for i, agent := range o.agents {
		if err := ctx.Err(); err != nil {
			st.Error = err.Error()
			return st, err
		}
		steps++
		if steps > o.cfg.MaxSteps {
			err := fmt.Errorf("orchestrator: step limit %d exceeded", o.cfg.MaxSteps)
			st.Error = err.Error()
			return st, err
		}

		o.logger.Info("agent starting", "agent", agent.Name(), "node", i+1, "of", len(o.agents))
		start := time.Now()
		if err := agent.Step(ctx, st); err != nil {
			st.Error = err.Error()
			o.logger.Error("agent failed", "agent", agent.Name(), "error", err)
			return st, &StepError{Agent: agent.Name(), Err: err}
		}
		o.logger.Info("agent finished", "agent", agent.Name(), "took", time.Since(start))

		if err := o.checkpoint(agent.Name(), st); err != nil {
			o.logger.Warn("checkpoint failed", "agent", agent.Name(), "error", err)
		}

		if o.cfg.Delay > 0 && i < len(o.agents)-1 {
			select {
			case <-time.After(o.cfg.Delay):
			case <-ctx.Done():
				st.Error = ctx.Err().Error()
				return st, ctx.Err()
			}
		}
	}
	return st, nil
}

// Checkpoints returns the snapshots taken so far, oldest first.
func (o *Orchestrator) Checkpoints() []Checkpoint {
	return o.checkpoints
}

func (o *Orchestrator) checkpoint(agent string, st *state.DesignState) error {
	clone, err := st.Clone()
	if err != nil {
		return err
	}
	o.checkpoints = append(o.checkpoints, Checkpoint{Agent: agent, At: time.Now(), State: clone})

	if o.cfg.CheckpointDir == "" {
		return nil
	}
	raw, err := st.Snapshot()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(o.cfg.CheckpointDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(o.cfg.CheckpointDir, fmt.Sprintf("%02d_%s.json", len(o.checkpoints), agent))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
