// Package driver wires the full pipeline together: providers from config,
// agents in pipeline order, orchestration, run-log persistence and report
// rendering.
package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fluxion-eng/fluxion/agents/basis"
	"github.com/fluxion-eng/fluxion/agents/builder"
	"github.com/fluxion-eng/fluxion/agents/conservative"
	"github.com/fluxion-eng/fluxion/agents/detailer"
	"github.com/fluxion-eng/fluxion/agents/estimator"
	"github.com/fluxion-eng/fluxion/agents/innovative"
	"github.com/fluxion-eng/fluxion/agents/manager"
	"github.com/fluxion-eng/fluxion/agents/pfd"
	"github.com/fluxion-eng/fluxion/agents/requirements"
	"github.com/fluxion-eng/fluxion/agents/safety"
	"github.com/fluxion-eng/fluxion/agents/sizing"
	"github.com/fluxion-eng/fluxion/core/config"
	"github.com/fluxion-eng/fluxion/core/orchestrator"
	"github.com/fluxion-eng/fluxion/core/providers"
	"github.com/fluxion-eng/fluxion/core/report"
	"github.com/fluxion-eng/fluxion/core/retry"
	"github.com/fluxion-eng/fluxion/core/state"
)

// LogFileName is the per-run state log written under save_dir/<run-id>/.
const LogFileName = "full_states_log.json"

// Options configures one pipeline run.
type Options struct {
	Config config.Config
	Logger *slog.Logger

	// MarkdownReportPath, when set, receives the rendered Markdown package.
	MarkdownReportPath string
	// WordReportPath, when set, routes the Markdown through Docx.
	WordReportPath string
	// Docx converts Markdown to Word; defaults to pandoc.
	Docx report.DocxConverter

	// ConceptSelector overrides the automatic concept choice, e.g. with an
	// interactive prompt.
	ConceptSelector detailer.Selector

	// Harness overrides the per-agent retry harness.
	Harness *retry.Harness

	// QuickProvider and DeepProvider override provider construction from
	// config. Both must be set together to skip construction.
	QuickProvider providers.Provider
	DeepProvider  providers.Provider
}

// Run executes the design pipeline for one problem statement. The returned
// state is complete on success and partial (with Error set) on abort; the
// run log is persisted in both cases.
func Run(ctx context.Context, problemStatement string, opts Options) (*state.DesignState, error) {
	if problemStatement == "" {
		return nil, fmt.Errorf("driver: problem statement is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	quick, deep, cleanup, err := resolveProviders(cfg, opts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	quickTemp := cfg.QuickTemperature
	deepTemp := cfg.DeepTemperature
	h := opts.Harness
	pipeline := []orchestrator.Agent{
		requirements.New(requirements.Config{Provider: quick, Harness: h, Logger: logger, Temperature: &quickTemp}),
		innovative.New(innovative.Config{Provider: quick, Harness: h, Logger: logger, Temperature: &quickTemp}),
		conservative.New(conservative.Config{Provider: quick, Harness: h, Logger: logger, Temperature: &quickTemp}),
		detailer.New(detailer.Config{Provider: quick, Harness: h, Logger: logger, Temperature: &quickTemp, Selector: opts.ConceptSelector}),
		basis.New(basis.Config{Provider: quick, Harness: h, Logger: logger, Temperature: &quickTemp}),
		pfd.New(pfd.Config{Provider: quick, Harness: h, Logger: logger, Temperature: &quickTemp}),
		builder.New(builder.Config{Provider: quick, Harness: h, Logger: logger, Temperature: &quickTemp}),
		estimator.New(estimator.Config{Provider: deep, Harness: h, Logger: logger, Temperature: &deepTemp}),
		sizing.New(sizing.Config{Provider: quick, Harness: h, Logger: logger, Temperature: &quickTemp, PropertyBackendURL: cfg.PropertyBackendURL}),
		safety.New(safety.Config{Provider: quick, Harness: h, Logger: logger, Temperature: &quickTemp}),
		manager.New(manager.Config{Provider: deep, Harness: h, Logger: logger, Temperature: &deepTemp}),
	}

	orch := orchestrator.New(orchestrator.Config{
		Delay:         cfg.Delay(),
		MaxSteps:      cfg.MaxRecurLimit,
		CheckpointDir: cfg.CheckpointDir,
		Logger:        logger,
	}, pipeline...)

	st := state.New(problemStatement)
	logger.Info("run starting", "run_id", st.RunID, "provider", cfg.Provider)

	st, runErr := orch.Run(ctx, st)

	if err := persistLog(cfg.SaveDir, st); err != nil {
		logger.Error("run log persistence failed", "error", err)
		if runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return st, runErr
	}

	if err := writeReports(ctx, st, opts); err != nil {
		return st, err
	}
	logger.Info("run finished", "run_id", st.RunID)
	return st, nil
}

func resolveProviders(cfg config.Config, opts Options) (quick, deep providers.Provider, cleanup func(), err error) {
	if opts.QuickProvider != nil && opts.DeepProvider != nil {
		return opts.QuickProvider, opts.DeepProvider, func() {}, nil
	}

	t := providers.Type(cfg.Provider)
	quick, err = providers.New(t, cfg.ProviderConfig(cfg.QuickThinkModel, cfg.QuickTemperature))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("driver: quick provider: %w", err)
	}
	deep, err = providers.New(t, cfg.ProviderConfig(cfg.DeepThinkModel, cfg.DeepTemperature))
	if err != nil {
		quick.Close()
		return nil, nil, nil, fmt.Errorf("driver: deep provider: %w", err)
	}
	return quick, deep, func() {
		quick.Close()
		deep.Close()
	}, nil
}

// persistLog writes the flat run record atomically under save_dir/<run-id>/.
func persistLog(saveDir string, st *state.DesignState) error {
	if saveDir == "" {
		return nil
	}
	dir := filepath.Join(saveDir, st.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	raw, err := json.MarshalIndent(st.LogRecord(), "", "  ")
	if err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	path := filepath.Join(dir, LogFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	return nil
}

func writeReports(ctx context.Context, st *state.DesignState, opts Options) error {
	if opts.MarkdownReportPath == "" && opts.WordReportPath == "" {
		return nil
	}
	md := report.Markdown(st)

	if opts.MarkdownReportPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.MarkdownReportPath), 0o755); err != nil {
			return fmt.Errorf("driver: %w", err)
		}
		if err := os.WriteFile(opts.MarkdownReportPath, []byte(md), 0o644); err != nil {
			return fmt.Errorf("driver: markdown report: %w", err)
		}
	}

	if opts.WordReportPath != "" {
		conv := opts.Docx
		if conv == nil {
			conv = &report.PandocConverter{ReferenceDoc: opts.Config.ReferenceDoc}
		}
		if err := conv.Convert(ctx, md, opts.WordReportPath); err != nil {
			return fmt.Errorf("driver: word report: %w", err)
		}
	}
	return nil
}
