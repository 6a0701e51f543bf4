package fluxion

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fluxion-eng/fluxion/core/chem"
	"github.com/fluxion-eng/fluxion/core/config"
	"github.com/fluxion-eng/fluxion/core/driver"
	"github.com/fluxion-eng/fluxion/core/report"
)

func newRunCommand() *cobra.Command {
	var (
		problemFile     string
		markdownPath    string
		wordPath        string
		manualSelection bool
		noPreview       bool
	)

	cmd := &cobra.Command{
		Use:   "run [problem statement]",
		Short: "Run the design pipeline for a problem statement",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			problem, err := resolveProblem(args, problemFile)
			if err != nil {
				return err
			}

			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}

			opts := driver.Options{
				Config:             cfg,
				MarkdownReportPath: markdownPath,
				WordReportPath:     wordPath,
			}
			if manualSelection {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return fmt.Errorf("--manual-selection requires an interactive terminal")
				}
				opts.ConceptSelector = promptSelector(cmd)
			}

			st, err := driver.Run(cmd.Context(), problem, opts)
			if err != nil {
				return err
			}

			if !noPreview {
				preview(cmd, report.Markdown(st))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s complete\n", st.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&problemFile, "problem-file", "", "read the problem statement from a file")
	cmd.Flags().StringVar(&markdownPath, "markdown-report", "", "write the Markdown report to this path")
	cmd.Flags().StringVar(&wordPath, "word-report", "", "write a Word report to this path (requires pandoc)")
	cmd.Flags().BoolVar(&manualSelection, "manual-selection", false, "choose the design concept interactively")
	cmd.Flags().BoolVar(&noPreview, "no-preview", false, "skip the terminal report preview")
	return cmd
}

func resolveProblem(args []string, problemFile string) (string, error) {
	if problemFile != "" {
		raw, err := os.ReadFile(problemFile)
		if err != nil {
			return "", fmt.Errorf("problem file: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	if len(args) == 0 {
		return "", fmt.Errorf("a problem statement is required (argument or --problem-file)")
	}
	return strings.Join(args, " "), nil
}

// promptSelector lists the reviewed concepts on stdout and reads an index
// from stdin. Empty input falls back to the automatic choice.
func promptSelector(cmd *cobra.Command) func(concepts []chem.Concept) (int, bool) {
	return func(concepts []chem.Concept) (int, bool) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "\nReviewed concepts:")
		for i, c := range concepts {
			score := "-"
			if c.FeasibilityScore != nil {
				score = strconv.Itoa(*c.FeasibilityScore)
			}
			fmt.Fprintf(out, "  [%d] %s (maturity: %s, feasibility: %s)\n", i+1, c.Name, c.Maturity, score)
		}
		fmt.Fprint(out, "Select a concept (enter for automatic): ")

		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return 0, false
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return 0, false
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(concepts) {
			fmt.Fprintln(out, "invalid selection, using automatic choice")
			return 0, false
		}
		return n - 1, true
	}
}

// preview renders the report for the terminal; plain output is a fine
// fallback when rendering is unavailable.
func preview(cmd *cobra.Command, markdown string) {
	out := cmd.OutOrStdout()
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		fmt.Fprintln(out, markdown)
		return
	}
	rendered, err := r.Render(markdown)
	if err != nil {
		fmt.Fprintln(out, markdown)
		return
	}
	fmt.Fprint(out, rendered)
}
