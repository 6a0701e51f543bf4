package report

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// DocxConverter turns rendered Markdown into a Word document.
type DocxConverter interface {
	Convert(ctx context.Context, markdown, outputPath string) error
}

// PandocConverter shells out to pandoc. ReferenceDoc, when set, supplies a
// Word style template.
type PandocConverter struct {
	// Binary overrides the pandoc executable path.
	Binary string
	// ReferenceDoc is an optional .docx style reference.
	ReferenceDoc string
}

func (c *PandocConverter) binary() string {
	if c.Binary != "" {
		return c.Binary
	}
	return "pandoc"
}

// Available reports whether the converter's binary can be found.
func (c *PandocConverter) Available() bool {
	_, err := exec.LookPath(c.binary())
	return err == nil
}

// Convert writes markdown to a temp file and runs pandoc on it.
func (c *PandocConverter) Convert(ctx context.Context, markdown, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	tmp, err := os.CreateTemp("", "fluxion-report-*.md")
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(markdown); err != nil {
		tmp.Close()
		return fmt.Errorf("report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	args := []string{tmp.Name(), "-f", "markdown", "-o", outputPath}
	if c.ReferenceDoc != "" {
		args = append(args, "--reference-doc", c.ReferenceDoc)
	}
	cmd := exec.CommandContext(ctx, c.binary(), args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("report: pandoc: %w: %s", err, out)
	}
	return nil
}
