package errtable

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	FalsePositivesFile = "fp_examples.tex"
	FalseNegativesFile = "fn_examples.tex"
)

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
)

// Escape makes s safe inside a LaTeX table cell.
func Escape(s string) string {
	return latexEscaper.Replace(s)
}

// Truncate keeps the first width runes of s, marking a cut with "...".
// Newlines become spaces first.
func Truncate(s string, width int) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	return string(r[:width]) + "..."
}

// RenderLaTeX renders examples as a tabular fragment. Text is truncated
// before it is escaped so escape sequences are never cut.
func RenderLaTeX(examples []Example, width int) string {
	var b strings.Builder
	b.WriteString("\\begin{tabular}{r c c c l}\n")
	b.WriteString("\\hline\n")
	b.WriteString("No. & True & Pred & Score & Comment \\\\\n")
	b.WriteString("\\hline\n")
	for i, e := range examples {
		fmt.Fprintf(&b, "%d & %d & %d & %.3f & %s \\\\\n",
			i+1, e.True, e.Pred, e.Score, Escape(Truncate(e.Text, width)))
	}
	b.WriteString("\\hline\n")
	b.WriteString("\\end{tabular}")
	return b.String()
}

// WriteFiles writes both fragments into dir, creating it when needed.
func WriteFiles(dir string, t Tables, width int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create tables dir %q: %w", dir, err)
	}

	for name, examples := range map[string][]Example{
		FalsePositivesFile: t.FalsePositives,
		FalseNegativesFile: t.FalseNegatives,
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(RenderLaTeX(examples, width)), 0o644); err != nil { // nolint:gosec
			return fmt.Errorf("failed to write %q: %w", path, err)
		}
	}
	return nil
}
