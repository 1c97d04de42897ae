package report

import (
	"fmt"
	"go/token"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorGray   = "\x1b[90m"
)

// PrintSummary prints all collected reports as an aligned table. Rule codes
// are coloured when w is a terminal.
func (r *Reporter) PrintSummary(w io.Writer, fset *token.FileSet) error {
	reports := r.Reports()
	if len(reports) == 0 {
		return nil
	}

	rows := make([][4]string, 0, len(reports))
	var widths [4]int
	for _, rep := range reports {
		row := [4]string{
			rep.Phase.String(),
			rep.Rule.Code(),
			position(fset, rep.Pos),
			rep.Message,
		}
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
		rows = append(rows, row)
	}

	colored := isTerminal(w)
	for i, row := range rows {
		var b strings.Builder
		for j, cell := range row {
			if j > 0 {
				b.WriteString("  ")
			}
			text := cell
			if j < len(row)-1 {
				text = runewidth.FillRight(cell, widths[j])
			}
			if colored && j == 1 {
				text = ruleColor(reports[i]) + text + colorReset
			}
			b.WriteString(text)
		}
		b.WriteByte('\n')

		if _, err := io.WriteString(w, b.String()); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	return nil
}

func ruleColor(d Diagnostic) string {
	switch {
	case d.Rule.IsHidden():
		return colorGray
	case d.Phase == PhaseExit:
		return colorYellow
	default:
		return colorRed
	}
}

func position(fset *token.FileSet, pos token.Pos) string {
	if fset == nil || !pos.IsValid() {
		return fmt.Sprintf("@%d", pos)
	}
	p := fset.Position(pos)
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
