package ux

import (
	stderrors "errors"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/stagehand/internal/errors"
)

// RenderError formats err for the terminal. A PipelineError is shown with its
// code, cause and suggestions.
func RenderError(w io.Writer, err error, noColor bool) string {
	if err == nil {
		return ""
	}

	r := lipgloss.NewRenderer(w)
	label := r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	hint := r.NewStyle().Foreground(lipgloss.Color("3"))
	if noColor {
		label = r.NewStyle()
		hint = r.NewStyle()
	}

	var pe *errors.PipelineError
	if !stderrors.As(err, &pe) {
		return label.Render("Error:") + " " + err.Error() + "\n"
	}

	var b strings.Builder
	b.WriteString(label.Render("Error ["+string(pe.Code)+"]:") + " " + pe.Message + "\n")
	for cause := pe.Cause; cause != nil; {
		var inner *errors.PipelineError
		if stderrors.As(cause, &inner) {
			b.WriteString("  caused by [" + string(inner.Code) + "] " + inner.Message + "\n")
			suggestionsOf(inner, &b, hint)
			cause = inner.Cause
			continue
		}
		b.WriteString("  caused by " + cause.Error() + "\n")
		break
	}
	suggestionsOf(pe, &b, hint)
	if pe.DocsURL != "" {
		b.WriteString("  docs: " + pe.DocsURL + "\n")
	}
	return b.String()
}

func suggestionsOf(pe *errors.PipelineError, b *strings.Builder, hint lipgloss.Style) {
	for _, s := range pe.Suggestions {
		b.WriteString("  " + hint.Render("→ "+s) + "\n")
	}
}
