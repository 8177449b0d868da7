package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/stagehand/pkg/stagehand/pipeline"
)

type styles struct {
	success lipgloss.Style
	failure lipgloss.Style
	stage   lipgloss.Style
	phaseID lipgloss.Style
	file    lipgloss.Style
	flag    lipgloss.Style
	muted   lipgloss.Style
	script  lipgloss.Style
}

// newStyles binds the styles to w so color is only emitted on terminals.
func newStyles(w io.Writer, noColor bool) styles {
	r := lipgloss.NewRenderer(w)
	if noColor {
		return styles{
			success: r.NewStyle(),
			failure: r.NewStyle(),
			stage:   r.NewStyle(),
			phaseID: r.NewStyle(),
			file:    r.NewStyle(),
			flag:    r.NewStyle(),
			muted:   r.NewStyle(),
			script:  r.NewStyle().PaddingLeft(4),
		}
	}
	return styles{
		success: r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		stage:   r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		phaseID: r.NewStyle().Foreground(lipgloss.Color("86")),
		file:    r.NewStyle().Foreground(lipgloss.Color("252")),
		flag:    r.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		script:  r.NewStyle().Foreground(lipgloss.Color("241")).PaddingLeft(4),
	}
}

func (f *TextFormatter) renderReport(rep *pipeline.Report) string {
	s := f.styles
	var b strings.Builder

	if rep.Success {
		b.WriteString(s.success.Render("✓ Dry run succeeded"))
	} else {
		b.WriteString(s.failure.Render("✗ Dry run failed"))
	}
	fmt.Fprintf(&b, " for pipeline %s", rep.Pipeline.ID)
	if rep.Pipeline.Name != "" && rep.Pipeline.Name != rep.Pipeline.ID {
		fmt.Fprintf(&b, " (%s)", rep.Pipeline.Name)
	}
	b.WriteString("\n")
	if rep.BuildID != "" {
		b.WriteString(s.muted.Render("build "+rep.BuildID) + "\n")
	}

	for i, stage := range rep.Pipeline.Stages {
		b.WriteString("\n" + s.stage.Render(fmt.Sprintf("Stage %d", i+1)) + "\n")
		for _, ph := range stage {
			f.renderPhase(&b, ph)
		}
	}

	if rep.Error != "" {
		b.WriteString("\n" + s.failure.Render("Error") + " " + rep.Error + "\n")
	}
	return b.String()
}

func (f *TextFormatter) renderPhase(b *strings.Builder, ph pipeline.PhaseEntry) {
	s := f.styles

	fmt.Fprintf(b, "  %s %s", s.phaseID.Render(ph.ID), ph.Name)
	if ph.Repo != "" {
		b.WriteString(s.muted.Render(" @" + ph.Repo))
	}
	if !ph.Materialized {
		b.WriteString(" " + s.muted.Render("(not materialized)") + "\n")
		return
	}

	var parts []string
	if ph.PreScript != nil {
		parts = append(parts, s.file.Render(ph.PreScriptFile))
	}
	parts = append(parts, s.file.Render(ph.MainScriptFile))
	if ph.ContainerArgs != nil {
		if image := ph.ContainerArgs.RawArgs[pipeline.ArgImage]; image != "" {
			parts = append(parts, s.muted.Render(image))
		}
	}
	if d := ph.Docker; d != nil {
		if d.BuildEnabled {
			parts = append(parts, s.flag.Render("build"))
		}
		if d.PushEnabled {
			parts = append(parts, s.flag.Render("push"))
		}
		if len(d.Tags) > 0 {
			parts = append(parts, s.muted.Render("tags "+strings.Join(d.Tags, ",")))
		}
	}
	b.WriteString("  " + strings.Join(parts, "  ") + "\n")

	if !f.opts.ShowScripts {
		return
	}
	if ph.PreScript != nil {
		b.WriteString(s.script.Render(strings.TrimRight(*ph.PreScript, "\n")) + "\n")
	}
	b.WriteString(s.script.Render(strings.TrimRight(ph.MainScript, "\n")) + "\n")
}
