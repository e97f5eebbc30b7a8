package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/trezcool/fyp/core/project"
)

var (
	styleHeader = lipgloss.NewStyle().Foreground(lipgloss.Color("#fe8019")).Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("#928374"))
	styleGreen  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8ec07c"))
	styleRed    = lipgloss.NewStyle().Foreground(lipgloss.Color("#fb4934"))
)

func (cli *commandLine) newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Count the projects of each workflow status",
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := cli.prjSvc.CountByStatus(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprint(out, renderReport(counts, isTerminalFunc(out)))
			return nil
		},
	}
}

// renderReport renders one row per status, in workflow order, and the total.
func renderReport(counts map[project.Status]int, styled bool) string {
	render := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	width := len("Status")
	for _, st := range project.AllStatuses {
		if len(st) > width {
			width = len(st)
		}
	}

	var b strings.Builder
	total := 0
	row := func(label, count string, s lipgloss.Style) {
		b.WriteString(render(s, fmt.Sprintf("%-*s  %5s", width, label, count)))
		b.WriteString("\n")
	}

	row("Status", "Count", styleHeader)
	b.WriteString(render(styleDim, strings.Repeat("─", width+7)))
	b.WriteString("\n")
	for _, st := range project.AllStatuses {
		n := counts[st]
		total += n
		s := lipgloss.NewStyle()
		switch {
		case n == 0:
			s = styleDim
		case st == project.StatusCompleted:
			s = styleGreen
		case st == project.StatusRejected:
			s = styleRed
		}
		row(string(st), strconv.Itoa(n), s)
	}
	row("Total", strconv.Itoa(total), styleHeader)
	return b.String()
}
