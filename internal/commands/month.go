package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/treatment-calendar/internal/program"
)

const cellWidth = 12

var (
	colorGreen  = lipgloss.Color("#8ec07c")
	colorYellow = lipgloss.Color("#fabd2f")
	colorDim    = lipgloss.Color("#928374")
	colorFg     = lipgloss.Color("#ebdbb2")
	colorHeader = lipgloss.Color("#fe8019")

	styleHeader  = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
	styleCell    = lipgloss.NewStyle().Width(cellWidth).Foreground(colorFg)
	styleOutside = styleCell.Foreground(colorDim)
	styleToday   = styleCell.Bold(true).Underline(true)
	styleDone    = lipgloss.NewStyle().Foreground(colorGreen)
	styleRolled  = lipgloss.NewStyle().Foreground(colorYellow)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
)

func newMonthCmd() *cobra.Command {
	var dateFlag string

	cmd := &cobra.Command{
		Use:   "month [FILE]",
		Short: "Print the resolved month for a treatment program",
		Long: `Resolves FILE ("-" for stdin) for the month of --date and prints the
calendar. Without FILE an empty month is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseDateFlag(dateFlag)
			if err != nil {
				return err
			}

			var p program.Program
			if len(args) == 1 {
				data, err := readInput(cmd, args[0])
				if err != nil {
					return err
				}
				if p, err = program.ParseProgram(data); err != nil {
					return err
				}
			}

			view, err := program.ResolveMonth(p, at)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderMonth(view))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "Resolve as of this date (YYYY-MM-DD, default today)")
	return cmd
}

// renderMonth draws the grid followed by the activity list and the pass
// statistics.
func renderMonth(view *program.MonthView) string {
	var b strings.Builder

	b.WriteString(styleHeader.Render(view.Month.Format("January 2006")))
	b.WriteString("\n\n")

	for _, wd := range program.Weekdays {
		b.WriteString(styleCell.Render(styleDim.Render(string(wd[:3]))))
	}
	b.WriteString("\n")

	for _, row := range view.Weeks {
		for _, cell := range row {
			b.WriteString(renderCell(cell))
		}
		b.WriteString("\n")
	}

	if acts := view.Activities(); len(acts) > 0 {
		b.WriteString("\n")
		for _, cell := range acts {
			line := fmt.Sprintf("%s  %-9s %s", cell.Date.Format("Mon 02"), program.WeekdayOf(cell.Date), cell.Display())
			switch {
			case cell.RolledOver:
				line += styleRolled.Render("  (from " + cell.Activity.ResolvedDate.Format(program.DateLayout) + ")")
			case cell.Activity.Completed:
				line += styleDone.Render("  ✓")
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styleDim.Render(fmt.Sprintf("scheduled %d · rolled over %d · unplaced %d",
		view.Stats.Scheduled, view.Stats.RolledOver, view.Stats.Unplaced)))
	b.WriteString("\n")
	return b.String()
}

func renderCell(cell program.DayCell) string {
	text := fmt.Sprintf("%2d", cell.Date.Day())
	if title := cell.Display(); title != "" {
		text += " " + truncate(title, cellWidth-4)
	}

	switch {
	case !cell.InMonth:
		return styleOutside.Render(text)
	case cell.IsToday:
		return styleToday.Render(text)
	case cell.RolledOver:
		return styleCell.Foreground(colorYellow).Render(text)
	case cell.Activity != nil && cell.Activity.Completed:
		return styleCell.Foreground(colorGreen).Render(text)
	default:
		return styleCell.Render(text)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
