package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rewired-gh/trendline/internal/output"
	"github.com/rewired-gh/trendline/internal/period"
	"github.com/rewired-gh/trendline/internal/render"
	"github.com/rewired-gh/trendline/internal/view"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize the fixtures in the terminal",
	Long: `Load the fixtures and print the overall series, the events and any entries
that were skipped during normalization.

Examples:
  trendline inspect
  trendline inspect --granularity monthly
  trendline inspect --json`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().String("granularity", "", "timeline granularity: daily, weekly or monthly")
	inspectCmd.Flags().Bool("json", false, "output the summary as JSON")
}

func runInspect(cmd *cobra.Command, args []string) error {
	g := cfg.Granularity()
	if s, _ := cmd.Flags().GetString("granularity"); s != "" {
		parsed, err := period.ParseGranularity(s)
		if err != nil {
			return err
		}
		g = parsed
	}

	l, err := loadFixtures(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	printer := output.NewPrinter(output.ResolveColors(cfg.Output.Colors))
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(printer.Out())
		enc.SetIndent("", "  ")
		return enc.Encode(l.renderer.Summary())
	}

	return printInspection(printer, l, g)
}

func printInspection(printer *output.Printer, l *loaded, g period.Granularity) error {
	r := l.renderer
	sum := r.Summary()

	printer.Header(fmt.Sprintf("%s (%s)", sum.OverallName, g))
	tl := r.Timeline(g, view.Default().Visible)
	peak, _ := tl.Overall.Peak()
	table := output.NewTable(printer.Out(), []string{"PERIOD", "CONVERSATIONS", ""})
	for _, p := range tl.Overall.Points {
		mark := ""
		if p.Label == peak.Label && p.Value > 0 {
			mark = printer.Bold("peak")
		}
		table.AddRow(p.Label, humanize.Comma(int64(p.Value)), mark)
	}
	if err := table.Render(); err != nil {
		return err
	}
	printer.Info("Total: %s conversations over %d weeks", humanize.Comma(sum.OverallVolume), sum.Weeks)

	printer.Header(fmt.Sprintf("Events (%d)", sum.EventCount))
	markers := r.Markers(g)
	events := output.NewTable(printer.Out(), []string{"EVENT", "MARKER", "PEAK", "IMPACT", "PARTICIPATION"})
	for i, card := range r.Cards() {
		participation := printer.Dim("-")
		if card.Participation > 0 {
			participation = fmt.Sprintf("%.1f%%", card.Participation)
		}
		events.AddRow(
			printer.Bold(card.Title),
			markers[i].Date,
			card.PeakPeriod,
			render.ImpactText(card.TotalVolume, card.TotalReach),
			participation,
		)
	}
	if err := events.Render(); err != nil {
		return err
	}

	ov := r.Overlay(view.Default().Visible)
	if len(ov.Sales) > 0 {
		printer.Header("Sales overlay")
		printer.Info("%d geographies, share %.1f%% to %.1f%%, primary axis from %s",
			len(ov.Sales), ov.SecondaryMin, ov.SecondaryMax, humanize.Comma(int64(ov.PrimaryMin)))
	}

	if len(l.errs) > 0 {
		printer.Header(fmt.Sprintf("Skipped (%d)", len(l.errs)))
		for _, e := range l.errs {
			printer.Warning("%v", e)
		}
	}
	return nil
}
