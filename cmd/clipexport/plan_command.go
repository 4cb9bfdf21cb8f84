package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"clipexport/internal/exporter"
)

type planJSON struct {
	Dir        string          `json:"dir"`
	Mode       string          `json:"mode"`
	Criterion  string          `json:"criterion"`
	Candidates []planCandidate `json:"candidates"`
	Preserved  []string        `json:"preserved,omitempty"`
	Ignored    []string        `json:"ignored,omitempty"`
}

type planCandidate struct {
	Name      string `json:"name"`
	ClipIndex int    `json:"clip_index,omitempty"`
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var sel selectionFlags
	var jsonOutput, showTiming bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview which outputs the next export would remove",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := applySelection(ctx.configValue(), sel.override(cmd))
			preview, err := exporter.PreviewRun(cfg, ctx.loggerValue())
			if err != nil {
				return err
			}
			if preview.PlanErr != nil {
				return fmt.Errorf("read output directory: %w", preview.PlanErr)
			}

			plan := preview.Plan
			payload := planJSON{
				Dir:        plan.Dir,
				Mode:       string(plan.Mode),
				Criterion:  preview.Resolution.Criterion.Describe(),
				Candidates: make([]planCandidate, 0, len(plan.Candidates)),
				Preserved:  plan.Preserved,
				Ignored:    plan.Ignored,
			}
			for _, c := range plan.Candidates {
				payload.Candidates = append(payload.Candidates, planCandidate{Name: c.Name, ClipIndex: c.ClipIndex})
			}
			if jsonOutput {
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Output:    %s\n", payload.Dir)
			fmt.Fprintf(out, "Cleanup:   %s (%s)\n", payload.Mode, payload.Criterion)
			if len(payload.Candidates) == 0 {
				fmt.Fprintln(out, "Nothing to remove")
			} else {
				rows := make([][]string, 0, len(payload.Candidates))
				for _, c := range payload.Candidates {
					clip := "-"
					if c.ClipIndex > 0 {
						clip = strconv.Itoa(c.ClipIndex)
					}
					rows = append(rows, []string{c.Name, clip})
				}
				fmt.Fprintln(out, renderTable([]string{"Remove", "Clip"}, rows, []columnAlignment{alignLeft, alignRight}))
			}
			if len(payload.Preserved) > 0 {
				fmt.Fprintf(out, "Preserved: %s\n", strings.Join(payload.Preserved, ", "))
			}
			if showTiming {
				fmt.Fprintln(out, renderTimingTable(preview))
			}
			return nil
		},
	}
	sel.bind(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&showTiming, "timing", false, "Also show per-clip timing")
	return cmd
}

func renderTimingTable(preview *exporter.Preview) string {
	rows := make([][]string, 0, len(preview.Clips))
	for i, clip := range preview.Clips {
		rec := preview.Records[i]
		source := "-"
		if idx, ok := clip.Source(); ok {
			source = strconv.Itoa(idx)
		}
		rows = append(rows, []string{
			strconv.Itoa(clip.Index),
			source,
			yesNo(preview.Resolution.Decisions[i]),
			strconv.FormatFloat(rec.DurationSeconds, 'f', 3, 64),
			strconv.Itoa(rec.NativeStartFrame),
			strconv.Itoa(rec.GapStartFrame),
			strconv.Itoa(rec.GapFrames),
		})
	}
	return renderTable(
		[]string{"Clip", "Source", "Export", "Seconds", "Start", "Gap start", "Gap"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight},
	)
}
