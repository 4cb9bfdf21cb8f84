package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clipexport/internal/annotation"
	"clipexport/internal/exporter"
	"clipexport/internal/selection"
)

type scenesJSON struct {
	Criterion     string                `json:"criterion"`
	SceneFallback bool                  `json:"scene_fallback"`
	Scenes        map[int][]int         `json:"scenes,omitempty"`
	Included      []int                 `json:"included_clips"`
	Skipped       int                   `json:"skipped"`
	Gaps          []annotation.SceneGap `json:"gaps,omitempty"`
}

func newScenesCommand(ctx *commandContext) *cobra.Command {
	var sel selectionFlags
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "Resolve the clip selection and check scene numbering",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := applySelection(ctx.configValue(), sel.override(cmd))
			preview, err := exporter.PreviewRun(cfg, ctx.loggerValue())

			var contErr *annotation.ContinuityError
			if errors.As(err, &contErr) {
				if jsonOutput {
					if werr := writeJSON(cmd, scenesJSON{Criterion: "scenes", Gaps: contErr.Gaps}); werr != nil {
						return werr
					}
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), renderGapTable(contErr.Gaps))
				}
				return err
			}
			if err != nil {
				return err
			}

			res := preview.Resolution
			var included []int
			for i, clip := range preview.Clips {
				if res.Decisions[i] {
					included = append(included, clip.Index)
				}
			}
			if jsonOutput {
				return writeJSON(cmd, scenesJSON{
					Criterion:     res.Criterion.Describe(),
					SceneFallback: res.SceneFallback,
					Scenes:        res.SceneTable,
					Included:      included,
					Skipped:       res.Skipped,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Selection: %s\n", res.Criterion.Describe())
			if res.SceneFallback {
				fmt.Fprintln(out, "Scene selection fell back to source settings")
			}
			if len(res.SceneTable) > 0 {
				rows := make([][]string, 0, len(res.SceneTable))
				for _, scene := range res.SceneTable.Scenes() {
					rows = append(rows, []string{strconv.Itoa(scene), selection.FormatInts(res.SceneTable[scene])})
				}
				fmt.Fprintln(out, renderTable([]string{"Scene", "Sources"}, rows, []columnAlignment{alignRight}))
			}
			fmt.Fprintf(out, "Included clips: %s (%d skipped)\n", selection.FormatInts(included), res.Skipped)
			return nil
		},
	}
	sel.bind(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
