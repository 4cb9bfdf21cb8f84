package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"clipexport/internal/annotation"
	"clipexport/internal/exporter"
	"clipexport/internal/mapping"
	"clipexport/internal/selection"
)

type exportJSON struct {
	Result exporter.Result       `json:"result"`
	Gaps   []annotation.SceneGap `json:"gaps,omitempty"`
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var sel selectionFlags
	var syncOnly, dryRun, wait, jsonOutput bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export selected clips and regenerate the clip mapping",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := exporter.Options{
				Selection:       sel.override(cmd),
				SyncMappingOnly: syncOnly,
				DryRun:          dryRun,
				Wait:            wait,
			}
			return runExport(cmd, ctx, opts, jsonOutput, nil)
		},
	}
	sel.bind(cmd)
	cmd.Flags().BoolVar(&syncOnly, "sync-only", false, "Regenerate the mapping without exporting or cleaning up")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan the pass without encoding, deleting, or writing the mapping")
	cmd.Flags().BoolVar(&wait, "wait", true, "Wait for queued encodes to finish")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result as JSON")
	return cmd
}

func newMappingCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput, bySource bool
	var sources []int
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Regenerate the clip mapping from the timeline without exporting",
		RunE: func(cmd *cobra.Command, args []string) error {
			var after func(exporter.Result) error
			if !jsonOutput && (bySource || len(sources) > 0) {
				after = func(res exporter.Result) error {
					return printSourceClips(cmd.OutOrStdout(), res.MappingPath, sources)
				}
			}
			return runExport(cmd, ctx, exporter.Options{SyncMappingOnly: true}, jsonOutput, after)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result as JSON")
	cmd.Flags().BoolVar(&bySource, "by-source", false, "List the clips cut from every source")
	cmd.Flags().IntSliceVar(&sources, "source", nil, "List the clips cut from these sources")
	return cmd
}

// printSourceClips reads the freshly written mapping and lists clips per
// source. Without explicit sources every source in the mapping is listed.
func printSourceClips(out io.Writer, path string, sources []int) error {
	if path == "" {
		return errors.New("mapping was not written")
	}
	artifact, err := mapping.Load(path)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		sources = artifact.Sources()
	}
	rows := make([][]string, 0, len(sources))
	for _, src := range sources {
		clips := "-"
		if found := artifact.ClipsForSource(src); len(found) > 0 {
			clips = selection.FormatInts(found)
		}
		rows = append(rows, []string{strconv.Itoa(src), clips})
	}
	fmt.Fprintln(out, renderTable([]string{"Source", "Clips"}, rows, []columnAlignment{alignRight}))
	return nil
}

func runExport(cmd *cobra.Command, ctx *commandContext, opts exporter.Options, jsonOutput bool, after func(exporter.Result) error) error {
	return ctx.withService(func(svc *exporter.Service) error {
		res, runErr := svc.Run(cmd.Context(), opts)
		var contErr *annotation.ContinuityError
		errors.As(runErr, &contErr)

		if jsonOutput {
			payload := exportJSON{Result: res}
			if contErr != nil {
				payload.Gaps = contErr.Gaps
			}
			if err := writeJSON(cmd, payload); err != nil {
				return err
			}
		} else {
			out := cmd.OutOrStdout()
			if contErr != nil {
				fmt.Fprintln(out, "Scene numbering is not continuous; nothing was changed.")
				fmt.Fprintln(out, renderGapTable(contErr.Gaps))
			} else if runErr == nil && res.SequenceName != "" {
				printResult(out, res)
			}
		}

		if runErr != nil {
			return runErr
		}
		if !res.Success {
			return fmt.Errorf("export failed: %s", res.Message)
		}
		if res.Encoding != nil && len(res.Encoding.Failed) > 0 {
			return fmt.Errorf("%d of %d encodes failed", len(res.Encoding.Failed), res.Exported)
		}
		if after != nil {
			return after(res)
		}
		return nil
	})
}

func printResult(out io.Writer, res exporter.Result) {
	fmt.Fprintln(out, res.Message)
	fmt.Fprintf(out, "  Sequence:   %s (%s, %s, %.3f fps)\n", res.SequenceName, res.SequenceMethod, res.Track, res.FrameRate)
	fmt.Fprintf(out, "  Selection:  %s\n", res.Criterion)
	if res.SceneFallback {
		fmt.Fprintln(out, "              scene selection fell back to source settings")
	}
	fmt.Fprintf(out, "  Output:     %s\n", res.OutputDir)
	switch {
	case res.Cleanup.Skipped:
		fmt.Fprintln(out, "  Cleanup:    skipped")
	case res.DryRun:
		fmt.Fprintf(out, "  Cleanup:    %s, would remove %d\n", res.Cleanup.Mode, res.Cleanup.Planned)
	default:
		fmt.Fprintf(out, "  Cleanup:    %s, removed %d of %d\n", res.Cleanup.Mode, res.Cleanup.Removed, res.Cleanup.Planned)
	}
	switch {
	case res.MappingGenerated:
		fmt.Fprintf(out, "  Mapping:    %s\n", res.MappingPath)
	case res.MappingError != "":
		fmt.Fprintf(out, "  Mapping:    not written (%s)\n", res.MappingError)
	}
	if res.Encoding != nil {
		fmt.Fprintf(out, "  Encoding:   %d completed, %d failed\n", res.Encoding.Completed, len(res.Encoding.Failed))
	}

	failures := append([]exporter.ClipError(nil), res.Errors...)
	if res.Encoding != nil {
		failures = append(failures, res.Encoding.Failed...)
	}
	if len(failures) == 0 {
		return
	}
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		clip := "-"
		if f.ClipIndex > 0 {
			clip = strconv.Itoa(f.ClipIndex)
		}
		rows = append(rows, []string{clip, f.Name, f.Error})
	}
	fmt.Fprintln(out, renderTable([]string{"Clip", "Name", "Error"}, rows, []columnAlignment{alignRight}))
}

func renderGapTable(gaps []annotation.SceneGap) string {
	rows := make([][]string, 0, len(gaps))
	for _, gap := range gaps {
		rows = append(rows, []string{
			strconv.Itoa(gap.Scene),
			selection.FormatInts(gap.Actual),
			selection.FormatInts(gap.Missing),
		})
	}
	return renderTable([]string{"Scene", "Sources", "Missing"}, rows, []columnAlignment{alignRight})
}
