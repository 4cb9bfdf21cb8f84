package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"clipexport/internal/config"
	"clipexport/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, input files, and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failed := false

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Config file", statusInfo, ctx.configPath, colorize))
			mode := "project layout"
			if cfg.Standalone() {
				mode = "standalone output directory"
			}
			fmt.Fprintln(out, renderStatusLine("Mode", statusInfo, mode, colorize))
			fmt.Fprintln(out, renderStatusLine("Locale", statusInfo, fmt.Sprintf("%s (%s)", cfg.Export.Locale, config.LocaleDisplayName(cfg.Export.Locale)), colorize))

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Paths", colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			failed = preflight.Failed(results)

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Tools", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, status := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				kind := statusOK
				switch {
				case status.Available:
				case status.Optional:
					kind = statusWarn
				default:
					kind = statusError
					failed = true
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, status.Detail, colorize))
			}

			if failed {
				return errors.New("doctor found problems")
			}
			return nil
		},
	}
}
