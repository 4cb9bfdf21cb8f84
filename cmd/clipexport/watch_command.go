package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"clipexport/internal/exporter"
	"clipexport/internal/logging"
	"clipexport/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the clip mapping whenever annotations or the timeline change",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger := logging.NewComponentLogger(ctx.loggerValue(), "watch")

			var paths []string
			for _, resolve := range []func() (string, error){cfg.TimelinePath, cfg.SubtitlePath, cfg.ScenePath} {
				if path, err := resolve(); err == nil {
					paths = append(paths, path)
				}
			}
			settle := time.Duration(cfg.Watch.SettleMillis) * time.Millisecond
			watcher, err := watch.New(paths, settle, logger)
			if err != nil {
				return err
			}
			defer watcher.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %d files; press Ctrl+C to stop\n", len(watcher.Files()))
			return ctx.withService(func(svc *exporter.Service) error {
				return watcher.Run(cmd.Context(), func(runCtx context.Context, changed []string) {
					res, err := svc.Run(runCtx, exporter.Options{SyncMappingOnly: true})
					switch {
					case exporter.IsLocked(err):
						logging.WarnWithContext(logger, "mapping sync skipped; another pass is running", "watch_sync_locked",
							logging.Any("changed", changed),
						)
					case !res.Success:
						logging.WarnWithContext(logger, "mapping sync failed", "watch_sync_failed",
							logging.Any("changed", changed),
							logging.String("message", res.Message),
						)
					default:
						fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", time.Now().Format("15:04:05"), res.Message)
					}
				})
			})
		},
	}
}
