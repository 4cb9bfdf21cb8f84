package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"clipexport/internal/api"
	"clipexport/internal/exporter"
	"clipexport/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP bridge for host panels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger := ctx.loggerValue()
			if bind == "" {
				bind = cfg.API.Bind
			}
			return ctx.withService(func(svc *exporter.Service) error {
				server, err := api.NewServer(api.ServerConfig{
					Bind:      bind,
					Token:     cfg.API.Token,
					Version:   version,
					Service:   svc,
					Logger:    logger,
					StartTime: time.Now(),
				})
				if err != nil {
					return err
				}
				if err := server.Start(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", server.Addr())
				if cfg.API.Token == "" {
					logging.WarnWithContext(logger, "api token is empty; the bridge accepts unauthenticated requests", "api_auth_disabled",
						logging.String("bind", server.Addr()),
						logging.String(logging.FieldErrorHint, "set api.token or CLIPEXPORT_API_TOKEN"),
					)
				}

				<-cmd.Context().Done()
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 10*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to api.bind)")
	return cmd
}
