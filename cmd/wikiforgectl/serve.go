package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wikiforge/wikiforge/internal/bootstrap"
)

// serveCmd runs the same daemon internal/bootstrap wires up for
// cmd/wikiforge, so operators who already have wikiforgectl on PATH don't
// need a second binary just to run the pipeline in the foreground.
func serveCmd() *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the worker dispatcher, cleanup service, and API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				logger.Info("received shutdown signal")
				cancel()
			}()

			app, err := bootstrap.Build(ctx, bootstrap.Options{
				ConfigDir: configDir,
				DataRoot:  dataRoot,
				Logger:    logger,
			})
			if err != nil {
				return err
			}

			logger.Info("wikiforgectl serve starting", "http_addr", httpAddr)
			return app.Serve(ctx, httpAddr)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http-addr", envOr("HTTP_ADDR", ":8080"), "HTTP listen address")
	return cmd
}
