package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"FinCast/internal/di"
	applogger "FinCast/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			app.Logger().Warn("tracing shutdown error", applogger.Error(err))
		}
	}()

	return app.Serve(ctx)
}
