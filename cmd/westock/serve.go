package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rl1809/westock/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API and gRPC health service",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.Serve(ctx)
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
