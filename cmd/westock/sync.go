package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rl1809/westock/internal/app"
	"github.com/rl1809/westock/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync <up|down>",
	Short: "Overwrite one side with the other",
	Long: `Force a whole-document sync for --user.

  up    replace the cloud copy with local data
  down  replace local data with the cloud copy`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(domain.SyncUp), string(domain.SyncDown)},
	RunE: withAttachedApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		if err := runSync(cmd.Context(), a, args[0]); err != nil {
			return err
		}
		fmt.Printf("Sync %s complete\n", args[0])
		return nil
	}),
}

func runSync(ctx context.Context, a *app.App, direction string) error {
	ctx, cancel := a.RemoteContext(ctx)
	defer cancel()

	if err := a.Sync.ForceSync(ctx, domain.SyncDirection(direction)); err != nil {
		return fmt.Errorf("sync %s failed: %w", direction, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
