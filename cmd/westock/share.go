package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rl1809/westock/internal/app"
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Share bundles between users",
}

var shareExportCmd = &cobra.Command{
	Use:   "export <bundle-id>",
	Short: "Publish a bundle and print its WS- token",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		ctx, cancel := a.RemoteContext(cmd.Context())
		defer cancel()

		token, err := a.Share.Export(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to share bundle: %w", err)
		}
		fmt.Println(token)
		return nil
	}),
}

var shareImportCmd = &cobra.Command{
	Use:   "import <token>",
	Short: "Import a shared bundle; existing items are never overwritten",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		ctx, cancel := a.RemoteContext(cmd.Context())
		defer cancel()

		result, err := a.Share.Import(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to import share: %w", err)
		}

		bundle := "already present"
		if result.BundleAdded {
			bundle = "added"
		}
		fmt.Printf("Bundle %s %s, %d new items\n", result.BundleID, bundle, result.ItemsAdded)
		if result.ItemsMissing > 0 {
			fmt.Printf("%d referenced items were not included in the share\n", result.ItemsMissing)
		}
		return nil
	}),
}

func init() {
	shareCmd.AddCommand(shareExportCmd, shareImportCmd)
	rootCmd.AddCommand(shareCmd)
}
