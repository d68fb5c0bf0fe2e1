package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rl1809/westock/internal/app"
)

var backupOut string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or restore the whole inventory as JSON",
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a backup file",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		path := backupOut
		if path == "" {
			path = a.Backup.Filename(time.Now())
		}

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create backup file: %w", err)
		}
		if err := a.Backup.Export(cmd.Context(), f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close backup file: %w", err)
		}
		fmt.Printf("Backup written to %s\n", path)
		return nil
	}),
}

var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all local data with a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open backup file: %w", err)
		}
		defer f.Close()

		if err := a.Backup.Import(cmd.Context(), f); err != nil {
			return fmt.Errorf("failed to restore backup: %w", err)
		}
		doc := a.Repo.Document(cmd.Context())
		fmt.Printf("Restored %d items and %d bundles\n", len(doc.Items), len(doc.Bundles))
		return nil
	}),
}

func init() {
	backupExportCmd.Flags().StringVarP(&backupOut, "out", "o", "", "Output path (default westock_backup_<date>.json)")

	backupCmd.AddCommand(backupExportCmd, backupImportCmd)
	rootCmd.AddCommand(backupCmd)
}
