package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rl1809/westock/internal/app"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show local storage usage against the quota",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		used, err := a.Store.Usage(cmd.Context())
		if err != nil {
			return err
		}
		limit := a.Config.Storage.MaxBytes

		fmt.Printf("%s of %s used (%.1f%%)\n",
			humanize.IBytes(uint64(used)),
			humanize.IBytes(uint64(limit)),
			float64(used)/float64(limit)*100,
		)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(usageCmd)
}
