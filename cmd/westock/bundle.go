package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rl1809/westock/internal/app"
	"github.com/rl1809/westock/internal/core/domain"
)

var (
	bundleName        string
	bundleDescription string
	bundleItems       []string
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Manage bundles of items",
}

var bundleCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a bundle",
	Long: `Create a bundle referencing existing items by id.

Examples:
  westock bundle create --name Summer --items 1a2b,3c4d`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		created, err := a.Repo.CreateBundle(cmd.Context(), domain.Bundle{
			Name:        bundleName,
			Description: bundleDescription,
			ItemIDs:     bundleItems,
		})
		if err != nil {
			return fmt.Errorf("failed to create bundle: %w", err)
		}
		fmt.Printf("Bundle created: %s  %s (%d items)\n", created.ID, created.Name, len(created.ItemIDs))
		return nil
	}),
}

var bundleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bundles, newest first",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		doc := a.Repo.Document(cmd.Context())
		if len(doc.Bundles) == 0 {
			fmt.Println("No bundles.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tITEMS\tDESCRIPTION")
		for _, b := range doc.Bundles {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", b.ID, b.Name, len(b.ItemIDs), b.Description)
		}
		return w.Flush()
	}),
}

var bundleShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a bundle and the items it references",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		bundle, items, missing, ok := a.Repo.BundleItems(cmd.Context(), args[0])
		if !ok {
			return fmt.Errorf("bundle %s: %w", args[0], domain.ErrBundleNotFound)
		}

		fmt.Printf("%s  %s\n", bundle.ID, bundle.Name)
		if bundle.Description != "" {
			fmt.Println(bundle.Description)
		}
		for _, it := range items {
			fmt.Printf("  - %s  %s (%d in stock)\n", it.ID, it.Name, it.Stock.Total())
		}
		if len(missing) > 0 {
			fmt.Printf("Missing items: %s\n", joinIDs(missing))
		}
		return nil
	}),
}

var bundleDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a bundle; its items are kept",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		if err := a.Repo.DeleteBundle(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete bundle: %w", err)
		}
		fmt.Printf("Bundle deleted: %s\n", args[0])
		return nil
	}),
}

func init() {
	bundleCreateCmd.Flags().StringVarP(&bundleName, "name", "n", "", "Bundle name")
	bundleCreateCmd.Flags().StringVarP(&bundleDescription, "description", "d", "", "Description")
	bundleCreateCmd.Flags().StringSliceVar(&bundleItems, "items", nil, "Comma-separated item ids")

	bundleCmd.AddCommand(bundleCreateCmd, bundleListCmd, bundleShowCmd, bundleDeleteCmd)
	rootCmd.AddCommand(bundleCmd)
}
