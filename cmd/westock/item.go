package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rl1809/westock/internal/app"
	"github.com/rl1809/westock/internal/core/domain"
)

var (
	itemName     string
	itemCategory string
	itemLocation string
	itemNote     string
	itemImage    string
	itemStock    map[string]int
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage inventory items",
}

var itemAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an item",
	Long: `Add an item to the front of the inventory.

When --image is given without --name, the image classifier suggests a name
and category.

Examples:
  westock item add --name "Linen Tee" --category Tops --stock S=2,M=1
  westock item add --image tee.jpg --location "Shelf A"`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		ctx := cmd.Context()

		item := domain.InventoryItem{
			Name:     itemName,
			Category: itemCategory,
			Location: itemLocation,
			Note:     itemNote,
		}
		stock, err := parseStock(itemStock)
		if err != nil {
			return err
		}
		item.Stock = stock

		if itemImage != "" {
			data, err := os.ReadFile(itemImage)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			mimeType := http.DetectContentType(data)
			item.ImageURL = "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)

			if item.Name == "" {
				classifyCtx, cancel := a.RemoteContext(ctx)
				s := a.Classifier.Classify(classifyCtx, data, mimeType)
				cancel()
				item.Name = s.Name
				if item.Category == "" {
					item.Category = s.Category
				}
			}
		}

		created, err := a.Repo.CreateItem(ctx, item)
		if err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}
		fmt.Printf("Item added: %s  %s\n", created.ID, created.Name)
		return nil
	}),
}

var itemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items, newest first",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		ctx := cmd.Context()

		doc := a.Repo.Document(ctx)
		if len(doc.Items) == 0 {
			fmt.Println("No items.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tXS\tS\tM\tL\tOTHER\tLOCATION")
		for _, it := range doc.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
				it.ID, it.Name, it.Category,
				it.Stock.XS, it.Stock.S, it.Stock.M, it.Stock.L, it.Stock.Other,
				it.Location)
		}
		return w.Flush()
	}),
}

var itemGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one item as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		ctx := cmd.Context()

		item, ok := a.Repo.GetItem(ctx, args[0])
		if !ok {
			return fmt.Errorf("item %s: %w", args[0], domain.ErrItemNotFound)
		}
		return printJSON(item)
	}),
}

var itemUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of an item",
	Long: `Change the fields given as flags; everything else is kept.

Examples:
  westock item update 1a2b --stock M=0
  westock item update 1a2b --location "Box 3" --note "needs ironing"`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		ctx := cmd.Context()

		item, ok := a.Repo.GetItem(ctx, args[0])
		if !ok {
			return fmt.Errorf("item %s: %w", args[0], domain.ErrItemNotFound)
		}

		flags := cmd.Flags()
		if flags.Changed("name") {
			item.Name = itemName
		}
		if flags.Changed("category") {
			item.Category = itemCategory
		}
		if flags.Changed("location") {
			item.Location = itemLocation
		}
		if flags.Changed("note") {
			item.Note = itemNote
		}
		if flags.Changed("stock") {
			for key, n := range itemStock {
				size, err := domain.ParseSize(key)
				if err != nil {
					return err
				}
				item.Stock.Set(size, n)
			}
		}

		if err := a.Repo.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
		fmt.Printf("Item updated: %s\n", item.ID)
		return nil
	}),
}

var itemDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an item and remove it from every bundle",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		ctx := cmd.Context()

		if err := a.Repo.DeleteItem(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		fmt.Printf("Item deleted: %s\n", args[0])
		return nil
	}),
}

func init() {
	for _, cmd := range []*cobra.Command{itemAddCmd, itemUpdateCmd} {
		cmd.Flags().StringVarP(&itemName, "name", "n", "", "Item name")
		cmd.Flags().StringVarP(&itemCategory, "category", "c", "", "Category")
		cmd.Flags().StringVarP(&itemLocation, "location", "l", "", "Where the item is kept")
		cmd.Flags().StringVar(&itemNote, "note", "", "Free-form note")
		cmd.Flags().StringToIntVar(&itemStock, "stock", nil, "Stock per size, e.g. S=2,M=1 (sizes: XS,S,M,L,Other)")
	}
	itemAddCmd.Flags().StringVar(&itemImage, "image", "", "Image file to attach")

	itemCmd.AddCommand(itemAddCmd, itemListCmd, itemGetCmd, itemUpdateCmd, itemDeleteCmd)
	rootCmd.AddCommand(itemCmd)
}

func parseStock(raw map[string]int) (domain.Stock, error) {
	var stock domain.Stock
	for key, n := range raw {
		size, err := domain.ParseSize(key)
		if err != nil {
			return domain.Stock{}, err
		}
		stock.Set(size, n)
	}
	return stock, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinIDs(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}
