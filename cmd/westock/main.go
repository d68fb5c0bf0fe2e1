package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rl1809/westock/internal/app"
	"github.com/rl1809/westock/internal/config"
	"github.com/rl1809/westock/internal/core/domain"
)

var user string

var rootCmd = &cobra.Command{
	Use:   "westock",
	Short: "Local-first inventory tracker with cloud mirroring and bundle sharing",
	Long: `westock keeps an inventory of clothing items and bundles in a local store.

When a user is given and a remote backend is configured, every local change is
mirrored to that user's remote copy. Bundles can be shared with anyone as a
WS- token.

Examples:
  westock item add --name "Linen Tee" --category Tops --stock S=2,M=1
  westock bundle create --name Summer --items 1a2b,3c4d
  westock --user alice share export <bundle-id>
  westock share import WS-0123456789abcdef0123
  westock serve`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&user, "user", "u", os.Getenv("WESTOCK_USER"), "Identity to mirror local data to (env WESTOCK_USER)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withApp opens the app for one command, signs --user in if given and closes
// everything, pending pushes included, when fn returns.
func withApp(fn func(cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error {
	return runWithApp(true, fn)
}

// withAttachedApp is withApp without the sign-in pull: --user is bound as is,
// so local data survives until fn decides which side wins.
func withAttachedApp(fn func(cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error {
	return runWithApp(false, fn)
}

func runWithApp(pull bool, fn func(cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := app.NewLogger(cfg.Log)

		ctx := cmd.Context()
		a, err := app.New(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer a.Close()

		if user != "" {
			a.Repo.OnReplaced(func(doc domain.Document) {
				fmt.Fprintf(os.Stderr, "Local data replaced by %s's cloud copy (%d items, %d bundles)\n",
					user, len(doc.Items), len(doc.Bundles))
			})

			if err := bindUser(ctx, a, domain.Identity(user), pull); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: cloud sync failed: %v\n", err)
			}
		}

		return fn(cmd, a, args)
	}
}

func bindUser(ctx context.Context, a *app.App, identity domain.Identity, pull bool) error {
	if !pull {
		a.Sync.Attach(identity)
		return nil
	}

	ctx, cancel := a.RemoteContext(ctx)
	defer cancel()
	return a.Sync.Bind(ctx, identity)
}
