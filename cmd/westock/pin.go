package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rl1809/westock/internal/app"
	"github.com/rl1809/westock/internal/core/service"
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage the app-lock PIN",
}

var pinSetCmd = &cobra.Command{
	Use:   "set <pin>",
	Short: "Set or replace the PIN",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		if err := a.Lock.SetPIN(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("PIN set")
		return nil
	}),
}

var pinCheckCmd = &cobra.Command{
	Use:   "check <pin>",
	Short: "Check a PIN; exits non-zero when it does not match",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		ok, err := a.Lock.CheckPIN(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return service.ErrWrongPIN
		}
		fmt.Println("Unlocked")
		return nil
	}),
}

var pinRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the PIN",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		if err := a.Lock.RemovePIN(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("PIN removed")
		return nil
	}),
}

func init() {
	pinCmd.AddCommand(pinSetCmd, pinCheckCmd, pinRemoveCmd)
	rootCmd.AddCommand(pinCmd)
}
