package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weft-dev/weft/internal/wasmrt"
)

var runCmd = &cobra.Command{
	Use:   "run <identifier> [args...]",
	Short: "Resolve a module and invoke its entry point",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = a.Close(ctx)
		}()

		unit, err := a.loader.Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		wu, ok := unit.(*wasmrt.Unit)
		if !ok {
			return fmt.Errorf("unit %s is not executable", args[0])
		}
		return wu.Run(ctx, args[1:]...)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
