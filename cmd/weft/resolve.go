package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weft-dev/weft/internal/wasmrt"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <identifier>",
	Short: "Resolve a module without running it",
	Long: `Resolve fetches the named module, applies any registered
instrumentation routines (or reuses the cached result), and compiles it,
printing what was materialized.`,
	Args: cobra.ExactArgs(1),
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

		if wu, ok := unit.(*wasmrt.Unit); ok {
			fmt.Printf("%s\t%d bytes\tsha256:%s\n", wu.Identifier(), wu.Size(), wu.Digest())
		} else {
			fmt.Println(unit.Identifier())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
