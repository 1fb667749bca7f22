package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Inspect registered instrumentation plugins",
}

var pluginsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the plugins registered from all batches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = a.Close(ctx)
		}()

		plugins := a.registry.Plugins()
		if len(plugins) == 0 {
			fmt.Println("no plugins registered")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVERSION\tTARGETS\tDESCRIPTION")
		for _, p := range plugins {
			targets := strings.Join(p.Descriptor.Targets, ",")
			if p.Descriptor.IsWildcard() {
				targets = "* (all)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				p.Descriptor.Name, p.Descriptor.Version, targets, p.Descriptor.Description)
		}
		return w.Flush()
	},
}

func init() {
	pluginsCmd.AddCommand(pluginsListCmd)
	rootCmd.AddCommand(pluginsCmd)
}
