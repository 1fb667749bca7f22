package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/weft-dev/weft/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the transformation cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached transformed modules",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := cache.NewStore(viper.GetString("cache_dir"))
		if err != nil {
			return err
		}
		entries, err := store.Entries()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("cache is empty")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "IDENTIFIER\tSIZE\tINPUT HASH")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%d\t%s\n", e.Identifier, e.Size, e.InputHash)
		}
		return w.Flush()
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove all cached transformed modules",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := cache.NewStore(viper.GetString("cache_dir"))
		if err != nil {
			return err
		}
		removed, err := store.Prune()
		if err != nil {
			return err
		}
		fmt.Printf("removed %d cache entries\n", removed)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}
