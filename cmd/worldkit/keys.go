package main

import (
	"encoding/hex"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/aretw0/worldkit/pkg/core"
)

var (
	keysType  string
	keysMatch string
	keysHex   bool
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the keys of a world's store",
	Long: `List every key of the store with its content type and display form.
--match filters display keys with a glob pattern (e.g. "player_*").`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if keysMatch != "" && !doublestar.ValidatePattern(keysMatch) {
			return fmt.Errorf("invalid pattern %q", keysMatch)
		}
		ctx := cmd.Context()
		rt, err := newRuntime()
		if err != nil {
			return fmt.Errorf("initializing: %w", err)
		}
		w, err := openWorld(ctx, rt, core.ReadonlyDirect)
		if err != nil {
			return fmt.Errorf("opening world: %w", err)
		}
		defer rt.Manager.CloseAll(ctx)

		c, err := w.Classification(ctx)
		if err != nil {
			return fmt.Errorf("listing keys: %w", err)
		}
		for ct, key := range c.All() {
			if keysType != "" && string(ct) != keysType {
				continue
			}
			display := w.DisplayKey(key)
			if keysMatch != "" {
				if ok, _ := doublestar.Match(keysMatch, display); !ok {
					continue
				}
			}
			if keysHex {
				fmt.Printf("%s\t%s\t%s\n", ct, hex.EncodeToString(key), display)
				continue
			}
			fmt.Printf("%s\t%s\n", ct, display)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.Flags().StringVarP(&keysType, "type", "t", "", "Only list keys of this content type")
	keysCmd.Flags().StringVar(&keysMatch, "match", "", "Glob pattern display keys must match")
	keysCmd.Flags().BoolVar(&keysHex, "hex", false, "Also print raw keys as hex")
}
