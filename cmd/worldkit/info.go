package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/worldkit/pkg/core"
)

var (
	infoJSON bool
)

type infoOutput struct {
	Source     string                   `json:"source"`
	Kind       string                   `json:"kind"`
	Name       string                   `json:"name,omitempty"`
	LastPlayed time.Time                `json:"lastPlayed,omitzero"`
	Seed       int64                    `json:"seed,omitempty"`
	GameType   int                      `json:"gameType"`
	Spawn      [3]int                   `json:"spawn"`
	Keys       map[core.ContentType]int `json:"keys,omitempty"`
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show a world's level.dat summary and key counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		out := infoOutput{Source: w.Source, Kind: w.Kind.String()}
		info, err := w.Info(ctx)
		switch {
		case err == nil:
			out.Name = info.Name
			out.LastPlayed = info.LastPlayed
			out.Seed = info.Seed
			out.GameType = info.GameType
			out.Spawn = info.Spawn
		case !errors.Is(err, core.ErrEntryNotFound):
			return fmt.Errorf("reading level.dat: %w", err)
		}
		if w.Kind.HasStore() {
			c, err := w.Classification(ctx)
			if err != nil {
				return fmt.Errorf("listing keys: %w", err)
			}
			out.Keys = c.Counts()
		}

		if infoJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(out); err != nil {
				return fmt.Errorf("encoding JSON: %w", err)
			}
			return nil
		}

		fmt.Printf("%s (%s)\n", out.Source, out.Kind)
		if out.Name != "" {
			fmt.Printf("  name:        %s\n", out.Name)
			fmt.Printf("  last played: %s\n", out.LastPlayed.Format(time.RFC3339))
			fmt.Printf("  seed:        %d\n", out.Seed)
			fmt.Printf("  game type:   %d\n", out.GameType)
			fmt.Printf("  spawn:       %d %d %d\n", out.Spawn[0], out.Spawn[1], out.Spawn[2])
		}
		for _, ct := range slices.Sorted(maps.Keys(out.Keys)) {
			fmt.Printf("  %-24s %d\n", ct, out.Keys[ct])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Output in JSON format")
}
