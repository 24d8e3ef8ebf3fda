package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/worldkit"
	"github.com/aretw0/worldkit/pkg/adapters/lifecycle"
	"github.com/aretw0/worldkit/pkg/core"
)

var (
	watchTypes []string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stage a world and print session events until interrupted",
	Long: `Stage a copy of a world, watch the source for outside changes and print
every session event (SOURCE_CHANGED, MODIFIED_CHANGED, ...) until Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := newRuntime(worldkit.WithWatch(true))
		if err != nil {
			return fmt.Errorf("initializing: %w", err)
		}

		types := make([]core.EventType, len(watchTypes))
		for i, t := range watchTypes {
			types[i] = core.EventType(t)
		}
		src := lifecycle.NewSource(rt.Manager, types...)
		if err := src.Start(ctx); err != nil {
			return fmt.Errorf("watching: %w", err)
		}

		w, err := openWorld(ctx, rt, core.Copy)
		if err != nil {
			return fmt.Errorf("opening world: %w", err)
		}
		defer rt.Manager.CloseAll(context.WithoutCancel(ctx))
		fmt.Fprintf(os.Stderr, "Watching %s (staged at %s)\n", w.Source, w.StagingDir())

		for e := range src.Events() {
			fmt.Println(e.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringSliceVarP(&watchTypes, "type", "t", nil, "Only print events of these types")
}
