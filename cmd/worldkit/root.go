package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/worldkit"
	"github.com/aretw0/worldkit/internal/platform"
	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/session"
)

var (
	verbose    bool
	configPath string
	worldPath  string
	modeName   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "worldkit",
	Short: "Inspect and edit Minecraft Bedrock world saves",
	Long: `worldkit opens Bedrock worlds, LevelDB stores and loose files, reads and
writes their entries in any supported data type and searches them.
Worlds are opened read-only unless a writable --mode is given.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). Commands return their errors so that the
// worlds they opened are closed, and their staging copies removed, before exit.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fatal("Error", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&worldPath, "world", "w", "", "World, store, directory or file to open (default: the world containing the working directory)")
	rootCmd.PersistentFlags().StringVarP(&modeName, "mode", "m", "", "Access mode: readonly, readonly-direct, direct, copy-until-save, copy")
}

// newRuntime builds the components from the flags.
func newRuntime(extra ...worldkit.Option) (*worldkit.Runtime, error) {
	opts := []worldkit.Option{worldkit.WithLogger(slog.Default())}
	if configPath != "" {
		opts = append(opts, worldkit.WithConfigFile(configPath))
	}
	return worldkit.NewRuntime(append(opts, extra...)...)
}

// openWorld opens the target world. fallback is the mode used when neither
// the flag nor the config names one.
func openWorld(ctx context.Context, rt *worldkit.Runtime, fallback core.AccessMode) (*session.World, error) {
	path := worldPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if path, err = platform.FindRoot(wd); err != nil {
			return nil, err
		}
	}

	mode := fallback
	switch {
	case modeName != "":
		m, err := core.ParseAccessMode(modeName)
		if err != nil {
			return nil, err
		}
		mode = m
	case configPath != "":
		mode = rt.Config.Mode()
	}

	w, err := rt.Manager.Open(ctx, path, mode)
	if err != nil {
		return nil, err
	}
	if err := w.OpenErr(); err != nil {
		slog.Warn("store unavailable", "error", err)
	}
	return w, nil
}

// parseTarget turns command arguments into an entry target: a file relative
// to the world root with --file, otherwise a key, hex encoded with --hex.
func parseTarget(args []string, file string, hexKey bool) (core.EntryTarget, error) {
	if file != "" {
		if len(args) > 0 {
			return core.EntryTarget{}, fmt.Errorf("both a key and --file given")
		}
		return core.FileTarget(file), nil
	}
	if len(args) != 1 {
		return core.EntryTarget{}, fmt.Errorf("expected a key or --file")
	}
	if !hexKey {
		return core.KeyTarget([]byte(args[0])), nil
	}
	key, err := hex.DecodeString(args[0])
	if err != nil {
		return core.EntryTarget{}, fmt.Errorf("invalid hex key: %w", err)
	}
	return core.KeyTarget(key), nil
}
