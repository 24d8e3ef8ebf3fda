package main

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/session"
)

var (
	writeFile  string
	writeHex   bool
	writeAs    string
	writeInput string
	writeCreate bool
)

var writeCmd = &cobra.Command{
	Use:   "write [key]",
	Short: "Write an entry",
	Long: `Write an entry by key, or a file of the world with --file. The new value is
read from stdin (or --input) as the data type given by --as and saved in the
entry's native format. Worlds are edited in copy-until-save mode unless
--mode says otherwise.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := parseTarget(args, writeFile, writeHex)
		if err != nil {
			return err
		}
		input, err := readInput(writeInput)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		ctx := cmd.Context()
		rt, err := newRuntime()
		if err != nil {
			return fmt.Errorf("initializing: %w", err)
		}
		w, err := openWorld(ctx, rt, core.CopyUntilSave)
		if err != nil {
			return fmt.Errorf("opening world: %w", err)
		}
		defer rt.Manager.CloseAll(ctx)

		id, err := w.OpenEntry(target)
		if err != nil {
			return fmt.Errorf("opening entry: %w", err)
		}
		v, err := w.LoadEntry(ctx, id, session.LoadOptions{})
		switch {
		case err == nil:
		case errors.Is(err, core.ErrEntryNotFound) && writeCreate:
			info, _ := w.Entry(id)
			v = core.Value{Format: w.Format(info.ContentType)}
		default:
			return fmt.Errorf("reading entry: %w", err)
		}

		next, err := parseValue(input, core.DataType(writeAs), v.Format)
		if err != nil {
			return fmt.Errorf("parsing value: %w", err)
		}
		if err := w.SetValue(id, next); err != nil {
			return fmt.Errorf("setting value: %w", err)
		}
		if err := w.Save(ctx, session.SaveOptions{}); err != nil {
			return fmt.Errorf("saving: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved %s\n", target)
		return nil
	},
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// parseValue builds the value to save from the raw input.
func parseValue(input []byte, dt core.DataType, desc core.FormatDescriptor) (core.Value, error) {
	v := core.Value{Type: dt, Format: desc}
	switch {
	case dt.IsText():
		v.Text = strings.TrimRight(string(input), "\r\n")
	case dt == core.DataInt:
		n, ok := new(big.Int).SetString(strings.TrimSpace(string(input)), 0)
		if !ok {
			return core.Value{}, fmt.Errorf("%w: not an integer", core.ErrInvalidValue)
		}
		v.Int = n
	case dt == core.DataBinary:
		v.Bytes = input
	default:
		return core.Value{}, fmt.Errorf("%w: cannot write %q input", core.ErrInvalidValue, dt)
	}
	return v, nil
}

func init() {
	rootCmd.AddCommand(writeCmd)
	writeCmd.Flags().StringVarP(&writeFile, "file", "f", "", "Write a file relative to the world root instead of a key")
	writeCmd.Flags().BoolVar(&writeHex, "hex", false, "The key is hex encoded")
	writeCmd.Flags().StringVar(&writeAs, "as", string(core.DataUTF8), "Data type of the input: JSON, ASCII, UTF-8, hex, binaryPlainText, int, binary")
	writeCmd.Flags().StringVarP(&writeInput, "input", "i", "", "Read the value from this file instead of stdin")
	writeCmd.Flags().BoolVar(&writeCreate, "create", false, "Create the entry when it does not exist")
}
