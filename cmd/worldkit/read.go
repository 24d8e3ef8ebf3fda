package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/session"
)

var (
	readFile   string
	readHex    bool
	readAs     string
	readBinary bool
	readJSON   bool
)

var readCmd = &cobra.Command{
	Use:   "read [key]",
	Short: "Read an entry",
	Long: `Read an entry by key, or a file of the world with --file. The value is
printed in the view data type of the config (UTF-8 by default) or --as.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := parseTarget(args, readFile, readHex)
		if err != nil {
			return err
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

		id, err := w.OpenEntry(target)
		if err != nil {
			return fmt.Errorf("opening entry: %w", err)
		}
		v, err := w.LoadEntry(ctx, id, session.LoadOptions{Binary: readBinary})
		if err != nil {
			return fmt.Errorf("reading entry: %w", err)
		}

		dt := core.DataType(rt.Config.View.DataType)
		if readAs != "" {
			dt = core.DataType(readAs)
		}
		if dt == core.DataNBT || dt == core.DataNBTCompound {
			// Trees print as SNBT.
			dt = core.DataUTF8
		}
		if v, err = w.ViewEntry(id, dt); err != nil {
			return fmt.Errorf("converting entry: %w", err)
		}

		if readJSON {
			info, _ := w.Entry(id)
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			err := encoder.Encode(map[string]any{
				"key":         info.DisplayKey,
				"contentType": info.ContentType,
				"format":      v.Format.String(),
				"dataType":    v.Type,
				"value":       printable(v),
			})
			if err != nil {
				return fmt.Errorf("encoding JSON: %w", err)
			}
			return nil
		}

		switch {
		case v.Type.IsText():
			fmt.Println(v.Text)
		case v.Type == core.DataInt:
			fmt.Println(v.Int.String())
		default:
			os.Stdout.Write(v.Bytes)
		}
		return nil
	},
}

func printable(v core.Value) any {
	switch {
	case v.Type.IsText():
		return v.Text
	case v.Type == core.DataInt:
		return v.Int.String()
	}
	return v.Bytes
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().StringVarP(&readFile, "file", "f", "", "Read a file relative to the world root instead of a key")
	readCmd.Flags().BoolVar(&readHex, "hex", false, "The key is hex encoded")
	readCmd.Flags().StringVar(&readAs, "as", "", "Data type to print: JSON, ASCII, UTF-8, hex, binaryPlainText, int, binary")
	readCmd.Flags().BoolVar(&readBinary, "binary", false, "Load raw bytes without decoding")
	readCmd.Flags().BoolVar(&readJSON, "json", false, "Output in JSON format")
}
