package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/worldkit/pkg/core"
	"github.com/aretw0/worldkit/pkg/search"
)

var (
	searchQuery        string
	searchPlaceholders bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query.yaml]",
	Short: "Search the entries of a world",
	Long: `Search the entries of a world's store with a YAML query:

  contentTypes:
    include: [Player]
  displayKey:
    anyOf: [steve]
  nbt:
    allOf:
      - path: ["*?", "Health"]
        type: short

The query is read from the given file, from --query, or from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		switch {
		case searchQuery != "":
			data = []byte(searchQuery)
		case len(args) == 1:
			data, err = os.ReadFile(args[0])
		default:
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return fmt.Errorf("reading query: %w", err)
		}
		q, err := decodeQuery(data)
		if err != nil {
			return fmt.Errorf("parsing query: %w", err)
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

		opts := rt.SearchOptions()
		if searchPlaceholders {
			opts = append(opts, search.WithPlaceholders())
		}
		n := 0
		for res, err := range rt.Search.Search(ctx, w, q, opts...) {
			if err != nil {
				if res.Key == nil {
					// Not tied to a candidate: the search has ended.
					return fmt.Errorf("searching: %w", err)
				}
				fmt.Fprintf(os.Stderr, "skipped %s: %v\n", res.DisplayKey, err)
				continue
			}
			if !res.Matched {
				fmt.Printf("-\t%s\t%s\n", res.ContentType, res.DisplayKey)
				continue
			}
			n++
			fmt.Printf("%s\t%s\n", res.ContentType, res.DisplayKey)
		}
		fmt.Fprintf(os.Stderr, "%d matches\n", n)
		return nil
	},
}

// decodeQuery parses a YAML query, rejecting unknown keys. An empty document
// is the match-all query.
func decodeQuery(data []byte) (search.Query, error) {
	var q search.Query
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&q); err != nil && !errors.Is(err, io.EOF) {
		return search.Query{}, err
	}
	return q, nil
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Inline YAML query")
	searchCmd.Flags().BoolVar(&searchPlaceholders, "placeholders", false, "Also print candidates that did not match")
}
