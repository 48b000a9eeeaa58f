// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	log "github.com/cihub/seelog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/find-my-books/internal/availability"
	"github.com/pdiddy/find-my-books/internal/catalog"
	"github.com/pdiddy/find-my-books/internal/logging"
	"github.com/pdiddy/find-my-books/internal/readinglist"
	"github.com/pdiddy/find-my-books/internal/resultstore"
	"github.com/pdiddy/find-my-books/pkg/types"
)

const defaultTimeout = 30 * time.Second

var checkCmd = &cobra.Command{
	Use:   "check <goodreads_library.csv>",
	Short: "Search libraries for the books on the to-read shelf",
	Long: `Check loads the Goodreads export, keeps the to-read books, and queries
every configured library for each of them, one request at a time. The
output has the title and author of each book plus one column per library
holding the search URL when the book was found, or an empty cell.

Failed requests are logged and leave the cell empty; the run continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringP("output", "o", "", "output file (default: <input>_output.<format>)")
	checkCmd.Flags().String("libraries", "", "library catalog file, YAML or JSON (default: built-in catalog)")
	checkCmd.Flags().String("format", "csv", "output format: csv, json, yaml, or sqlite")
	checkCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	checkCmd.Flags().Duration("delay", 0, "minimum delay between consecutive requests")
	checkCmd.Flags().String("shelf", "", "shelf value selecting unread books (default \"to-read\")")

	for _, name := range []string{"libraries", "format", "timeout", "delay"} {
		viper.BindPFlag(name, checkCmd.Flags().Lookup(name))
	}
	viper.BindPFlag("loader.unread_shelf", checkCmd.Flags().Lookup("shelf"))

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := runConfig(cmd, args[0])
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fetcher := availability.NewHTTPFetcher(cfg.Check.HTTPConfig)
	return executeCheck(ctx, cfg, fetcher, os.Stdout, logger)
}

// runConfig assembles the run configuration from flags, the config file,
// and the environment, in viper's precedence order.
func runConfig(cmd *cobra.Command, input string) (types.RunConfig, error) {
	format := types.OutputFormat(viper.GetString("format"))
	switch format {
	case "":
		format = types.OutputCSV
	case types.OutputCSV, types.OutputJSON, types.OutputYAML, types.OutputSQLite:
	default:
		return types.RunConfig{}, fmt.Errorf("unsupported format %q: use csv, json, yaml, or sqlite", format)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = readinglist.DefaultOutputPath(input, format)
	}

	timeout := viper.GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return types.RunConfig{
		InputPath:     input,
		OutputPath:    output,
		LibrariesPath: viper.GetString("libraries"),
		Format:        format,
		Debug:         viper.GetBool("debug"),
		Loader: types.LoaderConfig{
			TitleColumn:  viper.GetString("loader.title_column"),
			AuthorColumn: viper.GetString("loader.author_column"),
			ShelfColumn:  viper.GetString("loader.shelf_column"),
			UnreadShelf:  viper.GetString("loader.unread_shelf"),
		}.WithDefaults(),
		Check: types.CheckConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout: timeout,
				Headers: viper.GetStringMapString("headers"),
			},
			RequestDelay: viper.GetDuration("delay"),
		},
	}, nil
}

// executeCheck runs one check end to end. Setup errors (input, catalog) are
// returned before any request is made.
func executeCheck(ctx context.Context, cfg types.RunConfig, fetcher availability.Fetcher, w io.Writer, logger log.LoggerInterface) error {
	fmt.Fprintf(w, "find-my-books %s\n", version)
	fmt.Fprintf(w, "  Goodreads library file path: %s\n", cfg.InputPath)
	fmt.Fprintf(w, "  Output file path: %s\n", cfg.OutputPath)

	books, err := readinglist.Load(cfg.InputPath, cfg.Loader)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "  Found %d books in %s shelf.\n", len(books), cfg.Loader.UnreadShelf)

	libs, err := loadCatalog(cfg.LibrariesPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "  Found %d supported libraries.\n\n", len(libs))

	checker := availability.NewChecker(fetcher, cfg.Check, logger)
	if _, err := checker.CheckAll(ctx, books, libs, w); err != nil {
		return fmt.Errorf("library search interrupted: %w", err)
	}

	if cfg.Format == types.OutputSQLite {
		return saveToStore(ctx, cfg, books, libs, w)
	}
	if err := readinglist.WriteFile(cfg.OutputPath, cfg.Format, books, libs); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.OutputPath, err)
	}
	fmt.Fprintf(w, "Results written to output file %s\n", cfg.OutputPath)
	return nil
}

func loadCatalog(path string) ([]types.LibraryDefinition, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}

func saveToStore(ctx context.Context, cfg types.RunConfig, books []types.BookEntry, libs []types.LibraryDefinition, w io.Writer) error {
	store, err := resultstore.Open(cfg.OutputPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runID, err := store.SaveRun(ctx, cfg.InputPath, books, libs)
	if err != nil {
		return err
	}
	counts, err := store.Availability(ctx, runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Results stored in %s (run %s)\n", cfg.OutputPath, runID)
	for _, l := range libs {
		fmt.Fprintf(w, "  %-30s %d/%d\n", l.Name, counts[l.Name], len(books))
	}
	return nil
}
