package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openshelf/bookdiscovery/internal/analytics"
	"github.com/openshelf/bookdiscovery/internal/search/engine"
	"github.com/openshelf/bookdiscovery/internal/search/source"
	"github.com/openshelf/bookdiscovery/internal/search/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for a book by title, author, or keyword",
	Example: `  bookfinder search "dune"
  bookfinder search "the art of war sun tzu"
  bookfinder search "brief history of time, hawking"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := source.NewFactory()

	openLibrary, err := factory.Create(cfg.SourceConfig(types.SourceOpenLibrary), log)
	if err != nil {
		return fmt.Errorf("openlibrary: %w", err)
	}
	archive, err := factory.Create(cfg.SourceConfig(types.SourceInternetArchive), log)
	if err != nil {
		return fmt.Errorf("internetarchive: %w", err)
	}
	gutenberg, err := factory.Create(cfg.SourceConfig(types.SourceGutenberg), log)
	if err != nil {
		return fmt.Errorf("gutenberg: %w", err)
	}

	// Open Library doubles as the metadata catalog.
	metadata, ok := openLibrary.(*source.OpenLibrarySource)
	if !ok {
		return fmt.Errorf("openlibrary source does not provide metadata lookup")
	}

	eng := engine.New(&cfg.Search, metadata, openLibrary, []source.Source{archive, gutenberg}, log)

	var tracker *analytics.Tracker
	if !noAnalytics {
		tracker = analytics.NewTracker(&cfg.Analytics, analytics.DefaultClientInfo(version), log)
		eng.SetFailureTracker(tracker)
		tracker.ScheduleRetry(ctx)
	}

	err = eng.Search(ctx, query, newConsolePresenter(os.Stdout, os.Stderr))

	if tracker != nil {
		tracker.Flush()
	}
	return err
}
