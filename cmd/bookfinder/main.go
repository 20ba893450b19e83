package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openshelf/bookdiscovery/internal/conf"
	"github.com/openshelf/bookdiscovery/internal/pkg/logger"
)

const version = "1.0.0"

var (
	cfgFile     string
	verbose     bool
	noAnalytics bool

	cfg *conf.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:     "bookfinder",
	Short:   "Find free, legal copies of books across open libraries",
	Version: version,
	Long: `bookfinder searches Open Library, the Internet Archive and Project
Gutenberg for free, legally available copies of a book, ranks the
results by how well they match your query, and prints download and
read-online links.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = conf.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}

		if err := logger.InitGlobal(&cfg.Log); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		log = logger.L()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&noAnalytics, "no-analytics", false, "disable failed-search reporting")

	rootCmd.AddCommand(searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
