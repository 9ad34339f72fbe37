package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"github.com/use-agent/sneakerscope/browser"
	"github.com/use-agent/sneakerscope/config"
	"github.com/use-agent/sneakerscope/logging"
	"github.com/use-agent/sneakerscope/models"
	"github.com/use-agent/sneakerscope/scraper"
	"github.com/use-agent/sneakerscope/sites"
)

var version = "dev"

var (
	brand        string
	limit        int
	query        string
	outputFormat string
	outputFile   string
	fixture      string
	httpMode     bool
	showUI       bool
	proxyURL     string
	quiet        bool
	logLevel     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "sneakerscope-scrape [SITE]",
		Short:   "Scrape sneaker listings from a supported site",
		Version: version,
		Long: `sneakerscope-scrape runs one scrape invocation from the command line and
prints the canonical records. It uses the same pipeline as the HTTP service.`,
		Example: `  # Nike listings as JSON
  sneakerscope-scrape nike

  # Ten results for a custom search, as CSV
  sneakerscope-scrape nike -q "air jordan 1" -n 10 -o jordans.csv

  # Replay a saved search page instead of launching Chrome
  sneakerscope-scrape nike --fixture testdata/amazon.html -f text

  # List the supported sites
  sneakerscope-scrape sites`,
		Args:         cobra.ExactArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&brand, "brand", "b", "", "Only keep sneakers of this brand (case-insensitive)")
	rootCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (default from config, 20)")
	rootCmd.Flags().StringVarP(&query, "query", "q", "", "Search text (defaults to the site's own query)")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format (json, csv, text); inferred from -o when omitted")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	rootCmd.Flags().StringVar(&fixture, "fixture", "", "Serve this HTML file for every navigation instead of fetching")
	rootCmd.Flags().BoolVar(&httpMode, "http", false, "Fetch pages over plain HTTP instead of rendering them")
	rootCmd.Flags().BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "Proxy URL (e.g. http://127.0.0.1:7890)")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Disable the progress spinner")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "sites",
		Short: "List the supported sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range sites.Default().Sites() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", s.Site, s.Kind)
			}
			return nil
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	site := args[0]

	format, err := resolveFormat(outputFormat, outputFile)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg)
	logging.Setup(cfg.Log, os.Stderr)

	launcher, err := newLauncher(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	router := scraper.NewRouter(sites.Default(), launcher, cfg)
	q := models.SearchQuery{ProductText: query, Limit: cfg.Scraper.DefaultLimit, Brand: brand}
	if limit > 0 {
		q.Limit = limit
	}

	spin := newSpinner(fmt.Sprintf(" scraping %s", site))
	sneakers, err := router.Route(ctx, site, q)
	spin.Stop()
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := writeSneakers(out, format, sneakers); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if outputFile != "" {
		fmt.Fprintf(os.Stderr, "%d sneakers written to: %s\n", len(sneakers), outputFile)
	}
	return nil
}

// applyFlags overlays command-line flags on the loaded config.
func applyFlags(cfg *config.Config) {
	cfg.Log.Level = logLevel
	cfg.Log.Format = "pretty"
	if showUI {
		cfg.Browser.Headless = false
	}
	if proxyURL != "" {
		cfg.Browser.Proxy = proxyURL
	}
	if httpMode {
		cfg.Scraper.FetchMode = config.FetchModeHTTP
	}
}

func newLauncher(cfg *config.Config) (browser.Launcher, error) {
	switch {
	case fixture != "":
		l, err := browser.NewFileLauncher(fixture)
		if err != nil {
			return nil, fmt.Errorf("read fixture: %w", err)
		}
		return l, nil
	case cfg.Scraper.FetchMode == config.FetchModeHTTP:
		return browser.NewFetchLauncher(cfg.Browser), nil
	default:
		return browser.NewRodLauncher(cfg.Browser), nil
	}
}

// newSpinner starts a stderr spinner unless --quiet is set. The returned
// spinner is always safe to Stop.
func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = suffix
	if !quiet {
		s.Start()
	}
	return s
}
