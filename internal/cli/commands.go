package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/law-makers/immocrawl/internal/app"
	"github.com/law-makers/immocrawl/internal/config"
	"github.com/law-makers/immocrawl/pkg/models"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Collect listing links from the paginated index",
	Long: `Visit index pages 1..max-pages and merge every listing link found into the
link snapshot. The snapshot is rewritten, sorted, after every page.

Pagination stops early once a page past the warm-up count yields no new link.
Links already in the snapshot are kept and count as known unless --fresh is
given, so a run after a complete crawl stops at the first page past warm-up
(page 6 by default) when the index has not changed. Use --fresh to walk every
page again.`,
	Example: `# Discover with the defaults (Rabat, 37 pages)
immocrawl discover

# Another city, fewer pages, starting from an empty set
immocrawl discover --base-url https://www.mubawab.ma/fr/ct/casablanca/immobilier-a-vendre -p 10 --fresh`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd, models.ModeDiscover)
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Extract records for every link in the snapshot",
	Long: `Fetch every listing in the link snapshot and append one record per link to
the output CSV. A listing that cannot be fetched or parsed still gets a row
with every field set to N/A.`,
	Example: `# Ingest with two concurrent fetchers, binary amenity flags
immocrawl ingest -w 2 --amenities binary

# Also insert records into Postgres
immocrawl ingest --pg-dsn postgres://scraper@localhost:5432/immo`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd, models.ModeIngest)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Discover links, then ingest them",
	Long: `Run discovery and feed the resulting link set straight into ingestion.
An interrupted discovery does not start ingestion.`,
	Example: `immocrawl run -o data/rabat.csv --links-file data/rabat_links.csv`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd, models.ModeRun)
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd, ingestCmd, runCmd)
}

// runMode loads the configuration, builds the application and runs one
// pipeline mode, printing a summary unless quiet
func runMode(cmd *cobra.Command, mode models.Mode) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Close(ctx)
	}()

	var progress *progressDisplay
	if showProgress(cfg) {
		progress = newProgressDisplay(cmd.ErrOrStderr(), cfg.MaxPages)
		a.Progress = progress
	}

	rep, runErr := a.Run(cmd.Context(), mode)

	if progress != nil {
		progress.Close()
	}
	if cfg.LogLevel != "error" {
		printReport(cmd.OutOrStdout(), rep, cfg)
	}
	return runErr
}

// showProgress reports whether bars should be drawn: only at the default
// warn level with console logs, so log lines do not break the bars
func showProgress(cfg *config.Config) bool {
	return !cfg.JSONLog && cfg.LogLevel == "warn"
}
