package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/law-makers/immocrawl/internal/config"
	"github.com/law-makers/immocrawl/internal/pipeline"
	"github.com/law-makers/immocrawl/internal/ui"
	"github.com/law-makers/immocrawl/pkg/models"
)

const labelWidth = 10

// printReport writes the end-of-run summary
func printReport(w io.Writer, rep pipeline.Report, cfg *config.Config) {
	fmt.Fprintln(w)

	if rep.Mode == models.ModeDiscover || rep.Mode == models.ModeRun {
		fmt.Fprintln(w, ui.Heading("discovery"))
		fmt.Fprintf(w, "  %s%s (%d new)\n", ui.Label("Links", labelWidth), ui.Bold(fmt.Sprint(rep.Links)), rep.NewLinks)
		fmt.Fprintf(w, "  %s%s\n", ui.Label("Snapshot", labelWidth), cfg.LinksFile)
	}

	if rep.Ingested {
		s := rep.Ingest
		fmt.Fprintln(w, ui.Heading("ingestion"))
		fmt.Fprintf(w, "  %s%s (%s extracted, %s degraded)\n",
			ui.Label("Records", labelWidth),
			ui.Bold(fmt.Sprint(s.Attempted)),
			ui.Success(fmt.Sprint(s.Extracted)),
			degradedCount(s.Degraded))
		fmt.Fprintf(w, "  %s%s\n", ui.Label("Output", labelWidth), cfg.OutputFile)
	}

	fmt.Fprintf(w, "  %s%s in %s\n", ui.Label("Run", labelWidth), rep.RunID, rep.Duration.Round(time.Millisecond))
}

func degradedCount(n int) string {
	if n == 0 {
		return fmt.Sprint(n)
	}
	return ui.Warning(fmt.Sprint(n))
}
