package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/civickb/internal/models"
	"github.com/raphaelgruber/civickb/internal/service"
	"github.com/spf13/cobra"
)

var (
	harvestURL string
	harvestOut string
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest services from the listing page into a corpus file",
	Long: `Render the listing page, extract one candidate record per service block,
enrich the first records from their detail pages and add the canonical
Q&A pairs. The corpus is written as a JSON array.

A listing page whose content never appears within the listing timeout
aborts the harvest with no output. Failing detail pages only leave the
affected record on its defaults.

Examples:
  civickb harvest
  civickb harvest --url https://www.comune.example.it/servizi -o corpus.json
  CIVICKB_RENDERER=http civickb harvest`,
	Args: cobra.NoArgs,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().StringVar(&harvestURL, "url", "", "listing page (default: profile listing URL)")
	harvestCmd.Flags().StringVarP(&harvestOut, "output", "o", "", "corpus file (default: $CIVICKB_CORPUS_FILE)")
}

func runHarvest(cmd *cobra.Command, args []string) error {
	svc, err := newHarvestService()
	if err != nil {
		return err
	}
	url := listingURL(harvestURL)
	out := orDefault(harvestOut, cfg.CorpusFile)

	var res *service.HarvestResult
	err = runWithProgress(cmd.Context(), "Harvest", func(ctx context.Context, progress service.ProgressFunc) error {
		var err error
		res, err = svc.Harvest(ctx, url, progress)
		return err
	})
	if err != nil {
		return fmt.Errorf("harvest: %w", err)
	}

	if err := models.SaveCorpus(out, res.Records); err != nil {
		return err
	}

	fmt.Printf("Harvested %d services from %s\n", len(res.Records), url)
	fmt.Printf("  Elements examined: %d\n", res.Stats.Examined)
	fmt.Printf("  Accepted:          %d\n", res.Stats.Accepted)
	fmt.Printf("  Rejected:          %d\n", res.Stats.Rejected)
	fmt.Printf("  Errored:           %d\n", res.Stats.Errored)
	fmt.Printf("  Detail pages:      %d enriched, %d failed\n", res.Enriched, res.DetailFailures)
	fmt.Printf("Corpus saved to %s\n", out)
	return nil
}
