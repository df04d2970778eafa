package cli

import (
	"fmt"

	"github.com/raphaelgruber/civickb/internal/metrics"
	"github.com/raphaelgruber/civickb/internal/render"
	"github.com/raphaelgruber/civickb/internal/service"
	"github.com/spf13/cobra"
)

var (
	renderOut   string
	renderClean bool
)

var renderCmd = &cobra.Command{
	Use:   "render [corpus]",
	Short: "Render one knowledge document per service",
	Long: `Render every record of a corpus file into a Markdown document named
after the service's slug.

Records whose names share a slug are reported; the later record's
document replaces the earlier one.

Examples:
  civickb render
  civickb render corpus.json --out kb/
  civickb render --clean`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output directory (default: $CIVICKB_KB_DIR)")
	renderCmd.Flags().BoolVar(&renderClean, "clean", false, "remove existing .md files first")
}

func runRender(cmd *cobra.Command, args []string) error {
	corpus := cfg.CorpusFile
	if len(args) == 1 {
		corpus = args[0]
	}
	out := orDefault(renderOut, cfg.KBDir)

	records, err := service.LoadRecords(corpus)
	if err != nil {
		return err
	}

	var res *render.WriteResult
	err = collector.Time(metrics.OpRenderDocs, func() error {
		var err error
		res, err = newDocumentRenderer().WriteAll(out, records, render.WriteOptions{Clean: renderClean}, logger)
		return err
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if res.Removed > 0 {
		fmt.Printf("Removed %d existing documents\n", res.Removed)
	}
	fmt.Printf("Rendered %d documents to %s\n", len(res.Files), out)
	if res.Skipped > 0 {
		fmt.Printf("  Skipped: %d (empty slug)\n", res.Skipped)
	}
	for _, c := range res.Collisions {
		fmt.Println(collisionLine(c))
	}
	return nil
}

// collisionLine describes a collision with 1-based record numbers, as the
// validation report does.
func collisionLine(c render.Collision) string {
	return fmt.Sprintf("  Collision: records %d and %d share %s.md", c.First+1, c.Second+1, c.Slug)
}
