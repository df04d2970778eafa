package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/raphaelgruber/civickb/internal/db"
	"github.com/raphaelgruber/civickb/internal/service"
	"github.com/spf13/cobra"
)

var (
	runURL      string
	runNoUpload bool
	runClean    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole pipeline",
	Long: `Run harvest, save, render, validate, upload and link in sequence.
The first failing stage stops the run and the command exits with
status 1.

When SURREALDB_URL is set, the run is archived and can be listed with
'civickb history'.

Examples:
  civickb run
  civickb run --no-upload --clean`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVar(&runURL, "url", "", "listing page (default: profile listing URL)")
	runCmd.Flags().BoolVar(&runNoUpload, "no-upload", false, "stop after validation")
	runCmd.Flags().BoolVar(&runClean, "clean", false, "remove existing .md files before rendering")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	h, err := newHarvestService()
	if err != nil {
		return err
	}

	var publish *service.PublishService
	if !runNoUpload {
		publish = newPublishService()
	}

	var archive service.Archiver
	if cfg.ArchiveEnabled() {
		dbClient, err := db.Open(ctx, db.ConfigFrom(cfg), logger)
		if err != nil {
			logger.Warn("run archive unavailable", "error", err)
		} else {
			archive = dbClient
			defer func() {
				if err := dbClient.Close(context.WithoutCancel(ctx)); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()
		}
	}

	pipeline := service.NewPipeline(h, newDocumentRenderer(), publish, newStateStore(), archive, collector, logger)
	url := listingURL(runURL)
	run := service.NewRun(cfg.Profile.Organization.Name, url)
	opts := service.PipelineOptions{
		ListingURL: url,
		CorpusFile: cfg.CorpusFile,
		KBDir:      cfg.KBDir,
		Clean:      runClean,
		Publish:    !runNoUpload,
	}

	err = runWithProgress(ctx, "Run "+run.ID, func(ctx context.Context, progress service.ProgressFunc) error {
		return pipeline.Run(ctx, run, opts, progress)
	})

	snap := run.Snapshot()
	printRun(&snap)
	return err
}

func printRun(r *service.Run) {
	fmt.Printf("\nRun %s (%s)\n", r.ID, r.Organization)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "  STAGE\tSTATUS\tDURATION\tDETAIL")
	for _, s := range r.Stages {
		_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", s.Stage, s.Status, s.Duration.Round(10*time.Millisecond), s.Detail)
	}
	_ = w.Flush()

	fmt.Printf("\n  Services:   %d harvested, %d enriched, %d detail failures\n", r.Harvested, r.Enriched, r.DetailFailures)
	fmt.Printf("  Documents:  %d (%d collisions)\n", r.Documents, r.Collisions)
	if r.Validation != "" {
		fmt.Printf("  Validation: %s (%d errors, %d warnings)\n", r.Validation, r.Errors, r.Warnings)
	}
	if len(r.FileIDs) > 0 || r.UploadFailed > 0 {
		fmt.Printf("  Uploaded:   %d (%d failed)\n", len(r.FileIDs), r.UploadFailed)
	}
	if r.Linked {
		fmt.Println("  Assistant:  linked")
	}
}
