package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/raphaelgruber/civickb/internal/db"
	"github.com/raphaelgruber/civickb/internal/models"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List or inspect archived pipeline runs",
	Long: `List the pipeline runs archived in SurrealDB or inspect one run by ID.
Requires SURREALDB_URL.

Examples:
  civickb history            # List recent runs
  civickb history 1a2b3c4d   # Show details for run 1a2b3c4d`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "max runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if !cfg.ArchiveEnabled() {
		return errors.New("run archive disabled: set SURREALDB_URL")
	}
	ctx := cmd.Context()

	dbClient, err := db.Open(ctx, db.ConfigFrom(cfg), logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(context.WithoutCancel(ctx)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	if len(args) == 1 {
		return showRun(ctx, dbClient, args[0])
	}
	return listRuns(ctx, dbClient)
}

func listRuns(ctx context.Context, c *db.Client) error {
	runs, err := c.ListRuns(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	fmt.Printf("%-10s %-10s %-19s %-18s %-8s %s\n", "ID", "STATUS", "STARTED", "VALIDATION", "DOCS", "UPLOADED")
	fmt.Println("--------------------------------------------------------------------------------")

	for _, r := range runs {
		fmt.Printf("%-10s %-10s %-19s %-18s %-8d %d\n",
			runID(r), r.Status, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			orDefault(r.Validation, "-"), r.Documents, r.Uploaded)
	}

	return nil
}

func showRun(ctx context.Context, c *db.Client, id string) error {
	r, err := c.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	fmt.Printf("Run: %s\n", runID(*r))
	fmt.Printf("  Status: %s\n", r.Status)
	fmt.Printf("  Organization: %s\n", r.Organization)
	fmt.Printf("  Listing: %s\n", r.ListingURL)
	fmt.Printf("  Started: %s\n", r.StartedAt.Format(time.RFC3339))
	if r.CompletedAt != nil {
		fmt.Printf("  Completed: %s\n", r.CompletedAt.Format(time.RFC3339))
		fmt.Printf("  Duration: %s\n", r.CompletedAt.Sub(r.StartedAt).Round(time.Second))
	}
	if len(r.Stages) > 0 {
		fmt.Printf("  Stages: %s\n", strings.Join(r.Stages, ", "))
	}
	fmt.Printf("  Harvested: %d (%d enriched)\n", r.Harvested, r.Enriched)
	fmt.Printf("  Documents: %d\n", r.Documents)
	if r.Validation != "" {
		fmt.Printf("  Validation: %s (%d errors, %d warnings)\n", r.Validation, r.Errors, r.Warnings)
	}
	fmt.Printf("  Uploaded: %d (%d failed)\n", r.Uploaded, r.UploadFailed)
	fmt.Printf("  Linked: %t\n", r.Linked)

	if r.Error != nil && *r.Error != "" {
		fmt.Printf("  Error: %s\n", *r.Error)
	}
	return nil
}

// runID returns the record key of an archived run.
func runID(r models.CorpusRun) string {
	if id, ok := r.ID.ID.(string); ok {
		return id
	}
	return fmt.Sprint(r.ID.ID)
}
