package db

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/civickb/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// RunRecord is the archived state of a run, keyed by its run ID.
type RunRecord struct {
	RunID        string
	Status       string
	Organization string
	ListingURL   string
	Stages       []string
	Harvested    int
	Enriched     int
	Documents    int
	Validation   string
	Errors       int
	Warnings     int
	Uploaded     int
	UploadFailed int
	Linked       bool
	Error        *string
	StartedAt    time.Time
	CompletedAt  *time.Time
}

// SaveRun creates or updates a run by ID.
// Returns the archived run.
func (c *Client) SaveRun(ctx context.Context, r RunRecord) (*models.CorpusRun, error) {
	stages := r.Stages
	if stages == nil {
		stages = []string{}
	}
	var completed *string
	if r.CompletedAt != nil {
		s := r.CompletedAt.UTC().Format(time.RFC3339Nano)
		completed = &s
	}

	sql := `
		UPSERT type::record("corpus_run", $id) SET
			status = $status,
			organization = $organization,
			listing_url = $listing_url,
			stages = $stages,
			harvested = $harvested,
			enriched = $enriched,
			documents = $documents,
			validation = $validation,
			errors = $errors,
			warnings = $warnings,
			uploaded = $uploaded,
			upload_failed = $upload_failed,
			linked = $linked,
			error = $error,
			started_at = type::datetime($started_at),
			completed_at = IF $completed_at THEN type::datetime($completed_at) ELSE NONE END
		RETURN AFTER
	`

	results, err := surrealdb.Query[[]models.CorpusRun](ctx, c.db, sql, map[string]any{
		"id":            r.RunID,
		"status":        r.Status,
		"organization":  r.Organization,
		"listing_url":   r.ListingURL,
		"stages":        stages,
		"harvested":     r.Harvested,
		"enriched":      r.Enriched,
		"documents":     r.Documents,
		"validation":    r.Validation,
		"errors":        r.Errors,
		"warnings":      r.Warnings,
		"uploaded":      r.Uploaded,
		"upload_failed": r.UploadFailed,
		"linked":        r.Linked,
		"error":         r.Error,
		"started_at":    r.StartedAt.UTC().Format(time.RFC3339Nano),
		"completed_at":  completed,
	})
	if err != nil {
		return nil, fmt.Errorf("save run: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("save run: no result returned")
	}

	return &(*results)[0].Result[0], nil
}

// GetRun retrieves a run by ID.
func (c *Client) GetRun(ctx context.Context, id string) (*models.CorpusRun, error) {
	results, err := surrealdb.Query[[]models.CorpusRun](ctx, c.db, `
		SELECT * FROM type::record("corpus_run", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// ListRuns returns the most recent runs, newest first.
func (c *Client) ListRuns(ctx context.Context, limit int) ([]models.CorpusRun, error) {
	if limit <= 0 {
		limit = 20
	}
	results, err := surrealdb.Query[[]models.CorpusRun](ctx, c.db, `
		SELECT * FROM corpus_run ORDER BY started_at DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.CorpusRun{}, nil
	}
	return (*results)[0].Result, nil
}
