// Package service wires the pipeline stages together for the CLI.
package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/civickb/internal/db"
	"github.com/raphaelgruber/civickb/internal/models"
	"github.com/raphaelgruber/civickb/internal/validate"
)

// Stage names a pipeline stage.
type Stage string

const (
	StageHarvest  Stage = "harvest"
	StageSave     Stage = "save"
	StageRender   Stage = "render"
	StageValidate Stage = "validate"
	StageUpload   Stage = "upload"
	StageLink     Stage = "link"
)

// StageStatus is the outcome of a stage.
type StageStatus string

const (
	StageOK      StageStatus = "ok"
	StageSkipped StageStatus = "skipped"
	StageFailed  StageStatus = "failed"
)

// StageResult records one finished stage.
type StageResult struct {
	Stage    Stage
	Status   StageStatus
	Detail   string
	Duration time.Duration
}

// Archiver persists run snapshots. *db.Client satisfies it.
type Archiver interface {
	SaveRun(ctx context.Context, r db.RunRecord) (*models.CorpusRun, error)
}

// Run is the explicit state of one corpus run. It is owned by the pipeline
// goroutine; the mutex only guards readers such as the progress view.
type Run struct {
	ID           string
	Organization string
	ListingURL   string
	StartedAt    time.Time
	CompletedAt  *time.Time

	Stages         []StageResult
	Harvested      int
	Enriched       int
	DetailFailures int
	Documents      int
	Collisions     int
	Validation     validate.Status
	Errors         int
	Warnings       int
	FileIDs        []string
	UploadFailed   int
	Linked         bool
	Err            string

	mu sync.RWMutex
}

// NewRun starts a run context.
func NewRun(organization, listingURL string) *Run {
	return &Run{
		ID:           uuid.New().String()[:8],
		Organization: organization,
		ListingURL:   listingURL,
		StartedAt:    time.Now(),
	}
}

// Update mutates the run under its lock.
func (r *Run) Update(fn func(*Run)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r)
}

// Record appends a stage result.
func (r *Run) Record(stage Stage, status StageStatus, detail string, d time.Duration) {
	r.Update(func(r *Run) {
		r.Stages = append(r.Stages, StageResult{Stage: stage, Status: status, Detail: detail, Duration: d})
	})
	slog.Debug("stage finished", "run", r.ID, "stage", stage, "status", status, "detail", detail, "duration", d)
}

// Finish marks the run complete, failed if err is non-nil.
func (r *Run) Finish(err error) {
	r.Update(func(r *Run) {
		now := time.Now()
		r.CompletedAt = &now
		if err != nil {
			r.Err = err.Error()
		}
	})
}

// Failed reports whether any stage failed or the run ended with an error.
func (r *Run) Failed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != "" {
		return true
	}
	return slices.ContainsFunc(r.Stages, func(s StageResult) bool { return s.Status == StageFailed })
}

// Snapshot returns a copy safe to read while the run continues.
func (r *Run) Snapshot() Run {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Run{
		ID:             r.ID,
		Organization:   r.Organization,
		ListingURL:     r.ListingURL,
		StartedAt:      r.StartedAt,
		CompletedAt:    r.CompletedAt,
		Stages:         slices.Clone(r.Stages),
		Harvested:      r.Harvested,
		Enriched:       r.Enriched,
		DetailFailures: r.DetailFailures,
		Documents:      r.Documents,
		Collisions:     r.Collisions,
		Validation:     r.Validation,
		Errors:         r.Errors,
		Warnings:       r.Warnings,
		FileIDs:        slices.Clone(r.FileIDs),
		UploadFailed:   r.UploadFailed,
		Linked:         r.Linked,
		Err:            r.Err,
	}
}

// ArchiveRecord converts the run into its archived form.
func (r *Run) ArchiveRecord() db.RunRecord {
	s := r.Snapshot()
	status := models.RunStatusRunning
	switch {
	case s.CompletedAt == nil:
	case r.Failed():
		status = models.RunStatusFailed
	default:
		status = models.RunStatusSucceeded
	}

	stages := make([]string, 0, len(s.Stages))
	for _, st := range s.Stages {
		stages = append(stages, string(st.Stage)+":"+string(st.Status))
	}

	rec := db.RunRecord{
		RunID:        s.ID,
		Status:       status,
		Organization: s.Organization,
		ListingURL:   s.ListingURL,
		Stages:       stages,
		Harvested:    s.Harvested,
		Enriched:     s.Enriched,
		Documents:    s.Documents,
		Validation:   string(s.Validation),
		Errors:       s.Errors,
		Warnings:     s.Warnings,
		Uploaded:     len(s.FileIDs),
		UploadFailed: s.UploadFailed,
		Linked:       s.Linked,
		StartedAt:    s.StartedAt,
		CompletedAt:  s.CompletedAt,
	}
	if s.Err != "" {
		rec.Error = &s.Err
	}
	return rec
}

// archive saves the run, logging instead of failing.
func archive(ctx context.Context, a Archiver, r *Run) {
	if a == nil {
		return
	}
	if _, err := a.SaveRun(ctx, r.ArchiveRecord()); err != nil {
		slog.Warn("failed to archive run", "run", r.ID, "error", err)
	}
}
