package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/civickb/internal/metrics"
	"github.com/raphaelgruber/civickb/internal/models"
	"github.com/raphaelgruber/civickb/internal/render"
	"github.com/raphaelgruber/civickb/internal/state"
	"github.com/raphaelgruber/civickb/internal/validate"
)

// PipelineOptions configure a full run.
type PipelineOptions struct {
	ListingURL string
	CorpusFile string
	KBDir      string
	Clean      bool
	// Publish enables the upload and link stages.
	Publish bool
}

// Pipeline runs harvest, save, render, validate, upload and link in order.
type Pipeline struct {
	harvest  *HarvestService
	renderer *render.Renderer
	publish  *PublishService
	state    *state.Store
	archive  Archiver
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewPipeline creates a pipeline. publish and archive may be nil.
func NewPipeline(h *HarvestService, r *render.Renderer, p *PublishService, st *state.Store, a Archiver, m *metrics.Collector, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{harvest: h, renderer: r, publish: p, state: st, archive: a, metrics: m, logger: logger}
}

// Run executes every stage, recording each into run. A failing stage stops
// the pipeline and its error is returned.
func (p *Pipeline) Run(ctx context.Context, run *Run, opts PipelineOptions, progress ProgressFunc) (err error) {
	archive(ctx, p.archive, run)
	defer func() {
		run.Finish(err)
		archive(context.WithoutCancel(ctx), p.archive, run)
	}()

	// harvest
	start := time.Now()
	hres, err := p.harvest.Harvest(ctx, opts.ListingURL, progress)
	if err != nil {
		run.Record(StageHarvest, StageFailed, err.Error(), time.Since(start))
		return err
	}
	run.Update(func(r *Run) {
		r.Harvested = len(hres.Records)
		r.Enriched = hres.Enriched
		r.DetailFailures = hres.DetailFailures
	})
	run.Record(StageHarvest, StageOK, fmt.Sprintf("%d records, %d enriched", len(hres.Records), hres.Enriched), time.Since(start))
	progress.emit(Event{Stage: StageHarvest, Done: true})

	// save
	start = time.Now()
	if err := models.SaveCorpus(opts.CorpusFile, hres.Records); err != nil {
		run.Record(StageSave, StageFailed, err.Error(), time.Since(start))
		return err
	}
	run.Record(StageSave, StageOK, opts.CorpusFile, time.Since(start))

	// render
	start = time.Now()
	wres, err := p.renderer.WriteAll(opts.KBDir, hres.Records, render.WriteOptions{Clean: opts.Clean}, p.logger)
	if err != nil {
		p.metrics.RecordFailure(metrics.OpRenderDocs, time.Since(start))
		run.Record(StageRender, StageFailed, err.Error(), time.Since(start))
		return err
	}
	p.metrics.RecordTiming(metrics.OpRenderDocs, time.Since(start))
	run.Update(func(r *Run) {
		r.Documents = len(wres.Files)
		r.Collisions = len(wres.Collisions)
	})
	run.Record(StageRender, StageOK, fmt.Sprintf("%d documents", len(wres.Files)), time.Since(start))

	// validate
	start = time.Now()
	report, err := validate.File(opts.CorpusFile, opts.KBDir)
	if err != nil {
		p.metrics.RecordFailure(metrics.OpValidate, time.Since(start))
		run.Record(StageValidate, StageFailed, err.Error(), time.Since(start))
		return err
	}
	p.metrics.RecordTiming(metrics.OpValidate, time.Since(start))
	run.Update(func(r *Run) {
		r.Validation = report.Status()
		r.Errors = report.ErrorCount()
		r.Warnings = report.WarningCount()
	})
	if err := report.Err(); err != nil {
		run.Record(StageValidate, StageFailed, string(report.Status()), time.Since(start))
		return err
	}
	run.Record(StageValidate, StageOK, string(report.Status()), time.Since(start))

	if !opts.Publish || p.publish == nil {
		run.Record(StageUpload, StageSkipped, "publishing disabled", 0)
		run.Record(StageLink, StageSkipped, "publishing disabled", 0)
		return nil
	}

	// upload
	start = time.Now()
	ures, err := p.publish.Upload(ctx, opts.KBDir, report, false, progress)
	if ures != nil {
		run.Update(func(r *Run) {
			r.FileIDs = ures.FileIDs
			r.UploadFailed = len(ures.Failed)
		})
	}
	if err != nil {
		run.Record(StageUpload, StageFailed, err.Error(), time.Since(start))
		return err
	}
	run.Record(StageUpload, StageOK, fmt.Sprintf("%d uploaded, %d failed", len(ures.FileIDs), len(ures.Failed)), time.Since(start))
	progress.emit(Event{Stage: StageUpload, Done: true})

	// link
	start = time.Now()
	assistantID, err := p.state.AssistantID()
	if errors.Is(err, state.ErrNoAssistant) {
		run.Record(StageLink, StageSkipped, "no assistant id", 0)
		return nil
	}
	if err != nil {
		run.Record(StageLink, StageFailed, err.Error(), time.Since(start))
		return err
	}
	if err := p.publish.link(ctx, assistantID, ures.FileIDs); err != nil {
		run.Record(StageLink, StageFailed, err.Error(), time.Since(start))
		return err
	}
	run.Update(func(r *Run) { r.Linked = true })
	run.Record(StageLink, StageOK, assistantID, time.Since(start))
	return nil
}
