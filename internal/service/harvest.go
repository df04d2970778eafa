package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/raphaelgruber/civickb/internal/harvest"
	"github.com/raphaelgruber/civickb/internal/metrics"
	"github.com/raphaelgruber/civickb/internal/models"
	"github.com/raphaelgruber/civickb/internal/synth"
)

// Lister extracts candidate records from a listing page.
type Lister interface {
	Harvest(ctx context.Context, listingURL string) (*harvest.Listing, error)
}

// DetailClassifier builds a detail bundle from a detail page.
type DetailClassifier interface {
	Classify(ctx context.Context, pageURL string) (models.DetailBundle, error)
}

// EnrichOptions bound the detail enrichment pass.
type EnrichOptions struct {
	MaxDetails      int
	MaxRequirements int
	Concurrency     int
}

// HarvestResult is the outcome of the harvest stage.
type HarvestResult struct {
	Records        []models.ServiceRecord
	Stats          harvest.Stats
	Enriched       int
	DetailFailures int
}

// HarvestService harvests the listing, enriches detail pages and fills Q&A pairs.
type HarvestService struct {
	lister     Lister
	classifier DetailClassifier
	synth      *synth.Synthesizer
	opts       EnrichOptions
	metrics    *metrics.Collector
	logger     *slog.Logger
}

// NewHarvestService creates a harvest service.
func NewHarvestService(lister Lister, classifier DetailClassifier, synth *synth.Synthesizer, opts EnrichOptions, m *metrics.Collector, logger *slog.Logger) *HarvestService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &HarvestService{
		lister:     lister,
		classifier: classifier,
		synth:      synth,
		opts:       opts,
		metrics:    m,
		logger:     logger,
	}
}

// Harvest runs the listing extraction, the bounded detail enrichment and
// Q&A synthesis. A listing failure aborts with no records; detail failures
// only leave the affected record on its defaults.
func (s *HarvestService) Harvest(ctx context.Context, listingURL string, progress ProgressFunc) (*HarvestResult, error) {
	start := time.Now()
	listing, err := s.lister.Harvest(ctx, listingURL)
	if err != nil {
		s.metrics.RecordFailure(metrics.OpListingRender, time.Since(start))
		return nil, err
	}
	s.metrics.RecordTiming(metrics.OpListingRender, time.Since(start))

	var records []models.ServiceRecord
	for rec := range listing.Candidates() {
		records = append(records, rec)
	}
	result := &HarvestResult{Stats: listing.Stats()}
	s.logger.Info("listing harvested",
		"url", listingURL,
		"matched", result.Stats.Matched,
		"accepted", result.Stats.Accepted,
		"rejected", result.Stats.Rejected,
		"errored", result.Stats.Errored)

	result.Enriched, result.DetailFailures = s.enrich(ctx, records, progress)

	if s.synth != nil {
		for i := range records {
			s.synth.Apply(&records[i])
		}
	}
	if records == nil {
		records = []models.ServiceRecord{}
	}
	result.Records = records
	return result, nil
}

// detailTargets returns the indexes of the first MaxDetails records with a URL.
func (s *HarvestService) detailTargets(records []models.ServiceRecord) []int {
	var idx []int
	for i, r := range records {
		if len(idx) >= s.opts.MaxDetails {
			break
		}
		if r.URL != "" {
			idx = append(idx, i)
		}
	}
	return idx
}

// enrich classifies detail pages with a worker pool. Each worker writes only
// to its own record index.
func (s *HarvestService) enrich(ctx context.Context, records []models.ServiceRecord, progress ProgressFunc) (enriched, failed int) {
	targets := s.detailTargets(records)
	if len(targets) == 0 || s.classifier == nil {
		return 0, 0
	}

	var (
		done      atomic.Int32
		okCount   atomic.Int32
		failCount atomic.Int32
	)

	work := make(chan int, len(targets))
	var wg sync.WaitGroup
	for w := 0; w < min(s.opts.Concurrency, len(targets)); w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range work {
				if ctx.Err() != nil {
					return
				}
				rec := &records[i]

				start := time.Now()
				bundle, err := s.classifier.Classify(ctx, rec.URL)
				elapsed := time.Since(start)

				if err != nil {
					failCount.Add(1)
					s.metrics.RecordFailure(metrics.OpDetailPage, elapsed)
					s.logger.Warn("detail page failed, keeping defaults",
						"worker", workerID, "index", i, "url", rec.URL, "error", err)
				} else {
					okCount.Add(1)
					s.metrics.RecordTiming(metrics.OpDetailPage, elapsed)
				}
				// A failed classification may still carry a partial bundle.
				rec.Merge(bundle, s.opts.MaxRequirements)

				n := int(done.Add(1))
				progress.emit(Event{Stage: StageHarvest, Current: n, Total: len(targets), Item: rec.Name, Err: err})
			}
		}(w)
	}

	for _, i := range targets {
		work <- i
	}
	close(work)
	wg.Wait()

	s.logger.Info("detail enrichment finished",
		"targets", len(targets), "enriched", okCount.Load(), "failed", failCount.Load())
	return int(okCount.Load()), int(failCount.Load())
}

// LoadRecords reads a saved corpus.
func LoadRecords(path string) ([]models.ServiceRecord, error) {
	records, err := models.LoadCorpus(path)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	return records, nil
}
