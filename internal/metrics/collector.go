// Package metrics collects per-stage timings of a corpus run.
package metrics

import (
	"fmt"
	"io"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	Failures  int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Op          string
	Count       int64
	Failures    int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
}

// Snapshot represents the run statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64
	Operations    []OperationSnapshot
}

// Operation names for the collector.
const (
	OpListingRender = "listing_render"
	OpDetailPage    = "detail_page"
	OpRenderDocs    = "render_documents"
	OpValidate      = "validate"
	OpUpload        = "upload"
	OpLink          = "link"
)

var opOrder = []string{OpListingRender, OpDetailPage, OpRenderDocs, OpValidate, OpUpload, OpLink}

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe; a nil Collector discards everything.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.record(op, duration, false)
}

// RecordFailure records timing for an operation that failed.
func (c *Collector) RecordFailure(op string, duration time.Duration) {
	c.record(op, duration, true)
}

// Time runs fn and records its duration under op.
func (c *Collector) Time(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.record(op, time.Since(start), err != nil)
	return err
}

func (c *Collector) record(op string, duration time.Duration, failed bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration
	if failed {
		m.Failures++
	}

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// snapshotOp creates a snapshot for an operation, returning false if no data.
func snapshotOp(op string, m *OperationMetrics) (OperationSnapshot, bool) {
	if m == nil || m.Count == 0 {
		return OperationSnapshot{}, false
	}
	return OperationSnapshot{
		Op:          op,
		Count:       m.Count,
		Failures:    m.Failures,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}, true
}

// Snapshot returns a point-in-time snapshot of all metrics.
// Known stages come first in pipeline order, then any others by name.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{UptimeSeconds: time.Since(c.startTime).Seconds()}
	var extra []string
	for op := range c.ops {
		if !slices.Contains(opOrder, op) {
			extra = append(extra, op)
		}
	}
	slices.Sort(extra)
	for _, op := range append(slices.Clone(opOrder), extra...) {
		if s, ok := snapshotOp(op, c.ops[op]); ok {
			snap.Operations = append(snap.Operations, s)
		}
	}
	return snap
}

// Print writes a human readable summary of the snapshot.
func (s Snapshot) Print(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Stage timings (%.1fs total):\n", s.UptimeSeconds)
	for _, op := range s.Operations {
		_, _ = fmt.Fprintf(w, "  %-17s count=%d failed=%d avg=%.0fms min=%dms max=%dms\n",
			op.Op, op.Count, op.Failures, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
	}
}

// Registry builds a Prometheus registry holding the snapshot values.
func (s Snapshot) Registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()

	count := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "civickb",
		Name:      "stage_operations",
		Help:      "Operations executed per pipeline stage in the last run.",
	}, []string{"stage"})
	failures := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "civickb",
		Name:      "stage_failures",
		Help:      "Failed operations per pipeline stage in the last run.",
	}, []string{"stage"})
	seconds := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "civickb",
		Name:      "stage_seconds_total",
		Help:      "Time spent per pipeline stage in the last run.",
	}, []string{"stage"})
	uptime := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "civickb",
		Name:      "run_seconds",
		Help:      "Wall time of the last run.",
	})
	reg.MustRegister(count, failures, seconds, uptime)

	for _, op := range s.Operations {
		count.WithLabelValues(op.Op).Set(float64(op.Count))
		failures.WithLabelValues(op.Op).Set(float64(op.Failures))
		seconds.WithLabelValues(op.Op).Set(float64(op.TotalTimeMs) / 1000)
	}
	uptime.Set(s.UptimeSeconds)
	return reg
}

// WriteTextfile writes the snapshot in the node-exporter textfile format.
func (s Snapshot) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, s.Registry()); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
