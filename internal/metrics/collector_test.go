package metrics

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordTiming(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpDetailPage, 100*time.Millisecond)
	c.RecordTiming(OpDetailPage, 300*time.Millisecond)
	c.RecordFailure(OpDetailPage, 200*time.Millisecond)
	c.RecordTiming(OpListingRender, time.Second)

	snap := c.Snapshot()
	require.Len(t, snap.Operations, 2)

	listing := snap.Operations[0]
	assert.Equal(t, OpListingRender, listing.Op)
	assert.Equal(t, int64(1), listing.Count)

	detail := snap.Operations[1]
	assert.Equal(t, OpDetailPage, detail.Op)
	assert.Equal(t, int64(3), detail.Count)
	assert.Equal(t, int64(1), detail.Failures)
	assert.Equal(t, int64(600), detail.TotalTimeMs)
	assert.InDelta(t, 200.0, detail.AvgTimeMs, 0.001)
	assert.Equal(t, int64(100), detail.MinTimeMs)
	assert.Equal(t, int64(300), detail.MaxTimeMs)
}

func TestCollector_Time(t *testing.T) {
	c := NewCollector()
	require.NoError(t, c.Time(OpValidate, func() error { return nil }))
	err := c.Time(OpUpload, func() error { return errors.New("boom") })
	assert.EqualError(t, err, "boom")

	snap := c.Snapshot()
	require.Len(t, snap.Operations, 2)
	assert.Equal(t, int64(0), snap.Operations[0].Failures)
	assert.Equal(t, int64(1), snap.Operations[1].Failures)
}

func TestCollector_ExtraOpsSortedAfterStages(t *testing.T) {
	c := NewCollector()
	c.RecordTiming("zeta", time.Millisecond)
	c.RecordTiming("alpha", time.Millisecond)
	c.RecordTiming(OpLink, time.Millisecond)

	var ops []string
	for _, o := range c.Snapshot().Operations {
		ops = append(ops, o.Op)
	}
	assert.Equal(t, []string{OpLink, "alpha", "zeta"}, ops)
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector
	c.RecordTiming(OpLink, time.Second)
	assert.NoError(t, c.Time(OpLink, func() error { return nil }))
	assert.Empty(t, c.Snapshot().Operations)
}

func TestSnapshot_PrintAndTextfile(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpUpload, 1500*time.Millisecond)
	snap := c.Snapshot()

	var buf bytes.Buffer
	snap.Print(&buf)
	assert.Contains(t, buf.String(), "upload")
	assert.Contains(t, buf.String(), "count=1")

	path := filepath.Join(t.TempDir(), "civickb.prom")
	require.NoError(t, snap.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `civickb_stage_operations{stage="upload"} 1`)
	assert.Contains(t, string(data), `civickb_stage_seconds_total{stage="upload"} 1.5`)
}
