package cli

import (
	"context"
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/civickb/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressModel_Events(t *testing.T) {
	m := newProgressModel("Harvest", func() {})
	assert.Contains(t, m.renderContent(), "Harvest...")

	next, _ := m.Update(eventMsg{Stage: service.StageHarvest, Current: 1, Total: 4, Item: "Anagrafe"})
	m = next.(progressModel)
	assert.Equal(t, service.StageHarvest, m.stage)
	assert.Equal(t, 1, m.current)
	assert.Equal(t, 4, m.total)
	assert.Contains(t, m.renderContent(), "Anagrafe")

	next, _ = m.Update(eventMsg{Stage: service.StageHarvest, Current: 2, Total: 4, Err: errors.New("timeout")})
	m = next.(progressModel)
	assert.Equal(t, 1, m.failures)

	next, _ = m.Update(eventMsg{Stage: service.StageUpload, Current: 1, Total: 2})
	m = next.(progressModel)
	assert.Equal(t, 0, m.failures, "failures reset on a new stage")

	next, _ = m.Update(eventMsg{Stage: service.StageUpload, Done: true})
	m = next.(progressModel)
	assert.Equal(t, 1, m.current, "done events do not move the bar")
}

func TestProgressModel_Done(t *testing.T) {
	m := newProgressModel("Upload", func() {})

	next, cmd := m.Update(doneMsg{err: errors.New("boom")})
	m = next.(progressModel)
	assert.True(t, m.done)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.renderContent(), "Upload failed: boom")

	m = newProgressModel("Upload", func() {})
	next, _ = m.Update(doneMsg{})
	assert.Contains(t, next.(progressModel).renderContent(), "Upload")
}

func TestProgressModel_QuitCancels(t *testing.T) {
	cancelled := false
	m := newProgressModel("Run", func() { cancelled = true })

	next, cmd := m.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	assert.True(t, next.(progressModel).quitting)
	assert.True(t, cancelled)
	assert.NotNil(t, cmd)
}

func TestRunWithProgress_LogsWhenVerbose(t *testing.T) {
	verbose = true
	t.Cleanup(func() { verbose = false })

	var seen []service.Event
	boom := errors.New("boom")
	err := runWithProgress(t.Context(), "Harvest", func(ctx context.Context, progress service.ProgressFunc) error {
		for i := 1; i <= 3; i++ {
			e := service.Event{Stage: service.StageHarvest, Current: i, Total: 3}
			seen = append(seen, e)
			progress(e)
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Len(t, seen, 3)
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, "a", orDefault("a", "b"))
	assert.Equal(t, "b", orDefault("", "b"))
}
