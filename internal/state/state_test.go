package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssistantID(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.AssistantID()
	assert.ErrorIs(t, err, ErrNoAssistant)

	require.NoError(t, s.SetAssistantID("  asst-42 \n"))
	id, err := s.AssistantID()
	require.NoError(t, err)
	assert.Equal(t, "asst-42", id)

	assert.Error(t, s.SetAssistantID("   "))
}

func TestAssistantID_BlankFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, AssistantFile), []byte("\n"), 0o644))

	_, err := New(dir).AssistantID()
	assert.ErrorIs(t, err, ErrNoAssistant)
}

func TestFileIDs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := New(dir)

	_, err := s.FileIDs()
	assert.ErrorIs(t, err, ErrNoFileIDs)

	require.NoError(t, s.SetFileIDs([]string{"a", "b", "c"}))
	ids, err := s.FileIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	data, err := os.ReadFile(filepath.Join(dir, KnowledgeBaseFile))
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", string(data))
}

func TestFileIDs_SkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, KnowledgeBaseFile), []byte("x\n\n  y  \n\n"), 0o644))

	ids, err := New(dir).FileIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, ids)
}

func TestNew_DefaultDir(t *testing.T) {
	assert.Equal(t, ".", New("").Dir())
}
