// Package state persists the assistant and knowledge base identifiers between runs.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// AssistantFile holds the target assistant ID.
	AssistantFile = ".assistant-id"
	// KnowledgeBaseFile holds uploaded file IDs, one per line.
	KnowledgeBaseFile = ".knowledge-base-ids"
)

var (
	// ErrNoAssistant is returned when no assistant ID has been stored.
	ErrNoAssistant = errors.New("no assistant id configured")
	// ErrNoFileIDs is returned when no uploaded file IDs have been stored.
	ErrNoFileIDs = errors.New("no knowledge base file ids recorded")
)

// Store reads and writes state files in a directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir.
func New(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir}
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// AssistantID reads the stored assistant ID.
func (s *Store) AssistantID() (string, error) {
	data, err := os.ReadFile(s.path(AssistantFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoAssistant
	}
	if err != nil {
		return "", fmt.Errorf("read assistant id: %w", err)
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", ErrNoAssistant
	}
	return id, nil
}

// SetAssistantID stores the assistant ID.
func (s *Store) SetAssistantID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("assistant id is empty")
	}
	return s.write(AssistantFile, id+"\n")
}

// FileIDs reads the stored knowledge base file IDs, skipping blank lines.
func (s *Store) FileIDs() ([]string, error) {
	data, err := os.ReadFile(s.path(KnowledgeBaseFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoFileIDs
	}
	if err != nil {
		return nil, fmt.Errorf("read file ids: %w", err)
	}
	var ids []string
	for line := range strings.Lines(string(data)) {
		if id := strings.TrimSpace(line); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoFileIDs
	}
	return ids, nil
}

// SetFileIDs replaces the stored knowledge base file IDs.
func (s *Store) SetFileIDs(ids []string) error {
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(id)
		b.WriteByte('\n')
	}
	return s.write(KnowledgeBaseFile, b.String())
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) write(name, content string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(s.path(name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
