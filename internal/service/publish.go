package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/raphaelgruber/civickb/internal/client"
	"github.com/raphaelgruber/civickb/internal/metrics"
	"github.com/raphaelgruber/civickb/internal/state"
	"github.com/raphaelgruber/civickb/internal/validate"
)

var (
	// ErrNothingUploaded is returned when no document reached the store.
	ErrNothingUploaded = errors.New("no documents uploaded")
	// ErrNotValidated is returned when upload is attempted without a validation report.
	ErrNotValidated = errors.New("upload requires a validation report")
)

// KnowledgeStore is the remote document store and assistant API.
type KnowledgeStore interface {
	UploadFile(ctx context.Context, name string, content []byte) (string, error)
	UpdateKnowledgeBase(ctx context.Context, assistantID string, fileIDs []string) (*client.Assistant, error)
}

// UploadResult summarizes an upload.
type UploadResult struct {
	Files       []string
	FileIDs     []string
	Failed      []string
	AssistantID string
	Linked      bool
}

// PublishService uploads rendered documents and links them to the assistant.
type PublishService struct {
	store   KnowledgeStore
	state   *state.Store
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewPublishService creates a publish service.
func NewPublishService(store KnowledgeStore, st *state.Store, m *metrics.Collector, logger *slog.Logger) *PublishService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishService{store: store, state: st, metrics: m, logger: logger}
}

// Upload posts the documents checked by report, in name order. It refuses
// to run without a report or when the report has status FAIL, so files in
// dir that the validator never saw are not published. Failed files are
// logged and skipped. Successful IDs replace the stored knowledge base IDs;
// with autoLink the assistant is linked when an assistant ID is stored.
func (s *PublishService) Upload(ctx context.Context, dir string, report *validate.Report, autoLink bool, progress ProgressFunc) (*UploadResult, error) {
	if report == nil {
		return nil, ErrNotValidated
	}
	if err := report.Err(); err != nil {
		return nil, fmt.Errorf("upload refused: %w", err)
	}

	files := make([]string, 0, len(report.Documents))
	for _, d := range report.Documents {
		files = append(files, d.File)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no validated documents for %s", dir)
	}
	slices.Sort(files)

	result := &UploadResult{}
	for i, name := range files {
		path := filepath.Join(dir, name)
		result.Files = append(result.Files, name)

		id, err := s.uploadOne(ctx, path, name)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.logger.Warn("upload failed", "file", name, "error", err)
			result.Failed = append(result.Failed, name)
		} else {
			s.logger.Debug("document uploaded", "file", name, "id", id)
			result.FileIDs = append(result.FileIDs, id)
		}
		progress.emit(Event{Stage: StageUpload, Current: i + 1, Total: len(files), Item: name, Err: err})
	}

	if len(result.FileIDs) == 0 {
		return result, ErrNothingUploaded
	}
	if err := s.state.SetFileIDs(result.FileIDs); err != nil {
		return result, err
	}
	s.logger.Info("documents uploaded", "uploaded", len(result.FileIDs), "failed", len(result.Failed))

	if !autoLink {
		return result, nil
	}
	assistantID, err := s.state.AssistantID()
	if errors.Is(err, state.ErrNoAssistant) {
		s.logger.Info("no assistant id stored, skipping link")
		return result, nil
	}
	if err != nil {
		return result, err
	}
	if err := s.link(ctx, assistantID, result.FileIDs); err != nil {
		return result, err
	}
	result.AssistantID = assistantID
	result.Linked = true
	return result, nil
}

func (s *PublishService) uploadOne(ctx context.Context, path, name string) (string, error) {
	start := time.Now()
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	id, err := s.store.UploadFile(ctx, name, content)
	if err != nil {
		s.metrics.RecordFailure(metrics.OpUpload, time.Since(start))
		return "", err
	}
	s.metrics.RecordTiming(metrics.OpUpload, time.Since(start))
	return id, nil
}

// Link attaches the stored file IDs to the stored assistant.
func (s *PublishService) Link(ctx context.Context) (assistantID string, fileIDs []string, err error) {
	assistantID, err = s.state.AssistantID()
	if err != nil {
		return "", nil, err
	}
	fileIDs, err = s.state.FileIDs()
	if err != nil {
		return assistantID, nil, err
	}
	if err := s.link(ctx, assistantID, fileIDs); err != nil {
		return assistantID, fileIDs, err
	}
	return assistantID, fileIDs, nil
}

func (s *PublishService) link(ctx context.Context, assistantID string, fileIDs []string) error {
	start := time.Now()
	if _, err := s.store.UpdateKnowledgeBase(ctx, assistantID, fileIDs); err != nil {
		s.metrics.RecordFailure(metrics.OpLink, time.Since(start))
		return fmt.Errorf("link knowledge base: %w", err)
	}
	s.metrics.RecordTiming(metrics.OpLink, time.Since(start))
	s.logger.Info("knowledge base linked", "assistant", assistantID, "files", len(fileIDs))
	return nil
}
