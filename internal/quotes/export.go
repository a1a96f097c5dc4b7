package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// TaskTypeExport renders a quotation PDF in the background and stores it
	// alongside the quotation record.
	TaskTypeExport = "quote:export"
	// TaskTypeDocumentCleanup purges exported documents older than the
	// configured retention window. Scheduled via cron; documents can always
	// be re-rendered from the stored quotation.
	TaskTypeDocumentCleanup = "docs:cleanup"
)

// ExportPayload identifies the quotation to export.
type ExportPayload struct {
	Reference string `json:"reference"`
}

// DocumentCleanupPayload carries the retention window for the purge.
type DocumentCleanupPayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewExportTask constructs the export task for a reference.
func NewExportTask(reference string) (*asynq.Task, error) {
	data, err := json.Marshal(ExportPayload{Reference: reference})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeExport, data), nil
}

// NewDocumentCleanupTask constructs the scheduled cleanup task.
func NewDocumentCleanupTask(retentionDays int) (*asynq.Task, error) {
	data, err := json.Marshal(DocumentCleanupPayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDocumentCleanup, data), nil
}

// HandleExportTask renders the referenced quotation and stores the PDF.
func (s *Service) HandleExportTask(ctx context.Context, t *asynq.Task) error {
	var payload ExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Reference == "" {
		return asynq.SkipRetry
	}

	data, _, err := s.RenderPDF(ctx, payload.Reference)
	if err != nil {
		return fmt.Errorf("export %s: %w", payload.Reference, err)
	}

	if err := s.repo.SaveDocument(ctx, payload.Reference, data, s.now().UTC()); err != nil {
		return fmt.Errorf("export %s: %w", payload.Reference, err)
	}

	s.logger.Info("quotation exported",
		slog.String("reference", payload.Reference),
		slog.Int("bytes", len(data)))
	return nil
}

// HandleDocumentCleanupTask purges exported documents past retention.
func (s *Service) HandleDocumentCleanupTask(ctx context.Context, t *asynq.Task) error {
	var payload DocumentCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionDays <= 0 {
		return asynq.SkipRetry
	}

	cutoff := s.now().UTC().AddDate(0, 0, -payload.RetentionDays)
	purged, err := s.repo.PurgeDocumentsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("document cleanup: %w", err)
	}
	if purged > 0 {
		s.logger.Info("expired documents purged",
			slog.Int64("count", purged),
			slog.Time("cutoff", cutoff))
	}
	return nil
}
