package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/domain/ports"
	"github.com/ersonp/newscheck/internal/domain/services"
	"github.com/ersonp/newscheck/internal/infrastructure/parsers"
)

// BatchHandler handles analyzing submissions from files.
type BatchHandler struct {
	batch      *services.BatchService
	archive    ports.HistoryArchive
	similarity *services.SimilarityService
	logger     *zap.Logger
	now        func() time.Time
}

// NewBatchHandler creates a new batch handler. archive and similarity may be nil.
func NewBatchHandler(batch *services.BatchService, archive ports.HistoryArchive, similarity *services.SimilarityService, logger *zap.Logger) *BatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchHandler{
		batch:      batch,
		archive:    archive,
		similarity: similarity,
		logger:     logger,
		now:        time.Now,
	}
}

// BatchOptions controls batch behavior.
type BatchOptions struct {
	Format string // "txt", "csv", "json", or "auto"
	DryRun bool   // Classify without archiving
}

// BatchReport contains the result of a batch run.
type BatchReport struct {
	*services.BatchResult
	Entries  []entities.HistoryEntry
	Archived int
	Indexed  int
}

// Handle parses a file and classifies every submission in it.
func (h *BatchHandler) Handle(ctx context.Context, filePath string, opts BatchOptions) (*BatchReport, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	subs, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	if len(subs) == 0 {
		return &BatchReport{BatchResult: &services.BatchResult{}}, nil
	}

	result, err := h.batch.Run(ctx, subs)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{
		BatchResult: result,
		Entries:     h.entries(result),
	}

	if opts.DryRun {
		return report, nil
	}

	h.store(ctx, report)
	h.audit(ctx, filepath.Base(filePath), report)

	return report, nil
}

func (h *BatchHandler) entries(result *services.BatchResult) []entities.HistoryEntry {
	now := h.now()
	entries := make([]entities.HistoryEntry, 0, len(result.Items))
	for _, item := range result.Items {
		if !item.OK() {
			continue
		}
		entries = append(entries, entities.HistoryEntry{
			ID:          uuid.New().String(),
			Text:        item.Submission.Text,
			SubmittedAt: now,
			Result: entities.AnalysisResult{
				Label:      item.Verdict.Label,
				Confidence: item.Verdict.Confidence,
			},
			Classifier: h.batch.ClassifierName(),
			Signals:    item.Verdict.Signals,
		})
	}
	return entries
}

// store archives and indexes classified entries. Failures are logged only.
func (h *BatchHandler) store(ctx context.Context, report *BatchReport) {
	if h.archive != nil {
		for _, entry := range report.Entries {
			if err := h.archive.SaveEntry(ctx, entry); err != nil {
				h.logger.Warn("archiving batch entry", zap.String("entry_id", entry.ID), zap.Error(err))
				continue
			}
			report.Archived++
		}
	}

	err := h.similarity.IndexBatch(ctx, report.Entries)
	switch {
	case err == nil:
		if h.similarity.Enabled() {
			report.Indexed = len(report.Entries)
		}
	case errors.Is(err, services.ErrSimilarityDisabled):
	default:
		h.logger.Warn("indexing batch entries", zap.Error(err))
	}
}

func (h *BatchHandler) audit(ctx context.Context, source string, report *BatchReport) {
	if h.archive == nil {
		return
	}
	details := map[string]any{
		"source": source,
		"total":  len(report.Items),
		"real":   report.Real,
		"fake":   report.Fake,
		"failed": report.Failed,
	}
	if err := h.archive.LogAction(ctx, entities.ActionBatchCompleted, "", details); err != nil {
		h.logger.Warn("writing audit log", zap.String("action", entities.ActionBatchCompleted), zap.Error(err))
	}
}
