package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/domain/ports"
	"github.com/ersonp/newscheck/internal/infrastructure/parsers"
)

// DefaultBatchWorkers is the default number of concurrent classifications.
const DefaultBatchWorkers = 4

// BatchItem is the outcome for one submission in a batch.
type BatchItem struct {
	Submission parsers.RawSubmission
	Verdict    entities.Verdict
	Err        error
}

// OK reports whether the item was classified.
func (i BatchItem) OK() bool {
	return i.Err == nil
}

// BatchResult contains the outcome of a batch run, in input order.
type BatchResult struct {
	Items    []BatchItem
	Real     int
	Fake     int
	Failed   int
	Duration time.Duration
}

// BatchService classifies many submissions concurrently.
// It does not touch the session Store.
type BatchService struct {
	classifier ports.Classifier
	workers    int
	logger     *zap.Logger
}

// NewBatchService creates a batch service. workers <= 0 uses DefaultBatchWorkers.
func NewBatchService(classifier ports.Classifier, workers int, logger *zap.Logger) *BatchService {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{
		classifier: classifier,
		workers:    workers,
		logger:     logger,
	}
}

// ClassifierName returns the name of the classifier used for the batch.
func (s *BatchService) ClassifierName() string {
	return s.classifier.Name()
}

// Run classifies every submission. Per-item failures are recorded on the
// item; only context cancellation aborts the run.
func (s *BatchService) Run(ctx context.Context, subs []parsers.RawSubmission) (*BatchResult, error) {
	start := time.Now()
	items := make([]BatchItem, len(subs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, sub := range subs {
		items[i].Submission = sub
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			verdict, err := s.classifier.Classify(gctx, sub.Text)
			if err == nil {
				err = verdict.Validate()
			}
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.logger.Debug("batch item failed", zap.Int("line", sub.Line), zap.Error(err))
				items[i].Err = err
				return nil
			}
			items[i].Verdict = verdict
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("running batch: %w", err)
	}

	result := &BatchResult{Items: items, Duration: time.Since(start)}
	for _, item := range items {
		switch {
		case item.Err != nil:
			result.Failed++
		case item.Verdict.Label == entities.LabelFake:
			result.Fake++
		default:
			result.Real++
		}
	}

	s.logger.Info("batch completed",
		zap.Int("items", len(items)),
		zap.Int("real", result.Real),
		zap.Int("fake", result.Fake),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}
