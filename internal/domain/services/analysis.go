package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/domain/ports"
)

// DefaultLatency is the simulated processing delay before classification.
const DefaultLatency = 1500 * time.Millisecond

// Observer receives a snapshot of the current result after each transition.
type Observer func(entities.AnalysisResult)

// EntryIndexer indexes completed entries for similarity lookup.
type EntryIndexer interface {
	Index(ctx context.Context, entry entities.HistoryEntry) error
}

// AnalysisOption configures an AnalysisService.
type AnalysisOption func(*AnalysisService)

// WithLatency sets the simulated delay. Zero disables it.
func WithLatency(d time.Duration) AnalysisOption {
	return func(s *AnalysisService) {
		if d >= 0 {
			s.latency = d
		}
	}
}

// WithArchive persists every completed entry and audit action.
func WithArchive(archive ports.HistoryArchive) AnalysisOption {
	return func(s *AnalysisService) {
		s.archive = archive
	}
}

// WithIndexer indexes every completed entry for similarity lookup.
func WithIndexer(indexer EntryIndexer) AnalysisOption {
	return func(s *AnalysisService) {
		s.indexer = indexer
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) AnalysisOption {
	return func(s *AnalysisService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) AnalysisOption {
	return func(s *AnalysisService) {
		if now != nil {
			s.now = now
		}
	}
}

// AnalysisService drives the lifecycle of a single analysis request against
// an injected Store.
type AnalysisService struct {
	store      *Store
	classifier ports.Classifier
	archive    ports.HistoryArchive
	indexer    EntryIndexer
	latency    time.Duration
	logger     *zap.Logger
	now        func() time.Time

	obsMu     sync.RWMutex
	observers []subscription
	nextObsID int
}

type subscription struct {
	id int
	fn Observer
}

// NewAnalysisService creates an orchestrator over the given store and classifier.
func NewAnalysisService(store *Store, classifier ports.Classifier, opts ...AnalysisOption) *AnalysisService {
	s := &AnalysisService{
		store:      store,
		classifier: classifier,
		latency:    DefaultLatency,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers an observer and returns a function that removes it.
// Observers run in registration order on the submitting goroutine.
func (s *AnalysisService) Subscribe(o Observer) func() {
	s.obsMu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers = append(s.observers, subscription{id: id, fn: o})
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		for i, sub := range s.observers {
			if sub.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// ErrBlankText is returned by Analyze for empty or whitespace-only text.
var ErrBlankText = errors.New("text is blank")

// Submit analyzes text and records the outcome. Blank text is ignored.
// Failures are logged and leave the previous result in place with loading
// cleared; they are never returned.
func (s *AnalysisService) Submit(ctx context.Context, text string) {
	_, _ = s.Analyze(ctx, text)
}

// Analyze behaves like Submit and also reports what happened: the entry this
// call appended, or the caught failure. The state transitions are identical;
// the error is informational and the store is already consistent when it
// is returned.
func (s *AnalysisService) Analyze(ctx context.Context, text string) (entities.HistoryEntry, error) {
	if strings.TrimSpace(text) == "" {
		return entities.HistoryEntry{}, ErrBlankText
	}

	s.notify(s.store.SetLoading(true))

	verdict, err := s.analyze(ctx, text)
	if err != nil {
		s.logger.Warn("analysis failed",
			zap.String("classifier", s.classifier.Name()),
			zap.Int("text_len", len(text)),
			zap.Error(err),
		)
		s.notify(s.store.SetLoading(false))
		s.audit(ctx, entities.ActionAnalysisFailed, "", map[string]any{
			"classifier": s.classifier.Name(),
			"error":      err.Error(),
		})
		return entities.HistoryEntry{}, err
	}

	result := s.store.SetResult(verdict.Label, verdict.Confidence)
	entry := entities.HistoryEntry{
		ID:          uuid.New().String(),
		Text:        text,
		SubmittedAt: s.now(),
		Result:      result,
		Classifier:  s.classifier.Name(),
		Signals:     verdict.Signals,
	}
	s.store.AppendHistory(entry)
	s.notify(result)

	s.logger.Debug("analysis completed",
		zap.String("entry_id", entry.ID),
		zap.String("label", string(result.Label)),
		zap.Int("confidence", result.Confidence),
	)

	s.persist(ctx, entry, verdict)
	return entry.Clone(), nil
}

// Reset restores the unset state and notifies observers. History is kept.
func (s *AnalysisService) Reset() {
	s.notify(s.store.Reset())
}

// CurrentState returns a snapshot of the current result.
func (s *AnalysisService) CurrentState() entities.AnalysisResult {
	return s.store.CurrentState()
}

// History returns a snapshot of the session history, oldest first.
func (s *AnalysisService) History() []entities.HistoryEntry {
	return s.store.History()
}

// ClearHistory empties the session history. The current result is kept.
func (s *AnalysisService) ClearHistory(ctx context.Context) {
	n := s.store.HistoryLen()
	s.store.ClearHistory()
	s.audit(ctx, entities.ActionHistoryCleared, "", map[string]any{"entries": n})
}

// ClassifierName returns the name of the configured classifier.
func (s *AnalysisService) ClassifierName() string {
	return s.classifier.Name()
}

// analyze waits out the simulated latency and runs the classifier, turning
// panics and invalid verdicts into errors.
func (s *AnalysisService) analyze(ctx context.Context, text string) (verdict entities.Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panicked: %v", r)
		}
	}()

	if err := wait(ctx, s.latency); err != nil {
		return entities.Verdict{}, fmt.Errorf("waiting for analysis: %w", err)
	}

	verdict, err = s.classifier.Classify(ctx, text)
	if err != nil {
		return entities.Verdict{}, fmt.Errorf("classifying text: %w", err)
	}
	if err := verdict.Validate(); err != nil {
		return entities.Verdict{}, fmt.Errorf("validating verdict: %w", err)
	}
	return verdict, nil
}

// persist archives and indexes a completed entry. Failures are logged only.
func (s *AnalysisService) persist(ctx context.Context, entry entities.HistoryEntry, verdict entities.Verdict) {
	if s.archive != nil {
		if err := s.archive.SaveEntry(ctx, entry); err != nil {
			s.logger.Warn("archiving entry", zap.String("entry_id", entry.ID), zap.Error(err))
		}
	}
	if s.indexer != nil {
		if err := s.indexer.Index(ctx, entry); err != nil && !errors.Is(err, ErrSimilarityDisabled) {
			s.logger.Warn("indexing entry", zap.String("entry_id", entry.ID), zap.Error(err))
		}
	}
	s.audit(ctx, entities.ActionAnalysisCompleted, entry.ID, map[string]any{
		"label":      string(verdict.Label),
		"confidence": verdict.Confidence,
		"fake_score": verdict.FakeScore,
		"real_score": verdict.RealScore,
		"classifier": entry.Classifier,
	})
}

func (s *AnalysisService) audit(ctx context.Context, action, entryID string, details map[string]any) {
	if s.archive == nil {
		return
	}
	if err := s.archive.LogAction(ctx, action, entryID, details); err != nil {
		s.logger.Warn("writing audit log", zap.String("action", action), zap.Error(err))
	}
}

// notify calls every observer with the snapshot, outside any store lock.
func (s *AnalysisService) notify(result entities.AnalysisResult) {
	s.obsMu.RLock()
	observers := make([]Observer, 0, len(s.observers))
	for _, sub := range s.observers {
		observers = append(observers, sub.fn)
	}
	s.obsMu.RUnlock()

	for _, o := range observers {
		o(result)
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
