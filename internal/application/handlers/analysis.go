package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/domain/services"
	"github.com/ersonp/newscheck/internal/infrastructure/fetcher"
)

// MaxFileBytes caps how much of a file HandleFile reads.
const MaxFileBytes = 1 << 20

var (
	// ErrEmptyText is returned when there is nothing to analyze.
	ErrEmptyText = errors.New("text is required")

	// ErrAnalysisFailed is returned when the orchestrator caught a failure.
	// The previous result is still current.
	ErrAnalysisFailed = errors.New("analysis failed, previous result kept")
)

// ArticleFetcher downloads an article by URL.
type ArticleFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Article, error)
}

// AnalysisHandler runs one submission through the orchestrator and reports
// the entry it produced.
type AnalysisHandler struct {
	service *services.AnalysisService
	fetcher ArticleFetcher
}

// NewAnalysisHandler creates a new analysis handler. fetcher may be nil.
func NewAnalysisHandler(service *services.AnalysisService, fetcher ArticleFetcher) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		fetcher: fetcher,
	}
}

// AnalysisOutcome contains the result of a single analysis.
type AnalysisOutcome struct {
	Result  entities.AnalysisResult
	Entry   entities.HistoryEntry
	Article *fetcher.Article
}

// Handle analyzes text and returns the new history entry.
func (h *AnalysisHandler) Handle(ctx context.Context, text string) (*AnalysisOutcome, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	entry, err := h.service.Analyze(ctx, text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("analyzing text: %w", ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	return &AnalysisOutcome{
		Result: entry.Result,
		Entry:  entry,
	}, nil
}

// HandleURL fetches an article and analyzes its title and body.
func (h *AnalysisHandler) HandleURL(ctx context.Context, rawURL string) (*AnalysisOutcome, error) {
	if h.fetcher == nil {
		return nil, errors.New("article fetching is not configured")
	}

	article, err := h.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetching article: %w", err)
	}

	outcome, err := h.Handle(ctx, article.Submission())
	if err != nil {
		return nil, err
	}
	outcome.Article = article
	return outcome, nil
}

// HandleFile reads a text file and analyzes its contents.
func (h *AnalysisHandler) HandleFile(ctx context.Context, filePath string) (*AnalysisOutcome, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("accessing file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", absPath)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, MaxFileBytes))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	return h.Handle(ctx, string(content))
}
