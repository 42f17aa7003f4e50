// Package web serves the browser UI, the JSON API and the state event stream.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ersonp/newscheck/internal/application/handlers"
	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/domain/services"
)

//go:embed static
var staticFiles embed.FS

const (
	maxRequestBytes    = 1 << 20
	defaultArchiveSize = 20
	shutdownTimeout    = 5 * time.Second
)

// Options holds the dependencies of a Server. History and Similar may be nil.
type Options struct {
	Analysis *services.AnalysisService
	Analyze  *handlers.AnalysisHandler
	History  *handlers.HistoryHandler
	Similar  *handlers.SimilarityHandler
	Logger   *zap.Logger
}

// Server is the HTTP front end for one analysis session.
type Server struct {
	analysis    *services.AnalysisService
	analyze     *handlers.AnalysisHandler
	history     *handlers.HistoryHandler
	similar     *handlers.SimilarityHandler
	logger      *zap.Logger
	broker      *broker
	unsubscribe func()
	busy        atomic.Bool

	// stopped ends in-flight analyses. Client disconnects never do.
	stopped context.Context
	stop    context.CancelFunc
}

// New creates a server and subscribes it to the analysis service.
// Call Close to unsubscribe.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		analysis: opts.Analysis,
		analyze:  opts.Analyze,
		history:  opts.History,
		similar:  opts.Similar,
		logger:   logger,
		broker:   newBroker(),
	}
	s.stopped, s.stop = context.WithCancel(context.Background())
	s.unsubscribe = s.analysis.Subscribe(s.broker.publish)
	return s
}

// Close detaches the server from the analysis service and abandons any
// analysis still running.
func (s *Server) Close() {
	s.stop()
	s.unsubscribe()
}

// detach keeps the request's values but ties cancellation to the server
// instead of the client connection.
func (s *Server) detach(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	release := context.AfterFunc(s.stopped, cancel)
	return ctx, func() {
		release()
		cancel()
	}
}

// Handler returns the HTTP handler for every route.
func (s *Server) Handler() http.Handler {
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", http.FileServerFS(static))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("DELETE /api/history", s.handleClearHistory)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/archive", s.handleArchive)
	mux.HandleFunc("GET /api/similar", s.handleSimilar)
	return s.logRequests(mux)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.stop()
		return fmt.Errorf("shutting down http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	State entities.AnalysisResult `json:"state"`
	Entry *entities.HistoryEntry  `json:"entry,omitempty"`
	Error string                  `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"classifier": s.analysis.ClassifierName(),
		"similarity": s.similar != nil && s.similar.Enabled(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.analysis.CurrentState())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !s.busy.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "an analysis is already running")
		return
	}
	defer s.busy.Store(false)

	ctx, cancel := s.detach(r)
	defer cancel()

	outcome, err := s.analyze.Handle(ctx, req.Text)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, analyzeResponse{State: outcome.Result, Entry: &outcome.Entry})
	case errors.Is(err, handlers.ErrEmptyText):
		writeJSON(w, http.StatusOK, analyzeResponse{State: s.analysis.CurrentState()})
	default:
		writeJSON(w, http.StatusInternalServerError, analyzeResponse{
			State: s.analysis.CurrentState(),
			Error: err.Error(),
		})
	}
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	if s.busy.Load() {
		writeError(w, http.StatusConflict, "an analysis is already running")
		return
	}
	s.analysis.Reset()
	writeJSON(w, http.StatusOK, s.analysis.CurrentState())
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.analysis.History())
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if s.busy.Load() {
		writeError(w, http.StatusConflict, "an analysis is already running")
		return
	}
	s.analysis.ClearHistory(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ch := s.broker.subscribe()
	defer s.broker.unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, s.analysis.CurrentState()); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case result := <-ch:
			if err := writeEvent(w, result); err != nil {
				s.logger.Debug("sse client gone", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "archive is disabled")
		return
	}

	limit, err := queryInt(r, "limit", defaultArchiveSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.history.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.logger.Warn("reading archive", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "reading archive failed")
		return
	}
	if entries == nil {
		entries = []entities.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	if s.similar == nil || !s.similar.Enabled() {
		writeError(w, http.StatusNotFound, services.ErrSimilarityDisabled.Error())
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing q")
		return
	}

	limit, err := queryInt(r, "limit", services.DefaultSimilarLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.similar.Handle(r.Context(), query, limit)
	if err != nil {
		s.logger.Warn("similarity lookup", zap.Error(err))
		writeError(w, http.StatusBadGateway, "similarity lookup failed")
		return
	}
	matches := result.Matches
	if matches == nil {
		matches = []entities.SimilarSubmission{}
	}
	writeJSON(w, http.StatusOK, matches)
}

func writeEvent(w http.ResponseWriter, result entities.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return n, nil
}
