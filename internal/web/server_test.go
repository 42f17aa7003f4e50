package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/newscheck/internal/application/handlers"
	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/domain/mocks"
	"github.com/ersonp/newscheck/internal/domain/services"
)

type fixture struct {
	server     *Server
	handler    http.Handler
	analysis   *services.AnalysisService
	classifier *mocks.Classifier
	archive    *mocks.HistoryArchive
}

func newFixture(t *testing.T, similar *handlers.SimilarityHandler, opts ...services.AnalysisOption) *fixture {
	t.Helper()
	classifier := &mocks.Classifier{
		ClassifierName: "heuristic",
		Verdict:        entities.Verdict{Label: entities.LabelFake, Confidence: 91, FakeScore: 2},
	}
	archive := mocks.NewHistoryArchive()
	opts = append([]services.AnalysisOption{services.WithLatency(0), services.WithArchive(archive)}, opts...)
	analysis := services.NewAnalysisService(services.NewStore(), classifier, opts...)

	srv := New(Options{
		Analysis: analysis,
		Analyze:  handlers.NewAnalysisHandler(analysis, nil),
		History:  handlers.NewHistoryHandler(archive, nil),
		Similar:  similar,
	})
	t.Cleanup(srv.Close)

	return &fixture{
		server:     srv,
		handler:    srv.Handler(),
		analysis:   analysis,
		classifier: classifier,
		archive:    archive,
	}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestServer_Index(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>newscheck</title>")
	assert.Contains(t, rec.Body.String(), "!text.value.trim() || state.is_loading")
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "heuristic", body["classifier"])
	assert.Equal(t, false, body["similarity"])
}

func TestServer_AnalyzeFlow(t *testing.T) {
	f := newFixture(t, nil)

	state := decode[entities.AnalysisResult](t, f.do(http.MethodGet, "/api/state", ""))
	assert.Equal(t, entities.UnsetResult(), state)

	rec := f.do(http.MethodPost, "/api/analyze", `{"text":"Shocking secret they don't want you to know"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[analyzeResponse](t, rec)
	assert.Equal(t, entities.AnalysisResult{Label: entities.LabelFake, Confidence: 91}, resp.State)
	require.NotNil(t, resp.Entry)
	assert.NotEmpty(t, resp.Entry.ID)

	history := decode[[]entities.HistoryEntry](t, f.do(http.MethodGet, "/api/history", ""))
	require.Len(t, history, 1)

	archived := decode[[]entities.HistoryEntry](t, f.do(http.MethodGet, "/api/archive?q=secret", ""))
	require.Len(t, archived, 1)
	assert.Equal(t, resp.Entry.ID, archived[0].ID)

	rec = f.do(http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entities.UnsetResult(), decode[entities.AnalysisResult](t, rec))

	rec = f.do(http.MethodDelete, "/api/history", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.analysis.History())
}

func TestServer_Analyze_BadRequests(t *testing.T) {
	f := newFixture(t, nil)

	t.Run("invalid json", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/analyze", `{"text":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("blank text is a no-op", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/analyze", `{"text":"   "}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, entities.UnsetResult(), decode[analyzeResponse](t, rec).State)
		assert.Equal(t, 0, f.classifier.CallCount())
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/analyze", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestServer_Analyze_Failure(t *testing.T) {
	f := newFixture(t, nil)
	f.classifier.Err = assert.AnError

	rec := f.do(http.MethodPost, "/api/analyze", `{"text":"anything"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[analyzeResponse](t, rec)
	assert.False(t, resp.State.IsLoading)
	assert.Equal(t, entities.LabelUnset, resp.State.Label)
	assert.NotEmpty(t, resp.Error)
}

func TestServer_Analyze_ConflictWhileBusy(t *testing.T) {
	f := newFixture(t, nil)
	f.classifier.Block = make(chan struct{})

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- f.do(http.MethodPost, "/api/analyze", `{"text":"first"}`)
	}()

	require.Eventually(t, func() bool {
		return f.analysis.CurrentState().IsLoading
	}, 2*time.Second, 5*time.Millisecond)

	rec := f.do(http.MethodPost, "/api/analyze", `{"text":"second"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, "/api/reset", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodDelete, "/api/history", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(f.classifier.Block)

	select {
	case rec := <-first:
		assert.Equal(t, http.StatusOK, rec.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("first analysis did not finish")
	}
	assert.Equal(t, 1, f.classifier.CallCount())
}

func TestServer_Analyze_SurvivesClientDisconnect(t *testing.T) {
	f := newFixture(t, nil, services.WithLatency(200*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"text":"Shocking secret"}`)).WithContext(ctx)
	time.AfterFunc(50*time.Millisecond, cancel)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entities.AnalysisResult{Label: entities.LabelFake, Confidence: 91}, f.analysis.CurrentState())
	require.Len(t, f.analysis.History(), 1)
	assert.Equal(t, "Shocking secret", f.analysis.History()[0].Text)
}

func TestServer_CloseAbandonsRunningAnalysis(t *testing.T) {
	f := newFixture(t, nil)
	f.classifier.Block = make(chan struct{})
	defer close(f.classifier.Block)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- f.do(http.MethodPost, "/api/analyze", `{"text":"first"}`)
	}()

	require.Eventually(t, func() bool {
		return f.analysis.CurrentState().IsLoading
	}, 2*time.Second, 5*time.Millisecond)

	f.server.Close()

	select {
	case rec := <-done:
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("analysis was not abandoned")
	}
	assert.False(t, f.analysis.CurrentState().IsLoading)
	assert.Empty(t, f.analysis.History())
}

func TestServer_Archive(t *testing.T) {
	f := newFixture(t, nil)

	t.Run("invalid limit", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/archive?limit=abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty archive is an empty list", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/archive", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

func TestServer_Similar(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, handlers.NewSimilarityHandler(nil))
		rec := f.do(http.MethodGet, "/api/similar?q=cure", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("enabled", func(t *testing.T) {
		db := &mocks.VectorDB{Results: []entities.SimilarSubmission{
			{Entry: entities.HistoryEntry{ID: "1", Text: "Miracle cure"}, Score: 0.9},
		}}
		similarity := services.NewSimilarityService(&mocks.Embedder{EmbeddingResult: []float32{0.1}}, db)
		f := newFixture(t, handlers.NewSimilarityHandler(similarity))

		rec := f.do(http.MethodGet, "/api/similar?q=cure&limit=3", "")
		require.Equal(t, http.StatusOK, rec.Code)
		matches := decode[[]entities.SimilarSubmission](t, rec)
		require.Len(t, matches, 1)
		assert.InDelta(t, 0.9, matches[0].Score, 0.001)

		rec = f.do(http.MethodGet, "/api/similar", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_Events(t *testing.T) {
	f := newFixture(t, nil)
	ts := httptest.NewServer(f.handler)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() entities.AnalysisResult {
		t.Helper()
		var data []byte
		for {
			line, err := reader.ReadBytes('\n')
			require.NoError(t, err)
			line = bytes.TrimRight(line, "\n")
			if len(line) == 0 {
				break
			}
			if rest, ok := bytes.CutPrefix(line, []byte("data: ")); ok {
				data = rest
			} else {
				assert.Equal(t, "event: state", string(line))
			}
		}
		var result entities.AnalysisResult
		require.NoError(t, json.Unmarshal(data, &result))
		return result
	}

	assert.Equal(t, entities.UnsetResult(), readEvent())

	require.Eventually(t, func() bool { return f.server.broker.len() == 1 }, time.Second, 5*time.Millisecond)
	f.analysis.Submit(context.Background(), "Breaking: shocking news")

	loading := readEvent()
	assert.True(t, loading.IsLoading)

	done := readEvent()
	assert.False(t, done.IsLoading)
	assert.Equal(t, entities.LabelFake, done.Label)

	cancel()
	require.Eventually(t, func() bool { return f.server.broker.len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroker_DropsWhenFull(t *testing.T) {
	b := newBroker()
	ch := b.subscribe()

	for i := 0; i < subscriberBuffer+5; i++ {
		b.publish(entities.AnalysisResult{Confidence: i})
	}

	assert.Len(t, ch, subscriberBuffer)
	b.unsubscribe(ch)
	assert.Equal(t, 0, b.len())
}
