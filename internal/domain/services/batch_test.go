package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/domain/mocks"
	"github.com/ersonp/newscheck/internal/infrastructure/parsers"
)

func TestBatchService_RunPreservesOrder(t *testing.T) {
	subs := []parsers.RawSubmission{
		{Text: "BREAKING: shocking secret", Line: 1},
		{Text: "According to officials, data indicates growth", Line: 2},
		{Text: "Unbelievable scandal exposed", Line: 3},
		{Text: "Nothing to see", Line: 4},
	}

	svc := NewBatchService(NewHeuristicClassifierWithRand(func() float64 { return 0.5 }), 2, nil)

	result, err := svc.Run(t.Context(), subs)
	require.NoError(t, err)
	require.Len(t, result.Items, 4)

	labels := make([]entities.Label, len(result.Items))
	for i, item := range result.Items {
		assert.Equal(t, subs[i], item.Submission)
		assert.True(t, item.OK())
		labels[i] = item.Verdict.Label
	}
	assert.Equal(t, []entities.Label{
		entities.LabelFake,
		entities.LabelReal,
		entities.LabelFake,
		entities.LabelReal,
	}, labels)
	assert.Equal(t, 2, result.Fake)
	assert.Equal(t, 2, result.Real)
	assert.Equal(t, 0, result.Failed)
}

func TestBatchService_RunRecordsItemFailures(t *testing.T) {
	classifier := &mocks.Classifier{
		Verdict: entities.Verdict{Label: entities.LabelReal, Confidence: 70},
		ErrFor:  map[string]error{"bad": errors.New("rejected")},
	}
	svc := NewBatchService(classifier, 0, nil)

	result, err := svc.Run(t.Context(), []parsers.RawSubmission{
		{Text: "good"},
		{Text: "bad"},
		{Text: "also good"},
	})
	require.NoError(t, err)

	assert.True(t, result.Items[0].OK())
	assert.False(t, result.Items[1].OK())
	assert.EqualError(t, result.Items[1].Err, "rejected")
	assert.True(t, result.Items[2].OK())
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, result.Real)
	assert.Equal(t, 3, classifier.CallCount())
}

func TestBatchService_RunInvalidVerdictIsItemFailure(t *testing.T) {
	classifier := &mocks.Classifier{Verdict: entities.Verdict{Label: entities.LabelUnset}}
	svc := NewBatchService(classifier, 1, nil)

	result, err := svc.Run(t.Context(), []parsers.RawSubmission{{Text: "x"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
}

func TestBatchService_RunCancelled(t *testing.T) {
	classifier := &mocks.Classifier{
		Verdict: entities.Verdict{Label: entities.LabelReal, Confidence: 70},
		Block:   make(chan struct{}),
	}
	svc := NewBatchService(classifier, 2, nil)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := svc.Run(ctx, []parsers.RawSubmission{{Text: "a"}, {Text: "b"}, {Text: "c"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatchService_RunEmpty(t *testing.T) {
	svc := NewBatchService(NewHeuristicClassifier(), 4, nil)

	result, err := svc.Run(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}
