package services

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/ersonp/newscheck/internal/domain/entities"
)

// Confidence is drawn from 60 + uniform(0, 30) and clamped to this band.
const (
	confidenceBase   = 60
	confidenceSpread = 30
	confidenceFloor  = 65
	confidenceCeil   = 95
)

// HeuristicClassifierName identifies the keyword classifier in history and logs.
const HeuristicClassifierName = "heuristic"

// HeuristicClassifier labels text by counting fake and real signal words.
type HeuristicClassifier struct {
	random func() float64
}

// NewHeuristicClassifier creates a classifier using the global random source.
func NewHeuristicClassifier() *HeuristicClassifier {
	return NewHeuristicClassifierWithRand(rand.Float64)
}

// NewHeuristicClassifierWithRand creates a classifier with a custom source of
// values in [0, 1). Used by tests to pin the confidence.
func NewHeuristicClassifierWithRand(random func() float64) *HeuristicClassifier {
	if random == nil {
		random = rand.Float64
	}
	return &HeuristicClassifier{random: random}
}

// Name returns the classifier name.
func (c *HeuristicClassifier) Name() string {
	return HeuristicClassifierName
}

// Classify labels text FAKE when it carries strictly more fake signals than
// real ones, REAL otherwise. It never fails.
func (c *HeuristicClassifier) Classify(_ context.Context, text string) (entities.Verdict, error) {
	// Simple case folding: U+0130 lowers to a plain "i", so "BREAKİNG" matches.
	lower := strings.ToLower(text)

	fakeScore, fakeMatched := CountSignals(lower, entities.FakeSignalWords)
	realScore, realMatched := CountSignals(lower, entities.RealSignalWords)

	label := entities.LabelReal
	if fakeScore > realScore {
		label = entities.LabelFake
	}

	signals := make([]string, 0, len(fakeMatched)+len(realMatched))
	signals = append(signals, fakeMatched...)
	signals = append(signals, realMatched...)

	return entities.Verdict{
		Label:      label,
		Confidence: Confidence(c.random()),
		FakeScore:  fakeScore,
		RealScore:  realScore,
		Signals:    signals,
	}, nil
}

// CountSignals returns how many of words occur as substrings of lowerText,
// each counted at most once, and which ones matched. lowerText must already
// be lower-cased.
func CountSignals(lowerText string, words []string) (int, []string) {
	var matched []string
	for _, w := range words {
		if strings.Contains(lowerText, w) {
			matched = append(matched, w)
		}
	}
	return len(matched), matched
}

// Confidence maps a value u in [0, 1) to an integer confidence in [65, 95].
func Confidence(u float64) int {
	raw := confidenceBase + u*confidenceSpread
	clamped := math.Min(math.Max(raw, confidenceFloor), confidenceCeil)
	return int(math.Round(clamped))
}
