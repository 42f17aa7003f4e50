// Package entities contains core domain data structures.
package entities

import (
	"fmt"
	"strings"
)

// Label is the classification outcome for a piece of text.
type Label string

// Known labels. LabelUnset means no analysis has completed yet.
const (
	LabelUnset Label = "unset"
	LabelReal  Label = "real"
	LabelFake  Label = "fake"
)

// Confidence bounds for any AnalysisResult.
const (
	MinConfidence = 0
	MaxConfidence = 100
)

// ParseLabel converts a string to a Label, case-insensitively.
// An empty string parses as LabelUnset.
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(LabelUnset):
		return LabelUnset, nil
	case string(LabelReal):
		return LabelReal, nil
	case string(LabelFake):
		return LabelFake, nil
	default:
		return LabelUnset, fmt.Errorf("unknown label %q", s)
	}
}

// String returns the upper-case display form of the label.
func (l Label) String() string {
	if l == "" {
		return strings.ToUpper(string(LabelUnset))
	}
	return strings.ToUpper(string(l))
}

// IsSet reports whether the label carries a verdict.
func (l Label) IsSet() bool {
	return l == LabelReal || l == LabelFake
}

// AnalysisResult is the observable state of the current analysis.
// It is a plain value; copies never share memory.
type AnalysisResult struct {
	Label      Label `json:"label"`
	Confidence int   `json:"confidence"`
	IsLoading  bool  `json:"is_loading"`
}

// UnsetResult returns the initial state: no label, zero confidence, idle.
func UnsetResult() AnalysisResult {
	return AnalysisResult{Label: LabelUnset}
}

// HasVerdict reports whether the result holds a completed classification.
func (r AnalysisResult) HasVerdict() bool {
	return r.Label.IsSet()
}

// Verdict is what a classifier returns for one text.
// Only Label and Confidence flow into the AnalysisResult; the rest is diagnostic.
type Verdict struct {
	Label      Label    `json:"label"`
	Confidence int      `json:"confidence"`
	FakeScore  int      `json:"fake_score"`
	RealScore  int      `json:"real_score"`
	Signals    []string `json:"signals,omitempty"`
}

// Validate checks that the verdict carries a usable label and an in-range confidence.
func (v Verdict) Validate() error {
	if !v.Label.IsSet() {
		return fmt.Errorf("verdict has no label")
	}
	if v.Confidence < MinConfidence || v.Confidence > MaxConfidence {
		return fmt.Errorf("confidence %d out of range [%d, %d]", v.Confidence, MinConfidence, MaxConfidence)
	}
	return nil
}
