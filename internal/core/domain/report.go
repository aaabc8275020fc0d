package domain

import "math"

// EntryStatus describes the outcome for one requested pitch.
type EntryStatus string

const (
	StatusOK           EntryStatus = "ok"
	StatusUnknownPitch EntryStatus = "unknown_pitch"
	StatusNotDetected  EntryStatus = "not_detected"
)

// EntryResult is the deviation of one requested pitch. ObservedHz and Cents
// are NaN unless Status is StatusOK; ReferenceHz is NaN for unknown pitches.
type EntryResult struct {
	Pitch            string
	Status           EntryStatus
	ReferenceHz      float64
	EqualOffsetCents float64
	ObservedHz       float64
	Cents            float64
}

// Report is the outcome of one analysis call. Deviations has one slot per
// requested pitch, in request order; NaN marks an entry without a result.
type Report struct {
	Deviations         []float64
	Entries            []EntryResult
	SampleRate         int
	DeclaredSampleRate int
	Root               string
	Diagnostics        []string
}

// NoResult is the sentinel stored in Report.Deviations for failed entries.
func NoResult() float64 {
	return math.NaN()
}

// HasResult reports whether v is a real, finite value rather than the sentinel.
func HasResult(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Nullable returns nil for the sentinel so JSON encoders emit null.
func Nullable(v float64) *float64 {
	if !HasResult(v) {
		return nil
	}
	return &v
}
