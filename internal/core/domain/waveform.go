package domain

import (
	"fmt"
	"math"
)

// Waveform is a decoded mono clip. SampleRate is the rate found in the
// audio itself; DeclaredSampleRate is what the caller claimed.
type Waveform struct {
	Samples            []float64
	SampleRate         int
	DeclaredSampleRate int
}

// Validate checks the buffer invariants.
func (w Waveform) Validate() error {
	if len(w.Samples) == 0 {
		return ErrEmptyAudio
	}
	if w.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrTransform, w.SampleRate)
	}
	for i, s := range w.Samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: non-finite sample at index %d", ErrTransform, i)
		}
	}
	return nil
}

// RateMismatch reports whether the caller declared a rate that differs from
// the decoded one. A zero declared rate means "unknown" and never mismatches.
func (w Waveform) RateMismatch() bool {
	return w.DeclaredSampleRate > 0 && w.DeclaredSampleRate != w.SampleRate
}

// Duration returns the clip length in seconds.
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}
