package analysis

import (
	"math"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
)

const (
	// DefaultSearchCents is the half-width of the search band, one semitone.
	DefaultSearchCents = 100.0
	// DefaultMinPeakRatio is the share of total spectral power a peak needs
	// before it counts as a detection (-30 dB).
	DefaultMinPeakRatio = 1e-3

	magnitudeFloor = 1e-300
)

// Spectrum is the time-averaged magnitude spectrum of a spectrogram,
// precomputed once and shared read-only by every pitch of one analysis.
type Spectrum struct {
	Magnitudes []float64
	BinWidth   float64
	TotalPower float64
}

// NewSpectrum averages all frames of s.
func NewSpectrum(s domain.Spectrogram) Spectrum {
	mags := s.MeanSpectrum()
	var total float64
	for _, m := range mags {
		total += m * m
	}
	return Spectrum{Magnitudes: mags, BinWidth: s.BinWidth, TotalPower: total}
}

// Estimator finds the dominant frequency near an expected pitch.
type Estimator struct {
	SearchCents  float64
	MinPeakRatio float64
}

// NewEstimator returns an Estimator, substituting defaults for non-positive
// values.
func NewEstimator(searchCents, minPeakRatio float64) Estimator {
	if !(searchCents > 0) {
		searchCents = DefaultSearchCents
	}
	if !(minPeakRatio > 0) {
		minPeakRatio = DefaultMinPeakRatio
	}
	return Estimator{SearchCents: searchCents, MinPeakRatio: minPeakRatio}
}

// Estimate searches the whole spectrogram for the dominant frequency within
// SearchCents of expectedHz. ok is false when nothing rises above the noise
// floor.
func (e Estimator) Estimate(s domain.Spectrogram, expectedHz float64) (float64, bool) {
	return e.EstimateBand(NewSpectrum(s), expectedHz, e.SearchCents)
}

// EstimateBand is Estimate on a precomputed spectrum with an explicit band
// half-width in cents.
//
// The candidate is the largest strict local maximum inside the band; a
// maximum pinned to the band edge belongs to a neighbouring partial and is
// not a candidate. The candidate must carry at least MinPeakRatio of the
// spectrum's total power. Its position is refined by fitting a parabola
// through the log magnitudes of the peak and its two neighbours.
func (e Estimator) EstimateBand(spec Spectrum, expectedHz, halfWidthCents float64) (float64, bool) {
	bins := len(spec.Magnitudes)
	if bins < 3 || !(spec.BinWidth > 0) || !domain.ValidFrequency(expectedHz) || !(halfWidthCents > 0) {
		return 0, false
	}
	if !(spec.TotalPower > 0) {
		return 0, false
	}

	span := math.Pow(2, halfWidthCents/1200)
	lo := int(math.Ceil(expectedHz / span / spec.BinWidth))
	hi := int(math.Floor(expectedHz * span / spec.BinWidth))
	if lo < 1 {
		lo = 1
	}
	if hi > bins-2 {
		hi = bins - 2
	}
	if lo > hi {
		return 0, false
	}

	m := spec.Magnitudes
	peak := -1
	for k := lo; k <= hi; k++ {
		if m[k] > m[k-1] && m[k] > m[k+1] && (peak < 0 || m[k] > m[peak]) {
			peak = k
		}
	}
	if peak < 0 {
		return 0, false
	}
	if m[peak]*m[peak] < e.MinPeakRatio*spec.TotalPower {
		return 0, false
	}

	return (float64(peak) + parabolicOffset(m[peak-1], m[peak], m[peak+1])) * spec.BinWidth, true
}

// parabolicOffset returns the sub-bin position of the vertex of the parabola
// through (-1, a), (0, b), (1, c) on a log scale, clamped to ±0.5.
func parabolicOffset(a, b, c float64) float64 {
	la := math.Log(math.Max(a, magnitudeFloor))
	lb := math.Log(math.Max(b, magnitudeFloor))
	lc := math.Log(math.Max(c, magnitudeFloor))

	den := la - 2*lb + lc
	if den >= 0 {
		return 0
	}
	delta := 0.5 * (la - lc) / den
	switch {
	case delta < -0.5:
		return -0.5
	case delta > 0.5:
		return 0.5
	}
	return delta
}
