package domain

import (
	"fmt"
	"math"
)

// SpectralFrame holds the magnitude spectrum of one analysis window.
// Time is the window centre in seconds.
type SpectralFrame struct {
	Time       float64
	Magnitudes []float64
}

// Spectrogram is a time-ordered magnitude STFT. Bin k of every frame sits at
// k*BinWidth Hz.
type Spectrogram struct {
	SampleRate int
	WindowSize int
	BinWidth   float64
	Frames     []SpectralFrame
}

// NewSpectrogram adapts precomputed spectrogram arrays (a frequency axis, frame
// times and one magnitude row per frame) into a Spectrogram. The frequency axis
// must start at 0 Hz and be uniformly spaced. Magnitudes are linear: a
// negative, NaN or infinite value (a dB-scaled row, say) fails with
// ErrTransform.
func NewSpectrogram(freqs, times []float64, magnitudes [][]float64) (Spectrogram, error) {
	if len(freqs) < 2 {
		return Spectrogram{}, fmt.Errorf("%w: need at least 2 frequency bins, got %d", ErrTransform, len(freqs))
	}
	if len(times) != len(magnitudes) {
		return Spectrogram{}, fmt.Errorf("%w: %d frame times for %d frames", ErrTransform, len(times), len(magnitudes))
	}
	if freqs[0] != 0 {
		return Spectrogram{}, fmt.Errorf("%w: frequency axis starts at %g Hz", ErrTransform, freqs[0])
	}

	step := freqs[1] - freqs[0]
	if !(step > 0) || math.IsInf(step, 0) {
		return Spectrogram{}, fmt.Errorf("%w: invalid bin spacing %g", ErrTransform, step)
	}
	for k := 1; k < len(freqs); k++ {
		want := float64(k) * step
		if math.Abs(freqs[k]-want) > 1e-6*math.Max(1, want) {
			return Spectrogram{}, fmt.Errorf("%w: bin %d at %g Hz breaks uniform spacing", ErrTransform, k, freqs[k])
		}
	}

	frames := make([]SpectralFrame, len(magnitudes))
	for i, row := range magnitudes {
		if len(row) != len(freqs) {
			return Spectrogram{}, fmt.Errorf("%w: frame %d has %d bins, want %d", ErrTransform, i, len(row), len(freqs))
		}
		if i > 0 && times[i] < times[i-1] {
			return Spectrogram{}, fmt.Errorf("%w: frame times are not ordered", ErrTransform)
		}
		if err := checkMagnitudes(i, row); err != nil {
			return Spectrogram{}, err
		}
		mags := make([]float64, len(row))
		copy(mags, row)
		frames[i] = SpectralFrame{Time: times[i], Magnitudes: mags}
	}

	windowSize := 2 * (len(freqs) - 1)
	return Spectrogram{
		SampleRate: int(math.Round(step * float64(windowSize))),
		WindowSize: windowSize,
		BinWidth:   step,
		Frames:     frames,
	}, nil
}

// Validate checks that every frame has the same number of bins and that all
// magnitudes are finite and non-negative.
func (s Spectrogram) Validate() error {
	bins := s.Bins()
	for i, f := range s.Frames {
		if len(f.Magnitudes) != bins {
			return fmt.Errorf("%w: frame %d has %d bins, want %d", ErrTransform, i, len(f.Magnitudes), bins)
		}
		if err := checkMagnitudes(i, f.Magnitudes); err != nil {
			return err
		}
	}
	return nil
}

func checkMagnitudes(frame int, row []float64) error {
	for k, m := range row {
		if m < 0 || math.IsNaN(m) || math.IsInf(m, 0) {
			return fmt.Errorf("%w: frame %d bin %d has magnitude %g", ErrTransform, frame, k, m)
		}
	}
	return nil
}

// Bins returns the number of frequency bins per frame.
func (s Spectrogram) Bins() int {
	if len(s.Frames) == 0 {
		return 0
	}
	return len(s.Frames[0].Magnitudes)
}

// Frequencies returns the centre frequency of every bin.
func (s Spectrogram) Frequencies() []float64 {
	freqs := make([]float64, s.Bins())
	for k := range freqs {
		freqs[k] = float64(k) * s.BinWidth
	}
	return freqs
}

// MeanSpectrum averages the magnitudes of all frames bin by bin.
func (s Spectrogram) MeanSpectrum() []float64 {
	bins := s.Bins()
	mean := make([]float64, bins)
	if bins == 0 {
		return mean
	}
	for _, f := range s.Frames {
		for k, m := range f.Magnitudes {
			mean[k] += m
		}
	}
	n := float64(len(s.Frames))
	for k := range mean {
		mean[k] /= n
	}
	return mean
}
