package ports

import (
	"context"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
)

// WaveformSource decodes an encoded audio payload into mono samples.
// Implementations return errors wrapping domain.ErrDecode or
// domain.ErrEmptyAudio and never resample.
type WaveformSource interface {
	Load(ctx context.Context, raw []byte, declaredSampleRate int) (domain.Waveform, error)
}
