package tuning

import (
	"fmt"
	"math"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
)

// DefaultA4 is the concert pitch the product tunes to.
const DefaultA4 = 442.0

// a4Semitone is A4 on the domain.Pitch semitone axis (C0 = 0).
const a4Semitone = 4*12 + 9

// JustRatios holds the frequency ratio of each scale degree above the tonic.
var JustRatios = [12]float64{
	1,
	16.0 / 15,
	9.0 / 8,
	6.0 / 5,
	5.0 / 4,
	4.0 / 3,
	45.0 / 32,
	3.0 / 2,
	8.0 / 5,
	5.0 / 3,
	16.0 / 9,
	15.0 / 8,
}

// Reference resolves pitch names against a fixed tonic. It is immutable and
// safe for concurrent use.
type Reference struct {
	a4      float64
	tonic   domain.Pitch
	tonicHz float64
}

// NewReference builds a Reference for the given A4 frequency and tonic pitch.
func NewReference(a4 float64, tonic domain.Pitch) (*Reference, error) {
	if !domain.ValidFrequency(a4) {
		return nil, fmt.Errorf("tuning: a4 %g: %w", a4, domain.ErrInvalidFrequency)
	}
	return &Reference{
		a4:      a4,
		tonic:   tonic,
		tonicHz: EqualTemperedHz(a4, tonic),
	}, nil
}

// EqualTemperedHz returns the twelve-tone equal temperament frequency of p.
func EqualTemperedHz(a4 float64, p domain.Pitch) float64 {
	return a4 * math.Pow(2, float64(p.Semitone()-a4Semitone)/12)
}

func (r *Reference) A4() float64 { return r.a4 }

func (r *Reference) Tonic() domain.Pitch { return r.tonic }

// Resolve returns the just-intonation frequency of the named pitch.
func (r *Reference) Resolve(name string) (float64, error) {
	p, err := domain.ParsePitch(name)
	if err != nil {
		return 0, err
	}
	return r.JustHz(p), nil
}

// JustHz returns the just-intonation frequency of an already parsed pitch.
func (r *Reference) JustHz(p domain.Pitch) float64 {
	d := p.Semitone() - r.tonic.Semitone()
	degree := ((d % 12) + 12) % 12
	octaves := (d - degree) / 12
	return r.tonicHz * JustRatios[degree] * math.Pow(2, float64(octaves))
}

// EqualTempered returns the equal-tempered frequency of the named pitch.
func (r *Reference) EqualTempered(name string) (float64, error) {
	p, err := domain.ParsePitch(name)
	if err != nil {
		return 0, err
	}
	return EqualTemperedHz(r.a4, p), nil
}

// JustOffsetCents returns how far the just target sits from equal temperament.
// Positive means the just pitch is higher.
func (r *Reference) JustOffsetCents(name string) (float64, error) {
	p, err := domain.ParsePitch(name)
	if err != nil {
		return 0, err
	}
	return 1200 * math.Log2(r.JustHz(p)/EqualTemperedHz(r.a4, p)), nil
}
