package analysis

import (
	"fmt"
	"math"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
)

// Deviation returns the interval from referenceHz to observedHz in cents.
// Positive is sharp, negative is flat.
func Deviation(observedHz, referenceHz float64) (float64, error) {
	if !domain.ValidFrequency(observedHz) || !domain.ValidFrequency(referenceHz) {
		return 0, fmt.Errorf("analysis: deviation of %g Hz from %g Hz: %w", observedHz, referenceHz, domain.ErrInvalidFrequency)
	}
	return 1200 * math.Log2(observedHz/referenceHz), nil
}
