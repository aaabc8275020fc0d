package domain

import (
	"math"
	"testing"
)

func TestSentinelHelpers(t *testing.T) {
	tests := []struct {
		name      string
		v         float64
		hasResult bool
		validHz   bool
	}{
		{name: "sentinel", v: NoResult()},
		{name: "positive infinity", v: math.Inf(1)},
		{name: "zero", v: 0, hasResult: true},
		{name: "negative cents", v: -13.7, hasResult: true},
		{name: "frequency", v: 440, hasResult: true, validHz: true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := HasResult(tc.v); got != tc.hasResult {
				t.Fatalf("HasResult(%g) = %v", tc.v, got)
			}
			if got := ValidFrequency(tc.v); got != tc.validHz {
				t.Fatalf("ValidFrequency(%g) = %v", tc.v, got)
			}
			p := Nullable(tc.v)
			if tc.hasResult != (p != nil) {
				t.Fatalf("Nullable(%g) = %v", tc.v, p)
			}
			if p != nil && *p != tc.v {
				t.Fatalf("Nullable changed value: %g", *p)
			}
		})
	}
}
