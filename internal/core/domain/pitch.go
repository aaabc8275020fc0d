package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MinOctave = 0
	MaxOctave = 8
)

// PitchClassNames spells each pitch class the way the product displays it.
var PitchClassNames = [12]string{"C", "C#", "D", "Eb", "E", "F", "F#", "G", "G#", "A", "Bb", "B"}

var letterClasses = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// Pitch is a parsed pitch label such as "C4" or "Bb3".
type Pitch struct {
	Class  int // 0..11, C = 0
	Octave int
}

// ParsePitch parses <letter><accidental?><octave>. The letter is an upper-case
// A-G, the accidental one of '#', '♯', 'b', '♭', the octave a single digit in
// [MinOctave, MaxOctave]. Enharmonic spellings across the octave boundary
// (B#3, Cb4) are normalized.
func ParsePitch(name string) (Pitch, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return Pitch{}, fmt.Errorf("%w: empty name", ErrUnknownPitch)
	}
	class, ok := letterClasses[s[0]]
	if !ok {
		return Pitch{}, fmt.Errorf("%w: %q", ErrUnknownPitch, name)
	}
	rest := s[1:]

	if r, size := utf8.DecodeRuneInString(rest); size > 0 {
		switch r {
		case '#', '♯':
			class++
			rest = rest[size:]
		case 'b', '♭':
			class--
			rest = rest[size:]
		}
	}

	if len(rest) != 1 {
		return Pitch{}, fmt.Errorf("%w: %q", ErrUnknownPitch, name)
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return Pitch{}, fmt.Errorf("%w: %q", ErrUnknownPitch, name)
	}

	semitone := octave*12 + class
	p := Pitch{Class: ((semitone % 12) + 12) % 12, Octave: floorDiv(semitone, 12)}
	if p.Octave < MinOctave || p.Octave > MaxOctave {
		return Pitch{}, fmt.Errorf("%w: %q out of range", ErrUnknownPitch, name)
	}
	return p, nil
}

// Semitone returns the absolute semitone index, C0 = 0.
func (p Pitch) Semitone() int {
	return p.Octave*12 + p.Class
}

func (p Pitch) String() string {
	return PitchClassNames[p.Class] + strconv.Itoa(p.Octave)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ValidFrequency reports whether f is a usable frequency in Hz.
func ValidFrequency(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
