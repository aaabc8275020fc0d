package tuning

import (
	"fmt"
	"strings"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
)

type chordDefinition struct {
	name      string
	intervals []int
	score     int
}

// chordDefinitions is ordered by descending score.
var chordDefinitions = []chordDefinition{
	{"Major", []int{0, 4, 7}, 100},
	{"Minor", []int{0, 3, 7}, 99},
	{"Sus4", []int{0, 5, 7}, 95},
	{"Sus2", []int{0, 2, 7}, 94},
	{"Dominant 7th", []int{0, 4, 7, 10}, 80},
	{"Major 7th", []int{0, 4, 7, 11}, 79},
	{"Minor 7th", []int{0, 3, 7, 10}, 78},
	{"Minor Major 7th", []int{0, 3, 7, 11}, 75},
	{"Major 6th", []int{0, 4, 7, 9}, 60},
	{"Minor 6th", []int{0, 3, 7, 9}, 59},
	{"Half-Diminished 7th", []int{0, 3, 6, 10}, 55},
	{"Diminished 7th", []int{0, 3, 6, 9}, 54},
	{"Augmented", []int{0, 4, 8}, 50},
	{"Diminished", []int{0, 3, 6}, 49},
	{"Minor Augmented", []int{0, 3, 8}, 40},
}

// Chord is the result of root estimation.
type Chord struct {
	Root  int // pitch class
	Name  string
	Score int
}

func (c Chord) String() string {
	return domain.PitchClassNames[c.Root] + " " + c.Name
}

// EstimateRoot names the chord formed by the pitch classes of pitches. Each
// distinct class is tried as the root, in input order; the interval set must
// match a chord definition exactly. The highest score wins and ties keep the
// earlier candidate. ok is false for fewer than two classes or no match.
func EstimateRoot(pitches []domain.Pitch) (Chord, bool) {
	var classes []int
	seen := [12]bool{}
	for _, p := range pitches {
		if !seen[p.Class] {
			seen[p.Class] = true
			classes = append(classes, p.Class)
		}
	}
	if len(classes) < 2 {
		return Chord{}, false
	}

	best := Chord{Score: -1}
	for _, root := range classes {
		var intervals [12]bool
		for _, c := range classes {
			intervals[(c-root+12)%12] = true
		}
		for _, def := range chordDefinitions {
			if !matches(intervals, len(classes), def.intervals) {
				continue
			}
			if def.score > best.Score {
				best = Chord{Root: root, Name: def.name, Score: def.score}
			}
			break
		}
	}
	if best.Score < 0 {
		return Chord{}, false
	}
	return best, true
}

func matches(intervals [12]bool, size int, def []int) bool {
	if size != len(def) {
		return false
	}
	for _, i := range def {
		if !intervals[i] {
			return false
		}
	}
	return true
}

// TonicSource records how ChooseTonic picked the tonic.
type TonicSource string

const (
	TonicExplicit  TonicSource = "explicit"
	TonicEstimated TonicSource = "estimated"
	TonicFirst     TonicSource = "first"
)

// ChooseTonic picks the tonic for a pitch list: the explicit root when given,
// else the estimated chord root, else the first name that parses. When the
// chosen class occurs in several octaves the lowest one wins. An explicit root
// that does not parse returns an error wrapping domain.ErrUnknownPitch; ok is
// false when no name in the list parses.
func ChooseTonic(names []string, explicit string) (tonic domain.Pitch, source TonicSource, ok bool, err error) {
	if strings.TrimSpace(explicit) != "" {
		p, err := domain.ParsePitch(explicit)
		if err != nil {
			return domain.Pitch{}, "", false, fmt.Errorf("tuning: root: %w", err)
		}
		return p, TonicExplicit, true, nil
	}

	var pitches []domain.Pitch
	for _, n := range names {
		if p, err := domain.ParsePitch(n); err == nil {
			pitches = append(pitches, p)
		}
	}
	if len(pitches) == 0 {
		return domain.Pitch{}, "", false, nil
	}

	class := pitches[0].Class
	source = TonicFirst
	if chord, found := EstimateRoot(pitches); found {
		class = chord.Root
		source = TonicEstimated
	}

	tonic = domain.Pitch{Class: class, Octave: domain.MaxOctave + 1}
	for _, p := range pitches {
		if p.Class == class && p.Octave < tonic.Octave {
			tonic = p
		}
	}
	return tonic, source, true, nil
}
