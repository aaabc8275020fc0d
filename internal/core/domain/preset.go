package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxPresetNameLength = 30
	MaxPresets          = 20
)

var (
	ErrDuplicatePitch = errors.New("domain: duplicate pitch")
	ErrInvalidPreset  = errors.New("domain: invalid preset")
	ErrPresetLimit    = errors.New("domain: preset limit reached")
)

// Preset is a saved pitch set that can be analyzed by id.
type Preset struct {
	ID        string
	Name      string
	Pitches   []string
	Root      string // optional; empty means "estimate"
	CreatedAt time.Time
}

func NewPreset(id, name string) (*Preset, error) {
	name = strings.TrimSpace(name)
	if id == "" || name == "" || utf8.RuneCountInString(name) > MaxPresetNameLength {
		return nil, ErrInvalidPreset
	}
	return &Preset{
		ID:      id,
		Name:    name,
		Pitches: []string{},
	}, nil
}

// AddPitch appends a pitch to the preset. The name must parse, and a pitch
// already present under any enharmonic spelling returns ErrDuplicatePitch.
func (p *Preset) AddPitch(name string) error {
	pitch, err := ParsePitch(name)
	if err != nil {
		return err
	}
	for _, ex := range p.Pitches {
		if existing, err := ParsePitch(ex); err == nil && existing == pitch {
			return ErrDuplicatePitch
		}
	}
	p.Pitches = append(p.Pitches, strings.TrimSpace(name))
	return nil
}

// SetRoot records an explicit tonic. An empty root clears it.
func (p *Preset) SetRoot(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		p.Root = ""
		return nil
	}
	if _, err := ParsePitch(name); err != nil {
		return err
	}
	p.Root = name
	return nil
}
