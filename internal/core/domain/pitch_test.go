package domain

import (
	"errors"
	"testing"
)

func TestParsePitch(t *testing.T) {
	tests := []struct {
		in      string
		want    Pitch
		wantErr bool
	}{
		{in: "C4", want: Pitch{Class: 0, Octave: 4}},
		{in: "A4", want: Pitch{Class: 9, Octave: 4}},
		{in: "C#4", want: Pitch{Class: 1, Octave: 4}},
		{in: "Db4", want: Pitch{Class: 1, Octave: 4}},
		{in: "E♭3", want: Pitch{Class: 3, Octave: 3}},
		{in: "F♯2", want: Pitch{Class: 6, Octave: 2}},
		{in: " G5 ", want: Pitch{Class: 7, Octave: 5}},
		{in: "B#3", want: Pitch{Class: 0, Octave: 4}},
		{in: "Cb4", want: Pitch{Class: 11, Octave: 3}},
		{in: "C0", want: Pitch{Class: 0, Octave: 0}},
		{in: "B8", want: Pitch{Class: 11, Octave: 8}},
		{in: "Cb0", wantErr: true},
		{in: "B#8", wantErr: true},
		{in: "", wantErr: true},
		{in: "c4", wantErr: true},
		{in: "H2", wantErr: true},
		{in: "C", wantErr: true},
		{in: "C10", wantErr: true},
		{in: "C##4", wantErr: true},
		{in: "Cx4", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePitch(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownPitch) {
					t.Fatalf("expected ErrUnknownPitch, got %v (%+v)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestPitch_StringAndSemitone(t *testing.T) {
	p, err := ParsePitch("A#4")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := p.String(); got != "Bb4" {
		t.Fatalf("expected canonical Bb4, got %s", got)
	}
	if got := p.Semitone(); got != 58 {
		t.Fatalf("expected semitone 58, got %d", got)
	}
}
