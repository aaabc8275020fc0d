// Package tuning maps pitch names to just-intonation target frequencies.
//
// A Reference is anchored on a tonic that sounds at its equal-tempered
// frequency (derived from A4). Every other pitch is reached from the tonic
// through the 5-limit ratio of its scale degree, shifted by whole octaves:
//
//	f = tonicHz * JustRatios[d mod 12] * 2^floor(d/12)
//
// where d is the signed semitone distance from the tonic.
package tuning
