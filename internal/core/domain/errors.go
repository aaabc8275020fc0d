package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("domain: not found")
	ErrDecode           = errors.New("domain: audio could not be decoded")
	ErrEmptyAudio       = errors.New("domain: decoded audio is empty")
	ErrTransform        = errors.New("domain: spectral transform failed")
	ErrUnknownPitch     = errors.New("domain: unknown pitch name")
	ErrInvalidFrequency = errors.New("domain: frequency must be positive and finite")
)

// ErrorKind classifies a failure that aborts a whole analysis call.
type ErrorKind string

const (
	KindDecode      ErrorKind = "DECODE_ERROR"
	KindEmptyAudio  ErrorKind = "EMPTY_AUDIO"
	KindTransform   ErrorKind = "TRANSFORM_ERROR"
	KindUnknownRoot ErrorKind = "UNKNOWN_ROOT"
)

// AnalysisError is returned when the input as a whole cannot be analyzed.
// Errors tied to a single requested pitch never surface as AnalysisError;
// they are reported on the entry instead.
type AnalysisError struct {
	Kind ErrorKind
	Err  error
}

func (e *AnalysisError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// NewAnalysisError wraps err with the kind matching its sentinel.
func NewAnalysisError(err error) *AnalysisError {
	kind := KindTransform
	switch {
	case errors.Is(err, ErrDecode):
		kind = KindDecode
	case errors.Is(err, ErrEmptyAudio):
		kind = KindEmptyAudio
	case errors.Is(err, ErrUnknownPitch):
		kind = KindUnknownRoot
	}
	return &AnalysisError{Kind: kind, Err: err}
}
