// Package waveform implements the analog envelope generators used by pulse
// programs: square, ramp, gaussian, DRAG, flat-top, sudden-net-zero, chained
// and arbitrary shapes, plus the IQPair coupling of two envelopes into one
// complex control signal.
//
// Durations are integer time units (hardware ns). An envelope sampled at a
// given resolution always has round(duration/resolution) samples; a
// duration that does not divide evenly by the resolution is a validation
// error, never a silent truncation.
package waveform

import (
	"errors"
	"fmt"
)

// ErrSampleCount is wrapped by every duration/resolution mismatch error.
var ErrSampleCount = errors.New("duration is not a whole number of samples")

// ErrDurationMismatch is wrapped when two envelopes that must span the same
// time window do not.
var ErrDurationMismatch = errors.New("waveform durations differ")

// Kind identifies a waveform shape. The set is closed: the compiler and the
// HCL front end both switch exhaustively over it.
type Kind int

const (
	KindSquare Kind = iota
	KindRamp
	KindGaussian
	KindDragCorrection
	KindFlatTop
	KindSuddenNetZero
	KindChained
	KindArbitrary
)

// String returns the HCL block label used for the kind.
func (k Kind) String() string {
	switch k {
	case KindSquare:
		return "square"
	case KindRamp:
		return "ramp"
	case KindGaussian:
		return "gaussian"
	case KindDragCorrection:
		return "drag_correction"
	case KindFlatTop:
		return "flat_top"
	case KindSuddenNetZero:
		return "sudden_net_zero"
	case KindChained:
		return "chained"
	case KindArbitrary:
		return "arbitrary"
	}
	return fmt.Sprintf("waveform.Kind(%d)", int(k))
}

// Waveform is one real-valued amplitude envelope. Implementations are
// immutable value types; Samples is deterministic.
type Waveform interface {
	// Kind reports the shape of the waveform.
	Kind() Kind
	// Duration reports the length of the waveform in time units.
	Duration() int
	// Samples renders the envelope at the given sampling resolution. The
	// returned slice has exactly Duration()/resolution entries.
	Samples(resolution int) ([]float64, error)
}

// Signal is the common surface of Waveform and IQPair: anything a Play
// operation can emit. The compiler only needs the time span.
type Signal interface {
	Duration() int
}

// sampleCount validates that duration divides evenly into samples of the
// given resolution and returns the sample count.
func sampleCount(kind Kind, duration, resolution int) (int, error) {
	if resolution <= 0 {
		return 0, fmt.Errorf("%s: resolution must be positive, got %d", kind, resolution)
	}
	if duration < 0 {
		return 0, fmt.Errorf("%s: duration must be non-negative, got %d", kind, duration)
	}
	if duration%resolution != 0 {
		return 0, fmt.Errorf("%s: duration %d / resolution %d: %w", kind, duration, resolution, ErrSampleCount)
	}
	return duration / resolution, nil
}
