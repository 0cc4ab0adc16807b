package program

import "github.com/qforge-dev/qforge/internal/waveform"

// Operation is a leaf of the program tree describing one bus-addressed
// action.
type Operation interface {
	Element
	// Buses lists the buses the operation touches.
	Buses() []string
}

// Play emits a waveform (or IQ pair) on a bus at the bus's current clock.
type Play struct {
	Bus  string
	Wave waveform.Signal
}

// Wait advances a bus's clock without emitting anything.
type Wait struct {
	Bus      string
	Duration Value
}

// SetFrequency retunes the bus's NCO, in Hz.
type SetFrequency struct {
	Bus   string
	Value Value
}

// SetPhase sets the NCO phase, in degrees.
type SetPhase struct {
	Bus   string
	Value Value
}

// ResetPhase zeroes the NCO phase accumulator.
type ResetPhase struct {
	Bus string
}

// SetGain writes the AWG output gain register, -1..1.
type SetGain struct {
	Bus   string
	Value Value
}

// SetOffset writes the AWG DC offset register, -1..1.
type SetOffset struct {
	Bus   string
	Value Value
}

// Sync barriers the clocks of the named buses, or of every bus in the
// topology when none are named.
type Sync struct {
	Names []string
}

// Acquire opens an acquisition window on a readout bus for the given
// integration length.
type Acquire struct {
	Bus      string
	Duration Value
}

// Measure plays a readout pulse and acquires over its full duration in one
// operation.
type Measure struct {
	Bus  string
	Wave waveform.Signal
}

func (Play) element()         {}
func (Wait) element()         {}
func (SetFrequency) element() {}
func (SetPhase) element()     {}
func (ResetPhase) element()   {}
func (SetGain) element()      {}
func (SetOffset) element()    {}
func (Sync) element()         {}
func (Acquire) element()      {}
func (Measure) element()      {}

func (o Play) Buses() []string         { return []string{o.Bus} }
func (o Wait) Buses() []string         { return []string{o.Bus} }
func (o SetFrequency) Buses() []string { return []string{o.Bus} }
func (o SetPhase) Buses() []string     { return []string{o.Bus} }
func (o ResetPhase) Buses() []string   { return []string{o.Bus} }
func (o SetGain) Buses() []string      { return []string{o.Bus} }
func (o SetOffset) Buses() []string    { return []string{o.Bus} }
func (o Sync) Buses() []string         { return o.Names }
func (o Acquire) Buses() []string      { return []string{o.Bus} }
func (o Measure) Buses() []string      { return []string{o.Bus} }
