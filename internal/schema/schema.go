// Package schema declares the HCL shapes of the two file kinds the loader
// accepts: program files (waveforms, variables and one program block) and
// topology files (bus blocks). The program body itself is left as a raw
// hcl.Body here; the loader walks it manually so that operation order is
// preserved across block types.
package schema

import "github.com/hashicorp/hcl/v2"

// --- Program files ---

// WaveformBlock is a named waveform definition, e.g.
// `waveform "gaussian" "x90" { ... }`. The body attributes depend on the
// kind label.
type WaveformBlock struct {
	Kind string   `hcl:"kind,label"`
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// VariableBlock declares a sweep variable and its physical domain.
type VariableBlock struct {
	Name   string `hcl:"name,label"`
	Domain string `hcl:"domain"`
}

// ProgramBlock is the single program of a file. Its body is the ordered
// operation/loop tree.
type ProgramBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// ProgramFile is the top-level structure of a program file.
type ProgramFile struct {
	Waveforms []*WaveformBlock `hcl:"waveform,block"`
	Variables []*VariableBlock `hcl:"variable,block"`
	Program   *ProgramBlock    `hcl:"program,block"`
}

// --- Topology files ---

// BusBlock maps a logical bus to an instrument port.
type BusBlock struct {
	Name       string `hcl:"name,label"`
	Instrument string `hcl:"instrument"`
	Port       int    `hcl:"port"`
	Direction  string `hcl:"direction,optional"`
}

// InstrumentBlock picks the driver, and its address if any, for one
// physical box referenced by bus blocks.
type InstrumentBlock struct {
	Name    string `hcl:"name,label"`
	Driver  string `hcl:"driver"`
	Address string `hcl:"address,optional"`
}

// TopologyFile is the top-level structure of a topology file.
type TopologyFile struct {
	Buses       []*BusBlock        `hcl:"bus,block"`
	Instruments []*InstrumentBlock `hcl:"instrument,block"`
}

// --- Per-kind waveform bodies ---

// SquareBody holds the attributes of a square waveform.
type SquareBody struct {
	Amplitude float64 `hcl:"amplitude"`
	Duration  int     `hcl:"duration"`
}

// RampBody holds the attributes of a ramp waveform.
type RampBody struct {
	FromAmplitude float64 `hcl:"from_amplitude"`
	ToAmplitude   float64 `hcl:"to_amplitude"`
	Duration      int     `hcl:"duration"`
}

// GaussianBody holds the attributes of a gaussian waveform.
type GaussianBody struct {
	Amplitude float64 `hcl:"amplitude"`
	Duration  int     `hcl:"duration"`
	NumSigmas float64 `hcl:"num_sigmas"`
}

// DragBody holds the attributes of a DRAG pair.
type DragBody struct {
	Amplitude       float64 `hcl:"amplitude"`
	Duration        int     `hcl:"duration"`
	NumSigmas       float64 `hcl:"num_sigmas"`
	DragCoefficient float64 `hcl:"drag_coefficient"`
}

// FlatTopBody holds the attributes of a flat_top (or square_smooth)
// waveform.
type FlatTopBody struct {
	Amplitude float64 `hcl:"amplitude"`
	Duration  int     `hcl:"duration"`
	Sigma     float64 `hcl:"sigma"`
	Buffer    float64 `hcl:"buffer"`
}

// SuddenNetZeroBody holds the attributes of a sudden_net_zero waveform.
type SuddenNetZeroBody struct {
	Amplitude float64 `hcl:"amplitude"`
	B         float64 `hcl:"b"`
	TPhi      int     `hcl:"t_phi"`
	Duration  int     `hcl:"duration"`
}

// ArbitraryBody holds a literal sample list.
type ArbitraryBody struct {
	Samples  []float64 `hcl:"samples"`
	Duration int       `hcl:"duration"`
}

// ChainedBody references previously defined waveforms by expression so the
// loader can resolve `waveform.<name>` in order.
type ChainedBody struct {
	Parts hcl.Expression `hcl:"parts"`
}

// PairBody couples two previously defined waveforms into an IQ pair.
type PairBody struct {
	I hcl.Expression `hcl:"i"`
	Q hcl.Expression `hcl:"q"`
}
