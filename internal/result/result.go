// Package result parses raw acquisition buffers into typed results. Digitizer
// firmware returns fixed-size buffers padded with NaN; parsing strips the
// padding, pairs I with Q per bin and derives state probabilities from the
// per-shot thresholds. Results are read-only once constructed.
package result

import (
	"fmt"
	"math"
)

// Buffer is the raw per-acquisition payload a driver hands back.
type Buffer struct {
	Bus string `json:"bus"`
	// I and Q are per-bin integrated quadratures, possibly NaN-padded.
	I []float64 `json:"i"`
	Q []float64 `json:"q"`
	// Threshold is the per-bin fraction of shots classified as excited,
	// possibly NaN-padded.
	Threshold []float64 `json:"threshold"`
}

// IQ is one demodulated, integrated point.
type IQ struct {
	I float64 `json:"i"`
	Q float64 `json:"q"`
}

// BinResult is the parsed form of one binned acquisition.
type BinResult struct {
	bus        string
	points     []IQ
	thresholds []float64
}

// NewBinResult strips NaN padding and pairs the quadratures. The I and Q
// streams must agree on bin count after stripping.
func NewBinResult(buf Buffer) (*BinResult, error) {
	i := stripNaN(buf.I)
	q := stripNaN(buf.Q)
	if len(i) != len(q) {
		return nil, fmt.Errorf("acquisition on %q: %d I bins but %d Q bins", buf.Bus, len(i), len(q))
	}
	points := make([]IQ, len(i))
	for n := range i {
		points[n] = IQ{I: i[n], Q: q[n]}
	}
	return &BinResult{
		bus:        buf.Bus,
		points:     points,
		thresholds: stripNaN(buf.Threshold),
	}, nil
}

// Bus names the readout bus the acquisition ran on.
func (r *BinResult) Bus() string { return r.bus }

// Acquisitions returns one IQ point per bin.
func (r *BinResult) Acquisitions() []IQ {
	out := make([]IQ, len(r.points))
	copy(out, r.points)
	return out
}

// Probabilities returns the ground and excited state populations averaged
// over all bins.
func (r *BinResult) Probabilities() (p0, p1 float64) {
	if len(r.thresholds) == 0 {
		return 0, 0
	}
	var sum float64
	for _, t := range r.thresholds {
		sum += t
	}
	p1 = sum / float64(len(r.thresholds))
	return 1 - p1, p1
}

// ScopeResult is the parsed form of one raw-trace acquisition.
type ScopeResult struct {
	bus string
	i   []float64
	q   []float64
}

// NewScopeResult strips NaN padding from both trace paths.
func NewScopeResult(buf Buffer) (*ScopeResult, error) {
	i := stripNaN(buf.I)
	q := stripNaN(buf.Q)
	if len(i) != len(q) {
		return nil, fmt.Errorf("scope trace on %q: %d I samples but %d Q samples", buf.Bus, len(i), len(q))
	}
	return &ScopeResult{bus: buf.Bus, i: i, q: q}, nil
}

// Bus names the readout bus the trace was captured on.
func (r *ScopeResult) Bus() string { return r.bus }

// Acquisitions returns the trace as IQ samples.
func (r *ScopeResult) Acquisitions() []IQ {
	out := make([]IQ, len(r.i))
	for n := range r.i {
		out[n] = IQ{I: r.i[n], Q: r.q[n]}
	}
	return out
}

// stripNaN drops the trailing NaN padding a fixed-size hardware buffer
// carries. Interior NaNs are padding artifacts too and are dropped alike.
func stripNaN(samples []float64) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if math.IsNaN(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}
