package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/qforge-dev/qforge/internal/schema"
	"github.com/qforge-dev/qforge/internal/waveform"
)

// waveformDef builds one waveform from its HCL block. Every shape is
// rendered once at unit resolution so parameter errors surface at load
// time, not mid-run.
func (tr *translator) waveformDef(w *schema.WaveformBlock) (waveform.Signal, error) {
	sig, err := tr.buildWaveform(w)
	if err != nil {
		return nil, err
	}
	switch s := sig.(type) {
	case waveform.Waveform:
		if _, err := s.Samples(1); err != nil {
			return nil, err
		}
	case waveform.IQPair:
		if _, _, err := s.Envelopes(1); err != nil {
			return nil, err
		}
	}
	return sig, nil
}

func (tr *translator) buildWaveform(w *schema.WaveformBlock) (waveform.Signal, error) {
	switch w.Kind {
	case "square":
		var b schema.SquareBody
		if diags := gohcl.DecodeBody(w.Body, nil, &b); diags.HasErrors() {
			return nil, diags
		}
		return waveform.Square{Amplitude: b.Amplitude, Dur: b.Duration}, nil
	case "ramp":
		var b schema.RampBody
		if diags := gohcl.DecodeBody(w.Body, nil, &b); diags.HasErrors() {
			return nil, diags
		}
		return waveform.Ramp{From: b.FromAmplitude, To: b.ToAmplitude, Dur: b.Duration}, nil
	case "gaussian":
		var b schema.GaussianBody
		if diags := gohcl.DecodeBody(w.Body, nil, &b); diags.HasErrors() {
			return nil, diags
		}
		return waveform.Gaussian{Amplitude: b.Amplitude, Dur: b.Duration, NumSigmas: b.NumSigmas}, nil
	case "drag":
		var b schema.DragBody
		if diags := gohcl.DecodeBody(w.Body, nil, &b); diags.HasErrors() {
			return nil, diags
		}
		return waveform.Drag(b.Amplitude, b.Duration, b.NumSigmas, b.DragCoefficient), nil
	case "flat_top", "square_smooth":
		var b schema.FlatTopBody
		if diags := gohcl.DecodeBody(w.Body, nil, &b); diags.HasErrors() {
			return nil, diags
		}
		return waveform.FlatTop{Amplitude: b.Amplitude, Dur: b.Duration, Sigma: b.Sigma, Buffer: b.Buffer}, nil
	case "sudden_net_zero":
		var b schema.SuddenNetZeroBody
		if diags := gohcl.DecodeBody(w.Body, nil, &b); diags.HasErrors() {
			return nil, diags
		}
		return waveform.SuddenNetZero{Amplitude: b.Amplitude, B: b.B, TPhi: b.TPhi, Dur: b.Duration}, nil
	case "arbitrary":
		var b schema.ArbitraryBody
		if diags := gohcl.DecodeBody(w.Body, nil, &b); diags.HasErrors() {
			return nil, diags
		}
		return waveform.Arbitrary{Values: b.Samples, Dur: b.Duration}, nil
	case "chained":
		var b schema.ChainedBody
		if diags := gohcl.DecodeBody(w.Body, nil, &b); diags.HasErrors() {
			return nil, diags
		}
		exprs, diags := hcl.ExprList(b.Parts)
		if diags.HasErrors() {
			return nil, diags
		}
		parts := make([]waveform.Waveform, 0, len(exprs))
		for _, expr := range exprs {
			part, err := tr.realWaveformRef(expr)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		return waveform.Chained{Parts: parts}, nil
	case "pair":
		var b schema.PairBody
		if diags := gohcl.DecodeBody(w.Body, nil, &b); diags.HasErrors() {
			return nil, diags
		}
		i, err := tr.realWaveformRef(b.I)
		if err != nil {
			return nil, err
		}
		q, err := tr.realWaveformRef(b.Q)
		if err != nil {
			return nil, err
		}
		return waveform.NewIQPair(i, q)
	default:
		return nil, fmt.Errorf("unknown waveform kind %q", w.Kind)
	}
}

// realWaveformRef resolves a reference that must name a single real
// envelope, not an IQ pair.
func (tr *translator) realWaveformRef(expr hcl.Expression) (waveform.Waveform, error) {
	sig, err := tr.signalRef(expr)
	if err != nil {
		return nil, err
	}
	w, ok := sig.(waveform.Waveform)
	if !ok {
		return nil, fmt.Errorf("reference at %s names an IQ pair where a single envelope is required", expr.Range())
	}
	return w, nil
}
