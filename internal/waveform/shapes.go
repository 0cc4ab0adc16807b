package waveform

import (
	"fmt"
	"math"
)

// Square is a constant-amplitude envelope.
type Square struct {
	Amplitude float64
	Dur       int
}

func (w Square) Kind() Kind    { return KindSquare }
func (w Square) Duration() int { return w.Dur }

func (w Square) Samples(resolution int) ([]float64, error) {
	n, err := sampleCount(w.Kind(), w.Dur, resolution)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = w.Amplitude
	}
	return out, nil
}

// Ramp interpolates linearly from one amplitude to another, endpoints
// included.
type Ramp struct {
	From float64
	To   float64
	Dur  int
}

func (w Ramp) Kind() Kind    { return KindRamp }
func (w Ramp) Duration() int { return w.Dur }

func (w Ramp) Samples(resolution int) ([]float64, error) {
	n, err := sampleCount(w.Kind(), w.Dur, resolution)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = w.From
		return out, nil
	}
	step := (w.To - w.From) / float64(n-1)
	for i := range out {
		out[i] = w.From + float64(i)*step
	}
	return out, nil
}

// Gaussian is a bell curve centered at duration/2 with sigma =
// duration/num_sigmas. The raw value at the truncation edge is subtracted
// and the result rescaled so the peak still reaches Amplitude.
type Gaussian struct {
	Amplitude float64
	Dur       int
	NumSigmas float64
}

func (w Gaussian) Kind() Kind    { return KindGaussian }
func (w Gaussian) Duration() int { return w.Dur }

func (w Gaussian) Samples(resolution int) ([]float64, error) {
	n, err := sampleCount(w.Kind(), w.Dur, resolution)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	if w.Amplitude == 0 || n == 0 {
		return out, nil
	}
	if w.NumSigmas <= 0 {
		return nil, fmt.Errorf("%s: num_sigmas must be positive, got %v", w.Kind(), w.NumSigmas)
	}
	mu := float64(w.Dur) / 2
	sigma := float64(w.Dur) / w.NumSigmas
	edge := gauss(0, mu, sigma)
	for i := range out {
		t := float64(i * resolution)
		out[i] = w.Amplitude * (gauss(t, mu, sigma) - edge) / (1 - edge)
	}
	return out, nil
}

// gauss is the unnormalized gaussian, 1 at the mean.
func gauss(t, mu, sigma float64) float64 {
	d := (t - mu) / sigma
	return math.Exp(-0.5 * d * d)
}

// DragCorrection is the Q-channel derivative correction paired with a
// Gaussian I channel: -coeff * (t - mu) / sigma^2 * gaussian(t).
type DragCorrection struct {
	Gaussian    Gaussian
	Coefficient float64
}

func (w DragCorrection) Kind() Kind    { return KindDragCorrection }
func (w DragCorrection) Duration() int { return w.Gaussian.Dur }

func (w DragCorrection) Samples(resolution int) ([]float64, error) {
	base, err := w.Gaussian.Samples(resolution)
	if err != nil {
		return nil, err
	}
	mu := float64(w.Gaussian.Dur) / 2
	sigma := float64(w.Gaussian.Dur) / w.Gaussian.NumSigmas
	out := make([]float64, len(base))
	for i := range base {
		t := float64(i * resolution)
		out[i] = -w.Coefficient * (t - mu) / (sigma * sigma) * base[i]
	}
	return out, nil
}

// Drag builds the usual DRAG pair: a Gaussian on I and its scaled
// derivative on Q.
func Drag(amplitude float64, duration int, numSigmas, coefficient float64) IQPair {
	g := Gaussian{Amplitude: amplitude, Dur: duration, NumSigmas: numSigmas}
	pair, _ := NewIQPair(g, DragCorrection{Gaussian: g, Coefficient: coefficient})
	return pair
}

// FlatTop is a square pulse whose edges rise and fall along an error
// function of width Sigma, leaving a flat region of duration - 2*buffer.
// SquareSmooth is the same shape under its other common name.
type FlatTop struct {
	Amplitude float64
	Dur       int
	Sigma     float64
	Buffer    float64
}

// SquareSmooth aliases FlatTop: both names appear in program files and
// render the identical erf profile.
type SquareSmooth = FlatTop

func (w FlatTop) Kind() Kind    { return KindFlatTop }
func (w FlatTop) Duration() int { return w.Dur }

func (w FlatTop) Samples(resolution int) ([]float64, error) {
	n, err := sampleCount(w.Kind(), w.Dur, resolution)
	if err != nil {
		return nil, err
	}
	if w.Sigma <= 0 {
		return nil, fmt.Errorf("%s: sigma must be positive, got %v", w.Kind(), w.Sigma)
	}
	out := make([]float64, n)
	for i := range out {
		t := float64(i * resolution)
		rise := math.Erf((t - w.Buffer) / w.Sigma)
		fall := math.Erf((float64(w.Dur) - w.Buffer - t) / w.Sigma)
		out[i] = w.Amplitude / 2 * (rise + fall)
	}
	return out, nil
}

// SuddenNetZero is the bipolar flux pulse used for net-zero two-qubit
// gates: a positive half, a one-sample transition at B*amplitude, an idle
// window of TPhi samples at zero, the mirrored transition, then the
// negative half.
type SuddenNetZero struct {
	Amplitude float64
	B         float64
	TPhi      int
	Dur       int
}

func (w SuddenNetZero) Kind() Kind    { return KindSuddenNetZero }
func (w SuddenNetZero) Duration() int { return w.Dur }

func (w SuddenNetZero) Samples(resolution int) ([]float64, error) {
	n, err := sampleCount(w.Kind(), w.Dur, resolution)
	if err != nil {
		return nil, err
	}
	if w.TPhi%resolution != 0 {
		return nil, fmt.Errorf("%s: t_phi %d / resolution %d: %w", w.Kind(), w.TPhi, resolution, ErrSampleCount)
	}
	// Two transition samples plus the idle window sit between the halves.
	half := (w.Dur - 2 - w.TPhi) / 2 / resolution
	idle := w.TPhi / resolution
	if half < 0 || 2*half+2+idle > n {
		return nil, fmt.Errorf("%s: duration %d too short for t_phi %d", w.Kind(), w.Dur, w.TPhi)
	}
	out := make([]float64, n)
	for i := 0; i < half; i++ {
		out[i] = w.Amplitude
	}
	out[half] = w.B * w.Amplitude
	out[half+1+idle] = -w.B * w.Amplitude
	for i := half + 2 + idle; i < n; i++ {
		out[i] = -w.Amplitude
	}
	return out, nil
}
