package waveform

import "fmt"

// Chained concatenates sub-waveforms back to back. Its duration is the sum
// of the children's durations and its envelope is their envelopes joined in
// order.
type Chained struct {
	Parts []Waveform
}

func (w Chained) Kind() Kind { return KindChained }

func (w Chained) Duration() int {
	total := 0
	for _, p := range w.Parts {
		total += p.Duration()
	}
	return total
}

func (w Chained) Samples(resolution int) ([]float64, error) {
	var out []float64
	for i, p := range w.Parts {
		samples, err := p.Samples(resolution)
		if err != nil {
			return nil, fmt.Errorf("chained part %d: %w", i, err)
		}
		out = append(out, samples...)
	}
	return out, nil
}

// Arbitrary wraps a literal sample sequence. The declared duration must
// match the sample count at every resolution it is rendered at.
type Arbitrary struct {
	Values []float64
	Dur    int
}

func (w Arbitrary) Kind() Kind    { return KindArbitrary }
func (w Arbitrary) Duration() int { return w.Dur }

func (w Arbitrary) Samples(resolution int) ([]float64, error) {
	n, err := sampleCount(w.Kind(), w.Dur, resolution)
	if err != nil {
		return nil, err
	}
	if n != len(w.Values) {
		return nil, fmt.Errorf("%s: %d samples declared for %d slots: %w",
			w.Kind(), len(w.Values), n, ErrSampleCount)
	}
	out := make([]float64, n)
	copy(out, w.Values)
	return out, nil
}

// IQPair couples two real envelopes into one complex control signal. Both
// components must span the same duration; NewIQPair rejects anything else.
type IQPair struct {
	I Waveform
	Q Waveform
}

// NewIQPair validates that both components cover the same time window.
func NewIQPair(i, q Waveform) (IQPair, error) {
	if i == nil || q == nil {
		return IQPair{}, fmt.Errorf("iq pair: both components are required")
	}
	if i.Duration() != q.Duration() {
		return IQPair{}, fmt.Errorf("iq pair: I spans %d but Q spans %d: %w",
			i.Duration(), q.Duration(), ErrDurationMismatch)
	}
	return IQPair{I: i, Q: q}, nil
}

// Duration reports the common duration of both components.
func (p IQPair) Duration() int { return p.I.Duration() }

// Envelopes renders both components at the given resolution.
func (p IQPair) Envelopes(resolution int) (i, q []float64, err error) {
	i, err = p.I.Samples(resolution)
	if err != nil {
		return nil, nil, err
	}
	q, err = p.Q.Samples(resolution)
	if err != nil {
		return nil, nil, err
	}
	return i, q, nil
}

// Components splits a Signal into its I and Q envelopes. A bare Waveform
// becomes the I component with a zero Q of equal duration.
func Components(s Signal) (IQPair, error) {
	switch w := s.(type) {
	case IQPair:
		return w, nil
	case Waveform:
		return NewIQPair(w, Square{Amplitude: 0, Dur: w.Duration()})
	default:
		return IQPair{}, fmt.Errorf("unsupported signal type %T", s)
	}
}
