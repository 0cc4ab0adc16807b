package program

import (
	"testing"

	"github.com/qforge-dev/qforge/internal/waveform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendPreservesOrder(t *testing.T) {
	p := New("order")
	p.Play("q0", waveform.Square{Amplitude: 1, Dur: 10})
	p.Wait("q0", Lit(20))
	p.Sync()

	children := p.Children()
	require.Len(t, children, 3)
	assert.IsType(t, Play{}, children[0])
	assert.IsType(t, Wait{}, children[1])
	assert.IsType(t, Sync{}, children[2])
}

func TestVariableDoubleAllocation(t *testing.T) {
	p := New("conflict")
	amp := p.Variable("amp", DomainVoltage)

	_, err := p.ForLoop(amp, 0, 1, 0.1)
	require.NoError(t, err)

	_, err = p.Loop(amp, []float64{0, 0.5, 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyAllocated)
	assert.Contains(t, err.Error(), `"amp"`)
}

func TestForLoopValues(t *testing.T) {
	p := New("sweep")
	f := p.Variable("f", DomainFrequency)
	l, err := p.ForLoop(f, 100, 500, 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 200, 300, 400, 500}, l.Values())
}

func TestForLoopValuesTruncateAtStop(t *testing.T) {
	p := New("sweep")
	amp := p.Variable("amp", DomainVoltage)
	l, err := p.ForLoop(amp, 0, 1, 0.15)
	require.NoError(t, err)

	// 0.15 does not divide the range; the sweep must stop at the last
	// point inside it rather than overshoot to 1.05.
	values := l.Values()
	require.Len(t, values, 7)
	assert.InDelta(t, 0.9, values[6], 1e-9)
	for _, v := range values {
		assert.LessOrEqual(t, v, 1.0+1e-9)
	}
}

func TestForLoopValuesDescending(t *testing.T) {
	p := New("sweep")
	f := p.Variable("f", DomainFrequency)
	l, err := p.ForLoop(f, 500, 100, -150)
	require.NoError(t, err)
	assert.Equal(t, []float64{500, 350, 200}, l.Values())
}

func TestForLoopRejectsBadStep(t *testing.T) {
	p := New("bad")
	v := p.Variable("v", DomainTime)
	_, err := NewForLoop(v, 0, 10, 0)
	require.Error(t, err)

	_, err = NewForLoop(v, 10, 0, 1)
	require.Error(t, err)

	// The failed constructors must not have claimed the variable.
	_, err = NewForLoop(v, 0, 10, 1)
	require.NoError(t, err)
}

func TestValueResolve(t *testing.T) {
	v := NewVariable("t_wait", DomainTime)
	bindings := map[*Variable]float64{v: 120}

	got, err := Ref(v).Resolve(bindings)
	require.NoError(t, err)
	assert.Equal(t, 120.0, got)

	got, err = Lit(42).Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, 42.0, got)

	_, err = Ref(NewVariable("free", DomainGain)).Resolve(bindings)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestParseDomain(t *testing.T) {
	d, err := ParseDomain("frequency")
	require.NoError(t, err)
	assert.Equal(t, DomainFrequency, d)

	_, err = ParseDomain("bananas")
	require.Error(t, err)
}

func TestLoopBodiesNest(t *testing.T) {
	p := New("nested")
	amp := p.Variable("amp", DomainVoltage)
	outer := p.Average(1000)
	inner, err := outer.ForLoop(amp, 0, 1, 0.5)
	require.NoError(t, err)
	inner.Play("q0", waveform.Square{Amplitude: 1, Dur: 8})

	require.Len(t, p.Children(), 1)
	require.Len(t, outer.Children(), 1)
	require.Len(t, inner.Children(), 1)
}
