package compiler

import (
	"context"
	"testing"

	"github.com/qforge-dev/qforge/internal/config"
	"github.com/qforge-dev/qforge/internal/program"
	"github.com/qforge-dev/qforge/internal/schedule"
	"github.com/qforge-dev/qforge/internal/waveform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTopology is a two-qubit line with one shared readout bus.
func testTopology() config.Topology {
	return config.Topology{Buses: map[string]config.Bus{
		"q0_drive":   {Name: "q0_drive", Port: 0, Instrument: "awg-0", Direction: config.DirectionDrive},
		"q1_drive":   {Name: "q1_drive", Port: 1, Instrument: "awg-0", Direction: config.DirectionDrive},
		"q0_readout": {Name: "q0_readout", Port: 0, Instrument: "dig-0", Direction: config.DirectionReadout},
	}}
}

func compile(t *testing.T, p *program.Program) *schedule.Schedule {
	t.Helper()
	c, err := New(testTopology(), config.DefaultSettings())
	require.NoError(t, err)
	s, err := c.Compile(context.Background(), p)
	require.NoError(t, err)
	return s
}

func TestWaitThenPlay(t *testing.T) {
	p := program.New("wait-play")
	p.Wait("q0_drive", program.Lit(50))
	p.Play("q0_drive", waveform.Square{Amplitude: 1, Dur: 20})

	s := compile(t, p)
	require.Contains(t, s.Buses, "q0_drive")
	events := s.Buses["q0_drive"].Events
	require.Len(t, events, 1)
	assert.Equal(t, schedule.EventPulse, events[0].Kind)
	assert.Equal(t, int64(50), events[0].Start)
	assert.Equal(t, int64(20), events[0].Duration)
}

func TestSyncRaisesClocks(t *testing.T) {
	p := program.New("sync")
	p.Play("q1_drive", waveform.Square{Amplitude: 1, Dur: 100})
	p.Play("q0_drive", waveform.Square{Amplitude: 1, Dur: 20})
	p.Sync("q0_drive", "q1_drive")
	p.Play("q0_drive", waveform.Square{Amplitude: 1, Dur: 10})

	s := compile(t, p)
	events := s.Buses["q0_drive"].Events
	require.Len(t, events, 2)
	// q1 was ahead at t=100; the post-sync play on q0 must not start
	// before that.
	assert.GreaterOrEqual(t, events[1].Start, int64(100))
}

func TestSyncAllBusesWhenUnnamed(t *testing.T) {
	p := program.New("sync-all")
	p.Play("q1_drive", waveform.Square{Amplitude: 1, Dur: 80})
	p.Sync()
	p.Play("q0_readout", waveform.Square{Amplitude: 0.2, Dur: 10})

	s := compile(t, p)
	events := s.Buses["q0_readout"].Events
	require.Len(t, events, 1)
	assert.Equal(t, int64(80), events[0].Start)
}

func TestSyncUnknownBus(t *testing.T) {
	p := program.New("bad-sync")
	p.Sync("q0_drive", "q9_drive")

	c, err := New(testTopology(), config.DefaultSettings())
	require.NoError(t, err)
	_, err = c.Compile(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownBus)
	assert.Contains(t, err.Error(), `"q9_drive"`)
}

func TestUnknownBusOnPlay(t *testing.T) {
	p := program.New("bad-play")
	p.Play("nope", waveform.Square{Amplitude: 1, Dur: 4})

	c, err := New(testTopology(), config.DefaultSettings())
	require.NoError(t, err)
	_, err = c.Compile(context.Background(), p)
	assert.ErrorIs(t, err, ErrUnknownBus)
}

func TestForLoopBindsVariable(t *testing.T) {
	p := program.New("gain-sweep")
	gain := p.Variable("gain", program.DomainGain)
	loop, err := p.ForLoop(gain, 0, 1, 0.25)
	require.NoError(t, err)
	loop.SetGain("q0_drive", program.Ref(gain))
	loop.Play("q0_drive", waveform.Square{Amplitude: 1, Dur: 8})

	s := compile(t, p)
	events := s.Buses["q0_drive"].Events
	require.Len(t, events, 10) // 5 iterations x (gain write + pulse)

	var gains []float64
	var lastStart int64 = -1
	for _, e := range events {
		require.GreaterOrEqual(t, e.Start, lastStart, "events must stay time-ordered")
		lastStart = e.Start
		if e.Kind == schedule.EventSetGain {
			gains = append(gains, e.Value)
		}
	}
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, gains)
}

func TestPlayValidatesWaveformAtCompileTime(t *testing.T) {
	// A 21-sample square cannot render at resolution 2; the compile must
	// fail at the play, not later during assembly.
	c, err := New(testTopology(), config.Settings{Resolution: 2, MinWait: 4})
	require.NoError(t, err)

	p := program.New("bad-wave")
	p.Play("q0_drive", waveform.Square{Amplitude: 1, Dur: 21})

	_, err = c.Compile(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, waveform.ErrSampleCount)
	assert.Contains(t, err.Error(), "q0_drive")
}

func TestUnresolvedVariable(t *testing.T) {
	p := program.New("unresolved")
	free := p.Variable("t_wait", program.DomainTime)
	p.Wait("q0_drive", program.Ref(free))

	c, err := New(testTopology(), config.DefaultSettings())
	require.NoError(t, err)
	_, err = c.Compile(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, program.ErrUnresolved)
	assert.Contains(t, err.Error(), `"t_wait"`)
}

func TestParallelLockstep(t *testing.T) {
	p := program.New("two-tone")
	f := p.Variable("freq", program.DomainFrequency)
	a := p.Variable("amp", program.DomainVoltage)
	lf, err := program.NewForLoop(f, 100, 300, 100)
	require.NoError(t, err)
	la, err := program.NewForLoop(a, 0.1, 0.3, 0.1)
	require.NoError(t, err)
	par, err := p.Parallel([]*program.ForLoop{lf, la})
	require.NoError(t, err)
	par.SetFrequency("q0_drive", program.Ref(f))
	par.SetGain("q1_drive", program.Ref(a))

	s := compile(t, p)
	require.Len(t, s.Buses["q0_drive"].Events, 3)
	require.Len(t, s.Buses["q1_drive"].Events, 3)
	assert.Equal(t, 200.0, s.Buses["q0_drive"].Events[1].Value)
	assert.InDelta(t, 0.2, s.Buses["q1_drive"].Events[1].Value, 1e-9)
}

func TestParallelMismatchFailsBeforeEmission(t *testing.T) {
	p := program.New("mismatch")
	f := p.Variable("freq", program.DomainFrequency)
	a := p.Variable("amp", program.DomainVoltage)
	lf, err := program.NewForLoop(f, 100, 300, 100) // 3 iterations
	require.NoError(t, err)
	la, err := program.NewForLoop(a, 0, 1, 0.25) // 5 iterations
	require.NoError(t, err)
	par, err := p.Parallel([]*program.ForLoop{lf, la})
	require.NoError(t, err)
	par.Play("q0_drive", waveform.Square{Amplitude: 1, Dur: 4})

	c, err := New(testTopology(), config.DefaultSettings())
	require.NoError(t, err)
	_, err = c.Compile(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParallelMismatch)
}

func TestAverageAndAcquireLoopStayHardwareSide(t *testing.T) {
	p := program.New("t1")
	wait := p.Variable("t_wait", program.DomainTime)
	avg := p.Average(1000)
	sweep, err := avg.ForLoop(wait, 4, 12, 4)
	require.NoError(t, err)
	sweep.Play("q0_drive", waveform.Square{Amplitude: 1, Dur: 20})
	sweep.Wait("q0_drive", program.Ref(wait))
	sweep.Sync("q0_drive", "q0_readout")
	sweep.Measure("q0_readout", waveform.Square{Amplitude: 0.3, Dur: 100})

	s := compile(t, p)
	// Shots come from the hardware repeat, not from unrolled events.
	assert.Equal(t, 1000, s.Shots)
	assert.Equal(t, 1, s.Bins)
	assert.Len(t, s.Acquisitions, 3)
	require.Len(t, s.Buses["q0_drive"].Events, 3)

	// Measure schedules pulse and window at the same start time.
	readout := s.Buses["q0_readout"].Events
	require.Len(t, readout, 3)
	for i, acq := range s.Acquisitions {
		assert.Equal(t, readout[i].Start, acq.Start)
		assert.Equal(t, int64(100), acq.IntegrationLength)
	}
}

func TestAcquireLoopBins(t *testing.T) {
	p := program.New("binned")
	loop := p.AcquireLoop(200)
	loop.Play("q0_readout", waveform.Square{Amplitude: 0.2, Dur: 40})
	loop.Acquire("q0_readout", program.Lit(2000))

	s := compile(t, p)
	assert.Equal(t, 200, s.Shots)
	assert.Equal(t, 200, s.Bins)
	require.Len(t, s.Acquisitions, 1)
	assert.Equal(t, 200, s.Acquisitions[0].Bins)
	assert.Equal(t, int64(40), s.Acquisitions[0].Start)
	assert.Equal(t, int64(2000), s.Acquisitions[0].IntegrationLength)
}

func TestMinWaitStretch(t *testing.T) {
	p := program.New("short-wait")
	p.Wait("q0_drive", program.Lit(1))
	p.Play("q0_drive", waveform.Square{Amplitude: 1, Dur: 4})

	s := compile(t, p)
	events := s.Buses["q0_drive"].Events
	require.Len(t, events, 1)
	assert.Equal(t, int64(4), events[0].Start) // stretched to MinWait
}

func TestInvalidTopologyRejected(t *testing.T) {
	topo := config.Topology{Buses: map[string]config.Bus{
		"a": {Name: "a", Port: 0, Instrument: "awg-0"},
		"b": {Name: "b", Port: 0, Instrument: "awg-0"},
	}}
	_, err := New(topo, config.DefaultSettings())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already mapped")
}
