package program

import "github.com/qforge-dev/qforge/internal/waveform"

// Fluent builder methods. Each appends an operation or a nested block to the
// receiver and, for blocks, returns the new block so the caller can fill its
// body.

// Play appends a play operation.
func (b *Block) Play(bus string, w waveform.Signal) {
	b.Append(Play{Bus: bus, Wave: w})
}

// Wait appends a wait operation.
func (b *Block) Wait(bus string, duration Value) {
	b.Append(Wait{Bus: bus, Duration: duration})
}

// SetFrequency appends an NCO frequency write.
func (b *Block) SetFrequency(bus string, value Value) {
	b.Append(SetFrequency{Bus: bus, Value: value})
}

// SetPhase appends an NCO phase write.
func (b *Block) SetPhase(bus string, value Value) {
	b.Append(SetPhase{Bus: bus, Value: value})
}

// ResetPhase appends an NCO phase reset.
func (b *Block) ResetPhase(bus string) {
	b.Append(ResetPhase{Bus: bus})
}

// SetGain appends an AWG gain write.
func (b *Block) SetGain(bus string, value Value) {
	b.Append(SetGain{Bus: bus, Value: value})
}

// SetOffset appends an AWG offset write.
func (b *Block) SetOffset(bus string, value Value) {
	b.Append(SetOffset{Bus: bus, Value: value})
}

// Sync appends a clock barrier over the named buses, or over all buses when
// called without names.
func (b *Block) Sync(buses ...string) {
	b.Append(Sync{Names: buses})
}

// Acquire appends an acquisition window.
func (b *Block) Acquire(bus string, duration Value) {
	b.Append(Acquire{Bus: bus, Duration: duration})
}

// Measure appends a combined play-and-acquire.
func (b *Block) Measure(bus string, w waveform.Signal) {
	b.Append(Measure{Bus: bus, Wave: w})
}

// ForLoop appends a literal sweep and returns it for body building.
func (b *Block) ForLoop(v *Variable, start, stop, step float64) (*ForLoop, error) {
	l, err := NewForLoop(v, start, stop, step)
	if err != nil {
		return nil, err
	}
	b.Append(l)
	return l, nil
}

// Loop appends an explicit-value sweep and returns it for body building.
func (b *Block) Loop(v *Variable, values []float64) (*Loop, error) {
	l, err := NewLoop(v, values)
	if err != nil {
		return nil, err
	}
	b.Append(l)
	return l, nil
}

// Parallel appends a lockstep sweep and returns it for body building.
func (b *Block) Parallel(loops []*ForLoop) (*Parallel, error) {
	p, err := NewParallel(loops)
	if err != nil {
		return nil, err
	}
	b.Append(p)
	return p, nil
}

// Average appends a hardware-averaged repetition and returns it.
func (b *Block) Average(shots int) *Average {
	a := &Average{Shots: shots}
	b.Append(a)
	return a
}

// AcquireLoop appends a binned hardware repetition and returns it.
func (b *Block) AcquireLoop(shots int) *AcquireLoop {
	a := &AcquireLoop{Shots: shots}
	b.Append(a)
	return a
}
