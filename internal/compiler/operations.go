package compiler

import (
	"fmt"
	"math"

	"github.com/qforge-dev/qforge/internal/program"
	"github.com/qforge-dev/qforge/internal/schedule"
	"github.com/qforge-dev/qforge/internal/waveform"
)

// operation lowers a single leaf operation at the current clocks.
func (ps *pass) operation(op program.Operation) error {
	switch o := op.(type) {
	case program.Play:
		return ps.play(o.Bus, o.Wave)
	case program.Wait:
		return ps.wait(o.Bus, o.Duration)
	case program.SetFrequency:
		return ps.write(o.Bus, schedule.EventSetFrequency, o.Value)
	case program.SetPhase:
		return ps.write(o.Bus, schedule.EventSetPhase, o.Value)
	case program.ResetPhase:
		bus, err := ps.bus(o.Bus)
		if err != nil {
			return err
		}
		ps.append(bus, schedule.Event{Kind: schedule.EventResetPhase, Start: ps.clocks[bus]})
		return nil
	case program.SetGain:
		return ps.write(o.Bus, schedule.EventSetGain, o.Value)
	case program.SetOffset:
		return ps.write(o.Bus, schedule.EventSetOffset, o.Value)
	case program.Sync:
		return ps.sync(o.Names)
	case program.Acquire:
		return ps.acquire(o.Bus, o.Duration)
	case program.Measure:
		if err := ps.play(o.Bus, o.Wave); err != nil {
			return err
		}
		// The acquisition window covers the readout pulse that play just
		// scheduled; rewind its clock advance so both share a start.
		ps.clocks[o.Bus] -= int64(o.Wave.Duration())
		return ps.acquire(o.Bus, program.Lit(float64(o.Wave.Duration())))
	default:
		return fmt.Errorf("unsupported operation %T", op)
	}
}

// bus validates a bus reference against the topology.
func (ps *pass) bus(name string) (string, error) {
	if _, ok := ps.topo.Bus(name); !ok {
		return "", fmt.Errorf("bus %q: %w", name, ErrUnknownBus)
	}
	return name, nil
}

// timeline returns the bus timeline, creating it on first use so that
// acquisition-only buses still appear in the schedule.
func (ps *pass) timeline(bus string) *schedule.BusSchedule {
	bs, ok := ps.out.Buses[bus]
	if !ok {
		topoBus, _ := ps.topo.Bus(bus)
		bs = &schedule.BusSchedule{Bus: bus, Port: topoBus.Port}
		ps.out.Buses[bus] = bs
	}
	return bs
}

// append adds an event to the bus timeline. Clocks never run backwards, so
// appended events stay start-ordered.
func (ps *pass) append(bus string, e schedule.Event) {
	bs := ps.timeline(bus)
	bs.Events = append(bs.Events, e)
}

func (ps *pass) play(busName string, wave waveform.Signal) error {
	bus, err := ps.bus(busName)
	if err != nil {
		return fmt.Errorf("play: %w", err)
	}
	// Render once at the target resolution so sample-count mismatches
	// surface here, at the offending play, instead of during assembly.
	pair, err := waveform.Components(wave)
	if err != nil {
		return fmt.Errorf("play on %q at t=%d: %w", bus, ps.clocks[bus], err)
	}
	if _, _, err := pair.Envelopes(ps.settings.Resolution); err != nil {
		return fmt.Errorf("play on %q at t=%d: %w", bus, ps.clocks[bus], err)
	}
	dur := int64(wave.Duration())
	ps.append(bus, schedule.Event{
		Kind:     schedule.EventPulse,
		Start:    ps.clocks[bus],
		Duration: dur,
		Wave:     wave,
	})
	ps.clocks[bus] += dur
	return nil
}

func (ps *pass) wait(busName string, duration program.Value) error {
	bus, err := ps.bus(busName)
	if err != nil {
		return fmt.Errorf("wait: %w", err)
	}
	d, err := ps.duration(duration)
	if err != nil {
		return fmt.Errorf("wait on %q: %w", bus, err)
	}
	if d < ps.settings.MinWait {
		d = ps.settings.MinWait
	}
	ps.clocks[bus] += d
	return nil
}

func (ps *pass) write(busName string, kind schedule.EventKind, value program.Value) error {
	bus, err := ps.bus(busName)
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	v, err := value.Resolve(ps.bindings)
	if err != nil {
		return fmt.Errorf("%s on %q: %w", kind, bus, err)
	}
	ps.append(bus, schedule.Event{Kind: kind, Start: ps.clocks[bus], Value: v})
	return nil
}

// sync raises the clocks of the named buses, or of every topology bus when
// none are named, to the group's maximum.
func (ps *pass) sync(names []string) error {
	if len(names) == 0 {
		names = ps.topo.Names()
	}
	var max int64
	for _, name := range names {
		bus, err := ps.bus(name)
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		if ps.clocks[bus] > max {
			max = ps.clocks[bus]
		}
	}
	for _, name := range names {
		ps.clocks[name] = max
	}
	return nil
}

func (ps *pass) acquire(busName string, duration program.Value) error {
	bus, err := ps.bus(busName)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	d, err := ps.duration(duration)
	if err != nil {
		return fmt.Errorf("acquire on %q: %w", bus, err)
	}
	ps.timeline(bus)
	ps.out.Acquisitions = append(ps.out.Acquisitions, schedule.Acquisition{
		Bus:               bus,
		Start:             ps.clocks[bus],
		IntegrationLength: d,
		Bins:              ps.bins,
	})
	ps.clocks[bus] += d
	return nil
}

// duration resolves a time-valued parameter to whole time units.
func (ps *pass) duration(value program.Value) (int64, error) {
	f, err := value.Resolve(ps.bindings)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("negative duration %v", f)
	}
	return int64(math.Round(f)), nil
}
