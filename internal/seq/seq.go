// Package seq lowers one bus schedule into the flat instruction list an AWG
// sequencer consumes: register writes, timed plays, waits, acquisitions and
// one hardware repeat loop carrying the shot count. Shot repetition is
// always a loop instruction, never an unrolled timeline.
package seq

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/qforge-dev/qforge/internal/schedule"
	"github.com/qforge-dev/qforge/internal/waveform"
)

// OpCode enumerates the sequencer instruction set.
type OpCode int

const (
	OpMove OpCode = iota
	OpWaitSync
	OpSetFreq
	OpSetPhase
	OpResetPhase
	OpSetAwgGain
	OpSetAwgOffs
	OpPlay
	OpWait
	OpAcquire
	OpLoop
	OpStop
)

var mnemonics = map[OpCode]string{
	OpMove:       "move",
	OpWaitSync:   "wait_sync",
	OpSetFreq:    "set_freq",
	OpSetPhase:   "set_ph",
	OpResetPhase: "reset_ph",
	OpSetAwgGain: "set_awg_gain",
	OpSetAwgOffs: "set_awg_offs",
	OpPlay:       "play",
	OpWait:       "wait",
	OpAcquire:    "acquire",
	OpLoop:       "loop",
	OpStop:       "stop",
}

func (c OpCode) String() string {
	if m, ok := mnemonics[c]; ok {
		return m
	}
	return fmt.Sprintf("seq.OpCode(%d)", int(c))
}

// Hardware register units.
const (
	// freqSteps is sequencer steps per Hz (0.25 Hz resolution).
	freqSteps = 4
	// phaseSteps is sequencer steps per full turn.
	phaseSteps = 1e9
	// gainMax is the full-scale fixed-point gain/offset value.
	gainMax = 32767
)

// Instr is one sequencer instruction. Target names the label a loop jumps
// back to.
type Instr struct {
	Op     OpCode
	Args   []int64
	Target string
}

// Wave is one envelope pair uploaded alongside the instruction stream.
type Wave struct {
	Name string
	I    []float64
	Q    []float64
}

// Sequence is the lowered form of one bus timeline.
type Sequence struct {
	Bus       string
	Port      int
	Shots     int
	Instrs    []Instr
	Waveforms []Wave
}

// Assemble lowers a bus schedule plus its acquisition windows. Waveforms
// with identical envelopes share one upload slot.
func Assemble(bs *schedule.BusSchedule, acqs []schedule.Acquisition, shots, resolution int) (*Sequence, error) {
	if shots < 1 {
		shots = 1
	}
	s := &Sequence{Bus: bs.Bus, Port: bs.Port, Shots: shots}
	slots := make(map[uint64]int)

	type item struct {
		start int64
		event *schedule.Event
		acq   *schedule.Acquisition
		order int
	}
	items := make([]item, 0, len(bs.Events)+len(acqs))
	for i := range bs.Events {
		items = append(items, item{start: bs.Events[i].Start, event: &bs.Events[i], order: i})
	}
	for i := range acqs {
		items = append(items, item{start: acqs[i].Start, acq: &acqs[i], order: len(bs.Events) + i})
	}
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].start != items[b].start {
			return items[a].start < items[b].start
		}
		return items[a].order < items[b].order
	})

	s.emit(OpMove, int64(shots))
	s.emitLabelled(OpWaitSync, "shot", int64(resolution))

	// Timed instructions carry a hold argument: how long the sequencer
	// blocks before the next instruction while playback or integration
	// keeps running in the background. The hold is cut short whenever a
	// later item starts inside the current one, so overlapping events
	// (a readout pulse and its acquisition window) keep their declared
	// starts.
	hold := func(idx int, duration int64) int64 {
		if idx+1 < len(items) {
			if gap := items[idx+1].start - items[idx].start; gap < duration {
				return gap
			}
		}
		return duration
	}

	var cursor, end int64
	acqIndex := 0
	for idx, it := range items {
		if it.start > cursor {
			s.emit(OpWait, it.start-cursor)
			cursor = it.start
		}
		if it.acq != nil {
			h := hold(idx, it.acq.IntegrationLength)
			s.emit(OpAcquire, int64(acqIndex), int64(it.acq.Bins), h)
			cursor += h
			if e := it.start + it.acq.IntegrationLength; e > end {
				end = e
			}
			acqIndex++
			continue
		}
		e := it.event
		switch e.Kind {
		case schedule.EventPulse:
			slot, err := s.slot(slots, e.Wave, resolution)
			if err != nil {
				return nil, fmt.Errorf("bus %q at t=%d: %w", bs.Bus, e.Start, err)
			}
			h := hold(idx, e.Duration)
			s.emit(OpPlay, int64(slot), h)
			cursor += h
			if pe := e.Start + e.Duration; pe > end {
				end = pe
			}
		case schedule.EventSetFrequency:
			s.emit(OpSetFreq, int64(math.Round(e.Value*freqSteps)))
		case schedule.EventSetPhase:
			s.emit(OpSetPhase, int64(math.Round(e.Value/360*phaseSteps)))
		case schedule.EventResetPhase:
			s.emit(OpResetPhase)
		case schedule.EventSetGain:
			s.emit(OpSetAwgGain, fixedPoint(e.Value))
		case schedule.EventSetOffset:
			s.emit(OpSetAwgOffs, fixedPoint(e.Value))
		default:
			return nil, fmt.Errorf("bus %q: unsupported event kind %s", bs.Bus, e.Kind)
		}
	}

	// Pad to the timeline end so a shot never restarts while a pulse or
	// integration window is still running.
	if end > cursor {
		s.emit(OpWait, end-cursor)
	}

	s.emitLoop("shot")
	s.emit(OpStop)
	return s, nil
}

// slot renders the signal and reuses the upload slot of any identical
// envelope already seen.
func (s *Sequence) slot(slots map[uint64]int, sig waveform.Signal, resolution int) (int, error) {
	pair, err := waveform.Components(sig)
	if err != nil {
		return 0, err
	}
	i, q, err := pair.Envelopes(resolution)
	if err != nil {
		return 0, err
	}
	key := envelopeKey(i, q)
	if slot, ok := slots[key]; ok {
		return slot, nil
	}
	slot := len(s.Waveforms)
	slots[key] = slot
	s.Waveforms = append(s.Waveforms, Wave{
		Name: fmt.Sprintf("wf_%d", slot),
		I:    i,
		Q:    q,
	})
	return slot, nil
}

func (s *Sequence) emit(op OpCode, args ...int64) {
	s.Instrs = append(s.Instrs, Instr{Op: op, Args: args})
}

func (s *Sequence) emitLabelled(op OpCode, label string, args ...int64) {
	s.Instrs = append(s.Instrs, Instr{Op: op, Args: args, Target: label})
}

func (s *Sequence) emitLoop(label string) {
	s.Instrs = append(s.Instrs, Instr{Op: OpLoop, Target: label})
}

// fixedPoint converts a -1..1 float to the signed 16-bit register value,
// clamping out-of-range inputs.
func fixedPoint(v float64) int64 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int64(math.Round(v * gainMax))
}

// envelopeKey hashes both envelopes for slot dedup.
func envelopeKey(i, q []float64) uint64 {
	h := fnv.New64a()
	buf := make([]byte, 8)
	write := func(samples []float64) {
		for _, s := range samples {
			bits := math.Float64bits(s)
			for b := 0; b < 8; b++ {
				buf[b] = byte(bits >> (8 * b))
			}
			h.Write(buf)
		}
		h.Write([]byte{0xff})
	}
	write(i)
	write(q)
	return h.Sum64()
}

// String renders the sequence as sequencer assembly for plan output.
func (s *Sequence) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; bus %s port %d, %d shots, %d waveforms\n", s.Bus, s.Port, s.Shots, len(s.Waveforms))
	for _, in := range s.Instrs {
		if in.Op == OpLoop {
			fmt.Fprintf(&sb, "    loop      @%s\n", in.Target)
			continue
		}
		args := make([]string, len(in.Args))
		for i, a := range in.Args {
			args[i] = fmt.Sprintf("%d", a)
		}
		if in.Target != "" {
			fmt.Fprintf(&sb, "%s:\n", in.Target)
		}
		fmt.Fprintf(&sb, "    %-9s %s\n", in.Op, strings.Join(args, ", "))
	}
	return sb.String()
}
