// Package sim is the in-process instrument simulator. It accepts any
// compiled schedule and synthesizes deterministic acquisition buffers,
// NaN-padded to a fixed size the way real digitizer firmware pads its bin
// memory. It is the default driver when a topology names no instruments.
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/qforge-dev/qforge/internal/config"
	"github.com/qforge-dev/qforge/internal/ctxlog"
	"github.com/qforge-dev/qforge/internal/registry"
	"github.com/qforge-dev/qforge/internal/result"
	"github.com/qforge-dev/qforge/internal/schedule"
	"github.com/qforge-dev/qforge/internal/seq"
)

// binMemory is the fixed bin-buffer size the simulator mimics.
const binMemory = 1024

func init() {
	registry.Register("sim", New)
}

// Driver simulates one instrument.
type Driver struct {
	name  string
	sched *schedule.Schedule
	seqs  map[string]*seq.Sequence
}

// New builds a simulator for the given instrument config.
func New(_ context.Context, inst config.Instrument) (registry.Driver, error) {
	return &Driver{name: inst.Name}, nil
}

// Arm stores the compiled artifacts for the next Run.
func (d *Driver) Arm(ctx context.Context, sched *schedule.Schedule, sequences map[string]*seq.Sequence) error {
	ctxlog.FromContext(ctx).Debug("Simulator armed.",
		"instrument", d.name, "sequences", len(sequences), "shots", sched.Shots)
	d.sched = sched
	d.seqs = sequences
	return nil
}

// Run synthesizes one buffer per acquisition window on this instrument's
// buses. The payload is deterministic: bin b of an n-bin window carries the
// point (cos, sin) of angle pi*b/n scaled by the integration length, and a
// threshold that sweeps 0..1 across bins.
func (d *Driver) Run(ctx context.Context) ([]result.Buffer, error) {
	if d.sched == nil {
		return nil, fmt.Errorf("simulator %q: run before arm", d.name)
	}
	logger := ctxlog.FromContext(ctx).With("instrument", d.name)
	logger.Info("▶️ Simulated run started.")

	var buffers []result.Buffer
	for _, acq := range d.sched.Acquisitions {
		if _, mine := d.seqs[acq.Bus]; !mine {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		buffers = append(buffers, synthesize(acq))
	}

	logger.Info("✅ Simulated run finished.", "buffers", len(buffers))
	return buffers, nil
}

// Close releases nothing; the simulator holds no hardware.
func (d *Driver) Close() error { return nil }

func synthesize(acq schedule.Acquisition) result.Buffer {
	bins := acq.Bins
	if bins < 1 {
		bins = 1
	}
	size := bins
	if size < binMemory {
		size = binMemory
	}
	buf := result.Buffer{
		Bus:       acq.Bus,
		I:         make([]float64, size),
		Q:         make([]float64, size),
		Threshold: make([]float64, size),
	}
	scale := float64(acq.IntegrationLength) / 1000
	for b := 0; b < size; b++ {
		if b >= bins {
			buf.I[b] = math.NaN()
			buf.Q[b] = math.NaN()
			buf.Threshold[b] = math.NaN()
			continue
		}
		angle := math.Pi * float64(b) / float64(bins)
		buf.I[b] = scale * math.Cos(angle)
		buf.Q[b] = scale * math.Sin(angle)
		if bins == 1 {
			buf.Threshold[b] = 0.5
		} else {
			buf.Threshold[b] = float64(b) / float64(bins-1)
		}
	}
	return buf
}
