// Package compiler lowers a program tree into per-bus schedules. The walk
// is depth-first with one logical clock per bus: pulses and waits advance
// the clock of their bus, sync barriers raise a group of clocks to the
// group's maximum, and sweep loops replay their bodies once per bound
// value. Averaging and acquire loops never unroll; they become hardware
// repetition counts on the schedule.
package compiler

import (
	"context"
	"errors"
	"fmt"

	"github.com/qforge-dev/qforge/internal/config"
	"github.com/qforge-dev/qforge/internal/ctxlog"
	"github.com/qforge-dev/qforge/internal/program"
	"github.com/qforge-dev/qforge/internal/schedule"
)

// ErrUnknownBus is wrapped when an operation addresses a bus the topology
// does not define.
var ErrUnknownBus = errors.New("unknown bus")

// ErrParallelMismatch is wrapped when the loops of a parallel block disagree
// on iteration count.
var ErrParallelMismatch = errors.New("parallel loops have different iteration counts")

// Compiler lowers programs against one fixed topology. It is safe to reuse
// across compilations; all per-pass state lives in the pass struct.
type Compiler struct {
	topo     config.Topology
	settings config.Settings
}

// New validates the topology once and returns a compiler bound to it.
func New(topo config.Topology, settings config.Settings) (*Compiler, error) {
	if err := topo.Validate(); err != nil {
		return nil, fmt.Errorf("invalid topology: %w", err)
	}
	if settings.Resolution <= 0 {
		return nil, fmt.Errorf("invalid settings: resolution must be positive, got %d", settings.Resolution)
	}
	return &Compiler{topo: topo, settings: settings}, nil
}

// Compile lowers one program into a schedule.
func (c *Compiler) Compile(ctx context.Context, p *program.Program) (*schedule.Schedule, error) {
	logger := ctxlog.FromContext(ctx).With("program", p.Name)
	logger.Debug("Compilation started.")

	out := &schedule.Schedule{
		Buses: make(map[string]*schedule.BusSchedule),
		Shots: 1,
		Bins:  1,
	}
	ps := &pass{
		topo:     c.topo,
		settings: c.settings,
		clocks:   make(map[string]int64),
		bindings: make(map[*program.Variable]float64),
		out:      out,
		bins:     1,
	}
	if err := ps.walk(ctx, &p.Block); err != nil {
		return nil, fmt.Errorf("program %q: %w", p.Name, err)
	}

	logger.Debug("Compilation finished.",
		"buses", len(out.Buses),
		"acquisitions", len(out.Acquisitions),
		"shots", out.Shots,
		"bins", out.Bins,
		"duration", out.Duration(),
	)
	return out, nil
}

// pass is the single-writer state of one compilation.
type pass struct {
	topo     config.Topology
	settings config.Settings

	// clocks is the per-bus logical clock, zero until first touched.
	clocks   map[string]int64
	bindings map[*program.Variable]float64
	out      *schedule.Schedule

	// bins is the binned-repetition multiplier active at the current tree
	// depth, applied to acquisition windows opened here.
	bins int
}

func (ps *pass) walk(ctx context.Context, b *program.Block) error {
	for _, child := range b.Children() {
		var err error
		switch el := child.(type) {
		case *program.Block:
			err = ps.walk(ctx, el)
		case *program.ForLoop:
			err = ps.sweep(ctx, &el.Block, el.Var, el.Values())
		case *program.Loop:
			err = ps.sweep(ctx, &el.Block, el.Var, el.Values)
		case *program.Parallel:
			err = ps.parallel(ctx, el)
		case *program.Average:
			ps.out.Shots *= el.Shots
			err = ps.walk(ctx, &el.Block)
		case *program.AcquireLoop:
			ps.out.Shots *= el.Shots
			ps.out.Bins *= el.Shots
			prev := ps.bins
			ps.bins *= el.Shots
			err = ps.walk(ctx, &el.Block)
			ps.bins = prev
		case program.Operation:
			err = ps.operation(el)
		default:
			err = fmt.Errorf("unsupported program element %T", child)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// sweep replays the body once per value of the bound variable. Iterations
// run back to back: each one starts at the clocks the previous left behind.
func (ps *pass) sweep(ctx context.Context, body *program.Block, v *program.Variable, values []float64) error {
	for _, value := range values {
		ps.bindings[v] = value
		if err := ps.walk(ctx, body); err != nil {
			return fmt.Errorf("sweep %q=%v: %w", v.Name, value, err)
		}
	}
	delete(ps.bindings, v)
	return nil
}

// parallel iterates the member loops in lockstep, checking cardinality
// before emitting anything.
func (ps *pass) parallel(ctx context.Context, par *program.Parallel) error {
	values := make([][]float64, len(par.Loops))
	n := -1
	for i, l := range par.Loops {
		values[i] = l.Values()
		if n >= 0 && len(values[i]) != n {
			return fmt.Errorf("loop %q has %d iterations, loop %q has %d: %w",
				par.Loops[0].Var.Name, n, l.Var.Name, len(values[i]), ErrParallelMismatch)
		}
		n = len(values[i])
	}
	for iter := 0; iter < n; iter++ {
		for i, l := range par.Loops {
			ps.bindings[l.Var] = values[i][iter]
		}
		if err := ps.walk(ctx, &par.Block); err != nil {
			return fmt.Errorf("parallel iteration %d: %w", iter, err)
		}
	}
	for _, l := range par.Loops {
		delete(ps.bindings, l.Var)
	}
	return nil
}
