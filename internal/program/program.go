// Package program models pulse programs as a tree of blocks and bus-addressed
// operations. A Block is an append-only ordered container; loop blocks add
// iteration metadata fixed at construction. Operation parameters are either
// literals or sweep variables bound by the loop that owns them.
package program

import (
	"fmt"
	"math"
)

// Element is a node of the program tree: a Block variant or an Operation.
type Element interface {
	element()
}

// Block is an ordered, append-only container of nested blocks and
// operations.
type Block struct {
	children []Element
}

func (b *Block) element() {}

// Append adds an element to the end of the block body.
func (b *Block) Append(el Element) {
	b.children = append(b.children, el)
}

// Children returns the block body in insertion order.
func (b *Block) Children() []Element { return b.children }

// ForLoop sweeps a variable over start..stop in fixed steps, replaying its
// body once per value.
type ForLoop struct {
	Block
	Var   *Variable
	Start float64
	Stop  float64
	Step  float64
}

// NewForLoop allocates the variable to the loop. The loop parameters are
// fixed for the loop's lifetime.
func NewForLoop(v *Variable, start, stop, step float64) (*ForLoop, error) {
	if step == 0 {
		return nil, fmt.Errorf("for loop over %q: step must be non-zero", v.Name)
	}
	if (stop-start)*step < 0 {
		return nil, fmt.Errorf("for loop over %q: step %v never reaches %v from %v", v.Name, step, stop, start)
	}
	l := &ForLoop{Var: v, Start: start, Stop: stop, Step: step}
	if err := v.allocate(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Values expands the swept range. Start is always included; the sweep
// stops at the last step that stays within Stop, so a range the step does
// not divide evenly is truncated rather than overshot.
func (l *ForLoop) Values() []float64 {
	n := int(math.Floor((l.Stop-l.Start)/l.Step+1e-9)) + 1
	if n < 1 {
		n = 1
	}
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, l.Start+float64(i)*l.Step)
	}
	return out
}

// Loop sweeps a variable over an explicit value list.
type Loop struct {
	Block
	Var    *Variable
	Values []float64
}

// NewLoop allocates the variable to the loop.
func NewLoop(v *Variable, values []float64) (*Loop, error) {
	l := &Loop{Var: v, Values: values}
	if err := v.allocate(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Parallel iterates several ForLoops in lockstep: iteration i binds every
// member loop's variable to its i-th value before the shared body runs. The
// member loops carry no bodies of their own.
type Parallel struct {
	Block
	Loops []*ForLoop
}

// NewParallel builds a lockstep sweep over the given loops.
func NewParallel(loops []*ForLoop) (*Parallel, error) {
	if len(loops) == 0 {
		return nil, fmt.Errorf("parallel block needs at least one loop")
	}
	return &Parallel{Loops: loops}, nil
}

// Average wraps its body in a hardware-averaged repetition: the body is
// executed Shots times by the sequencer and the acquisitions averaged, never
// unrolled by the compiler.
type Average struct {
	Block
	Shots int
}

// AcquireLoop wraps its body in a hardware repetition where every shot is
// stored in its own bin.
type AcquireLoop struct {
	Block
	Shots int
}

// Program is the root of the tree plus the variables declared for it.
type Program struct {
	Block
	Name string

	vars []*Variable
}

// New creates an empty program.
func New(name string) *Program {
	return &Program{Name: name}
}

// Variable declares a fresh sweep variable scoped to this program.
func (p *Program) Variable(name string, domain Domain) *Variable {
	v := NewVariable(name, domain)
	p.vars = append(p.vars, v)
	return v
}

// Variables returns the declared variables in declaration order.
func (p *Program) Variables() []*Variable { return p.vars }
