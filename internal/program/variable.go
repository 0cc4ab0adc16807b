package program

import (
	"errors"
	"fmt"
)

// ErrAlreadyAllocated is wrapped when a variable is handed to a second loop.
var ErrAlreadyAllocated = errors.New("variable already allocated to a loop")

// ErrUnresolved is wrapped when an operation references a variable that no
// loop iterates.
var ErrUnresolved = errors.New("variable not allocated to any loop")

// Domain tags the physical quantity a variable sweeps over.
type Domain int

const (
	DomainScalar Domain = iota
	DomainTime
	DomainFrequency
	DomainVoltage
	DomainPhase
	DomainGain
)

var domainNames = map[string]Domain{
	"scalar":    DomainScalar,
	"time":      DomainTime,
	"frequency": DomainFrequency,
	"voltage":   DomainVoltage,
	"phase":     DomainPhase,
	"gain":      DomainGain,
}

// ParseDomain maps the textual domain tag used in program files.
func ParseDomain(name string) (Domain, error) {
	if d, ok := domainNames[name]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unknown variable domain %q", name)
}

func (d Domain) String() string {
	for name, dom := range domainNames {
		if dom == d {
			return name
		}
	}
	return fmt.Sprintf("program.Domain(%d)", int(d))
}

// Variable is a symbolic placeholder standing in for a literal operation
// parameter. It is owned by at most one loop, which supplies its value on
// each iteration during compilation.
type Variable struct {
	Name   string
	Domain Domain

	// owner is the loop the variable is allocated to, set exactly once.
	owner Element
}

// NewVariable creates an unallocated variable.
func NewVariable(name string, domain Domain) *Variable {
	return &Variable{Name: name, Domain: domain}
}

// allocate claims the variable for a loop. Claiming twice is an error.
func (v *Variable) allocate(loop Element) error {
	if v.owner != nil {
		return fmt.Errorf("variable %q: %w", v.Name, ErrAlreadyAllocated)
	}
	v.owner = loop
	return nil
}

// Allocated reports whether any loop iterates this variable.
func (v *Variable) Allocated() bool { return v.owner != nil }

// Value is an operation parameter: either a literal or a variable reference.
type Value struct {
	literal  float64
	variable *Variable
}

// Lit wraps a literal parameter value.
func Lit(f float64) Value { return Value{literal: f} }

// Ref wraps a variable reference.
func Ref(v *Variable) Value { return Value{variable: v} }

// Variable returns the referenced variable, or nil for a literal.
func (val Value) Variable() *Variable { return val.variable }

// Resolve returns the concrete value under the given loop bindings.
func (val Value) Resolve(bindings map[*Variable]float64) (float64, error) {
	if val.variable == nil {
		return val.literal, nil
	}
	if f, ok := bindings[val.variable]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("variable %q: %w", val.variable.Name, ErrUnresolved)
}
