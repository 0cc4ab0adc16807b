package config

import (
	"fmt"

	"github.com/qforge-dev/qforge/internal/program"
)

// Direction tells whether a bus drives the sample or reads it out.
type Direction string

const (
	DirectionDrive   Direction = "drive"
	DirectionReadout Direction = "readout"
	DirectionFlux    Direction = "flux"
)

// Bus maps a logical control/readout line to a physical instrument port.
type Bus struct {
	Name       string
	Port       int
	Instrument string
	Direction  Direction
}

// Topology is the bus map supplied by the lab's wiring configuration.
type Topology struct {
	Buses map[string]Bus
}

// Bus looks up a bus by name.
func (t Topology) Bus(name string) (Bus, bool) {
	b, ok := t.Buses[name]
	return b, ok
}

// Names returns every bus name; order is unspecified.
func (t Topology) Names() []string {
	names := make([]string, 0, len(t.Buses))
	for name := range t.Buses {
		names = append(names, name)
	}
	return names
}

// Validate rejects malformed topologies before any compilation starts.
func (t Topology) Validate() error {
	if len(t.Buses) == 0 {
		return fmt.Errorf("topology has no buses")
	}
	ports := make(map[portKey]string)
	for name, b := range t.Buses {
		if b.Instrument == "" {
			return fmt.Errorf("bus %q: instrument is required", name)
		}
		key := portKey{instrument: b.Instrument, port: b.Port}
		if other, taken := ports[key]; taken {
			return fmt.Errorf("bus %q: port %d on %q already mapped to bus %q", name, b.Port, b.Instrument, other)
		}
		ports[key] = name
	}
	return nil
}

type portKey struct {
	instrument string
	port       int
}

// Settings carries the knobs the compiler needs. It is passed explicitly;
// there is no global settings state.
type Settings struct {
	// Resolution is the sampling step of the hardware, in time units.
	Resolution int
	// MinWait is the shortest wait the sequencer accepts; shorter waits
	// are stretched to it during lowering.
	MinWait int64
}

// DefaultSettings matches 1 GS/s hardware with a 4 ns minimum wait.
func DefaultSettings() Settings {
	return Settings{Resolution: 1, MinWait: 4}
}

// Instrument configures the driver for one physical box.
type Instrument struct {
	Name string
	// Driver is the registered driver name, e.g. "sim" or "remote".
	Driver string
	// Address is driver-specific, e.g. the gateway URL of a remote
	// instrument. Unused by in-process drivers.
	Address string
}

// Model bundles everything one run needs: the parsed program, the topology
// it compiles against and the instruments dispatch targets.
type Model struct {
	Program     *program.Program
	Topology    Topology
	Instruments map[string]Instrument
	Settings    Settings
}

// InstrumentFor resolves the instrument a bus is wired to, falling back to
// the in-process simulator when the topology declares no instrument block.
func (m *Model) InstrumentFor(bus Bus) Instrument {
	if inst, ok := m.Instruments[bus.Instrument]; ok {
		return inst
	}
	return Instrument{Name: bus.Instrument, Driver: "sim"}
}
