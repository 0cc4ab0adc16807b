// Package registry maps instrument driver names to their constructors.
// Driver packages under modules/ register themselves from init, and the app
// links them in with blank imports.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/qforge-dev/qforge/internal/config"
	"github.com/qforge-dev/qforge/internal/result"
	"github.com/qforge-dev/qforge/internal/schedule"
	"github.com/qforge-dev/qforge/internal/seq"
)

// Driver is one armed instrument. Arm uploads the compiled artifacts, Run
// blocks until the hardware reports its acquisitions, Close releases the
// connection. A driver only sees the sequences of its own buses.
type Driver interface {
	Arm(ctx context.Context, sched *schedule.Schedule, sequences map[string]*seq.Sequence) error
	Run(ctx context.Context) ([]result.Buffer, error)
	Close() error
}

// Factory builds a driver for one configured instrument.
type Factory func(ctx context.Context, inst config.Instrument) (Driver, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a driver available under the given name. Registering the
// same name twice is a programming error and panics at init time.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[name]; dup {
		panic(fmt.Sprintf("registry: driver %q registered twice", name))
	}
	factories[name] = f
}

// New instantiates the driver an instrument is configured with.
func New(ctx context.Context, inst config.Instrument) (Driver, error) {
	mu.RLock()
	f, ok := factories[inst.Driver]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("instrument %q: no driver registered as %q (have %v)", inst.Name, inst.Driver, Names())
	}
	return f(ctx, inst)
}

// Names lists the registered drivers, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
