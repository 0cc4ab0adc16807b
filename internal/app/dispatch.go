package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/qforge-dev/qforge/internal/config"
	"github.com/qforge-dev/qforge/internal/ctxlog"
	"github.com/qforge-dev/qforge/internal/registry"
	"github.com/qforge-dev/qforge/internal/result"
	"github.com/qforge-dev/qforge/internal/schedule"
	"github.com/qforge-dev/qforge/internal/seq"
)

// dispatch arms every instrument with the sequences of its own buses, runs
// them and collects the acquisition buffers. Instruments run one after
// another; the hardware repetition happens inside each run.
func (a *App) dispatch(ctx context.Context, model *config.Model, sched *schedule.Schedule, sequences map[string]*seq.Sequence) ([]result.Buffer, error) {
	logger := ctxlog.FromContext(ctx)

	groups := make(map[string]map[string]*seq.Sequence)
	instruments := make(map[string]config.Instrument)
	for busName, s := range sequences {
		bus, ok := model.Topology.Bus(busName)
		if !ok {
			return nil, fmt.Errorf("bus %q missing from topology", busName)
		}
		inst := model.InstrumentFor(bus)
		if groups[inst.Name] == nil {
			groups[inst.Name] = make(map[string]*seq.Sequence)
		}
		groups[inst.Name][busName] = s
		instruments[inst.Name] = inst
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var buffers []result.Buffer
	for _, name := range names {
		inst := instruments[name]
		logger.Info("▶️ Dispatching to instrument.", "instrument", name, "driver", inst.Driver, "buses", len(groups[name]))

		driver, err := registry.New(ctx, inst)
		if err != nil {
			return nil, err
		}
		if err := driver.Arm(ctx, sched, groups[name]); err != nil {
			driver.Close()
			return nil, err
		}
		instBuffers, err := driver.Run(ctx)
		if closeErr := driver.Close(); closeErr != nil {
			logger.Warn("Closing instrument driver failed.", "instrument", name, "error", closeErr)
		}
		if err != nil {
			return nil, err
		}
		buffers = append(buffers, instBuffers...)
		logger.Info("✅ Instrument run complete.", "instrument", name, "buffers", len(instBuffers))
	}
	return buffers, nil
}
