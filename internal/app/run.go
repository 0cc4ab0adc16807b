package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/qforge-dev/qforge/internal/compiler"
	"github.com/qforge-dev/qforge/internal/ctxlog"
	"github.com/qforge-dev/qforge/internal/result"
	"github.com/qforge-dev/qforge/internal/schedule"
	"github.com/qforge-dev/qforge/internal/seq"
)

// Run executes the full pipeline: load, compile, lower, then either print
// the plan or dispatch to the instruments and print parsed results.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	model, err := a.loader.Load(ctx, a.config.ProgramPath, a.config.TopologyPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	comp, err := compiler.New(model.Topology, model.Settings)
	if err != nil {
		return err
	}
	a.logger.Info("🛠️ Compiling program.", "program", model.Program.Name)
	sched, err := comp.Compile(ctx, model.Program)
	if err != nil {
		return fmt.Errorf("compilation failed: %w", err)
	}

	sequences, err := assemble(sched, model.Settings.Resolution)
	if err != nil {
		return fmt.Errorf("lowering failed: %w", err)
	}
	a.logger.Info("🛠️ Program lowered.", "buses", len(sequences), "duration", sched.Duration())

	if a.config.Plan {
		return a.writePlan(sched, sequences)
	}

	buffers, err := a.dispatch(ctx, model, sched, sequences)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.", "buffers", len(buffers))
	return a.writeResults(buffers)
}

// assemble lowers every bus timeline with its acquisition windows.
func assemble(sched *schedule.Schedule, resolution int) (map[string]*seq.Sequence, error) {
	sequences := make(map[string]*seq.Sequence, len(sched.Buses))
	for name, bs := range sched.Buses {
		var acqs []schedule.Acquisition
		for _, acq := range sched.Acquisitions {
			if acq.Bus == name {
				acqs = append(acqs, acq)
			}
		}
		s, err := seq.Assemble(bs, acqs, sched.Shots, resolution)
		if err != nil {
			return nil, err
		}
		sequences[name] = s
	}
	return sequences, nil
}

// plan is the -plan output document.
type plan struct {
	Schedule *schedule.Schedule `json:"schedule"`
	Assembly map[string]string  `json:"assembly"`
}

func (a *App) writePlan(sched *schedule.Schedule, sequences map[string]*seq.Sequence) error {
	doc := plan{Schedule: sched, Assembly: make(map[string]string, len(sequences))}
	for bus, s := range sequences {
		doc.Assembly[bus] = s.String()
	}
	return a.writeJSON(doc)
}

// busResult is one entry of the results document.
type busResult struct {
	Bus           string      `json:"bus"`
	Acquisitions  []result.IQ `json:"acquisitions"`
	Probabilities struct {
		Ground  float64 `json:"ground"`
		Excited float64 `json:"excited"`
	} `json:"probabilities"`
}

func (a *App) writeResults(buffers []result.Buffer) error {
	results := make([]busResult, 0, len(buffers))
	for _, buf := range buffers {
		parsed, err := result.NewBinResult(buf)
		if err != nil {
			return fmt.Errorf("parsing acquisition: %w", err)
		}
		entry := busResult{Bus: parsed.Bus(), Acquisitions: parsed.Acquisitions()}
		entry.Probabilities.Ground, entry.Probabilities.Excited = parsed.Probabilities()
		results = append(results, entry)
	}
	return a.writeJSON(results)
}

func (a *App) writeJSON(doc any) error {
	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
