// Package hcl is the HCL front end: it parses program and topology files
// and translates them into the format-agnostic config.Model consumed by the
// compiler. Operation blocks are walked in source order, so a program file
// reads exactly like the timeline it produces.
package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/qforge-dev/qforge/internal/config"
	"github.com/qforge-dev/qforge/internal/ctxlog"
	"github.com/qforge-dev/qforge/internal/program"
	"github.com/qforge-dev/qforge/internal/schema"
	"github.com/qforge-dev/qforge/internal/waveform"
)

// Loader implements config.Loader for HCL files.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates an HCL loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load reads a program file and a topology file from disk.
func (l *Loader) Load(ctx context.Context, programPath, topologyPath string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading configuration.", "program", programPath, "topology", topologyPath)

	topoFile, diags := l.parser.ParseHCLFile(topologyPath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing topology %s: %w", topologyPath, diags)
	}
	topo, instruments, err := l.translateTopology(topoFile.Body)
	if err != nil {
		return nil, fmt.Errorf("topology %s: %w", topologyPath, err)
	}

	progFile, diags := l.parser.ParseHCLFile(programPath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing program %s: %w", programPath, diags)
	}
	prog, err := l.translateProgramFile(ctx, progFile.Body)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", programPath, err)
	}

	logger.Debug("Configuration loaded.", "buses", len(topo.Buses), "program", prog.Name)
	return &config.Model{
		Program:     prog,
		Topology:    topo,
		Instruments: instruments,
		Settings:    config.DefaultSettings(),
	}, nil
}

// LoadProgramSource translates program HCL held in memory. Used by tests
// and by callers that template programs.
func (l *Loader) LoadProgramSource(ctx context.Context, src []byte, filename string) (*program.Program, error) {
	file, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}
	return l.translateProgramFile(ctx, file.Body)
}

// translateTopology decodes bus and instrument blocks into the topology
// model.
func (l *Loader) translateTopology(body hcl.Body) (config.Topology, map[string]config.Instrument, error) {
	var file schema.TopologyFile
	if diags := gohcl.DecodeBody(body, nil, &file); diags.HasErrors() {
		return config.Topology{}, nil, fmt.Errorf("decoding: %w", diags)
	}

	instruments := make(map[string]config.Instrument, len(file.Instruments))
	for _, inst := range file.Instruments {
		if _, dup := instruments[inst.Name]; dup {
			return config.Topology{}, nil, fmt.Errorf("instrument %q defined twice", inst.Name)
		}
		instruments[inst.Name] = config.Instrument{
			Name:    inst.Name,
			Driver:  inst.Driver,
			Address: inst.Address,
		}
	}

	topo := config.Topology{Buses: make(map[string]config.Bus, len(file.Buses))}
	for _, b := range file.Buses {
		if _, dup := topo.Buses[b.Name]; dup {
			return config.Topology{}, nil, fmt.Errorf("bus %q defined twice", b.Name)
		}
		direction := config.Direction(b.Direction)
		switch direction {
		case "", config.DirectionDrive:
			direction = config.DirectionDrive
		case config.DirectionReadout, config.DirectionFlux:
		default:
			return config.Topology{}, nil, fmt.Errorf("bus %q: unknown direction %q", b.Name, b.Direction)
		}
		// Instrument blocks are optional; when present, bus references
		// must resolve.
		if len(instruments) > 0 {
			if _, ok := instruments[b.Instrument]; !ok {
				return config.Topology{}, nil, fmt.Errorf("bus %q: instrument %q is not defined", b.Name, b.Instrument)
			}
		}
		topo.Buses[b.Name] = config.Bus{
			Name:       b.Name,
			Port:       b.Port,
			Instrument: b.Instrument,
			Direction:  direction,
		}
	}
	if err := topo.Validate(); err != nil {
		return config.Topology{}, nil, err
	}
	return topo, instruments, nil
}

// translateProgramFile builds the program tree from one parsed file.
func (l *Loader) translateProgramFile(ctx context.Context, body hcl.Body) (*program.Program, error) {
	var file schema.ProgramFile
	if diags := gohcl.DecodeBody(body, nil, &file); diags.HasErrors() {
		return nil, fmt.Errorf("decoding: %w", diags)
	}
	if file.Program == nil {
		return nil, fmt.Errorf("no program block found")
	}

	tr := &translator{
		waveforms: make(map[string]waveform.Signal, len(file.Waveforms)),
		variables: make(map[string]*program.Variable, len(file.Variables)),
	}
	for _, w := range file.Waveforms {
		if _, dup := tr.waveforms[w.Name]; dup {
			return nil, fmt.Errorf("waveform %q defined twice", w.Name)
		}
		sig, err := tr.waveformDef(w)
		if err != nil {
			return nil, fmt.Errorf("waveform %q: %w", w.Name, err)
		}
		tr.waveforms[w.Name] = sig
	}

	prog := program.New(file.Program.Name)
	for _, v := range file.Variables {
		if _, dup := tr.variables[v.Name]; dup {
			return nil, fmt.Errorf("variable %q defined twice", v.Name)
		}
		domain, err := program.ParseDomain(v.Domain)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", v.Name, err)
		}
		tr.variables[v.Name] = prog.Variable(v.Name, domain)
	}

	if err := tr.body(file.Program.Body, &prog.Block); err != nil {
		return nil, fmt.Errorf("program %q: %w", file.Program.Name, err)
	}
	ctxlog.FromContext(ctx).Debug("Program translated.",
		"name", prog.Name, "waveforms", len(tr.waveforms), "variables", len(tr.variables))
	return prog, nil
}
