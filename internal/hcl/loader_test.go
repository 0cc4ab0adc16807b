package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/qforge-dev/qforge/internal/program"
	"github.com/qforge-dev/qforge/internal/waveform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rabiProgram = `
waveform "drag" "x_pulse" {
  amplitude        = 1.0
  duration         = 40
  num_sigmas       = 4.5
  drag_coefficient = 0.8
}

waveform "square" "readout_pulse" {
  amplitude = 0.3
  duration  = 2000
}

variable "gain" {
  domain = "gain"
}

program "rabi" {
  average {
    shots = 1000

    for_loop {
      variable = var.gain
      start    = 0
      stop     = 1
      step     = 0.1

      set_gain {
        bus   = "q0_drive"
        value = var.gain
      }
      play {
        bus      = "q0_drive"
        waveform = waveform.x_pulse
      }
      sync {}
      measure {
        bus      = "q0_readout"
        waveform = waveform.readout_pulse
      }
    }
  }
}
`

const topologySource = `
bus "q0_drive" {
  instrument = "awg-0"
  port       = 0
}

bus "q0_readout" {
  instrument = "dig-0"
  port       = 0
  direction  = "readout"
}
`

func loadProgram(t *testing.T, src string) *program.Program {
	t.Helper()
	p, err := NewLoader().LoadProgramSource(context.Background(), []byte(src), "test.hcl")
	require.NoError(t, err)
	return p
}

func TestLoadRabiProgram(t *testing.T) {
	p := loadProgram(t, rabiProgram)
	assert.Equal(t, "rabi", p.Name)
	require.Len(t, p.Variables(), 1)
	assert.Equal(t, program.DomainGain, p.Variables()[0].Domain)

	require.Len(t, p.Children(), 1)
	avg, ok := p.Children()[0].(*program.Average)
	require.True(t, ok)
	assert.Equal(t, 1000, avg.Shots)

	require.Len(t, avg.Children(), 1)
	loop, ok := avg.Children()[0].(*program.ForLoop)
	require.True(t, ok)
	assert.Equal(t, "gain", loop.Var.Name)
	assert.Len(t, loop.Values(), 11)

	// Body order matches source order.
	body := loop.Children()
	require.Len(t, body, 4)
	assert.IsType(t, program.SetGain{}, body[0])
	assert.IsType(t, program.Play{}, body[1])
	assert.IsType(t, program.Sync{}, body[2])
	assert.IsType(t, program.Measure{}, body[3])

	play := body[1].(program.Play)
	pair, ok := play.Wave.(waveform.IQPair)
	require.True(t, ok, "a drag waveform loads as an IQ pair")
	assert.Equal(t, 40, pair.Duration())
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	progPath := filepath.Join(dir, "rabi.hcl")
	topoPath := filepath.Join(dir, "lab.hcl")
	require.NoError(t, os.WriteFile(progPath, []byte(rabiProgram), 0o644))
	require.NoError(t, os.WriteFile(topoPath, []byte(topologySource), 0o644))

	model, err := NewLoader().Load(context.Background(), progPath, topoPath)
	require.NoError(t, err)
	assert.Equal(t, "rabi", model.Program.Name)
	require.Len(t, model.Topology.Buses, 2)
	assert.Equal(t, 0, model.Topology.Buses["q0_readout"].Port)
	assert.Equal(t, "dig-0", model.Topology.Buses["q0_readout"].Instrument)
}

func TestUndeclaredVariable(t *testing.T) {
	src := `
program "broken" {
  wait {
    bus      = "q0"
    duration = var.nope
  }
}
`
	_, err := NewLoader().LoadProgramSource(context.Background(), []byte(src), "test.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"nope"`)
}

func TestUndefinedWaveform(t *testing.T) {
	src := `
program "broken" {
  play {
    bus      = "q0"
    waveform = waveform.ghost
  }
}
`
	_, err := NewLoader().LoadProgramSource(context.Background(), []byte(src), "test.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"ghost"`)
}

func TestChainedAndPairDefinitions(t *testing.T) {
	src := `
waveform "ramp" "rise" {
  from_amplitude = 0
  to_amplitude   = 1
  duration       = 16
}

waveform "square" "hold" {
  amplitude = 1
  duration  = 32
}

waveform "chained" "stitched" {
  parts = [waveform.rise, waveform.hold]
}

waveform "square" "zero" {
  amplitude = 0
  duration  = 48
}

waveform "pair" "iq" {
  i = waveform.stitched
  q = waveform.zero
}

program "noop" {
  play {
    bus      = "flux"
    waveform = waveform.iq
  }
}
`
	p := loadProgram(t, src)
	play := p.Children()[0].(program.Play)
	assert.Equal(t, 48, play.Wave.Duration())
}

func TestPairDurationMismatchFailsAtLoad(t *testing.T) {
	src := `
waveform "square" "a" {
  amplitude = 1
  duration  = 10
}

waveform "square" "b" {
  amplitude = 1
  duration  = 20
}

waveform "pair" "bad" {
  i = waveform.a
  q = waveform.b
}

program "noop" {}
`
	_, err := NewLoader().LoadProgramSource(context.Background(), []byte(src), "test.hcl")
	require.Error(t, err)
	assert.ErrorIs(t, err, waveform.ErrDurationMismatch)
}

func TestParallelSweepDeclarations(t *testing.T) {
	src := `
variable "freq" {
  domain = "frequency"
}

variable "amp" {
  domain = "voltage"
}

program "two_tone" {
  parallel {
    for_loop {
      variable = var.freq
      start    = 100
      stop     = 300
      step     = 100
    }
    for_loop {
      variable = var.amp
      start    = 0.1
      stop     = 0.3
      step     = 0.1
    }
    set_frequency {
      bus   = "q0_drive"
      value = var.freq
    }
  }
}
`
	p := loadProgram(t, src)
	par, ok := p.Children()[0].(*program.Parallel)
	require.True(t, ok)
	assert.Len(t, par.Loops, 2)
	require.Len(t, par.Children(), 1)
}

func TestUnknownBlockRejected(t *testing.T) {
	src := `
program "broken" {
  teleport {
    bus = "q0"
  }
}
`
	_, err := NewLoader().LoadProgramSource(context.Background(), []byte(src), "test.hcl")
	require.Error(t, err)
}
