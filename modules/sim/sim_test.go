package sim

import (
	"context"
	"testing"

	"github.com/qforge-dev/qforge/internal/config"
	"github.com/qforge-dev/qforge/internal/result"
	"github.com/qforge-dev/qforge/internal/schedule"
	"github.com/qforge-dev/qforge/internal/seq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedAcquisition(t *testing.T) {
	ctx := context.Background()
	d, err := New(ctx, config.Instrument{Name: "dig-0", Driver: "sim"})
	require.NoError(t, err)

	sched := &schedule.Schedule{
		Buses: map[string]*schedule.BusSchedule{},
		Acquisitions: []schedule.Acquisition{
			{Bus: "q0_readout", Start: 0, IntegrationLength: 2000, Bins: 11},
			{Bus: "other_instrument_bus", Start: 0, IntegrationLength: 1000, Bins: 4},
		},
		Shots: 11,
		Bins:  11,
	}
	sequences := map[string]*seq.Sequence{
		"q0_readout": {Bus: "q0_readout"},
	}
	require.NoError(t, d.Arm(ctx, sched, sequences))

	buffers, err := d.Run(ctx)
	require.NoError(t, err)
	// Windows on buses this instrument does not own are skipped.
	require.Len(t, buffers, 1)

	// The raw buffer is padded; parsing strips it back to the bin count.
	buf := buffers[0]
	assert.Greater(t, len(buf.I), 11)
	parsed, err := result.NewBinResult(buf)
	require.NoError(t, err)
	assert.Len(t, parsed.Acquisitions(), 11)

	// Thresholds sweep 0..1, so populations average to one half.
	p0, p1 := parsed.Probabilities()
	assert.InDelta(t, 0.5, p0, 1e-9)
	assert.InDelta(t, 0.5, p1, 1e-9)
}

func TestRunBeforeArm(t *testing.T) {
	ctx := context.Background()
	d, err := New(ctx, config.Instrument{Name: "dig-0", Driver: "sim"})
	require.NoError(t, err)
	_, err = d.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run before arm")
}
