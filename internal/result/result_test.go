package result

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func TestBinResultStripsPadding(t *testing.T) {
	r, err := NewBinResult(Buffer{
		Bus:       "q0_readout",
		I:         []float64{1.5, 2.5, nan, nan},
		Q:         []float64{-0.5, 0.5, nan, nan},
		Threshold: []float64{1, 0, nan, nan},
	})
	require.NoError(t, err)

	points := r.Acquisitions()
	require.Len(t, points, 2)
	assert.Equal(t, IQ{I: 1.5, Q: -0.5}, points[0])
	assert.Equal(t, IQ{I: 2.5, Q: 0.5}, points[1])
}

func TestBinResultMismatchedQuadratures(t *testing.T) {
	_, err := NewBinResult(Buffer{
		Bus: "q0_readout",
		I:   []float64{1, 2, 3},
		Q:   []float64{1, nan, nan},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "q0_readout")
}

func TestProbabilities(t *testing.T) {
	r, err := NewBinResult(Buffer{
		Bus:       "q0_readout",
		I:         []float64{0, 0, 0, 0},
		Q:         []float64{0, 0, 0, 0},
		Threshold: []float64{1, 1, 0, 1},
	})
	require.NoError(t, err)

	p0, p1 := r.Probabilities()
	assert.InDelta(t, 0.25, p0, 1e-12)
	assert.InDelta(t, 0.75, p1, 1e-12)
}

func TestProbabilitiesEmpty(t *testing.T) {
	r, err := NewBinResult(Buffer{Bus: "q0_readout"})
	require.NoError(t, err)
	p0, p1 := r.Probabilities()
	assert.Zero(t, p0)
	assert.Zero(t, p1)
}

func TestScopeResult(t *testing.T) {
	r, err := NewScopeResult(Buffer{
		Bus: "q0_readout",
		I:   []float64{0.1, 0.2, nan},
		Q:   []float64{0.3, 0.4, nan},
	})
	require.NoError(t, err)
	points := r.Acquisitions()
	require.Len(t, points, 2)
	assert.Equal(t, IQ{I: 0.2, Q: 0.4}, points[1])
}

func TestResultsAreCopies(t *testing.T) {
	r, err := NewBinResult(Buffer{
		Bus: "q0_readout",
		I:   []float64{1},
		Q:   []float64{2},
	})
	require.NoError(t, err)

	r.Acquisitions()[0] = IQ{I: 99, Q: 99}
	assert.Equal(t, IQ{I: 1, Q: 2}, r.Acquisitions()[0])
}
