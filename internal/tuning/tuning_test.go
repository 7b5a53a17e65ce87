package tuning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() Config {
	return Config{
		Width:     64,
		Height:    48,
		Points:    6,
		Seed:      7,
		GridSizes: []int{1, 4, 8, 16},
		Stride:    3,
		Workers:   2,
	}
}

func TestSceneIsSeeded(t *testing.T) {
	f1, t1 := Scene(smallConfig())
	f2, t2 := Scene(smallConfig())
	assert.Equal(t, f1, f2)
	assert.Equal(t, t1, t2)

	other := smallConfig()
	other.Seed = 8
	f3, _ := Scene(other)
	assert.NotEqual(t, f1, f3)
}

func TestSweepOrdersAndMeasures(t *testing.T) {
	res, err := Sweep(context.Background(), smallConfig())
	require.NoError(t, err)
	require.Len(t, res, 4)

	for i, gs := range []int{1, 4, 8, 16} {
		assert.Equal(t, gs, res[i].GridSize)
		assert.GreaterOrEqual(t, res[i].MaxErr, res[i].MeanErr)
	}
	// Grid size 1 evaluates MLS at every pixel.
	assert.InDelta(t, 0, res[0].MaxErr, 1e-9)
	assert.Greater(t, res[0].Nodes, res[3].Nodes)
}

func TestSweepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Sweep(ctx, smallConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBest(t *testing.T) {
	res := []Result{
		{GridSize: 2, MaxErr: 0.01},
		{GridSize: 8, MaxErr: 0.2},
		{GridSize: 16, MaxErr: 0.9},
	}
	best, ok := Best(res, 0.25)
	require.True(t, ok)
	assert.Equal(t, 8, best.GridSize)

	_, ok = Best(res, 0.001)
	assert.False(t, ok)
}
