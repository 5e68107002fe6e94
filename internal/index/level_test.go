package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crspindex/internal/panel"
)

func TestChainLevels(t *testing.T) {
	series := []MonthlyValue{
		{Period: date(2023, 1), ValueWeightedRet: panel.NewFloat(0.10)},
		{Period: date(2023, 2), ValueWeightedRet: panel.Missing()},
		{Period: date(2023, 3), ValueWeightedRet: panel.NewFloat(-0.05)},
	}

	levels := ValueWeightedLevels(series, 100)
	require.Len(t, levels, 3)

	assert.Equal(t, "2023-01-01", levels[0].Period)
	require.True(t, levels[0].Value.Valid)
	assert.InDelta(t, 110, levels[0].Value.Float64, 1e-9)

	assert.False(t, levels[1].Value.Valid, "missing return yields a missing level")

	require.True(t, levels[2].Value.Valid)
	assert.InDelta(t, 104.5, levels[2].Value.Float64, 1e-9, "chain resumes from the last valid level")
}

func TestChainLevelsCustomPick(t *testing.T) {
	series := []MonthlyValue{
		{Period: date(2023, 1), EqualWeightedRet: panel.NewFloat(0.02)},
	}
	levels := ChainLevels(series, func(mv MonthlyValue) panel.Float { return mv.EqualWeightedRet }, 1000)
	require.Len(t, levels, 1)
	assert.InDelta(t, 1020, levels[0].Value.Float64, 1e-9)
}

func TestReturnKindString(t *testing.T) {
	assert.Equal(t, "ret", WithDistributions.String())
	assert.Equal(t, "retx", WithoutDistributions.String())
}
