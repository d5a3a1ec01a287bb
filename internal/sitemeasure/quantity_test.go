package sitemeasure_test

import (
	"testing"

	"github.com/gotrocks/proportal/internal/sitemeasure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcQuantity_Formula(t *testing.T) {
	areas := []float64{0, 1, 324, 1000, 5382.5, 43560}
	densities := []float64{0.9, 1.35, 1.4, 2.1}
	for _, a := range areas {
		for depth := sitemeasure.MinDepthIn; depth <= sitemeasure.MaxDepthIn; depth++ {
			for _, k := range densities {
				q := sitemeasure.CalcQuantity(a, depth, k)
				wantCY := a * float64(depth) / 324
				assert.InDelta(t, wantCY, q.CubicYards, 1e-9)
				assert.InDelta(t, wantCY*k, q.Tons, 1e-9)
			}
		}
	}
}

func TestClampDepth(t *testing.T) {
	cases := []struct{ in, want int }{
		{-5, 1}, {0, 1}, {1, 1}, {3, 3}, {24, 24}, {25, 24}, {100, 24},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sitemeasure.ClampDepth(tc.in), "depth %d", tc.in)
	}
}

func TestEstimator_AdjustDepthStaysInRange(t *testing.T) {
	e := sitemeasure.NewEstimator()
	require.Equal(t, sitemeasure.DefaultDepthIn, e.Depth())

	for i := 0; i < 10; i++ {
		e.AdjustDepth(-1)
	}
	assert.Equal(t, 1, e.Depth())

	for i := 0; i < 40; i++ {
		e.AdjustDepth(+1)
	}
	assert.Equal(t, 24, e.Depth())
}

func TestEstimator_OverrideDecoupling(t *testing.T) {
	e := sitemeasure.NewEstimator()
	e.SetArea(1000)
	e.SetDensity(1.4)
	e.SetDepth(4)

	calc := e.Calculated()
	require.False(t, e.Overridden())
	require.InDelta(t, calc.Tons, e.EffectiveTons(), 1e-12)

	e.SetManualTons(25)
	assert.True(t, e.Overridden())
	assert.Equal(t, 25.0, e.EffectiveTons())
	assert.Equal(t, calc.CubicYards, e.Calculated().CubicYards, "cubic yards must not follow the override")

	e.ResetTons()
	assert.False(t, e.Overridden())
	assert.InDelta(t, calc.Tons, e.EffectiveTons(), 1e-12)
}

func TestEstimator_DepthOrDensityChangeClearsOverride(t *testing.T) {
	e := sitemeasure.NewEstimator()
	e.SetArea(2000)

	e.SetManualTons(10)
	e.AdjustDepth(1)
	assert.False(t, e.Overridden())
	assert.InDelta(t, sitemeasure.CalcQuantity(2000, 4, 1.35).Tons, e.EffectiveTons(), 1e-12)

	e.SetManualTons(10)
	e.SetDensity(1.6)
	assert.False(t, e.Overridden())
	assert.InDelta(t, sitemeasure.CalcQuantity(2000, 4, 1.6).Tons, e.EffectiveTons(), 1e-12)
}

func TestEstimator_ManualTonsFloor(t *testing.T) {
	e := sitemeasure.NewEstimator()
	e.SetArea(10)

	e.SetManualTons(0.1)
	assert.Equal(t, 0.5, e.EffectiveTons())

	e.SetManualTons(-3)
	assert.Equal(t, 0.5, e.EffectiveTons())

	e.AdjustTons(-4)
	assert.Equal(t, 0.5, e.EffectiveTons())
}

func TestEstimator_AdjustTonsStepsFromEffective(t *testing.T) {
	e := sitemeasure.NewEstimator()
	e.SetArea(324) // 1 yd³ per inch
	e.SetDepth(3)
	e.SetDensity(1.5) // 4.5 t

	e.AdjustTons(1)
	assert.InDelta(t, 5.0, e.EffectiveTons(), 1e-9)
	e.AdjustTons(2)
	assert.InDelta(t, 6.0, e.EffectiveTons(), 1e-9)
	e.AdjustTons(-1)
	assert.InDelta(t, 5.5, e.EffectiveTons(), 1e-9)
	assert.InDelta(t, 3.0, e.Calculated().CubicYards, 1e-9)
}

func TestEstimator_SetDensityFallsBackToDefault(t *testing.T) {
	e := sitemeasure.NewEstimator()
	e.SetDensity(0)
	assert.Equal(t, sitemeasure.DefaultTonsPerCubicYard, e.Density())
	e.SetDensity(-2)
	assert.Equal(t, sitemeasure.DefaultTonsPerCubicYard, e.Density())
}
