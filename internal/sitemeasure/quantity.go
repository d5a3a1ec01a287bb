package sitemeasure

import "math"

const (
	// CubicInchFactor turns sqft*inches into cubic yards (12 in/ft * 27 ft³/yd³).
	CubicInchFactor = 324.0

	DefaultTonsPerCubicYard = 1.35
	DefaultDepthIn          = 3
	MinDepthIn              = 1
	MaxDepthIn              = 24

	// TonsStep is the increment used by the manual tons control.
	TonsStep = 0.5
	// MinManualTons is the floor for a manual override.
	MinManualTons = 0.5
)

// QuantityResult is a material volume and its weight.
type QuantityResult struct {
	CubicYards float64 `json:"cubicYards"`
	Tons       float64 `json:"tons"`
}

// CalcQuantity converts an area and depth into cubic yards and tons.
func CalcQuantity(sqFt float64, depthIn int, tonsPerCY float64) QuantityResult {
	cy := (sqFt * float64(depthIn)) / CubicInchFactor
	return QuantityResult{CubicYards: cy, Tons: cy * tonsPerCY}
}

// ClampDepth keeps a depth in inches within [MinDepthIn, MaxDepthIn].
func ClampDepth(d int) int {
	if d < MinDepthIn {
		return MinDepthIn
	}
	if d > MaxDepthIn {
		return MaxDepthIn
	}
	return d
}

// Estimator tracks the inputs of a quantity calculation and an optional
// manual tons override. The override replaces effective tons only; cubic
// yards always reflect the geometry.
type Estimator struct {
	sqFt      float64
	depthIn   int
	tonsPerCY float64
	override  *float64
}

// NewEstimator returns an estimator with default depth and density.
func NewEstimator() *Estimator {
	return &Estimator{depthIn: DefaultDepthIn, tonsPerCY: DefaultTonsPerCubicYard}
}

// SetArea updates the area in square feet. The override is kept: a new
// area is not a material or depth change.
func (e *Estimator) SetArea(sqFt float64) {
	if sqFt < 0 || !finite(sqFt) {
		sqFt = 0
	}
	e.sqFt = sqFt
}

func (e *Estimator) SetDepth(depthIn int) {
	e.depthIn = ClampDepth(depthIn)
	e.override = nil
}

func (e *Estimator) AdjustDepth(delta int) {
	e.SetDepth(e.depthIn + delta)
}

func (e *Estimator) Depth() int { return e.depthIn }

// SetDensity sets tons per cubic yard. Non-positive values fall back to the
// default density.
func (e *Estimator) SetDensity(tonsPerCY float64) {
	if tonsPerCY <= 0 || !finite(tonsPerCY) {
		tonsPerCY = DefaultTonsPerCubicYard
	}
	e.tonsPerCY = tonsPerCY
	e.override = nil
}

func (e *Estimator) Density() float64 { return e.tonsPerCY }

// SetManualTons overrides effective tons, clamped to MinManualTons.
func (e *Estimator) SetManualTons(tons float64) {
	if !finite(tons) || tons < MinManualTons {
		tons = MinManualTons
	}
	e.override = &tons
}

// AdjustTons moves effective tons by the given number of TonsStep
// increments and installs the result, rounded to one decimal, as the
// override.
func (e *Estimator) AdjustTons(steps int) {
	next := e.EffectiveTons() + float64(steps)*TonsStep
	e.SetManualTons(math.Round(next*10) / 10)
}

// ResetTons drops the override.
func (e *Estimator) ResetTons() { e.override = nil }

func (e *Estimator) Overridden() bool { return e.override != nil }

func (e *Estimator) Calculated() QuantityResult {
	return CalcQuantity(e.sqFt, e.depthIn, e.tonsPerCY)
}

func (e *Estimator) EffectiveTons() float64 {
	if e.override != nil {
		return *e.override
	}
	return e.Calculated().Tons
}
