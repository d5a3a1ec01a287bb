package sitemeasure

// EstimateInput describes a finished polygon to be priced out without a
// capture session.
type EstimateInput struct {
	Vertices  VertexSequence
	Material  *Material
	Densities []DensityProfile
	// DepthIn of zero selects the density profile's default depth.
	DepthIn int
	// AdjustedTons, when set, is applied as a manual override.
	AdjustedTons *float64
}

// Estimate is the rounded outcome of EstimateQuantity, in the same units a
// saved Record carries.
type Estimate struct {
	Area       AreaResult      `json:"area"`
	DepthIn    int             `json:"depthInches"`
	TonsPerCY  float64         `json:"tonsPerCubicYard"`
	Calculated QuantityResult  `json:"calculatedQty"`
	Adjusted   *QuantityResult `json:"adjustedQty,omitempty"`
	Match      DensityMatch    `json:"densityMatch"`
}

// EstimateQuantity runs area, density matching and the quantity estimator
// over in with the same rules a CaptureSession applies on save.
func EstimateQuantity(in EstimateInput) Estimate {
	est := NewEstimator()
	match := DensityMatch{Confidence: MatchNone}
	if in.Material != nil {
		match = MatchDensity(in.Material, in.Densities)
		est.SetDensity(match.TonsPerCubicYard())
	}

	if in.DepthIn != 0 {
		est.SetDepth(in.DepthIn)
	} else {
		est.SetDepth(match.DefaultDepth())
	}

	area := CalcArea(in.Vertices)
	est.SetArea(area.SqFt)
	if in.AdjustedTons != nil {
		est.SetManualTons(*in.AdjustedTons)
	}

	return Estimate{
		Area:       roundArea(area),
		DepthIn:    est.Depth(),
		TonsPerCY:  est.Density(),
		Calculated: roundQuantity(est.Calculated()),
		Adjusted:   adjustedQuantity(est),
		Match:      match,
	}
}

func roundArea(a AreaResult) AreaResult {
	return AreaResult{SqFt: round(a.SqFt, 1), SqM: round(a.SqM, 2)}
}

func roundQuantity(q QuantityResult) QuantityResult {
	return QuantityResult{CubicYards: round(q.CubicYards, 2), Tons: round(q.Tons, 2)}
}

// adjustedQuantity is nil unless est carries a manual override.
func adjustedQuantity(est *Estimator) *QuantityResult {
	if !est.Overridden() {
		return nil
	}
	return &QuantityResult{
		CubicYards: round(est.Calculated().CubicYards, 2),
		Tons:       round(est.EffectiveTons(), 2),
	}
}
