package sitemeasure

import (
	"math"
)

const (
	// earthRadius is the WGS84 equatorial radius in meters.
	earthRadius = 6378137.0

	// SqFtPerSqM converts square meters to square feet.
	SqFtPerSqM = 10.7639

	// MinPolygonVertices is the smallest vertex count that encloses an area.
	MinPolygonVertices = 3
)

// GeoPoint is one accepted GPS fix. Timestamp is epoch milliseconds.
type GeoPoint struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"`
}

// VertexSequence is a polygon boundary in capture order.
type VertexSequence []GeoPoint

// Clone returns an independent copy.
func (v VertexSequence) Clone() VertexSequence {
	if v == nil {
		return nil
	}
	out := make(VertexSequence, len(v))
	copy(out, v)
	return out
}

// AreaResult is the enclosed area of a vertex sequence.
type AreaResult struct {
	SqFt float64 `json:"sqFt"`
	SqM  float64 `json:"sqM"`
}

// CalcArea returns the area enclosed by v. It never fails: short, degenerate
// or non-finite input yields a zero result.
func CalcArea(v VertexSequence) (res AreaResult) {
	if len(v) < MinPolygonVertices {
		return AreaResult{}
	}

	defer func() {
		if recover() != nil {
			res = AreaResult{}
		}
	}()

	ring := make([][2]float64, 0, len(v)+1)
	for _, p := range v {
		if !finite(p.Lat) || !finite(p.Lng) {
			return AreaResult{}
		}
		ring = append(ring, [2]float64{p.Lng, p.Lat})
	}
	ring = append(ring, ring[0])

	sqM := ringArea(ring)
	if !finite(sqM) || sqM == 0 {
		return AreaResult{}
	}
	return AreaResult{SqFt: sqM * SqFtPerSqM, SqM: sqM}
}

// ringArea applies the spherical excess approximation over a closed ring of
// (lng, lat) pairs in degrees. Winding direction is ignored.
func ringArea(ring [][2]float64) float64 {
	m := len(ring) - 1 // distinct vertices; the last entry repeats the first
	if m <= 2 {
		return 0
	}

	var total float64
	for i := 0; i < m; i++ {
		lower := ring[i]
		middle := ring[(i+1)%m]
		upper := ring[(i+2)%m]
		total += (rad(upper[0]) - rad(lower[0])) * math.Sin(rad(middle[1]))
	}

	return math.Abs(total * earthRadius * earthRadius / 2)
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
