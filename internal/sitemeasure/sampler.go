package sitemeasure

import (
	"fmt"
	"math"
)

// AccuracyThreshold is the worst horizontal accuracy, in meters, that is
// accepted as a vertex.
const AccuracyThreshold = 30.0

// Reading is a raw position event. A nil Accuracy means the receiver has no
// fix yet.
type Reading struct {
	Lat       float64  `json:"lat" yaml:"lat"`
	Lng       float64  `json:"lng" yaml:"lng"`
	Accuracy  *float64 `json:"accuracy" yaml:"accuracy"`
	Timestamp int64    `json:"timestamp" yaml:"timestamp"`
}

type SampleMode int

const (
	SampleIdle SampleMode = iota
	SamplePreCapture
	SampleCapture
)

type AccuracyGrade string

const (
	AccuracySearching AccuracyGrade = "searching"
	AccuracyExcellent AccuracyGrade = "excellent"
	AccuracyFair      AccuracyGrade = "fair"
	AccuracyPoor      AccuracyGrade = "poor"
)

// AccuracyIndicator is the user-facing GPS quality readout.
type AccuracyIndicator struct {
	Grade  AccuracyGrade `json:"grade"`
	Meters *float64      `json:"meters,omitempty"`
	Label  string        `json:"label,omitempty"`
}

func gradeFor(m float64) AccuracyGrade {
	switch {
	case m <= 5:
		return AccuracyExcellent
	case m <= 15:
		return AccuracyFair
	default:
		return AccuracyPoor
	}
}

// Sampler gates location readings into a vertex sequence.
type Sampler struct {
	mode     SampleMode
	accuracy *float64
	vertices VertexSequence

	accepted int
	rejected int
}

func NewSampler() *Sampler {
	return &Sampler{}
}

func (s *Sampler) Mode() SampleMode { return s.mode }

// SetMode switches the sampler mode. Entering capture mode starts a fresh
// sequence.
func (s *Sampler) SetMode(m SampleMode) {
	if m == SampleCapture && s.mode != SampleCapture {
		s.vertices = nil
	}
	s.mode = m
}

// Observe applies one reading and reports whether it became a vertex.
func (s *Sampler) Observe(r Reading) bool {
	if r.Accuracy == nil || math.IsNaN(*r.Accuracy) || *r.Accuracy < 0 {
		s.accuracy = nil
		return false
	}
	acc := *r.Accuracy
	s.accuracy = &acc

	if s.mode != SampleCapture {
		return false
	}
	if acc > AccuracyThreshold || !finite(r.Lat) || !finite(r.Lng) {
		s.rejected++
		return false
	}
	s.vertices = append(s.vertices, GeoPoint{
		Lat:       r.Lat,
		Lng:       r.Lng,
		Accuracy:  acc,
		Timestamp: r.Timestamp,
	})
	s.accepted++
	return true
}

// HasFix reports whether the last reading carried a known accuracy.
func (s *Sampler) HasFix() bool { return s.accuracy != nil }

func (s *Sampler) Indicator() AccuracyIndicator {
	if s.accuracy == nil {
		return AccuracyIndicator{Grade: AccuracySearching}
	}
	m := *s.accuracy
	return AccuracyIndicator{
		Grade:  gradeFor(m),
		Meters: &m,
		Label:  fmt.Sprintf("%dm", int(math.Round(m))),
	}
}

// Vertices returns a copy of the captured sequence.
func (s *Sampler) Vertices() VertexSequence {
	return s.vertices.Clone()
}

func (s *Sampler) Len() int { return len(s.vertices) }

// Counts returns how many capture-mode readings were accepted and rejected.
func (s *Sampler) Counts() (accepted, rejected int) {
	return s.accepted, s.rejected
}

// Reset clears the captured sequence and returns to idle.
func (s *Sampler) Reset() {
	s.vertices = nil
	s.mode = SampleIdle
}
