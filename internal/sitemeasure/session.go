package sitemeasure

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Mode is how a polygon was captured.
type Mode string

const (
	ModeGPSWalk     Mode = "gps_walk"
	ModeAerialTrace Mode = "aerial_trace"
)

func (m Mode) Valid() bool {
	return m == ModeGPSWalk || m == ModeAerialTrace
}

// Step is the position of a CaptureSession in its workflow.
type Step string

const (
	StepMode       Step = "mode"
	StepPreCapture Step = "pre"
	StepCapture    Step = "walking"
	StepReview     Step = "review"
	StepConfigure  Step = "configure"
	StepSaved      Step = "saved"
	StepCancelled  Step = "cancelled"
)

var (
	ErrWrongStep      = errors.New("operation not allowed in current step")
	ErrNoFix          = errors.New("no GPS fix yet")
	ErrTooFewVertices = errors.New("polygon needs at least 3 points")
	ErrNoMaterial     = errors.New("material is required")
	ErrLabelRequired  = errors.New("label is required")
	ErrUnknownMatID   = errors.New("unknown material")
)

// ValidationError is returned by a Sink that rejects a record.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Record is a finalized measurement ready for persistence.
type Record struct {
	Label        string          `json:"label"`
	ProjectID    string          `json:"projectId"`
	Mode         Mode            `json:"mode"`
	Vertices     VertexSequence  `json:"coordinates"`
	Area         AreaResult      `json:"area"`
	DepthIn      int             `json:"depthInches"`
	MaterialID   string          `json:"materialId"`
	MaterialName string          `json:"materialName"`
	Calculated   QuantityResult  `json:"calculatedQty"`
	Adjusted     *QuantityResult `json:"adjustedQty,omitempty"`
	Notes        string          `json:"notes"`
}

// Sink persists records and returns the new record id.
type Sink interface {
	Save(ctx context.Context, rec Record) (string, error)
}

// SessionConfig carries the collaborators of one capture session.
type SessionConfig struct {
	ProjectID string
	Source    LocationSource
	Materials []Material
	Densities []DensityProfile
	Sink      Sink
	// Lang selects the material name stored on save ("en", "es").
	Lang string
	// OnReading, if set, is called after each reading is applied.
	OnReading func(r Reading, appended bool)
}

// SessionView is a consistent snapshot of a session for display.
type SessionView struct {
	Step           Step              `json:"step"`
	Mode           Mode              `json:"mode"`
	Accuracy       AccuracyIndicator `json:"accuracy"`
	Points         int               `json:"points"`
	NeedMore       int               `json:"needMore"`
	CanClose       bool              `json:"canClose"`
	SelectedVertex *int              `json:"selectedVertex,omitempty"`
	Area           AreaResult        `json:"area"`
	MaterialID     string            `json:"materialId,omitempty"`
	DepthIn        int               `json:"depthInches"`
	Calculated     QuantityResult    `json:"calculatedQty"`
	EffectiveTons  float64           `json:"effectiveTons"`
	Overridden     bool              `json:"overridden"`
	Match          MatchConfidence   `json:"densityMatch,omitempty"`
}

// CaptureSession drives one measurement from GPS capture to save. All
// methods are safe for concurrent use; readings from the location stream
// are applied under the same lock as user actions.
type CaptureSession struct {
	mu sync.Mutex

	cfg      SessionConfig
	step     Step
	mode     Mode
	sampler  *Sampler
	vertices VertexSequence
	editor   *Editor
	est      *Estimator
	material *Material
	match    DensityMatch
	sub      *Subscription
	saving   bool
	savedID  string
}

func NewCaptureSession(cfg SessionConfig) *CaptureSession {
	return &CaptureSession{
		cfg:     cfg,
		step:    StepMode,
		mode:    ModeGPSWalk,
		sampler: NewSampler(),
		est:     NewEstimator(),
	}
}

// BeginPreCapture starts the location stream so the accuracy indicator can
// settle before capture begins.
func (s *CaptureSession) BeginPreCapture(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepMode {
		return fmt.Errorf("begin pre-capture from %s: %w", s.step, ErrWrongStep)
	}
	sub, err := Subscribe(ctx, s.cfg.Source, s.onReading)
	if err != nil {
		return fmt.Errorf("start location stream: %w", err)
	}
	s.sub = sub
	s.mode = ModeGPSWalk
	s.sampler.SetMode(SamplePreCapture)
	s.step = StepPreCapture
	return nil
}

func (s *CaptureSession) onReading(r Reading) {
	s.mu.Lock()
	if s.step != StepPreCapture && s.step != StepCapture {
		s.mu.Unlock()
		return
	}
	appended := s.sampler.Observe(r)
	if appended {
		s.vertices = s.sampler.Vertices()
	}
	hook := s.cfg.OnReading
	s.mu.Unlock()

	if hook != nil {
		hook(r, appended)
	}
}

// StartCapture begins recording vertices. A GPS fix is required.
func (s *CaptureSession) StartCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepPreCapture {
		return fmt.Errorf("start capture from %s: %w", s.step, ErrWrongStep)
	}
	if !s.sampler.HasFix() {
		return ErrNoFix
	}
	s.sampler.SetMode(SampleCapture)
	s.vertices = nil
	s.step = StepCapture
	return nil
}

// TraceManually skips GPS capture and reviews a polygon entered by hand.
func (s *CaptureSession) TraceManually(v VertexSequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepMode {
		return fmt.Errorf("trace from %s: %w", s.step, ErrWrongStep)
	}
	if len(v) < MinPolygonVertices {
		return ErrTooFewVertices
	}
	s.mode = ModeAerialTrace
	s.vertices = v.Clone()
	s.editor = NewEditor(&s.vertices)
	s.step = StepReview
	return nil
}

// ClosePolygon ends capture and stops the location stream.
func (s *CaptureSession) ClosePolygon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepCapture {
		return fmt.Errorf("close polygon from %s: %w", s.step, ErrWrongStep)
	}
	if len(s.vertices) < MinPolygonVertices {
		return ErrTooFewVertices
	}
	s.stopLocked()
	s.editor = NewEditor(&s.vertices)
	s.step = StepReview
	return nil
}

// SelectVertex toggles the selection of vertex i during review.
func (s *CaptureSession) SelectVertex(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepReview {
		return fmt.Errorf("select vertex in %s: %w", s.step, ErrWrongStep)
	}
	s.editor.Toggle(i)
	return nil
}

// RemoveSelectedVertex removes the selected vertex. It reports false when
// nothing was removed.
func (s *CaptureSession) RemoveSelectedVertex() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepReview {
		return false, fmt.Errorf("remove vertex in %s: %w", s.step, ErrWrongStep)
	}
	return s.editor.RemoveSelected(), nil
}

// Configure freezes the polygon and selects the first catalog material.
func (s *CaptureSession) Configure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepReview {
		return fmt.Errorf("configure from %s: %w", s.step, ErrWrongStep)
	}
	s.editor = nil
	s.step = StepConfigure
	s.est.SetDepth(DefaultDepthIn)
	if len(s.cfg.Materials) > 0 {
		s.selectMaterialLocked(&s.cfg.Materials[0])
	}
	return nil
}

func (s *CaptureSession) SelectMaterial(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepConfigure {
		return fmt.Errorf("select material in %s: %w", s.step, ErrWrongStep)
	}
	for i := range s.cfg.Materials {
		if s.cfg.Materials[i].ID == id {
			s.selectMaterialLocked(&s.cfg.Materials[i])
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownMatID, id)
}

func (s *CaptureSession) selectMaterialLocked(m *Material) {
	s.material = m
	s.match = MatchDensity(m, s.cfg.Densities)
	s.est.SetDensity(s.match.TonsPerCubicYard())
	if s.match.Confident() {
		s.est.SetDepth(s.match.DefaultDepth())
	}
}

func (s *CaptureSession) AdjustDepth(delta int) error {
	return s.configure(func(e *Estimator) { e.AdjustDepth(delta) })
}

func (s *CaptureSession) SetManualTons(tons float64) error {
	return s.configure(func(e *Estimator) { e.SetManualTons(tons) })
}

func (s *CaptureSession) AdjustTons(steps int) error {
	return s.configure(func(e *Estimator) { e.AdjustTons(steps) })
}

func (s *CaptureSession) ResetTons() error {
	return s.configure(func(e *Estimator) { e.ResetTons() })
}

func (s *CaptureSession) configure(fn func(*Estimator)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepConfigure || s.saving {
		return fmt.Errorf("adjust quantity in %s: %w", s.step, ErrWrongStep)
	}
	s.est.SetArea(CalcArea(s.vertices).SqFt)
	fn(s.est)
	return nil
}

// View recomputes area and quantity from the current vertices.
func (s *CaptureSession) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	area := CalcArea(s.vertices)
	s.est.SetArea(area.SqFt)

	v := SessionView{
		Step:     s.step,
		Mode:     s.mode,
		Accuracy: s.sampler.Indicator(),
		Points:   len(s.vertices),
		NeedMore: max(0, MinPolygonVertices-len(s.vertices)),
		CanClose: s.step == StepCapture && len(s.vertices) >= MinPolygonVertices,
		Area:     area,
	}
	if s.editor != nil {
		if i, ok := s.editor.Selected(); ok {
			v.SelectedVertex = &i
		}
	}
	if s.step == StepConfigure || s.step == StepSaved {
		v.DepthIn = s.est.Depth()
		v.Calculated = s.est.Calculated()
		v.EffectiveTons = s.est.EffectiveTons()
		v.Overridden = s.est.Overridden()
		v.Match = s.match.Confidence
		if s.material != nil {
			v.MaterialID = s.material.ID
		}
	}
	return v
}

// SavedID returns the id assigned by the sink, or "" before a save.
func (s *CaptureSession) SavedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.savedID
}

// Vertices returns a copy of the current polygon.
func (s *CaptureSession) Vertices() VertexSequence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vertices.Clone()
}

// Save hands the configured measurement to the sink. On failure the session
// stays in the configure step so the caller can retry. Only one save runs at
// a time; a concurrent call fails with ErrWrongStep. If the session is
// cancelled while the sink is writing, it stays cancelled.
func (s *CaptureSession) Save(ctx context.Context, label, notes string) (string, error) {
	s.mu.Lock()
	if s.step != StepConfigure {
		s.mu.Unlock()
		return "", fmt.Errorf("save from %s: %w", s.step, ErrWrongStep)
	}
	if s.saving {
		s.mu.Unlock()
		return "", fmt.Errorf("save in progress: %w", ErrWrongStep)
	}
	label = strings.TrimSpace(label)
	if label == "" {
		s.mu.Unlock()
		return "", ErrLabelRequired
	}
	if s.material == nil {
		s.mu.Unlock()
		return "", ErrNoMaterial
	}
	sink := s.cfg.Sink
	if sink == nil {
		s.mu.Unlock()
		return "", errors.New("sitemeasure: no sink configured")
	}
	rec := s.recordLocked(label, notes)
	s.saving = true
	s.mu.Unlock()

	id, err := sink.Save(ctx, rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if err != nil {
		return "", err
	}
	s.savedID = id
	if s.step == StepConfigure {
		s.step = StepSaved
	}
	return id, nil
}

func (s *CaptureSession) recordLocked(label, notes string) Record {
	area := CalcArea(s.vertices)
	s.est.SetArea(area.SqFt)

	return Record{
		Label:        label,
		ProjectID:    s.cfg.ProjectID,
		Mode:         s.mode,
		Vertices:     s.vertices.Clone(),
		Area:         roundArea(area),
		DepthIn:      s.est.Depth(),
		MaterialID:   s.material.ID,
		MaterialName: LocalizedName(*s.material, s.cfg.Lang),
		Calculated:   roundQuantity(s.est.Calculated()),
		Adjusted:     adjustedQuantity(s.est),
		Notes:        strings.TrimSpace(notes),
	}
}

// Cancel discards the capture and releases the location stream.
func (s *CaptureSession) Cancel() {
	s.mu.Lock()
	sub := s.stopLocked()
	s.vertices = nil
	s.sampler.Reset()
	s.editor = nil
	if s.step != StepSaved {
		s.step = StepCancelled
	}
	s.mu.Unlock()
	sub.Wait()
}

// Close releases the location stream. It is safe to call more than once
// and after Cancel.
func (s *CaptureSession) Close() {
	s.mu.Lock()
	sub := s.stopLocked()
	s.mu.Unlock()
	sub.Wait()
}

// stopLocked cancels the subscription and returns it so the caller can wait
// for it outside the lock.
func (s *CaptureSession) stopLocked() *Subscription {
	sub := s.sub
	sub.Cancel()
	s.sampler.SetMode(SampleIdle)
	return sub
}

// LocalizedName returns the material name for lang, preferring the Spanish
// name for Spanish locales when one exists.
func LocalizedName(m Material, lang string) string {
	tag, err := language.Parse(lang)
	if err == nil && m.NameEs != "" {
		if base, _ := tag.Base(); base == spanishBase {
			return m.NameEs
		}
	}
	return m.Name
}

var spanishBase, _ = language.Spanish.Base()

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
