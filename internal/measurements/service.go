package measurements

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gotrocks/proportal/internal/catalog"
	"github.com/gotrocks/proportal/internal/metrics"
	"github.com/gotrocks/proportal/internal/sitemeasure"
	"github.com/gotrocks/proportal/internal/utils"
	"gorm.io/datatypes"
)

// Catalog is the read side of the material catalog.
type Catalog interface {
	Materials(ctx context.Context) ([]catalog.Material, error)
	Densities(ctx context.Context) ([]catalog.DensityProfile, error)
	Material(ctx context.Context, id string) (catalog.Material, error)
}

// ProjectChecker confirms that a project belongs to a contractor.
type ProjectChecker interface {
	BelongsTo(ctx context.Context, projectID, contractorID string) (bool, error)
}

type Service struct {
	Repo     Repository
	Catalog  Catalog
	Projects ProjectChecker
	Metrics  *metrics.Collector
}

// EstimateRequest is a stateless preview of a traced polygon.
type EstimateRequest struct {
	Coordinates  sitemeasure.VertexSequence `json:"coordinates"`
	MaterialID   string                     `json:"materialId"`
	DepthInches  int                        `json:"depthInches"`
	AdjustedTons *float64                   `json:"adjustedTons"`
}

type CreateRequest struct {
	Label        string                     `json:"label"`
	ProjectID    string                     `json:"projectId"`
	Mode         sitemeasure.Mode           `json:"mode"`
	Coordinates  sitemeasure.VertexSequence `json:"coordinates"`
	DepthInches  int                        `json:"depthInches"`
	MaterialID   string                     `json:"materialId"`
	AdjustedTons *float64                   `json:"adjustedTons"`
	Notes        string                     `json:"notes"`
}

// UpdateRequest carries the fields to change; nil fields are left alone.
// ResetAdjusted drops a manual tons override.
type UpdateRequest struct {
	Label         *string  `json:"label"`
	DepthInches   *int     `json:"depthInches"`
	MaterialID    *string  `json:"materialId"`
	AdjustedTons  *float64 `json:"adjustedTons"`
	ResetAdjusted bool     `json:"resetAdjusted"`
	Notes         *string  `json:"notes"`
	OrderID       *string  `json:"orderId"`
}

func (u UpdateRequest) empty() bool {
	return u.Label == nil && u.DepthInches == nil && u.MaterialID == nil &&
		u.AdjustedTons == nil && !u.ResetAdjusted && u.Notes == nil && u.OrderID == nil
}

func invalid(field, msg string) error {
	return &sitemeasure.ValidationError{Field: field, Message: msg}
}

// material resolves an active material and the density profiles.
func (s *Service) material(ctx context.Context, id string) (*sitemeasure.Material, []sitemeasure.DensityProfile, error) {
	ps, err := s.Catalog.Densities(ctx)
	if err != nil {
		return nil, nil, err
	}
	densities := catalog.CoreDensities(ps)
	if id == "" {
		return nil, densities, nil
	}

	m, err := s.Catalog.Material(ctx, id)
	if errors.Is(err, catalog.ErrMaterialNotFound) {
		return nil, nil, invalid("materialId", "unknown material")
	}
	if err != nil {
		return nil, nil, err
	}
	core := m.Core()
	return &core, densities, nil
}

func (s *Service) estimate(ctx context.Context, in sitemeasure.EstimateInput, materialID string) (sitemeasure.Estimate, *sitemeasure.Material, error) {
	m, densities, err := s.material(ctx, materialID)
	if err != nil {
		return sitemeasure.Estimate{}, nil, err
	}
	in.Material = m
	in.Densities = densities
	est := sitemeasure.EstimateQuantity(in)
	if s.Metrics != nil && m != nil {
		s.Metrics.DensityMatches.WithLabelValues(string(est.Match.Confidence)).Inc()
	}
	return est, m, nil
}

// Estimate previews area and quantity without saving anything.
func (s *Service) Estimate(ctx context.Context, req EstimateRequest) (sitemeasure.Estimate, error) {
	if err := validateCoordinates(req.Coordinates); err != nil {
		return sitemeasure.Estimate{}, err
	}
	est, _, err := s.estimate(ctx, sitemeasure.EstimateInput{
		Vertices:     req.Coordinates,
		DepthIn:      req.DepthInches,
		AdjustedTons: req.AdjustedTons,
	}, req.MaterialID)
	if err == nil && s.Metrics != nil {
		s.Metrics.EstimatesTotal.Inc()
	}
	return est, err
}

func validateCoordinates(v sitemeasure.VertexSequence) error {
	if len(v) < sitemeasure.MinPolygonVertices {
		return invalid("coordinates", "at least 3 points are required")
	}
	return nil
}

// Create validates req, recomputes area and quantity from its coordinates
// and stores a new draft owned by the session's contractor.
func (s *Service) Create(ctx context.Context, session utils.SessionData, req CreateRequest) (Measurement, error) {
	rec, err := s.Record(ctx, session.Language, req)
	if err != nil {
		return Measurement{}, err
	}
	return s.save(ctx, session, rec)
}

// Record turns a create request into the record the capture session would
// have produced for the same polygon.
func (s *Service) Record(ctx context.Context, lang string, req CreateRequest) (sitemeasure.Record, error) {
	label := strings.TrimSpace(req.Label)
	switch {
	case label == "":
		return sitemeasure.Record{}, invalid("label", "label is required")
	case req.ProjectID == "":
		return sitemeasure.Record{}, invalid("projectId", "projectId is required")
	case !req.Mode.Valid():
		return sitemeasure.Record{}, invalid("mode", "mode must be gps_walk or aerial_trace")
	case req.MaterialID == "":
		return sitemeasure.Record{}, invalid("materialId", "materialId is required")
	}
	if err := validateCoordinates(req.Coordinates); err != nil {
		return sitemeasure.Record{}, err
	}

	est, m, err := s.estimate(ctx, sitemeasure.EstimateInput{
		Vertices:     req.Coordinates,
		DepthIn:      req.DepthInches,
		AdjustedTons: req.AdjustedTons,
	}, req.MaterialID)
	if err != nil {
		return sitemeasure.Record{}, err
	}
	if est.Area.SqFt <= 0 {
		return sitemeasure.Record{}, invalid("coordinates", "polygon has no area")
	}

	return sitemeasure.Record{
		Label:        label,
		ProjectID:    req.ProjectID,
		Mode:         req.Mode,
		Vertices:     req.Coordinates.Clone(),
		Area:         est.Area,
		DepthIn:      est.DepthIn,
		MaterialID:   m.ID,
		MaterialName: sitemeasure.LocalizedName(*m, lang),
		Calculated:   est.Calculated,
		Adjusted:     est.Adjusted,
		Notes:        strings.TrimSpace(req.Notes),
	}, nil
}

func (s *Service) save(ctx context.Context, session utils.SessionData, rec sitemeasure.Record) (Measurement, error) {
	ok, err := s.Projects.BelongsTo(ctx, rec.ProjectID, session.ContractorID)
	if err != nil {
		return Measurement{}, fmt.Errorf("check project: %w", err)
	}
	if !ok {
		return Measurement{}, invalid("projectId", "unknown project")
	}

	m := Measurement{
		ID:            utils.GenerateUUID(),
		ContractorID:  session.ContractorID,
		ProjectID:     rec.ProjectID,
		Label:         rec.Label,
		CreatedByID:   session.UserID,
		CreatedByName: session.Name,
		Mode:          string(rec.Mode),
		AreaSqFt:      rec.Area.SqFt,
		AreaSqM:       rec.Area.SqM,
		DepthIn:       rec.DepthIn,
		MaterialID:    rec.MaterialID,
		MaterialName:  rec.MaterialName,
		Notes:         rec.Notes,
		Status:        StatusDraft,
	}
	m.Vertices = datatypes.NewJSONType(rec.Vertices)
	m.setQuantities(rec.Calculated, rec.Adjusted)

	if err := s.Repo.Create(ctx, &m); err != nil {
		return Measurement{}, fmt.Errorf("create measurement: %w", err)
	}

	if s.Metrics != nil {
		s.Metrics.MeasurementsSaved.WithLabelValues(string(rec.Mode), strconv.FormatBool(rec.Adjusted != nil)).Inc()
		s.Metrics.MeasuredAreaSqFt.Observe(rec.Area.SqFt)
	}
	return m, nil
}

// Sink saves capture session records on behalf of one signed-in user.
type Sink struct {
	Service *Service
	Session utils.SessionData
}

func (k Sink) Save(ctx context.Context, rec sitemeasure.Record) (string, error) {
	m, err := k.Service.save(ctx, k.Session, rec)
	return m.ID, err
}

func (s *Service) Get(ctx context.Context, session utils.SessionData, id string) (Measurement, error) {
	return s.Repo.Get(ctx, session.ContractorID, id)
}

func (s *Service) List(ctx context.Context, session utils.SessionData, projectID string, kind ListKind) ([]Measurement, error) {
	if projectID == "" || !kind.Valid() {
		return nil, invalid("list", "list must be cart or history and projectId is required")
	}
	return s.Repo.List(ctx, session.ContractorID, projectID, kind)
}

// Update applies req to a draft. A depth or material change recomputes the
// calculated quantity and drops any manual override unless the same request
// sets a new one.
func (s *Service) Update(ctx context.Context, session utils.SessionData, id string, req UpdateRequest) (Measurement, error) {
	if req.empty() {
		return Measurement{}, invalid("", "no fields to update")
	}

	m, err := s.Repo.Get(ctx, session.ContractorID, id)
	if err != nil {
		return Measurement{}, err
	}
	if m.Status != StatusDraft {
		return Measurement{}, ErrNotDraft
	}

	if req.Label != nil {
		label := strings.TrimSpace(*req.Label)
		if label == "" {
			return Measurement{}, invalid("label", "label is required")
		}
		m.Label = label
	}
	if req.Notes != nil {
		m.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.OrderID != nil {
		if *req.OrderID == "" {
			m.OrderID = nil
		} else {
			m.OrderID = req.OrderID
		}
	}

	recompute := req.DepthInches != nil || req.MaterialID != nil
	if recompute || req.AdjustedTons != nil || req.ResetAdjusted {
		materialID := m.MaterialID
		if req.MaterialID != nil {
			materialID = strings.TrimSpace(*req.MaterialID)
			if materialID == "" {
				return Measurement{}, invalid("materialId", "materialId is required")
			}
		}
		depth := m.DepthIn
		if req.DepthInches != nil {
			depth = sitemeasure.ClampDepth(*req.DepthInches)
		}

		adjusted := m.AdjustedTons
		if recompute || req.ResetAdjusted {
			adjusted = nil
		}
		if req.AdjustedTons != nil {
			adjusted = req.AdjustedTons
		}

		est, mat, err := s.estimate(ctx, sitemeasure.EstimateInput{
			Vertices:     m.Vertices.Data(),
			DepthIn:      depth,
			AdjustedTons: adjusted,
		}, materialID)
		if err != nil {
			return Measurement{}, err
		}

		m.DepthIn = est.DepthIn
		if req.MaterialID != nil {
			m.MaterialID = mat.ID
			m.MaterialName = sitemeasure.LocalizedName(*mat, session.Language)
		}
		m.setQuantities(est.Calculated, est.Adjusted)
	}

	m.UpdatedAt = time.Now()
	if err := s.Repo.Update(ctx, &m); err != nil {
		return Measurement{}, err
	}
	return m, nil
}

// Archive soft-deletes a draft.
func (s *Service) Archive(ctx context.Context, session utils.SessionData, id string) error {
	if err := s.Repo.Archive(ctx, session.ContractorID, id); err != nil {
		return err
	}
	if s.Metrics != nil {
		s.Metrics.MeasurementsArchived.Inc()
	}
	return nil
}

// IsValidation reports whether err is a client input error.
func IsValidation(err error) bool {
	var ve *sitemeasure.ValidationError
	return errors.As(err, &ve)
}
