package measurements

import (
	"time"

	"github.com/gotrocks/proportal/internal/sitemeasure"
	"gorm.io/datatypes"
)

const (
	StatusDraft    = "draft"
	StatusOrdered  = "ordered"
	StatusArchived = "archived"
)

type Measurement struct {
	ID            string `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	ContractorID  string `gorm:"type:uuid;not null;index:idx_measurement_project,priority:1"`
	ProjectID     string `gorm:"type:uuid;not null;index:idx_measurement_project,priority:2"`
	Label         string `gorm:"not null"`
	CreatedByID   string `gorm:"type:uuid;not null"`
	CreatedByName string
	Mode          string `gorm:"not null"`

	Vertices datatypes.JSONType[sitemeasure.VertexSequence] `gorm:"type:jsonb;not null"`

	AreaSqFt float64
	AreaSqM  float64
	DepthIn  int

	MaterialID   string `gorm:"type:uuid"`
	MaterialName string

	CalculatedCubicYards float64
	CalculatedTons       float64
	AdjustedCubicYards   *float64
	AdjustedTons         *float64

	Notes   string
	Status  string  `gorm:"not null;default:'draft';index"`
	OrderID *string `gorm:"type:uuid"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (Measurement) TableName() string { return "sitemeasure.measurements" }

func (m Measurement) Calculated() sitemeasure.QuantityResult {
	return sitemeasure.QuantityResult{CubicYards: m.CalculatedCubicYards, Tons: m.CalculatedTons}
}

func (m Measurement) Adjusted() *sitemeasure.QuantityResult {
	if m.AdjustedTons == nil {
		return nil
	}
	q := sitemeasure.QuantityResult{Tons: *m.AdjustedTons}
	if m.AdjustedCubicYards != nil {
		q.CubicYards = *m.AdjustedCubicYards
	}
	return &q
}

func (m *Measurement) setQuantities(calc sitemeasure.QuantityResult, adj *sitemeasure.QuantityResult) {
	m.CalculatedCubicYards = calc.CubicYards
	m.CalculatedTons = calc.Tons
	m.AdjustedCubicYards = nil
	m.AdjustedTons = nil
	if adj != nil {
		cy, tons := adj.CubicYards, adj.Tons
		m.AdjustedCubicYards = &cy
		m.AdjustedTons = &tons
	}
}

type CreatedBy struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// Response is the JSON shape of a measurement.
type Response struct {
	ID            string                      `json:"id"`
	ContractorID  string                      `json:"contractorId"`
	ProjectID     string                      `json:"projectId"`
	Label         string                      `json:"label"`
	CreatedBy     CreatedBy                   `json:"createdBy"`
	Mode          string                      `json:"mode"`
	Coordinates   sitemeasure.VertexSequence  `json:"coordinates"`
	AreaSqFt      float64                     `json:"areaSqFt"`
	AreaSqM       float64                     `json:"areaSqM"`
	DepthInches   int                         `json:"depthInches"`
	MaterialID    string                      `json:"materialId"`
	MaterialName  string                      `json:"materialName"`
	CalculatedQty sitemeasure.QuantityResult  `json:"calculatedQty"`
	AdjustedQty   *sitemeasure.QuantityResult `json:"adjustedQty"`
	Notes         string                      `json:"notes"`
	Status        string                      `json:"status"`
	OrderID       *string                     `json:"orderId"`
	CreatedAt     time.Time                   `json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
}

func (m Measurement) Response() Response {
	coords := m.Vertices.Data()
	if coords == nil {
		coords = sitemeasure.VertexSequence{}
	}
	return Response{
		ID:            m.ID,
		ContractorID:  m.ContractorID,
		ProjectID:     m.ProjectID,
		Label:         m.Label,
		CreatedBy:     CreatedBy{UserID: m.CreatedByID, Name: m.CreatedByName},
		Mode:          m.Mode,
		Coordinates:   coords,
		AreaSqFt:      m.AreaSqFt,
		AreaSqM:       m.AreaSqM,
		DepthInches:   m.DepthIn,
		MaterialID:    m.MaterialID,
		MaterialName:  m.MaterialName,
		CalculatedQty: m.Calculated(),
		AdjustedQty:   m.Adjusted(),
		Notes:         m.Notes,
		Status:        m.Status,
		OrderID:       m.OrderID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
