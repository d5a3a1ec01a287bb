package catalog

import (
	"time"

	"github.com/gotrocks/proportal/internal/sitemeasure"
)

type Material struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	NameEs      string    `json:"nameEs"`
	PricePerTon float64   `json:"pricePerTon"`
	Available   float64   `json:"available"`
	Unit        string    `gorm:"default:'tons'" json:"unit"`
	Active      bool      `gorm:"default:true" json:"-"`
	DensitySlug string    `gorm:"index" json:"densitySlug,omitempty"`
	UpdatedAt   time.Time `json:"-"`
}

type DensityProfile struct {
	Slug             string    `gorm:"primaryKey" json:"slug"`
	MaterialName     string    `gorm:"not null" json:"materialName"`
	Category         string    `json:"category,omitempty"`
	TonsPerCubicYard float64   `gorm:"not null" json:"tonsPerCubicYard"`
	DefaultDepthIn   int       `gorm:"not null;default:3" json:"defaultDepthIn"`
	MinDepthIn       int       `gorm:"not null;default:1" json:"minDepthIn"`
	MaxDepthIn       int       `gorm:"not null;default:24" json:"maxDepthIn"`
	UpdatedAt        time.Time `json:"-"`
}

func (Material) TableName() string       { return "catalog.materials" }
func (DensityProfile) TableName() string { return "catalog.density_profiles" }

func (m Material) Core() sitemeasure.Material {
	return sitemeasure.Material{
		ID:          m.ID,
		Name:        m.Name,
		NameEs:      m.NameEs,
		PricePerTon: m.PricePerTon,
		Available:   m.Available,
		DensitySlug: m.DensitySlug,
	}
}

func (p DensityProfile) Core() sitemeasure.DensityProfile {
	return sitemeasure.DensityProfile{
		Slug:             p.Slug,
		MaterialName:     p.MaterialName,
		TonsPerCubicYard: p.TonsPerCubicYard,
		DefaultDepthIn:   p.DefaultDepthIn,
		MinDepthIn:       p.MinDepthIn,
		MaxDepthIn:       p.MaxDepthIn,
	}
}

func CoreMaterials(ms []Material) []sitemeasure.Material {
	out := make([]sitemeasure.Material, len(ms))
	for i, m := range ms {
		out[i] = m.Core()
	}
	return out
}

func CoreDensities(ps []DensityProfile) []sitemeasure.DensityProfile {
	out := make([]sitemeasure.DensityProfile, len(ps))
	for i, p := range ps {
		out[i] = p.Core()
	}
	return out
}
