package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/gotrocks/proportal/internal/sitemeasure"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaterialEntry is one material as written in a catalog file.
type MaterialEntry struct {
	Name        string  `yaml:"name"`
	NameEs      string  `yaml:"nameEs"`
	PricePerTon float64 `yaml:"pricePerTon"`
	Available   float64 `yaml:"available"`
	Unit        string  `yaml:"unit"`
	Density     string  `yaml:"density"`
}

// DensityEntry is one density profile as written in a catalog file.
type DensityEntry struct {
	Slug             string  `yaml:"slug"`
	MaterialName     string  `yaml:"materialName"`
	Category         string  `yaml:"category"`
	TonsPerCubicYard float64 `yaml:"tonsPerCubicYard"`
	DefaultDepthIn   int     `yaml:"defaultDepthIn"`
	MinDepthIn       int     `yaml:"minDepthIn"`
	MaxDepthIn       int     `yaml:"maxDepthIn"`
}

// File is the YAML catalog format. Unknown top-level keys are ignored so
// the same document can carry other seed data.
type File struct {
	Materials []MaterialEntry `yaml:"materials"`
	Densities []DensityEntry  `yaml:"densities"`
}

func LoadFile(path string) (File, error) {
	var f File
	b, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return f, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Validate checks slugs, depth bounds and material to density references.
func (f File) Validate() error {
	var errs []error
	slugs := make(map[string]bool, len(f.Densities))
	for i, d := range f.Densities {
		switch {
		case d.Slug == "":
			errs = append(errs, fmt.Errorf("densities[%d]: slug is required", i))
		case slugs[d.Slug]:
			errs = append(errs, fmt.Errorf("densities[%d]: duplicate slug %q", i, d.Slug))
		}
		slugs[d.Slug] = true

		if d.TonsPerCubicYard <= 0 {
			errs = append(errs, fmt.Errorf("densities[%d]: tonsPerCubicYard must be positive", i))
		}
		p := d.profile()
		if p.MinDepthIn < sitemeasure.MinDepthIn || p.MaxDepthIn > sitemeasure.MaxDepthIn ||
			p.MinDepthIn > p.DefaultDepthIn || p.DefaultDepthIn > p.MaxDepthIn {
			errs = append(errs, fmt.Errorf("densities[%d]: depth bounds %d <= %d <= %d outside %d..%d",
				i, p.MinDepthIn, p.DefaultDepthIn, p.MaxDepthIn, sitemeasure.MinDepthIn, sitemeasure.MaxDepthIn))
		}
	}

	names := make(map[string]bool, len(f.Materials))
	for i, m := range f.Materials {
		if m.Name == "" {
			errs = append(errs, fmt.Errorf("materials[%d]: name is required", i))
			continue
		}
		if names[canonical(m.Name)] {
			errs = append(errs, fmt.Errorf("materials[%d]: duplicate name %q", i, m.Name))
		}
		names[canonical(m.Name)] = true
		if m.Density != "" && !slugs[m.Density] {
			errs = append(errs, fmt.Errorf("materials[%d]: unknown density %q", i, m.Density))
		}
		if m.PricePerTon < 0 || m.Available < 0 {
			errs = append(errs, fmt.Errorf("materials[%d]: price and availability must not be negative", i))
		}
	}
	return errors.Join(errs...)
}

// profile fills unset depth bounds with the global defaults.
func (d DensityEntry) profile() DensityProfile {
	p := DensityProfile{
		Slug:             d.Slug,
		MaterialName:     d.MaterialName,
		Category:         d.Category,
		TonsPerCubicYard: d.TonsPerCubicYard,
		DefaultDepthIn:   d.DefaultDepthIn,
		MinDepthIn:       d.MinDepthIn,
		MaxDepthIn:       d.MaxDepthIn,
	}
	if p.DefaultDepthIn == 0 {
		p.DefaultDepthIn = sitemeasure.DefaultDepthIn
	}
	if p.MinDepthIn == 0 {
		p.MinDepthIn = sitemeasure.MinDepthIn
	}
	if p.MaxDepthIn == 0 {
		p.MaxDepthIn = sitemeasure.MaxDepthIn
	}
	return p
}

// Rows converts the file to database rows with deterministic material ids.
func (f File) Rows(ns uuid.UUID) ([]Material, []DensityProfile) {
	ps := make([]DensityProfile, 0, len(f.Densities))
	for _, d := range f.Densities {
		ps = append(ps, d.profile())
	}

	ms := make([]Material, 0, len(f.Materials))
	for _, m := range f.Materials {
		unit := m.Unit
		if unit == "" {
			unit = "tons"
		}
		ms = append(ms, Material{
			ID:          MaterialID(ns, m.Name),
			Name:        m.Name,
			NameEs:      m.NameEs,
			PricePerTon: m.PricePerTon,
			Available:   m.Available,
			Unit:        unit,
			Active:      true,
			DensitySlug: m.Density,
		})
	}
	return ms, ps
}

// Import upserts the file's densities and materials in one transaction.
func Import(ctx context.Context, db *gorm.DB, f File) error {
	ms, ps := f.Rows(Namespace)

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range ps {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slug"}},
				DoUpdates: clause.AssignmentColumns([]string{"material_name", "category", "tons_per_cubic_yard", "default_depth_in", "min_depth_in", "max_depth_in", "updated_at"}),
			}).Create(&p).Error; err != nil {
				return fmt.Errorf("upsert density %q: %w", p.Slug, err)
			}
		}
		for _, m := range ms {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "name_es", "price_per_ton", "available", "unit", "active", "density_slug", "updated_at"}),
			}).Create(&m).Error; err != nil {
				return fmt.Errorf("upsert material %q: %w", m.Name, err)
			}
		}
		return nil
	})
}
