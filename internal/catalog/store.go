package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gotrocks/proportal/internal/metrics"
	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

var ErrMaterialNotFound = errors.New("material not found")

const (
	materialsKey = "materials"
	densitiesKey = "densities"
)

// Source loads the catalog from persistent storage.
type Source interface {
	LoadMaterials(ctx context.Context) ([]Material, error)
	LoadDensities(ctx context.Context) ([]DensityProfile, error)
}

// GormSource reads active materials and all density profiles from Postgres.
type GormSource struct {
	DB *gorm.DB
}

func (s GormSource) LoadMaterials(ctx context.Context) ([]Material, error) {
	var ms []Material
	err := s.DB.WithContext(ctx).Where("active").Order("name").Find(&ms).Error
	return ms, err
}

func (s GormSource) LoadDensities(ctx context.Context) ([]DensityProfile, error) {
	var ps []DensityProfile
	err := s.DB.WithContext(ctx).Order("material_name").Find(&ps).Error
	return ps, err
}

// Store serves the catalog from an in-process cache in front of a Source.
type Store struct {
	src     Source
	cache   *cache.Cache
	metrics *metrics.Collector
}

func NewStore(src Source, ttl time.Duration, m *metrics.Collector) *Store {
	return &Store{
		src:     src,
		cache:   cache.New(ttl, ttl*2),
		metrics: m,
	}
}

func (s *Store) Materials(ctx context.Context) ([]Material, error) {
	if cached, found := s.cache.Get(materialsKey); found {
		s.hit(materialsKey)
		return cached.([]Material), nil
	}
	s.miss(materialsKey)

	ms, err := s.src.LoadMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("load materials: %w", err)
	}
	s.cache.Set(materialsKey, ms, cache.DefaultExpiration)
	return ms, nil
}

func (s *Store) Densities(ctx context.Context) ([]DensityProfile, error) {
	if cached, found := s.cache.Get(densitiesKey); found {
		s.hit(densitiesKey)
		return cached.([]DensityProfile), nil
	}
	s.miss(densitiesKey)

	ps, err := s.src.LoadDensities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load densities: %w", err)
	}
	s.cache.Set(densitiesKey, ps, cache.DefaultExpiration)
	return ps, nil
}

// Material returns the active material with the given id.
func (s *Store) Material(ctx context.Context, id string) (Material, error) {
	ms, err := s.Materials(ctx)
	if err != nil {
		return Material{}, err
	}
	for _, m := range ms {
		if m.ID == id {
			return m, nil
		}
	}
	return Material{}, ErrMaterialNotFound
}

// Invalidate drops cached entries so the next read goes to the Source.
func (s *Store) Invalidate() {
	s.cache.Flush()
}

func (s *Store) hit(kind string) {
	if s.metrics != nil {
		s.metrics.CatalogCacheHits.WithLabelValues(kind).Inc()
	}
}

func (s *Store) miss(kind string) {
	if s.metrics != nil {
		s.metrics.CatalogCacheMisses.WithLabelValues(kind).Inc()
	}
}
