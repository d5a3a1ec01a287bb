package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gotrocks/proportal/internal/catalog"
	"github.com/gotrocks/proportal/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	materials []catalog.Material
	densities []catalog.DensityProfile
	err       error
	calls     int
}

func (f *fakeSource) LoadMaterials(ctx context.Context) ([]catalog.Material, error) {
	f.calls++
	return f.materials, f.err
}

func (f *fakeSource) LoadDensities(ctx context.Context) ([]catalog.DensityProfile, error) {
	f.calls++
	return f.densities, f.err
}

func newSource() *fakeSource {
	return &fakeSource{
		materials: []catalog.Material{
			{ID: "m-flex", Name: "Flex Base", NameEs: "Base Flexible", PricePerTon: 18.5, Available: 320, DensitySlug: "flex-base"},
			{ID: "m-pea", Name: "Pea Gravel", NameEs: "Grava Fina", PricePerTon: 26, Available: 175},
		},
		densities: []catalog.DensityProfile{
			{Slug: "flex-base", MaterialName: "Flex Base", TonsPerCubicYard: 1.45, DefaultDepthIn: 6, MinDepthIn: 4, MaxDepthIn: 12},
		},
	}
}

func TestStore_CachesUntilInvalidated(t *testing.T) {
	src := newSource()
	m := metrics.NewCollector("test", nil)
	store := catalog.NewStore(src, time.Minute, m)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ms, err := store.Materials(ctx)
		require.NoError(t, err)
		assert.Len(t, ms, 2)
	}
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CatalogCacheHits.WithLabelValues("materials")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogCacheMisses.WithLabelValues("materials")))

	_, err := store.Densities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)

	store.Invalidate()
	_, err = store.Materials(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls)
}

func TestStore_ErrorsAreNotCached(t *testing.T) {
	src := newSource()
	src.err = errors.New("db down")
	store := catalog.NewStore(src, time.Minute, nil)

	_, err := store.Materials(context.Background())
	require.Error(t, err)

	src.err = nil
	ms, err := store.Materials(context.Background())
	require.NoError(t, err)
	assert.Len(t, ms, 2)
}

func TestStore_MaterialLookup(t *testing.T) {
	store := catalog.NewStore(newSource(), time.Minute, nil)

	m, err := store.Material(context.Background(), "m-pea")
	require.NoError(t, err)
	assert.Equal(t, "Pea Gravel", m.Name)

	_, err = store.Material(context.Background(), "missing")
	assert.ErrorIs(t, err, catalog.ErrMaterialNotFound)
}

func TestHandler_ListMaterialsAndDensities(t *testing.T) {
	h := catalog.Handler{Store: catalog.NewStore(newSource(), time.Minute, nil)}

	rec := httptest.NewRecorder()
	h.ListMaterials(rec, httptest.NewRequest(http.MethodGet, "/materials", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var mats struct {
		Materials []map[string]any `json:"materials"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mats))
	require.Len(t, mats.Materials, 2)
	assert.Equal(t, "Base Flexible", mats.Materials[0]["nameEs"])
	assert.Equal(t, 320.0, mats.Materials[0]["available"])

	rec = httptest.NewRecorder()
	h.ListMaterials(rec, httptest.NewRequest(http.MethodGet, "/materials?densities=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var dens struct {
		Densities []catalog.DensityProfile `json:"densities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dens))
	require.Len(t, dens.Densities, 1)
	assert.Equal(t, 1.45, dens.Densities[0].TonsPerCubicYard)
}

func TestHandler_SourceErrorIs500(t *testing.T) {
	src := newSource()
	src.err = errors.New("db down")
	h := catalog.Handler{Store: catalog.NewStore(src, time.Minute, nil)}

	rec := httptest.NewRecorder()
	h.ListDensities(rec, httptest.NewRequest(http.MethodGet, "/densities", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

const catalogYAML = `
contractor:
  name: ignored by the catalog loader
densities:
  - slug: flex-base
    materialName: Flex Base
    category: base
    tonsPerCubicYard: 1.45
    defaultDepthIn: 6
    minDepthIn: 4
    maxDepthIn: 12
  - slug: pea-gravel
    materialName: Pea Gravel
    tonsPerCubicYard: 1.4
materials:
  - name: Flex Base
    nameEs: Base Flexible
    pricePerTon: 18.5
    available: 320
    density: flex-base
  - name: Pea Gravel
    nameEs: Grava Fina
    pricePerTon: 26
    available: 175
    density: pea-gravel
`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_RowsAreDeterministic(t *testing.T) {
	f, err := catalog.LoadFile(writeFile(t, catalogYAML))
	require.NoError(t, err)

	ms, ps := f.Rows(catalog.Namespace)
	require.Len(t, ms, 2)
	require.Len(t, ps, 2)

	assert.Equal(t, catalog.MaterialID(catalog.Namespace, "flex   BASE"), ms[0].ID)
	assert.Equal(t, "tons", ms[0].Unit)
	assert.Equal(t, "flex-base", ms[0].DensitySlug)
	assert.True(t, ms[0].Active)

	assert.Equal(t, "base", ps[0].Category)
	assert.Equal(t, 3, ps[1].DefaultDepthIn, "unset depths take global defaults")
	assert.Equal(t, 1, ps[1].MinDepthIn)
	assert.Equal(t, 24, ps[1].MaxDepthIn)

	other := uuid.MustParse("00000000-0000-5000-8000-000000000001")
	assert.NotEqual(t, ms[0].ID, catalog.MaterialID(other, "Flex Base"))
}

func TestLoadFile_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown density", "materials:\n  - name: Sand\n    density: nope\n"},
		{"duplicate material", "materials:\n  - name: Sand\n  - name: sand\n"},
		{"missing slug", "densities:\n  - materialName: Sand\n    tonsPerCubicYard: 1.3\n"},
		{"non-positive density", "densities:\n  - slug: sand\n    tonsPerCubicYard: 0\n"},
		{"depth out of range", "densities:\n  - slug: sand\n    tonsPerCubicYard: 1.3\n    defaultDepthIn: 30\n"},
		{"default below min", "densities:\n  - slug: sand\n    tonsPerCubicYard: 1.3\n    minDepthIn: 4\n    defaultDepthIn: 2\n"},
		{"negative price", "materials:\n  - name: Sand\n    pricePerTon: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.LoadFile(writeFile(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestMaterialCore(t *testing.T) {
	m := catalog.Material{ID: "1", Name: "Flex Base", NameEs: "Base Flexible", DensitySlug: "flex-base", Available: 3}
	core := catalog.CoreMaterials([]catalog.Material{m})
	require.Len(t, core, 1)
	assert.Equal(t, "flex-base", core[0].DensitySlug)
	assert.Equal(t, 3.0, core[0].Available)
}
