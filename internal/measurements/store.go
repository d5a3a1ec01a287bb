package measurements

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("measurement not found")
	ErrNotDraft      = errors.New("only draft measurements can be edited")
	ErrNotArchivable = errors.New("measurement not found or not archivable")
)

// ListKind selects which measurements of a project are listed.
type ListKind string

const (
	// ListCart is the project's drafts.
	ListCart ListKind = "cart"
	// ListHistory is everything on the project that is not archived.
	ListHistory ListKind = "history"
)

func (k ListKind) Valid() bool { return k == ListCart || k == ListHistory }

// Repository persists measurements. Every lookup is scoped to a contractor.
type Repository interface {
	Create(ctx context.Context, m *Measurement) error
	Get(ctx context.Context, contractorID, id string) (Measurement, error)
	List(ctx context.Context, contractorID, projectID string, kind ListKind) ([]Measurement, error)
	Update(ctx context.Context, m *Measurement) error
	Archive(ctx context.Context, contractorID, id string) error
}

type GormStore struct {
	DB *gorm.DB
}

func (s GormStore) Create(ctx context.Context, m *Measurement) error {
	return s.DB.WithContext(ctx).Create(m).Error
}

func (s GormStore) Get(ctx context.Context, contractorID, id string) (Measurement, error) {
	var m Measurement
	err := s.DB.WithContext(ctx).First(&m, "id = ? AND contractor_id = ?", id, contractorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return m, ErrNotFound
	}
	return m, err
}

func (s GormStore) List(ctx context.Context, contractorID, projectID string, kind ListKind) ([]Measurement, error) {
	q := s.DB.WithContext(ctx).
		Where("contractor_id = ? AND project_id = ?", contractorID, projectID)
	switch kind {
	case ListCart:
		q = q.Where("status = ?", StatusDraft)
	case ListHistory:
		q = q.Where("status <> ?", StatusArchived)
	}

	var ms []Measurement
	err := q.Order("created_at DESC").Find(&ms).Error
	return ms, err
}

// Update saves m only while the stored row is still a draft.
func (s GormStore) Update(ctx context.Context, m *Measurement) error {
	res := s.DB.WithContext(ctx).
		Model(&Measurement{}).
		Where("id = ? AND contractor_id = ? AND status = ?", m.ID, m.ContractorID, StatusDraft).
		Select("label", "depth_in", "material_id", "material_name",
			"calculated_cubic_yards", "calculated_tons", "adjusted_cubic_yards", "adjusted_tons",
			"notes", "order_id", "updated_at").
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotDraft
	}
	return nil
}

func (s GormStore) Archive(ctx context.Context, contractorID, id string) error {
	res := s.DB.WithContext(ctx).
		Model(&Measurement{}).
		Where("id = ? AND contractor_id = ? AND status = ?", id, contractorID, StatusDraft).
		Updates(map[string]any{"status": StatusArchived, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotArchivable
	}
	return nil
}
