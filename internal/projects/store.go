package projects

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Store struct {
	DB *gorm.DB
}

// Active lists a contractor's active projects sorted by name.
func (s Store) Active(ctx context.Context, contractorID string) ([]Project, error) {
	var ps []Project
	err := s.DB.WithContext(ctx).
		Where("contractor_id = ? AND status = ?", contractorID, StatusActive).
		Order("name").
		Find(&ps).Error
	return ps, err
}

// BelongsTo reports whether projectID is a project of contractorID.
func (s Store) BelongsTo(ctx context.Context, projectID, contractorID string) (bool, error) {
	var p Project
	err := s.DB.WithContext(ctx).
		Select("id").
		First(&p, "id = ? AND contractor_id = ?", projectID, contractorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}
