package projects

import "time"

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

type Project struct {
	ID           string    `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ContractorID string    `gorm:"type:uuid;index;not null" json:"-"`
	Name         string    `gorm:"not null" json:"name"`
	PO           string    `json:"po"`
	Address      string    `json:"address,omitempty"`
	Status       string    `gorm:"not null;default:'active'" json:"status"`
	CreatedAt    time.Time `json:"-"`
}

func (Project) TableName() string { return "portal.projects" }
