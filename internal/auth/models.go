package auth

import (
	"slices"
	"time"

	"github.com/lib/pq"
)

const (
	RoleForeman    = "foreman"
	RoleSupervisor = "supervisor"

	FeatureSiteMeasure = "sitemeasure"
)

type Contractor struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Features  pq.StringArray `gorm:"type:text[]" json:"features"`
	Active    bool           `gorm:"default:true" json:"active"`
	CreatedAt time.Time      `json:"createdAt"`
}

// HasFeature reports whether the contractor has feature switched on.
func (c Contractor) HasFeature(feature string) bool {
	return slices.Contains(c.Features, feature)
}

type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;index" json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
}

type User struct {
	UserID         string     `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	Name           string     `json:"name"`
	Password       string     `json:"password,omitempty" gorm:"-"`
	HashedPassword string     `json:"-"`
	Role           string     `gorm:"not null;default:'foreman'" json:"role"`
	ContractorID   string     `gorm:"type:uuid;index" json:"contractorId"`
	Contractor     Contractor `gorm:"foreignKey:ContractorID" json:"-"`
	Language       string     `gorm:"default:'en'" json:"language"`
	IsAvailable    bool       `gorm:"default:false" json:"isAvailable"`
	Active         bool       `gorm:"default:true" json:"-"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func (Contractor) TableName() string { return "app_auth.contractors" }
func (Session) TableName() string    { return "app_auth.sessions" }
func (User) TableName() string       { return "app_auth.users" }

// ValidLanguage reports whether lang is a supported UI language.
func ValidLanguage(lang string) bool {
	return lang == "en" || lang == "es"
}
