package auth

import (
	"github.com/gotrocks/proportal/internal/db"
	"github.com/gotrocks/proportal/internal/utils"
)

type SessionInfo struct{}

func (si SessionInfo) FindSessionByID(id string) (utils.SessionData, error) {
	var session Session
	if err := db.DB.First(&session, "session_id = ?", id).Error; err != nil {
		return utils.SessionData{}, err
	}

	var user User
	if err := db.DB.Preload("Contractor").First(&user, "user_id = ? AND active", session.UserID).Error; err != nil {
		return utils.SessionData{}, err
	}

	return sessionData(session, user), nil
}

func sessionData(session Session, user User) utils.SessionData {
	return utils.SessionData{
		UserID:       user.UserID,
		Name:         user.Name,
		Role:         user.Role,
		ContractorID: user.ContractorID,
		Language:     user.Language,
		SiteMeasure:  user.Contractor.Active && user.Contractor.HasFeature(FeatureSiteMeasure),
		ExpiresAt:    session.ExpiresAt,
	}
}
