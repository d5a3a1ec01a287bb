package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gotrocks/proportal/internal/db"
	"github.com/gotrocks/proportal/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLen = 8

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type MeResponse struct {
	UserID             string `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	Role               string `json:"role"`
	ContractorID       string `json:"contractorId"`
	ContractorName     string `json:"contractorName"`
	Language           string `json:"language"`
	IsAvailable        bool   `json:"isAvailable"`
	SiteMeasureEnabled bool   `json:"siteMeasureEnabled"`
}

func meResponse(user User) MeResponse {
	return MeResponse{
		UserID:             user.UserID,
		Email:              user.Email,
		Name:               user.Name,
		Role:               user.Role,
		ContractorID:       user.ContractorID,
		ContractorName:     user.Contractor.Name,
		Language:           user.Language,
		IsAvailable:        user.IsAvailable,
		SiteMeasureEnabled: user.Contractor.Active && user.Contractor.HasFeature(FeatureSiteMeasure),
	}
}

// NormalizeEmail lowercases and trims an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sessionCookie(r *http.Request, value string, expires time.Time) *http.Cookie {
	secure := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
	c := &http.Cookie{
		Name:     "session_id",
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	}
	if secure {
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

// LoginHandler authenticates by email and password and issues a session
// cookie valid for ttl.
func LoginHandler(ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid Data", http.StatusBadRequest)
			return
		}

		email := NormalizeEmail(req.Email)
		if email == "" || req.Password == "" {
			http.Error(w, "Email and password are required", http.StatusBadRequest)
			return
		}

		var user User
		err := db.DB.Preload("Contractor").First(&user, "email = ? AND active", email).Error
		if err != nil {
			http.Error(w, "Invalid Credentials", http.StatusUnauthorized)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
			http.Error(w, "Invalid Credentials", http.StatusUnauthorized)
			return
		}

		session := Session{
			SessionID: utils.GenerateUUID(),
			UserID:    user.UserID,
			ExpiresAt: time.Now().Add(ttl),
		}
		if err := db.DB.Create(&session).Error; err != nil {
			log.Printf("[auth] create session for %s: %v", user.UserID, err)
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}

		// Expired sessions of this user are no longer reachable; prune them.
		if err := db.DB.Where("user_id = ? AND expires_at < ?", user.UserID, time.Now()).Delete(&Session{}).Error; err != nil {
			log.Printf("[auth] prune sessions for %s: %v", user.UserID, err)
		}

		http.SetCookie(w, sessionCookie(r, session.SessionID, session.ExpiresAt))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(meResponse(user))
	}
}

func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("session_id")
	if err != nil {
		http.Error(w, "Couldn't find cookie", http.StatusUnauthorized)
		return
	}

	if err := db.DB.Delete(&Session{}, "session_id = ?", cookie.Value).Error; err != nil {
		log.Printf("[auth] delete session: %v", err)
		http.Error(w, "Failed to end session", http.StatusInternalServerError)
		return
	}

	expired := sessionCookie(r, "", time.Unix(0, 0))
	expired.MaxAge = -1
	http.SetCookie(w, expired)

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Logout successful")
}

func currentUser(r *http.Request) (User, error) {
	var user User
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return user, errors.New("missing user id in context")
	}
	err := db.DB.Preload("Contractor").First(&user, "user_id = ?", userID).Error
	return user, err
}

func MeHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		http.Error(w, "Couldn't find user", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meResponse(user))
}

// LanguageHandler stores the caller's UI language (en or es).
func LanguageHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}
	lang := strings.ToLower(strings.TrimSpace(body.Language))
	if !ValidLanguage(lang) {
		http.Error(w, "Language must be en or es", http.StatusBadRequest)
		return
	}

	user, err := currentUser(r)
	if err != nil {
		http.Error(w, "Couldn't find user", http.StatusNotFound)
		return
	}
	if err := db.DB.Model(&user).Update("language", lang).Error; err != nil {
		log.Printf("[auth] update language for %s: %v", user.UserID, err)
		http.Error(w, "Failed to update language", http.StatusInternalServerError)
		return
	}
	user.Language = lang

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meResponse(user))
}

// AvailabilityHandler toggles whether a supervisor is available for dispatch.
func AvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsAvailable *bool `json:"isAvailable"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IsAvailable == nil {
		http.Error(w, "isAvailable is required", http.StatusBadRequest)
		return
	}

	user, err := currentUser(r)
	if err != nil {
		http.Error(w, "Couldn't find user", http.StatusNotFound)
		return
	}
	if err := db.DB.Model(&user).Update("is_available", *body.IsAvailable).Error; err != nil {
		log.Printf("[auth] update availability for %s: %v", user.UserID, err)
		http.Error(w, "Failed to update availability", http.StatusInternalServerError)
		return
	}
	user.IsAvailable = *body.IsAvailable

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meResponse(user))
}

func UpdatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Current and new password are required", http.StatusBadRequest)
		return
	}
	if len(body.NewPassword) < minPasswordLen {
		http.Error(w, fmt.Sprintf("New password must be at least %d characters", minPasswordLen), http.StatusBadRequest)
		return
	}

	user, err := currentUser(r)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Couldn't find user", http.StatusUnauthorized)
		return
	} else if err != nil {
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(body.CurrentPassword)); err != nil {
		http.Error(w, "Invalid current password", http.StatusUnauthorized)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Server error hashing password", http.StatusInternalServerError)
		return
	}

	if err := db.DB.Model(&user).Update("hashed_password", string(hashed)).Error; err != nil {
		log.Printf("[auth] update password for %s: %v", user.UserID, err)
		http.Error(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Password updated")
}
