package auth

import (
	"log"

	"github.com/gotrocks/proportal/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "app_auth"); err != nil {
		log.Fatal("Failed to ensure schema app_auth: ", err)
	}

	if err := db.EnsureUUIDExtension(db.DB); err != nil {
		log.Fatal("Failed to enable uuid-ossp extension: ", err)
	}

	if err := db.DB.AutoMigrate(&Contractor{}, &User{}, &Session{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}

	log.Println("[auth] module initialized")
}
