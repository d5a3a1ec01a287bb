package projects

import (
	"log"

	"github.com/gotrocks/proportal/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "portal"); err != nil {
		log.Fatal("Failed to ensure schema portal: ", err)
	}

	if err := db.DB.AutoMigrate(&Project{}); err != nil {
		log.Fatal("Failed to auto-migrate projects table: ", err)
	}

	log.Println("[projects] module initialized")
}
