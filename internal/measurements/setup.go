package measurements

import (
	"log"

	"github.com/gotrocks/proportal/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "sitemeasure"); err != nil {
		log.Fatal("Failed to ensure schema sitemeasure: ", err)
	}

	if err := db.EnsureUUIDExtension(db.DB); err != nil {
		log.Fatal("Failed to enable uuid-ossp extension: ", err)
	}

	if err := db.DB.AutoMigrate(&Measurement{}); err != nil {
		log.Fatal("Failed to auto-migrate measurements table: ", err)
	}

	log.Println("[measurements] module initialized")
}
