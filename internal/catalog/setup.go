package catalog

import (
	"context"
	"log"

	"github.com/gotrocks/proportal/internal/db"
)

// Init migrates the catalog schema and, when file is set, imports it.
func Init(file string) {
	if err := db.EnsureSchema(db.DB, "catalog"); err != nil {
		log.Fatal("Failed to ensure schema catalog: ", err)
	}

	if err := db.DB.AutoMigrate(&DensityProfile{}, &Material{}); err != nil {
		log.Fatal("Failed to auto-migrate catalog tables: ", err)
	}

	if file != "" {
		f, err := LoadFile(file)
		if err != nil {
			log.Fatal("Failed to load catalog file: ", err)
		}
		if err := Import(context.Background(), db.DB, f); err != nil {
			log.Fatal("Failed to import catalog file: ", err)
		}
		log.Printf("[catalog] imported %d materials and %d densities from %s", len(f.Materials), len(f.Densities), file)
	}

	log.Println("[catalog] module initialized")
}
