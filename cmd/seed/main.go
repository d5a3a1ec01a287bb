package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gotrocks/proportal/internal/auth"
	"github.com/gotrocks/proportal/internal/catalog"
	"github.com/gotrocks/proportal/internal/db"
	"github.com/gotrocks/proportal/internal/measurements"
	"github.com/gotrocks/proportal/internal/projects"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	filePath    = flag.String("file", "seeds/portal.yaml", "Path to the seed YAML")
	dsn         = flag.String("dsn", "", "Postgres DSN (default: env DATABASE_URL)")
	password    = flag.String("password", "password123", "Password for seeded users without one in the file")
	dryRun      = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
	confirm     = flag.Bool("confirm", false, "Required to write to the database")
	advisoryKey = flag.Int64("advisory-lock", 0, "Optional Postgres advisory lock key. 0 = disabled")
)

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		*dsn = os.Getenv("DATABASE_URL")
	}

	f, err := loadSeedFile(*filePath)
	if err != nil {
		fatalf("seed file: %v", err)
	}
	printPlan(f)

	if *dryRun {
		fmt.Println("Dry run complete. No changes made.")
		return
	}
	if !*confirm {
		fatalf("Refusing to run without --confirm. Add --dry-run to preview.")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sqlDB, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer sqlDB.Close()
	if err := sqlDB.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: db.NewLogger(200 * time.Millisecond),
	})
	if err != nil {
		fatalf("gorm: %v", err)
	}

	// Module Init functions migrate through the shared handle.
	db.DB = gdb
	auth.Init()
	catalog.Init("")
	projects.Init()
	measurements.Init()

	err = gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if *advisoryKey != 0 {
			if err := tx.Exec(`SELECT pg_advisory_xact_lock(?)`, *advisoryKey).Error; err != nil {
				return fmt.Errorf("advisory lock: %w", err)
			}
		}
		if err := catalog.Import(ctx, tx, f.File); err != nil {
			return err
		}
		for _, c := range f.Contractors {
			if err := seedContractor(tx, c); err != nil {
				return fmt.Errorf("contractor %q: %w", c.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		fatalf("seed: %v", err)
	}
	fmt.Println("Seed complete ✅")
}

func seedContractor(tx *gorm.DB, c ContractorSeed) error {
	contractor := auth.Contractor{
		ID:       contractorID(c.Name),
		Name:     c.Name,
		Features: pq.StringArray(c.Features),
		Active:   true,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "features", "active"}),
	}).Create(&contractor).Error; err != nil {
		return err
	}

	for _, u := range c.Users {
		pw := u.Password
		if pw == "" {
			pw = *password
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		lang := u.Language
		if lang == "" {
			lang = "en"
		}
		user := auth.User{
			UserID:         userID(u.Email),
			Email:          auth.NormalizeEmail(u.Email),
			Name:           u.Name,
			HashedPassword: string(hashed),
			Role:           u.Role,
			ContractorID:   contractor.ID,
			Language:       lang,
			IsAvailable:    u.IsAvailable,
			Active:         true,
		}
		if err := tx.Omit("Contractor").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "name", "hashed_password", "role", "contractor_id", "language", "is_available", "active"}),
		}).Create(&user).Error; err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
	}

	for _, p := range c.Projects {
		status := p.Status
		if status == "" {
			status = projects.StatusActive
		}
		project := projects.Project{
			ID:           projectID(contractor.ID, p.Name),
			ContractorID: contractor.ID,
			Name:         p.Name,
			PO:           p.PO,
			Address:      p.Address,
			Status:       status,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "po", "address", "status"}),
		}).Create(&project).Error; err != nil {
			return fmt.Errorf("project %s: %w", p.Name, err)
		}
	}
	return nil
}

func printPlan(f SeedFile) {
	fmt.Printf("Densities: %d  Materials: %d\n", len(f.Densities), len(f.Materials))
	for _, c := range f.Contractors {
		fmt.Printf("Contractor %q (%s): %d users, %d projects, features=%v\n",
			c.Name, contractorID(c.Name), len(c.Users), len(c.Projects), c.Features)
		for _, u := range c.Users {
			fmt.Printf("  user %-24s %-10s %s\n", u.Email, u.Role, u.Name)
		}
		for _, p := range c.Projects {
			fmt.Printf("  project %-32s %s\n", p.Name, p.PO)
		}
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "❌ "+format+"\n", args...)
	os.Exit(1)
}
