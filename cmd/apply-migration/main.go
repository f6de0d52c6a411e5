package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"ctam-data/common/database"
	"ctam-data/internal/config"
)

// apply-migration runs one .sql file inside a single transaction. The file is
// sent as one simple-protocol query, so dollar-quoted bodies survive intact.
func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <migration_file.sql>", os.Args[0])
	}
	migrationFile := os.Args[1]
	if filepath.Ext(migrationFile) != ".sql" {
		log.Fatalf("Not a .sql file: %s", migrationFile)
	}
	sqlContent, err := os.ReadFile(migrationFile)
	if err != nil {
		log.Fatalf("Failed to read migration file: %v", err)
	}

	cfg := config.Load()
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer db.Close()
	fmt.Printf("Connected to database: %s@%s\n", cfg.Database.Database, cfg.Database.Host)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	if _, err := tx.ExecContext(ctx, string(sqlContent)); err != nil {
		_ = tx.Rollback()
		log.Fatalf("Migration %s failed, rolled back: %v", filepath.Base(migrationFile), err)
	}
	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit migration: %v", err)
	}
	fmt.Printf("Migration %s applied\n", filepath.Base(migrationFile))
}
