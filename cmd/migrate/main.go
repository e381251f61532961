package main

import (
	"log"

	"ai-reqextract-be/internal/config"
	"ai-reqextract-be/internal/model"
	"ai-reqextract-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Failed to connect to DB:", err)
	}

	log.Println("Running migrations...")
	err = db.AutoMigrate(
		&model.ExtractionRun{},
		&model.ExtractionCandidate{},
	)
	if err != nil {
		log.Fatal("Migration failed:", err)
	}
	log.Println("✅ Migrations complete")
}
