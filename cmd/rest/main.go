package main

import (
	"log"

	"ai-reqextract-be/internal/bootstrap"
	"ai-reqextract-be/internal/config"
	"ai-reqextract-be/internal/server"
	"ai-reqextract-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database (optional: runs are simply not persisted without it)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Logger.Sync()

	// 4. Initialize Server
	srv := server.New(cfg, container)

	// 5. Run Server
	log.Fatal(srv.Run())
}
