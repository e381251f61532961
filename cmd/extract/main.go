package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-reqextract-be/internal/bootstrap"
	"ai-reqextract-be/internal/config"
	"ai-reqextract-be/pkg/database"

	"github.com/fatih/color"
	"gorm.io/gorm"
)

// Batch driver: runs the extraction pipeline over a list of attachment
// IDs given as CLI arguments, printing progress and a summary table.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: extract <attachment-id> [attachment-id...]")
		os.Exit(1)
	}
	attachmentIds := os.Args[1:]

	cfg := config.Load()

	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Live progress printer
	events, err := container.ProgressBus.Subscribe(ctx)
	if err != nil {
		log.Fatalf("Failed to subscribe to progress bus: %v", err)
	}
	go func() {
		stageColor := color.New(color.FgCyan)
		for ev := range events {
			stageColor.Printf("  [%s] ", ev.Stage)
			fmt.Println(ev.Message)
		}
	}()

	res, err := container.ExtractionService.ExtractBatch(ctx, attachmentIds)
	if err != nil {
		log.Fatalf("Batch extraction failed: %v", err)
	}

	// Summary
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Println()
	fmt.Printf("%-14s %-30s %-24s %s\n", "ATTACHMENT", "FILE", "STATUS", "CANDIDATES")
	for _, r := range res.Results {
		status := r.Status
		switch status {
		case "EXTRACTED":
			status = green(status)
		case "FALLBACK_EXTRACTED":
			status = yellow(status)
		default:
			status = red(status)
		}
		fmt.Printf("%-14s %-30s %-24s %d\n", r.AttachmentId, r.FileName, status, r.CandidateCount)
	}
	fmt.Printf("\nProcessed %d of %d attachment(s)\n", len(res.Results), len(attachmentIds))
}
