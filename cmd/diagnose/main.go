package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-reqextract-be/internal/config"
	"ai-reqextract-be/pkg/ragstore"
)

// Probes the indexing backend: creates a scratch workspace, checks
// document visibility, prints the processor report, and cleans up.
// Use this before blaming the pipeline for embedding failures.
func main() {
	cfg := config.Load()
	backend := ragstore.NewHTTPClient(cfg.Backend.BaseURL, cfg.Backend.APIKey)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Printf("Backend: %s\n\n", cfg.Backend.BaseURL)

	fmt.Println("Step 1: Document processor report...")
	report, err := backend.Diagnose(ctx)
	if err != nil {
		fmt.Printf("  ❌ %v\n", err)
	} else {
		fmt.Printf("  ✅ %s\n", report)
	}

	fmt.Println("Step 2: Workspace round trip...")
	ws, err := backend.CreateWorkspace(ctx, fmt.Sprintf("diagnose-%d", time.Now().Unix()))
	if err != nil {
		log.Fatalf("  ❌ Create workspace failed: %v", err)
	}
	fmt.Printf("  ✅ Created workspace %s\n", ws.Slug)

	count, err := backend.CountDocuments(ctx, ws.Slug)
	if err != nil {
		fmt.Printf("  ❌ Count documents failed: %v\n", err)
	} else {
		fmt.Printf("  ✅ Fresh workspace reports %d document(s)\n", count)
	}

	if err := backend.DeleteWorkspace(ctx, ws.Slug); err != nil {
		fmt.Printf("  ⚠️  Delete workspace failed (leaked): %v\n", err)
	} else {
		fmt.Println("  ✅ Workspace deleted")
	}
}
