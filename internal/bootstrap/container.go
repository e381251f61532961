package bootstrap

import (
	"context"
	"log"

	"ai-reqextract-be/internal/config"
	"ai-reqextract-be/internal/controller"
	"ai-reqextract-be/internal/pkg/logger"
	"ai-reqextract-be/internal/repository/contract"
	"ai-reqextract-be/internal/repository/implementation"
	"ai-reqextract-be/internal/service"
	"ai-reqextract-be/pkg/attachment"
	"ai-reqextract-be/pkg/extraction"
	pktNats "ai-reqextract-be/pkg/nats"
	"ai-reqextract-be/pkg/progress"
	"ai-reqextract-be/pkg/ragstore"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	ExtractionController controller.IExtractionController
	ExtractionService    service.IExtractionService

	Pipeline    *extraction.Pipeline
	ProgressBus *progress.Bus
	Logger      logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus (in-process progress fan-out)
	progressBus := progress.NewBus()

	// 3. External Collaborators
	var backend ragstore.Client = ragstore.NewHTTPClient(cfg.Backend.BaseURL, cfg.Backend.APIKey)
	if cfg.App.LLMTraceFilePath != "" {
		backend = ragstore.NewTraceClient(backend, logger.NewIsolatedLogger(cfg.App.LLMTraceFilePath))
	}
	store := attachment.NewJamaStore(cfg.Jama.BaseURL, cfg.Jama.ClientID, cfg.Jama.ClientSecret)

	// 4. Pipeline
	pipelineCfg := extraction.Config{
		Monitor: extraction.MonitorConfig{
			PollInterval:    cfg.Extraction.PollInterval,
			Ceiling:         cfg.Extraction.ConfirmCeiling,
			StuckPolls:      cfg.Extraction.StuckPolls,
			StuckElapsed:    cfg.Extraction.StuckElapsed,
			HardZeroElapsed: cfg.Extraction.HardZeroElapsed,
		},
		Completeness: extraction.CompletenessConfig{
			TriggerRatio:   cfg.Extraction.YieldTriggerRatio,
			BytesPerReq:    50 * 1024,
			SmallDocBytes:  50 * 1024,
			MediumDocBytes: 150 * 1024,
			RecoveryBudget: cfg.Extraction.RecoveryTimeout,
		},
		QueryTimeout:       cfg.Extraction.QueryTimeout,
		ValidationTimeout:  cfg.Extraction.ValidationTimeout,
		ValidationFailOpen: cfg.Extraction.ValidationFailOpen,
		FallbackMax:        cfg.Extraction.FallbackMax,
	}
	pipeline := extraction.NewPipeline(backend, store, pipelineCfg, sysLogger, progressBus)

	// 5. Infrastructure (best-effort: both are optional at runtime)
	var runRepo contract.ExtractionRunRepository
	if db != nil {
		runRepo = implementation.NewExtractionRunRepository(db)
	} else {
		log.Printf("[WARN] No database configured, extraction runs will not be persisted")
	}

	var rdb *redis.Client
	if opt, err := redis.ParseURL(cfg.App.RedisURL); err == nil {
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
			rdb = nil
		}
	} else {
		log.Printf("[WARN] Failed to parse Redis URL: %v", err)
	}

	var events service.EventPublisher
	if natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL); err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		events = natsPub
	}

	// 6. Services & Controllers
	extractionService := service.NewExtractionService(
		pipeline,
		store,
		runRepo,
		rdb,
		events,
		sysLogger,
		cfg.Extraction.ResultTTL,
	)

	return &Container{
		ExtractionController: controller.NewExtractionController(extractionService),
		ExtractionService:    extractionService,
		Pipeline:             pipeline,
		ProgressBus:          progressBus,
		Logger:               sysLogger,
	}
}
