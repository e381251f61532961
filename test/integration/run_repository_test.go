package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-reqextract-be/internal/entity"
	"ai-reqextract-be/internal/model"
	"ai-reqextract-be/internal/repository/contract"
	"ai-reqextract-be/internal/repository/implementation"
	"ai-reqextract-be/internal/repository/specification"
	"ai-reqextract-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRepository(t *testing.T) contract.ExtractionRunRepository {
	t.Helper()

	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err, "Failed to connect to DB")

	err = gormDB.AutoMigrate(&model.ExtractionRun{}, &model.ExtractionCandidate{})
	require.NoError(t, err, "Failed to migrate schema")

	return implementation.NewExtractionRunRepository(gormDB)
}

func TestRunRepositoryRoundTrip(t *testing.T) {
	repo := openRepository(t)
	ctx := context.Background()

	attachmentId := "it-" + uuid.NewString()
	finished := time.Now()
	run := &entity.ExtractionRun{
		Id:             uuid.New(),
		AttachmentId:   attachmentId,
		FileName:       "integration-test.pdf",
		Status:         "EXTRACTED",
		CandidateCount: 2,
		Candidates: []entity.ExtractionCandidate{
			{Code: "REQ-001", Text: "The system shall persist integration runs.", Category: "functional", Origin: "structured"},
			{Code: "REQ-002", Text: "The system must survive a round trip.", Category: "functional", Origin: "structured"},
		},
		FinishedAt: &finished,
		DurationMs: 1234,
	}

	require.NoError(t, repo.Create(ctx, run))
	t.Cleanup(func() {
		assert.NoError(t, repo.Delete(ctx, run.Id))
	})

	t.Run("FindOne preloads candidates", func(t *testing.T) {
		got, err := repo.FindOne(ctx, specification.ByID{ID: run.Id})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, attachmentId, got.AttachmentId)
		assert.Len(t, got.Candidates, 2)
	})

	t.Run("FindAll by attachment", func(t *testing.T) {
		got, err := repo.FindAll(ctx, specification.ByAttachmentID{AttachmentID: attachmentId}, specification.NewestFirst{})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("Count by status", func(t *testing.T) {
		count, err := repo.Count(ctx, specification.ByAttachmentID{AttachmentID: attachmentId}, specification.ByStatus{Status: "EXTRACTED"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func TestRunRepositoryFindOneMissingIsNil(t *testing.T) {
	repo := openRepository(t)

	got, err := repo.FindOne(context.Background(), specification.ByID{ID: uuid.New()})
	require.NoError(t, err)
	assert.Nil(t, got)
}
