package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-reqextract-be/internal/pkg/logger"
	"ai-reqextract-be/pkg/ragstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slowUpload(d time.Duration) uploadFn {
	return func(ctx context.Context) error {
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func TestMonitorConfirmsWhenDocumentBecomesVisible(t *testing.T) {
	// Upload hangs; the poll loop sees the count flip to 1 and wins.
	backend := &fakeBackend{countSeq: []int{0, 0, 1}}
	m := NewMonitor(backend, fastMonitorConfig(), logger.NewNopLogger())
	ws := &ragstore.Workspace{Slug: "ws-test"}

	report := m.UploadAndConfirm(context.Background(), ws, slowUpload(time.Minute))

	require.Equal(t, OutcomeConfirmed, report.Outcome, "reason: %s", report.Reason)
}

func TestMonitorIgnoresUploadResultWhenPollConfirmsFirst(t *testing.T) {
	// The upload call errors out eventually, but document visibility is
	// the authoritative signal and it arrives first.
	backend := &fakeBackend{countSeq: []int{1}}
	m := NewMonitor(backend, fastMonitorConfig(), logger.NewNopLogger())
	ws := &ragstore.Workspace{Slug: "ws-test"}

	upload := func(ctx context.Context) error {
		select {
		case <-time.After(time.Minute):
		case <-ctx.Done():
		}
		return errors.New("upload route exploded")
	}

	report := m.UploadAndConfirm(context.Background(), ws, upload)
	assert.Equal(t, OutcomeConfirmed, report.Outcome)
}

func TestMonitorDeclaresStuckBeforeCeiling(t *testing.T) {
	// Count never moves: the stall heuristic must fire once both the
	// consecutive-poll and elapsed-time conditions hold, well before the
	// ceiling.
	backend := &fakeBackend{countSeq: []int{0}}
	cfg := fastMonitorConfig()
	m := NewMonitor(backend, cfg, logger.NewNopLogger())
	ws := &ragstore.Workspace{Slug: "ws-test"}

	start := time.Now()
	report := m.UploadAndConfirm(context.Background(), ws, slowUpload(time.Minute))
	elapsed := time.Since(start)

	require.Equal(t, OutcomeFailed, report.Outcome)
	assert.Less(t, elapsed, cfg.Ceiling, "stall detection should beat the ceiling")
	assert.Contains(t, report.Reason, "stuck")
}

func TestMonitorFailsFastOnUploadError(t *testing.T) {
	backend := &fakeBackend{
		uploadErr: errors.New("413 payload too large"),
		countSeq:  []int{0},
	}
	m := NewMonitor(backend, fastMonitorConfig(), logger.NewNopLogger())
	ws := &ragstore.Workspace{Slug: "ws-test"}

	upload := func(ctx context.Context) error {
		return backend.UploadDocument(ctx, ws.Slug, "f.pdf", nil)
	}

	report := m.UploadAndConfirm(context.Background(), ws, upload)
	require.Equal(t, OutcomeFailed, report.Outcome)
	assert.Contains(t, report.Reason, "upload call failed")
}

func TestMonitorDistrustsUploadSuccessWithZeroDocuments(t *testing.T) {
	// Upload returns success immediately, but the count check right
	// after still reports zero: the backend's own success signal must
	// not be trusted.
	backend := &fakeBackend{countSeq: []int{0}}
	m := NewMonitor(backend, fastMonitorConfig(), logger.NewNopLogger())
	ws := &ragstore.Workspace{Slug: "ws-test"}

	upload := func(ctx context.Context) error { return nil }

	report := m.UploadAndConfirm(context.Background(), ws, upload)
	require.Equal(t, OutcomeFailed, report.Outcome)
	assert.Contains(t, report.Reason, "zero documents indexed")
}

func TestMonitorCancellationAbortsPromptly(t *testing.T) {
	backend := &fakeBackend{countSeq: []int{0}}
	cfg := fastMonitorConfig()
	cfg.PollInterval = 50 * time.Millisecond // long enough that cancel wins
	m := NewMonitor(backend, cfg, logger.NewNopLogger())
	ws := &ragstore.Workspace{Slug: "ws-test"}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	report := m.UploadAndConfirm(ctx, ws, slowUpload(time.Minute))

	require.Equal(t, OutcomeFailed, report.Outcome)
	assert.Contains(t, report.Reason, "cancelled")
	assert.Less(t, time.Since(start), 40*time.Millisecond)
}
