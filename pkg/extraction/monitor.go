package extraction

import (
	"context"
	"fmt"
	"time"

	"ai-reqextract-be/internal/pkg/logger"
	"ai-reqextract-be/pkg/ragstore"
)

// MonitorConfig holds the embedding-confirmation thresholds. These are
// empirically tuned per backend, not architectural constants; defaults
// match what the flakiest known deployment needs.
type MonitorConfig struct {
	PollInterval    time.Duration // delay between document-count polls
	Ceiling         time.Duration // absolute give-up point
	StuckPolls      int           // consecutive unchanged polls before declaring a stall
	StuckElapsed    time.Duration // stall declaration also requires this much elapsed time
	HardZeroElapsed time.Duration // count still zero after this long fails regardless of stall counter
}

func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval:    15 * time.Second,
		Ceiling:         3 * time.Minute,
		StuckPolls:      6,
		StuckElapsed:    90 * time.Second,
		HardZeroElapsed: 120 * time.Second,
	}
}

// MonitorOutcome is the decisive result of one upload attempt.
type MonitorOutcome int

const (
	OutcomeConfirmed MonitorOutcome = iota
	OutcomeFailed
)

func (o MonitorOutcome) String() string {
	if o == OutcomeConfirmed {
		return "confirmed"
	}
	return "failed"
}

// UploadReport describes how the monitor reached its outcome.
type UploadReport struct {
	Outcome MonitorOutcome
	Reason  string
	Elapsed time.Duration
}

// uploadFn pushes the document into the workspace. Abstracted so the
// primary (file) and alternative (raw text) upload paths share the monitor.
type uploadFn func(ctx context.Context) error

// Monitor confirms that an uploaded document actually finished embedding.
//
// The backend's upload endpoint is known to misreport success, so indexing
// completion is defined operationally: the document count in the workspace
// must become non-zero. The upload call and a polling loop run
// concurrently; whichever reaches a decisive signal first wins and the
// other is cancelled.
type Monitor struct {
	backend ragstore.Client
	cfg     MonitorConfig
	logger  logger.ILogger
}

func NewMonitor(backend ragstore.Client, cfg MonitorConfig, log logger.ILogger) *Monitor {
	return &Monitor{backend: backend, cfg: cfg, logger: log}
}

// UploadAndConfirm runs one upload attempt against ws and blocks until a
// decisive outcome: the document is visible, or the attempt is declared
// failed (stuck, too slow, timed out, or upload error).
func (m *Monitor) UploadAndConfirm(ctx context.Context, ws *ragstore.Workspace, upload uploadFn) UploadReport {
	start := time.Now()

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered: the loser must not block after the winner is consumed.
	results := make(chan UploadReport, 2)

	go m.runUpload(raceCtx, ws, upload, start, results)
	go m.runPollLoop(raceCtx, ws, start, results)

	select {
	case report := <-results:
		m.logger.Info("monitor", "Embedding confirmation settled", map[string]interface{}{
			"workspace": ws.Slug,
			"outcome":   report.Outcome.String(),
			"reason":    report.Reason,
			"elapsed":   report.Elapsed.String(),
		})
		return report
	case <-ctx.Done():
		return UploadReport{
			Outcome: OutcomeFailed,
			Reason:  fmt.Sprintf("cancelled: %v", ctx.Err()),
			Elapsed: time.Since(start),
		}
	}
}

// runUpload performs the upload call itself. A reported failure is
// decisive. A reported success is NOT trusted: the document count is
// re-checked directly, and success with zero indexed documents is failure.
func (m *Monitor) runUpload(ctx context.Context, ws *ragstore.Workspace, upload uploadFn, start time.Time, out chan<- UploadReport) {
	if err := upload(ctx); err != nil {
		if ctx.Err() != nil {
			return // lost the race, result is ignored
		}
		out <- UploadReport{
			Outcome: OutcomeFailed,
			Reason:  fmt.Sprintf("upload call failed: %v", err),
			Elapsed: time.Since(start),
		}
		return
	}

	count, err := m.backend.CountDocuments(ctx, ws.Slug)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// Count unavailable right after upload: leave the verdict to the
		// polling loop rather than guessing.
		m.logger.Warn("monitor", "Post-upload count check failed, deferring to poll loop", map[string]interface{}{
			"workspace": ws.Slug,
			"error":     err.Error(),
		})
		return
	}

	if count > 0 {
		out <- UploadReport{
			Outcome: OutcomeConfirmed,
			Reason:  fmt.Sprintf("upload returned success and %d document(s) visible", count),
			Elapsed: time.Since(start),
		}
		return
	}

	out <- UploadReport{
		Outcome: OutcomeFailed,
		Reason:  "upload reported success but zero documents indexed",
		Elapsed: time.Since(start),
	}
}

// runPollLoop watches the workspace document count until it turns
// non-zero or the stall/timeout heuristics trip.
func (m *Monitor) runPollLoop(ctx context.Context, ws *ragstore.Workspace, start time.Time, out chan<- UploadReport) {
	lastCount := -1
	stuck := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.PollInterval):
		}

		count, err := m.backend.CountDocuments(ctx, ws.Slug)
		elapsed := time.Since(start)

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Warn("monitor", "Document count poll failed", map[string]interface{}{
				"workspace": ws.Slug,
				"error":     err.Error(),
			})
			// A failed poll is not a decisive signal; the ceiling still applies.
			if elapsed >= m.cfg.Ceiling {
				out <- UploadReport{
					Outcome: OutcomeFailed,
					Reason:  fmt.Sprintf("confirmation ceiling (%s) reached with count unknown", m.cfg.Ceiling),
					Elapsed: elapsed,
				}
				return
			}
			continue
		}

		if count > 0 {
			out <- UploadReport{
				Outcome: OutcomeConfirmed,
				Reason:  fmt.Sprintf("%d document(s) visible after %s", count, elapsed.Round(time.Second)),
				Elapsed: elapsed,
			}
			return
		}

		if count == lastCount {
			stuck++
		} else {
			stuck = 0
			lastCount = count
		}

		m.logger.Debug("monitor", "Embedding not confirmed yet", map[string]interface{}{
			"workspace":   ws.Slug,
			"count":       count,
			"stuck_polls": stuck,
			"elapsed":     elapsed.String(),
		})

		// Stalled: no movement for StuckPolls polls and enough wall time
		// burned that this is not just slow startup.
		if stuck >= m.cfg.StuckPolls && elapsed > m.cfg.StuckElapsed {
			out <- UploadReport{
				Outcome: OutcomeFailed,
				Reason:  fmt.Sprintf("indexing stuck: count unchanged for %d polls over %s", stuck, elapsed.Round(time.Second)),
				Elapsed: elapsed,
			}
			return
		}

		// Degenerate slow-but-not-stalled indexing: still nothing after
		// the hard cutoff.
		if elapsed > m.cfg.HardZeroElapsed {
			out <- UploadReport{
				Outcome: OutcomeFailed,
				Reason:  fmt.Sprintf("zero documents after %s", elapsed.Round(time.Second)),
				Elapsed: elapsed,
			}
			return
		}

		if elapsed >= m.cfg.Ceiling {
			out <- UploadReport{
				Outcome: OutcomeFailed,
				Reason:  fmt.Sprintf("confirmation ceiling (%s) reached", m.cfg.Ceiling),
				Elapsed: elapsed,
			}
			return
		}
	}
}
