package extraction

import (
	"context"
	"time"

	"ai-reqextract-be/internal/pkg/logger"
	"ai-reqextract-be/pkg/ragstore"
)

// CompletenessConfig tunes under-extraction detection. The yield floor
// and trigger ratio are empirical; treat them as per-backend knobs.
type CompletenessConfig struct {
	TriggerRatio   float64       // recovery fires when yield < TriggerRatio * floor
	BytesPerReq    int64         // large documents expect one requirement per this many bytes
	SmallDocBytes  int64         // below this, expect at least 1
	MediumDocBytes int64         // below this, expect at least 3
	RecoveryBudget time.Duration // recovery query timeout, shorter than the primary
}

func DefaultCompletenessConfig() CompletenessConfig {
	return CompletenessConfig{
		TriggerRatio:   0.7,
		BytesPerReq:    50 * 1024,
		SmallDocBytes:  50 * 1024,
		MediumDocBytes: 150 * 1024,
		RecoveryBudget: 90 * time.Second,
	}
}

// Completeness estimates the minimum plausible requirement yield for a
// document and runs one bounded recovery query when the confirmed yield
// falls suspiciously short of it.
type Completeness struct {
	backend ragstore.Client
	parser  *Parser
	cfg     CompletenessConfig
	logger  logger.ILogger
}

func NewCompleteness(backend ragstore.Client, parser *Parser, cfg CompletenessConfig, log logger.ILogger) *Completeness {
	return &Completeness{backend: backend, parser: parser, cfg: cfg, logger: log}
}

// Floor returns the expected-minimum yield for a document of the given
// byte size. Monotonically non-decreasing in size.
func (c *Completeness) Floor(size int64) int {
	switch {
	case size < c.cfg.SmallDocBytes:
		return 1
	case size < c.cfg.MediumDocBytes:
		return 3
	default:
		floor := int(size / c.cfg.BytesPerReq)
		if floor < 3 {
			floor = 3
		}
		return floor
	}
}

// NeedsRecovery reports whether yield is low enough to justify a
// recovery pass for a document of the given size.
func (c *Completeness) NeedsRecovery(yield int, size int64) bool {
	return float64(yield) < c.cfg.TriggerRatio*float64(c.Floor(size))
}

// Recover issues the single bounded recovery query and merges any new
// unique candidates into the given list. Capped at one attempt per
// attachment; failures leave the input untouched.
func (c *Completeness) Recover(ctx context.Context, ws *ragstore.Workspace, prompts *PromptBuilder, att *Attachment, candidates []Candidate) []Candidate {
	floor := c.Floor(att.Size)
	c.logger.Warn("completeness", "Yield below expected floor, running recovery query", map[string]interface{}{
		"attachment": att.ID,
		"yield":      len(candidates),
		"floor":      floor,
	})

	response, err := c.backend.Chat(ctx, ws.Slug, prompts.BuildRecovery(len(candidates)), c.cfg.RecoveryBudget)
	if err != nil {
		c.logger.Warn("completeness", "Recovery query failed, keeping current candidates", map[string]interface{}{
			"attachment": att.ID,
			"error":      err.Error(),
		})
		return candidates
	}

	extras := c.parser.Parse(response)
	merged := MergeCandidates(candidates, extras)

	c.logger.Info("completeness", "Recovery pass merged", map[string]interface{}{
		"attachment": att.ID,
		"recovered":  len(extras),
		"added":      len(merged) - len(candidates),
		"total":      len(merged),
	})
	return merged
}
