package extraction

import (
	"context"
	"regexp"
	"strings"
	"time"

	"ai-reqextract-be/internal/pkg/logger"
	"ai-reqextract-be/pkg/ragstore"
)

// Marker patterns for validation verdicts. Identifier extraction is
// regex-based rather than positional: the model wraps its verdict lines
// in free-form prose and the identifier can appear with varying spacing.
var (
	confirmedMarker = regexp.MustCompile(`(?im)\bconfirmed\s*[:\-]\s*([A-Za-z0-9][A-Za-z0-9._\-]*)`)
	rejectedMarker  = regexp.MustCompile(`(?im)\brejected\s*[:\-]\s*([A-Za-z0-9][A-Za-z0-9._\-]*)`)
)

// Validator re-submits extracted candidates to the backend and filters
// out the ones the model cannot confirm against retrieved content.
type Validator struct {
	backend  ragstore.Client
	logger   logger.ILogger
	timeout  time.Duration
	failOpen bool
}

// NewValidator builds a validator. failOpen controls the inconclusive
// case: when true (default policy), an unparseable validation response
// keeps the original candidate list instead of discarding everything.
func NewValidator(backend ragstore.Client, timeout time.Duration, failOpen bool, log logger.ILogger) *Validator {
	return &Validator{backend: backend, timeout: timeout, failOpen: failOpen, logger: log}
}

// Validate returns the confirmed subset of candidates.
//
// Unparsed verdicts never remove a candidate. If the response yields zero
// parseable markers at all, the step is inconclusive: the input list is
// returned unchanged (fail-open) rather than treating silence as mass
// rejection.
func (v *Validator) Validate(ctx context.Context, ws *ragstore.Workspace, prompts *PromptBuilder, candidates []Candidate) []Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	response, err := v.backend.Chat(ctx, ws.Slug, prompts.BuildValidation(candidates), v.timeout)
	if err != nil {
		v.logger.Warn("validator", "Validation query failed, keeping unvalidated candidates", map[string]interface{}{
			"workspace": ws.Slug,
			"error":     err.Error(),
		})
		return candidates
	}

	verdicts := parseVerdicts(response)
	if len(verdicts) == 0 && strings.TrimSpace(response) != "" {
		if v.failOpen {
			v.logger.Warn("validator", "Validation response had no parseable verdicts, failing open", map[string]interface{}{
				"workspace":  ws.Slug,
				"candidates": len(candidates),
			})
			return candidates
		}
		v.logger.Warn("validator", "Validation inconclusive and fail-open disabled, rejecting all", map[string]interface{}{
			"workspace": ws.Slug,
		})
		return nil
	}

	var confirmed []Candidate
	rejected := 0
	for _, c := range candidates {
		switch verdicts[c.Key()] {
		case VerdictConfirmed:
			confirmed = append(confirmed, c)
		case VerdictRejected:
			rejected++
		default:
			// No marker for this candidate: keep it. Absence of a verdict
			// is not evidence against the candidate.
			confirmed = append(confirmed, c)
		}
	}

	v.logger.Info("validator", "Self-validation complete", map[string]interface{}{
		"input":     len(candidates),
		"confirmed": len(confirmed),
		"rejected":  rejected,
	})
	return confirmed
}

// parseVerdicts scans the response for Confirmed/Rejected markers.
// A Confirmed marker wins over a Rejected one for the same identifier.
func parseVerdicts(response string) map[string]Verdict {
	verdicts := map[string]Verdict{}
	for _, m := range rejectedMarker.FindAllStringSubmatch(response, -1) {
		verdicts[strings.ToUpper(m[1])] = VerdictRejected
	}
	for _, m := range confirmedMarker.FindAllStringSubmatch(response, -1) {
		verdicts[strings.ToUpper(m[1])] = VerdictConfirmed
	}
	return verdicts
}
