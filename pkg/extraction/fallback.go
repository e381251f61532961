package extraction

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"ai-reqextract-be/internal/pkg/logger"
)

// Terminal escalation: pattern-based extraction straight off the raw
// bytes, used only once the indexing backend is confirmed broken.

// Requirement-bearing clause patterns, tried over the decoded text.
var (
	modalClause = regexp.MustCompile(`(?i)([A-Z][^.!?\n]{10,300}?\b(?:shall|must|will|should)\b[^.!?\n]{3,300}[.!?])`)
	modalLine   = regexp.MustCompile(`(?mi)^\s*\d+(?:\.\d+)*[.):]?\s+.{0,200}\b(?:shall|must|should)\b.{0,300}$`)
)

// TextExtractor recovers provisional candidates from raw attachment bytes.
type TextExtractor struct {
	maxCandidates int
	logger        logger.ILogger
}

func NewTextExtractor(maxCandidates int, log logger.ILogger) *TextExtractor {
	if maxCandidates <= 0 {
		maxCandidates = 50
	}
	return &TextExtractor{maxCandidates: maxCandidates, logger: log}
}

// Extract decodes content as best it can and scans for requirement-like
// clauses. The output is capped to avoid runaway yield from binary noise.
// When nothing matches it returns false; the caller substitutes the
// manual-review placeholder rather than an empty result.
func (e *TextExtractor) Extract(att *Attachment, content []byte) ([]Candidate, bool) {
	text := decodePlainText(content)
	if len(text) < 20 {
		e.logger.Warn("fallback", "No decodable text in attachment", map[string]interface{}{
			"attachment": att.ID,
			"bytes":      len(content),
		})
		return nil, false
	}

	seen := map[string]struct{}{}
	var candidates []Candidate

	add := func(clause string) {
		clause = strings.Join(strings.Fields(clause), " ")
		if len(clause) < 15 {
			return
		}
		norm := strings.ToLower(clause)
		if _, dup := seen[norm]; dup {
			return
		}
		seen[norm] = struct{}{}
		candidates = append(candidates, Candidate{
			ID:        fmt.Sprintf("TXT-%03d", len(candidates)+1),
			Text:      clause,
			SourceRef: "direct text scan",
			Origin:    OriginProvisional,
		})
	}

	for _, m := range modalClause.FindAllString(text, -1) {
		if len(candidates) >= e.maxCandidates {
			break
		}
		add(m)
	}
	for _, m := range modalLine.FindAllString(text, -1) {
		if len(candidates) >= e.maxCandidates {
			break
		}
		add(m)
	}

	if len(candidates) == 0 {
		e.logger.Warn("fallback", "Direct text scan found no requirement patterns", map[string]interface{}{
			"attachment": att.ID,
			"text_len":   len(text),
		})
		return nil, false
	}

	e.logger.Info("fallback", "Direct text extraction produced candidates", map[string]interface{}{
		"attachment": att.ID,
		"count":      len(candidates),
	})
	return candidates, true
}

// ManualReviewPlaceholder is the terminal result when even the direct
// text scan finds nothing: one explicit candidate flagging the document
// for human review, never a silent empty list.
func ManualReviewPlaceholder(att *Attachment) Candidate {
	return Candidate{
		ID: "MANUAL-REVIEW-1",
		Text: fmt.Sprintf(
			"Automated extraction failed for %q (%d bytes): the document could not be indexed and no requirement patterns were found in its raw text. Manual review required.",
			att.FileName, att.Size),
		Category:  "unclassified",
		Priority:  "high",
		SourceRef: att.FileName,
		Origin:    OriginProvisional,
	}
}

// decodePlainText pulls the printable runs out of content. PDF and Office
// containers are binary; runs of printable characters are usually the
// embedded text fragments worth scanning.
func decodePlainText(content []byte) string {
	var b strings.Builder
	var run []rune

	flush := func() {
		if len(run) >= 6 {
			b.WriteString(string(run))
			b.WriteByte('\n')
		}
		run = run[:0]
	}

	for _, r := range string(content) {
		if r == unicode.ReplacementChar {
			flush()
			continue
		}
		if unicode.IsPrint(r) || r == '\t' {
			run = append(run, r)
			continue
		}
		flush()
	}
	flush()
	return b.String()
}
