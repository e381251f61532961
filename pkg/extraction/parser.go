package extraction

import (
	"regexp"
	"strings"

	"ai-reqextract-be/internal/pkg/logger"
)

// Field-alias tables. The model does not reliably emit the exact field
// names it was asked for, so each logical field is resolved through an
// ordered alias list (first match wins). Static tables, deliberately not
// reflection: the accepted spellings are an explicit contract.
var (
	identifierAliases = []string{"id", "requirement id", "req id", "identifier", "item", "number"}
	textAliases       = []string{"requirement", "requirement text", "text", "statement", "description"}
	categoryAliases   = []string{"category", "type", "classification"}
	priorityAliases   = []string{"priority", "importance", "criticality"}
	verifyAliases     = []string{"verification", "verification method", "verify", "method"}
	sourceAliases     = []string{"source", "location", "section", "reference", "page"}
)

// Salvage patterns, tried in order against the raw text of a block that
// failed structured parsing.
var (
	reqTokenPattern   = regexp.MustCompile(`(?i)\b((?:REQ|SRS|SYS|SSS|SRD)[-_ ]?\d+(?:[.-]\d+)*)\b`)
	numberedItem      = regexp.MustCompile(`(?m)^\s*(\d+(?:\.\d+)*)[.):]\s+(\S.*)$`)
	itemNumberPattern = regexp.MustCompile(`(?i)\bitem\s+(\d+)\b[:.]?\s*(.*)`)
)

// Parser turns a delimited model response into candidates. Malformed
// blocks degrade to pattern salvage; blocks that still yield nothing are
// dropped and logged, never silently counted.
type Parser struct {
	logger logger.ILogger
}

func NewParser(log logger.ILogger) *Parser {
	return &Parser{logger: log}
}

// Parse splits the response on the block delimiter and converts each
// block into a candidate where possible.
func (p *Parser) Parse(response string) []Candidate {
	blocks := strings.Split(response, BlockDelimiter)

	var candidates []Candidate
	dropped := 0
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		if c, ok := parseStructuredBlock(block); ok {
			candidates = append(candidates, c)
			continue
		}
		if c, ok := salvageBlock(block); ok {
			candidates = append(candidates, c)
			continue
		}

		dropped++
		p.logger.Warn("parser", "Dropped unparseable response block", map[string]interface{}{
			"block_preview": compact(block, 120),
		})
	}

	if dropped > 0 {
		p.logger.Warn("parser", "Some response blocks were lost", map[string]interface{}{
			"parsed":  len(candidates),
			"dropped": dropped,
		})
	}
	return candidates
}

// parseStructuredBlock extracts colon-separated key:value lines. Both
// the identifier and the requirement text must resolve through their
// alias tables for the block to count as structured.
func parseStructuredBlock(block string) (Candidate, bool) {
	fields := map[string]string{}
	for _, line := range strings.Split(block, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = normalizeKey(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		if _, exists := fields[key]; !exists {
			fields[key] = value
		}
	}

	id, idOK := lookupAlias(fields, identifierAliases)
	text, textOK := lookupAlias(fields, textAliases)
	if !idOK || !textOK {
		return Candidate{}, false
	}

	c := Candidate{
		ID:     id,
		Text:   text,
		Origin: OriginStructured,
	}
	c.Category, _ = lookupAlias(fields, categoryAliases)
	c.Priority, _ = lookupAlias(fields, priorityAliases)
	c.Verification, _ = lookupAlias(fields, verifyAliases)
	c.SourceRef, _ = lookupAlias(fields, sourceAliases)
	return c, true
}

// salvageBlock scans raw block text with ordered patterns to recover a
// provisional candidate from malformed output.
func salvageBlock(block string) (Candidate, bool) {
	// Requirement-ID-like token anywhere in the block.
	if m := reqTokenPattern.FindStringSubmatch(block); m != nil {
		text := strings.TrimSpace(strings.Replace(block, m[0], "", 1))
		text = strings.TrimLeft(text, ":-. \t")
		if text != "" {
			return Candidate{
				ID:     strings.ToUpper(strings.ReplaceAll(m[1], " ", "-")),
				Text:   compact(text, 1000),
				Origin: OriginProvisional,
			}, true
		}
	}

	// Numbered list item ("3.2.1) The system shall ...").
	if m := numberedItem.FindStringSubmatch(block); m != nil && len(strings.TrimSpace(m[2])) > 10 {
		return Candidate{
			ID:     "REQ-" + m[1],
			Text:   compact(strings.TrimSpace(m[2]), 1000),
			Origin: OriginProvisional,
		}, true
	}

	// "Item N: ..." phrasing.
	if m := itemNumberPattern.FindStringSubmatch(block); m != nil && len(strings.TrimSpace(m[2])) > 10 {
		return Candidate{
			ID:     "ITEM-" + m[1],
			Text:   compact(strings.TrimSpace(m[2]), 1000),
			Origin: OriginProvisional,
		}, true
	}

	return Candidate{}, false
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(strings.ToLower(key))
	key = strings.Trim(key, "*-# \t")
	return strings.Join(strings.Fields(key), " ")
}

func lookupAlias(fields map[string]string, aliases []string) (string, bool) {
	for _, alias := range aliases {
		if v, ok := fields[alias]; ok {
			return v, true
		}
	}
	return "", false
}

// MergeCandidates appends extras onto base, skipping any candidate whose
// normalized identifier is already present. First writer wins.
func MergeCandidates(base, extras []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(base))
	for _, c := range base {
		seen[c.Key()] = struct{}{}
	}

	merged := base
	for _, c := range extras {
		if _, dup := seen[c.Key()]; dup {
			continue
		}
		seen[c.Key()] = struct{}{}
		merged = append(merged, c)
	}
	return merged
}
