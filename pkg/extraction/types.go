package extraction

import (
	"strings"
	"time"
)

// DocumentKind classifies an attachment by its likely container format.
type DocumentKind string

const (
	KindPDF     DocumentKind = "pdf"
	KindWord    DocumentKind = "word"
	KindExcel   DocumentKind = "excel"
	KindText    DocumentKind = "text"
	KindUnknown DocumentKind = "unknown"
)

// Attachment describes one source document to extract from.
// It is supplied by the attachment store and never mutated by the pipeline.
type Attachment struct {
	ID       string
	FileName string
	Size     int64
	MimeType string
}

// Kind derives the document kind from MIME type, falling back to the
// file extension when the store did not report a usable MIME type.
func (a *Attachment) Kind() DocumentKind {
	switch {
	case strings.Contains(a.MimeType, "pdf"):
		return KindPDF
	case strings.Contains(a.MimeType, "word"), strings.Contains(a.MimeType, "officedocument.wordprocessing"):
		return KindWord
	case strings.Contains(a.MimeType, "excel"), strings.Contains(a.MimeType, "spreadsheet"):
		return KindExcel
	case strings.HasPrefix(a.MimeType, "text/"):
		return KindText
	}

	switch strings.ToLower(ext(a.FileName)) {
	case "pdf":
		return KindPDF
	case "doc", "docx":
		return KindWord
	case "xls", "xlsx":
		return KindExcel
	case "txt", "md", "csv":
		return KindText
	}
	return KindUnknown
}

func ext(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 && i < len(name)-1 {
		return name[i+1:]
	}
	return ""
}

// Origin records how a candidate was produced.
type Origin string

const (
	// OriginStructured means the candidate came from a well-formed
	// delimited block with both required fields present.
	OriginStructured Origin = "structured"

	// OriginProvisional means the candidate was salvaged by pattern
	// matching (malformed block or direct-text fallback) and should be
	// treated with less confidence downstream.
	OriginProvisional Origin = "provisional"
)

// Candidate is one extracted requirement draft pending validation.
type Candidate struct {
	ID           string
	Text         string
	Category     string
	Priority     string
	Verification string
	SourceRef    string
	Origin       Origin
}

// Key normalizes the candidate identifier for deduplication.
func (c *Candidate) Key() string {
	return strings.ToUpper(strings.TrimSpace(c.ID))
}

// Status is the terminal state of one attachment's pipeline run.
type Status string

const (
	// StatusExtracted: the RAG path produced the result.
	StatusExtracted Status = "EXTRACTED"

	// StatusFallbackExtracted: the indexing backend was confirmed broken
	// and candidates came from direct-text pattern scanning.
	StatusFallbackExtracted Status = "FALLBACK_EXTRACTED"

	// StatusManualReview: every strategy failed; the result holds a single
	// placeholder candidate flagging the document for a human.
	StatusManualReview Status = "MANUAL_REVIEW_REQUIRED"

	// StatusAborted: the model reported it cannot see the document, so
	// extraction was abandoned rather than risk fabricated output.
	StatusAborted Status = "ABORTED"
)

// Result is the final, deduplicated outcome for one attachment.
type Result struct {
	AttachmentID string
	FileName     string
	Status       Status
	Candidates   []Candidate
	Elapsed      time.Duration
}

// Verdict is the self-validation outcome for one candidate identifier.
type Verdict int

const (
	VerdictUnparsed Verdict = iota
	VerdictConfirmed
	VerdictRejected
)

// Pipeline stages, used as machine-readable tags on progress events.
const (
	StageDownload     = "download"
	StageWorkspace    = "workspace"
	StageUpload       = "upload"
	StageQuery        = "query"
	StageParse        = "parse"
	StageValidate     = "validate"
	StageCompleteness = "completeness"
	StageFallback     = "fallback"
	StageDone         = "done"
)
