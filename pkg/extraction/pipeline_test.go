package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-reqextract-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prosaicContent = "Meeting notes from the design review. Attendance was good. Nothing normative in here at all."

func fastPipelineConfig() Config {
	cfg := DefaultConfig()
	cfg.Monitor = fastMonitorConfig()
	return cfg
}

func newTestPipeline(backend *fakeBackend, files map[string][]byte) *Pipeline {
	downloader := &fakeDownloader{files: files}
	return NewPipeline(backend, downloader, fastPipelineConfig(), logger.NewNopLogger(), nil)
}

// scriptedChat routes by prompt kind so one fake can answer the
// extraction, validation and recovery queries differently.
func scriptedChat(extraction, validation, recovery string) func(string) (string, error) {
	return func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "accessibility_check"):
			return extraction, nil
		case strings.Contains(prompt, "<candidates>"):
			return validation, nil
		default:
			return recovery, nil
		}
	}
}

func TestExtractHappyPath(t *testing.T) {
	extraction := BlockDelimiter + "\n" +
		"ID: REQ-001\nRequirement: The system shall log every login attempt.\nCategory: functional\nPriority: high\n" +
		BlockDelimiter + "\n" +
		"ID: REQ-002\nRequirement: The enclosure must withstand 40G shock.\nCategory: environmental\n"
	validation := "Confirmed: REQ-001 - section 2.1\nConfirmed: REQ-002 - table 4\n"

	backend := &fakeBackend{
		countSeq: []int{1},
		chatFn:   scriptedChat(extraction, validation, ""),
	}
	att := &Attachment{ID: "101", FileName: "srs.pdf", Size: 5 * 1024}
	p := newTestPipeline(backend, map[string][]byte{"101": []byte("%PDF-1.4 fake body")})

	result, err := p.Extract(context.Background(), att)
	require.NoError(t, err)

	assert.Equal(t, StatusExtracted, result.Status)
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "REQ-001", result.Candidates[0].ID)
	assert.Equal(t, OriginStructured, result.Candidates[0].Origin)

	// Exactly one workspace, and it was torn down.
	assert.Equal(t, 1, len(backend.created))
	assert.Equal(t, backend.created, backend.deletedSlugs())
}

func TestExtractAbortsOnRefusal(t *testing.T) {
	backend := &fakeBackend{
		countSeq: []int{1},
		chatFn:   scriptedChat("CANNOT ACCESS DOCUMENT", "", ""),
	}
	att := &Attachment{ID: "102", FileName: "srs.pdf", Size: 5 * 1024}
	p := newTestPipeline(backend, map[string][]byte{"102": []byte("%PDF-1.4 fake body")})

	result, err := p.Extract(context.Background(), att)
	require.NoError(t, err)

	assert.Equal(t, StatusAborted, result.Status)
	assert.Empty(t, result.Candidates, "a refusal must never yield fabricated candidates")
	assert.Len(t, backend.chats, 1, "no validation or retry after a refusal")
	assert.Equal(t, backend.created, backend.deletedSlugs())
}

func TestExtractEscalatesToManualReview(t *testing.T) {
	// The backend never indexes anything and the raw text carries no
	// requirement patterns: the chain must walk every stage and end in
	// exactly one manual-review placeholder.
	backend := &fakeBackend{countSeq: []int{0}}
	att := &Attachment{ID: "103", FileName: "scan.pdf", Size: int64(len(prosaicContent))}
	p := newTestPipeline(backend, map[string][]byte{"103": []byte(prosaicContent)})

	result, err := p.Extract(context.Background(), att)
	require.NoError(t, err)

	assert.Equal(t, StatusManualReview, result.Status)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "MANUAL-REVIEW-1", result.Candidates[0].ID)

	// Two file-upload stages plus one raw-text stage, each in its own
	// workspace, all released.
	assert.Equal(t, 2, backend.uploads)
	assert.Equal(t, 1, backend.rawTexts)
	assert.Equal(t, 3, len(backend.created))
	assert.Equal(t, backend.created, backend.deletedSlugs())
	assert.Empty(t, backend.chats, "no queries against unconfirmed workspaces")
}

func TestExtractFallsBackToDirectTextScan(t *testing.T) {
	content := "Design notes. The protection relay shall open within 5ms of a fault condition. " +
		"The outdoor cabinet must be lockable with a standard key."

	backend := &fakeBackend{countSeq: []int{0}}
	att := &Attachment{ID: "104", FileName: "notes.txt", Size: int64(len(content))}
	p := newTestPipeline(backend, map[string][]byte{"104": []byte(content)})

	result, err := p.Extract(context.Background(), att)
	require.NoError(t, err)

	assert.Equal(t, StatusFallbackExtracted, result.Status)
	require.Len(t, result.Candidates, 2)
	for _, c := range result.Candidates {
		assert.Equal(t, OriginProvisional, c.Origin)
	}
}

func TestExtractRunsRecoveryOnLowYield(t *testing.T) {
	// 500KB doc: floor 10, trigger 7. Two confirmed candidates is below
	// the trigger, so the recovery query fires and its unique block is
	// merged in.
	extraction := BlockDelimiter + "\n" +
		"ID: REQ-001\nRequirement: The pump shall stop on overpressure.\n" +
		BlockDelimiter + "\n" +
		"ID: REQ-002\nRequirement: The valve must fail closed.\n"
	validation := "Confirmed: REQ-001 - p3\nConfirmed: REQ-002 - p4\n"
	recovery := BlockDelimiter + "\n" +
		"ID: REQ-002\nRequirement: Duplicate from the first pass.\n" +
		BlockDelimiter + "\n" +
		"ID: REQ-003\nRequirement: The tank shall vent above 2 bar.\n"

	backend := &fakeBackend{
		countSeq: []int{1},
		chatFn:   scriptedChat(extraction, validation, recovery),
	}
	att := &Attachment{ID: "105", FileName: "big-srs.pdf", Size: 500 * 1024}
	p := newTestPipeline(backend, map[string][]byte{"105": []byte("%PDF-1.4 fake body")})

	result, err := p.Extract(context.Background(), att)
	require.NoError(t, err)

	assert.Equal(t, StatusExtracted, result.Status)
	require.Len(t, result.Candidates, 3)
	assert.Equal(t, "The valve must fail closed.", result.Candidates[1].Text,
		"recovery must not overwrite first-pass candidates")
	assert.Equal(t, "REQ-003", result.Candidates[2].ID)
	assert.Len(t, backend.chats, 3, "extraction, validation, recovery")
}

func TestExtractQueryErrorEscalatesChain(t *testing.T) {
	// Embedding confirms but every chat call dies. The chain still walks
	// down to direct text, which succeeds here.
	content := "Spec fragment: the beacon shall flash at 1Hz while armed."

	backend := &fakeBackend{
		countSeq: []int{1},
		chatFn: func(string) (string, error) {
			return "", errors.New("chat route 500")
		},
	}
	att := &Attachment{ID: "106", FileName: "frag.txt", Size: int64(len(content))}
	p := newTestPipeline(backend, map[string][]byte{"106": []byte(content)})

	result, err := p.Extract(context.Background(), att)
	require.NoError(t, err)

	assert.Equal(t, StatusFallbackExtracted, result.Status)
	assert.Equal(t, backend.created, backend.deletedSlugs(), "workspaces released despite query failures")
}

func TestExtractManualReviewWhenWorkspaceCreationFails(t *testing.T) {
	backend := &fakeBackend{
		createErr: errors.New("backend down"),
		countSeq:  []int{0},
	}
	att := &Attachment{ID: "107", FileName: "scan.pdf", Size: int64(len(prosaicContent))}
	p := newTestPipeline(backend, map[string][]byte{"107": []byte(prosaicContent)})

	result, err := p.Extract(context.Background(), att)
	require.NoError(t, err)

	assert.Equal(t, StatusManualReview, result.Status)
	assert.Zero(t, backend.uploads)
	assert.Zero(t, backend.rawTexts)
}

func TestExtractDownloadFailureIsFatal(t *testing.T) {
	backend := &fakeBackend{countSeq: []int{1}}
	att := &Attachment{ID: "108", FileName: "gone.pdf", Size: 1024}
	p := newTestPipeline(backend, map[string][]byte{})

	result, err := p.Extract(context.Background(), att)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Zero(t, len(backend.created), "no workspace without bytes")
}

func TestExtractBatchSkipsFailedAttachments(t *testing.T) {
	extraction := BlockDelimiter + "\nID: REQ-001\nRequirement: The system shall start within 5 seconds.\n"
	validation := "Confirmed: REQ-001 - p1\n"

	backend := &fakeBackend{
		countSeq: []int{1},
		chatFn:   scriptedChat(extraction, validation, ""),
	}
	p := newTestPipeline(backend, map[string][]byte{
		"201": []byte("%PDF-1.4 fake body"),
		"203": []byte("%PDF-1.4 fake body"),
	})

	atts := []*Attachment{
		{ID: "201", FileName: "a.pdf", Size: 2 * 1024},
		{ID: "202", FileName: "missing.pdf", Size: 2 * 1024}, // download fails
		{ID: "203", FileName: "c.pdf", Size: 2 * 1024},
	}

	results, err := p.ExtractBatch(context.Background(), atts)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "201", results[0].AttachmentID)
	assert.Equal(t, "203", results[1].AttachmentID)
}

func TestExtractBatchStopsOnCancellation(t *testing.T) {
	backend := &fakeBackend{countSeq: []int{0}}
	p := newTestPipeline(backend, map[string][]byte{
		"301": []byte(prosaicContent),
		"302": []byte(prosaicContent),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := p.ExtractBatch(ctx, []*Attachment{
		{ID: "301", FileName: "a.pdf", Size: 1024},
		{ID: "302", FileName: "b.pdf", Size: 1024},
	})
	require.Error(t, err)
	assert.Nil(t, results)
}
