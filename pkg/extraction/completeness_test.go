package extraction

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ai-reqextract-be/internal/pkg/logger"
	"ai-reqextract-be/pkg/ragstore"
)

func newCompleteness(backend ragstore.Client) *Completeness {
	log := logger.NewNopLogger()
	return NewCompleteness(backend, NewParser(log), DefaultCompletenessConfig(), log)
}

func TestFloorBuckets(t *testing.T) {
	c := newCompleteness(&fakeBackend{})
	tests := []struct {
		size int64
		want int
	}{
		{size: 512, want: 1},       // tiny memo
		{size: 40 * 1024, want: 1}, // still below the small cutoff
		{size: 50 * 1024, want: 3}, // small cutoff
		{size: 100 * 1024, want: 3},
		{size: 150 * 1024, want: 3}, // medium cutoff, 150K/50K = 3
		{size: 500 * 1024, want: 10},
		{size: 5 * 1024 * 1024, want: 102},
	}
	for _, tt := range tests {
		if got := c.Floor(tt.size); got != tt.want {
			t.Errorf("Floor(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestFloorMonotonic(t *testing.T) {
	c := newCompleteness(&fakeBackend{})
	prev := 0
	for size := int64(0); size <= 2*1024*1024; size += 4 * 1024 {
		floor := c.Floor(size)
		if floor < prev {
			t.Fatalf("Floor(%d) = %d dropped below Floor at previous size (%d)", size, floor, prev)
		}
		prev = floor
	}
}

func TestNeedsRecovery(t *testing.T) {
	c := newCompleteness(&fakeBackend{})
	tests := []struct {
		yield int
		size  int64
		want  bool
	}{
		{yield: 0, size: 5 * 1024, want: true}, // nothing from a real doc
		{yield: 1, size: 5 * 1024, want: false},
		{yield: 2, size: 40 * 1024, want: false}, // floor 1, 2 clears it
		{yield: 0, size: 40 * 1024, want: true},
		{yield: 2, size: 100 * 1024, want: true}, // floor 3, trigger 2.1
		{yield: 3, size: 100 * 1024, want: false},
		{yield: 6, size: 500 * 1024, want: true}, // floor 10, trigger 7
		{yield: 7, size: 500 * 1024, want: false},
	}
	for _, tt := range tests {
		if got := c.NeedsRecovery(tt.yield, tt.size); got != tt.want {
			t.Errorf("NeedsRecovery(%d, %d) = %v, want %v", tt.yield, tt.size, got, tt.want)
		}
	}
}

func TestRecoverMergesUniqueCandidates(t *testing.T) {
	recovery := BlockDelimiter + "\n" +
		"ID: REQ-001\nRequirement: Duplicate of an existing candidate.\n" +
		BlockDelimiter + "\n" +
		"ID: REQ-009\nRequirement: The pump shall stop on overpressure.\n"
	backend := &fakeBackend{chatFn: func(string) (string, error) {
		return recovery, nil
	}}
	c := newCompleteness(backend)

	existing := []Candidate{
		{ID: "REQ-001", Text: "The system shall log all access."},
	}
	att := &Attachment{ID: "42", FileName: "srs.pdf", Size: 400 * 1024}
	ws := &ragstore.Workspace{Slug: "ws-test"}

	merged := c.Recover(context.Background(), ws, NewPromptBuilder(att), att, existing)
	if len(merged) != 2 {
		t.Fatalf("merged count = %d, want 2", len(merged))
	}
	if merged[0].Text != "The system shall log all access." {
		t.Errorf("recovery overwrote existing REQ-001: %q", merged[0].Text)
	}
	if merged[1].ID != "REQ-009" {
		t.Errorf("new candidate = %q, want REQ-009", merged[1].ID)
	}
}

func TestRecoverKeepsInputOnChatError(t *testing.T) {
	backend := &fakeBackend{chatFn: func(string) (string, error) {
		return "", errors.New("backend gave up")
	}}
	c := newCompleteness(backend)

	existing := make([]Candidate, 4)
	for i := range existing {
		existing[i] = Candidate{ID: fmt.Sprintf("REQ-%03d", i+1), Text: "x"}
	}
	att := &Attachment{ID: "42", FileName: "srs.pdf", Size: 400 * 1024}

	got := c.Recover(context.Background(), &ragstore.Workspace{Slug: "ws"}, NewPromptBuilder(att), att, existing)
	if len(got) != len(existing) {
		t.Fatalf("candidate count changed on error: %d, want %d", len(got), len(existing))
	}
}
