package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-reqextract-be/internal/pkg/logger"
	"ai-reqextract-be/pkg/ragstore"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "System Requirements v2.1.pdf", want: "system-requirements-v2-1-pdf"},
		{in: "UPPER_case file.docx", want: "upper-case-file-docx"},
		{in: "---trim me---", want: "trim-me"},
		{in: "日本語.pdf", want: "pdf"},
		{in: "///", want: "attachment"},
	}
	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := slugify(strings.Repeat("abc-", 30))
	if len(long) > 40 {
		t.Errorf("slugify did not cap length: %d chars", len(long))
	}
}

func TestAcquireAddsUniqueSuffix(t *testing.T) {
	backend := &fakeBackend{}
	m := NewWorkspaceManager(backend, logger.NewNopLogger())

	a, err := m.Acquire(context.Background(), "spec.pdf")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Acquire(context.Background(), "spec.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if a.Slug == b.Slug {
		t.Fatalf("two acquisitions for the same file collided on slug %q", a.Slug)
	}
	if !strings.HasPrefix(a.Slug, "spec-pdf-") {
		t.Errorf("slug %q does not carry the slugified base name", a.Slug)
	}
}

func TestAcquireWrapsBackendUnavailable(t *testing.T) {
	backend := &fakeBackend{createErr: errors.New("502 bad gateway")}
	m := NewWorkspaceManager(backend, logger.NewNopLogger())

	_, err := m.Acquire(context.Background(), "spec.pdf")
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
}

func TestReleaseRunsAfterContextCancellation(t *testing.T) {
	// Teardown uses its own context, so a cancelled pipeline must still
	// delete the workspace instead of leaking it.
	backend := &fakeBackend{}
	m := NewWorkspaceManager(backend, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	ws, err := m.Acquire(ctx, "spec.pdf")
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	m.Release(ws)
	if got := backend.deletedSlugs(); len(got) != 1 || got[0] != ws.Slug {
		t.Fatalf("deleted slugs = %v, want [%s]", got, ws.Slug)
	}
}

func TestReleaseNilWorkspaceIsNoop(t *testing.T) {
	m := NewWorkspaceManager(&fakeBackend{}, logger.NewNopLogger())
	m.Release(nil) // must not panic
}

func TestWithWorkspaceReleasesOnError(t *testing.T) {
	backend := &fakeBackend{}
	m := NewWorkspaceManager(backend, logger.NewNopLogger())

	var slug string
	wantErr := errors.New("stage blew up")
	err := m.WithWorkspace(context.Background(), "spec.pdf", func(ws *ragstore.Workspace) error {
		slug = ws.Slug
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if got := backend.deletedSlugs(); len(got) != 1 || got[0] != slug {
		t.Fatalf("deleted slugs = %v, want [%s]", got, slug)
	}
}

func TestWithWorkspaceReleasesOnPanic(t *testing.T) {
	backend := &fakeBackend{}
	m := NewWorkspaceManager(backend, logger.NewNopLogger())

	func() {
		defer func() { _ = recover() }()
		_ = m.WithWorkspace(context.Background(), "spec.pdf", func(*ragstore.Workspace) error {
			panic("stage panicked")
		})
	}()

	if got := backend.deletedSlugs(); len(got) != 1 {
		t.Fatalf("deleted slugs = %v, want exactly one", got)
	}
}
