package ragstore

import (
	"context"
	"time"
)

// Workspace is an opaque handle to one ephemeral indexing context.
type Workspace struct {
	Slug string
	Name string
}

// Client defines the contract for the indexing/LLM backend.
//
// The backend is treated as unreliable: UploadDocument may report
// success without the document ever finishing embedding, so callers must
// confirm indexing through CountDocuments rather than trust return values.
type Client interface {
	// CreateWorkspace provisions a fresh workspace and returns its handle.
	CreateWorkspace(ctx context.Context, name string) (*Workspace, error)

	// DeleteWorkspace tears a workspace down. Best-effort; callers log
	// failures and move on.
	DeleteWorkspace(ctx context.Context, slug string) error

	// UploadDocument pushes file bytes into the workspace and requests
	// embedding. A nil error does NOT guarantee the document was indexed.
	UploadDocument(ctx context.Context, slug, fileName string, content []byte) error

	// UploadRawText pushes pre-decoded text into the workspace. Used as
	// the alternative upload path when the file upload route is broken.
	UploadRawText(ctx context.Context, slug, title, text string) error

	// CountDocuments returns how many documents are visible (embedded)
	// in the workspace. This is the authoritative indexing signal.
	CountDocuments(ctx context.Context, slug string) (int, error)

	// Chat sends a prompt against the workspace's indexed content and
	// returns the raw model response.
	Chat(ctx context.Context, slug, prompt string, timeout time.Duration) (string, error)

	// Diagnose returns a free-form report on the backend's document
	// processor state. Best-effort, used for logging only.
	Diagnose(ctx context.Context) (string, error)
}
