package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-reqextract-be/internal/pkg/logger"
	"ai-reqextract-be/pkg/ragstore"

	"github.com/google/uuid"
)

// ErrBackendUnavailable means the indexing backend refused to create a
// workspace. Nothing RAG-based can proceed; callers escalate to the
// direct-text path.
var ErrBackendUnavailable = fmt.Errorf("indexing backend unavailable")

// WorkspaceManager owns the lifetime of ephemeral workspaces.
// One workspace per attachment, destroyed on every exit path.
type WorkspaceManager struct {
	backend ragstore.Client
	logger  logger.ILogger
}

func NewWorkspaceManager(backend ragstore.Client, log logger.ILogger) *WorkspaceManager {
	return &WorkspaceManager{backend: backend, logger: log}
}

// Acquire creates a fresh workspace named after the attachment. The slug
// gets a random suffix so retries never collide with a half-deleted
// workspace on the backend.
func (m *WorkspaceManager) Acquire(ctx context.Context, baseName string) (*ragstore.Workspace, error) {
	name := fmt.Sprintf("%s-%s", slugify(baseName), uuid.NewString()[:8])

	ws, err := m.backend.CreateWorkspace(ctx, name)
	if err != nil {
		m.logger.Error("workspace", "Failed to create workspace", map[string]interface{}{
			"name":  name,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	m.logger.Info("workspace", "Workspace created", map[string]interface{}{
		"slug": ws.Slug,
	})
	return ws, nil
}

// Release tears the workspace down. Best-effort: failures are logged and
// swallowed so a leaked workspace never blocks pipeline completion.
func (m *WorkspaceManager) Release(ws *ragstore.Workspace) {
	if ws == nil {
		return
	}

	// Fresh context: the pipeline's context may already be cancelled and
	// teardown should still get a chance to run.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := m.backend.DeleteWorkspace(ctx, ws.Slug); err != nil {
		m.logger.Warn("workspace", "Failed to delete workspace (leaked on backend)", map[string]interface{}{
			"slug":  ws.Slug,
			"error": err.Error(),
		})
		return
	}

	m.logger.Info("workspace", "Workspace deleted", map[string]interface{}{
		"slug": ws.Slug,
	})
}

// WithWorkspace runs fn inside a scoped workspace, guaranteeing Release
// on normal return, error and panic alike.
func (m *WorkspaceManager) WithWorkspace(ctx context.Context, baseName string, fn func(ws *ragstore.Workspace) error) error {
	ws, err := m.Acquire(ctx, baseName)
	if err != nil {
		return err
	}
	defer m.Release(ws)

	return fn(ws)
}

func slugify(name string) string {
	name = strings.ToLower(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_', r == ' ', r == '.':
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 40 {
		slug = slug[:40]
	}
	if slug == "" {
		slug = "attachment"
	}
	return slug
}
