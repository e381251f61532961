package attachment

import (
	"context"

	"ai-reqextract-be/pkg/extraction"
)

// Store provides attachment metadata and raw bytes.
//
// A failed download is fatal for that attachment: no extraction strategy
// can run without the bytes.
type Store interface {
	// GetAttachment returns descriptor metadata for one attachment.
	GetAttachment(ctx context.Context, id string) (*extraction.Attachment, error)

	// Download returns the raw file bytes for one attachment.
	Download(ctx context.Context, id string) ([]byte, error)
}
