package ports

import (
	"context"
	"io"
	"time"
)

// RenderInput is the structured content printed on a badge.
type RenderInput struct {
	BadgeNumber string
	OwnerName   string
	Zones       []string
	ValidUntil  *time.Time // nil for permanent badges
}

// BadgeRenderer turns badge fields into a printable document.
type BadgeRenderer interface {
	Render(ctx context.Context, in RenderInput) ([]byte, error)
	ContentType() string
}

// ArtifactStore persists rendered documents and hands back a reference.
type ArtifactStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}
