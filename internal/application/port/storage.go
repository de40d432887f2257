package port

import (
	"context"

	"github.com/garyjia/travel-approval/internal/domain/entity"
)

// ExportStorage keeps generated export files under a base directory
type ExportStorage interface {
	// Save writes content under name and returns the full path
	Save(ctx context.Context, name string, content []byte) (string, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) bool
	Delete(ctx context.Context, name string) error
}

// AuditRenderer turns audit entries into a spreadsheet document
type AuditRenderer interface {
	Render(ctx context.Context, logs []*entity.AuditLog) ([]byte, error)
}
