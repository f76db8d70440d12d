// Package rotationlog persists one RotationLog per group.
//
// Every backend implements Load-or-create and an atomic overwrite. None of
// them coordinate concurrent writers: one process per group is assumed.
package rotationlog

import (
	"context"

	"github.com/kapu/duty-rotation-bot/internal/domain"
)

// LogStore loads and saves rotation logs keyed by group id.
type LogStore interface {
	// Load returns the stored log, creating and persisting an empty one
	// when the group has none yet.
	Load(ctx context.Context, groupID string) (*domain.RotationLog, error)
	// Save overwrites the stored log. Readers never observe a partial write.
	Save(ctx context.Context, groupID string, log *domain.RotationLog) error
	Close() error
}

// Pinger is implemented by backends that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks store when it is a Pinger and succeeds otherwise.
func Ping(ctx context.Context, store LogStore) error {
	if p, ok := store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
