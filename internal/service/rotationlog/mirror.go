package rotationlog

import (
	"context"
	"fmt"

	"github.com/kapu/duty-rotation-bot/internal/domain"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// NamedStore labels a backend for logging and error messages.
type NamedStore struct {
	Name  string
	Store LogStore
}

// MirrorStore reads from the primary and writes every save to the primary
// and then to all mirrors concurrently.
type MirrorStore struct {
	primary NamedStore
	mirrors []NamedStore
	logger  *zap.Logger
}

func NewMirrorStore(primary NamedStore, mirrors []NamedStore, logger *zap.Logger) *MirrorStore {
	return &MirrorStore{primary: primary, mirrors: mirrors, logger: logger}
}

func (s *MirrorStore) Load(ctx context.Context, groupID string) (*domain.RotationLog, error) {
	log, err := s.primary.Store.Load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	// bring fresh mirrors in line with the primary
	if err := s.saveMirrors(ctx, groupID, log); err != nil {
		return nil, err
	}
	return log, nil
}

func (s *MirrorStore) Save(ctx context.Context, groupID string, log *domain.RotationLog) error {
	if err := s.primary.Store.Save(ctx, groupID, log); err != nil {
		return err
	}
	return s.saveMirrors(ctx, groupID, log)
}

func (s *MirrorStore) saveMirrors(ctx context.Context, groupID string, log *domain.RotationLog) error {
	if len(s.mirrors) == 0 {
		return nil
	}
	snapshot := log.Clone()

	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(len(s.mirrors))
	for _, mirror := range s.mirrors {
		p.Go(func(ctx context.Context) error {
			if err := mirror.Store.Save(ctx, groupID, snapshot); err != nil {
				s.logger.Error("Mirror save failed",
					zap.String("mirror", mirror.Name),
					zap.String("group_id", groupID),
					zap.Error(err),
				)
				return fmt.Errorf("mirror %s: %w", mirror.Name, err)
			}
			return nil
		})
	}
	return p.Wait()
}

// Ping checks the primary and every mirror.
func (s *MirrorStore) Ping(ctx context.Context) error {
	for _, store := range append([]NamedStore{s.primary}, s.mirrors...) {
		if err := Ping(ctx, store.Store); err != nil {
			return fmt.Errorf("%s: %w", store.Name, err)
		}
	}
	return nil
}

func (s *MirrorStore) Close() error {
	var firstErr error
	for _, store := range append([]NamedStore{s.primary}, s.mirrors...) {
		if err := store.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
