package rotationlog

import (
	"context"

	"github.com/kapu/duty-rotation-bot/internal/constants"
	"github.com/kapu/duty-rotation-bot/internal/domain"
	"github.com/kapu/duty-rotation-bot/internal/service/cache"
	"go.uber.org/zap"
)

// RedisStore keeps each log as a JSON string. SET replaces the value in one
// step, which gives the atomic overwrite.
type RedisStore struct {
	cache  *cache.CacheService
	logger *zap.Logger
}

func NewRedisStore(cacheSvc *cache.CacheService, logger *zap.Logger) *RedisStore {
	return &RedisStore{cache: cacheSvc, logger: logger}
}

func (s *RedisStore) key(groupID string) string {
	return constants.StoreConfig.RedisPrefix + groupID
}

func (s *RedisStore) Load(ctx context.Context, groupID string) (*domain.RotationLog, error) {
	key := s.key(groupID)
	log := domain.NewRotationLog()
	found, err := s.cache.Get(ctx, key, log)
	if err != nil {
		return nil, err
	}
	if found {
		return log, nil
	}

	empty := domain.NewRotationLog()
	created, err := s.cache.SetNX(ctx, key, empty)
	if err != nil {
		return nil, err
	}
	if !created {
		// written between GET and SETNX; read what is there
		log = domain.NewRotationLog()
		if _, err := s.cache.Get(ctx, key, log); err != nil {
			return nil, err
		}
		return log, nil
	}
	s.logger.Info("Created empty rotation log", zap.String("key", key))
	return empty, nil
}

func (s *RedisStore) Save(ctx context.Context, groupID string, log *domain.RotationLog) error {
	return s.cache.Set(ctx, s.key(groupID), log, 0)
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

func (s *RedisStore) Close() error {
	return s.cache.Close()
}
