package rotationlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kapu/duty-rotation-bot/internal/constants"
	"github.com/kapu/duty-rotation-bot/internal/domain"
	"github.com/kapu/duty-rotation-bot/internal/service/database"
	"github.com/kapu/duty-rotation-bot/pkg/errors"
	"go.uber.org/zap"
)

var rotationSchema = []string{
	`CREATE TABLE IF NOT EXISTS rotation_logs (
		group_id   TEXT PRIMARY KEY,
		ignored    JSONB NOT NULL DEFAULT '[]'::jsonb,
		served     JSONB NOT NULL DEFAULT '[]'::jsonb,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
}

// PostgresStore keeps one row per group. Save is a single upsert statement.
type PostgresStore struct {
	postgres *database.PostgresService
	db       *sql.DB
	logger   *zap.Logger
}

func NewPostgresStore(ctx context.Context, postgres *database.PostgresService, logger *zap.Logger) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.StoreConfig.PostgresOpTO)
	defer cancel()
	if err := postgres.Migrate(ctx, rotationSchema); err != nil {
		return nil, errors.NewServiceError("failed to prepare rotation_logs", "postgres", "migrate", err)
	}
	return &PostgresStore{
		postgres: postgres,
		db:       postgres.GetDB(),
		logger:   logger,
	}, nil
}

func (s *PostgresStore) Load(ctx context.Context, groupID string) (*domain.RotationLog, error) {
	var log *domain.RotationLog
	err := s.postgres.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rotation_logs (group_id) VALUES ($1)
			ON CONFLICT (group_id) DO NOTHING
		`, groupID)
		if err != nil {
			return fmt.Errorf("failed to ensure rotation log row: %w", err)
		}

		var ignoredJSON, servedJSON []byte
		err = tx.QueryRowContext(ctx, `
			SELECT ignored, served FROM rotation_logs WHERE group_id = $1
		`, groupID).Scan(&ignoredJSON, &servedJSON)
		if err != nil {
			return fmt.Errorf("failed to query rotation log: %w", err)
		}

		log = domain.NewRotationLog()
		if err := json.Unmarshal(ignoredJSON, log.Ignored); err != nil {
			return fmt.Errorf("failed to decode ignored members: %w", err)
		}
		if err := json.Unmarshal(servedJSON, log.Served); err != nil {
			return fmt.Errorf("failed to decode served members: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, errors.NewServiceError("load failed", "postgres", "load", err)
	}
	return log, nil
}

func (s *PostgresStore) Save(ctx context.Context, groupID string, log *domain.RotationLog) error {
	ignoredJSON, err := json.Marshal(log.Ignored)
	if err != nil {
		return errors.NewServiceError("encode failed", "postgres", "save", err)
	}
	servedJSON, err := json.Marshal(log.Served)
	if err != nil {
		return errors.NewServiceError("encode failed", "postgres", "save", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rotation_logs (group_id, ignored, served, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (group_id) DO UPDATE
		SET ignored = EXCLUDED.ignored,
		    served = EXCLUDED.served,
		    updated_at = NOW()
	`, groupID, string(ignoredJSON), string(servedJSON))
	if err != nil {
		s.logger.Error("Failed to save rotation log", zap.String("group_id", groupID), zap.Error(err))
		return errors.NewServiceError("save failed", "postgres", "save", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.postgres.Ping(ctx); err != nil {
		return errors.NewServiceError("postgres unreachable", "postgres", "ping", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.postgres.Close()
}
