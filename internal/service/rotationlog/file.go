package rotationlog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kapu/duty-rotation-bot/internal/constants"
	"github.com/kapu/duty-rotation-bot/internal/domain"
	"github.com/kapu/duty-rotation-bot/pkg/errors"
	"go.uber.org/zap"
)

// FileStore keeps each group's log in its own JSON file under dir.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewUnexpectedError("failed to create store directory", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Path returns the file backing groupID. Group ids may contain '/' so they
// are re-encoded with the URL-safe alphabet.
func (s *FileStore) Path(groupID string) string {
	name := constants.StoreConfig.FilePrefix +
		base64.RawURLEncoding.EncodeToString([]byte(groupID)) +
		constants.StoreConfig.FileSuffix
	return filepath.Join(s.dir, name)
}

// legacyPath is the older layout that named files after the group id as
// given, padded standard base64. Returns "" when groupID cannot have one.
func (s *FileStore) legacyPath(groupID string) string {
	if groupID == "" || strings.Contains(groupID, "/") {
		return ""
	}
	if _, err := base64.StdEncoding.DecodeString(groupID); err != nil {
		return ""
	}
	return filepath.Join(s.dir, constants.StoreConfig.FilePrefix+groupID+constants.StoreConfig.FileSuffix)
}

// Groups lists the group ids that have a log file under dir, including
// legacy files. Group ids are padded, so legacy names never decode as raw
// URL base64. Files whose names decode as neither are skipped.
func (s *FileStore) Groups() ([]string, error) {
	pattern := filepath.Join(s.dir, constants.StoreConfig.FilePrefix+"*"+constants.StoreConfig.FileSuffix)
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.NewUnexpectedError("failed to list log files", err)
	}

	seen := make(map[string]struct{}, len(paths))
	groups := make([]string, 0, len(paths))
	for _, path := range paths {
		encoded := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), constants.StoreConfig.FilePrefix), constants.StoreConfig.FileSuffix)
		groupID, ok := decodeFileName(encoded)
		if !ok {
			s.logger.Warn("Skipping log file with undecodable name", zap.String("path", path))
			continue
		}
		if _, dup := seen[groupID]; dup {
			continue
		}
		seen[groupID] = struct{}{}
		groups = append(groups, groupID)
	}
	sort.Strings(groups)
	return groups, nil
}

func decodeFileName(encoded string) (string, bool) {
	if raw, err := base64.RawURLEncoding.DecodeString(encoded); err == nil {
		return string(raw), true
	}
	if _, err := base64.StdEncoding.DecodeString(encoded); err == nil {
		return encoded, true
	}
	return "", false
}

// Load reads the group's log. A legacy file is moved to the current name
// on first load.
func (s *FileStore) Load(ctx context.Context, groupID string) (*domain.RotationLog, error) {
	path := s.Path(groupID)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if legacy := s.legacyPath(groupID); legacy != "" {
			if _, statErr := os.Stat(legacy); statErr == nil {
				return s.migrateLegacy(ctx, groupID, legacy)
			}
		}
		log := domain.NewRotationLog()
		if err := s.Save(ctx, groupID, log); err != nil {
			return nil, err
		}
		s.logger.Info("Created empty rotation log", zap.String("path", path))
		return log, nil
	}
	if err != nil {
		return nil, errors.NewUnexpectedError("Error reading/writing log file", err)
	}

	log := domain.NewRotationLog()
	if err := json.Unmarshal(data, log); err != nil {
		return nil, errors.NewUnexpectedError(fmt.Sprintf("corrupt log file %s", path), err)
	}
	return log, nil
}

func (s *FileStore) migrateLegacy(ctx context.Context, groupID, legacy string) (*domain.RotationLog, error) {
	data, err := os.ReadFile(legacy)
	if err != nil {
		return nil, errors.NewUnexpectedError("Error reading/writing log file", err)
	}
	log := domain.NewRotationLog()
	if err := json.Unmarshal(data, log); err != nil {
		return nil, errors.NewUnexpectedError(fmt.Sprintf("corrupt log file %s", legacy), err)
	}
	if err := s.Save(ctx, groupID, log); err != nil {
		return nil, err
	}
	if err := os.Remove(legacy); err != nil {
		s.logger.Warn("Failed to remove legacy log file", zap.String("path", legacy), zap.Error(err))
	}
	s.logger.Info("Migrated legacy rotation log",
		zap.String("from", legacy),
		zap.String("to", s.Path(groupID)),
	)
	return log, nil
}

// Save writes to a temp file in the same directory and renames it over the
// target, so the file is always either the old or the new log.
func (s *FileStore) Save(_ context.Context, groupID string, log *domain.RotationLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return errors.NewUnexpectedError("failed to encode log", err)
	}

	path := s.Path(groupID)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.NewUnexpectedError("Error reading/writing log file", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return errors.NewUnexpectedError("Error reading/writing log file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return errors.NewUnexpectedError("Error reading/writing log file", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.NewUnexpectedError("Error reading/writing log file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.NewUnexpectedError("Error reading/writing log file", err)
	}
	return nil
}

// Ping checks that the store directory is still there.
func (s *FileStore) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return errors.NewUnexpectedError("store directory unavailable", err)
	}
	if !info.IsDir() {
		return errors.NewUnexpectedError(fmt.Sprintf("store path %s is not a directory", s.dir), nil)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
