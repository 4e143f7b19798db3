package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

// Store persists a single session record between runs.
type Store interface {
	Load() (*model.Session, error)
	Save(sess *model.Session) error
	Clear() error
}

// FileStore keeps the session record as a JSON file on disk. Writes are
// atomic: the record lands in a temp file first and is renamed over the old
// one, so a crash mid-write leaves the prior record intact.
type FileStore struct {
	path   string
	save   bool // when false, Save is a no-op and Load always misses
	logger *slog.Logger
}

// NewFileStore creates a store backed by the JSON file at path.
func NewFileStore(path string, save bool, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, save: save, logger: logger}
}

// Load reads the persisted session record. Returns model.ErrNoSession when no
// record exists. A corrupted or incomplete file is deleted and treated as
// missing rather than surfaced as an error.
func (s *FileStore) Load() (*model.Session, error) {
	if !s.save {
		return nil, model.ErrNoSession
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.ErrNoSession
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.logger.Warn("session file is corrupted, discarding", "path", s.path, "error", err)
		s.removeQuietly()
		return nil, model.ErrNoSession
	}

	if len(sess.Cookies) == 0 || sess.UserAgent == "" || sess.AcquiredAt.IsZero() {
		s.logger.Warn("session file is incomplete, discarding", "path", s.path)
		s.removeQuietly()
		return nil, model.ErrNoSession
	}

	return &sess, nil
}

// Save persists the session record, replacing any previous one wholesale.
func (s *FileStore) Save(sess *model.Session) error {
	if !s.save {
		s.logger.Info("session saving is disabled")
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp session file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace session file: %w", err)
	}

	s.logger.Info("session saved", "path", s.path, "cookies", len(sess.Cookies))
	return nil
}

// Clear removes the persisted record, if any.
func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *FileStore) removeQuietly() {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Error("failed to delete bad session file", "path", s.path, "error", err)
	}
}
