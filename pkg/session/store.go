package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	errs "tagscraper/pkg/errors"
	"tagscraper/pkg/logger"
)

// ErrNoSession is returned by Load when no durable session record is present
// or the record is not structurally well-formed
var ErrNoSession = errs.New(errs.ErrorTypeNoSession, "no session record present", 0)

// Store persists a single session record on the filesystem. It performs no
// network access; saves are atomic (write to temp file, fsync, rename) so a
// crash never leaves a half-written record behind.
type Store struct {
	path   string
	logger logger.Logger
}

// NewStore creates a session store backed by the given file path
func NewStore(path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{path: path, logger: log}
}

// Path returns the location of the durable session record
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted session if present and structurally well-formed
func (s *Store) Load() (*Session, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	defer file.Close()

	var sess Session
	if err := json.NewDecoder(file).Decode(&sess); err != nil {
		s.logger.WarnWithFields("session record is corrupted, treating as absent", map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		})
		return nil, ErrNoSession
	}

	if !sess.wellFormed() {
		s.logger.Warn("session record is missing credential material, treating as absent")
		return nil, ErrNoSession
	}

	s.logger.DebugWithFields("session loaded", map[string]interface{}{
		"username":   sess.Username,
		"valid":      sess.Valid,
		"created_at": sess.CreatedAt,
	})

	return &sess, nil
}

// Save atomically overwrites the durable session record
func (s *Store) Save(sess *Session) error {
	if sess == nil {
		return fmt.Errorf("cannot save nil session")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create temporary session file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(sess); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync session file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close session file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	s.logger.DebugWithFields("session saved", map[string]interface{}{
		"username": sess.Username,
		"valid":    sess.Valid,
	})

	return nil
}

// Invalidate deletes the durable session record. Deleting an absent record
// is not an error, so repeated invalidation is safe.
func (s *Store) Invalidate() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}

	s.logger.Debug("session record deleted")
	return nil
}
