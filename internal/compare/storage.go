package compare

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"docportal/internal/domain"
	"docportal/internal/extract"
	"docportal/internal/ingest"
	"docportal/internal/session"
)

// Storage keeps the two files of a comparison under a per-session directory.
type Storage struct {
	baseDir string
	logger  *slog.Logger
}

// Pair holds the stored reference and actual file paths.
type Pair struct {
	Reference string
	Actual    string
}

func NewStorage(baseDir string, logger *slog.Logger) *Storage {
	return &Storage{baseDir: baseDir, logger: logger}
}

// Dir returns the session directory of a comparison.
func (s *Storage) Dir(sessionID string) (string, error) {
	if err := session.ValidateID(sessionID); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, sessionID), nil
}

// SaveUploads replaces the session's files with reference and actual. Both
// must be PDFs.
func (s *Storage) SaveUploads(sessionID string, reference, actual ingest.Upload) (Pair, error) {
	dir, err := s.Dir(sessionID)
	if err != nil {
		return Pair{}, err
	}
	for _, u := range []ingest.Upload{reference, actual} {
		if extract.Ext(u.Name()) != ".pdf" {
			return Pair{}, domain.Wrap(domain.ErrValidation, nil, "only PDF files are allowed, got %s", u.Name())
		}
	}
	if filepath.Base(reference.Name()) == filepath.Base(actual.Name()) {
		return Pair{}, domain.Wrap(domain.ErrValidation, nil, "reference and actual share the name %s", reference.Name())
	}

	if err := os.RemoveAll(dir); err != nil {
		return Pair{}, fmt.Errorf("failed to delete existing files in %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Pair{}, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	s.logger.Info("existing files deleted", "session_id", sessionID, "dir", dir)

	pair := Pair{
		Reference: filepath.Join(dir, filepath.Base(reference.Name())),
		Actual:    filepath.Join(dir, filepath.Base(actual.Name())),
	}
	for path, u := range map[string]ingest.Upload{pair.Reference: reference, pair.Actual: actual} {
		data, err := u.Read()
		if err != nil {
			return Pair{}, fmt.Errorf("failed to read upload %s: %w", u.Name(), err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return Pair{}, fmt.Errorf("failed to save %s: %w", path, err)
		}
	}
	s.logger.Info("files saved", "session_id", sessionID, "reference", pair.Reference, "actual", pair.Actual)
	return pair, nil
}
