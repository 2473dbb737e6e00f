// Package session keeps per-session history, index locations and locks.
package session

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docportal/internal/domain"
	"docportal/internal/index"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const maxIDLength = 128

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Turn is one history entry.
type Turn struct {
	Role Role
	Text string
}

// Paths are the session-scoped storage locations.
type Paths struct {
	TempDir  string
	IndexDir string
}

type session struct {
	mu        sync.RWMutex
	history   []Turn
	retriever *index.Retriever
}

// Store holds every session seen by the process. History lives only as long
// as the Store.
type Store struct {
	uploadDir string
	indexDir  string
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewStore(uploadDir, indexDir string) *Store {
	return &Store{
		uploadDir: uploadDir,
		indexDir:  indexDir,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

// GetOrCreate returns id after validating it, or a new generated id when id
// is empty.
func (s *Store) GetOrCreate(id string) (string, error) {
	if id == "" {
		id = NewID(s.now())
	} else if err := ValidateID(id); err != nil {
		return "", err
	}
	s.get(id)
	return id, nil
}

// NewID generates session_<YYYYMMDD_HHMMSS UTC>_<8 hex>.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("session_%s_%s", now.UTC().Format("20060102_150405"), suffix)
}

// ValidateID rejects ids that are not safe as a single path element.
func ValidateID(id string) error {
	switch {
	case id == "":
		return domain.Wrap(domain.ErrValidation, nil, "session id is empty")
	case len(id) > maxIDLength:
		return domain.Wrap(domain.ErrValidation, nil, "session id longer than %d characters", maxIDLength)
	case !idPattern.MatchString(id):
		return domain.Wrap(domain.ErrValidation, nil, "session id %q may contain only letters, digits, '_', '.' and '-'", id)
	case strings.Contains(id, ".."), id == ".":
		return domain.Wrap(domain.ErrValidation, nil, "session id %q is not a valid path element", id)
	}
	return nil
}

// ResolvePaths returns the temp and index directories of a session.
func (s *Store) ResolvePaths(id string) (Paths, error) {
	if err := ValidateID(id); err != nil {
		return Paths{}, err
	}
	return Paths{
		TempDir:  filepath.Join(s.uploadDir, id),
		IndexDir: filepath.Join(s.indexDir, id),
	}, nil
}

func (s *Store) get(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{}
		s.sessions[id] = sess
	}
	return sess
}

// History returns a copy of the session history.
func (s *Store) History(id string) []Turn {
	sess := s.get(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn{}, sess.history...)
}

// Append adds a turn to the session history.
func (s *Store) Append(id string, role Role, text string) {
	sess := s.get(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.history = append(sess.history, Turn{Role: role, Text: text})
}

// LockIngest takes the session exclusively and returns the unlock func.
func (s *Store) LockIngest(id string) func() {
	sess := s.get(id)
	sess.mu.Lock()
	return sess.mu.Unlock
}

// LockQuery takes the session shared with other queries and returns the
// unlock func.
func (s *Store) LockQuery(id string) func() {
	sess := s.get(id)
	sess.mu.RLock()
	return sess.mu.RUnlock
}

// SetRetriever caches a loaded retriever for the session.
func (s *Store) SetRetriever(id string, r *index.Retriever) {
	sess := s.get(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.retriever = r
}

// Retriever returns the cached retriever of the session, or nil.
func (s *Store) Retriever(id string) *index.Retriever {
	sess := s.get(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	return sess.retriever
}
