package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/philippgille/chromem-go"

	"docportal/internal/domain"
)

const (
	DBFile       = "index.gob.gz"
	ManifestFile = "manifest.json"
)

// Manifest describes a persisted index.
type Manifest struct {
	Dimension      int       `json:"dimension"`
	ChunkCount     int       `json:"chunk_count"`
	EmbeddingModel string    `json:"embedding_model"`
	SessionID      string    `json:"session_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Persist writes the index into dir, creating it if needed.
func (idx *Index) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index dir %s: %w", dir, err)
	}

	if err := idx.db.ExportToFile(filepath.Join(dir, DBFile), true, "", collectionName); err != nil {
		return fmt.Errorf("failed to export index: %w", err)
	}

	// manifest goes last so a partial write is not loadable
	return saveManifest(filepath.Join(dir, ManifestFile), idx.manifest)
}

// Load reads an index written by Persist. A directory without a complete,
// readable index yields ErrIndexNotFound.
func Load(dir string) (*Index, error) {
	manifestPath := filepath.Join(dir, ManifestFile)
	dbPath := filepath.Join(dir, DBFile)

	for _, path := range []string{dir, manifestPath, dbPath} {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, domain.Wrap(domain.ErrIndexNotFound, nil, "%s does not exist", path)
			}
			return nil, domain.Wrap(domain.ErrIndexNotFound, err, "stat %s", path)
		}
	}

	manifest, err := loadManifest(manifestPath)
	if err != nil {
		return nil, domain.Wrap(domain.ErrIndexNotFound, err, "read manifest in %s", dir)
	}
	if manifest.Dimension <= 0 {
		return nil, domain.Wrap(domain.ErrIndexNotFound, nil, "manifest in %s has no dimension", dir)
	}

	db := chromem.NewDB()
	if err := db.ImportFromFile(dbPath, "", collectionName); err != nil {
		return nil, domain.Wrap(domain.ErrIndexNotFound, err, "import %s", dbPath)
	}
	coll := db.GetCollection(collectionName, noEmbedding)
	if coll == nil {
		return nil, domain.Wrap(domain.ErrIndexNotFound, nil, "collection %q missing in %s", collectionName, dbPath)
	}
	if coll.Count() != manifest.ChunkCount {
		return nil, domain.Wrap(domain.ErrIndexNotFound, nil, "%s holds %d chunks, manifest says %d", dbPath, coll.Count(), manifest.ChunkCount)
	}

	return &Index{db: db, coll: coll, manifest: manifest}, nil
}

// Exists reports whether dir holds a persisted index.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ManifestFile))
	return err == nil
}

func saveManifest(path string, m Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

func loadManifest(path string) (Manifest, error) {
	var m Manifest
	f, err := os.Open(path)
	if err != nil {
		return m, err
	}
	defer f.Close()

	err = json.NewDecoder(f).Decode(&m)
	return m, err
}
