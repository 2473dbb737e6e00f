package chunker

// Chunk is a contiguous span of one document, the unit of embedding and retrieval.
type Chunk struct {
	ID         string // <document id>-<ordinal>
	DocumentID string // id of the source document
	Source     string // original file name
	Ordinal    int    // position within the document, 0-based
	Text       string
	Start      int    // rune offset of the first character
	End        int    // rune offset one past the last character
	Hash       string // short content hash
}

// Len returns the chunk length in characters.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// Chunker splits document text into chunks.
type Chunker interface {
	// Chunk splits content of the document documentID into chunks
	Chunk(documentID, source, content string) ([]Chunk, error)

	// Name returns the chunker name for logging
	Name() string
}

// Config holds chunk size and overlap, both in characters.
type Config struct {
	MaxChunkSize int
	Overlap      int
}

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 300
)

// DefaultConfig returns the default chunking parameters.
func DefaultConfig() Config {
	return Config{MaxChunkSize: DefaultChunkSize, Overlap: DefaultChunkOverlap}
}
