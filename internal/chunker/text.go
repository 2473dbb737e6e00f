package chunker

import (
	"docportal/internal/domain"
)

// TextChunker splits plain text by size with a fixed overlap.
type TextChunker struct {
	config Config
}

// NewTextChunker validates config and returns a size-based chunker.
func NewTextChunker(config Config) (*TextChunker, error) {
	if config.MaxChunkSize <= 0 {
		return nil, domain.Wrap(domain.ErrValidation, nil, "chunk size must be positive, got %d", config.MaxChunkSize)
	}
	if config.Overlap < 0 || config.Overlap >= config.MaxChunkSize {
		return nil, domain.Wrap(domain.ErrValidation, nil,
			"chunk overlap must be in [0, %d), got %d", config.MaxChunkSize, config.Overlap)
	}
	return &TextChunker{config: config}, nil
}

func (s *TextChunker) Name() string {
	return "text"
}

// Config returns the chunking parameters.
func (s *TextChunker) Config() Config {
	return s.config
}

// Chunk splits content greedily by characters. Text is kept verbatim so
// consecutive chunks share exactly Overlap characters.
func (s *TextChunker) Chunk(documentID, source, content string) ([]Chunk, error) {
	runes := []rune(content)
	spans := Split(len(runes), s.config.MaxChunkSize, s.config.Overlap)

	chunks := make([]Chunk, 0, len(spans))
	for i, span := range spans {
		chunks = append(chunks, CreateChunk(documentID, source, i, runes, span))
	}
	return chunks, nil
}
