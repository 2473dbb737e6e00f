package chunker

import (
	"crypto/sha256"
	"fmt"
)

// Span is a half-open rune range [Start, End).
type Span struct {
	Start int
	End   int
}

// Split computes greedy chunk boundaries over n characters. Each span holds
// size characters (the last one may hold fewer) and starts overlap characters
// before the end of the previous span. Zero-length spans are never produced.
func Split(n, size, overlap int) []Span {
	if n <= 0 || size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var spans []Span
	step := size - overlap
	for start := 0; start < n; start += step {
		end := start + size
		if end > n {
			end = n
		}
		spans = append(spans, Span{Start: start, End: end})
		if end >= n {
			break
		}
	}
	return spans
}

// CreateChunk builds a chunk for the given span of runes.
func CreateChunk(documentID, source string, ordinal int, runes []rune, span Span) Chunk {
	text := string(runes[span.Start:span.End])
	hash := sha256.Sum256([]byte(text))

	return Chunk{
		ID:         fmt.Sprintf("%s-%d", documentID, ordinal),
		DocumentID: documentID,
		Source:     source,
		Ordinal:    ordinal,
		Text:       text,
		Start:      span.Start,
		End:        span.End,
		Hash:       fmt.Sprintf("%x", hash[:8]),
	}
}
