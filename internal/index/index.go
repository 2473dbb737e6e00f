// Package index stores chunk vectors of one session in a chromem collection
// and persists them next to a manifest describing the index.
package index

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"time"

	"github.com/philippgille/chromem-go"

	"docportal/internal/chunker"
	"docportal/internal/domain"
)

const collectionName = "docs"

const (
	metaPosition   = "position"
	metaChunkID    = "chunk_id"
	metaDocumentID = "document_id"
	metaSource     = "source"
	metaOrdinal    = "ordinal"
	metaStart      = "start"
	metaEnd        = "end"
	metaHash       = "hash"
)

// Options describe the index being built.
type Options struct {
	// Dimension is the expected vector length. Zero infers it from the first vector.
	Dimension      int
	EmbeddingModel string
	SessionID      string
}

// Hit is one search result.
type Hit struct {
	Chunk chunker.Chunk
	Score float32
}

// Index is an immutable set of (chunk, vector) pairs.
type Index struct {
	db       *chromem.DB
	coll     *chromem.Collection
	manifest Manifest
}

// errNoEmbedding is returned by the collection embedding func: every vector
// is supplied by the caller, so the collection never embeds text itself.
var errNoEmbedding = errors.New("index does not embed text, pass vectors")

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedding
}

// Build creates an index from chunks and their vectors, bound 1:1 by position.
func Build(ctx context.Context, chunks []chunker.Chunk, vectors [][]float32, opts Options) (*Index, error) {
	if len(chunks) == 0 {
		return nil, domain.Wrap(domain.ErrValidation, nil, "build index: no chunks")
	}
	if len(chunks) != len(vectors) {
		return nil, domain.Wrap(domain.ErrValidation, nil, "build index: %d chunks but %d vectors", len(chunks), len(vectors))
	}

	dim := opts.Dimension
	if dim == 0 {
		dim = len(vectors[0])
	}
	if dim == 0 {
		return nil, domain.Wrap(domain.ErrValidation, nil, "build index: empty vector")
	}

	docs := make([]chromem.Document, len(chunks))
	for i, ch := range chunks {
		if len(vectors[i]) != dim {
			return nil, &domain.DimensionMismatchError{Want: dim, Got: len(vectors[i])}
		}
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(i),
			Metadata:  chunkMetadata(i, ch),
			Embedding: append([]float32(nil), vectors[i]...),
			Content:   ch.Text,
		}
	}

	db := chromem.NewDB()
	coll, err := db.CreateCollection(collectionName, nil, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("failed to add documents: %w", err)
	}

	return &Index{
		db:   db,
		coll: coll,
		manifest: Manifest{
			Dimension:      dim,
			ChunkCount:     len(chunks),
			EmbeddingModel: opts.EmbeddingModel,
			SessionID:      opts.SessionID,
			CreatedAt:      time.Now().UTC(),
		},
	}, nil
}

// Len returns the number of chunks in the index.
func (idx *Index) Len() int { return idx.coll.Count() }

// Dimension returns the vector length the index accepts.
func (idx *Index) Dimension() int { return idx.manifest.Dimension }

func (idx *Index) Manifest() Manifest { return idx.manifest }

// Search returns the k chunks most similar to query by cosine similarity,
// highest first. Equal scores keep the order the chunks were built in.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, domain.Wrap(domain.ErrValidation, nil, "search: k must be positive, got %d", k)
	}
	if len(query) != idx.manifest.Dimension {
		return nil, &domain.DimensionMismatchError{Want: idx.manifest.Dimension, Got: len(query)}
	}

	n := idx.coll.Count()
	if n == 0 {
		return nil, nil
	}

	// chromem orders ties arbitrarily, so rank the whole collection here
	results, err := idx.coll.QueryEmbedding(ctx, append([]float32(nil), query...), n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	hits := make([]hitAt, 0, len(results))
	for _, r := range results {
		h, err := resultHit(r)
		if err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].position < hits[j].position
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]Hit, len(hits))
	for i, h := range hits {
		out[i] = h.Hit
	}
	return out, nil
}

type hitAt struct {
	Hit
	position int
}

func chunkMetadata(position int, ch chunker.Chunk) map[string]string {
	return map[string]string{
		metaPosition:   strconv.Itoa(position),
		metaChunkID:    ch.ID,
		metaDocumentID: ch.DocumentID,
		metaSource:     ch.Source,
		metaOrdinal:    strconv.Itoa(ch.Ordinal),
		metaStart:      strconv.Itoa(ch.Start),
		metaEnd:        strconv.Itoa(ch.End),
		metaHash:       ch.Hash,
	}
}

func resultHit(r chromem.Result) (hitAt, error) {
	ints := make(map[string]int, 4)
	for _, key := range []string{metaPosition, metaOrdinal, metaStart, metaEnd} {
		v, err := strconv.Atoi(r.Metadata[key])
		if err != nil {
			return hitAt{}, fmt.Errorf("document %s: bad %s metadata %q: %w", r.ID, key, r.Metadata[key], err)
		}
		ints[key] = v
	}

	return hitAt{
		Hit: Hit{
			Chunk: chunker.Chunk{
				ID:         r.Metadata[metaChunkID],
				DocumentID: r.Metadata[metaDocumentID],
				Source:     r.Metadata[metaSource],
				Ordinal:    ints[metaOrdinal],
				Text:       r.Content,
				Start:      ints[metaStart],
				End:        ints[metaEnd],
				Hash:       r.Metadata[metaHash],
			},
			Score: r.Similarity,
		},
		position: ints[metaPosition],
	}, nil
}

// Retriever is a ready-to-query index with its default search parameters.
type Retriever struct {
	SessionID string
	Index     *Index
	TopK      int
}

// Retrieve returns the TopK passages nearest to query.
func (r *Retriever) Retrieve(ctx context.Context, query []float32) ([]Hit, error) {
	return r.Index.Search(ctx, query, r.TopK)
}
