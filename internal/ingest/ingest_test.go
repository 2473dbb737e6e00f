package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal/internal/chunker"
	"docportal/internal/domain"
	"docportal/internal/extract"
	"docportal/internal/index"
	"docportal/internal/logging"
	"docportal/internal/providers/providerstest"
	"docportal/internal/session"
)

type fixture struct {
	store    *session.Store
	embedder *providerstest.HashEmbedder
	ingestor *Ingestor
}

func newFixture(t *testing.T, size, overlap int) *fixture {
	t.Helper()
	base := t.TempDir()
	store := session.NewStore(filepath.Join(base, "uploads"), filepath.Join(base, "index"))
	ch, err := chunker.NewTextChunker(chunker.Config{MaxChunkSize: size, Overlap: overlap})
	require.NoError(t, err)
	emb := providerstest.NewHashEmbedder(32)

	return &fixture{
		store:    store,
		embedder: emb,
		ingestor: New(Config{TopK: 5, BatchSize: 4}, store, extract.DefaultRegistry(), ch, emb, logging.Discard()),
	}
}

func TestIngest_ShortDocumentSingleChunk(t *testing.T) {
	f := newFixture(t, 1000, 300)
	doc := "Page 1\nThis agreement is between Acme Corp and Buyer Inc.\nPage 2\nPayment within 30 days.\nPage 3\nTermination requires notice."

	r, err := f.ingestor.Ingest(context.Background(), "s1", []Upload{MemoryUpload{Filename: "contract.txt", Data: []byte(doc)}})
	require.NoError(t, err)

	assert.Equal(t, "s1", r.SessionID)
	assert.Equal(t, 5, r.TopK)
	assert.Equal(t, 1, r.Index.Len())

	for _, q := range []string{"who pays", "termination", "unrelated words entirely"} {
		hits, err := r.Retrieve(context.Background(), f.embedder.Vector(q))
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, doc, hits[0].Chunk.Text)
		assert.Equal(t, "contract.txt", hits[0].Chunk.Source)
	}

	assert.Same(t, r, f.store.Retriever("s1"))
}

func TestIngest_PersistsUnderSessionPaths(t *testing.T) {
	f := newFixture(t, 50, 10)
	_, err := f.ingestor.Ingest(context.Background(), "s1", []Upload{MemoryUpload{Filename: "a.md", Data: []byte("# Title\n\nSome body text.")}})
	require.NoError(t, err)

	paths, err := f.store.ResolvePaths("s1")
	require.NoError(t, err)

	entries, err := os.ReadDir(paths.TempDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^[0-9a-f]{8}\.md$`, entries[0].Name())

	idx, err := index.Load(paths.IndexDir)
	require.NoError(t, err)
	assert.Equal(t, "s1", idx.Manifest().SessionID)
	assert.Equal(t, "hash", idx.Manifest().EmbeddingModel)
}

func TestIngest_Idempotent(t *testing.T) {
	f := newFixture(t, 40, 10)
	uploads := []Upload{
		MemoryUpload{Filename: "a.txt", Data: []byte(strings.Repeat("The vendor shall deliver goods. ", 10))},
		MemoryUpload{Filename: "b.txt", Data: []byte(strings.Repeat("Payment is due monthly. ", 8))},
	}

	first, err := f.ingestor.Ingest(context.Background(), "s1", uploads)
	require.NoError(t, err)
	second, err := f.ingestor.Ingest(context.Background(), "s1", uploads)
	require.NoError(t, err)

	require.Equal(t, first.Index.Len(), second.Index.Len())

	q := f.embedder.Vector("vendor goods payment")
	h1, err := first.Index.Search(context.Background(), q, first.Index.Len())
	require.NoError(t, err)
	h2, err := second.Index.Search(context.Background(), q, second.Index.Len())
	require.NoError(t, err)
	require.Len(t, h2, len(h1))
	for i := range h1 {
		assert.Equal(t, h1[i].Chunk.Text, h2[i].Chunk.Text)
		assert.Equal(t, h1[i].Chunk.Ordinal, h2[i].Chunk.Ordinal)
		assert.Equal(t, h1[i].Score, h2[i].Score)
	}

	paths, err := f.store.ResolvePaths("s1")
	require.NoError(t, err)
	entries, err := os.ReadDir(paths.TempDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestIngest_SkipsUnsupported(t *testing.T) {
	f := newFixture(t, 100, 10)

	r, err := f.ingestor.Ingest(context.Background(), "s1", []Upload{
		MemoryUpload{Filename: "photo.png", Data: []byte{1, 2, 3}},
		MemoryUpload{Filename: "notes.txt", Data: []byte("vendor is Acme")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Index.Len())
}

func TestIngest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		uploads []Upload
		wantErr error
	}{
		{"no uploads", "s1", nil, domain.ErrValidation},
		{"only unsupported", "s1", []Upload{MemoryUpload{Filename: "a.exe", Data: []byte("x")}}, domain.ErrValidation},
		{"no text", "s1", []Upload{MemoryUpload{Filename: "a.txt", Data: []byte(" \n\t ")}}, domain.ErrEmptyIngestion},
		{"encrypted", "s1", []Upload{
			MemoryUpload{Filename: "ok.txt", Data: []byte("fine")},
			MemoryUpload{Filename: "locked.docx", Data: append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 64)...)},
		}, domain.ErrEncryptedDocument},
		{"unsafe session id", "../escape", []Upload{MemoryUpload{Filename: "a.txt", Data: []byte("x")}}, domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 100, 10)
			_, err := f.ingestor.Ingest(context.Background(), tt.id, tt.uploads)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, f.store.Retriever(tt.id))
		})
	}
}

func TestIngest_EmbedderFailure(t *testing.T) {
	f := newFixture(t, 100, 10)
	f.embedder.Err = domain.Wrap(domain.ErrProvider, errors.New("quota"), "embed")

	_, err := f.ingestor.Ingest(context.Background(), "s1", []Upload{MemoryUpload{Filename: "a.txt", Data: []byte("text")}})
	assert.ErrorIs(t, err, domain.ErrProvider)

	paths, err := f.store.ResolvePaths("s1")
	require.NoError(t, err)
	assert.False(t, index.Exists(paths.IndexDir))
}

func TestIngest_Batches(t *testing.T) {
	f := newFixture(t, 10, 2)

	r, err := f.ingestor.Ingest(context.Background(), "s1", []Upload{MemoryUpload{Filename: "a.txt", Data: []byte(strings.Repeat("x", 85))}})
	require.NoError(t, err)

	// 85 runes, step 8 -> 11 chunks -> 3 batches of at most 4
	assert.Equal(t, 11, r.Index.Len())
	assert.Equal(t, 3, f.embedder.Calls())
}

func TestIngest_DimensionMismatch(t *testing.T) {
	f := newFixture(t, 100, 10)
	f.ingestor.cfg.Dimension = 16

	_, err := f.ingestor.Ingest(context.Background(), "s1", []Upload{MemoryUpload{Filename: "a.txt", Data: []byte("text")}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestFileUploads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	uploads := FileUploads(path)
	require.Len(t, uploads, 1)
	assert.Equal(t, "doc.txt", uploads[0].Name())
	data, err := uploads[0].Read()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}
