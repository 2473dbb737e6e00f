package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal/internal/config"
	"docportal/internal/domain"
	"docportal/internal/logging"
	"docportal/internal/providers/providerstest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	return &config.Config{
		UploadDir:      filepath.Join(base, "uploads"),
		IndexDir:       filepath.Join(base, "index"),
		CompareDir:     filepath.Join(base, "compare"),
		LLMProvider:    config.ProviderOpenAI,
		ChunkSize:      200,
		ChunkOverlap:   50,
		TopK:           5,
		HistoryTurns:   10,
		EmbedBatchSize: 16,
		Models:         *config.DefaultCatalog(),
	}
}

func newTestApp(t *testing.T, replies ...string) (*App, *providerstest.ScriptedChatModel) {
	t.Helper()
	model := providerstest.NewScriptedChatModel(providerstest.Text(replies...)...)
	a, err := NewWithProviders(testConfig(t), logging.Discard(), providerstest.NewHashEmbedder(32), model)
	require.NoError(t, err)
	return a, model
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestApp_IngestAndAsk(t *testing.T) {
	a, _ := newTestApp(t, "Acme Corp.")
	doc := writeDoc(t, "contract.txt", "The vendor is Acme Corp.")

	id, r, err := a.Ingest(context.Background(), "", []string{doc})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "session_"))
	assert.Equal(t, 1, r.Index.Len())

	ans, err := a.Ask(context.Background(), id, "Who is the vendor?")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp.", ans.Text)
	require.Len(t, ans.Passages, 1)
}

func TestApp_SessionsAreIsolated(t *testing.T) {
	a, _ := newTestApp(t, "answer")
	_, _, err := a.Ingest(context.Background(), "alpha", []string{writeDoc(t, "a.txt", "alpha document")})
	require.NoError(t, err)

	_, err = a.Ask(context.Background(), "beta", "what is in alpha?")
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestApp_Run(t *testing.T) {
	a, _ := newTestApp(t, "The vendor is Acme Corp.")
	doc := writeDoc(t, "contract.txt", "The vendor is Acme Corp.")

	in := strings.NewReader("Who is the vendor?\n\n" + doc + "\nWho is the vendor?\n")
	var out bytes.Buffer
	require.NoError(t, a.Run(context.Background(), in, &out, "s1"))

	text := out.String()
	assert.Contains(t, text, "Session: s1")
	assert.Contains(t, text, "No documents in this session yet")
	assert.Contains(t, text, "Indexed "+doc+": 1 chunks")
	assert.Contains(t, text, "The vendor is Acme Corp.")
	assert.Contains(t, text, "1. contract.txt")
}

func TestApp_RunCancelled(t *testing.T) {
	a, _ := newTestApp(t, "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	require.NoError(t, a.Run(ctx, strings.NewReader("question\n"), &out, "s1"))
	assert.NotContains(t, out.String(), "Error")
}

func TestApp_RunRejectsUnsafeSession(t *testing.T) {
	a, _ := newTestApp(t, "x")
	err := a.Run(context.Background(), strings.NewReader(""), &bytes.Buffer{}, "../etc")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestApp_CompareRejectsNonPDF(t *testing.T) {
	a, _ := newTestApp(t, "[]")
	_, err := a.Compare(context.Background(), "s1", writeDoc(t, "a.txt", "x"), writeDoc(t, "b.pdf", "y"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
