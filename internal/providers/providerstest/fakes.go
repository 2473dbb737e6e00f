// Package providerstest holds deterministic stand-ins for embedding and chat
// providers.
package providerstest

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// HashEmbedder embeds text as a bag of hashed lowercase words, so texts
// sharing words are close in cosine space.
type HashEmbedder struct {
	Dim int
	Err error

	mu    sync.Mutex
	calls int
}

func NewHashEmbedder(dim int) *HashEmbedder {
	return &HashEmbedder{Dim: dim}
}

func (e *HashEmbedder) Model() string { return "hash" }

// Calls reports how many EmbedBatch calls were made.
func (e *HashEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.Err != nil {
		return nil, e.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = e.Vector(text)
	}
	return result, nil
}

// Vector returns the embedding of a single text.
func (e *HashEmbedder) Vector(text string) []float32 {
	vec := make([]float32, e.Dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[int(h.Sum32())%e.Dim] += 1
	}
	// keep empty texts off the zero vector
	vec[0] += 0.01
	return vec
}

// Reply is one scripted chat model response.
type Reply struct {
	Content string
	Err     error
}

// ScriptedChatModel answers Generate calls with scripted replies in order and
// records every request. When the script runs out the last reply repeats.
type ScriptedChatModel struct {
	mu       sync.Mutex
	replies  []Reply
	requests [][]*schema.Message
}

func NewScriptedChatModel(replies ...Reply) *ScriptedChatModel {
	return &ScriptedChatModel{replies: replies}
}

// Text is a shorthand for scripting successful replies.
func Text(contents ...string) []Reply {
	replies := make([]Reply, len(contents))
	for i, c := range contents {
		replies[i] = Reply{Content: c}
	}
	return replies
}

func (m *ScriptedChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, input)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.replies) == 0 {
		return nil, errors.New("no scripted replies")
	}

	reply := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return schema.AssistantMessage(reply.Content, nil), nil
}

// Requests returns the message lists passed to Generate so far.
func (m *ScriptedChatModel) Requests() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*schema.Message(nil), m.requests...)
}

// LastPrompt returns the content of the last message of the n-th request.
func (m *ScriptedChatModel) LastPrompt(n int) string {
	reqs := m.Requests()
	if n >= len(reqs) || len(reqs[n]) == 0 {
		return ""
	}
	msgs := reqs[n]
	return msgs[len(msgs)-1].Content
}
