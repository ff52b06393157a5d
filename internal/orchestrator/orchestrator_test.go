package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragtimehq/ragtime/internal/ai"
	"github.com/ragtimehq/ragtime/internal/model"
	"github.com/ragtimehq/ragtime/internal/sanitize"
)

type stubBackend struct {
	parts    []string
	err      *ai.BackendError
	lastSent []model.Message
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) ListModels(ctx context.Context) []string { return []string{"stub-model"} }

func (s *stubBackend) Chat(ctx context.Context, modelName string, messages []model.Message) (string, error) {
	s.lastSent = messages
	if s.err != nil {
		return "", s.err
	}
	return strings.Join(s.parts, ""), nil
}

func (s *stubBackend) ChatStream(ctx context.Context, modelName string, messages []model.Message) <-chan ai.Fragment {
	s.lastSent = messages
	ch := make(chan ai.Fragment, len(s.parts)+1)
	for _, p := range s.parts {
		ch <- ai.Fragment{Text: p}
	}
	if s.err != nil {
		ch <- ai.Fragment{Err: s.err}
	}
	close(ch)
	return ch
}

type stubRetriever struct {
	results []model.RetrievalResult
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, k int) []model.RetrievalResult {
	return s.results
}

type stubTools struct {
	block string
}

func (s *stubTools) GatherContext(ctx context.Context, query string) string { return s.block }

type memStore struct {
	turns []model.Turn
}

func (m *memStore) Append(ctx context.Context, role, content string) (int64, error) {
	m.turns = append(m.turns, model.Turn{ID: int64(len(m.turns) + 1), Role: role, Content: content})
	return int64(len(m.turns)), nil
}

func (m *memStore) Recent(ctx context.Context, limit int) ([]model.Turn, error) {
	return m.turns, nil
}

func TestReplyStreamMatchesFullReply(t *testing.T) {
	backend := &stubBackend{parts: []string{"Hello", ", ", "world."}}
	o := New(Options{Backend: backend, ModelName: "stub-model"})

	ch, err := o.Reply(context.Background(), nil, "hi")
	require.NoError(t, err)
	text, berr := ai.Collect(ch)
	require.Nil(t, berr)
	require.Equal(t, "Hello, world.", text)
}

func TestReplyCitationSuffixOnRetrieval(t *testing.T) {
	backend := &stubBackend{parts: []string{"It is a framework."}}
	retriever := &stubRetriever{results: []model.RetrievalResult{
		{Filename: "guide.md", Snippet: "a framework", Similarity: 0.9},
		{Filename: "notes.txt", Snippet: "more", Similarity: 0.8},
		{Filename: "guide.md", Snippet: "again", Similarity: 0.7},
	}}
	store := &memStore{}
	o := New(Options{Backend: backend, ModelName: "stub-model", Retriever: retriever, Store: store})

	text, err := o.ReplyOnce(context.Background(), nil, "what is gin?")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(text, "Sources: guide.md, notes.txt"))

	// Retrieval context travels as a system message, never as reply text.
	var sawDocContext bool
	for _, m := range backend.lastSent {
		if m.Role == model.RoleSystem && strings.Contains(m.Content, "guide.md") {
			sawDocContext = true
		}
	}
	require.True(t, sawDocContext)

	// Both sides of the turn are persisted, assistant last.
	require.Len(t, store.turns, 2)
	require.Equal(t, model.RoleUser, store.turns[0].Role)
	require.Equal(t, model.RoleAssistant, store.turns[1].Role)
	require.Equal(t, text, store.turns[1].Content)
}

func TestReplyNoSuffixWithoutRetrieval(t *testing.T) {
	backend := &stubBackend{parts: []string{"Just chatting."}}
	o := New(Options{Backend: backend, ModelName: "stub-model", Retriever: &stubRetriever{}})

	text, err := o.ReplyOnce(context.Background(), nil, "hello")
	require.NoError(t, err)
	require.Equal(t, "Just chatting.", text)
	require.NotContains(t, text, "Sources:")
}

func TestReplyToolContextPrepended(t *testing.T) {
	backend := &stubBackend{parts: []string{"ok"}}
	tools := &stubTools{block: "MCP resources:\n- calendar: today is 2026-08-29"}
	o := New(Options{Backend: backend, ModelName: "stub-model", Tools: tools})

	_, err := o.ReplyOnce(context.Background(), nil, "what day is it?")
	require.NoError(t, err)
	require.NotEmpty(t, backend.lastSent)
	require.Equal(t, model.RoleSystem, backend.lastSent[0].Role)
	require.Contains(t, backend.lastSent[0].Content, "calendar")
}

func TestReplyRejectsBlankInput(t *testing.T) {
	o := New(Options{Backend: &stubBackend{}, ModelName: "stub-model"})
	_, err := o.Reply(context.Background(), nil, "   ")
	require.Error(t, err)
}

func TestBackendErrorPersistedMarkedAndStrippedNextTurn(t *testing.T) {
	store := &memStore{}
	backend := &stubBackend{err: &ai.BackendError{Kind: ai.ErrKindUnreachable, Detail: "connection refused"}}
	o := New(Options{Backend: backend, ModelName: "stub-model", Store: store})

	ch, err := o.Reply(context.Background(), nil, "hi")
	require.NoError(t, err)
	_, berr := ai.Collect(ch)
	require.NotNil(t, berr)
	require.Equal(t, ai.ErrKindUnreachable, berr.Kind)

	require.Len(t, store.turns, 2)
	require.True(t, strings.HasPrefix(store.turns[1].Content, sanitize.BackendErrorMarker))

	// The marked reply never reaches the backend on the next turn.
	backend.err = nil
	backend.parts = []string{"recovered"}
	transcript, err := o.Transcript(context.Background(), 50)
	require.NoError(t, err)
	_, err = o.ReplyOnce(context.Background(), transcript, "again")
	require.NoError(t, err)
	for _, m := range backend.lastSent {
		require.NotContains(t, m.Content, sanitize.BackendErrorMarker)
	}
}

func TestReplyCanceledContextClosesStream(t *testing.T) {
	backend := &stubBackend{parts: []string{"partial"}}
	store := &memStore{}
	o := New(Options{Backend: backend, ModelName: "stub-model", Store: store})

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := o.Reply(ctx, nil, "hi")
	require.NoError(t, err)
	cancel()
	for range ch { //nolint:revive // drain until close
	}
	// The user turn is persisted before streaming starts; abandonment must
	// not leave an empty assistant turn behind.
	require.NotEmpty(t, store.turns)
	require.Equal(t, model.RoleUser, store.turns[0].Role)
	for _, turn := range store.turns {
		require.NotEmpty(t, turn.Content)
	}
}

func TestSetModelIgnoresBlank(t *testing.T) {
	o := New(Options{Backend: &stubBackend{}, ModelName: "a"})
	o.SetModel("  ")
	require.Equal(t, "a", o.currentModel())
	o.SetModel("b")
	require.Equal(t, "b", o.currentModel())
}

// recordingBackend captures the model name of every call so concurrent model
// switches can be checked against the values actually sent to the backend.
type recordingBackend struct {
	mu     sync.Mutex
	models []string
}

func (r *recordingBackend) Name() string { return "recording" }

func (r *recordingBackend) ListModels(ctx context.Context) []string { return nil }

func (r *recordingBackend) Chat(ctx context.Context, modelName string, messages []model.Message) (string, error) {
	r.record(modelName)
	return "ok", nil
}

func (r *recordingBackend) ChatStream(ctx context.Context, modelName string, messages []model.Message) <-chan ai.Fragment {
	r.record(modelName)
	ch := make(chan ai.Fragment, 1)
	ch <- ai.Fragment{Text: "ok"}
	close(ch)
	return ch
}

func (r *recordingBackend) record(modelName string) {
	r.mu.Lock()
	r.models = append(r.models, modelName)
	r.mu.Unlock()
}

func TestSetModelConcurrentWithTurns(t *testing.T) {
	backend := &recordingBackend{}
	o := New(Options{Backend: backend, ModelName: "model-0"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		name := fmt.Sprintf("model-%d", i)
		go func() {
			defer wg.Done()
			o.SetModel(name)
		}()
		go func() {
			defer wg.Done()
			_, err := o.ReplyOnce(context.Background(), nil, "hi")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	// Each turn must see a complete model name that was set at some point,
	// never a torn or empty value.
	valid := map[string]bool{"model-0": true}
	for i := 0; i < 8; i++ {
		valid[fmt.Sprintf("model-%d", i)] = true
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.models, 8)
	for _, m := range backend.models {
		require.True(t, valid[m], "unexpected model %q", m)
	}
}
