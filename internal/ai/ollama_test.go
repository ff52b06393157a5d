package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ragtimehq/ragtime/internal/model"
)

func newOllamaStub(t *testing.T, full string, parts []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			fmt.Fprint(w, `{"models":[{"name":"llama3.1:8b"},{"name":"nomic-embed-text"},{"name":"mxbai-embed-large"},{"name":"qwen2.5:7b"}]}`)
		case "/api/chat":
			var req ollamaChatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if !req.Stream {
				fmt.Fprintf(w, `{"message":{"content":%q},"done":true}`, full)
				return
			}
			flusher := w.(http.Flusher)
			for _, part := range parts {
				fmt.Fprintf(w, `{"message":{"content":%q},"done":false}`+"\n", part)
				flusher.Flush()
			}
			fmt.Fprint(w, `{"message":{"content":""},"done":true}`+"\n")
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestOllamaStreamingEquivalence(t *testing.T) {
	full := "hello streamed world"
	srv := newOllamaStub(t, full, []string{"hello ", "streamed ", "world"})
	defer srv.Close()

	p, err := NewChatProvider("ollama", map[string]string{"base_url": srv.URL})
	require.NoError(t, err)

	msgs := []model.Message{{Role: model.RoleUser, Content: "hi"}}

	direct, err := p.Chat(context.Background(), "llama3.1:8b", msgs)
	require.NoError(t, err)

	streamed, berr := Collect(p.ChatStream(context.Background(), "llama3.1:8b", msgs))
	require.Nil(t, berr)
	require.Equal(t, direct, streamed)
}

func TestOllamaListModels_FiltersEmbedModels(t *testing.T) {
	srv := newOllamaStub(t, "", nil)
	defer srv.Close()

	p, err := NewChatProvider("ollama", map[string]string{"base_url": srv.URL})
	require.NoError(t, err)

	models := p.ListModels(context.Background())
	require.Equal(t, []string{"llama3.1:8b", "qwen2.5:7b"}, models)
}

func TestOllamaListModels_FallbackOnFailure(t *testing.T) {
	p, err := NewChatProvider("ollama", map[string]string{"base_url": "http://127.0.0.1:1"})
	require.NoError(t, err)

	models := p.ListModels(context.Background())
	require.Equal(t, []string{defaultOllamaModel}, models)
}

func TestOllamaChatStream_UnreachableYieldsErrorFragment(t *testing.T) {
	p, err := NewChatProvider("ollama", map[string]string{"base_url": "http://127.0.0.1:1"})
	require.NoError(t, err)

	text, berr := Collect(p.ChatStream(context.Background(), "llama3.1:8b", []model.Message{{Role: model.RoleUser, Content: "hi"}}))
	require.Empty(t, text)
	require.NotNil(t, berr)
	require.Equal(t, ErrKindUnreachable, berr.Kind)
}

// An abandoned turn must terminate the producer goroutine: once the caller
// stops reading and cancels, the stream has to close instead of blocking
// forever on a full buffer.
func TestOllamaChatStream_AbandonedTurnClosesStream(t *testing.T) {
	parts := make([]string, 100)
	for i := range parts {
		parts[i] = fmt.Sprintf("fragment-%d ", i)
	}
	srv := newOllamaStub(t, "", parts)
	defer srv.Close()

	p, err := NewChatProvider("ollama", map[string]string{"base_url": srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ch := p.ChatStream(ctx, "llama3.1:8b", []model.Message{{Role: model.RoleUser, Content: "hi"}})

	// Read a single fragment, then walk away from the turn.
	first, ok := <-ch
	require.True(t, ok)
	require.Nil(t, first.Err)
	cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, open := <-ch:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("stream still open after the turn was abandoned")
		}
	}
}
