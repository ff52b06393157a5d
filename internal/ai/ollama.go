package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ragtimehq/ragtime/internal/model"
	apperrors "github.com/ragtimehq/ragtime/internal/pkg/errors"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "llama3.1:8b"
)

type ollamaConfig struct {
	BaseURL string `json:"base_url"`
}

type ollamaProvider struct {
	baseURL string
	client  *http.Client
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []model.Message `json:"messages"`
	Stream   bool            `json:"stream"`
}

// ollamaChatResponse is both the single non-streaming response object and
// one newline-delimited streaming line.
type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (p *ollamaProvider) Name() string {
	return "ollama"
}

// ListModels fetches local model tags, filtering out embedding-only models.
// Any failure falls back to a single hardcoded model.
func (p *ollamaProvider) ListModels(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return []string{defaultOllamaModel}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return []string{defaultOllamaModel}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return []string{defaultOllamaModel}
	}
	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return []string{defaultOllamaModel}
	}
	var models []string
	for _, m := range tags.Models {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		lower := strings.ToLower(name)
		if strings.Contains(lower, "embed") || strings.Contains(lower, "nomic") {
			continue
		}
		models = append(models, name)
	}
	if len(models) == 0 {
		return []string{defaultOllamaModel}
	}
	return models
}

func (p *ollamaProvider) Chat(ctx context.Context, modelName string, messages []model.Message) (string, error) {
	resp, err := p.post(ctx, modelName, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return out.Message.Content, nil
}

func (p *ollamaProvider) ChatStream(ctx context.Context, modelName string, messages []model.Message) <-chan Fragment {
	ch := make(chan Fragment, 16)
	go func() {
		defer close(ch)
		resp, err := p.post(ctx, modelName, messages, true)
		if err != nil {
			send(ctx, ch, Fragment{Err: &BackendError{Kind: ErrKindUnreachable, Detail: err.Error()}})
			return
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if ctx.Err() != nil {
				send(ctx, ch, Fragment{Err: &BackendError{Kind: ErrKindCanceled, Detail: ctx.Err().Error()}})
				return
			}
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 || line[0] != '{' {
				continue
			}
			var chunk ollamaChatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				continue
			}
			if chunk.Message.Content != "" {
				if !send(ctx, ch, Fragment{Text: chunk.Message.Content}) {
					return
				}
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			send(ctx, ch, Fragment{Err: &BackendError{Kind: ErrKindProtocol, Detail: err.Error()}})
		}
	}()
	return ch
}

func (p *ollamaProvider) post(ctx context.Context, modelName string, messages []model.Message, stream bool) (*http.Response, error) {
	payload := ollamaChatRequest{Model: modelName, Messages: messages, Stream: stream}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode ollama request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrBackendUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("ollama request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

type ollamaEmbedProvider struct {
	baseURL string
	client  *http.Client
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (p *ollamaEmbedProvider) Name() string {
	return "ollama"
}

func (p *ollamaEmbedProvider) Embed(ctx context.Context, modelName string, text string) ([]float32, error) {
	payload := ollamaEmbedRequest{Model: modelName, Prompt: text}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode ollama embed request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama embeddings failed: %s: %s", apperrors.ErrEmbeddingUnavailable, resp.Status, strings.TrimSpace(string(body)))
	}
	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ollama embed response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("%w: ollama returned no embedding", apperrors.ErrEmbeddingUnavailable)
	}
	return out.Embedding, nil
}

func newOllamaClient(cfg *ollamaConfig) (string, *http.Client) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return baseURL, &http.Client{Timeout: 300 * time.Second}
}

func createOllamaFactory(args interface{}) (IChatProvider, error) {
	cfg := &ollamaConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL, client := newOllamaClient(cfg)
	return &ollamaProvider{baseURL: baseURL, client: client}, nil
}

func createOllamaEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &ollamaConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL, client := newOllamaClient(cfg)
	return &ollamaEmbedProvider{baseURL: baseURL, client: client}, nil
}

func init() {
	Register("ollama", createOllamaFactory)
	RegisterEmbed("ollama", createOllamaEmbedFactory)
}
