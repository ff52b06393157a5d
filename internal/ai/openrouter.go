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
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel   = "meta-llama/llama-3.1-8b-instruct"
)

type openrouterConfig struct {
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	HTTPReferer string `json:"http_referer"`
	XTitle      string `json:"x_title"`
}

type openrouterProvider struct {
	apiKey      string
	baseURL     string
	httpReferer string
	xTitle      string
	client      *http.Client
}

func (p *openrouterProvider) Name() string {
	return "openrouter"
}

func (p *openrouterProvider) ListModels(ctx context.Context) []string {
	// The hosted catalog is huge; a fixed default keeps selection sane.
	return []string{defaultOpenRouterModel}
}

func (p *openrouterProvider) Chat(ctx context.Context, modelName string, messages []model.Message) (string, error) {
	resp, err := p.post(ctx, modelName, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode openrouter response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openrouter response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}

func (p *openrouterProvider) ChatStream(ctx context.Context, modelName string, messages []model.Message) <-chan Fragment {
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
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}
			var chunk openAIStreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				if !send(ctx, ch, Fragment{Text: chunk.Choices[0].Delta.Content}) {
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			send(ctx, ch, Fragment{Err: &BackendError{Kind: ErrKindProtocol, Detail: err.Error()}})
		}
	}()
	return ch
}

func (p *openrouterProvider) post(ctx context.Context, modelName string, messages []model.Message, stream bool) (*http.Response, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: openrouter api key not configured", apperrors.ErrBackendUnreachable)
	}
	payload := openAIChatRequest{Model: modelName, Messages: messages, Stream: stream}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode openrouter request: %w", err)
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if p.httpReferer != "" {
		req.Header.Set("HTTP-Referer", p.httpReferer)
	}
	if p.xTitle != "" {
		req.Header.Set("X-Title", p.xTitle)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrBackendUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("openrouter request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

func createOpenRouterFactory(args interface{}) (IChatProvider, error) {
	cfg := &openrouterConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	return &openrouterProvider{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     baseURL,
		httpReferer: strings.TrimSpace(cfg.HTTPReferer),
		xTitle:      strings.TrimSpace(cfg.XTitle),
		client:      &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func init() {
	Register("openrouter", createOpenRouterFactory)
}
