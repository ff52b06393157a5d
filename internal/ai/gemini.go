package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ragtimehq/ragtime/internal/model"
	apperrors "github.com/ragtimehq/ragtime/internal/pkg/errors"
)

const defaultGeminiModel = "gemini-2.0-flash"

type geminiConfig struct {
	APIKey string `json:"api_key"`
}

type geminiProvider struct {
	apiKey string
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) ListModels(ctx context.Context) []string {
	return []string{defaultGeminiModel}
}

func (p *geminiProvider) Chat(ctx context.Context, modelName string, messages []model.Message) (string, error) {
	client, contents, config, err := p.prepare(ctx, messages)
	if err != nil {
		return "", err
	}
	resp, err := client.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrBackendUnreachable, err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (p *geminiProvider) ChatStream(ctx context.Context, modelName string, messages []model.Message) <-chan Fragment {
	ch := make(chan Fragment, 16)
	go func() {
		defer close(ch)
		client, contents, config, err := p.prepare(ctx, messages)
		if err != nil {
			send(ctx, ch, Fragment{Err: &BackendError{Kind: ErrKindUnreachable, Detail: err.Error()}})
			return
		}
		for resp, err := range client.Models.GenerateContentStream(ctx, modelName, contents, config) {
			if err != nil {
				send(ctx, ch, Fragment{Err: &BackendError{Kind: ErrKindUnreachable, Detail: err.Error()}})
				return
			}
			if text := resp.Text(); text != "" {
				if !send(ctx, ch, Fragment{Text: text}) {
					return
				}
			}
		}
	}()
	return ch
}

// prepare maps chat roles onto the gemini contract: system messages become
// the system instruction, assistant turns use the "model" role.
func (p *geminiProvider) prepare(ctx context.Context, messages []model.Message) (*genai.Client, []*genai.Content, *genai.GenerateContentConfig, error) {
	if p.apiKey == "" {
		return nil, nil, nil, fmt.Errorf("%w: gemini api key not configured", apperrors.ErrBackendUnreachable)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", apperrors.ErrBackendUnreachable, err)
	}

	var system []string
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case model.RoleSystem:
			system = append(system, m.Content)
		case model.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}
	var config *genai.GenerateContentConfig
	if len(system) > 0 {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}},
			},
		}
	}
	return client, contents, config, nil
}

type geminiEmbedProvider struct {
	apiKey string
}

func (p *geminiEmbedProvider) Name() string {
	return "gemini"
}

func (p *geminiEmbedProvider) Embed(ctx context.Context, modelName string, text string) ([]float32, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key not configured", apperrors.ErrEmbeddingUnavailable)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrEmbeddingUnavailable, err)
	}
	resp, err := client.Models.EmbedContent(
		ctx,
		modelName,
		[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrEmbeddingUnavailable, err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embedding values returned", apperrors.ErrEmbeddingUnavailable)
	}
	return resp.Embeddings[0].Values, nil
}

func createGeminiFactory(args interface{}) (IChatProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return &geminiProvider{apiKey: strings.TrimSpace(cfg.APIKey)}, nil
}

func createGeminiEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return &geminiEmbedProvider{apiKey: strings.TrimSpace(cfg.APIKey)}, nil
}

func init() {
	Register("gemini", createGeminiFactory)
	RegisterEmbed("gemini", createGeminiEmbedFactory)
}
