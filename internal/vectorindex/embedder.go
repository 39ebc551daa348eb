package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const defaultEmbeddingModel = "gemini-embedding-001"

type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string, task Task) ([]float32, error)
}

type Task int

const (
	TaskDocument Task = iota
	TaskQuery
)

type GenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	Dimensions int32
	HTTPClient *http.Client
}

// GenAIEmbedder embeds text with the Gemini embeddings API.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
	dims   int32
}

func NewGenAIEmbedder(ctx context.Context, opts GenAIOptions) (*GenAIEmbedder, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("genai api key is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultEmbeddingModel
	}
	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIEmbedder{client: client, model: model, dims: opts.Dimensions}, nil
}

func (e *GenAIEmbedder) Name() string { return "genai:" + e.model }

func (e *GenAIEmbedder) Embed(ctx context.Context, text string, task Task) ([]float32, error) {
	cfg := &genai.EmbedContentConfig{TaskType: "RETRIEVAL_DOCUMENT"}
	if task == TaskQuery {
		cfg.TaskType = "RETRIEVAL_QUERY"
	}
	if e.dims > 0 {
		dims := e.dims
		cfg.OutputDimensionality = &dims
	}

	res, err := e.client.Models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, cfg)
	if err != nil {
		return nil, fmt.Errorf("genai embed: %w", err)
	}
	if res == nil || len(res.Embeddings) == 0 || len(res.Embeddings[0].Values) == 0 {
		return nil, errors.New("genai embed: no embedding returned")
	}
	return res.Embeddings[0].Values, nil
}
