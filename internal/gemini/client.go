package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"creative-automation/internal/provider"
	"creative-automation/internal/variant"
)

const (
	defaultTextModel  = "gemini-2.5-flash"
	defaultImageModel = "gemini-2.5-flash-image"
)

const name = "gemini"

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	TextModel  string
	ImageModel string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the generateContent REST endpoint directly. It serves both
// as an image provider and as a translator.
type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	textModel  string
	imageModel string
	httpClient *http.Client
	logger     *slog.Logger
}

var (
	_ provider.ImageProvider = (*Client)(nil)
	_ provider.Translator    = (*Client)(nil)
)

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = defaultTextModel
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = defaultImageModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		textModel:  textModel,
		imageModel: imageModel,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

func (c *Client) Name() string { return name }

func (c *Client) GenerateImage(ctx context.Context, prompt string, v variant.Variant) ([]byte, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, provider.Wrap(name, provider.KindMalformed, errors.New("prompt is empty"))
	}

	req := generateContentRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig:        &imageConfig{AspectRatio: v.Ratio()},
		},
	}

	resp, err := c.generateContent(ctx, c.imageModel, req)
	if err != nil && isUnknownFieldError(err, "imageConfig") {
		c.logger.Debug("imageConfig rejected, retrying without aspect ratio", "model", c.imageModel)
		req.GenerationConfig.ImageConfig = nil
		resp, err = c.generateContent(ctx, c.imageModel, req)
	}
	if err != nil {
		return nil, err
	}

	if len(resp.images) == 0 {
		return nil, provider.Wrap(name, provider.KindMalformed, errors.New("response contained no image"))
	}
	return resp.images[0], nil
}

func (c *Client) Translate(ctx context.Context, text, targetLanguage, culturalContext string) (string, error) {
	instruction := fmt.Sprintf(
		"Translate the following marketing message into %s. Keep it concise and impactful for advertising. "+
			"Adapt idioms so it reads naturally for an audience in this setting: %s. "+
			"Return only the translation, no explanations.",
		targetLanguage, culturalContext)

	req := generateContentRequest{
		Contents:          []content{{Role: "user", Parts: []part{{Text: text}}}},
		SystemInstruction: &content{Role: "user", Parts: []part{{Text: instruction}}},
		GenerationConfig: generationConfig{
			Temperature:     0.3,
			MaxOutputTokens: 200,
		},
	}

	resp, err := c.generateContent(ctx, c.textModel, req)
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(resp.text)
	if out == "" {
		return "", provider.Wrap(name, provider.KindMalformed, errors.New("empty translation"))
	}
	return out, nil
}

type response struct {
	text   string
	images [][]byte
}

func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest) (response, error) {
	if c.httpClient == nil {
		return response{}, provider.Wrap(name, provider.KindUnavailable, errors.New("http client is nil"))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return response{}, provider.Wrap(name, provider.KindMalformed, fmt.Errorf("marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return response{}, provider.Wrap(name, provider.KindMalformed, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return response{}, provider.Wrap(name, provider.KindUnavailable, fmt.Errorf("request: %w", err))
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return response{}, provider.Wrap(name, provider.KindUnavailable, fmt.Errorf("read response: %w", err))
	}

	if httpResp.StatusCode >= 400 {
		return response{}, provider.Wrap(name, provider.KindFromStatus(httpResp.StatusCode),
			fmt.Errorf("gemini API %s: %s", httpResp.Status, strings.TrimSpace(string(rawBody))))
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return response{}, provider.Wrap(name, provider.KindMalformed, fmt.Errorf("decode response: %w", err))
	}

	return extractParts(decoded)
}

func extractParts(resp generateContentResponse) (response, error) {
	if len(resp.Candidates) == 0 {
		return response{}, nil
	}

	var out response
	var textBuilder strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			textBuilder.WriteString(p.Text)
		}
		if p.InlineData != nil && p.InlineData.Data != "" && strings.HasPrefix(p.InlineData.MimeType, "image/") {
			raw, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return response{}, provider.Wrap(name, provider.KindMalformed, fmt.Errorf("decode inline image: %w", err))
			}
			out.images = append(out.images, raw)
		}
	}
	out.text = textBuilder.String()
	return out, nil
}

type generateContentRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature        float64      `json:"temperature,omitempty"`
	MaxOutputTokens    int          `json:"maxOutputTokens,omitempty"`
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

func isUnknownFieldError(err error, field string) bool {
	message := err.Error()
	return strings.Contains(message, "Unknown name") && strings.Contains(message, field)
}
