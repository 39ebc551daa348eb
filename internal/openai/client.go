// Package openai adapts the OpenAI SDK to the provider interfaces: DALL-E for
// images and chat completions for translation.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"creative-automation/internal/provider"
	"creative-automation/internal/variant"
)

const (
	defaultImageModel = "dall-e-3"
	defaultChatModel  = "gpt-3.5-turbo"
	name              = "openai"
)

type Options struct {
	APIKey     string
	BaseURL    string
	ImageModel string
	ChatModel  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	api        sdk.Client
	imageModel string
	chatModel  string
	logger     *slog.Logger
}

var (
	_ provider.ImageProvider = (*Client)(nil)
	_ provider.Translator    = (*Client)(nil)
)

func New(opts Options) *Client {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		// failover is handled by the generation stage, a hidden SDK retry loop
		// would stretch per-asset latency
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = defaultImageModel
	}
	chatModel := strings.TrimSpace(opts.ChatModel)
	if chatModel == "" {
		chatModel = defaultChatModel
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		api:        sdk.NewClient(reqOpts...),
		imageModel: imageModel,
		chatModel:  chatModel,
		logger:     logger,
	}
}

func (c *Client) Name() string { return name }

// imageSize maps a variant to the closest size DALL-E 3 accepts.
func imageSize(v variant.Variant) sdk.ImageGenerateParamsSize {
	switch v {
	case variant.Landscape:
		return sdk.ImageGenerateParamsSize1792x1024
	case variant.Portrait:
		return sdk.ImageGenerateParamsSize1024x1792
	default:
		return sdk.ImageGenerateParamsSize1024x1024
	}
}

func (c *Client) GenerateImage(ctx context.Context, prompt string, v variant.Variant) ([]byte, error) {
	resp, err := c.api.Images.Generate(ctx, sdk.ImageGenerateParams{
		Prompt:         prompt,
		Model:          sdk.ImageModel(c.imageModel),
		Size:           imageSize(v),
		Quality:        sdk.ImageGenerateParamsQualityStandard,
		ResponseFormat: sdk.ImageGenerateParamsResponseFormatB64JSON,
		N:              sdk.Int(1),
	})
	if err != nil {
		return nil, classify(err)
	}
	if resp == nil || len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, provider.Wrap(name, provider.KindMalformed, errors.New("response contained no image"))
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, provider.Wrap(name, provider.KindMalformed, fmt.Errorf("decode image: %w", err))
	}
	return raw, nil
}

func (c *Client) Translate(ctx context.Context, text, targetLanguage, culturalContext string) (string, error) {
	system := fmt.Sprintf(
		"Translate the following marketing message into %s. Keep it concise and impactful for advertising. "+
			"Adapt idioms so it reads naturally for an audience in this setting: %s. "+
			"Return only the translation, no explanations.",
		targetLanguage, culturalContext)

	resp, err := c.api.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Model: sdk.ChatModel(c.chatModel),
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.SystemMessage(system),
			sdk.UserMessage(text),
		},
		MaxTokens:   sdk.Int(100),
		Temperature: sdk.Float(0.3),
	})
	if err != nil {
		return "", classify(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", provider.Wrap(name, provider.KindMalformed, errors.New("no choices returned"))
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", provider.Wrap(name, provider.KindMalformed, errors.New("empty translation"))
	}
	return out, nil
}

func classify(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return provider.Wrap(name, provider.KindFromStatus(apiErr.StatusCode), err)
	}
	return provider.Wrap(name, provider.KindUnavailable, err)
}
