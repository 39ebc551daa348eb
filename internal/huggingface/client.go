package huggingface

import (
	"bytes"
	"context"
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
	defaultBaseURL = "https://api-inference.huggingface.co"
	defaultModel   = "stabilityai/stable-diffusion-xl-base-1.0"
	name           = "huggingface"
)

type Options struct {
	Token      string
	BaseURL    string
	Model      string
	Steps      int
	Guidance   float64
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	token      string
	baseURL    string
	model      string
	steps      int
	guidance   float64
	httpClient *http.Client
	logger     *slog.Logger
}

var _ provider.ImageProvider = (*Client)(nil)

func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	steps := opts.Steps
	if steps <= 0 {
		steps = 30
	}
	guidance := opts.Guidance
	if guidance <= 0 {
		guidance = 7.5
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		token:      opts.Token,
		baseURL:    baseURL,
		model:      model,
		steps:      steps,
		guidance:   guidance,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

func (c *Client) Name() string { return name }

func (c *Client) GenerateImage(ctx context.Context, prompt string, v variant.Variant) ([]byte, error) {
	if c.httpClient == nil {
		return nil, provider.Wrap(name, provider.KindUnavailable, errors.New("http client is nil"))
	}
	if strings.TrimSpace(c.token) == "" {
		return nil, provider.Wrap(name, provider.KindAuth, errors.New("token is empty"))
	}

	spec := v.Spec()
	body, err := json.Marshal(inferenceRequest{
		Inputs: prompt,
		Parameters: inferenceParameters{
			Width:             spec.Width,
			Height:            spec.Height,
			NumInferenceSteps: c.steps,
			GuidanceScale:     c.guidance,
		},
	})
	if err != nil {
		return nil, provider.Wrap(name, provider.KindMalformed, fmt.Errorf("marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, provider.Wrap(name, provider.KindMalformed, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "image/png")
	req.Header.Set("authorization", "Bearer "+c.token)

	c.logger.Debug("huggingface request", "model", c.model, "variant", v.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.Wrap(name, provider.KindUnavailable, fmt.Errorf("request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.Wrap(name, provider.KindUnavailable, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= 400 {
		return nil, provider.Wrap(name, provider.KindFromStatus(resp.StatusCode),
			fmt.Errorf("inference API %s: %s", resp.Status, strings.TrimSpace(string(raw))))
	}

	if len(raw) == 0 {
		return nil, provider.Wrap(name, provider.KindMalformed, errors.New("empty response body"))
	}
	if ct := http.DetectContentType(raw); !strings.HasPrefix(ct, "image/") {
		return nil, provider.Wrap(name, provider.KindMalformed, fmt.Errorf("unexpected content type %q", ct))
	}
	return raw, nil
}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
}
