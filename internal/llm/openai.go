package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	DefaultOpenAIURL   = "https://api.openai.com/v1"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// OpenAIClient talks to an OpenAI-compatible chat completions API
type OpenAIClient struct {
	baseURL         string
	apiKey          string
	model           string
	temperature     float64
	maxTokens       int
	probeTimeout    time.Duration
	generateTimeout time.Duration
	backoff         time.Duration
	limiter         *rate.Limiter
	httpClient      *http.Client
}

// OpenAIOptions configures an OpenAIClient. Zero values take defaults.
type OpenAIOptions struct {
	BaseURL           string
	APIKey            string
	Model             string
	Temperature       float64
	MaxTokens         int
	RequestsPerMinute int
	ProbeTimeout      time.Duration
	GenerateTimeout   time.Duration
	RetryBackoff      time.Duration
	HTTPClient        *http.Client
}

// NewOpenAIClient creates a hosted chat completions client
func NewOpenAIClient(opts OpenAIOptions) *OpenAIClient {
	c := &OpenAIClient{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		apiKey:          opts.APIKey,
		model:           opts.Model,
		temperature:     opts.Temperature,
		maxTokens:       opts.MaxTokens,
		probeTimeout:    opts.ProbeTimeout,
		generateTimeout: opts.GenerateTimeout,
		backoff:         opts.RetryBackoff,
		httpClient:      opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultOpenAIURL
	}
	if c.model == "" {
		c.model = DefaultOpenAIModel
	}
	if c.temperature == 0 {
		c.temperature = 0.2
	}
	if c.maxTokens <= 0 {
		c.maxTokens = 1024
	}
	if c.probeTimeout <= 0 {
		c.probeTimeout = DefaultProbeTimeout
	}
	if c.generateTimeout <= 0 {
		c.generateTimeout = DefaultGenerateTimeout
	}
	if c.backoff <= 0 {
		c.backoff = retryBackoff
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}

	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 15
	}
	c.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)

	return c
}

// Name identifies the backend
func (c *OpenAIClient) Name() string {
	return "openai"
}

func (c *OpenAIClient) header() http.Header {
	h := http.Header{}
	if c.apiKey != "" {
		h.Set("Authorization", "Bearer "+c.apiKey)
	}
	return h
}

// Available lists models with the configured key
func (c *OpenAIClient) Available(ctx context.Context) bool {
	if c.apiKey == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	_, err := doJSON(ctx, c.httpClient, http.MethodGet, c.baseURL+"/models", nil, c.header())
	return err == nil
}

// Generate sends the prompt as a single user message
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}

	reply, err := withRetry(ctx, c.Name(), c.backoff, func() (string, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		callCtx, cancel := context.WithTimeout(ctx, c.generateTimeout)
		defer cancel()

		data, err := doJSON(callCtx, c.httpClient, http.MethodPost, c.baseURL+"/chat/completions", payload, c.header())
		if err != nil {
			return "", err
		}
		return gjson.GetBytes(data, "choices.0.message.content").String(), nil
	})
	if err != nil {
		return "", unavailable(c.Name(), err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}
