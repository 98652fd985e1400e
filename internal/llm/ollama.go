package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llama3.2"
)

// OllamaClient talks to a local Ollama model server
type OllamaClient struct {
	baseURL         string
	model           string
	probeTimeout    time.Duration
	generateTimeout time.Duration
	httpClient      *http.Client
}

// OllamaOptions configures an OllamaClient. Zero values take defaults.
type OllamaOptions struct {
	BaseURL         string
	Model           string
	ProbeTimeout    time.Duration
	GenerateTimeout time.Duration
	HTTPClient      *http.Client
}

// NewOllamaClient creates a client for the Ollama HTTP API
func NewOllamaClient(opts OllamaOptions) *OllamaClient {
	c := &OllamaClient{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		model:           opts.Model,
		probeTimeout:    opts.ProbeTimeout,
		generateTimeout: opts.GenerateTimeout,
		httpClient:      opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultOllamaURL
	}
	if c.model == "" {
		c.model = DefaultOllamaModel
	}
	if c.probeTimeout <= 0 {
		c.probeTimeout = DefaultProbeTimeout
	}
	if c.generateTimeout <= 0 {
		c.generateTimeout = DefaultGenerateTimeout
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	return c
}

// Name identifies the backend
func (c *OllamaClient) Name() string {
	return "ollama"
}

// Available probes the tag listing endpoint
func (c *OllamaClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	_, err := doJSON(ctx, c.httpClient, http.MethodGet, c.baseURL+"/api/tags", nil, nil)
	return err == nil
}

// Generate runs a single non-streaming completion
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	payload := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	}
	data, err := doJSON(ctx, c.httpClient, http.MethodPost, c.baseURL+"/api/generate", payload, nil)
	if err != nil {
		return "", unavailable(c.Name(), err)
	}

	reply := strings.TrimSpace(gjson.GetBytes(data, "response").String())
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}
