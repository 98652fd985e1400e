package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

const (
	DefaultVertexLocation = "us-central1"
	DefaultVertexModel    = "gemini-1.5-flash"
)

// VertexOptions configures a VertexAIClient
type VertexOptions struct {
	ProjectID       string
	Location        string
	Model           string
	CredentialsFile string
	GenerateTimeout time.Duration
}

// VertexAIClient wraps the Vertex AI Gemini API
type VertexAIClient struct {
	client          *genai.Client
	model           *genai.GenerativeModel
	projectID       string
	location        string
	generateTimeout time.Duration
}

// NewVertexAIClient creates a new Vertex AI client
func NewVertexAIClient(ctx context.Context, opts VertexOptions) (*VertexAIClient, error) {
	if opts.ProjectID == "" {
		return nil, fmt.Errorf("google cloud project is not configured")
	}

	location := opts.Location
	if location == "" {
		location = DefaultVertexLocation
	}
	modelName := opts.Model
	if modelName == "" {
		modelName = DefaultVertexModel
	}
	timeout := opts.GenerateTimeout
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, opts.ProjectID, location, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)
	model.SetTopK(40)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(1024)

	return &VertexAIClient{
		client:          client,
		model:           model,
		projectID:       opts.ProjectID,
		location:        location,
		generateTimeout: timeout,
	}, nil
}

// Name identifies the backend
func (v *VertexAIClient) Name() string {
	return "vertexai"
}

// Available reports whether the client was constructed
func (v *VertexAIClient) Available(ctx context.Context) bool {
	return v != nil && v.client != nil
}

// Generate sends a prompt to the model and returns the response
func (v *VertexAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	reply, err := withRetry(ctx, v.Name(), retryBackoff, func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, v.generateTimeout)
		defer cancel()

		resp, err := v.model.GenerateContent(callCtx, genai.Text(prompt))
		if err != nil {
			return "", fmt.Errorf("failed to generate content: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", nil
		}

		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		return sb.String(), nil
	})
	if err != nil {
		return "", unavailable(v.Name(), err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

// Close closes the Vertex AI client
func (v *VertexAIClient) Close() error {
	return v.client.Close()
}
