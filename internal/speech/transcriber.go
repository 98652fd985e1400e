package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	speechapi "google.golang.org/api/speech/v1"
)

const (
	DefaultLanguage   = "en-US"
	DefaultSampleRate = 16000
)

// ErrNoSpeech is returned when the audio contained no recognizable speech
var ErrNoSpeech = errors.New("no speech recognized")

// Transcriber converts recorded audio to text
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (Result, error)
}

// Result holds the transcription result
type Result struct {
	Text       string
	Confidence float64
}

// TranscriberOptions configures a CloudTranscriber
type TranscriberOptions struct {
	CredentialsFile string
	LanguageCode    string
	SampleRate      int
	// Endpoint overrides the API base URL; no credentials are used with it
	Endpoint string
}

// CloudTranscriber uses the Google Cloud Speech-to-Text v1 API
type CloudTranscriber struct {
	service    *speechapi.Service
	language   string
	sampleRate int
}

// NewCloudTranscriber creates a transcriber from explicit or default credentials
func NewCloudTranscriber(ctx context.Context, opts TranscriberOptions) (*CloudTranscriber, error) {
	var clientOpts []option.ClientOption

	switch {
	case opts.Endpoint != "":
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint), option.WithoutAuthentication())
	case opts.CredentialsFile != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read credentials file: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, speechapi.CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse credentials: %w", err)
		}
		clientOpts = append(clientOpts, option.WithCredentials(creds))
	default:
		creds, err := google.FindDefaultCredentials(ctx, speechapi.CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("unable to find default credentials: %w", err)
		}
		clientOpts = append(clientOpts, option.WithCredentials(creds))
	}

	svc, err := speechapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Speech-to-Text client: %w", err)
	}

	t := &CloudTranscriber{
		service:    svc,
		language:   opts.LanguageCode,
		sampleRate: opts.SampleRate,
	}
	if t.language == "" {
		t.language = DefaultLanguage
	}
	if t.sampleRate <= 0 {
		t.sampleRate = DefaultSampleRate
	}
	return t, nil
}

// Transcribe recognizes mono 16-bit PCM audio
func (t *CloudTranscriber) Transcribe(ctx context.Context, audio []byte) (Result, error) {
	if len(audio) == 0 {
		return Result{}, ErrNoSpeech
	}

	req := &speechapi.RecognizeRequest{
		Config: &speechapi.RecognitionConfig{
			Encoding:                   "LINEAR16",
			SampleRateHertz:            int64(t.sampleRate),
			AudioChannelCount:          1,
			LanguageCode:               t.language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechapi.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(audio),
		},
	}

	resp, err := t.service.Speech.Recognize(req).Context(ctx).Do()
	if err != nil {
		return Result{}, fmt.Errorf("failed to recognize speech: %w", err)
	}

	var parts []string
	var confidence float64
	var scored int
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		best := r.Alternatives[0]
		if text := strings.TrimSpace(best.Transcript); text != "" {
			parts = append(parts, text)
			confidence += best.Confidence
			scored++
		}
	}
	if len(parts) == 0 {
		return Result{}, ErrNoSpeech
	}

	return Result{
		Text:       strings.Join(parts, " "),
		Confidence: confidence / float64(scored),
	}, nil
}
