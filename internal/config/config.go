package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Backend selection values
const (
	BackendAuto      = "auto"
	BackendOllama    = "ollama"
	BackendOpenAI    = "openai"
	BackendVertexAI  = "vertexai"
	BackendHeuristic = "heuristic"
)

// Config holds application configuration
type Config struct {
	Backend string `json:"backend"`

	OllamaURL   string `json:"ollama_url"`
	OllamaModel string `json:"ollama_model"`

	OpenAIAPIKey            string `json:"openai_api_key,omitempty"`
	OpenAIBaseURL           string `json:"openai_base_url"`
	OpenAIModel             string `json:"openai_model"`
	OpenAIRequestsPerMinute int    `json:"openai_requests_per_minute"`

	GoogleCloudProject    string `json:"google_cloud_project"`
	GoogleCloudLocation   string `json:"google_cloud_location"`
	GoogleCredentialsPath string `json:"google_credentials_path"`

	ProbeTimeoutSeconds    int `json:"probe_timeout_seconds"`
	GenerateTimeoutSeconds int `json:"generate_timeout_seconds"`

	QuestionBankPath string `json:"question_bank_path"`
	Personality      string `json:"personality"`

	TTSCommand       string `json:"tts_command"`
	SpeechRate       int    `json:"speech_rate"`
	FFmpegPath       string `json:"ffmpeg_path"`
	CameraDevice     string `json:"camera_device"`
	CameraFPS        int    `json:"camera_fps"`
	MicrophoneDevice string `json:"microphone_device"`
	CascadePath      string `json:"cascade_path"`

	Port       int    `json:"port"`
	ReportsDir string `json:"reports_dir"`
	LogLevel   string `json:"log_level"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		Backend:                 BackendAuto,
		OllamaURL:               "http://localhost:11434",
		OllamaModel:             "llama3.2",
		OpenAIBaseURL:           "https://api.openai.com/v1",
		OpenAIModel:             "gpt-4o-mini",
		OpenAIRequestsPerMinute: 15,
		GoogleCloudLocation:     "us-central1",
		ProbeTimeoutSeconds:     5,
		GenerateTimeoutSeconds:  30,
		Personality:             "Friendly",
		SpeechRate:              150,
		FFmpegPath:              "ffmpeg",
		CameraFPS:               30,
		Port:                    8080,
		ReportsDir:              "reports",
		LogLevel:                "info",
	}
}

// GetConfigPath returns the path to the configuration file
// On Windows: %APPDATA%/InterviewAgent/config.json
// On Unix: ~/.config/InterviewAgent/config.json
func GetConfigPath() (string, error) {
	var configDir string

	if os.Getenv("APPDATA") != "" {
		// Windows
		configDir = filepath.Join(os.Getenv("APPDATA"), "InterviewAgent")
	} else {
		// Unix-like systems
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "InterviewAgent")
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load loads configuration from the default config path
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	return LoadFrom(configPath)
}

// LoadFrom loads configuration from a specific path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadDotEnv loads variables from a .env file into the process environment.
// A missing file is not an error. Variables already set are kept.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Save saves the configuration to the default config path
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return c.SaveTo(configPath)
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides file values with environment variables
func (c *Config) ApplyEnv() {
	c.Backend = getEnv("INTERVIEW_BACKEND", c.Backend)

	c.OllamaURL = getEnv("OLLAMA_URL", c.OllamaURL)
	c.OllamaModel = getEnv("OLLAMA_MODEL", c.OllamaModel)

	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.OpenAIModel = getEnv("OPENAI_MODEL", c.OpenAIModel)
	c.OpenAIRequestsPerMinute = getEnvAsInt("OPENAI_REQUESTS_PER_MINUTE", c.OpenAIRequestsPerMinute)

	c.GoogleCloudProject = getEnv("GOOGLE_CLOUD_PROJECT", c.GoogleCloudProject)
	c.GoogleCloudLocation = getEnv("GOOGLE_CLOUD_LOCATION", c.GoogleCloudLocation)
	c.GoogleCredentialsPath = getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.GoogleCredentialsPath)

	c.ProbeTimeoutSeconds = getEnvAsInt("BACKEND_PROBE_TIMEOUT_SECONDS", c.ProbeTimeoutSeconds)
	c.GenerateTimeoutSeconds = getEnvAsInt("BACKEND_GENERATE_TIMEOUT_SECONDS", c.GenerateTimeoutSeconds)

	c.QuestionBankPath = getEnv("QUESTION_BANK_PATH", c.QuestionBankPath)
	c.Personality = getEnv("INTERVIEW_PERSONALITY", c.Personality)

	c.TTSCommand = getEnv("TTS_COMMAND", c.TTSCommand)
	c.SpeechRate = getEnvAsInt("TTS_RATE", c.SpeechRate)
	c.FFmpegPath = getEnv("FFMPEG_PATH", c.FFmpegPath)
	c.CameraDevice = getEnv("CAMERA_DEVICE", c.CameraDevice)
	c.CameraFPS = getEnvAsInt("CAMERA_FPS", c.CameraFPS)
	c.MicrophoneDevice = getEnv("MICROPHONE_DEVICE", c.MicrophoneDevice)
	c.CascadePath = getEnv("FACE_CASCADE_PATH", c.CascadePath)

	c.Port = getEnvAsInt("PORT", c.Port)
	c.ReportsDir = getEnv("REPORTS_DIR", c.ReportsDir)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendOllama, BackendOpenAI, BackendVertexAI, BackendHeuristic:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if c.Backend == BackendVertexAI && c.GoogleCloudProject == "" {
		return fmt.Errorf("google_cloud_project is required for the vertexai backend")
	}

	if c.Backend == BackendOpenAI && c.OpenAIAPIKey == "" {
		return fmt.Errorf("openai_api_key is required for the openai backend")
	}

	if c.GoogleCredentialsPath != "" {
		if _, err := os.Stat(c.GoogleCredentialsPath); err != nil {
			return fmt.Errorf("google credentials file not found: %w", err)
		}
	}

	if c.QuestionBankPath != "" {
		if _, err := os.Stat(c.QuestionBankPath); err != nil {
			return fmt.Errorf("question bank file not found: %w", err)
		}
	}

	if c.ProbeTimeoutSeconds <= 0 || c.GenerateTimeoutSeconds <= 0 {
		return fmt.Errorf("backend timeouts must be positive")
	}

	if c.CameraFPS <= 0 {
		return fmt.Errorf("camera_fps must be positive")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}

	return nil
}

// ApplyToEnv applies configuration values to environment variables
func (c *Config) ApplyToEnv() {
	if c.GoogleCloudProject != "" {
		os.Setenv("GOOGLE_CLOUD_PROJECT", c.GoogleCloudProject)
	}
	if c.GoogleCloudLocation != "" {
		os.Setenv("GOOGLE_CLOUD_LOCATION", c.GoogleCloudLocation)
	}
	if c.GoogleCredentialsPath != "" {
		os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", c.GoogleCredentialsPath)
	}
}

// ProbeTimeout is the availability check deadline for backends
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// GenerateTimeout is the generation deadline for backends
func (c *Config) GenerateTimeout() time.Duration {
	return time.Duration(c.GenerateTimeoutSeconds) * time.Second
}

// Addr is the HTTP listen address
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
