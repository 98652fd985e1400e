package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/fmuoria/interview-agent/internal/agent"
	"github.com/fmuoria/interview-agent/internal/api"
	"github.com/fmuoria/interview-agent/internal/capture"
	"github.com/fmuoria/interview-agent/internal/catalog"
	"github.com/fmuoria/interview-agent/internal/config"
	"github.com/fmuoria/interview-agent/internal/gui"
	"github.com/fmuoria/interview-agent/internal/hrdata"
	"github.com/fmuoria/interview-agent/internal/llm"
	"github.com/fmuoria/interview-agent/internal/speech"
)

const usage = `Usage: interview-agent <command> [flags]

Commands:
  serve    Run the HTTP API
  gui      Run the desktop interview wizard
  hrdata   Build the HR attrition dashboard files
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
	}
	cfg.ApplyEnv()
	setupLogging(cfg.LogLevel)

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "serve":
		err = runServe(cfg, args)
	case "gui":
		err = runGUI(cfg, args)
	case "hrdata":
		err = runHRData(args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		slog.Error("command failed", slog.String("command", cmd), slog.Any("error", err))
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func runServe(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", cfg.Port, "HTTP port")
	camera := fs.Bool("camera", false, "record from the webcam during interviews")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.Port = *port

	interviewAgent, err := buildAgent(cfg, *camera)
	if err != nil {
		return err
	}
	defer interviewAgent.Close()

	server := api.NewServer(interviewAgent)
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("Starting Interview Agent on port %d...\n", cfg.Port)
	fmt.Printf("Endpoints:\n")
	fmt.Printf("  POST /session - Start an interview\n")
	fmt.Printf("  POST /session/answer - Submit an answer\n")
	fmt.Printf("  GET /report - Get the interview report\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runGUI(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("gui", flag.ExitOnError)
	camera := fs.Bool("camera", true, "show the webcam preview during interviews")
	if err := fs.Parse(args); err != nil {
		return err
	}

	interviewAgent, err := buildAgent(cfg, *camera)
	if err != nil {
		return err
	}
	defer interviewAgent.Close()

	gui.NewApp(interviewAgent, cfg).Run()
	return nil
}

func runHRData(args []string) error {
	fs := flag.NewFlagSet("hrdata", flag.ExitOnError)
	train := fs.String("train", "train.csv", "training split CSV")
	test := fs.String("test", "test.csv", "test split CSV")
	out := fs.String("out", "hr_dashboard", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	employees, err := hrdata.LoadOrGenerate(*train, *test)
	if err != nil {
		return err
	}

	records := hrdata.Process(employees)
	paths, err := hrdata.Export(*out, records, time.Now())
	if err != nil {
		return err
	}

	kpis := hrdata.ComputeKPIs(records)
	fmt.Printf("Processed %d employees (attrition rate %.1f%%)\n", kpis.TotalEmployees, kpis.AttritionRate)
	for _, p := range paths {
		fmt.Printf("  %s\n", p)
	}
	return nil
}

// buildAgent wires the configured backend and optional devices into an agent
func buildAgent(cfg *config.Config, withCamera bool) (*agent.InterviewAgent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.ApplyToEnv()

	opts := agent.Options{}

	if cfg.QuestionBankPath != "" {
		c, err := catalog.LoadFile(cfg.QuestionBankPath)
		if err != nil {
			return nil, err
		}
		opts.Catalog = c
	}

	opts.Backend = negotiateBackend(cfg)

	speaker := speech.NewCommandSpeaker(cfg.TTSCommand, cfg.SpeechRate, 0)
	if speaker.Available() {
		opts.Speaker = speaker
	} else {
		slog.Warn("speech engine not found, questions will not be read aloud")
	}

	_, ffmpegErr := exec.LookPath(cfg.FFmpegPath)
	if ffmpegErr != nil {
		slog.Warn("ffmpeg not found, camera and microphone disabled", slog.String("path", cfg.FFmpegPath))
	}

	if ffmpegErr == nil && withCamera {
		recOpts := capture.RecorderOptions{FPS: cfg.CameraFPS}
		if cfg.CascadePath != "" {
			detector, err := capture.NewPigoDetector(cfg.CascadePath)
			if err != nil {
				slog.Warn("face detection disabled", slog.Any("error", err))
			} else {
				recOpts.Detector = detector
			}
		}
		source := capture.NewCommandSource(cfg.FFmpegPath, cfg.CameraDevice, cfg.CameraFPS)
		opts.Camera = capture.NewRecorder(source, recOpts)
	}

	if ffmpegErr == nil && (cfg.GoogleCredentialsPath != "" || cfg.GoogleCloudProject != "") {
		transcriber, err := speech.NewCloudTranscriber(context.Background(), speech.TranscriberOptions{
			CredentialsFile: cfg.GoogleCredentialsPath,
		})
		if err != nil {
			slog.Warn("speech recognition disabled", slog.Any("error", err))
		} else {
			opts.Microphone = speech.NewMicrophone(cfg.FFmpegPath, cfg.MicrophoneDevice)
			opts.Transcriber = transcriber
		}
	}

	return agent.NewInterviewAgent(opts), nil
}

// negotiateBackend probes the configured generation backends; nil means heuristic scoring
func negotiateBackend(cfg *config.Config) llm.Backend {
	if cfg.Backend == config.BackendHeuristic {
		slog.Info("heuristic scoring selected")
		return nil
	}

	var candidates []llm.Backend
	want := func(name string) bool {
		return cfg.Backend == config.BackendAuto || cfg.Backend == name
	}

	if want(config.BackendOllama) {
		candidates = append(candidates, llm.NewOllamaClient(llm.OllamaOptions{
			BaseURL:         cfg.OllamaURL,
			Model:           cfg.OllamaModel,
			ProbeTimeout:    cfg.ProbeTimeout(),
			GenerateTimeout: cfg.GenerateTimeout(),
		}))
	}

	if want(config.BackendOpenAI) && cfg.OpenAIAPIKey != "" {
		candidates = append(candidates, llm.NewOpenAIClient(llm.OpenAIOptions{
			BaseURL:           cfg.OpenAIBaseURL,
			APIKey:            cfg.OpenAIAPIKey,
			Model:             cfg.OpenAIModel,
			RequestsPerMinute: cfg.OpenAIRequestsPerMinute,
			ProbeTimeout:      cfg.ProbeTimeout(),
			GenerateTimeout:   cfg.GenerateTimeout(),
		}))
	}

	if want(config.BackendVertexAI) && cfg.GoogleCloudProject != "" {
		client, err := llm.NewVertexAIClient(context.Background(), llm.VertexOptions{
			ProjectID:       cfg.GoogleCloudProject,
			Location:        cfg.GoogleCloudLocation,
			CredentialsFile: cfg.GoogleCredentialsPath,
			GenerateTimeout: cfg.GenerateTimeout(),
		})
		if err != nil {
			slog.Warn("vertex ai unavailable", slog.Any("error", err))
		} else {
			candidates = append(candidates, client)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ProbeTimeout()*time.Duration(max(len(candidates), 1)))
	defer cancel()
	return llm.Negotiate(ctx, candidates...)
}
