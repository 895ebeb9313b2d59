package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zombor/expense-tracker/internal/engine"
	"github.com/zombor/expense-tracker/internal/expense"
	"github.com/zombor/expense-tracker/internal/extraction"
	"github.com/zombor/expense-tracker/internal/ocr"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

var errMissingGeminiKey = errors.New("gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")

// generativeEngine is an extraction engine holding resources until closed
type generativeEngine interface {
	extraction.Engine
	Close() error
}

type config struct {
	engineType        string
	ocrType           string
	geminiKey         string
	geminiModel       string
	ollamaURL         string
	ollamaModel       string
	ollamaVisionModel string
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("expense-tracker")
	var (
		port              = fs.IntLong("port", 8080, "HTTP server port")
		dbPath            = fs.StringLong("db", "expense-tracker.db", "Database file path")
		storagePath       = fs.StringLong("storage", "./receipts", "Receipt image storage directory")
		engineType        = fs.StringLong("engine", "ollama", "Generative engine: 'gemini', 'ollama' or 'none' (keyword parsing only)")
		ocrType           = fs.StringLong("ocr", "ollama", "Receipt OCR: 'gemini', 'ollama' or 'none'")
		geminiKey         = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel       = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL         = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel       = fs.StringLong("ollama-model", "llama3.2", "Ollama model for expense extraction")
		ollamaVisionModel = fs.StringLong("ollama-vision-model", "llava", "Ollama vision model for receipt OCR (e.g., llava, llama3.2-vision)")
		categories        = fs.StringLong("categories", "default", "Category set: 'default', 'extended' or a comma separated list")
		authUser          = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass          = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion       = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("EXPENSE_TRACKER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg := config{
		engineType:        *engineType,
		ocrType:           *ocrType,
		geminiKey:         *geminiKey,
		geminiModel:       *geminiModel,
		ollamaURL:         *ollamaURL,
		ollamaModel:       *ollamaModel,
		ollamaVisionModel: *ollamaVisionModel,
	}
	if cfg.geminiKey == "" {
		cfg.geminiKey = os.Getenv("GEMINI_API_KEY")
	}

	categorySet, err := extraction.ParseCategorySet(*categories)
	if err != nil {
		slog.Error("Invalid category set", "error", err)
		os.Exit(1)
	}

	slog.Info("Initializing database...")
	db, err := expense.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	gen, err := newEngine(cfg)
	if err != nil {
		slog.Error("Failed to initialize generative engine", "engine", cfg.engineType, "error", err)
		os.Exit(1)
	}
	defer gen.Close()

	reader, err := newReader(cfg)
	if err != nil {
		slog.Error("Failed to initialize OCR", "ocr", cfg.ocrType, "error", err)
		os.Exit(1)
	}
	defer reader.Close()

	slog.Info("Initializing storage...")
	store, err := expense.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	metrics := extraction.NewMetrics(prometheus.DefaultRegisterer)
	dispatcher := extraction.NewDispatcher(gen, categorySet, metrics)
	service := expense.NewService(db, dispatcher, reader, store)
	server := expense.NewServer(service, expense.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if availability := gen.Availability(ctx); !availability.IsAvailable() {
		slog.Warn("Generative engine unavailable, using keyword parsing until it is", "reason", availability.Reason)
	}
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}
	slog.Info("Configuration",
		"engine", cfg.engineType,
		"ocr", cfg.ocrType,
		"categories", categorySet.String(),
		"version", version,
	)

	if err := server.Run(ctx, fmt.Sprintf(":%d", *port)); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func newEngine(cfg config) (generativeEngine, error) {
	switch cfg.engineType {
	case "gemini":
		if cfg.geminiKey == "" {
			return nil, errMissingGeminiKey
		}
		slog.Info("Initializing Gemini engine...", "model", cfg.geminiModel)
		return engine.NewGemini(cfg.geminiKey, cfg.geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama engine...", "url", cfg.ollamaURL, "model", cfg.ollamaModel)
		return engine.NewOllama(cfg.ollamaURL, cfg.ollamaModel)
	case "none":
		return engine.Disabled{}, nil
	}
	return nil, fmt.Errorf("invalid engine type %q, valid: gemini, ollama or none", cfg.engineType)
}

func newReader(cfg config) (ocr.Reader, error) {
	switch cfg.ocrType {
	case "gemini":
		if cfg.geminiKey == "" {
			return nil, errMissingGeminiKey
		}
		slog.Info("Initializing Gemini OCR...", "model", cfg.geminiModel)
		return ocr.NewGeminiReader(cfg.geminiKey, cfg.geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama OCR...", "url", cfg.ollamaURL, "model", cfg.ollamaVisionModel)
		return ocr.NewOllamaReader(cfg.ollamaURL, cfg.ollamaVisionModel)
	case "none":
		return ocr.Disabled{}, nil
	}
	return nil, fmt.Errorf("invalid OCR type %q, valid: gemini, ollama or none", cfg.ocrType)
}
