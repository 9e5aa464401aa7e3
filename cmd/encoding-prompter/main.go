package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/frey-perez/encoding-prompter/internal/api"
	"github.com/frey-perez/encoding-prompter/internal/codebook"
	"github.com/frey-perez/encoding-prompter/internal/config"
	"github.com/frey-perez/encoding-prompter/internal/document"
	"github.com/frey-perez/encoding-prompter/internal/encoder"
	"github.com/frey-perez/encoding-prompter/internal/events"
	"github.com/frey-perez/encoding-prompter/internal/openrouter"
	"github.com/frey-perez/encoding-prompter/internal/results"
)

func main() {
	cfg := config.Load()

	var (
		codebookPath = flag.String("codebook", "", "path to the codebook file (.json, .csv or .txt)")
		docsPath     = flag.String("docs", "", "path to a transcript file or directory")
		text         = flag.String("text", "", "encode a transcript passed inline instead of -docs")
		docID        = flag.String("doc-id", "", "document id for -text input")
		outPath      = flag.String("out", "", "write the results CSV here (default stdout)")
		model        = flag.String("model", cfg.Model, "OpenRouter model identifier")
		maxTokens    = flag.Int("max-tokens", cfg.MaxTokens, "completion token limit per document")
		temperature  = flag.Float64("temperature", cfg.Temperature, "sampling temperature")
		serve        = flag.Bool("serve", false, "run the HTTP API instead of a one-shot encode")
		port         = flag.Int("port", cfg.Port, "HTTP API port (with -serve)")
	)
	flag.Parse()

	setupLogging(cfg.LogLevel)

	if cfg.OpenRouterAPIKey == "" {
		slog.Error("OPENROUTER_API_KEY is required")
		os.Exit(1)
	}
	if *codebookPath == "" {
		slog.Error("-codebook is required")
		os.Exit(1)
	}

	cb, err := codebook.FromFile(*codebookPath)
	if err != nil {
		slog.Error("failed to load codebook", "error", err)
		os.Exit(1)
	}
	slog.Info("codebook loaded", "path", *codebookPath, "constructs", cb.Len())

	client := openrouter.NewClient(cfg.OpenRouterAPIKey, *model)
	slog.Info("openrouter client ready", "model", *model)

	// NATS is optional; without it per-document events are skipped.
	var publisher *events.Publisher
	if cfg.NatsURL != "" {
		publisher, err = events.Connect(cfg.NatsURL, slog.Default())
		if err != nil {
			slog.Warn("NATS unavailable — continuing without events", "error", err)
			publisher = nil
		} else {
			defer publisher.Close()
			slog.Info("NATS connected", "url", cfg.NatsURL)
		}
	}

	enc, err := encoder.New(client, cb, encoder.Options{
		MaxTokens:   *maxTokens,
		Temperature: *temperature,
		OnDocumentComplete: func(runID, docID string, table results.Table) {
			publisher.PublishDocumentEncoded(runID, docID, *model, len(table.Rows))
		},
	}, slog.Default())
	if err != nil {
		slog.Error("failed to build encoder", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *serve {
		srv := api.NewServer(*port, enc, slog.Default())
		go func() {
			if err := srv.Start(); err != nil {
				slog.Error("HTTP server error", "error", err)
				os.Exit(1)
			}
		}()
		slog.Info("encoding-prompter ready", "port", *port)
		<-ctx.Done()
		slog.Info("shutting down")
		return
	}

	var docs []document.Document
	switch {
	case *text != "":
		docs = []document.Document{document.FromText(*text, *docID)}
	case *docsPath != "":
		loader := document.NewLoader(slog.Default())
		docs, err = loader.Load(*docsPath)
		if err != nil {
			slog.Error("failed to load documents", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("one of -docs or -text is required")
		os.Exit(1)
	}
	slog.Info("documents loaded", "count", len(docs))

	table, err := enc.Encode(ctx, docs)
	if err != nil {
		slog.Error("encoding run failed", "error", err)
		os.Exit(1)
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			slog.Error("failed to create output file", "path", *outPath, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	if err := table.WriteCSV(out); err != nil {
		slog.Error("failed to write results", "error", err)
		os.Exit(1)
	}
	if *outPath != "" {
		slog.Info("results written", "path", *outPath, "rows", len(table.Rows))
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
