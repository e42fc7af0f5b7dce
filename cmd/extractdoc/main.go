package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mfcosta/listings-tracker/constants"
	"github.com/mfcosta/listings-tracker/internal/common"
	"github.com/mfcosta/listings-tracker/internal/extract"
	"github.com/mfcosta/listings-tracker/internal/llm/openai"
)

// extractdoc runs one document through the extraction stage and prints the
// candidate records as JSON. Useful for prompt tuning without the server.
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "extractdoc <document-file>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg := common.LoadConfig()
	if cfg.Extractor.APIKey == "" {
		logger.Error("OPENAI_API_KEY required")
		os.Exit(1)
	}

	dataURI, err := fileToDataURI(path)
	if err != nil {
		logger.Error("read document", "path", path, "error", err)
		os.Exit(1)
	}

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.Extractor.APIKey,
		BaseURL:     cfg.Extractor.BaseURL,
		Model:       cfg.Extractor.Model,
		Temperature: cfg.Extractor.Temperature,
		Timeout:     cfg.Extractor.Timeout,
	}, logger)
	orchestrator := extract.NewOrchestrator(client, cfg.Extractor.Timeout, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	batch, err := orchestrator.ExtractRecords(ctx, dataURI, filepath.Base(path))
	if err != nil {
		logger.Error("extraction failed",
			"kind", string(common.KindOf(err)),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		os.Exit(1)
	}

	logger.Info("extraction OK",
		"candidates", len(batch.Candidates),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	out, err := json.MarshalIndent(batch.Candidates, "", "  ")
	if err != nil {
		logger.Error("marshal candidates", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func fileToDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var mime string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		mime = "application/pdf"
	case ".docx":
		mime = constants.DocxMIME
	case ".png":
		mime = "image/png"
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	case ".webp":
		mime = "image/webp"
	default:
		return "", fmt.Errorf("unsupported document extension %q", filepath.Ext(path))
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
