package main

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/observability"
)

// loadConfig reads the --config file, .env and the environment
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) observability.Logger {
	return observability.NewZapLogger(cfg.LogFile, cfg.Production)
}

// newLLMClient creates the client of the configured provider
func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	llmConfig, err := llm.ConfigFor(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if cfg.LLMBaseURL != "" {
		llmConfig.BaseURL = cfg.LLMBaseURL
	}
	client, err := llm.NewClient(ctx, llmConfig, cfg.APIKey())
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

// openDB connects to the database and creates missing tables
func openDB(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}
