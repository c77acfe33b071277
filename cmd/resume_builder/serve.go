package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/resume-builder/internal/editor"
	"github.com/jonathan/resume-builder/internal/fetch"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/server"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the resume editing, chat, analysis and job endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	database, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	jobs := fetch.NewCachedFetcher(fetch.NewFetcher(fetch.DefaultOptions()), time.Duration(cfg.JobCacheTTL))

	srv := server.New(server.Config{
		Port: cfg.Port,
		Registry: editor.RegistryOptions{
			IdleTimeout:      time.Duration(cfg.IdleTimeout),
			AutosaveDebounce: time.Duration(cfg.AutosaveDebounce),
		},
		RateLimit: ratelimit.DefaultConfig(),
	}, server.Deps{
		Store:      database,
		Completer:  llm.NewChatService(client),
		Structurer: llm.NewStructurer(client),
		Analyzer:   llm.NewAnalyzer(client),
		Jobs:       jobs,
		Logger:     logger,
	})

	return srv.Run(ctx)
}
