package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/resume-builder/internal/analysis"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a stored resume against its linked jobs",
	Long:  "Run the LLM analysis of a stored resume against the jobs linked to it, store the result and print the report.",
	RunE:  runAnalyze,
}

var (
	analyzeResumeID string
	analyzeJSON     bool
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeResumeID, "resume-id", "", "Resume ID (required)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the report as JSON")
	_ = analyzeCmd.MarkFlagRequired("resume-id")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

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

	var (
		doc  *types.ResumeDocument
		jobs []db.Job
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loaded, _, err := database.LoadDocument(gctx, analyzeResumeID)
		if err != nil {
			return err
		}
		if loaded == nil {
			return fmt.Errorf("resume %s not found", analyzeResumeID)
		}
		doc = loaded
		return nil
	})
	g.Go(func() error {
		linked, err := database.ListLinkedJobs(gctx, analyzeResumeID)
		jobs = linked
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "Analyzing against %d linked jobs\n", len(jobs))
	}
	result, raw, err := llm.NewAnalyzer(client).Analyze(ctx, &types.AnalysisRequest{
		ResumeContent:   doc,
		JobDescriptions: db.Descriptions(jobs),
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if err := database.UpdateAnalysis(ctx, analyzeResumeID, raw); err != nil {
		return err
	}

	report := analysis.Build(doc, result)
	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	observability.NewPrinter(os.Stdout).PrintReport(&report)
	return nil
}
