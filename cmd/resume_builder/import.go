package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/extraction"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a resume file",
	Long:  "Extract the text of a PDF, DOCX or plain text resume, structure it with the LLM and store it as a new resume.",
	RunE:  runImport,
}

var (
	importFile  string
	importTitle string
	importType  string
)

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "Path to the resume file (required)")
	importCmd.Flags().StringVar(&importTitle, "title", "", "Resume title (defaults to the file name)")
	importCmd.Flags().StringVar(&importType, "type", db.ResumeTypeBase, "Resume type: base or tailored")
	_ = importCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, _ []string) error {
	if importType != db.ResumeTypeBase && importType != db.ResumeTypeTailored {
		return fmt.Errorf("--type must be %s or %s", db.ResumeTypeBase, db.ResumeTypeTailored)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	text, err := extraction.ExtractFile(importFile)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		fmt.Fprintf(os.Stderr, "Extracted %d characters from %s\n", len(text), importFile)
	}

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

	doc, err := llm.NewStructurer(client).Structure(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to structure resume: %w", err)
	}

	title := importTitle
	if title == "" {
		base := filepath.Base(importFile)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	created, err := database.InsertResume(ctx, &db.ResumeCreateInput{
		Title:   title,
		Type:    importType,
		Content: doc,
	})
	if err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintResume(created.ID.String(), doc)
	return nil
}
