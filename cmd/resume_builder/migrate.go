package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade a resume JSON file to the current schema",
	Long:  "Convert legacy list shapes and assign missing work experience ids. Running it on a current document changes nothing.",
	RunE: func(_ *cobra.Command, _ []string) error {
		return migrateFile(migrateIn, migrateOut)
	},
}

var (
	migrateIn  string
	migrateOut string
)

func init() {
	migrateCmd.Flags().StringVarP(&migrateIn, "in", "i", "", "Path to the input JSON file (required)")
	migrateCmd.Flags().StringVarP(&migrateOut, "out", "o", "", "Path to the output JSON file (default stdout)")
	_ = migrateCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(migrateCmd)
}

func migrateFile(inPath, outPath string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	migrated, err := resume.Migrate(data)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, migrated, "", "  "); err != nil {
		return fmt.Errorf("failed to format document: %w", err)
	}
	pretty.WriteByte('\n')

	if outPath == "" {
		_, err := os.Stdout.Write(pretty.Bytes())
		return err
	}
	if err := os.WriteFile(outPath, pretty.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
