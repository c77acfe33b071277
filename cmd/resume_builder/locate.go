package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jonathan/resume-builder/internal/analysis"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/spf13/cobra"
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Show where a resume supports each skill",
	Long: `Search a resume JSON file for evidence of each skill, weakest first.
Alternatives are separated by "/", for example --skills "Go,React/Next.js".`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return locateSkills(os.Stdout, locateResume, locateSkillList)
	},
}

var (
	locateResume    string
	locateSkillList []string
)

func init() {
	locateCmd.Flags().StringVar(&locateResume, "resume", "", "Path to a resume JSON file (required)")
	locateCmd.Flags().StringSliceVar(&locateSkillList, "skills", nil, "Comma separated skills (required)")
	_ = locateCmd.MarkFlagRequired("resume")
	_ = locateCmd.MarkFlagRequired("skills")

	rootCmd.AddCommand(locateCmd)
}

func locateSkills(out io.Writer, path string, skills []string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read resume file: %w", err)
	}
	doc, err := resume.Decode(data)
	if err != nil {
		return err
	}

	observability.NewPrinter(out).PrintEvidence(analysis.Items(doc, skills))
	fmt.Fprintf(out, "Coverage: %.0f%%\n", analysis.Coverage(doc, skills)*100)
	return nil
}
