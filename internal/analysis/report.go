package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/jonathan/resume-builder/internal/types"
	schemafiles "github.com/jonathan/resume-builder/schemas"
	"github.com/tidwall/gjson"
)

// MaxNormalizedScore is the top of the display scale
const MaxNormalizedScore = 10.0

// NormalizeScore maps a raw category score onto 0..10, rounded to one decimal.
// A non-positive weight yields 0.
func NormalizeScore(score, weight float64) float64 {
	if weight <= 0 {
		return 0
	}
	return math.Round(score/weight*MaxNormalizedScore*10) / 10
}

// IsMaxScore reports whether the normalised score is exactly the top of the scale
func IsMaxScore(score, weight float64) bool {
	return NormalizeScore(score, weight) == MaxNormalizedScore
}

// Item is one required skill with its located evidence
type Item struct {
	Skill    string     `json:"skill"`
	Strength Strength   `json:"strength"`
	Evidence []Evidence `json:"evidence"`
}

// Counts tallies items by strength
type Counts struct {
	Missing    int `json:"missing"`
	Listed     int `json:"listed"`
	Contextual int `json:"contextual"`
}

// CategoryReport is a skill or keyword category with evidence, weakest items first
type CategoryReport struct {
	Name       string   `json:"name"`
	Weight     float64  `json:"weight"`
	Score      float64  `json:"score"`
	Normalized float64  `json:"normalized"`
	IsMax      bool     `json:"isMax"`
	Matched    []string `json:"matched"`
	Items      []Item   `json:"items"`
	Counts     Counts   `json:"counts"`
}

// ScoredNote is a category that carries an explanation instead of a skill list
type ScoredNote struct {
	Name        string   `json:"name"`
	Weight      float64  `json:"weight"`
	Score       float64  `json:"score"`
	Normalized  float64  `json:"normalized"`
	IsMax       bool     `json:"isMax"`
	Explanation string   `json:"explanation"`
	Titles      []string `json:"titles,omitempty"`
}

// Report is the display form of an analysis result for one resume
type Report struct {
	Categories     []CategoryReport `json:"categories"`
	JobTitleMatch  ScoredNote       `json:"jobTitleMatch"`
	EducationLevel ScoredNote       `json:"educationLevel"`
	FinalScore     float64          `json:"finalScore"`
	Summary        string           `json:"summary,omitempty"`
	Coverage       float64          `json:"coverage"`
}

func buildCategory(doc *types.ResumeDocument, name string, weight, score float64, required, matched []string) CategoryReport {
	c := CategoryReport{
		Name:       name,
		Weight:     weight,
		Score:      score,
		Normalized: NormalizeScore(score, weight),
		IsMax:      IsMaxScore(score, weight),
		Matched:    matched,
		Items:      Items(doc, required),
	}
	for _, item := range c.Items {
		switch item.Strength {
		case StrengthMissing:
			c.Counts.Missing++
		case StrengthListed:
			c.Counts.Listed++
		default:
			c.Counts.Contextual++
		}
	}
	return c
}

// Items locates evidence for each skill, weakest first
func Items(doc *types.ResumeDocument, skills []string) []Item {
	items := make([]Item, 0, len(skills))
	for _, skill := range SortByEvidence(doc, skills) {
		evidence, strength := locate(doc, skill)
		items = append(items, Item{Skill: skill, Strength: strength, Evidence: evidence})
	}
	return items
}

// Build combines a collaborator result with locally located evidence
func Build(doc *types.ResumeDocument, result *types.AnalysisResult) Report {
	hard := result.HardSkills
	soft := result.SoftSkills
	other := result.OtherKeywords

	report := Report{
		Categories: []CategoryReport{
			buildCategory(doc, types.CategoryHardSkills, hard.Weight, hard.Score, hard.RequiredSkills, hard.MatchedSkills),
			buildCategory(doc, types.CategorySoftSkills, soft.Weight, soft.Score, soft.RequiredSkills, soft.MatchedSkills),
			buildCategory(doc, types.CategoryOtherKeywords, other.Weight, other.Score, other.IndustryTerms, other.ResumeMatches),
		},
		JobTitleMatch: ScoredNote{
			Name:        types.CategoryJobTitleMatch,
			Weight:      result.JobTitleMatch.Weight,
			Score:       result.JobTitleMatch.Score,
			Normalized:  NormalizeScore(result.JobTitleMatch.Score, result.JobTitleMatch.Weight),
			IsMax:       IsMaxScore(result.JobTitleMatch.Score, result.JobTitleMatch.Weight),
			Explanation: result.JobTitleMatch.Explanation,
			Titles:      result.JobTitleMatch.ResumeJobTitles,
		},
		EducationLevel: ScoredNote{
			Name:        types.CategoryEducationLevel,
			Weight:      result.EducationLevel.Weight,
			Score:       result.EducationLevel.Score,
			Normalized:  NormalizeScore(result.EducationLevel.Score, result.EducationLevel.Weight),
			IsMax:       IsMaxScore(result.EducationLevel.Score, result.EducationLevel.Weight),
			Explanation: result.EducationLevel.Explanation,
		},
		FinalScore: result.FinalScore,
		Summary:    result.Summary,
	}

	required := append(append([]string{}, hard.RequiredSkills...), soft.RequiredSkills...)
	report.Coverage = Coverage(doc, required)
	return report
}

// ParseError is returned when collaborator output cannot be used as an analysis result
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid analysis result: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid analysis result: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ParseResult decodes collaborator output. Older deployments wrapped the result in a
// one-element array or a JSON-encoded string; both are unwrapped.
func ParseResult(raw []byte) (*types.AnalysisResult, error) {
	text := strings.TrimSpace(string(raw))
	for i := 0; i < 3; i++ {
		if !gjson.Valid(text) {
			return nil, &ParseError{Message: "output is not valid JSON"}
		}
		parsed := gjson.Parse(text)
		if parsed.Type == gjson.String {
			text = strings.TrimSpace(parsed.String())
			continue
		}
		if parsed.IsArray() {
			items := parsed.Array()
			if len(items) == 0 {
				return nil, &ParseError{Message: "output is an empty list"}
			}
			text = items[0].Raw
			continue
		}
		break
	}

	if err := schemas.ValidateJSONString(schemafiles.Analysis, text); err != nil {
		return nil, &ParseError{Message: "output does not match the analysis schema", Cause: err}
	}

	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, &ParseError{Message: "failed to decode", Cause: err}
	}
	return &result, nil
}
