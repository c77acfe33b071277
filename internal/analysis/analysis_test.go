package analysis

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc() *types.ResumeDocument {
	return &types.ResumeDocument{
		WorkExperience: []types.WorkExperience{
			{
				ID: "we-1", Company: "Acme", Role: "Frontend Engineer",
				Responsibilities: []types.Responsibility{
					{Text: "Built dashboards in React and TypeScript"},
					{Text: "Mentored two juniors", Mode: types.ModeProposedDeletion},
				},
			},
			{
				ID: "we-2", Company: "Globex", Role: "Engineer",
				Responsibilities: []types.Responsibility{
					{Text: "Migrated the storefront to Next.js", Mode: types.ModeProposedNew},
				},
			},
		},
		Skills: []string{"SQL", "Docker"},
	}
}

func TestLocate_Contextual(t *testing.T) {
	evidence := Locate(testDoc(), "react")
	require.Len(t, evidence, 1)
	assert.Equal(t, Evidence{Role: "Frontend Engineer", Company: "Acme", Text: "Built dashboards in React and TypeScript"}, evidence[0])
	assert.Equal(t, StrengthContextual, StrengthOf(evidence))
}

func TestLocate_AlternativesAcrossEntries(t *testing.T) {
	evidence := Locate(testDoc(), " React / Next.js ")
	require.Len(t, evidence, 2)
	assert.Equal(t, "Acme", evidence[0].Company)
	assert.Equal(t, "Globex", evidence[1].Company, "responsibilities in review are searched too")
}

func TestLocate_SkillsListFallback(t *testing.T) {
	evidence := Locate(testDoc(), "SQL")
	require.Len(t, evidence, 1)
	assert.Equal(t, Evidence{Role: ResumeRole, Text: TextOnlyInSkills}, evidence[0])
	assert.Equal(t, StrengthListed, StrengthOf(evidence))
}

func TestLocate_NotFound(t *testing.T) {
	for _, expr := range []string{"Go", "", " / "} {
		evidence := Locate(testDoc(), expr)
		require.Len(t, evidence, 1)
		assert.Equal(t, Evidence{Role: ResumeRole, Text: TextNotFound}, evidence[0])
		assert.Equal(t, StrengthMissing, StrengthOf(evidence))
	}
}

func TestSortByEvidence(t *testing.T) {
	doc := testDoc()
	input := []string{"React", "SQL", "Go"}

	assert.Equal(t, []string{"Go", "SQL", "React"}, SortByEvidence(doc, input))
	assert.Equal(t, []string{"React", "SQL", "Go"}, input, "input is not modified")
}

func TestSortByEvidence_StableWithinStrength(t *testing.T) {
	doc := testDoc()
	got := SortByEvidence(doc, []string{"TypeScript", "Kotlin", "Docker", "React", "Rust", "SQL"})
	assert.Equal(t, []string{"Kotlin", "Rust", "Docker", "SQL", "TypeScript", "React"}, got)
}

func TestItems(t *testing.T) {
	items := Items(testDoc(), []string{"React", "SQL", "Go"})
	require.Len(t, items, 3)
	assert.Equal(t, "Go", items[0].Skill)
	assert.Equal(t, StrengthMissing, items[0].Strength)
	assert.Equal(t, StrengthListed, items[1].Strength)
	assert.Equal(t, "React", items[2].Skill)
	assert.Equal(t, StrengthContextual, items[2].Strength)
	assert.Len(t, items[2].Evidence, 1)

	assert.Empty(t, Items(testDoc(), nil))
}

func TestNormalizeScore(t *testing.T) {
	tests := []struct {
		score, weight float64
		want          float64
		max           bool
	}{
		{30, 30, 10, true},
		{27, 30, 9, false},
		{1, 3, 3.3, false},
		{2, 3, 6.7, false},
		{29.99, 30, 10, true},
		{5, 0, 0, false},
		{5, -1, 0, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeScore(tt.score, tt.weight), "score %v weight %v", tt.score, tt.weight)
		assert.Equal(t, tt.max, IsMaxScore(tt.score, tt.weight))
	}
}

func TestCoverage(t *testing.T) {
	assert.Equal(t, 0.5, Coverage(testDoc(), []string{"React", "SQL"}))
	assert.Equal(t, 0.0, Coverage(testDoc(), nil))
}

const sampleResult = `{
	"Hard Skills": {"Weight": 40, "Required Skills": ["React", "SQL", "Go"], "Matched Skills": ["React", "SQL"], "Score": 28},
	"Soft Skills": {"Weight": 10, "Required Skills": ["Mentor"], "Matched Skills": ["Mentor"], "Score": 10},
	"Other Keywords": {"Weight": 20, "Industry-Specific Terms": ["storefront"], "Resume Matches": ["storefront"], "Score": 20},
	"Job Title Match": {"Weight": 20, "Resume Job Titles": ["Frontend Engineer"], "Explanation": "Close match", "Score": 15},
	"Education Level": {"Weight": 10, "Explanation": "Degree matches", "Score": 10},
	"Summary and recommendations": "Add Go experience.",
	"Final Score": 83
}`

func TestParseResult_Forms(t *testing.T) {
	encoded, err := json.Marshal(sampleResult)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"object":         sampleResult,
		"array of one":   "[" + sampleResult + "]",
		"encoded string": string(encoded),
	} {
		t.Run(name, func(t *testing.T) {
			result, err := ParseResult([]byte(raw))
			require.NoError(t, err)
			assert.Equal(t, 83.0, result.FinalScore)
			assert.Equal(t, []string{"React", "SQL", "Go"}, result.HardSkills.RequiredSkills)
			assert.Equal(t, "Add Go experience.", result.Summary)
		})
	}
}

func TestParseResult_Invalid(t *testing.T) {
	for _, raw := range []string{`not json`, `[]`, `{"Final Score": 50}`, `{"Hard Skills": {}, "Final Score": "high"}`} {
		_, err := ParseResult([]byte(raw))
		var parseErr *ParseError
		assert.True(t, errors.As(err, &parseErr), "input %s", raw)
	}
}

func TestBuild(t *testing.T) {
	result, err := ParseResult([]byte(sampleResult))
	require.NoError(t, err)

	report := Build(testDoc(), result)
	require.Len(t, report.Categories, 3)

	hard := report.Categories[0]
	assert.Equal(t, types.CategoryHardSkills, hard.Name)
	assert.Equal(t, 7.0, hard.Normalized)
	assert.False(t, hard.IsMax)
	assert.Equal(t, Counts{Missing: 1, Listed: 1, Contextual: 1}, hard.Counts)
	require.Len(t, hard.Items, 3)
	assert.Equal(t, "Go", hard.Items[0].Skill)
	assert.Equal(t, StrengthMissing, hard.Items[0].Strength)
	assert.Equal(t, "React", hard.Items[2].Skill)

	soft := report.Categories[1]
	assert.True(t, soft.IsMax)
	assert.Equal(t, StrengthContextual, soft.Items[0].Strength)

	assert.Equal(t, types.CategoryOtherKeywords, report.Categories[2].Name)
	assert.Equal(t, 7.5, report.JobTitleMatch.Normalized)
	assert.True(t, report.EducationLevel.IsMax)
	assert.Equal(t, 83.0, report.FinalScore, "final score is passed through")
	assert.Equal(t, 0.5, report.Coverage)
}

func TestStrength_MarshalText(t *testing.T) {
	out, err := json.Marshal(Item{Skill: "Go", Strength: StrengthListed})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"strength":"listed"`)
}

func TestParseResult_StoredFormParsesAgain(t *testing.T) {
	result, err := ParseResult([]byte(`{"Hard Skills": {"Weight": 40, "Required Skills": ["Go"], "Score": 30}, "Final Score": 70}`))
	require.NoError(t, err)

	stored, err := json.Marshal(result)
	require.NoError(t, err)
	assert.NotContains(t, string(stored), "null")

	again, err := ParseResult(stored)
	require.NoError(t, err)
	assert.Equal(t, 70.0, again.FinalScore)
	assert.Equal(t, []string{"Go"}, again.HardSkills.RequiredSkills)
	assert.Empty(t, again.SoftSkills.RequiredSkills)
}

func TestReport_JSONRoundTrip(t *testing.T) {
	result, err := ParseResult([]byte(sampleResult))
	require.NoError(t, err)
	report := Build(testDoc(), result)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report.Categories[0].Items, decoded.Categories[0].Items)
	assert.Equal(t, StrengthMissing, decoded.Categories[0].Items[0].Strength)

	var s Strength
	assert.Error(t, s.UnmarshalText([]byte("strong")))
}
