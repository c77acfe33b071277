// Package types provides type definitions for structured data used throughout the resume-builder system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "encoding/json"

// Analysis category names as produced by the analysis collaborator
const (
	CategoryHardSkills     = "Hard Skills"
	CategorySoftSkills     = "Soft Skills"
	CategoryOtherKeywords  = "Other Keywords"
	CategoryJobTitleMatch  = "Job Title Match"
	CategoryEducationLevel = "Education Level"
)

// AnalysisResult is the scored analysis of a resume against target jobs.
// It is derived data; FinalScore is computed by the collaborator, not locally.
type AnalysisResult struct {
	HardSkills     SkillCategory   `json:"Hard Skills"`
	SoftSkills     SkillCategory   `json:"Soft Skills"`
	OtherKeywords  KeywordCategory `json:"Other Keywords"`
	JobTitleMatch  JobTitleMatch   `json:"Job Title Match"`
	EducationLevel EducationLevel  `json:"Education Level"`
	Summary        string          `json:"Summary and recommendations,omitempty"`
	FinalScore     float64         `json:"Final Score"`
}

// SkillCategory scores required skills against the resume
type SkillCategory struct {
	Weight         float64  `json:"Weight"`
	RequiredSkills []string `json:"Required Skills"`
	MatchedSkills  []string `json:"Matched Skills"`
	Score          float64  `json:"Score"`
}

// KeywordCategory scores industry terms against the resume
type KeywordCategory struct {
	Weight        float64  `json:"Weight"`
	IndustryTerms []string `json:"Industry-Specific Terms"`
	ResumeMatches []string `json:"Resume Matches"`
	Score         float64  `json:"Score"`
}

// JobTitleMatch scores how well past titles fit the target role
type JobTitleMatch struct {
	Weight          float64  `json:"Weight"`
	ResumeJobTitles []string `json:"Resume Job Titles"`
	Explanation     string   `json:"Explanation"`
	Score           float64  `json:"Score"`
}

// EducationLevel scores education against the target role
type EducationLevel struct {
	Weight      float64 `json:"Weight"`
	Explanation string  `json:"Explanation"`
	Score       float64 `json:"Score"`
}

// MarshalJSON writes absent skill lists as empty arrays so the stored form still
// matches the analysis schema
func (c SkillCategory) MarshalJSON() ([]byte, error) {
	type plain SkillCategory
	c.RequiredSkills = orEmpty(c.RequiredSkills)
	c.MatchedSkills = orEmpty(c.MatchedSkills)
	return json.Marshal(plain(c))
}

// MarshalJSON writes absent term lists as empty arrays
func (c KeywordCategory) MarshalJSON() ([]byte, error) {
	type plain KeywordCategory
	c.IndustryTerms = orEmpty(c.IndustryTerms)
	c.ResumeMatches = orEmpty(c.ResumeMatches)
	return json.Marshal(plain(c))
}

// MarshalJSON writes an absent title list as an empty array
func (m JobTitleMatch) MarshalJSON() ([]byte, error) {
	type plain JobTitleMatch
	m.ResumeJobTitles = orEmpty(m.ResumeJobTitles)
	return json.Marshal(plain(m))
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

// AnalysisRequest is sent to the analysis collaborator
type AnalysisRequest struct {
	ResumeContent *ResumeDocument `json:"resumeContent"`
	// JobDescriptions are the descriptions of linked jobs, if any
	JobDescriptions []string `json:"jobDescriptions,omitempty"`
}
