// Package analysis locates evidence for required skills in a resume and builds scored reports
// from the analysis collaborator's output.
//
// The weighted Final Score is produced by the collaborator. This package only locates
// skills, orders them by how well the resume supports them and normalises category scores
// for display.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/resume-builder/internal/types"
)

// Synthetic evidence values used when no responsibility mentions a skill
const (
	ResumeRole       = "Resume"
	TextOnlyInSkills = "Only Found in skills list"
	TextNotFound     = "Not found in resume"
)

// Strength grades how well the resume supports a skill
type Strength int

const (
	// StrengthMissing means the skill appears nowhere in the resume
	StrengthMissing Strength = iota
	// StrengthListed means the skill is only in the skills list
	StrengthListed
	// StrengthContextual means a responsibility mentions the skill
	StrengthContextual
)

func (s Strength) String() string {
	switch s {
	case StrengthContextual:
		return "contextual"
	case StrengthListed:
		return "listed"
	default:
		return "missing"
	}
}

// MarshalText writes the strength by name
func (s Strength) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText reads a strength written by MarshalText
func (s *Strength) UnmarshalText(text []byte) error {
	switch string(text) {
	case "missing":
		*s = StrengthMissing
	case "listed":
		*s = StrengthListed
	case "contextual":
		*s = StrengthContextual
	default:
		return fmt.Errorf("unknown strength %q", text)
	}
	return nil
}

// Evidence is one place a skill was found
type Evidence struct {
	Role    string `json:"role"`
	Company string `json:"company"`
	Text    string `json:"text"`
}

// alternatives splits "React/Next.js" into lowercased, trimmed, non-empty terms
func alternatives(expr string) []string {
	var out []string
	for _, alt := range strings.Split(expr, "/") {
		alt = strings.ToLower(strings.TrimSpace(alt))
		if alt != "" {
			out = append(out, alt)
		}
	}
	return out
}

func containsAny(text string, alts []string) bool {
	lower := strings.ToLower(text)
	for _, alt := range alts {
		if strings.Contains(lower, alt) {
			return true
		}
	}
	return false
}

func locate(doc *types.ResumeDocument, expr string) ([]Evidence, Strength) {
	alts := alternatives(expr)
	if len(alts) == 0 || doc == nil {
		return []Evidence{{Role: ResumeRole, Text: TextNotFound}}, StrengthMissing
	}

	var found []Evidence
	for _, entry := range doc.WorkExperience {
		for _, r := range entry.Responsibilities {
			if containsAny(r.Text, alts) {
				found = append(found, Evidence{Role: entry.Role, Company: entry.Company, Text: r.Text})
			}
		}
	}
	if len(found) > 0 {
		return found, StrengthContextual
	}

	for _, skill := range doc.Skills {
		if containsAny(skill, alts) {
			return []Evidence{{Role: ResumeRole, Text: TextOnlyInSkills}}, StrengthListed
		}
	}
	return []Evidence{{Role: ResumeRole, Text: TextNotFound}}, StrengthMissing
}

// Locate finds where the resume supports a skill expression. Alternatives are separated by
// "/" and matched case-insensitively as substrings. Responsibility text is searched first;
// the skills list is a fallback. Responsibilities in every review state are searched.
// The result is never empty: a fallback hit or a miss yields one synthetic record.
func Locate(doc *types.ResumeDocument, expr string) []Evidence {
	evidence, _ := locate(doc, expr)
	return evidence
}

// StrengthOf grades evidence returned by Locate
func StrengthOf(evidence []Evidence) Strength {
	if len(evidence) == 1 && evidence[0].Role == ResumeRole && evidence[0].Company == "" {
		switch evidence[0].Text {
		case TextNotFound:
			return StrengthMissing
		case TextOnlyInSkills:
			return StrengthListed
		}
	}
	if len(evidence) == 0 {
		return StrengthMissing
	}
	return StrengthContextual
}

// SortByEvidence orders skills weakest first: missing, then listed, then contextual.
// Skills of equal strength keep their input order. The input slice is not modified.
func SortByEvidence(doc *types.ResumeDocument, skills []string) []string {
	strengths := make(map[string]Strength, len(skills))
	for _, skill := range skills {
		if _, ok := strengths[skill]; !ok {
			_, strengths[skill] = locate(doc, skill)
		}
	}

	out := append([]string(nil), skills...)
	sort.SliceStable(out, func(i, j int) bool {
		return strengths[out[i]] < strengths[out[j]]
	})
	return out
}

// Coverage is the share of skills with contextual evidence, from 0 to 1. It is informative
// only and never replaces the collaborator's Final Score.
func Coverage(doc *types.ResumeDocument, skills []string) float64 {
	if len(skills) == 0 {
		return 0
	}
	supported := 0
	for _, skill := range skills {
		if _, strength := locate(doc, skill); strength == StrengthContextual {
			supported++
		}
	}
	return float64(supported) / float64(len(skills))
}
