package patch

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sampleDoc() *types.ResumeDocument {
	return &types.ResumeDocument{
		IDSeq:               2,
		PersonalInfo:        types.PersonalInfo{Name: "Jane Doe", Email: "jane@example.com", Phone: "555"},
		ProfessionalSummary: "Backend engineer",
		Education:           types.Education{University: "State", Degree: "BSc"},
		WorkExperience: []types.WorkExperience{
			{ID: "we-1", Company: "Acme", Role: "Engineer", Responsibilities: []types.Responsibility{{Text: "Built APIs"}}},
			{ID: "we-2", Company: "Globex", Role: "Lead"},
		},
		Skills:    []string{"Go", "SQL"},
		Languages: []types.Language{{Language: "English", Fluency: "Native"}},
	}
}

func TestApply_AIListAppends(t *testing.T) {
	engine := NewEngine(nil)
	doc := sampleDoc()

	res, err := engine.Apply(doc, types.SectionSkills, json.RawMessage(`["Kubernetes","Go"]`), SourceAI)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL", "Kubernetes", "Go"}, doc.Skills, "duplicates are kept in insertion order")
	assert.Equal(t, []string{types.SectionSkills}, res.Sections)

	_, err = engine.Apply(doc, types.SectionSkills, json.RawMessage(`"Docker"`), SourceAI)
	require.NoError(t, err)
	assert.Len(t, doc.Skills, 5)
	assert.Equal(t, "Docker", doc.Skills[4])
}

func TestApply_AIWorkExperienceAppendsProposedEntries(t *testing.T) {
	engine := NewEngine(nil)
	doc := sampleDoc()
	before := len(doc.WorkExperience)

	value := json.RawMessage(`[
		{"id": "we-1", "company": "Initech", "role": "SRE", "responsibilities": ["Ran on-call", "Cut latency"]},
		{"company": "Umbrella"}
	]`)
	res, err := engine.Apply(doc, types.SectionWorkExperience, value, SourceAI)
	require.NoError(t, err)

	require.Len(t, doc.WorkExperience, before+2)
	assert.Equal(t, []string{"we-3", "we-4"}, res.EntryIDs)
	assert.Equal(t, "Acme", doc.WorkExperience[0].Company, "existing entries are untouched")

	added := doc.WorkExperience[2]
	assert.Equal(t, "we-3", added.ID, "an id from the payload never replaces a fresh one")
	assert.Equal(t, types.EntryProposedNew, added.Mode)
	require.Len(t, added.Responsibilities, 2)
	assert.Equal(t, "Ran on-call", added.Responsibilities[0].Text)
}

func TestApply_AISingleEntryObject(t *testing.T) {
	engine := NewEngine(nil)
	doc := sampleDoc()

	_, err := engine.Apply(doc, types.SectionWorkExperience, json.RawMessage(`{"company": "Hooli", "responsibilities": ["Scaled search"]}`), SourceAI)
	require.NoError(t, err)
	require.Len(t, doc.WorkExperience, 3)
	assert.Equal(t, "Hooli", doc.WorkExperience[2].Company)
}

func TestApply_UserListReplaces(t *testing.T) {
	engine := NewEngine(nil)
	doc := sampleDoc()

	_, err := engine.Apply(doc, types.SectionSkills, json.RawMessage(`["Rust"]`), SourceUser)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rust"}, doc.Skills)

	_, err = engine.Apply(doc, types.SectionSkills, json.RawMessage(`"Rust"`), SourceUser)
	var shapeErr *ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, []string{"Rust"}, doc.Skills)
}

func TestApply_UserWorkExperienceKeepsKnownIDs(t *testing.T) {
	engine := NewEngine(nil)
	doc := sampleDoc()

	value := json.RawMessage(`[
		{"id": "we-2", "company": "Globex", "role": "Principal"},
		{"id": "we-2", "company": "Copy"},
		{"id": "we-77", "company": "Forged"},
		{"company": "Fresh", "mode": "bogus"}
	]`)
	res, err := engine.Apply(doc, types.SectionWorkExperience, value, SourceUser)
	require.NoError(t, err)

	require.Len(t, doc.WorkExperience, 4)
	assert.Equal(t, "we-2", doc.WorkExperience[0].ID)
	assert.Equal(t, "Principal", doc.WorkExperience[0].Role)
	assert.Equal(t, []string{"we-3", "we-4", "we-5"}, res.EntryIDs)
	assert.Equal(t, "we-3", doc.WorkExperience[1].ID, "repeated id gets a fresh one")
	assert.Equal(t, "we-4", doc.WorkExperience[2].ID, "unknown id is not trusted")
	assert.Equal(t, types.EntryCommitted, doc.WorkExperience[3].Mode)
	assert.Equal(t, 5, doc.IDSeq)
}

func TestApply_UserScalarReplaces(t *testing.T) {
	engine := NewEngine(nil)
	doc := sampleDoc()

	_, err := engine.Apply(doc, types.SectionProfessionalSummary, json.RawMessage(`"Platform engineer"`), SourceUser)
	require.NoError(t, err)
	assert.Equal(t, "Platform engineer", doc.ProfessionalSummary)

	_, err = engine.Apply(doc, types.SectionProfessionalSummary, json.RawMessage(`{"text": "x"}`), SourceUser)
	assert.Error(t, err)
	assert.Equal(t, "Platform engineer", doc.ProfessionalSummary)
}

func TestApply_ObjectSectionsMergeShallow(t *testing.T) {
	engine := NewEngine(nil)
	doc := sampleDoc()

	_, err := engine.Apply(doc, types.SectionPersonalInfo, json.RawMessage(`{"email": "new@example.com", "role": "Staff Engineer"}`), SourceAI)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", doc.PersonalInfo.Name)
	assert.Equal(t, "555", doc.PersonalInfo.Phone)
	assert.Equal(t, "new@example.com", doc.PersonalInfo.Email)
	assert.Equal(t, "Staff Engineer", doc.PersonalInfo.Role)

	_, err = engine.Apply(doc, types.SectionEducation, json.RawMessage(`[{"degree": "MSc"}]`), SourceAI)
	require.NoError(t, err)
	assert.Equal(t, "State", doc.Education.University)
	assert.Equal(t, "MSc", doc.Education.Degree)

	_, err = engine.Apply(doc, types.SectionPersonalInfo, json.RawMessage(`{"name": 42}`), SourceUser)
	assert.Error(t, err)
	assert.Equal(t, "Jane Doe", doc.PersonalInfo.Name)
}

func TestApply_PersonalInfoSnakeCaseNames(t *testing.T) {
	engine := NewEngine(nil)
	doc := sampleDoc()
	doc.PersonalInfo.FirstName = "Ann"
	doc.PersonalInfo.LastName = "Lee"

	_, err := engine.Apply(doc, types.SectionPersonalInfo, json.RawMessage(`{"first_name": "Anna", "last_name": "Li"}`), SourceAI)
	require.NoError(t, err)
	assert.Equal(t, "Anna", doc.PersonalInfo.FirstName)
	assert.Equal(t, "Li", doc.PersonalInfo.LastName)
	assert.Equal(t, "Jane Doe", doc.PersonalInfo.Name)
}

func TestApply_LegacyShapesFromAI(t *testing.T) {
	engine := NewEngine(nil)
	doc := sampleDoc()

	_, err := engine.Apply(doc, types.SectionSocialMediaAndLinks, json.RawMessage(`{"linkedin": "https://linkedin.com/in/jane"}`), SourceAI)
	require.NoError(t, err)
	assert.Equal(t, []types.SocialLink{{Label: "linkedin", URL: "https://linkedin.com/in/jane"}}, doc.SocialMediaAndLinks)

	_, err = engine.Apply(doc, types.SectionLanguages, json.RawMessage(`["German"]`), SourceAI)
	require.NoError(t, err)
	assert.Equal(t, types.Language{Language: "German"}, doc.Languages[1])
}

func TestApply_UnknownSectionStoredAndLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	engine := NewEngine(observability.NewWithCore(core))
	doc := sampleDoc()

	res, err := engine.Apply(doc, "awards", json.RawMessage(`[{"title": "Hackathon"}]`), SourceAI)
	require.NoError(t, err)
	assert.Equal(t, []string{"awards"}, res.Unknown)
	assert.JSONEq(t, `[{"title": "Hackathon"}]`, string(doc.Extra["awards"]))

	entries := logs.FilterMessage("unknown section stored verbatim").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Patch", entries[0].ContextMap()["module"])
}

func TestApply_RejectsBookkeepingAndInvalidJSON(t *testing.T) {
	engine := NewEngine(nil)
	doc := sampleDoc()

	_, err := engine.Apply(doc, types.KeyIDSeq, json.RawMessage(`1`), SourceAI)
	assert.Error(t, err)
	_, err = engine.Apply(doc, types.SectionSkills, json.RawMessage(`[broken`), SourceAI)
	assert.Error(t, err)
	assert.Equal(t, 2, doc.IDSeq)
}

func TestApply_SiblingsUntouched(t *testing.T) {
	engine := NewEngine(nil)
	doc := sampleDoc()
	want := sampleDoc()

	_, err := engine.Apply(doc, types.SectionWorkExperience, json.RawMessage(`{"company": "New"}`), SourceAI)
	require.NoError(t, err)

	assert.Equal(t, want.Skills, doc.Skills)
	assert.Equal(t, want.PersonalInfo, doc.PersonalInfo)
	assert.Equal(t, want.Languages, doc.Languages)
	assert.Equal(t, want.ProfessionalSummary, doc.ProfessionalSummary)
}

func TestApplyAll_AllOrNothing(t *testing.T) {
	engine := NewEngine(nil)
	doc := sampleDoc()

	_, err := engine.ApplyAll(doc, map[string]json.RawMessage{
		types.SectionSkills:              json.RawMessage(`["Kafka"]`),
		types.SectionProfessionalSummary: json.RawMessage(`123`),
	}, SourceAI)
	require.Error(t, err)
	assert.Equal(t, sampleDoc().Skills, doc.Skills)

	res, err := engine.ApplyAll(doc, map[string]json.RawMessage{
		"awards":                         json.RawMessage(`[]`),
		types.SectionSkills:              json.RawMessage(`["Kafka"]`),
		types.SectionProfessionalSummary: json.RawMessage(`"Updated"`),
	}, SourceAI)
	require.NoError(t, err)
	assert.Equal(t, []string{types.SectionProfessionalSummary, types.SectionSkills, "awards"}, res.Sections)
	assert.Contains(t, doc.Skills, "Kafka")
	assert.Equal(t, "Updated", doc.ProfessionalSummary)
}
