// Package patch applies partial updates to a ResumeDocument.
//
// Updates come from two places: form edits made by the user and structured payloads
// proposed by the assistant. User values replace the section they touch. Assistant values
// for list sections are appended so a proposal never overwrites existing content.
package patch

import (
	"encoding/json"
	"sort"

	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const logModule = "Patch"

// Source tells the engine who produced a value
type Source int

const (
	// SourceUser is a direct form edit; list values replace the section
	SourceUser Source = iota
	// SourceAI is an assistant proposal; list values are appended
	SourceAI
)

func (s Source) String() string {
	if s == SourceAI {
		return "ai"
	}
	return "user"
}

// Result reports what an apply call changed
type Result struct {
	// Sections lists the sections written, in application order
	Sections []string `json:"sections"`
	// Unknown lists sections the model does not know; they were stored verbatim
	Unknown []string `json:"unknown,omitempty"`
	// EntryIDs lists ids issued to work experience entries by this call
	EntryIDs []string `json:"entryIds,omitempty"`
}

func (r *Result) merge(other Result) {
	r.Sections = append(r.Sections, other.Sections...)
	r.Unknown = append(r.Unknown, other.Unknown...)
	r.EntryIDs = append(r.EntryIDs, other.EntryIDs...)
}

// Engine applies patches and reports schema drift through its logger
type Engine struct {
	logger observability.Logger
}

// NewEngine creates an Engine. A nil logger discards warnings.
func NewEngine(logger observability.Logger) *Engine {
	if logger == nil {
		logger = observability.NewNop()
	}
	return &Engine{logger: logger}
}

// Apply writes value into one top-level section of doc. Sibling sections are never touched.
// On error doc is left unchanged.
func (e *Engine) Apply(doc *types.ResumeDocument, section string, value json.RawMessage, source Source) (Result, error) {
	var res Result
	if section == types.KeySchemaVersion || section == types.KeyIDSeq {
		return res, &ShapeError{Section: section, Message: "bookkeeping fields cannot be patched"}
	}
	if section == "" {
		return res, &ShapeError{Section: section, Message: "section name is empty"}
	}
	if !gjson.ValidBytes(value) {
		return res, &ShapeError{Section: section, Message: "value is not valid JSON"}
	}

	var err error
	switch section {
	case types.SectionPersonalInfo:
		err = mergeObject(section, &doc.PersonalInfo, value)
	case types.SectionEducation:
		err = mergeObject(section, &doc.Education, unwrapSingle(value))
	case types.SectionProfessionalSummary:
		err = replaceText(doc, value)
	case types.SectionWorkExperience:
		res.EntryIDs, err = applyWorkExperience(doc, value, source)
	case types.SectionSkills:
		doc.Skills, err = applyList(section, doc.Skills, value, source)
	case types.SectionLanguages:
		doc.Languages, err = applyLanguages(doc.Languages, value, source)
	case types.SectionSocialMediaAndLinks:
		doc.SocialMediaAndLinks, err = applyLinks(doc.SocialMediaAndLinks, value, source)
	case types.SectionCertifications:
		doc.Certifications, err = applyList(section, doc.Certifications, value, source)
	case types.SectionVolunteerExperience:
		doc.VolunteerExperience, err = applyList(section, doc.VolunteerExperience, value, source)
	case types.SectionProjects:
		doc.Projects, err = applyList(section, doc.Projects, value, source)
	default:
		if doc.Extra == nil {
			doc.Extra = make(map[string]json.RawMessage)
		}
		doc.Extra[section] = append(json.RawMessage{}, value...)
		res.Unknown = append(res.Unknown, section)
		e.logger.Warn(logModule, "unknown section stored verbatim", map[string]any{
			"section": section,
			"source":  source.String(),
		})
	}
	if err != nil {
		return Result{}, err
	}

	res.Sections = append(res.Sections, section)
	return res, nil
}

// ApplyAll applies every section or none. Sections are applied in display order,
// unknown sections last in name order.
func (e *Engine) ApplyAll(doc *types.ResumeDocument, sections map[string]json.RawMessage, source Source) (Result, error) {
	var res Result
	draft := resume.Clone(doc)
	for _, section := range OrderedSections(sections) {
		one, err := e.Apply(draft, section, sections[section], source)
		if err != nil {
			return Result{}, err
		}
		res.merge(one)
	}
	*doc = *draft
	return res, nil
}

// OrderedSections returns the keys of sections in display order, unknown keys last
func OrderedSections(sections map[string]json.RawMessage) []string {
	ordered := make([]string, 0, len(sections))
	for _, name := range types.KnownSections {
		if _, ok := sections[name]; ok {
			ordered = append(ordered, name)
		}
	}
	var unknown []string
	for name := range sections {
		if !types.IsKnownSection(name) {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return append(ordered, unknown...)
}

func replaceText(doc *types.ResumeDocument, value json.RawMessage) error {
	parsed := gjson.ParseBytes(value)
	if parsed.Type != gjson.String {
		return &ShapeError{Section: types.SectionProfessionalSummary, Message: "expected a string"}
	}
	doc.ProfessionalSummary = parsed.String()
	return nil
}

// mergeObject overlays the keys present in value onto the JSON form of target
func mergeObject[T any](section string, target *T, value json.RawMessage) error {
	parsed := gjson.ParseBytes(value)
	if !parsed.IsObject() {
		return &ShapeError{Section: section, Message: "expected an object"}
	}

	current, err := json.Marshal(target)
	if err != nil {
		return &ShapeError{Section: section, Message: "failed to encode current value", Cause: err}
	}

	var setErr error
	parsed.ForEach(func(key, val gjson.Result) bool {
		name := key.String()
		if section == types.SectionPersonalInfo {
			name = types.PersonalInfoKey(name)
		}
		current, setErr = sjson.SetRawBytes(current, gjson.Escape(name), []byte(val.Raw))
		return setErr == nil
	})
	if setErr != nil {
		return &ShapeError{Section: section, Message: "failed to merge value", Cause: setErr}
	}

	var merged T
	if err := json.Unmarshal(current, &merged); err != nil {
		return &ShapeError{Section: section, Message: "field has the wrong type", Cause: err}
	}
	*target = merged
	return nil
}

// unwrapSingle turns a one-element array into its element
func unwrapSingle(value json.RawMessage) json.RawMessage {
	parsed := gjson.ParseBytes(value)
	if parsed.IsArray() {
		if items := parsed.Array(); len(items) == 1 {
			return json.RawMessage(items[0].Raw)
		}
	}
	return value
}

// decodeItems decodes a list value. A single element is accepted only when allowSingle is set.
func decodeItems[T any](section string, value json.RawMessage, allowSingle bool) ([]T, error) {
	parsed := gjson.ParseBytes(value)
	if parsed.IsArray() {
		items := []T{}
		if err := json.Unmarshal(value, &items); err != nil {
			return nil, &ShapeError{Section: section, Message: "list items have the wrong shape", Cause: err}
		}
		return items, nil
	}
	if !allowSingle {
		return nil, &ShapeError{Section: section, Message: "expected a list"}
	}
	if parsed.Type == gjson.Null {
		return nil, &ShapeError{Section: section, Message: "value is null"}
	}
	var item T
	if err := json.Unmarshal(value, &item); err != nil {
		return nil, &ShapeError{Section: section, Message: "item has the wrong shape", Cause: err}
	}
	return []T{item}, nil
}

func applyList[T any](section string, current []T, value json.RawMessage, source Source) ([]T, error) {
	items, err := decodeItems[T](section, value, source == SourceAI)
	if err != nil {
		return current, err
	}
	if source == SourceAI {
		return append(current, items...), nil
	}
	return items, nil
}

func applyLanguages(current []types.Language, value json.RawMessage, source Source) ([]types.Language, error) {
	normalized, err := resume.NormalizeSection(types.SectionLanguages, value)
	if err != nil {
		return current, &ShapeError{Section: types.SectionLanguages, Message: "failed to normalize", Cause: err}
	}
	return applyList(types.SectionLanguages, current, normalized, source)
}

func applyLinks(current []types.SocialLink, value json.RawMessage, source Source) ([]types.SocialLink, error) {
	normalized, err := resume.NormalizeSection(types.SectionSocialMediaAndLinks, value)
	if err != nil {
		return current, &ShapeError{Section: types.SectionSocialMediaAndLinks, Message: "failed to normalize", Cause: err}
	}
	return applyList(types.SectionSocialMediaAndLinks, current, normalized, source)
}

// applyWorkExperience appends proposed entries for the assistant and replaces the list for
// the user. It returns the ids issued by this call.
func applyWorkExperience(doc *types.ResumeDocument, value json.RawMessage, source Source) ([]string, error) {
	normalized, err := resume.NormalizeSection(types.SectionWorkExperience, value)
	if err != nil {
		return nil, &ShapeError{Section: types.SectionWorkExperience, Message: "failed to normalize", Cause: err}
	}
	entries, err := decodeItems[types.WorkExperience](types.SectionWorkExperience, normalized, source == SourceAI)
	if err != nil {
		return nil, err
	}

	var issued []string
	if source == SourceAI {
		for _, entry := range entries {
			resume.SanitizeEntry(&entry)
			issued = append(issued, resume.AddEntry(doc, entry))
		}
		return issued, nil
	}

	existing := make(map[string]bool, len(doc.WorkExperience))
	for _, entry := range doc.WorkExperience {
		existing[entry.ID] = true
	}
	used := make(map[string]bool, len(entries))
	for i := range entries {
		entry := &entries[i]
		resume.SanitizeEntry(entry)
		if entry.ID != "" && existing[entry.ID] && !used[entry.ID] {
			used[entry.ID] = true
			continue
		}
		entry.ID = ""
	}
	// kept ids are in place before any fresh id is issued
	doc.WorkExperience = entries
	for i := range doc.WorkExperience {
		if doc.WorkExperience[i].ID == "" {
			doc.WorkExperience[i].ID = resume.NextEntryID(doc)
			issued = append(issued, doc.WorkExperience[i].ID)
		}
	}
	return issued, nil
}
