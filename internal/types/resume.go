// Package types provides type definitions for structured data used throughout the resume-builder system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
)

// Top-level section names of a ResumeDocument as they appear on the wire.
const (
	SectionPersonalInfo        = "personal_info"
	SectionProfessionalSummary = "professional_summary"
	SectionEducation           = "education"
	SectionWorkExperience      = "work_experience"
	SectionVolunteerExperience = "volunteer_experience"
	SectionSkills              = "skills"
	SectionLanguages           = "languages"
	SectionProjects            = "projects"
	SectionSocialMediaAndLinks = "social_media_and_links"
	SectionCertifications      = "certifications"
)

// Bookkeeping keys written next to the sections.
const (
	KeySchemaVersion = "schema_version"
	KeyIDSeq         = "id_seq"
)

// KnownSections lists the modelled sections in display order.
var KnownSections = []string{
	SectionPersonalInfo,
	SectionProfessionalSummary,
	SectionEducation,
	SectionWorkExperience,
	SectionVolunteerExperience,
	SectionSkills,
	SectionLanguages,
	SectionProjects,
	SectionSocialMediaAndLinks,
	SectionCertifications,
}

// IsKnownSection reports whether name is a modelled top-level section.
func IsKnownSection(name string) bool {
	for _, s := range KnownSections {
		if s == name {
			return true
		}
	}
	return false
}

// IsListSection reports whether the section holds an ordered list.
func IsListSection(name string) bool {
	switch name {
	case SectionWorkExperience, SectionVolunteerExperience, SectionSkills, SectionLanguages,
		SectionProjects, SectionSocialMediaAndLinks, SectionCertifications:
		return true
	}
	return false
}

// ResumeDocument is the canonical in-memory shape of a resume
type ResumeDocument struct {
	SchemaVersion       int               `json:"schema_version,omitempty"`
	IDSeq               int               `json:"id_seq,omitempty"`
	PersonalInfo        PersonalInfo      `json:"personal_info" validate:"required"`
	ProfessionalSummary string            `json:"professional_summary"`
	Education           Education         `json:"education"`
	WorkExperience      []WorkExperience  `json:"work_experience" validate:"dive"`
	VolunteerExperience []json.RawMessage `json:"volunteer_experience"`
	Skills              []string          `json:"skills"`
	Languages           []Language        `json:"languages"`
	Projects            []json.RawMessage `json:"projects"`
	SocialMediaAndLinks []SocialLink      `json:"social_media_and_links"`
	Certifications      []Certification   `json:"certifications"`

	// Extra holds top-level sections this model does not know, kept verbatim.
	Extra map[string]json.RawMessage `json:"-"`
}

// PersonalInfo holds contact details; only Name is required
type PersonalInfo struct {
	Name      string `json:"name" validate:"required"`
	Location  string `json:"location"`
	LinkedIn  string `json:"linkedin"`
	Phone     string `json:"phone"`
	Email     string `json:"email" validate:"omitempty,email"`
	Portfolio string `json:"portfolio"`
	Role      string `json:"role,omitempty"`
	Country   string `json:"country,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// personalInfoAliases maps accepted snake_case keys to the keys PersonalInfo writes
var personalInfoAliases = map[string]string{
	"first_name": "firstName",
	"last_name":  "lastName",
}

// PersonalInfoKey returns the key PersonalInfo serializes a field under
func PersonalInfoKey(key string) string {
	if canonical, ok := personalInfoAliases[key]; ok {
		return canonical
	}
	return key
}

// UnmarshalJSON also accepts the snake_case first_name and last_name keys
func (p *PersonalInfo) UnmarshalJSON(data []byte) error {
	type plain PersonalInfo
	var aux struct {
		plain
		SnakeFirstName string `json:"first_name"`
		SnakeLastName  string `json:"last_name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = PersonalInfo(aux.plain)
	if p.FirstName == "" {
		p.FirstName = aux.SnakeFirstName
	}
	if p.LastName == "" {
		p.LastName = aux.SnakeLastName
	}
	return nil
}

// Education is a single education record
type Education struct {
	University     string `json:"university"`
	Location       string `json:"location"`
	Degree         string `json:"degree"`
	GraduationDate string `json:"graduation_date"`
	Scholarship    string `json:"scholarship"`
}

// EntryMode marks whether a work experience entry is confirmed
type EntryMode string

const (
	// EntryCommitted is a confirmed entry (serialized as an absent mode)
	EntryCommitted EntryMode = ""
	// EntryProposedNew is an entry added but not yet confirmed by the user
	EntryProposedNew EntryMode = "new"
)

// WorkExperience is one entry of the work history
type WorkExperience struct {
	ID               string           `json:"id" validate:"required"`
	Company          string           `json:"company"`
	Location         string           `json:"location"`
	Role             string           `json:"role"`
	StartDate        string           `json:"start_date"`
	EndDate          string           `json:"end_date"`
	Responsibilities []Responsibility `json:"responsibilities" validate:"dive"`
	Mode             EntryMode        `json:"mode,omitempty" validate:"omitempty,oneof=new"`
}

// ResponsibilityMode is the staging state of a single bullet
type ResponsibilityMode string

const (
	// ModeCommitted is a normal bullet (serialized as an absent mode)
	ModeCommitted ResponsibilityMode = ""
	// ModeProposedNew is a bullet added but not yet confirmed
	ModeProposedNew ResponsibilityMode = "new"
	// ModeProposedDeletion is a bullet staged for removal
	ModeProposedDeletion ResponsibilityMode = "deletion"
	// ModeEditing is a bullet whose text changed since it was last committed
	ModeEditing ResponsibilityMode = "edit"
)

// Responsibility is a single bullet point within a work experience entry.
// PreviousText is set only while Mode is ModeEditing.
type Responsibility struct {
	Text         string             `json:"text"`
	PreviousText *string            `json:"oldText,omitempty"`
	Mode         ResponsibilityMode `json:"mode,omitempty" validate:"omitempty,oneof=new deletion edit"`
}

// Language is a spoken language with a fluency label
type Language struct {
	Language string `json:"language"`
	Fluency  string `json:"fluency"`
}

// SocialLink is a labelled URL; labels are free text
type SocialLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Certification is a completed course or certificate
type Certification struct {
	CourseName  string `json:"course_name"`
	Institution string `json:"institution"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// FindEntry returns the index of the entry with the given id, or -1
func (d *ResumeDocument) FindEntry(id string) int {
	for i := range d.WorkExperience {
		if d.WorkExperience[i].ID == id {
			return i
		}
	}
	return -1
}

// Entry returns a pointer to the entry with the given id, or nil
func (d *ResumeDocument) Entry(id string) *WorkExperience {
	if i := d.FindEntry(id); i >= 0 {
		return &d.WorkExperience[i]
	}
	return nil
}

type resumeDocumentAlias ResumeDocument

// MarshalJSON writes empty lists instead of null and flattens Extra into the top level.
func (d ResumeDocument) MarshalJSON() ([]byte, error) {
	a := resumeDocumentAlias(d)
	entries := make([]WorkExperience, len(d.WorkExperience))
	copy(entries, d.WorkExperience)
	for i := range entries {
		if entries[i].Responsibilities == nil {
			entries[i].Responsibilities = []Responsibility{}
		}
	}
	a.WorkExperience = entries
	if a.VolunteerExperience == nil {
		a.VolunteerExperience = []json.RawMessage{}
	}
	if a.Skills == nil {
		a.Skills = []string{}
	}
	if a.Languages == nil {
		a.Languages = []Language{}
	}
	if a.Projects == nil {
		a.Projects = []json.RawMessage{}
	}
	if a.SocialMediaAndLinks == nil {
		a.SocialMediaAndLinks = []SocialLink{}
	}
	if a.Certifications == nil {
		a.Certifications = []Certification{}
	}

	data, err := json.Marshal(a)
	if err != nil || len(d.Extra) == 0 {
		return data, err
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for key, value := range d.Extra {
		if _, taken := fields[key]; taken {
			continue
		}
		fields[key] = value
	}
	return json.Marshal(fields)
}

// UnmarshalJSON decodes the modelled sections and keeps any other top-level key in Extra.
func (d *ResumeDocument) UnmarshalJSON(data []byte) error {
	var a resumeDocumentAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*d = ResumeDocument(a)
	d.Extra = nil
	for key, value := range fields {
		if IsKnownSection(key) || key == KeySchemaVersion || key == KeyIDSeq {
			continue
		}
		if d.Extra == nil {
			d.Extra = make(map[string]json.RawMessage)
		}
		d.Extra[key] = value
	}
	return nil
}
