package patch

import (
	"encoding/json"
	"strings"

	"github.com/jonathan/resume-builder/internal/types"
	"github.com/tidwall/gjson"
)

// maxUnwrap bounds how many string or single-element array layers are peeled off a payload
const maxUnwrap = 3

// Reply is the classified form of an assistant response: a Message or a Patch
type Reply interface {
	isReply()
}

// Message is a plain conversational reply; the document is not touched
type Message struct {
	Text string
}

// Patch is a structured reply carrying section values to apply
type Patch struct {
	Sections map[string]json.RawMessage
	// Message is the conversational text sent alongside the payload, if any
	Message string
}

func (Message) isReply() {}
func (Patch) isReply()   {}

// Classify decides whether resp carries a document patch. Keys naming known sections become
// patch sections. When no key names a section and defaultSection is set, the whole object is
// the value of defaultSection. Anything else, including unparsable payloads, is a Message.
func Classify(resp *types.ChatResponse, defaultSection string) Reply {
	if resp == nil {
		return Message{}
	}
	text := resp.Text()

	structured := strings.TrimSpace(string(resp.JSON))
	legacy := false
	if structured == "" || structured == "null" {
		if !strings.HasPrefix(strings.TrimSpace(text), "{") {
			return Message{Text: text}
		}
		structured = strings.TrimSpace(text)
		legacy = true
	}

	obj, ok := unwrapObject(structured)
	if !ok {
		return Message{Text: fallbackText(text, structured)}
	}

	sections := make(map[string]json.RawMessage)
	overlap := false
	obj.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if name == types.KeySchemaVersion || name == types.KeyIDSeq {
			return true
		}
		if types.IsKnownSection(name) {
			overlap = true
		}
		sections[name] = json.RawMessage(value.Raw)
		return true
	})

	if !overlap {
		if defaultSection == "" {
			return Message{Text: fallbackText(text, structured)}
		}
		sections = map[string]json.RawMessage{defaultSection: json.RawMessage(obj.Raw)}
	}

	p := Patch{Sections: sections}
	if !legacy {
		p.Message = text
	}
	return p
}

// unwrapObject peels JSON-encoded strings and one-element arrays until an object remains
func unwrapObject(raw string) (gjson.Result, bool) {
	for i := 0; i <= maxUnwrap; i++ {
		if !gjson.Valid(raw) {
			return gjson.Result{}, false
		}
		parsed := gjson.Parse(raw)
		switch {
		case parsed.IsObject():
			return parsed, true
		case parsed.Type == gjson.String:
			raw = strings.TrimSpace(parsed.String())
		case parsed.IsArray():
			items := parsed.Array()
			if len(items) != 1 {
				return gjson.Result{}, false
			}
			raw = items[0].Raw
		default:
			return gjson.Result{}, false
		}
	}
	return gjson.Result{}, false
}

func fallbackText(text, structured string) string {
	if text != "" {
		return text
	}
	return structured
}

var sectionSummaries = map[string]string{
	types.SectionPersonalInfo:        "personal information updated",
	types.SectionProfessionalSummary: "professional summary updated",
	types.SectionEducation:           "education updated",
	types.SectionWorkExperience:      "work experience updated",
	types.SectionVolunteerExperience: "volunteer experience updated",
	types.SectionSkills:              "skills list updated",
	types.SectionLanguages:           "languages updated",
	types.SectionProjects:            "projects updated",
	types.SectionSocialMediaAndLinks: "links updated",
	types.SectionCertifications:      "certifications updated",
}

// Summary is the human readable text shown in place of a structured payload
func Summary(sections []string) string {
	parts := make([]string, 0, len(sections))
	seen := make(map[string]bool, len(sections))
	for _, s := range sections {
		if seen[s] {
			continue
		}
		seen[s] = true
		if text, ok := sectionSummaries[s]; ok {
			parts = append(parts, text)
		} else {
			parts = append(parts, strings.ReplaceAll(s, "_", " ")+" added")
		}
	}
	if len(parts) == 0 {
		return "No changes"
	}
	out := strings.Join(parts, ", ")
	return strings.ToUpper(out[:1]) + out[1:]
}
