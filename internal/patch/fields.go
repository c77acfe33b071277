package patch

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// SetField replaces the single value addressed by a dotted path, for example
// "personal_info.email", "work_experience.we-3.role" or "skills.2". Work experience entries
// are addressed by id. An index equal to the list length appends.
func (e *Engine) SetField(doc *types.ResumeDocument, path string, value json.RawMessage) error {
	parts := strings.Split(path, ".")
	section := parts[0]
	if len(parts) < 2 && section != types.SectionProfessionalSummary {
		return &ShapeError{Section: section, Message: "path must name a field inside a section"}
	}
	if !types.IsKnownSection(section) {
		return &ShapeError{Section: section, Message: "unknown section"}
	}
	if !gjson.ValidBytes(value) {
		return &ShapeError{Section: section, Message: "value is not valid JSON"}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode resume document: %w", err)
	}

	resolved, err := resolvePath(doc, data, parts)
	if err != nil {
		return err
	}

	data, err = sjson.SetRawBytes(data, resolved, value)
	if err != nil {
		return &ShapeError{Section: section, Message: fmt.Sprintf("cannot set %s", path), Cause: err}
	}

	var updated types.ResumeDocument
	if err := json.Unmarshal(data, &updated); err != nil {
		return &ShapeError{Section: section, Message: fmt.Sprintf("value does not fit %s", path), Cause: err}
	}
	if err := resume.CheckInvariants(&updated); err != nil {
		return err
	}

	*doc = updated
	return nil
}

// resolvePath turns a dotted path into an sjson path, replacing entry ids with indices
func resolvePath(doc *types.ResumeDocument, data []byte, parts []string) (string, error) {
	section := parts[0]
	out := []string{section}
	rest := parts[1:]

	if types.IsListSection(section) {
		var index int
		if section == types.SectionWorkExperience {
			index = doc.FindEntry(rest[0])
			if index < 0 {
				return "", fmt.Errorf("%w: %s", resume.ErrEntryNotFound, rest[0])
			}
		} else {
			n, err := strconv.Atoi(rest[0])
			count := int(gjson.GetBytes(data, section+".#").Int())
			if err != nil || n < 0 || n > count {
				return "", &ShapeError{Section: section, Message: fmt.Sprintf("index %q out of range", rest[0])}
			}
			index = n
		}
		out = append(out, strconv.Itoa(index))
		rest = rest[1:]
	}

	if section == types.SectionWorkExperience {
		if len(rest) == 0 {
			return "", &ShapeError{Section: section, Message: "path must name a field of the entry"}
		}
		switch rest[0] {
		case "id", "mode":
			return "", &ShapeError{Section: section, Message: fmt.Sprintf("%s is managed by the editor", rest[0])}
		case "responsibilities":
			return "", &ShapeError{Section: section, Message: "responsibilities change through the review operations"}
		}
	}

	if section == types.SectionPersonalInfo && len(rest) > 0 {
		rest = append([]string{types.PersonalInfoKey(rest[0])}, rest[1:]...)
	}

	for _, p := range rest {
		if p == "" {
			return "", &ShapeError{Section: section, Message: "path has an empty segment"}
		}
		out = append(out, gjson.Escape(p))
	}
	return strings.Join(out, "."), nil
}
