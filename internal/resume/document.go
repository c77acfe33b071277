package resume

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/resume-builder/internal/lifecycle"
	"github.com/jonathan/resume-builder/internal/types"
)

// EntryIDPrefix prefixes every work experience id issued by this package
const EntryIDPrefix = "we-"

// Placeholder values for a blank entry added from the editor
const (
	PlaceholderCompany        = "New Company"
	PlaceholderLocation       = "New Location"
	PlaceholderRole           = "New Role"
	PlaceholderStartDate      = "Start Date"
	PlaceholderEndDate        = "End Date"
	PlaceholderResponsibility = lifecycle.DefaultPlaceholder
)

// New returns an empty document at the current schema version
func New() *types.ResumeDocument {
	return &types.ResumeDocument{SchemaVersion: CurrentSchemaVersion}
}

// NextEntryID issues a fresh work experience id. Ids come from the document's
// monotonic sequence, so an id is never handed out twice even after its entry is deleted.
func NextEntryID(doc *types.ResumeDocument) string {
	for {
		doc.IDSeq++
		id := EntryIDPrefix + strconv.Itoa(doc.IDSeq)
		if doc.FindEntry(id) < 0 {
			return id
		}
	}
}

// entrySeq returns the numeric part of an id issued by NextEntryID, or 0
func entrySeq(id string) int {
	if !strings.HasPrefix(id, EntryIDPrefix) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, EntryIDPrefix))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// BlankEntry returns the placeholder entry the editor offers for manual entry
func BlankEntry() types.WorkExperience {
	return types.WorkExperience{
		Company:   PlaceholderCompany,
		Location:  PlaceholderLocation,
		Role:      PlaceholderRole,
		StartDate: PlaceholderStartDate,
		EndDate:   PlaceholderEndDate,
		Responsibilities: []types.Responsibility{
			{Text: PlaceholderResponsibility, Mode: types.ModeProposedNew},
		},
	}
}

// AddEntry appends entry as an unconfirmed proposal with a fresh id and returns the id
func AddEntry(doc *types.ResumeDocument, entry types.WorkExperience) string {
	entry.ID = NextEntryID(doc)
	entry.Mode = types.EntryProposedNew
	doc.WorkExperience = append(doc.WorkExperience, entry)
	return entry.ID
}

// ConfirmEntry clears the proposal mark of an entry. Unknown ids are ignored.
func ConfirmEntry(doc *types.ResumeDocument, id string) bool {
	entry := doc.Entry(id)
	if entry == nil || entry.Mode == types.EntryCommitted {
		return false
	}
	entry.Mode = types.EntryCommitted
	return true
}

// RejectEntry deletes an entry that is still a proposal. Confirmed entries are kept.
func RejectEntry(doc *types.ResumeDocument, id string) bool {
	entry := doc.Entry(id)
	if entry == nil || entry.Mode != types.EntryProposedNew {
		return false
	}
	return RemoveEntry(doc, id)
}

// RemoveEntry deletes an entry regardless of its mode
func RemoveEntry(doc *types.ResumeDocument, id string) bool {
	i := doc.FindEntry(id)
	if i < 0 {
		return false
	}
	doc.WorkExperience = append(doc.WorkExperience[:i], doc.WorkExperience[i+1:]...)
	return true
}

// MoveEntry moves an entry to position to, clamped to the list bounds
func MoveEntry(doc *types.ResumeDocument, id string, to int) bool {
	from := doc.FindEntry(id)
	if from < 0 {
		return false
	}
	if to < 0 {
		to = 0
	}
	if to >= len(doc.WorkExperience) {
		to = len(doc.WorkExperience) - 1
	}
	if from == to {
		return false
	}

	entry := doc.WorkExperience[from]
	doc.WorkExperience = append(doc.WorkExperience[:from], doc.WorkExperience[from+1:]...)
	doc.WorkExperience = append(doc.WorkExperience[:to], append([]types.WorkExperience{entry}, doc.WorkExperience[to:]...)...)
	return true
}

// Reorder rearranges the entries to follow ids, which must be a permutation of the current ids
func Reorder(doc *types.ResumeDocument, ids []string) error {
	if len(ids) != len(doc.WorkExperience) {
		return ErrInvalidOrder
	}

	byID := make(map[string]types.WorkExperience, len(doc.WorkExperience))
	for _, entry := range doc.WorkExperience {
		byID[entry.ID] = entry
	}

	ordered := make([]types.WorkExperience, 0, len(ids))
	for _, id := range ids {
		entry, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: unknown or repeated id %q", ErrInvalidOrder, id)
		}
		ordered = append(ordered, entry)
		delete(byID, id)
	}

	doc.WorkExperience = ordered
	return nil
}

// Clone returns a deep copy of doc
func Clone(doc *types.ResumeDocument) *types.ResumeDocument {
	if doc == nil {
		return nil
	}

	c := *doc
	if doc.WorkExperience != nil {
		c.WorkExperience = make([]types.WorkExperience, len(doc.WorkExperience))
		for i, entry := range doc.WorkExperience {
			c.WorkExperience[i] = cloneEntry(entry)
		}
	}
	c.VolunteerExperience = cloneRawList(doc.VolunteerExperience)
	c.Projects = cloneRawList(doc.Projects)
	if doc.Skills != nil {
		c.Skills = append([]string{}, doc.Skills...)
	}
	if doc.Languages != nil {
		c.Languages = append([]types.Language{}, doc.Languages...)
	}
	if doc.SocialMediaAndLinks != nil {
		c.SocialMediaAndLinks = append([]types.SocialLink{}, doc.SocialMediaAndLinks...)
	}
	if doc.Certifications != nil {
		c.Certifications = append([]types.Certification{}, doc.Certifications...)
	}
	if doc.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(doc.Extra))
		for key, value := range doc.Extra {
			c.Extra[key] = append(json.RawMessage{}, value...)
		}
	}
	return &c
}

func cloneEntry(entry types.WorkExperience) types.WorkExperience {
	if entry.Responsibilities == nil {
		return entry
	}
	resps := make([]types.Responsibility, len(entry.Responsibilities))
	for i, r := range entry.Responsibilities {
		resps[i] = r
		if r.PreviousText != nil {
			prev := *r.PreviousText
			resps[i].PreviousText = &prev
		}
	}
	entry.Responsibilities = resps
	return entry
}

func cloneRawList(list []json.RawMessage) []json.RawMessage {
	if list == nil {
		return nil
	}
	out := make([]json.RawMessage, len(list))
	for i, item := range list {
		out[i] = append(json.RawMessage{}, item...)
	}
	return out
}

// SanitizeEntry drops modes this model does not know and repairs the previous text
// invariant on entries that arrive from outside: form payloads and assistant output.
func SanitizeEntry(entry *types.WorkExperience) {
	if entry.Mode != types.EntryProposedNew {
		entry.Mode = types.EntryCommitted
	}
	for i := range entry.Responsibilities {
		r := &entry.Responsibilities[i]
		switch r.Mode {
		case types.ModeEditing:
			if r.PreviousText == nil {
				r.Mode = types.ModeCommitted
			}
		case types.ModeCommitted, types.ModeProposedNew, types.ModeProposedDeletion:
			r.PreviousText = nil
		default:
			r.Mode = types.ModeCommitted
			r.PreviousText = nil
		}
	}
}
