// Package lifecycle stages edits to individual responsibilities so proposed changes can be
// reviewed before they are committed.
//
// Every operation addresses a responsibility by entry id and index and reports whether the
// document changed. Unknown entries and out-of-range indices are silent no-ops: indices are
// positions in the current list, not identities.
package lifecycle

import (
	"github.com/jonathan/resume-builder/internal/types"
)

// DefaultPlaceholder is the text of a freshly added responsibility
const DefaultPlaceholder = "New responsibility"

// Counts tallies the responsibilities of one entry by staged mode
type Counts struct {
	New      int `json:"new"`
	Editing  int `json:"editing"`
	Deletion int `json:"deletion"`
}

// Total is the number of rows awaiting review
func (c Counts) Total() int {
	return c.New + c.Editing + c.Deletion
}

func responsibility(doc *types.ResumeDocument, entryID string, index int) (*types.WorkExperience, *types.Responsibility) {
	entry := doc.Entry(entryID)
	if entry == nil || index < 0 || index >= len(entry.Responsibilities) {
		return nil, nil
	}
	return entry, &entry.Responsibilities[index]
}

func removeAt(entry *types.WorkExperience, index int) {
	entry.Responsibilities = append(entry.Responsibilities[:index], entry.Responsibilities[index+1:]...)
}

// Add appends a proposed placeholder responsibility. Adding again while the last row is
// still an unconfirmed placeholder does nothing.
func Add(doc *types.ResumeDocument, entryID string) bool {
	entry := doc.Entry(entryID)
	if entry == nil {
		return false
	}
	if n := len(entry.Responsibilities); n > 0 {
		last := entry.Responsibilities[n-1]
		if last.Mode == types.ModeProposedNew && last.Text == DefaultPlaceholder {
			return false
		}
	}
	entry.Responsibilities = append(entry.Responsibilities, types.Responsibility{
		Text: DefaultPlaceholder,
		Mode: types.ModeProposedNew,
	})
	return true
}

// Edit changes the text of a responsibility. A committed row moves to editing and keeps its
// previous text; rows already editing or new only get the new text. Rows staged for deletion
// are not editable.
func Edit(doc *types.ResumeDocument, entryID string, index int, text string) bool {
	_, r := responsibility(doc, entryID, index)
	if r == nil {
		return false
	}

	switch r.Mode {
	case types.ModeCommitted:
		if r.Text == text {
			return false
		}
		prev := r.Text
		r.PreviousText = &prev
		r.Mode = types.ModeEditing
	case types.ModeEditing, types.ModeProposedNew:
		if r.Text == text {
			return false
		}
	default:
		return false
	}

	r.Text = text
	return true
}

// Confirm commits a new or edited responsibility. Confirming a committed row is a no-op.
func Confirm(doc *types.ResumeDocument, entryID string, index int) bool {
	_, r := responsibility(doc, entryID, index)
	if r == nil {
		return false
	}
	if r.Mode != types.ModeProposedNew && r.Mode != types.ModeEditing {
		return false
	}
	r.Mode = types.ModeCommitted
	r.PreviousText = nil
	return true
}

// Discard rejects the staged change of a responsibility: an edit is reverted, a proposed row
// is removed and a row staged for deletion is kept.
func Discard(doc *types.ResumeDocument, entryID string, index int) bool {
	entry, r := responsibility(doc, entryID, index)
	if r == nil {
		return false
	}

	switch r.Mode {
	case types.ModeEditing:
		if r.PreviousText != nil {
			r.Text = *r.PreviousText
		}
		r.PreviousText = nil
		r.Mode = types.ModeCommitted
	case types.ModeProposedNew:
		removeAt(entry, index)
	case types.ModeProposedDeletion:
		r.Mode = types.ModeCommitted
	default:
		return false
	}
	return true
}

// MarkForDeletion stages a committed responsibility for removal
func MarkForDeletion(doc *types.ResumeDocument, entryID string, index int) bool {
	_, r := responsibility(doc, entryID, index)
	if r == nil || r.Mode != types.ModeCommitted {
		return false
	}
	r.Mode = types.ModeProposedDeletion
	return true
}

// BulkKeep returns every row staged for deletion in the entry to committed
func BulkKeep(doc *types.ResumeDocument, entryID string) bool {
	entry := doc.Entry(entryID)
	if entry == nil {
		return false
	}
	changed := false
	for i := range entry.Responsibilities {
		if entry.Responsibilities[i].Mode == types.ModeProposedDeletion {
			entry.Responsibilities[i].Mode = types.ModeCommitted
			changed = true
		}
	}
	return changed
}

// BulkDiscard removes every row staged for deletion in the entry
func BulkDiscard(doc *types.ResumeDocument, entryID string) bool {
	entry := doc.Entry(entryID)
	if entry == nil {
		return false
	}
	kept := entry.Responsibilities[:0]
	for _, r := range entry.Responsibilities {
		if r.Mode != types.ModeProposedDeletion {
			kept = append(kept, r)
		}
	}
	changed := len(kept) != len(entry.Responsibilities)
	entry.Responsibilities = kept
	return changed
}

// RemoveOutright deletes a responsibility whatever its mode
func RemoveOutright(doc *types.ResumeDocument, entryID string, index int) bool {
	entry, r := responsibility(doc, entryID, index)
	if r == nil {
		return false
	}
	removeAt(entry, index)
	return true
}

// Pending counts the staged rows of an entry. Unknown entries count as empty.
func Pending(doc *types.ResumeDocument, entryID string) Counts {
	var c Counts
	entry := doc.Entry(entryID)
	if entry == nil {
		return c
	}
	for _, r := range entry.Responsibilities {
		switch r.Mode {
		case types.ModeProposedNew:
			c.New++
		case types.ModeEditing:
			c.Editing++
		case types.ModeProposedDeletion:
			c.Deletion++
		}
	}
	return c
}
