// Package editor owns the in-memory document of an open resume. Every change goes through
// an Editor, which serialises mutations and publishes snapshots to subscribers such as the
// autosaver and SSE streams.
package editor

import (
	"encoding/json"
	"sync"

	"github.com/jonathan/resume-builder/internal/lifecycle"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/patch"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/types"
)

// Update is a document snapshot published after a mutation
type Update struct {
	ResumeID string                `json:"resumeId"`
	Version  uint64                `json:"version"`
	Document *types.ResumeDocument `json:"document"`
}

// Editor holds one document and applies every mutation under a single lock
type Editor struct {
	mu       sync.Mutex
	resumeID string
	doc      *types.ResumeDocument
	version  uint64
	patches  *patch.Engine
	logger   observability.Logger

	subs    map[int]chan Update
	nextSub int
}

// New creates an editor that owns doc. A nil doc starts from an empty document.
func New(resumeID string, doc *types.ResumeDocument, logger observability.Logger) *Editor {
	if logger == nil {
		logger = observability.NewNop()
	}
	if doc == nil {
		doc = resume.New()
	}
	return &Editor{
		resumeID: resumeID,
		doc:      doc,
		patches:  patch.NewEngine(logger),
		logger:   logger,
		subs:     make(map[int]chan Update),
	}
}

// ResumeID returns the identity of the edited resume
func (e *Editor) ResumeID() string {
	return e.resumeID
}

// Snapshot returns a deep copy of the document and its version
func (e *Editor) Snapshot() (*types.ResumeDocument, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return resume.Clone(e.doc), e.version
}

// Subscribe registers a listener. Each subscriber holds at most the latest snapshot;
// a slow reader skips intermediate versions. The returned func unsubscribes.
func (e *Editor) Subscribe() (<-chan Update, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextSub
	e.nextSub++
	ch := make(chan Update, 1)
	e.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if sub, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(sub)
			}
		})
	}
}

// Close unsubscribes every listener
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
}

// publish must be called with mu held
func (e *Editor) publish() {
	e.version++
	for _, ch := range e.subs {
		update := Update{ResumeID: e.resumeID, Version: e.version, Document: resume.Clone(e.doc)}
		select {
		case ch <- update:
		default:
			// drop the stale snapshot the reader has not consumed yet
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}

// mutate runs fn against the document and publishes when it reports a change
func (e *Editor) mutate(op string, fn func(doc *types.ResumeDocument) (bool, error)) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed, err := fn(e.doc)
	if err != nil {
		return false, err
	}
	if changed {
		e.publish()
		e.logger.Debug("editor", "document changed", map[string]any{
			"resume_id": e.resumeID,
			"op":        op,
			"version":   e.version,
		})
	}
	return changed, nil
}

// entryMutate is mutate for operations that address one work experience entry
func (e *Editor) entryMutate(op, entryID string, fn func(doc *types.ResumeDocument) bool) (bool, error) {
	return e.mutate(op, func(doc *types.ResumeDocument) (bool, error) {
		if doc.FindEntry(entryID) < 0 {
			return false, resume.ErrEntryNotFound
		}
		return fn(doc), nil
	})
}

// bulletMutate is mutate for bullet operations. A stale entry id or index is a silent
// no-op reported as unchanged.
func (e *Editor) bulletMutate(op string, fn func(doc *types.ResumeDocument) bool) (bool, error) {
	return e.mutate(op, func(doc *types.ResumeDocument) (bool, error) {
		return fn(doc), nil
	})
}

// Replace swaps the whole document, used after an import or reload
func (e *Editor) Replace(doc *types.ResumeDocument) {
	_, _ = e.mutate("replace", func(current *types.ResumeDocument) (bool, error) {
		*current = *resume.Clone(doc)
		return true, nil
	})
}

// ApplySection applies one section patch
func (e *Editor) ApplySection(section string, value json.RawMessage, source patch.Source) (patch.Result, error) {
	var result patch.Result
	_, err := e.mutate("apply_section", func(doc *types.ResumeDocument) (bool, error) {
		var err error
		result, err = e.patches.Apply(doc, section, value, source)
		return err == nil, err
	})
	return result, err
}

// ApplyPatch applies a multi-section patch; nothing changes unless every section applies
func (e *Editor) ApplyPatch(sections map[string]json.RawMessage, source patch.Source) (patch.Result, error) {
	var result patch.Result
	_, err := e.mutate("apply_patch", func(doc *types.ResumeDocument) (bool, error) {
		var err error
		result, err = e.patches.ApplyAll(doc, sections, source)
		return err == nil && len(result.Sections) > 0, err
	})
	return result, err
}

// SetField replaces one value addressed by a dotted path
func (e *Editor) SetField(path string, value json.RawMessage) error {
	_, err := e.mutate("set_field", func(doc *types.ResumeDocument) (bool, error) {
		if err := e.patches.SetField(doc, path, value); err != nil {
			return false, err
		}
		return true, nil
	})
	return err
}

// AddEntry appends a proposed work experience entry and returns its id.
// A nil entry adds a placeholder entry.
func (e *Editor) AddEntry(entry *types.WorkExperience) string {
	var id string
	_, _ = e.mutate("add_entry", func(doc *types.ResumeDocument) (bool, error) {
		blank := resume.BlankEntry()
		if entry != nil {
			blank = *entry
			resume.SanitizeEntry(&blank)
		}
		id = resume.AddEntry(doc, blank)
		return true, nil
	})
	return id
}

// ConfirmEntry commits a proposed entry
func (e *Editor) ConfirmEntry(entryID string) (bool, error) {
	return e.entryMutate("confirm_entry", entryID, func(doc *types.ResumeDocument) bool {
		return resume.ConfirmEntry(doc, entryID)
	})
}

// RejectEntry drops a proposed entry
func (e *Editor) RejectEntry(entryID string) (bool, error) {
	return e.entryMutate("reject_entry", entryID, func(doc *types.ResumeDocument) bool {
		return resume.RejectEntry(doc, entryID)
	})
}

// RemoveEntry deletes an entry regardless of its state
func (e *Editor) RemoveEntry(entryID string) (bool, error) {
	return e.entryMutate("remove_entry", entryID, func(doc *types.ResumeDocument) bool {
		return resume.RemoveEntry(doc, entryID)
	})
}

// MoveEntry moves an entry to position to
func (e *Editor) MoveEntry(entryID string, to int) (bool, error) {
	return e.entryMutate("move_entry", entryID, func(doc *types.ResumeDocument) bool {
		return resume.MoveEntry(doc, entryID, to)
	})
}

// Reorder sets the work experience order; ids must be a permutation of the current ids
func (e *Editor) Reorder(ids []string) error {
	_, err := e.mutate("reorder", func(doc *types.ResumeDocument) (bool, error) {
		if err := resume.Reorder(doc, ids); err != nil {
			return false, err
		}
		return true, nil
	})
	return err
}

// AddResponsibility appends a proposed placeholder bullet
func (e *Editor) AddResponsibility(entryID string) (bool, error) {
	return e.bulletMutate("add_responsibility", func(doc *types.ResumeDocument) bool {
		return lifecycle.Add(doc, entryID)
	})
}

// EditResponsibility changes bullet text, staging it for review
func (e *Editor) EditResponsibility(entryID string, index int, text string) (bool, error) {
	return e.bulletMutate("edit_responsibility", func(doc *types.ResumeDocument) bool {
		return lifecycle.Edit(doc, entryID, index, text)
	})
}

// ConfirmResponsibility accepts a staged bullet
func (e *Editor) ConfirmResponsibility(entryID string, index int) (bool, error) {
	return e.bulletMutate("confirm_responsibility", func(doc *types.ResumeDocument) bool {
		return lifecycle.Confirm(doc, entryID, index)
	})
}

// DiscardResponsibility reverts a staged bullet
func (e *Editor) DiscardResponsibility(entryID string, index int) (bool, error) {
	return e.bulletMutate("discard_responsibility", func(doc *types.ResumeDocument) bool {
		return lifecycle.Discard(doc, entryID, index)
	})
}

// MarkForDeletion stages a committed bullet for removal
func (e *Editor) MarkForDeletion(entryID string, index int) (bool, error) {
	return e.bulletMutate("mark_for_deletion", func(doc *types.ResumeDocument) bool {
		return lifecycle.MarkForDeletion(doc, entryID, index)
	})
}

// KeepAll accepts every staged bullet of an entry
func (e *Editor) KeepAll(entryID string) (bool, error) {
	return e.bulletMutate("keep_all", func(doc *types.ResumeDocument) bool {
		return lifecycle.BulkKeep(doc, entryID)
	})
}

// DiscardAll reverts every staged bullet of an entry
func (e *Editor) DiscardAll(entryID string) (bool, error) {
	return e.bulletMutate("discard_all", func(doc *types.ResumeDocument) bool {
		return lifecycle.BulkDiscard(doc, entryID)
	})
}

// RemoveResponsibility deletes a bullet without review
func (e *Editor) RemoveResponsibility(entryID string, index int) (bool, error) {
	return e.bulletMutate("remove_responsibility", func(doc *types.ResumeDocument) bool {
		return lifecycle.RemoveOutright(doc, entryID, index)
	})
}

// Pending counts the staged bullets of an entry
func (e *Editor) Pending(entryID string) lifecycle.Counts {
	e.mu.Lock()
	defer e.mu.Unlock()
	return lifecycle.Pending(e.doc, entryID)
}
