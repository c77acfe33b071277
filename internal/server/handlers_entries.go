package server

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/jonathan/resume-builder/internal/editor"
	"github.com/jonathan/resume-builder/internal/lifecycle"
	"github.com/jonathan/resume-builder/internal/types"
)

// AddEntryResponse returns the id issued to a new entry
type AddEntryResponse struct {
	ID      string `json:"id"`
	Version uint64 `json:"version"`
}

// ReorderRequest lists every work experience id in the wanted order
type ReorderRequest struct {
	IDs []string `json:"ids"`
}

// EditResponsibilityRequest replaces the text of one responsibility
type EditResponsibilityRequest struct {
	Text string `json:"text"`
}

// ResponsibilityResponse reports a responsibility change and what still awaits review
type ResponsibilityResponse struct {
	Changed bool             `json:"changed"`
	Version uint64           `json:"version"`
	Pending lifecycle.Counts `json:"pending"`
}

// handleAddEntry appends a proposed entry. An empty body adds a placeholder.
func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}

	var entry *types.WorkExperience
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		entry = &types.WorkExperience{}
		if err := decodeJSON(body, entry); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	id := ws.Editor.AddEntry(entry)
	_, version := ws.Editor.Snapshot()
	s.jsonResponse(w, http.StatusCreated, AddEntryResponse{ID: id, Version: version})
}

func (s *Server) handleReorderEntries(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}

	var req ReorderRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := ws.Editor.Reorder(req.IDs); err != nil {
		s.writeError(w, r, err)
		return
	}
	_, version := ws.Editor.Snapshot()
	s.jsonResponse(w, http.StatusOK, MutationResponse{Changed: true, Version: version})
}

// entryAction runs an entry-level operation and reports whether it changed anything
func (s *Server) entryAction(op func(ed *editor.Editor, entryID string) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := s.workspace(w, r)
		if !ok {
			return
		}
		changed, err := op(ws.Editor, r.PathValue("entry_id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		_, version := ws.Editor.Snapshot()
		s.jsonResponse(w, http.StatusOK, MutationResponse{Changed: changed, Version: version})
	}
}

func (s *Server) handleConfirmEntry(w http.ResponseWriter, r *http.Request) {
	s.entryAction((*editor.Editor).ConfirmEntry)(w, r)
}

func (s *Server) handleRejectEntry(w http.ResponseWriter, r *http.Request) {
	s.entryAction((*editor.Editor).RejectEntry)(w, r)
}

func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	s.entryAction((*editor.Editor).RemoveEntry)(w, r)
}

// responsibilityAction runs a responsibility operation and reports the pending counts after it
func (s *Server) responsibilityAction(w http.ResponseWriter, r *http.Request, op func(ed *editor.Editor, entryID string) (bool, error)) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	entryID := r.PathValue("entry_id")
	changed, err := op(ws.Editor, entryID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_, version := ws.Editor.Snapshot()
	s.jsonResponse(w, http.StatusOK, ResponsibilityResponse{
		Changed: changed,
		Version: version,
		Pending: ws.Editor.Pending(entryID),
	})
}

func pathIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		return 0, &ErrValidation{Field: "index", Message: "must be a non-negative integer"}
	}
	return index, nil
}

func (s *Server) handleAddResponsibility(w http.ResponseWriter, r *http.Request) {
	s.responsibilityAction(w, r, (*editor.Editor).AddResponsibility)
}

func (s *Server) handleKeepAll(w http.ResponseWriter, r *http.Request) {
	s.responsibilityAction(w, r, (*editor.Editor).KeepAll)
}

func (s *Server) handleDiscardAll(w http.ResponseWriter, r *http.Request) {
	s.responsibilityAction(w, r, (*editor.Editor).DiscardAll)
}

func (s *Server) handleEditResponsibility(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req EditResponsibilityRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.responsibilityAction(w, r, func(ed *editor.Editor, entryID string) (bool, error) {
		return ed.EditResponsibility(entryID, index, req.Text)
	})
}

// responsibilityActions are the review actions addressed by index
var responsibilityActions = map[string]func(ed *editor.Editor, entryID string, index int) (bool, error){
	"confirm":       (*editor.Editor).ConfirmResponsibility,
	"discard":       (*editor.Editor).DiscardResponsibility,
	"mark-deletion": (*editor.Editor).MarkForDeletion,
}

func (s *Server) handleResponsibilityAction(w http.ResponseWriter, r *http.Request) {
	action, found := responsibilityActions[r.PathValue("action")]
	if !found {
		s.errorResponse(w, http.StatusNotFound, "unknown action: "+r.PathValue("action"))
		return
	}
	index, err := pathIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.responsibilityAction(w, r, func(ed *editor.Editor, entryID string) (bool, error) {
		return action(ed, entryID, index)
	})
}

func (s *Server) handleRemoveResponsibility(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.responsibilityAction(w, r, func(ed *editor.Editor, entryID string) (bool, error) {
		return ed.RemoveResponsibility(entryID, index)
	})
}
