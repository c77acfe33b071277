package server

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/editor"
	"github.com/jonathan/resume-builder/internal/extraction"
	"github.com/jonathan/resume-builder/internal/patch"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/types"
)

// maxUploadMemory is how much of a multipart upload is buffered in memory
const maxUploadMemory = 1 << 20

// CreateResumeRequest creates a resume from raw text or from a document.
// Exactly one of Text and Content is used; Content wins when both are set.
type CreateResumeRequest struct {
	Title   string          `json:"title"`
	Type    string          `json:"type"`
	Text    string          `json:"text"`
	Content json.RawMessage `json:"content"`
}

// ResumeResponse is a resume with its live document
type ResumeResponse struct {
	ID        string                `json:"id"`
	Title     string                `json:"title"`
	Type      string                `json:"type"`
	Version   uint64                `json:"version"`
	Content   *types.ResumeDocument `json:"content"`
	Analyzed  bool                  `json:"analyzed"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// MutationResponse reports the outcome of an editing operation
type MutationResponse struct {
	Changed bool   `json:"changed"`
	Version uint64 `json:"version"`
}

// workspace opens the resume named in the path, writing the error response on failure
func (s *Server) workspace(w http.ResponseWriter, r *http.Request) (*editor.Workspace, bool) {
	ws, err := s.registry.Open(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return ws, true
}

func validateResumeType(kind string) error {
	switch kind {
	case "", db.ResumeTypeBase, db.ResumeTypeTailored:
		return nil
	}
	return &ErrValidation{Field: "type", Message: "must be base or tailored"}
}

func (s *Server) handleCreateResume(w http.ResponseWriter, r *http.Request) {
	var req CreateResumeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validateResumeType(req.Type); err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		doc *types.ResumeDocument
		err error
	)
	switch {
	case len(req.Content) > 0 && string(req.Content) != "null":
		doc, err = resume.Decode(req.Content)
		if err == nil {
			err = resume.Validate(doc)
		}
	case strings.TrimSpace(req.Text) != "":
		doc, err = s.structurer.Structure(r.Context(), req.Text)
	default:
		err = &ErrValidation{Field: "text", Message: "text or content is required"}
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.insertResume(w, r, req.Title, req.Type, doc)
}

func (s *Server) handleImportResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, extraction.MaxFileSize+maxUploadMemory)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.writeError(w, r, &ErrValidation{Field: "file", Message: err.Error()})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, &ErrValidation{Field: "file", Message: "file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, extraction.MaxFileSize+1))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	kind := r.FormValue("type")
	if err := validateResumeType(kind); err != nil {
		s.writeError(w, r, err)
		return
	}
	title := r.FormValue("title")
	if title == "" {
		title = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	mime := extraction.DetectMIME(header.Filename, header.Header.Get("Content-Type"), data)
	text, err := extraction.Extract(mime, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc, err := s.structurer.Structure(r.Context(), text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.insertResume(w, r, title, kind, doc)
}

func (s *Server) insertResume(w http.ResponseWriter, r *http.Request, title, kind string, doc *types.ResumeDocument) {
	created, err := s.store.InsertResume(r.Context(), &db.ResumeCreateInput{
		Title:   title,
		Type:    kind,
		Content: doc,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(logModule, "resume created", map[string]any{
		"resume_id": created.ID.String(),
		"entries":   len(doc.WorkExperience),
	})
	s.jsonResponse(w, http.StatusCreated, ResumeResponse{
		ID:        created.ID.String(),
		Title:     created.Title,
		Type:      created.Type,
		Content:   doc,
		CreatedAt: created.CreatedAt,
		UpdatedAt: created.UpdatedAt,
	})
}

func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	stored, err := s.store.GetResume(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if stored == nil {
		s.writeError(w, r, editor.ErrResumeNotFound)
		return
	}

	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	doc, version := ws.Editor.Snapshot()
	s.jsonResponse(w, http.StatusOK, ResumeResponse{
		ID:        stored.ID.String(),
		Title:     stored.Title,
		Type:      stored.Type,
		Version:   version,
		Content:   doc,
		Analyzed:  hasAnalysis(stored.Analysis),
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
	})
}

// SectionResponse reports what a section write changed
type SectionResponse struct {
	Result  patch.Result `json:"result"`
	Version uint64       `json:"version"`
}

// handleApplySection replaces a section with the request body. Work experience
// entries with known ids are merged in place.
func (s *Server) handleApplySection(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}

	var value json.RawMessage
	if err := decodeBody(r, &value); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := ws.Editor.ApplySection(r.PathValue("section"), value, patch.SourceUser)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_, version := ws.Editor.Snapshot()
	s.jsonResponse(w, http.StatusOK, SectionResponse{Result: result, Version: version})
}

// SetFieldRequest addresses one value with a dotted path such as
// "work_experience.we-1.company" or "personal_info.email"
type SetFieldRequest struct {
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}

	var req SetFieldRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Path == "" {
		s.writeError(w, r, &ErrValidation{Field: "path", Message: "path is required"})
		return
	}
	if len(req.Value) == 0 {
		s.writeError(w, r, &ErrValidation{Field: "value", Message: "value is required"})
		return
	}

	if err := ws.Editor.SetField(req.Path, req.Value); err != nil {
		s.writeError(w, r, err)
		return
	}
	_, version := ws.Editor.Snapshot()
	s.jsonResponse(w, http.StatusOK, MutationResponse{Changed: true, Version: version})
}
