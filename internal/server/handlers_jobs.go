package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jonathan/resume-builder/internal/db"
)

// CreateJobRequest creates a job from explicit fields, a posting URL, or both.
// Fields left empty are filled from the fetched posting.
type CreateJobRequest struct {
	URL         string `json:"url"`
	Company     string `json:"company"`
	Position    string `json:"position"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListJobs(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.GetJob(r.Context(), r.PathValue("job_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if job == nil {
		s.writeError(w, r, db.ErrJobNotFound)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.URL = strings.TrimSpace(req.URL)

	input := &db.JobCreateInput{
		Company:     strings.TrimSpace(req.Company),
		Position:    strings.TrimSpace(req.Position),
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		URL:         req.URL,
	}

	if req.URL != "" && s.jobs != nil && (input.Description == "" || input.Position == "" || input.Company == "") {
		posting, err := s.jobs.JobPage(r.Context(), req.URL)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if input.Company == "" {
			input.Company = posting.Company
		}
		if input.Company == "" {
			input.Company = hostName(req.URL)
		}
		if input.Position == "" {
			input.Position = posting.Position
		}
		if input.Description == "" {
			input.Description = posting.Description
		}
	}

	job, err := s.store.CreateJob(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, job)
}

func hostName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func (s *Server) handleListLinkedJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListLinkedJobs(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"jobs": jobs, "limit": db.MaxLinkedJobs})
}

func (s *Server) handleLinkJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.LinkJob(r.Context(), id, r.PathValue("job_id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.handleListLinkedJobs(w, r)
}

func (s *Server) handleUnlinkJob(w http.ResponseWriter, r *http.Request) {
	if err := s.store.UnlinkJob(r.Context(), r.PathValue("id"), r.PathValue("job_id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
