package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/resume-builder/internal/analysis"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/editor"
	"github.com/jonathan/resume-builder/internal/types"
)

// AnalysisResponse carries the collaborator result and the report built over the
// current document
type AnalysisResponse struct {
	Result *types.AnalysisResult `json:"result"`
	Report analysis.Report       `json:"report"`
}

// handleRunAnalysis scores the live document against the linked jobs and stores the result
func (s *Server) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	jobs, err := s.store.ListLinkedJobs(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc, _ := ws.Editor.Snapshot()
	result, raw, err := s.analyzer.Analyze(r.Context(), &types.AnalysisRequest{
		ResumeContent:   doc,
		JobDescriptions: db.Descriptions(jobs),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.store.UpdateAnalysis(r.Context(), id, raw); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(logModule, "resume analyzed", map[string]any{
		"resume_id":   id,
		"jobs":        len(jobs),
		"final_score": result.FinalScore,
	})
	s.jsonResponse(w, http.StatusOK, AnalysisResponse{Result: result, Report: analysis.Build(doc, result)})
}

// handleGetAnalysis rebuilds the report from the stored result without calling the collaborator
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	stored, err := s.store.GetResume(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if stored == nil {
		s.writeError(w, r, editor.ErrResumeNotFound)
		return
	}
	if !hasAnalysis(stored.Analysis) {
		s.writeError(w, r, ErrNoAnalysis)
		return
	}

	result, err := analysis.ParseResult(stored.Analysis)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	doc, _ := ws.Editor.Snapshot()
	s.jsonResponse(w, http.StatusOK, AnalysisResponse{Result: result, Report: analysis.Build(doc, result)})
}

func hasAnalysis(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
