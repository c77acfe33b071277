package server

import (
	"context"
	"net/http"

	"github.com/jonathan/resume-builder/internal/chat"
	"github.com/jonathan/resume-builder/internal/types"
)

// ChatResponse is the conversation state of a resume
type ChatResponse struct {
	Turns       []types.ChatTurn  `json:"turns"`
	Pending     bool              `json:"pending"`
	Instruction *chat.Instruction `json:"instruction,omitempty"`
}

// SendMessageRequest is a user chat message
type SendMessageRequest struct {
	Message string `json:"message"`
}

// SendMessageResponse is the assistant's answer and what it changed
type SendMessageResponse struct {
	Outcome *chat.Outcome `json:"outcome"`
	Version uint64        `json:"version"`
}

// SetInstructionRequest starts a guided flow for the next message
type SetInstructionRequest struct {
	Type   string            `json:"type"`
	Params map[string]string `json:"params"`
}

func chatState(session *chat.Session) ChatResponse {
	return ChatResponse{
		Turns:       session.Turns(),
		Pending:     session.Pending(),
		Instruction: session.ActiveInstruction(),
	}
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, chatState(ws.Chat))
}

// handleSendChat waits for the assistant. A client that disconnects does not cancel the
// exchange; the reply is still recorded.
func (s *Server) handleSendChat(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	outcome, err := ws.Chat.Send(context.WithoutCancel(r.Context()), req.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_, version := ws.Editor.Snapshot()
	s.jsonResponse(w, http.StatusOK, SendMessageResponse{Outcome: outcome, Version: version})
}

func (s *Server) handleClearChat(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.Chat.Clear(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, chatState(ws.Chat))
}

func (s *Server) handleSetInstruction(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}

	var req SetInstructionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := ws.Chat.SetInstruction(req.Type, req.Params); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, chatState(ws.Chat))
}

func (s *Server) handleCloseInstruction(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	ws.Chat.CloseInstruction()
	w.WriteHeader(http.StatusNoContent)
}
