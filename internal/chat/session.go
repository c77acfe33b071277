// Package chat holds the state of an assistant conversation about one resume: the turn log,
// the active guided instruction and the single request that may be in flight.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/patch"
	"github.com/jonathan/resume-builder/internal/prompts"
	"github.com/jonathan/resume-builder/internal/types"
)

const logModule = "Chat"

var (
	// ErrEmptyMessage is returned when Send is called with blank text
	ErrEmptyMessage = errors.New("message is empty")
	// ErrRequestInFlight is returned when a send is already waiting for a response
	ErrRequestInFlight = errors.New("a message is already being sent")
	// ErrStaleResponse is returned when the session was cleared or rebound while waiting
	ErrStaleResponse = errors.New("response belongs to a cleared or replaced conversation")
)

// Completer sends a chat request to the assistant
type Completer interface {
	Complete(ctx context.Context, req *types.ChatRequest) (*types.ChatResponse, error)
}

// Document is the resume the conversation edits
type Document interface {
	ResumeID() string
	Snapshot() (*types.ResumeDocument, uint64)
	ApplyPatch(sections map[string]json.RawMessage, source patch.Source) (patch.Result, error)
}

// LogSink persists the whole turn log
type LogSink interface {
	UpdateChatLog(ctx context.Context, resumeID string, turns []types.ChatTurn) error
}

// Instruction is the guided flow attached to the next message
type Instruction struct {
	Type   string            `json:"type"`
	Params map[string]string `json:"params,omitempty"`
}

// Outcome describes how a sent message was answered
type Outcome struct {
	Turn types.ChatTurn `json:"turn"`
	// Result is set when the reply changed the document
	Result *patch.Result `json:"result,omitempty"`
}

// Session is the conversation state of one resume
type Session struct {
	mu          sync.Mutex
	doc         Document
	completer   Completer
	sink        LogSink
	logger      observability.Logger
	turns       []types.ChatTurn
	instruction *Instruction
	pending     bool
	epoch       uint64
	now         func() time.Time
}

// NewSession creates a session. An empty history starts with the welcome turn.
func NewSession(doc Document, completer Completer, sink LogSink, history []types.ChatTurn, logger observability.Logger) *Session {
	if logger == nil {
		logger = observability.NewNop()
	}
	s := &Session{
		doc:       doc,
		completer: completer,
		sink:      sink,
		logger:    logger,
		now:       time.Now,
	}
	if len(history) == 0 {
		s.turns = []types.ChatTurn{s.welcome()}
	} else {
		s.turns = append([]types.ChatTurn(nil), history...)
	}
	return s
}

func (s *Session) welcome() types.ChatTurn {
	return types.ChatTurn{
		Role:      types.RoleAssistant,
		Content:   prompts.MustGet(prompts.ChatFile, "welcome"),
		Timestamp: s.now().UTC(),
	}
}

// Turns returns a copy of the turn log
func (s *Session) Turns() []types.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ChatTurn(nil), s.turns...)
}

// Pending reports whether a send is waiting for a response
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// ActiveInstruction returns the instruction attached to the next message, or nil
func (s *Session) ActiveInstruction() *Instruction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.instruction == nil {
		return nil
	}
	inst := *s.instruction
	return &inst
}

// SetInstruction attaches a guided instruction to the next message. The type must be
// registered and every param its prompt declares must be given.
func (s *Session) SetInstruction(instructionType string, params map[string]string) error {
	def, err := prompts.GetInstruction(instructionType)
	if err != nil {
		return err
	}
	if _, err := def.Render(params); err != nil {
		return err
	}
	copied := make(map[string]string, len(params))
	for k, v := range params {
		copied[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.instruction = &Instruction{Type: instructionType, Params: copied}
	return nil
}

// CloseInstruction drops the active instruction
func (s *Session) CloseInstruction() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instruction = nil
}

// Rebind points the session at another document. Responses still in flight are discarded.
func (s *Session) Rebind(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.epoch++
}

// Clear resets the log to the welcome turn. Responses still in flight are discarded.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.turns = []types.ChatTurn{s.welcome()}
	s.instruction = nil
	s.epoch++
	turns := append([]types.ChatTurn(nil), s.turns...)
	resumeID := s.doc.ResumeID()
	s.mu.Unlock()

	return s.flush(ctx, resumeID, turns)
}

// Send appends the user turn, asks the assistant and records its reply. A structured reply
// is applied to the document as one all-or-nothing patch; if it cannot be applied the reply
// is kept as plain text. When the assistant call fails the user turn stays in the log and the
// document is not changed.
func (s *Session) Send(ctx context.Context, text string) (*Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return nil, ErrRequestInFlight
	}
	s.pending = true
	history := append([]types.ChatTurn(nil), s.turns...)
	s.turns = append(s.turns, types.ChatTurn{Role: types.RoleUser, Content: text, Timestamp: s.now().UTC()})
	inst := s.instruction
	s.instruction = nil
	epoch := s.epoch
	doc := s.doc
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.pending = false
		s.mu.Unlock()
	}()

	resumeID := doc.ResumeID()
	snapshot, _ := doc.Snapshot()
	req := &types.ChatRequest{
		ResumeID:    resumeID,
		UserMessage: text,
		ResumeData:  snapshot,
		ChatLog:     history,
	}
	defaultSection := ""
	if inst != nil {
		def, err := prompts.GetInstruction(inst.Type)
		if err != nil {
			return nil, err
		}
		rendered, err := def.Render(inst.Params)
		if err != nil {
			return nil, err
		}
		req.AssistantContext = def.Description
		req.PromptTemplate = rendered
		defaultSection = def.TargetSection
	}

	resp, err := s.completer.Complete(ctx, req)
	if err != nil {
		s.logger.Error(logModule, "chat completion failed", map[string]any{
			"resume_id": resumeID,
			"error":     err,
		})
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	s.mu.Lock()
	if s.epoch != epoch || s.doc.ResumeID() != resumeID {
		s.mu.Unlock()
		s.logger.Info(logModule, "discarding stale response", map[string]any{"resume_id": resumeID})
		return nil, ErrStaleResponse
	}

	outcome := &Outcome{}
	content := ""
	switch reply := patch.Classify(resp, defaultSection).(type) {
	case patch.Patch:
		result, applyErr := doc.ApplyPatch(reply.Sections, patch.SourceAI)
		if applyErr != nil {
			s.logger.Warn(logModule, "structured reply could not be applied", map[string]any{
				"resume_id": resumeID,
				"error":     applyErr,
			})
			content = plainText(resp)
			break
		}
		outcome.Result = &result
		content = patch.Summary(result.Sections)
	case patch.Message:
		content = reply.Text
	}

	outcome.Turn = types.ChatTurn{Role: types.RoleAssistant, Content: content, Timestamp: s.now().UTC()}
	s.turns = append(s.turns, outcome.Turn)
	turns := append([]types.ChatTurn(nil), s.turns...)
	s.mu.Unlock()

	if err := s.flush(ctx, resumeID, turns); err != nil {
		s.logger.Error(logModule, "failed to persist chat log", map[string]any{
			"resume_id": resumeID,
			"error":     err,
		})
	}
	return outcome, nil
}

func (s *Session) flush(ctx context.Context, resumeID string, turns []types.ChatTurn) error {
	if s.sink == nil {
		return nil
	}
	if err := s.sink.UpdateChatLog(ctx, resumeID, turns); err != nil {
		return fmt.Errorf("failed to save chat log: %w", err)
	}
	return nil
}

// plainText is what a structured reply shows when it could not be applied
func plainText(resp *types.ChatResponse) string {
	if text := resp.Text(); text != "" {
		return text
	}
	return strings.TrimSpace(string(resp.JSON))
}
