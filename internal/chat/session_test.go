package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/resume-builder/internal/patch"
	"github.com/jonathan/resume-builder/internal/prompts"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocument struct {
	mu      sync.Mutex
	id      string
	doc     *types.ResumeDocument
	engine  *patch.Engine
	applied int
}

func newFakeDocument(id string) *fakeDocument {
	doc := resume.New()
	doc.PersonalInfo.Name = "Jane Doe"
	doc.Skills = []string{"Go"}
	return &fakeDocument{id: id, doc: doc, engine: patch.NewEngine(nil)}
}

func (d *fakeDocument) ResumeID() string { return d.id }

func (d *fakeDocument) Snapshot() (*types.ResumeDocument, uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return resume.Clone(d.doc), uint64(d.applied)
}

func (d *fakeDocument) ApplyPatch(sections map[string]json.RawMessage, source patch.Source) (patch.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	res, err := d.engine.ApplyAll(d.doc, sections, source)
	if err == nil {
		d.applied++
	}
	return res, err
}

type fakeCompleter struct {
	mu       sync.Mutex
	requests []*types.ChatRequest
	resp     *types.ChatResponse
	err      error
	release  chan struct{}
}

func (c *fakeCompleter) Complete(ctx context.Context, req *types.ChatRequest) (*types.ChatResponse, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	if c.release != nil {
		<-c.release
	}
	return c.resp, c.err
}

func (c *fakeCompleter) last() *types.ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[len(c.requests)-1]
}

type fakeSink struct {
	mu    sync.Mutex
	saved [][]types.ChatTurn
}

func (s *fakeSink) UpdateChatLog(ctx context.Context, resumeID string, turns []types.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, turns)
	return nil
}

func TestNewSession_WelcomeTurn(t *testing.T) {
	s := NewSession(newFakeDocument("r1"), &fakeCompleter{}, nil, nil, nil)

	turns := s.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, types.RoleAssistant, turns[0].Role)
	assert.Equal(t, prompts.MustGet(prompts.ChatFile, "welcome"), turns[0].Content)
}

func TestNewSession_History(t *testing.T) {
	history := []types.ChatTurn{{Role: types.RoleUser, Content: "hi"}}
	s := NewSession(newFakeDocument("r1"), &fakeCompleter{}, nil, history, nil)

	turns := s.Turns()
	turns[0].Content = "changed"
	assert.Equal(t, "hi", s.Turns()[0].Content, "Turns returns a copy")
}

func TestSend_Empty(t *testing.T) {
	completer := &fakeCompleter{}
	s := NewSession(newFakeDocument("r1"), completer, nil, nil, nil)

	_, err := s.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Len(t, s.Turns(), 1)
	assert.Empty(t, completer.requests)
}

func TestSend_PlainMessage(t *testing.T) {
	doc := newFakeDocument("r1")
	completer := &fakeCompleter{resp: &types.ChatResponse{Message: "Sure, tell me more."}}
	sink := &fakeSink{}
	s := NewSession(doc, completer, sink, nil, nil)

	outcome, err := s.Send(context.Background(), "Help me")
	require.NoError(t, err)
	assert.Nil(t, outcome.Result)
	assert.Equal(t, "Sure, tell me more.", outcome.Turn.Content)

	req := completer.last()
	assert.Equal(t, "r1", req.ResumeID)
	assert.Equal(t, "Help me", req.UserMessage)
	assert.Equal(t, "Jane Doe", req.ResumeData.PersonalInfo.Name)
	assert.Len(t, req.ChatLog, 1, "the log before this message")
	assert.Empty(t, req.PromptTemplate)

	turns := s.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, types.RoleUser, turns[1].Role)
	assert.Equal(t, types.RoleAssistant, turns[2].Role)

	require.Len(t, sink.saved, 1)
	assert.Len(t, sink.saved[0], 3, "the whole log is flushed")
	assert.Equal(t, 0, doc.applied)
}

func TestSend_InstructionAddsEntry(t *testing.T) {
	doc := newFakeDocument("r1")
	completer := &fakeCompleter{resp: &types.ChatResponse{
		JSON: json.RawMessage(`{"company":"Acme","role":"Engineer","responsibilities":["Built APIs"]}`),
	}}
	s := NewSession(doc, completer, nil, nil, nil)

	require.NoError(t, s.SetInstruction("add_work_experience", nil))
	outcome, err := s.Send(context.Background(), "I worked at Acme as an engineer")
	require.NoError(t, err)

	req := completer.last()
	add, err := prompts.GetInstruction("add_work_experience")
	require.NoError(t, err)
	assert.Equal(t, add.Description, req.AssistantContext)
	assert.Equal(t, add.Prompt, req.PromptTemplate)

	require.NotNil(t, outcome.Result)
	assert.Equal(t, "Work experience updated", outcome.Turn.Content)
	assert.Nil(t, s.ActiveInstruction(), "the instruction is cleared on send")

	snapshot, _ := doc.Snapshot()
	require.Len(t, snapshot.WorkExperience, 1)
	entry := snapshot.WorkExperience[0]
	assert.Equal(t, "Acme", entry.Company)
	assert.Equal(t, types.EntryProposedNew, entry.Mode)
	assert.Equal(t, "Built APIs", entry.Responsibilities[0].Text)
}

func TestSend_SectionKeysWinOverTarget(t *testing.T) {
	doc := newFakeDocument("r1")
	completer := &fakeCompleter{resp: &types.ChatResponse{
		Message: "Added two skills",
		JSON:    json.RawMessage(`"{\"skills\": [\"SQL\", \"Docker\"]}"`),
	}}
	s := NewSession(doc, completer, nil, nil, nil)

	require.NoError(t, s.SetInstruction("write_summary", nil))
	outcome, err := s.Send(context.Background(), "add skills")
	require.NoError(t, err)
	assert.Equal(t, "Skills list updated", outcome.Turn.Content)

	snapshot, _ := doc.Snapshot()
	assert.Equal(t, []string{"Go", "SQL", "Docker"}, snapshot.Skills)
}

func TestSend_UnappliablePatchFallsBackToText(t *testing.T) {
	doc := newFakeDocument("r1")
	completer := &fakeCompleter{resp: &types.ChatResponse{
		Message: "Here you go",
		JSON:    json.RawMessage(`{"skills": 5, "languages": ["Spanish"]}`),
	}}
	s := NewSession(doc, completer, nil, nil, nil)

	outcome, err := s.Send(context.Background(), "update")
	require.NoError(t, err)
	assert.Nil(t, outcome.Result)
	assert.Equal(t, "Here you go", outcome.Turn.Content)

	snapshot, _ := doc.Snapshot()
	assert.Empty(t, snapshot.Languages, "no section of a failed patch is applied")
}

func TestSend_CompleterFailure(t *testing.T) {
	doc := newFakeDocument("r1")
	completer := &fakeCompleter{err: errors.New("upstream 502")}
	sink := &fakeSink{}
	s := NewSession(doc, completer, sink, nil, nil)

	_, err := s.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream 502")

	turns := s.Turns()
	require.Len(t, turns, 2, "the user turn stays")
	assert.Equal(t, "hello", turns[1].Content)
	assert.False(t, s.Pending())
	assert.Empty(t, sink.saved)
	assert.Equal(t, 0, doc.applied)
}

func TestSend_SingleInFlight(t *testing.T) {
	completer := &fakeCompleter{
		resp:    &types.ChatResponse{Message: "ok"},
		release: make(chan struct{}),
	}
	s := NewSession(newFakeDocument("r1"), completer, nil, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "first")
		done <- err
	}()
	require.Eventually(t, s.Pending, time.Second, 5*time.Millisecond)

	_, err := s.Send(context.Background(), "second")
	assert.ErrorIs(t, err, ErrRequestInFlight)

	close(completer.release)
	require.NoError(t, <-done)
	assert.False(t, s.Pending())
	assert.Len(t, s.Turns(), 3)
}

func TestSend_ResponseAfterClearIsIgnored(t *testing.T) {
	doc := newFakeDocument("r1")
	completer := &fakeCompleter{
		resp:    &types.ChatResponse{JSON: json.RawMessage(`{"skills": ["SQL"]}`)},
		release: make(chan struct{}),
	}
	s := NewSession(doc, completer, nil, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "add SQL")
		done <- err
	}()
	require.Eventually(t, s.Pending, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Clear(context.Background()))
	close(completer.release)

	assert.ErrorIs(t, <-done, ErrStaleResponse)
	assert.Len(t, s.Turns(), 1)
	snapshot, _ := doc.Snapshot()
	assert.Equal(t, []string{"Go"}, snapshot.Skills)
}

func TestSend_ResponseAfterRebindIsIgnored(t *testing.T) {
	first := newFakeDocument("r1")
	completer := &fakeCompleter{
		resp:    &types.ChatResponse{JSON: json.RawMessage(`{"skills": ["SQL"]}`)},
		release: make(chan struct{}),
	}
	s := NewSession(first, completer, nil, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "add SQL")
		done <- err
	}()
	require.Eventually(t, s.Pending, time.Second, 5*time.Millisecond)

	s.Rebind(newFakeDocument("r2"))
	close(completer.release)

	assert.ErrorIs(t, <-done, ErrStaleResponse)
	assert.Equal(t, 0, first.applied)
}

func TestSetInstruction(t *testing.T) {
	s := NewSession(newFakeDocument("r1"), &fakeCompleter{}, nil, nil, nil)

	var unknown *prompts.UnknownInstructionError
	assert.True(t, errors.As(s.SetInstruction("translate", nil), &unknown))
	assert.Nil(t, s.ActiveInstruction())

	var missing *prompts.MissingParamsError
	assert.True(t, errors.As(s.SetInstruction("enhance_work_experience", map[string]string{"Company": "Acme"}), &missing))

	params := map[string]string{"Company": "Acme", "Role": "Engineer"}
	require.NoError(t, s.SetInstruction("enhance_work_experience", params))
	params["Company"] = "changed"
	assert.Equal(t, "Acme", s.ActiveInstruction().Params["Company"])

	s.CloseInstruction()
	assert.Nil(t, s.ActiveInstruction())
}

func TestSend_EnhanceRendersParams(t *testing.T) {
	completer := &fakeCompleter{resp: &types.ChatResponse{Message: "Which bullets matter most?"}}
	s := NewSession(newFakeDocument("r1"), completer, nil, nil, nil)

	require.NoError(t, s.SetInstruction("enhance_work_experience", map[string]string{"Company": "Acme", "Role": "Engineer"}))
	_, err := s.Send(context.Background(), "focus on latency work")
	require.NoError(t, err)
	assert.Contains(t, completer.last().PromptTemplate, "Engineer role at Acme")
}

func TestClear(t *testing.T) {
	sink := &fakeSink{}
	completer := &fakeCompleter{resp: &types.ChatResponse{Message: "ok"}}
	s := NewSession(newFakeDocument("r1"), completer, sink, nil, nil)

	_, err := s.Send(context.Background(), "hello")
	require.NoError(t, err)
	require.NoError(t, s.SetInstruction("write_summary", nil))

	require.NoError(t, s.Clear(context.Background()))
	assert.Len(t, s.Turns(), 1)
	assert.Nil(t, s.ActiveInstruction())
	require.Len(t, sink.saved, 2)
	assert.Len(t, sink.saved[1], 1)
}
