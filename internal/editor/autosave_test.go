package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeStore struct {
	mu      sync.Mutex
	docs    map[string]*types.ResumeDocument
	logs    map[string][]types.ChatTurn
	writes  []*types.ResumeDocument
	failing bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs: make(map[string]*types.ResumeDocument),
		logs: make(map[string][]types.ChatTurn),
	}
}

func (s *fakeStore) UpdateContent(ctx context.Context, resumeID string, doc *types.ResumeDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("connection refused")
	}
	s.writes = append(s.writes, resume.Clone(doc))
	s.docs[resumeID] = resume.Clone(doc)
	return nil
}

func (s *fakeStore) UpdateChatLog(ctx context.Context, resumeID string, turns []types.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[resumeID] = turns
	return nil
}

func (s *fakeStore) LoadDocument(ctx context.Context, resumeID string) (*types.ResumeDocument, []types.ChatTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[resumeID]
	if !ok {
		return nil, nil, nil
	}
	return resume.Clone(doc), s.logs[resumeID], nil
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

func (s *fakeStore) setFailing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = v
}

const testDebounce = 30 * time.Millisecond

func TestAutosaver_DebouncesBurst(t *testing.T) {
	store := newFakeStore()
	saved := sampleDoc()
	a := NewAutosaver("r1", store, testDebounce, saved, nil)
	defer a.Stop()

	ed := New("r1", saved, nil)
	updates, unsubscribe := ed.Subscribe()
	defer unsubscribe()
	a.Watch(updates)

	_, _ = ed.EditResponsibility("we-1", 0, "B")
	_, _ = ed.EditResponsibility("we-1", 0, "BC")
	_, _ = ed.EditResponsibility("we-1", 0, "BCD")

	require.Eventually(t, func() bool { return store.writeCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDebounce)
	assert.Equal(t, 1, store.writeCount(), "one write for the whole burst")
	assert.Equal(t, "BCD", store.writes[0].WorkExperience[0].Responsibilities[0].Text)
}

func TestAutosaver_WindowRestartsOnEachEdit(t *testing.T) {
	const debounce = 100 * time.Millisecond
	store := newFakeStore()
	saved := sampleDoc()
	a := NewAutosaver("r1", store, debounce, saved, nil)
	defer a.Stop()

	ed := New("r1", saved, nil)
	updates, unsubscribe := ed.Subscribe()
	defer unsubscribe()
	a.Watch(updates)

	_, _ = ed.EditResponsibility("we-1", 0, "B")
	time.Sleep(debounce / 2)
	_, _ = ed.EditResponsibility("we-1", 0, "BC")
	last := time.Now()

	// past a full window from the first edit, inside the window of the second
	time.Sleep(debounce * 7 / 10)
	assert.Equal(t, 0, store.writeCount(), "the second edit restarted the window")

	require.Eventually(t, func() bool { return store.writeCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(last), debounce)
	time.Sleep(2 * debounce)
	assert.Equal(t, 1, store.writeCount())
	assert.Equal(t, "BC", store.writes[0].WorkExperience[0].Responsibilities[0].Text)
}

func TestAutosaver_SkipsUnchangedContent(t *testing.T) {
	store := newFakeStore()
	saved := sampleDoc()
	a := NewAutosaver("r1", store, testDebounce, saved, nil)

	a.Schedule(resume.Clone(saved))
	require.NoError(t, a.Flush(context.Background()))
	assert.Equal(t, 0, store.writeCount())
}

func TestAutosaver_FailureIsLoggedAndRetriedOnNextChange(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	store := newFakeStore()
	store.setFailing(true)
	saved := sampleDoc()
	a := NewAutosaver("r1", store, testDebounce, saved, observability.NewWithCore(core))
	defer a.Stop()

	changed := resume.Clone(saved)
	changed.ProfessionalSummary = "v1"
	a.Schedule(changed)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("autosave failed").Len() == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDebounce)
	assert.Equal(t, 1, logs.FilterMessage("autosave failed").Len(), "no automatic retry")

	store.setFailing(false)
	again := resume.Clone(changed)
	a.Schedule(again)
	require.Eventually(t, func() bool { return store.writeCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestAutosaver_ComparesWithLastSuccessfulSave(t *testing.T) {
	store := newFakeStore()
	saved := sampleDoc()
	a := NewAutosaver("r1", store, testDebounce, saved, nil)
	ctx := context.Background()

	changed := resume.Clone(saved)
	changed.ProfessionalSummary = "v1"

	store.setFailing(true)
	a.Schedule(changed)
	require.Error(t, a.Flush(ctx))

	store.setFailing(false)
	a.Schedule(resume.Clone(changed))
	require.NoError(t, a.Flush(ctx))
	assert.Equal(t, 1, store.writeCount(), "the failed attempt does not count as saved")

	a.Schedule(resume.Clone(changed))
	require.NoError(t, a.Flush(ctx))
	assert.Equal(t, 1, store.writeCount())
}

func TestAutosaver_CloseSavesLatest(t *testing.T) {
	store := newFakeStore()
	saved := sampleDoc()
	a := NewAutosaver("r1", store, time.Hour, saved, nil)

	changed := resume.Clone(saved)
	changed.Skills = []string{"Go"}
	a.Schedule(changed)
	require.NoError(t, a.Close(context.Background(), changed))
	assert.Equal(t, 1, store.writeCount())

	a.Schedule(resume.Clone(saved))
	require.NoError(t, a.Flush(context.Background()))
	assert.Equal(t, 1, store.writeCount(), "a stopped autosaver ignores new changes")
}
