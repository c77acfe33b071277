package editor

import (
	"context"
	"testing"
	"time"

	"github.com/jonathan/resume-builder/internal/types"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCompleter struct{}

func (staticCompleter) Complete(ctx context.Context, req *types.ChatRequest) (*types.ChatResponse, error) {
	return &types.ChatResponse{Message: "ok"}, nil
}

func TestRegistry_OpenReusesWorkspace(t *testing.T) {
	store := newFakeStore()
	store.docs["r1"] = sampleDoc()
	reg := NewRegistry(store, staticCompleter{}, RegistryOptions{AutosaveDebounce: time.Hour}, nil)
	defer reg.Close()

	first, err := reg.Open(context.Background(), "r1")
	require.NoError(t, err)
	second, err := reg.Open(context.Background(), "r1")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, reg.Len())
	assert.Len(t, first.Chat.Turns(), 1, "a resume without history starts with the welcome turn")
}

func TestRegistry_OpenMissing(t *testing.T) {
	reg := NewRegistry(newFakeStore(), staticCompleter{}, RegistryOptions{}, nil)
	defer reg.Close()

	_, err := reg.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrResumeNotFound)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_EvictFlushesPendingEdits(t *testing.T) {
	store := newFakeStore()
	store.docs["r1"] = sampleDoc()
	reg := NewRegistry(store, staticCompleter{}, RegistryOptions{AutosaveDebounce: time.Hour}, nil)

	ws, err := reg.Open(context.Background(), "r1")
	require.NoError(t, err)
	ws.Editor.AddEntry(nil)
	assert.Equal(t, 0, store.writeCount(), "the debounce window has not elapsed")

	reg.Evict("r1")
	assert.Equal(t, 1, store.writeCount())
	assert.Len(t, store.docs["r1"].WorkExperience, 2)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_IdleWorkspaceExpires(t *testing.T) {
	store := newFakeStore()
	store.docs["r1"] = sampleDoc()
	reg := NewRegistry(store, staticCompleter{}, RegistryOptions{
		IdleTimeout:      60 * time.Millisecond,
		AutosaveDebounce: time.Hour,
	}, nil)
	defer reg.Close()

	ws, err := reg.Open(context.Background(), "r1")
	require.NoError(t, err)
	ws.Editor.AddEntry(nil)

	require.Eventually(t, func() bool { return store.writeCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	_, ok := reg.Get("r1")
	assert.False(t, ok)
}

func TestRegistry_ReopenFlushesExpiredWorkspace(t *testing.T) {
	store := newFakeStore()
	store.docs["r1"] = sampleDoc()
	reg := NewRegistry(store, staticCompleter{}, RegistryOptions{AutosaveDebounce: time.Hour}, nil)
	defer reg.Close()
	// no janitor, so the expired workspace stays in the cache until touched
	reg.cache = cache.New(20*time.Millisecond, 0)
	reg.cache.OnEvicted(reg.onEvicted)

	old, err := reg.Open(context.Background(), "r1")
	require.NoError(t, err)
	updates, unsubscribe := old.Editor.Subscribe()
	defer unsubscribe()
	old.Editor.AddEntry(nil)
	<-updates

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, store.writeCount())

	reopened, err := reg.Open(context.Background(), "r1")
	require.NoError(t, err)
	assert.NotSame(t, old, reopened)
	assert.Equal(t, 1, store.writeCount(), "the expired workspace was flushed")
	doc, _ := reopened.Editor.Snapshot()
	assert.Len(t, doc.WorkExperience, 2)

	_, open := <-updates
	assert.False(t, open, "the expired editor was closed")
}

func TestRegistry_ChatLogPersisted(t *testing.T) {
	store := newFakeStore()
	store.docs["r1"] = sampleDoc()
	reg := NewRegistry(store, staticCompleter{}, RegistryOptions{AutosaveDebounce: time.Hour}, nil)
	defer reg.Close()

	ws, err := reg.Open(context.Background(), "r1")
	require.NoError(t, err)
	_, err = ws.Chat.Send(context.Background(), "hello")
	require.NoError(t, err)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.logs["r1"], 3)
}
