package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/resume-builder/internal/chat"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/patrickmn/go-cache"
)

// DefaultIdleTimeout is how long an untouched workspace stays open
const DefaultIdleTimeout = time.Hour

// ErrResumeNotFound is returned when the store has no resume with the requested id
var ErrResumeNotFound = errors.New("resume not found")

// Store loads and persists the state of an open resume
type Store interface {
	ContentSaver
	chat.LogSink
	// LoadDocument returns nil, nil, nil when the resume does not exist
	LoadDocument(ctx context.Context, resumeID string) (*types.ResumeDocument, []types.ChatTurn, error)
}

// Workspace bundles the live state of one open resume
type Workspace struct {
	Editor *Editor
	Chat   *chat.Session

	autosaver   *Autosaver
	unsubscribe func()
}

// Flush writes pending edits now
func (w *Workspace) Flush(ctx context.Context) error {
	return w.autosaver.Flush(ctx)
}

func (w *Workspace) close(ctx context.Context) error {
	w.unsubscribe()
	latest, _ := w.Editor.Snapshot()
	err := w.autosaver.Close(ctx, latest)
	w.Editor.Close()
	return err
}

// RegistryOptions tunes a Registry; zero values select the defaults
type RegistryOptions struct {
	IdleTimeout      time.Duration
	AutosaveDebounce time.Duration
}

// Registry keeps open workspaces in memory keyed by resume id. A workspace idle for longer
// than the idle timeout is evicted and its pending edits are saved.
type Registry struct {
	cache     *cache.Cache
	store     Store
	completer chat.Completer
	debounce  time.Duration
	logger    observability.Logger

	loadMu sync.Mutex
}

// NewRegistry creates a Registry
func NewRegistry(store Store, completer chat.Completer, opts RegistryOptions, logger observability.Logger) *Registry {
	if logger == nil {
		logger = observability.NewNop()
	}
	idle := opts.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	r := &Registry{
		cache:     cache.New(idle, idle/6),
		store:     store,
		completer: completer,
		debounce:  opts.AutosaveDebounce,
		logger:    logger,
	}
	r.cache.OnEvicted(r.onEvicted)
	return r
}

func (r *Registry) onEvicted(resumeID string, value any) {
	ws, ok := value.(*Workspace)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := ws.close(ctx); err != nil {
		r.logger.Error("registry", "failed to save workspace on eviction", map[string]any{
			"resume_id": resumeID,
			"error":     err,
		})
		return
	}
	r.logger.Debug("registry", "workspace closed", map[string]any{"resume_id": resumeID})
}

// Get returns an open workspace and refreshes its idle timer
func (r *Registry) Get(resumeID string) (*Workspace, bool) {
	value, found := r.cache.Get(resumeID)
	if !found {
		return nil, false
	}
	r.cache.SetDefault(resumeID, value)
	return value.(*Workspace), true
}

// Open returns the workspace of a resume, loading it from the store when it is not open
func (r *Registry) Open(ctx context.Context, resumeID string) (*Workspace, error) {
	if ws, ok := r.Get(resumeID); ok {
		return ws, nil
	}

	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	if ws, ok := r.Get(resumeID); ok {
		return ws, nil
	}
	// an expired workspace the janitor has not swept yet is still held by the cache;
	// deleting it runs the eviction flush before the store is read
	r.cache.Delete(resumeID)

	doc, turns, err := r.store.LoadDocument(ctx, resumeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load resume %s: %w", resumeID, err)
	}
	if doc == nil {
		return nil, ErrResumeNotFound
	}

	ed := New(resumeID, doc, r.logger)
	saver := NewAutosaver(resumeID, r.store, r.debounce, doc, r.logger)
	updates, unsubscribe := ed.Subscribe()
	saver.Watch(updates)

	ws := &Workspace{
		Editor:      ed,
		Chat:        chat.NewSession(ed, r.completer, r.store, turns, r.logger),
		autosaver:   saver,
		unsubscribe: unsubscribe,
	}
	r.cache.SetDefault(resumeID, ws)
	r.logger.Info("registry", "workspace opened", map[string]any{"resume_id": resumeID})
	return ws, nil
}

// Evict closes a workspace, saving pending edits
func (r *Registry) Evict(resumeID string) {
	r.cache.Delete(resumeID)
}

// Len returns the number of open workspaces
func (r *Registry) Len() int {
	return r.cache.ItemCount()
}

// Close evicts every workspace, including expired ones not yet swept
func (r *Registry) Close() {
	r.cache.DeleteExpired()
	for resumeID := range r.cache.Items() {
		r.cache.Delete(resumeID)
	}
}
