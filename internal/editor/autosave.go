package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/types"
)

// DefaultDebounce is the quiet period before an autosave write fires
const DefaultDebounce = 2 * time.Second

const saveTimeout = 10 * time.Second

// ContentSaver persists a document
type ContentSaver interface {
	UpdateContent(ctx context.Context, resumeID string, doc *types.ResumeDocument) error
}

// Autosaver writes the latest document after a quiet period. Each Schedule call resets the
// timer. A write is skipped when the content equals the last successful save; a failed
// write is logged and waits for the next change.
type Autosaver struct {
	resumeID string
	saver    ContentSaver
	debounce time.Duration
	logger   observability.Logger

	mu        sync.Mutex
	timer     *time.Timer
	pending   *types.ResumeDocument
	lastSaved []byte
	stopped   bool

	saveMu sync.Mutex
}

// NewAutosaver creates an Autosaver. saved is the document as currently persisted.
func NewAutosaver(resumeID string, saver ContentSaver, debounce time.Duration, saved *types.ResumeDocument, logger observability.Logger) *Autosaver {
	if logger == nil {
		logger = observability.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	a := &Autosaver{
		resumeID: resumeID,
		saver:    saver,
		debounce: debounce,
		logger:   logger,
	}
	if saved != nil {
		if data, err := json.Marshal(saved); err == nil {
			a.lastSaved = data
		}
	}
	return a
}

// Watch schedules a save for every update until the channel closes
func (a *Autosaver) Watch(updates <-chan Update) {
	go func() {
		for u := range updates {
			a.Schedule(u.Document)
		}
	}()
}

// Schedule records doc as the content to save and restarts the debounce timer
func (a *Autosaver) Schedule(doc *types.ResumeDocument) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.pending = doc
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.debounce, a.fire)
}

func (a *Autosaver) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := a.Flush(ctx); err != nil {
		a.logger.Error("autosave", "autosave failed", map[string]any{
			"resume_id": a.resumeID,
			"error":     err,
		})
	}
}

// Flush saves pending content immediately
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	doc := a.pending
	a.pending = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	if doc == nil {
		return nil
	}
	return a.save(ctx, doc)
}

func (a *Autosaver) save(ctx context.Context, doc *types.ResumeDocument) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	a.mu.Lock()
	unchanged := a.lastSaved != nil && bytes.Equal(data, a.lastSaved)
	a.mu.Unlock()
	if unchanged {
		return nil
	}

	if err := a.saver.UpdateContent(ctx, a.resumeID, doc); err != nil {
		return fmt.Errorf("failed to save resume %s: %w", a.resumeID, err)
	}

	a.mu.Lock()
	a.lastSaved = data
	a.mu.Unlock()
	a.logger.Debug("autosave", "resume saved", map[string]any{"resume_id": a.resumeID})
	return nil
}

// Stop cancels any pending timer; later Schedule calls are ignored
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.pending = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// Close stops the autosaver and writes latest if it differs from the last save
func (a *Autosaver) Close(ctx context.Context, latest *types.ResumeDocument) error {
	a.Stop()
	if latest == nil {
		return nil
	}
	return a.save(ctx, latest)
}
