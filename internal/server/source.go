package server

import (
	"errors"
	"sync"
	"time"

	"github.com/rewired-gh/trendline/internal/render"
)

// ErrNotLoaded is returned by a Source before the first successful load.
var ErrNotLoaded = errors.New("fixtures not loaded yet")

// Source supplies the renderer for the most recently loaded fixtures.
type Source interface {
	Current() (*render.Renderer, time.Time, error)
}

// Latest holds the most recent renderer. Reloads swap it under a lock so
// in-flight requests keep the renderer they started with.
type Latest struct {
	mu       sync.RWMutex
	renderer *render.Renderer
	loadedAt time.Time
	lastErr  error
}

// Set installs a freshly loaded renderer.
func (l *Latest) Set(r *render.Renderer, loadedAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.renderer = r
	l.loadedAt = loadedAt
	l.lastErr = nil
}

// Fail records a failed reload. A previously loaded renderer stays in service.
func (l *Latest) Fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastErr = err
}

// Current implements Source.
func (l *Latest) Current() (*render.Renderer, time.Time, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.renderer == nil {
		if l.lastErr != nil {
			return nil, time.Time{}, l.lastErr
		}
		return nil, time.Time{}, ErrNotLoaded
	}
	return l.renderer, l.loadedAt, nil
}

// LastError returns the error of the most recent failed reload, if any.
func (l *Latest) LastError() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastErr
}
