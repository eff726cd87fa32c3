// Package bootstrap loads a process-wide dependency at most once.
//
// Concurrent callers share a single in-flight load. A failed load is not
// cached, so the next caller retries. Hooks registered before the load
// completes run once it succeeds; hooks registered afterwards run immediately.
package bootstrap

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// LoadFunc performs the actual load.
type LoadFunc func(ctx context.Context) error

// Loader runs a LoadFunc once per process.
type Loader struct {
	name  string
	load  LoadFunc
	group singleflight.Group

	mu     sync.Mutex
	loaded bool
	hooks  []func()
}

// New creates a loader. name is used in logs and errors.
func New(name string, load LoadFunc) *Loader {
	return &Loader{
		name: name,
		load: load,
	}
}

// Ensure loads the dependency unless it is already loaded. When a load is
// already running, Ensure waits for it instead of starting another one.
func (l *Loader) Ensure(ctx context.Context) error {
	if l.Loaded() {
		return nil
	}

	// The load is detached from the first caller's cancellation so other
	// waiters still get a result.
	detached := context.WithoutCancel(ctx)
	ch := l.group.DoChan(l.name, func() (any, error) {
		return nil, l.run(detached)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "%s: waiting for load", l.name)
	}
}

func (l *Loader) run(ctx context.Context) error {
	// A caller may have missed a load that finished just before it joined.
	if l.Loaded() {
		return nil
	}

	zlog.Debug().Msgf("bootstrap: loading %s", l.name)
	if err := l.load(ctx); err != nil {
		zlog.Warn().Msgf("bootstrap: %s load failed: %v", l.name, err)
		return errors.Wrapf(err, "%s: load failed", l.name)
	}

	l.mu.Lock()
	l.loaded = true
	hooks := l.hooks
	l.hooks = nil
	l.mu.Unlock()

	zlog.Info().Msgf("bootstrap: %s loaded", l.name)
	for _, fn := range hooks {
		fn()
	}
	return nil
}

// OnLoaded registers fn to run once the dependency is loaded. fn runs
// immediately when the load has already completed.
func (l *Loader) OnLoaded(fn func()) {
	l.mu.Lock()
	if !l.loaded {
		l.hooks = append(l.hooks, fn)
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	fn()
}

// Loaded reports whether a load has succeeded.
func (l *Loader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}
