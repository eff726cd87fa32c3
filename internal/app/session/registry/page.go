// Package registry keeps track of mounted pages.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/jinglebox/internal/app/environment"
	"github.com/osa030/jinglebox/internal/app/playback"
)

var (
	ErrInvalidPage   = errors.New("invalid page")
	ErrTooManyPages  = errors.New("too many mounted pages")
	ErrDuplicatePage = errors.New("page already mounted")
)

// Page is one mounted page and its controller.
type Page struct {
	ID          string
	Environment environment.Environment
	ExternalURL string
	Controller  *playback.Controller
	MountedAt   time.Time
}

// PageRegistry manages mounted pages with thread-safe access.
type PageRegistry struct {
	mu    sync.RWMutex
	max   int
	pages map[string]*Page
}

// NewPageRegistry creates a registry holding at most max pages (0 means no limit).
func NewPageRegistry(max int) *PageRegistry {
	return &PageRegistry{
		max:   max,
		pages: make(map[string]*Page),
	}
}

// Add registers a page.
func (r *PageRegistry) Add(p *Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pages[p.ID]; ok {
		return ErrDuplicatePage
	}
	if r.max > 0 && len(r.pages) >= r.max {
		return errors.Wrapf(ErrTooManyPages, "limit %d", r.max)
	}
	r.pages[p.ID] = p
	return nil
}

// Get retrieves a page by ID.
func (r *PageRegistry) Get(pageID string) (*Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pages[pageID]
	if !ok {
		return nil, ErrInvalidPage
	}
	return p, nil
}

// Remove unregisters a page and reports whether it was present.
func (r *PageRegistry) Remove(pageID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pages[pageID]; !ok {
		return false
	}
	delete(r.pages, pageID)
	return true
}

// All returns all pages, oldest first.
func (r *PageRegistry) All() []*Page {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Page, 0, len(r.pages))
	for _, p := range r.pages {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].MountedAt.Before(result[j].MountedAt)
	})
	return result
}

// Count returns the number of pages.
func (r *PageRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pages)
}
