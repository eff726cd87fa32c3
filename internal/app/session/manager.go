// Package session mounts playback controllers for page sessions and forwards
// their events to stream subscribers.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/jinglebox/internal/app/environment"
	"github.com/osa030/jinglebox/internal/app/notification"
	"github.com/osa030/jinglebox/internal/app/playback"
	"github.com/osa030/jinglebox/internal/app/session/registry"
	"github.com/osa030/jinglebox/internal/domain/playlist"
)

var (
	ErrNotMounted  = errors.New("page is not mounted")
	ErrManagerDown = errors.New("session manager is closed")
)

// Config represents session manager configuration.
type Config struct {
	PageURL             string          // Public URL of the page, rewritten for external opening
	MaxPages            int             // Upper bound of concurrently mounted pages (0 = unlimited)
	EnvironmentOverride string          // Used instead of the client environment when set
	Playback            playback.Config // Controller configuration
}

// Status summarises the manager.
type Status struct {
	PlaylistName string
	TrackCount   int
	Pages        int
	Subscribers  int
}

// Manager manages mounted pages.
type Manager struct {
	config       Config
	playlist     *playlist.Playlist
	service      playback.Service
	detector     *environment.Detector
	opener       playback.Opener
	registry     *registry.PageRegistry
	notification *notification.Manager

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewManager creates a new session manager. opener may be nil.
func NewManager(
	cfg Config,
	pl *playlist.Playlist,
	svc playback.Service,
	detector *environment.Detector,
	opener playback.Opener,
) *Manager {
	if detector == nil {
		detector = environment.NewDetector(nil)
	}
	return &Manager{
		config:       cfg,
		playlist:     pl,
		service:      svc,
		detector:     detector,
		opener:       opener,
		registry:     registry.NewPageRegistry(cfg.MaxPages),
		notification: notification.NewManager(),
		done:         make(chan struct{}),
	}
}

// Mount creates and activates a controller for a new page whose environment
// (User-Agent) string is env.
func (m *Manager) Mount(ctx context.Context, env string) (*registry.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerDown
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m.config.EnvironmentOverride != "" {
		env = m.config.EnvironmentOverride
	}
	detected := m.detector.Detect(env)
	externalURL := environment.ExternalURL(m.config.PageURL, detected.Platform)

	pageID := uuid.New().String()
	ctrl := playback.NewController(m.playlist, m.service, playback.Host{
		Environment: env,
		Restricted:  detected.Restricted,
		ExternalURL: externalURL,
		Opener:      m.opener,
		OnClose:     func() { m.onClose(pageID) },
	}, m.config.Playback)

	page := &registry.Page{
		ID:          pageID,
		Environment: detected,
		ExternalURL: externalURL,
		Controller:  ctrl,
		MountedAt:   time.Now(),
	}
	if err := m.registry.Add(page); err != nil {
		ctrl.Close()
		return nil, errors.Wrap(err, "failed to register page")
	}

	m.wg.Add(1)
	go m.forwardEvents(page)

	ctrl.Mount()
	zlog.Info().Msgf("session: page mounted: page=%s restricted=%v platform=%s",
		pageID, detected.Restricted, detected.Platform)
	return page, nil
}

// Page returns a mounted page.
func (m *Manager) Page(pageID string) (*registry.Page, error) {
	p, err := m.registry.Get(pageID)
	if err != nil {
		return nil, errors.Wrapf(ErrNotMounted, "page %s", pageID)
	}
	return p, nil
}

// Controller returns the controller of a mounted page.
func (m *Manager) Controller(pageID string) (*playback.Controller, error) {
	p, err := m.Page(pageID)
	if err != nil {
		return nil, err
	}
	return p.Controller, nil
}

// Unmount closes the controller of a page.
func (m *Manager) Unmount(pageID string) error {
	p, err := m.Page(pageID)
	if err != nil {
		return err
	}
	p.Controller.Close()
	return nil
}

// Pages returns all mounted pages, oldest first.
func (m *Manager) Pages() []*registry.Page {
	return m.registry.All()
}

// Done returns a channel that is closed when the manager is closed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// Playlist returns the playlist shared by all pages.
func (m *Manager) Playlist() *playlist.Playlist {
	return m.playlist
}

// Status returns a summary of the manager.
func (m *Manager) Status() Status {
	return Status{
		PlaylistName: m.playlist.Name(),
		TrackCount:   m.playlist.Len(),
		Pages:        m.registry.Count(),
		Subscribers:  m.notification.SubscriberCount(),
	}
}

// Close unmounts every page and drops all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.done)
	m.mu.Unlock()

	for _, p := range m.registry.All() {
		p.Controller.Close()
	}
	m.wg.Wait()
	m.notification.Close()
	zlog.Info().Msg("session: manager closed")
}

// onClose is the controller's close hook.
func (m *Manager) onClose(pageID string) {
	if m.registry.Remove(pageID) {
		zlog.Info().Msgf("session: page unmounted: page=%s", pageID)
	}
}

// forwardEvents publishes the controller's events until its channel closes.
func (m *Manager) forwardEvents(page *registry.Page) {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("session: event forwarding panicked: page=%s err=%v", page.ID, r)
		}
	}()

	for ev := range page.Controller.Events() {
		zlog.Debug().Msgf("session: playback event: page=%s type=%s position=%d", page.ID, ev.Type, ev.Snapshot.Position)
		m.notification.Publish(page.ID, ev)
	}
}
