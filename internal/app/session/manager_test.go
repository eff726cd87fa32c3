package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/jinglebox/internal/app/environment"
	"github.com/osa030/jinglebox/internal/app/notification"
	"github.com/osa030/jinglebox/internal/app/playback"
	"github.com/osa030/jinglebox/internal/domain/playlist"
	"github.com/osa030/jinglebox/internal/domain/track"
)

const uaInstagram = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148 Instagram 300.0"

type stubHandle struct{}

func (stubHandle) Play() error { return nil }
func (stubHandle) Pause() error { return nil }
func (stubHandle) Seek(float64) error { return nil }
func (stubHandle) LoadVideo(string, float64, playback.Listener) error { return nil }
func (stubHandle) CurrentTime() float64 { return 0 }
func (stubHandle) Duration() float64 { return 0 }
func (stubHandle) State() playback.PlayerState { return playback.PlayerUnstarted }
func (stubHandle) Destroy() {}

type stubService struct {
	mu        sync.Mutex
	listeners []playback.Listener
}

func (s *stubService) Load(context.Context) error { return nil }

func (s *stubService) NewHandle(_ context.Context, _ playback.HandleOptions, l playback.Listener) (playback.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
	return stubHandle{}, nil
}

func (s *stubService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *stubService) Listener(i int) playback.Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listeners[i]
}

type chanStream struct {
	ch chan *notification.Notification
}

func (s *chanStream) Send(n *notification.Notification) error {
	s.ch <- n
	return nil
}

func newTestManager(t *testing.T, cfg Config) (*Manager, *stubService) {
	t.Helper()
	pl, err := playlist.New("xmas", []track.Track{
		{Title: "Last Christmas", Artist: "Wham!", ExternalID: "a"},
		{Title: "Jingle Bell Rock", Artist: "Bobby Helms", ExternalID: "b"},
	})
	require.NoError(t, err)

	if cfg.PageURL == "" {
		cfg.PageURL = "https://xmas.example.com/"
	}
	cfg.Playback.Clock = clockwork.NewFakeClock()
	svc := &stubService{}
	m := NewManager(cfg, pl, svc, environment.NewDetector(nil), nil)
	t.Cleanup(m.Close)
	return m, svc
}

func TestManager_MountNonRestrictive(t *testing.T) {
	m, svc := newTestManager(t, Config{})

	page, err := m.Mount(context.Background(), "Mozilla/5.0 (X11; Linux x86_64) Firefox/120.0")
	require.NoError(t, err)
	assert.NotEmpty(t, page.ID)
	assert.False(t, page.Environment.Restricted)
	assert.Equal(t, "https://xmas.example.com/", page.ExternalURL)

	require.Eventually(t, func() bool { return svc.Count() == 1 }, time.Second, 5*time.Millisecond)

	ctrl, err := m.Controller(page.ID)
	require.NoError(t, err)
	assert.Same(t, page.Controller, ctrl)
	assert.Equal(t, 1, m.Status().Pages)
}

func TestManager_MountRestrictive(t *testing.T) {
	m, svc := newTestManager(t, Config{})

	page, err := m.Mount(context.Background(), uaInstagram)
	require.NoError(t, err)
	assert.True(t, page.Environment.Restricted)
	assert.Equal(t, "x-safari-https://xmas.example.com/", page.ExternalURL)

	snap := page.Controller.Snapshot()
	assert.Equal(t, playback.GateAwaitingUserStart, snap.Gate)
	assert.Equal(t, 0, svc.Count())
}

func TestManager_EnvironmentOverride(t *testing.T) {
	m, _ := newTestManager(t, Config{EnvironmentOverride: uaInstagram})

	page, err := m.Mount(context.Background(), "Mozilla/5.0 Firefox/120.0")
	require.NoError(t, err)
	assert.True(t, page.Environment.Restricted)
}

func TestManager_UnmountRemovesPage(t *testing.T) {
	m, _ := newTestManager(t, Config{})

	page, err := m.Mount(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, m.Unmount(page.ID))

	assert.Equal(t, playback.LifecycleDestroyed, page.Controller.Snapshot().Lifecycle)
	_, err = m.Page(page.ID)
	assert.True(t, errors.Is(err, ErrNotMounted))
	assert.True(t, errors.Is(m.Unmount(page.ID), ErrNotMounted))
	assert.Empty(t, m.Pages())
}

func TestManager_ClosingControllerUnmounts(t *testing.T) {
	m, _ := newTestManager(t, Config{})

	page, err := m.Mount(context.Background(), "")
	require.NoError(t, err)
	page.Controller.Close()

	_, err = m.Controller(page.ID)
	assert.True(t, errors.Is(err, ErrNotMounted))
}

func TestManager_MaxPages(t *testing.T) {
	m, _ := newTestManager(t, Config{MaxPages: 1})

	_, err := m.Mount(context.Background(), "")
	require.NoError(t, err)
	_, err = m.Mount(context.Background(), "")
	require.Error(t, err)
	assert.Len(t, m.Pages(), 1)
}

func TestManager_ForwardsEvents(t *testing.T) {
	m, svc := newTestManager(t, Config{})
	stream := &chanStream{ch: make(chan *notification.Notification, 32)}

	page, err := m.Mount(context.Background(), "")
	require.NoError(t, err)
	m.GetNotificationManager().Subscribe(page.ID, stream)

	require.Eventually(t, func() bool { return svc.Count() == 1 }, time.Second, 5*time.Millisecond)
	svc.Listener(0).OnReady(120)

	deadline := time.After(time.Second)
	for {
		select {
		case n := <-stream.ch:
			assert.Equal(t, page.ID, n.PageID)
			if n.Event.Type == playback.EventReady {
				assert.Equal(t, 120.0, n.Event.Snapshot.Duration)
				return
			}
		case <-deadline:
			t.Fatal("ready event not forwarded")
		}
	}
}

func TestManager_Close(t *testing.T) {
	m, _ := newTestManager(t, Config{})

	p1, err := m.Mount(context.Background(), "")
	require.NoError(t, err)
	p2, err := m.Mount(context.Background(), uaInstagram)
	require.NoError(t, err)

	m.Close()
	assert.Equal(t, playback.LifecycleDestroyed, p1.Controller.Snapshot().Lifecycle)
	assert.Equal(t, playback.LifecycleDestroyed, p2.Controller.Snapshot().Lifecycle)
	assert.Equal(t, 0, m.Status().Pages)

	select {
	case <-m.Done():
	default:
		t.Fatal("done channel not closed")
	}

	_, err = m.Mount(context.Background(), "")
	assert.True(t, errors.Is(err, ErrManagerDown))
}
