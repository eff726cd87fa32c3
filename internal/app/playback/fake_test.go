package playback

import (
	"context"
	"sync"
	"sync/atomic"
)

// fakeService is a test double for Service.
type fakeService struct {
	mu           sync.Mutex
	loadErr      error
	newHandleErr error
	loadCalls    int
	handles      []*fakeHandle
	opts         []HandleOptions
}

func (s *fakeService) Load(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadCalls++
	return s.loadErr
}

func (s *fakeService) NewHandle(_ context.Context, opts HandleOptions, l Listener) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = append(s.opts, opts)
	if s.newHandleErr != nil {
		return nil, s.newHandleErr
	}
	h := &fakeHandle{
		listeners: []Listener{l},
		videos:    []string{opts.VideoID},
		state:     PlayerUnstarted,
	}
	s.handles = append(s.handles, h)
	return h, nil
}

func (s *fakeService) SetLoadErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

func (s *fakeService) SetNewHandleErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newHandleErr = err
}

func (s *fakeService) LoadCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadCalls
}

func (s *fakeService) HandleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

func (s *fakeService) Handle(i int) *fakeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles[i]
}

func (s *fakeService) Options(i int) HandleOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts[i]
}

// slowService holds NewHandle until release is closed. Unless ignoreCtx is
// set, a cancelled context ends the wait.
type slowService struct {
	fakeService
	ignoreCtx bool
	started   chan struct{}
	release   chan struct{}
	once      sync.Once
	cancelled atomic.Bool
}

func newSlowService(ignoreCtx bool) *slowService {
	return &slowService{
		ignoreCtx: ignoreCtx,
		started:   make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (s *slowService) NewHandle(ctx context.Context, opts HandleOptions, l Listener) (Handle, error) {
	s.once.Do(func() { close(s.started) })
	if s.ignoreCtx {
		<-s.release
		return s.fakeService.NewHandle(ctx, opts, l)
	}
	select {
	case <-s.release:
	case <-ctx.Done():
		s.cancelled.Store(true)
		return nil, ctx.Err()
	}
	return s.fakeService.NewHandle(ctx, opts, l)
}

// eagerService reports ready before NewHandle returns.
type eagerService struct {
	fakeService
	duration float64
}

func (s *eagerService) NewHandle(ctx context.Context, opts HandleOptions, l Listener) (Handle, error) {
	h, err := s.fakeService.NewHandle(ctx, opts, l)
	if err == nil {
		l.OnReady(s.duration)
	}
	return h, err
}

// fakeHandle is a test double for Handle. Notifications are only delivered
// when a test calls the listener explicitly.
type fakeHandle struct {
	mu               sync.Mutex
	listeners        []Listener
	videos           []string
	plays            int
	pauses           int
	seeks            []float64
	currentTime      float64
	duration         float64
	state            PlayerState
	currentTimeCalls int
	destroyed        int
}

func (h *fakeHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.plays++
	return nil
}

func (h *fakeHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pauses++
	return nil
}

func (h *fakeHandle) Seek(seconds float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seeks = append(h.seeks, seconds)
	return nil
}

func (h *fakeHandle) LoadVideo(videoID string, _ float64, l Listener) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.videos = append(h.videos, videoID)
	h.listeners = append(h.listeners, l)
	return nil
}

func (h *fakeHandle) CurrentTime() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentTimeCalls++
	return h.currentTime
}

func (h *fakeHandle) Duration() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.duration
}

func (h *fakeHandle) State() PlayerState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *fakeHandle) Destroy() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.destroyed++
}

// Test helpers

func (h *fakeHandle) Listener() Listener {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.listeners[len(h.listeners)-1]
}

func (h *fakeHandle) Videos() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.videos))
	copy(out, h.videos)
	return out
}

func (h *fakeHandle) Plays() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.plays
}

func (h *fakeHandle) Pauses() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pauses
}

func (h *fakeHandle) Seeks() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]float64, len(h.seeks))
	copy(out, h.seeks)
	return out
}

func (h *fakeHandle) CurrentTimeCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentTimeCalls
}

func (h *fakeHandle) Destroyed() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.destroyed
}

func (h *fakeHandle) SetState(s PlayerState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
}

func (h *fakeHandle) SetCurrentTime(t float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentTime = t
}

func (h *fakeHandle) SetDuration(d float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.duration = d
}

// fakeOpener records opened URLs.
type fakeOpener struct {
	mu     sync.Mutex
	opened []string
	err    error
}

func (o *fakeOpener) Open(_ context.Context, rawURL string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, rawURL)
	return o.err
}

var (
	_ Service = (*fakeService)(nil)
	_ Service = (*slowService)(nil)
	_ Service = (*eagerService)(nil)
	_ Handle  = (*fakeHandle)(nil)
	_ Opener  = (*fakeOpener)(nil)
)
