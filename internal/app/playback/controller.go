package playback

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/jinglebox/internal/domain/playlist"
	"github.com/osa030/jinglebox/internal/domain/track"
)

// Errors
var (
	ErrClosed       = errors.New("controller is closed")
	ErrNotLoaded    = errors.New("player service is not loaded")
	ErrInvalidIndex = errors.New("track index out of range")
)

const (
	// DefaultPollInterval is how often the current time is read from a playing handle.
	DefaultPollInterval = 500 * time.Millisecond
	// DefaultSettleDelay is how long to wait after a track swap before re-querying duration.
	DefaultSettleDelay = time.Second
	// DefaultFailureBackoff delays the advance after every track in a row has failed.
	DefaultFailureBackoff = 5 * time.Second

	eventBufferSize = 64
)

// Config holds controller configuration.
type Config struct {
	PollInterval   time.Duration   // Progress polling interval
	SettleDelay    time.Duration   // Delay before re-querying duration after a load (0 disables)
	FailureBackoff time.Duration   // Delay before advancing once a full round of tracks failed
	Clock          clockwork.Clock // Time source for the poller and timers
}

// Snapshot is a point-in-time copy of the controller state.
type Snapshot struct {
	Position    int
	Track       track.Track
	Intent      Intent
	CurrentTime float64
	Duration    float64
	Lifecycle   Lifecycle
	Gate        Gate
	Epoch       uint64
}

// Controller drives a playlist through an external player handle.
//
// Every asynchronous notification is bound to the epoch that was current when
// its listener was registered. The epoch advances on each activation and each
// track load, so notifications from a superseded load or a destroyed handle
// are discarded.
type Controller struct {
	mu sync.Mutex

	playlist *playlist.Playlist
	service  Service
	host     Host
	config   Config
	clock    clockwork.Clock

	// Playback state
	position    int
	intent      Intent
	currentTime float64
	duration    float64
	lifecycle   Lifecycle
	gate        Gate

	// Handle state
	handle     Handle
	handlePos  int    // Position whose media is loaded in handle
	epoch      uint64 // Generation of the current load
	alive      bool
	activating bool // Bootstrap or handle construction in flight
	autoplay   bool // Play as soon as the handle is ready
	gesture    bool // Latest activation came from a user action
	failures   int  // Consecutive playback failures

	// Notifications received before the handle was stored
	early []func()

	// Timers
	pollTicker   clockwork.Ticker
	pollStop     chan struct{}
	settleTimer  clockwork.Timer
	backoffTimer clockwork.Timer

	// Events
	eventCh      chan Event
	eventsClosed bool

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a controller for pl. Nothing is loaded until Mount or
// StartPlayback is called.
func NewController(pl *playlist.Playlist, svc Service, host Host, config Config) *Controller {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.SettleDelay < 0 {
		config.SettleDelay = 0
	}
	if config.FailureBackoff <= 0 {
		config.FailureBackoff = DefaultFailureBackoff
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	gate := GateOpen
	if host.Restricted {
		gate = GateAwaitingUserStart
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		playlist:  pl,
		service:   svc,
		host:      host,
		config:    config,
		clock:     config.Clock,
		intent:    IntentPaused,
		lifecycle: LifecycleUnloaded,
		gate:      gate,
		alive:     true,
		eventCh:   make(chan Event, eventBufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Events returns the event channel. It is closed when the controller is closed.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Playlist returns the controller's playlist.
func (c *Controller) Playlist() *playlist.Playlist {
	return c.playlist
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Mount is the activation call made when the controller is mounted. In a
// restrictive environment it does nothing and waits for StartPlayback.
// Otherwise the player service is loaded in the background.
func (c *Controller) Mount() {
	c.mu.Lock()
	if !c.alive || c.lifecycle != LifecycleUnloaded {
		c.mu.Unlock()
		return
	}
	gated := c.gate == GateAwaitingUserStart
	c.mu.Unlock()

	if gated {
		zlog.Info().Msgf("playback: restrictive environment, waiting for user start: env=%q", c.host.Environment)
		return
	}

	go func() {
		_ = c.activate(c.ctx, false)
	}()
}

// StartPlayback is the explicit user start. It loads the player if needed and
// starts playback once ready. Initialisation errors are returned so the caller
// can show a notice; the controller stays retryable.
func (c *Controller) StartPlayback(ctx context.Context) error {
	return c.activate(ctx, true)
}

// OpenExternally returns the URL that opens this page outside the in-app
// browser, opening it through the host's Opener when one is configured.
func (c *Controller) OpenExternally(ctx context.Context) (string, error) {
	rawURL := c.host.ExternalURL
	if c.host.Opener == nil || rawURL == "" {
		return rawURL, nil
	}
	if err := c.host.Opener.Open(ctx, rawURL); err != nil {
		return rawURL, errors.Wrap(err, "failed to open external browser")
	}
	return rawURL, nil
}

// TogglePlay flips between playing and paused.
// With a ready handle only the command is issued; the intent follows the
// handle's state notification.
func (c *Controller) TogglePlay() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.alive {
		return
	}
	if c.lifecycle == LifecycleReady && c.handle != nil {
		if c.intent == IntentPlaying {
			c.pauseLocked()
		} else {
			c.playLocked()
		}
		return
	}
	if c.intent == IntentPlaying {
		c.setLocalIntentLocked(IntentPaused)
		return
	}
	c.setLocalIntentLocked(IntentPlaying)
}

// Play requests playback.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.alive {
		return
	}
	if c.lifecycle == LifecycleReady && c.handle != nil {
		c.playLocked()
		return
	}
	c.setLocalIntentLocked(IntentPlaying)
}

// Pause requests a pause.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.alive {
		return
	}
	if c.lifecycle == LifecycleReady && c.handle != nil {
		c.pauseLocked()
		return
	}
	c.setLocalIntentLocked(IntentPaused)
}

// Seek moves playback to seconds. The current time is updated immediately and
// reconciled by the next poll. Ignored unless the handle is ready.
func (c *Controller) Seek(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.alive || c.lifecycle != LifecycleReady || c.handle == nil {
		zlog.Debug().Msgf("playback: seek dropped, handle not ready: lifecycle=%s", c.lifecycle)
		return
	}
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}

	c.currentTime = seconds
	if err := c.handle.Seek(seconds); err != nil {
		zlog.Debug().Msgf("playback: seek failed: %v", err)
	}
	c.sendEventLocked(EventProgress)
}

// Next moves to the next track and plays it.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.alive || c.gatedLocked() {
		return
	}
	c.failures = 0
	c.changeTrackLocked(c.playlist.Next(c.position), true)
}

// Previous moves to the previous track and plays it.
func (c *Controller) Previous() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.alive || c.gatedLocked() {
		return
	}
	c.failures = 0
	c.changeTrackLocked(c.playlist.Previous(c.position), true)
}

// Select moves to track i and plays it.
func (c *Controller) Select(i int) error {
	if !c.playlist.Contains(i) {
		return errors.Wrapf(ErrInvalidIndex, "index %d (len %d)", i, c.playlist.Len())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.alive {
		return ErrClosed
	}
	if c.gatedLocked() {
		return nil
	}
	c.failures = 0
	c.changeTrackLocked(i, true)
	return nil
}

// Close tears the controller down. The poller and timers stop, the
// handle is destroyed and later notifications are ignored. Host.OnClose is
// invoked once.
func (c *Controller) Close() {
	// Aborts an in-flight load or handle construction.
	c.cancel()

	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return
	}
	c.alive = false
	c.stopPollLocked()
	c.stopSettleLocked()
	c.stopBackoffLocked()
	h := c.handle
	c.handle = nil
	c.lifecycle = LifecycleDestroyed
	c.sendEventLocked(EventClosed)
	c.eventsClosed = true
	close(c.eventCh)
	c.mu.Unlock()

	if h != nil {
		h.Destroy()
	}
	zlog.Debug().Msg("playback: controller closed")

	if c.host.OnClose != nil {
		c.host.OnClose()
	}
}

// activate runs Unloaded/Loading -> handle construction. gesture marks a user
// action: the handle autoplays and failures are returned.
func (c *Controller) activate(ctx context.Context, gesture bool) error {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return ErrClosed
	}
	if gesture {
		c.gesture = true
		c.autoplay = true
	}
	switch {
	case c.lifecycle == LifecycleReady:
		if gesture {
			c.playLocked()
		}
		c.mu.Unlock()
		return nil
	case c.activating, c.handle != nil:
		// A load or a constructed handle is already on its way to ready.
		c.mu.Unlock()
		return nil
	}

	c.activating = true
	c.lifecycle = LifecycleLoading
	c.epoch++
	c.sendEventLocked(EventStateChanged)
	c.mu.Unlock()

	ctx, cancel := c.bind(ctx)
	defer cancel()

	if err := c.service.Load(ctx); err != nil {
		c.mu.Lock()
		c.activating = false
		alive := c.alive
		c.mu.Unlock()

		if !alive {
			return ErrClosed
		}
		zlog.Warn().Msgf("playback: player service failed to load: gesture=%v err=%v", gesture, err)
		if gesture {
			return errors.Mark(errors.Wrap(err, "failed to load player service"), ErrNotLoaded)
		}
		return nil
	}

	if err := c.construct(ctx); err != nil && gesture {
		return err
	}
	return nil
}

// construct builds a handle for the current track bound to the current epoch.
// The service call runs without the lock; a handle that arrives after Close or
// after its epoch was superseded is destroyed. On failure the unconstructible
// track is skipped and the controller stays Loading until the next user
// action. The caller must have set activating.
func (c *Controller) construct(ctx context.Context) error {
	c.mu.Lock()
	if !c.alive || c.handle != nil {
		c.activating = false
		alive := c.alive
		c.mu.Unlock()
		if !alive {
			return ErrClosed
		}
		return nil
	}

	epoch := c.epoch
	pos := c.position
	t := c.playlist.At(pos)
	opts := HandleOptions{
		ContainerID: "player-" + uuid.New().String(),
		VideoID:     t.ExternalID,
		Autoplay:    c.autoplay,
		Muted:       c.autoplay && !c.gesture,
		PlaysInline: c.host.Restricted,
		Controls:    false,
	}
	c.mu.Unlock()

	zlog.Debug().Msgf("playback: constructing handle: container=%s track=%s epoch=%d autoplay=%v",
		opts.ContainerID, t.Label(), epoch, opts.Autoplay)

	h, err := c.service.NewHandle(ctx, opts, c.listener(epoch))

	c.mu.Lock()
	c.activating = false
	current := c.isCurrentLocked(epoch)
	if !current || err != nil {
		c.early = nil
	}
	if !current {
		alive := c.alive
		c.mu.Unlock()

		if h != nil {
			zlog.Debug().Msgf("playback: discarding handle of superseded load: container=%s epoch=%d", opts.ContainerID, epoch)
			h.Destroy()
		}
		if !alive {
			return ErrClosed
		}
		return nil
	}
	if err != nil {
		zlog.Warn().Msgf("playback: handle construction failed, skipping track: track=%s err=%v", t.Label(), err)
		if c.position == pos {
			c.position = c.playlist.Next(pos)
			c.sendEventLocked(EventTrackChanged)
		}
		c.mu.Unlock()
		return errors.Wrapf(err, "failed to construct player for %q", t.Label())
	}

	c.handle = h
	c.handlePos = pos
	c.replayEarlyLocked()
	c.mu.Unlock()
	return nil
}

// bind returns a context that is also cancelled when the controller closes.
func (c *Controller) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// retryLocked restarts a stalled activation after a user action.
// Must be called with lock held.
func (c *Controller) retryLocked() {
	if c.lifecycle != LifecycleLoading || c.handle != nil || c.activating {
		return
	}
	zlog.Debug().Msg("playback: retrying player activation")
	go func() {
		_ = c.activate(c.ctx, true)
	}()
}

// setLocalIntentLocked records intent while no live handle exists. A play
// intent is applied once the handle becomes ready.
// Must be called with lock held.
func (c *Controller) setLocalIntentLocked(intent Intent) {
	if c.gatedLocked() {
		zlog.Debug().Msg("playback: gated, waiting for user start")
		return
	}
	if c.intent != intent {
		c.intent = intent
		c.sendEventLocked(EventStateChanged)
	}
	c.autoplay = intent == IntentPlaying
	if c.autoplay {
		c.gesture = true
		c.retryLocked()
	}
}

func (c *Controller) playLocked() {
	c.autoplay = false
	if err := c.handle.Play(); err != nil {
		zlog.Debug().Msgf("playback: play command failed: %v", err)
	}
}

func (c *Controller) pauseLocked() {
	c.autoplay = false
	if err := c.handle.Pause(); err != nil {
		zlog.Debug().Msgf("playback: pause command failed: %v", err)
	}
}

// changeTrackLocked moves to index i. manual marks a user navigation, which
// starts playback of the new track; natural advances leave intent to the
// handle's notifications.
// Must be called with lock held.
func (c *Controller) changeTrackLocked(i int, manual bool) {
	c.position = c.playlist.Wrap(i)
	c.currentTime = 0
	c.duration = 0
	c.stopSettleLocked()
	c.stopBackoffLocked()

	if c.lifecycle != LifecycleReady || c.handle == nil {
		c.sendEventLocked(EventTrackChanged)
		if manual {
			c.setLocalIntentLocked(IntentPlaying)
		}
		return
	}

	c.loadTrackLocked(manual)
	c.sendEventLocked(EventTrackChanged)
}

// loadTrackLocked swaps the handle's media to the current position.
// Must be called with lock held and a ready handle.
func (c *Controller) loadTrackLocked(play bool) {
	h := c.handle
	if h.State() == PlayerPlaying {
		if err := h.Pause(); err != nil {
			zlog.Debug().Msgf("playback: pause before swap failed: %v", err)
		}
	}

	c.epoch++
	epoch := c.epoch
	t := c.playlist.At(c.position)
	c.currentTime = 0
	c.duration = 0

	zlog.Debug().Msgf("playback: loading track: index=%d track=%s epoch=%d play=%v", c.position, t.Label(), epoch, play)

	if err := h.LoadVideo(t.ExternalID, 0, c.listener(epoch)); err != nil {
		zlog.Warn().Msgf("playback: load failed: track=%s err=%v", t.Label(), err)
		c.skipLocked(ErrorUnknown)
		return
	}
	c.handlePos = c.position
	c.scheduleSettleLocked(epoch)

	if play {
		c.playLocked()
	}
}

// skipLocked advances past a track that failed to play. Every failure leads
// to exactly one advance. Once a full round of tracks has failed in a row the
// advance waits for the failure backoff, so an outage does not spin through
// the playlist.
// Must be called with lock held.
func (c *Controller) skipLocked(code ErrorCode) {
	c.failures++
	failed := c.playlist.At(c.position)
	zlog.Warn().Msgf("playback: track failed, skipping: track=%s code=%s failures=%d", failed.Label(), code, c.failures)
	c.sendEventLocked(EventTrackSkipped, code)

	if c.failures%c.playlist.Len() != 0 {
		c.advanceLocked()
		return
	}

	// Later notifications of the failed load are stale.
	c.epoch++
	epoch := c.epoch
	zlog.Error().Msgf("playback: every track failed, retrying in %s: failures=%d", c.config.FailureBackoff, c.failures)
	c.stopBackoffLocked()
	c.backoffTimer = c.clock.AfterFunc(c.config.FailureBackoff, func() {
		c.advanceAfterBackoff(epoch)
	})
}

func (c *Controller) advanceAfterBackoff(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isCurrentLocked(epoch) {
		return
	}
	c.backoffTimer = nil
	c.advanceLocked()
}

// advanceLocked moves past the failed track at the current position.
// Must be called with lock held.
func (c *Controller) advanceLocked() {
	next := c.playlist.Next(c.position)
	if c.lifecycle == LifecycleReady && c.handle != nil {
		c.changeTrackLocked(next, c.intent == IntentPlaying)
		return
	}

	// Not ready yet: the handle itself is unusable, build a fresh one.
	if c.handle != nil {
		c.handle.Destroy()
		c.handle = nil
	}
	c.epoch++
	c.position = next
	c.currentTime = 0
	c.duration = 0
	c.sendEventLocked(EventTrackChanged)
	if c.lifecycle == LifecycleLoading && !c.activating {
		c.activating = true
		go func() {
			_ = c.construct(c.ctx)
		}()
	}
}

func (c *Controller) stopBackoffLocked() {
	if c.backoffTimer != nil {
		c.backoffTimer.Stop()
		c.backoffTimer = nil
	}
}

// scheduleSettleLocked re-queries duration after the settle delay when the
// handle has not reported it for the new media.
// Must be called with lock held.
func (c *Controller) scheduleSettleLocked(epoch uint64) {
	c.stopSettleLocked()
	if c.config.SettleDelay <= 0 {
		return
	}
	c.settleTimer = c.clock.AfterFunc(c.config.SettleDelay, func() {
		c.settle(epoch)
	})
}

func (c *Controller) settle(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isCurrentLocked(epoch) || c.lifecycle != LifecycleReady || c.handle == nil || c.duration > 0 {
		return
	}
	if d := c.handle.Duration(); validSeconds(d) && d > 0 {
		c.duration = d
		c.sendEventLocked(EventProgress)
	}
}

func (c *Controller) stopSettleLocked() {
	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
}

// syncPollLocked runs the poller exactly while a ready handle is playing.
// Must be called with lock held.
func (c *Controller) syncPollLocked() {
	if c.alive && c.lifecycle == LifecycleReady && c.intent == IntentPlaying && c.handle != nil {
		c.startPollLocked()
		return
	}
	c.stopPollLocked()
}

func (c *Controller) startPollLocked() {
	if c.pollTicker != nil {
		return
	}
	ticker := c.clock.NewTicker(c.config.PollInterval)
	stop := make(chan struct{})
	c.pollTicker = ticker
	c.pollStop = stop

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				c.pollTick(stop)
			}
		}
	}()
}

func (c *Controller) stopPollLocked() {
	if c.pollTicker == nil {
		return
	}
	c.pollTicker.Stop()
	close(c.pollStop)
	c.pollTicker = nil
	c.pollStop = nil
}

func (c *Controller) pollTick(stop chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A stopped or replaced poller must not touch state.
	if c.pollStop != stop {
		return
	}
	if !c.alive || c.lifecycle != LifecycleReady || c.intent != IntentPlaying || c.handle == nil {
		return
	}

	if t := c.handle.CurrentTime(); validSeconds(t) && t >= 0 {
		c.currentTime = t
	}
	if c.duration <= 0 {
		if d := c.handle.Duration(); validSeconds(d) && d > 0 {
			c.duration = d
		}
	}
	c.sendEventLocked(EventProgress)
}

// gatedLocked reports whether only start and open-externally are available.
func (c *Controller) gatedLocked() bool {
	return c.lifecycle == LifecycleUnloaded && c.gate == GateAwaitingUserStart
}

func (c *Controller) isCurrentLocked(epoch uint64) bool {
	return c.alive && epoch == c.epoch
}

// notify runs fn for a notification of the load tagged epoch. Notifications
// that arrive while their handle is still being stored are queued and run
// once construct has stored it.
func (c *Controller) notify(epoch uint64, kind string, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isCurrentLocked(epoch) {
		zlog.Debug().Msgf("playback: stale %s ignored: epoch=%d current=%d", kind, epoch, c.epoch)
		return
	}
	if c.handle == nil && c.activating {
		c.early = append(c.early, func() {
			if c.isCurrentLocked(epoch) {
				fn()
			}
		})
		return
	}
	fn()
}

// replayEarlyLocked runs notifications queued during construction.
// Must be called with lock held.
func (c *Controller) replayEarlyLocked() {
	early := c.early
	c.early = nil
	for _, fn := range early {
		fn()
	}
}

// readyLocked handles ready(duration) for the current load.
// Must be called with lock held.
func (c *Controller) readyLocked(duration float64) {
	if validSeconds(duration) && duration > 0 {
		c.duration = duration
	}
	c.failures = 0

	if c.lifecycle != LifecycleLoading {
		c.sendEventLocked(EventProgress)
		return
	}

	c.lifecycle = LifecycleReady
	opened := c.gate == GateAwaitingUserStart
	c.gate = GateOpen
	zlog.Info().Msgf("playback: player ready: duration=%s epoch=%d", FormatTime(c.duration), c.epoch)
	c.sendEventLocked(EventReady)
	if opened {
		c.sendEventLocked(EventGateOpened)
	}

	if c.position != c.handlePos {
		// Navigation happened while loading.
		c.loadTrackLocked(c.autoplay)
		c.sendEventLocked(EventTrackChanged)
	} else if c.autoplay {
		c.playLocked()
	}
	c.syncPollLocked()
}

// stateChangeLocked reconciles intent with the handle's reported state.
// Must be called with lock held.
func (c *Controller) stateChangeLocked(state PlayerState) {
	switch state {
	case PlayerPlaying:
		c.failures = 0
		c.applyIntentLocked(IntentPlaying)
	case PlayerPaused:
		c.applyIntentLocked(IntentPaused)
	case PlayerEnded:
		if c.lifecycle == LifecycleReady {
			c.changeTrackLocked(c.playlist.Next(c.position), false)
		}
	case PlayerError:
		c.skipLocked(ErrorUnknown)
	case PlayerUnstarted:
	}
}

func (c *Controller) applyIntentLocked(intent Intent) {
	if c.intent != intent {
		c.intent = intent
		c.sendEventLocked(EventStateChanged)
	}
	c.syncPollLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Position:    c.position,
		Track:       c.playlist.At(c.position),
		Intent:      c.intent,
		CurrentTime: c.currentTime,
		Duration:    c.duration,
		Lifecycle:   c.lifecycle,
		Gate:        c.gate,
		Epoch:       c.epoch,
	}
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(t EventType, code ...ErrorCode) {
	if c.eventsClosed {
		return
	}
	e := Event{Type: t, Snapshot: c.snapshotLocked()}
	if len(code) > 0 {
		e.Code = code[0]
	}
	select {
	case c.eventCh <- e:
	default:
		// Channel full, drop event
	}
}

func (c *Controller) listener(epoch uint64) Listener {
	return &epochListener{c: c, epoch: epoch}
}

// epochListener binds handle notifications to the epoch of one load.
type epochListener struct {
	c     *Controller
	epoch uint64
}

func (l *epochListener) OnReady(durationSeconds float64) {
	l.c.notify(l.epoch, "ready", func() { l.c.readyLocked(durationSeconds) })
}

func (l *epochListener) OnStateChange(state PlayerState) {
	l.c.notify(l.epoch, "state change", func() { l.c.stateChangeLocked(state) })
}

func (l *epochListener) OnError(code ErrorCode) {
	l.c.notify(l.epoch, "error", func() { l.c.skipLocked(code) })
}

func validSeconds(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
