package mpv

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/jinglebox/internal/app/playback"
)

const (
	pauseObserverID = 1
	quitTimeout     = time.Second
)

// Handle is one mpv instance playing one track at a time.
//
// Notifications are dispatched on a dedicated goroutine in the order mpv
// reported them, never from inside a Handle method.
type Handle struct {
	conn   *conn
	urlFor func(string) string
	stop   func()

	mu        sync.Mutex
	state     playback.PlayerState
	paused    bool
	loaded    bool                // A file is loaded in the current entry
	pending   []playback.Listener // Loads waiting for their start-file event
	current   playback.Listener   // Listener of the entry mpv is playing
	destroyed bool

	queue    []func()
	wake     chan struct{}
	quit     chan struct{}
	stopOnce sync.Once
}

func newHandle(rwc io.ReadWriteCloser, stop func(), urlFor func(string) string) *Handle {
	h := &Handle{
		urlFor: urlFor,
		stop:   stop,
		state:  playback.PlayerUnstarted,
		paused: true,
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
	}
	h.conn = newConn(rwc, h.onEvent)
	go h.dispatchLoop()
	return h
}

// start configures the instance and loads the first track.
func (h *Handle) start(ctx context.Context, opts playback.HandleOptions, l playback.Listener) error {
	if _, err := h.conn.command(ctx, "observe_property", pauseObserverID, "pause"); err != nil {
		return errors.Wrap(err, "failed to observe pause")
	}
	if err := h.conn.setProperty(ctx, "mute", opts.Muted); err != nil {
		return errors.Wrap(err, "failed to set mute")
	}
	if err := h.conn.setProperty(ctx, "pause", !opts.Autoplay); err != nil {
		return errors.Wrap(err, "failed to set pause")
	}
	return h.load(ctx, opts.VideoID, 0, l)
}

// Play resumes playback.
func (h *Handle) Play() error {
	return h.conn.setProperty(context.Background(), "pause", false)
}

// Pause pauses playback.
func (h *Handle) Pause() error {
	return h.conn.setProperty(context.Background(), "pause", true)
}

// Seek moves to an absolute position in seconds.
func (h *Handle) Seek(seconds float64) error {
	_, err := h.conn.command(context.Background(), "seek", seconds, "absolute")
	return err
}

// LoadVideo replaces the current track. Notifications for the new track go to l.
func (h *Handle) LoadVideo(videoID string, startSeconds float64, l playback.Listener) error {
	return h.load(context.Background(), videoID, startSeconds, l)
}

func (h *Handle) load(ctx context.Context, videoID string, startSeconds float64, l playback.Listener) error {
	start := "none"
	if startSeconds > 0 {
		start = fmt.Sprintf("%g", startSeconds)
	}
	if err := h.conn.setProperty(ctx, "start", start); err != nil {
		return errors.Wrap(err, "failed to set start position")
	}

	h.mu.Lock()
	h.pending = append(h.pending, l)
	h.mu.Unlock()

	if _, err := h.conn.command(ctx, "loadfile", h.urlFor(videoID), "replace"); err != nil {
		h.mu.Lock()
		if n := len(h.pending); n > 0 && h.pending[n-1] == l {
			h.pending = h.pending[:n-1]
		}
		h.mu.Unlock()
		return errors.Wrapf(err, "failed to load %s", videoID)
	}
	return nil
}

// CurrentTime returns the playback position in seconds, 0 when unknown.
func (h *Handle) CurrentTime() float64 {
	v, err := h.conn.getFloat(context.Background(), "time-pos")
	if err != nil {
		return 0
	}
	return v
}

// Duration returns the track length in seconds, 0 when unknown.
func (h *Handle) Duration() float64 {
	v, err := h.conn.getFloat(context.Background(), "duration")
	if err != nil {
		return 0
	}
	return v
}

// State returns the last reported player state.
func (h *Handle) State() playback.PlayerState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Destroy quits mpv and releases the connection. Pending notifications are dropped.
func (h *Handle) Destroy() {
	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		return
	}
	h.destroyed = true
	h.queue = nil
	h.mu.Unlock()

	h.stopOnce.Do(func() { close(h.quit) })

	ctx, cancel := context.WithTimeout(context.Background(), quitTimeout)
	_, _ = h.conn.command(ctx, "quit")
	cancel()
	_ = h.conn.Close()
	if h.stop != nil {
		h.stop()
	}
	zlog.Debug().Msg("mpv: handle destroyed")
}

// onEvent runs on the reader goroutine. It binds each event to the listener
// of the entry it belongs to before queueing the notification.
func (h *Handle) onEvent(msg message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.destroyed {
		return
	}

	switch msg.Event {
	case "start-file":
		if len(h.pending) > 0 {
			h.current = h.pending[0]
			h.pending = h.pending[1:]
		}
		h.loaded = false
		h.state = playback.PlayerUnstarted

	case "file-loaded":
		l := h.current
		if l == nil {
			return
		}
		h.loaded = true
		if h.paused {
			h.state = playback.PlayerPaused
		} else {
			h.state = playback.PlayerPlaying
		}
		playing := !h.paused
		h.enqueueLocked(func() {
			l.OnReady(h.Duration())
			if playing {
				l.OnStateChange(playback.PlayerPlaying)
			}
		})

	case "property-change":
		if msg.Name != "pause" {
			return
		}
		var paused bool
		if err := json.Unmarshal(msg.Data, &paused); err != nil {
			return
		}
		if paused == h.paused {
			return
		}
		h.paused = paused
		l := h.current
		if !h.loaded || l == nil {
			return
		}
		state := playback.PlayerPlaying
		if paused {
			state = playback.PlayerPaused
		}
		h.state = state
		h.enqueueLocked(func() { l.OnStateChange(state) })

	case "end-file":
		l := h.current
		h.loaded = false
		if l == nil {
			return
		}
		switch msg.Reason {
		case "eof":
			h.state = playback.PlayerEnded
			h.enqueueLocked(func() { l.OnStateChange(playback.PlayerEnded) })
		case "error":
			h.state = playback.PlayerError
			code := errorCode(msg.FileError)
			zlog.Debug().Msgf("mpv: playback error: file_error=%q code=%s", msg.FileError, code)
			h.enqueueLocked(func() { l.OnError(code) })
		}
	}
}

func (h *Handle) enqueueLocked(fn func()) {
	h.queue = append(h.queue, fn)
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Handle) dispatchLoop() {
	for {
		select {
		case <-h.quit:
			return
		case <-h.wake:
		}
		for {
			h.mu.Lock()
			if len(h.queue) == 0 || h.destroyed {
				h.mu.Unlock()
				break
			}
			fn := h.queue[0]
			h.queue = h.queue[1:]
			h.mu.Unlock()
			fn()
		}
	}
}

// errorCode maps mpv's file_error text to a playback error code.
func errorCode(fileError string) playback.ErrorCode {
	e := strings.ToLower(fileError)
	switch {
	case strings.Contains(e, "unrecognized"), strings.Contains(e, "unsupported"), strings.Contains(e, "no audio or video"):
		return playback.ErrorUnsupported
	case strings.Contains(e, "loading failed"), strings.Contains(e, "not found"), strings.Contains(e, "no such"):
		return playback.ErrorNotFound
	case strings.Contains(e, "forbidden"), strings.Contains(e, "403"):
		return playback.ErrorEmbedRestricted
	case strings.Contains(e, "invalid"):
		return playback.ErrorInvalidParam
	default:
		return playback.ErrorUnknown
	}
}

var _ playback.Handle = (*Handle)(nil)
