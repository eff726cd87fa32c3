package connect

import (
	"context"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/jinglebox/internal/app/notification"
	"github.com/osa030/jinglebox/internal/app/playback"
	"github.com/osa030/jinglebox/internal/app/session"
)

var errStreamClosed = errors.New("stream closed")

// PlaybackService implements the PlaybackService RPC. Each mounted page owns
// one playback controller; every call except Mount and GetPlaylist addresses a
// page by id.
type PlaybackService struct {
	session *session.Manager
}

// NewPlaybackService creates a new PlaybackService.
func NewPlaybackService(session *session.Manager) *PlaybackService {
	return &PlaybackService{session: session}
}

// Mount handles page mount requests.
func (s *PlaybackService) Mount(
	ctx context.Context,
	req *connect.Request[MountRequest],
) (*connect.Response[MountResponse], error) {
	env := req.Msg.Environment
	if env == "" {
		env = req.Header().Get("User-Agent")
	}

	page, err := s.session.Mount(ctx, env)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&MountResponse{
		Page:  toPageInfo(page),
		State: toPlaybackState(page.ID, page.Controller.Snapshot()),
	}), nil
}

// StartPlayback handles the explicit user start.
func (s *PlaybackService) StartPlayback(
	ctx context.Context,
	req *connect.Request[PageRequest],
) (*connect.Response[StateResponse], error) {
	return s.control(req.Msg.PageID, func(c *playback.Controller) error {
		return c.StartPlayback(ctx)
	})
}

// TogglePlay flips between playing and paused.
func (s *PlaybackService) TogglePlay(
	ctx context.Context,
	req *connect.Request[PageRequest],
) (*connect.Response[StateResponse], error) {
	return s.control(req.Msg.PageID, func(c *playback.Controller) error {
		c.TogglePlay()
		return nil
	})
}

// Play requests playback.
func (s *PlaybackService) Play(
	ctx context.Context,
	req *connect.Request[PageRequest],
) (*connect.Response[StateResponse], error) {
	return s.control(req.Msg.PageID, func(c *playback.Controller) error {
		c.Play()
		return nil
	})
}

// Pause requests a pause.
func (s *PlaybackService) Pause(
	ctx context.Context,
	req *connect.Request[PageRequest],
) (*connect.Response[StateResponse], error) {
	return s.control(req.Msg.PageID, func(c *playback.Controller) error {
		c.Pause()
		return nil
	})
}

// Next moves to the next track.
func (s *PlaybackService) Next(
	ctx context.Context,
	req *connect.Request[PageRequest],
) (*connect.Response[StateResponse], error) {
	return s.control(req.Msg.PageID, func(c *playback.Controller) error {
		c.Next()
		return nil
	})
}

// Previous moves to the previous track.
func (s *PlaybackService) Previous(
	ctx context.Context,
	req *connect.Request[PageRequest],
) (*connect.Response[StateResponse], error) {
	return s.control(req.Msg.PageID, func(c *playback.Controller) error {
		c.Previous()
		return nil
	})
}

// Select jumps to a playlist index.
func (s *PlaybackService) Select(
	ctx context.Context,
	req *connect.Request[SelectRequest],
) (*connect.Response[StateResponse], error) {
	return s.control(req.Msg.PageID, func(c *playback.Controller) error {
		return c.Select(req.Msg.Index)
	})
}

// Seek moves playback to an absolute position.
func (s *PlaybackService) Seek(
	ctx context.Context,
	req *connect.Request[SeekRequest],
) (*connect.Response[StateResponse], error) {
	return s.control(req.Msg.PageID, func(c *playback.Controller) error {
		c.Seek(req.Msg.Seconds)
		return nil
	})
}

// GetState returns the page state.
func (s *PlaybackService) GetState(
	ctx context.Context,
	req *connect.Request[PageRequest],
) (*connect.Response[StateResponse], error) {
	return s.control(req.Msg.PageID, func(*playback.Controller) error { return nil })
}

// OpenExternally returns the URL that opens the page in an external browser.
func (s *PlaybackService) OpenExternally(
	ctx context.Context,
	req *connect.Request[PageRequest],
) (*connect.Response[OpenExternallyResponse], error) {
	ctrl, err := s.session.Controller(req.Msg.PageID)
	if err != nil {
		return nil, toConnectError(err)
	}

	url, err := ctrl.OpenExternally(ctx)
	if err != nil {
		// The URL is still usable by the client.
		zlog.Warn().Msgf("api: external open failed: page=%s err=%v", req.Msg.PageID, err)
	}
	return connect.NewResponse(&OpenExternallyResponse{URL: url}), nil
}

// Unmount closes the page's controller.
func (s *PlaybackService) Unmount(
	ctx context.Context,
	req *connect.Request[PageRequest],
) (*connect.Response[UnmountResponse], error) {
	if err := s.session.Unmount(req.Msg.PageID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&UnmountResponse{Success: true}), nil
}

// GetPlaylist returns the shared playlist.
func (s *PlaybackService) GetPlaylist(
	ctx context.Context,
	req *connect.Request[GetPlaylistRequest],
) (*connect.Response[GetPlaylistResponse], error) {
	pl := s.session.Playlist()
	tracks := make([]TrackInfo, 0, pl.Len())
	for i, t := range pl.Tracks() {
		tracks = append(tracks, toTrackInfo(i, t))
	}
	return connect.NewResponse(&GetPlaylistResponse{
		Name:   pl.Name(),
		Tracks: tracks,
	}), nil
}

// SubscribeEvents streams playback events. A page subscription starts with
// the page's current state.
func (s *PlaybackService) SubscribeEvents(
	ctx context.Context,
	req *connect.Request[SubscribeEventsRequest],
	stream *connect.ServerStream[Event],
) error {
	pageID := req.Msg.PageID
	adapter := &eventStreamAdapter{stream: stream}
	defer adapter.close()

	if pageID != "" {
		page, err := s.session.Page(pageID)
		if err != nil {
			return toConnectError(err)
		}
		initial := &Event{
			PageID: pageID,
			Type:   eventTypeInitialState,
			State:  toPlaybackState(pageID, page.Controller.Snapshot()),
		}
		if err := stream.Send(initial); err != nil {
			return err
		}
	}

	notifManager := s.session.GetNotificationManager()
	subscriptionID := notifManager.Subscribe(pageID, adapter)
	defer notifManager.Unsubscribe(subscriptionID)

	// Wait for context cancellation or session end
	select {
	case <-ctx.Done():
	case <-s.session.Done():
	}
	return nil
}

// eventStreamAdapter adapts connect.ServerStream to notification.Stream.
// Sends are serialised and refused once the handler has returned.
type eventStreamAdapter struct {
	mu     sync.Mutex
	closed bool
	stream *connect.ServerStream[Event]
}

func (a *eventStreamAdapter) Send(n *notification.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errStreamClosed
	}
	return a.stream.Send(toEvent(n))
}

func (a *eventStreamAdapter) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}

// control runs fn on the page's controller and returns the resulting state.
func (s *PlaybackService) control(
	pageID string,
	fn func(*playback.Controller) error,
) (*connect.Response[StateResponse], error) {
	ctrl, err := s.session.Controller(pageID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := fn(ctrl); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&StateResponse{
		State: toPlaybackState(pageID, ctrl.Snapshot()),
	}), nil
}

// NewPlaybackServiceHandler builds an HTTP handler serving every PlaybackService
// procedure. It returns the path to mount the handler on.
func NewPlaybackServiceHandler(svc *PlaybackService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(PlaybackServiceMountProcedure, connect.NewUnaryHandler(PlaybackServiceMountProcedure, svc.Mount, opts...))
	mux.Handle(PlaybackServiceStartPlaybackProcedure, connect.NewUnaryHandler(PlaybackServiceStartPlaybackProcedure, svc.StartPlayback, opts...))
	mux.Handle(PlaybackServiceTogglePlayProcedure, connect.NewUnaryHandler(PlaybackServiceTogglePlayProcedure, svc.TogglePlay, opts...))
	mux.Handle(PlaybackServicePlayProcedure, connect.NewUnaryHandler(PlaybackServicePlayProcedure, svc.Play, opts...))
	mux.Handle(PlaybackServicePauseProcedure, connect.NewUnaryHandler(PlaybackServicePauseProcedure, svc.Pause, opts...))
	mux.Handle(PlaybackServiceNextProcedure, connect.NewUnaryHandler(PlaybackServiceNextProcedure, svc.Next, opts...))
	mux.Handle(PlaybackServicePreviousProcedure, connect.NewUnaryHandler(PlaybackServicePreviousProcedure, svc.Previous, opts...))
	mux.Handle(PlaybackServiceSelectProcedure, connect.NewUnaryHandler(PlaybackServiceSelectProcedure, svc.Select, opts...))
	mux.Handle(PlaybackServiceSeekProcedure, connect.NewUnaryHandler(PlaybackServiceSeekProcedure, svc.Seek, opts...))
	mux.Handle(PlaybackServiceGetStateProcedure, connect.NewUnaryHandler(PlaybackServiceGetStateProcedure, svc.GetState, opts...))
	mux.Handle(PlaybackServiceOpenExternallyProcedure, connect.NewUnaryHandler(PlaybackServiceOpenExternallyProcedure, svc.OpenExternally, opts...))
	mux.Handle(PlaybackServiceUnmountProcedure, connect.NewUnaryHandler(PlaybackServiceUnmountProcedure, svc.Unmount, opts...))
	mux.Handle(PlaybackServiceGetPlaylistProcedure, connect.NewUnaryHandler(PlaybackServiceGetPlaylistProcedure, svc.GetPlaylist, opts...))
	mux.Handle(PlaybackServiceSubscribeEventsProcedure, connect.NewServerStreamHandler(PlaybackServiceSubscribeEventsProcedure, svc.SubscribeEvents, opts...))
	return "/" + PlaybackServiceName + "/", mux
}
