package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// Client is a typed client for PlaybackService and AdminService.
type Client struct {
	baseURL string
	token   string

	mount           *connect.Client[MountRequest, MountResponse]
	startPlayback   *connect.Client[PageRequest, StateResponse]
	togglePlay      *connect.Client[PageRequest, StateResponse]
	play            *connect.Client[PageRequest, StateResponse]
	pause           *connect.Client[PageRequest, StateResponse]
	next            *connect.Client[PageRequest, StateResponse]
	previous        *connect.Client[PageRequest, StateResponse]
	selectTrack     *connect.Client[SelectRequest, StateResponse]
	seek            *connect.Client[SeekRequest, StateResponse]
	getState        *connect.Client[PageRequest, StateResponse]
	openExternally  *connect.Client[PageRequest, OpenExternallyResponse]
	unmount         *connect.Client[PageRequest, UnmountResponse]
	getPlaylist     *connect.Client[GetPlaylistRequest, GetPlaylistResponse]
	subscribeEvents *connect.Client[SubscribeEventsRequest, Event]
	getStatus       *connect.Client[GetStatusRequest, GetStatusResponse]
	unmountAll      *connect.Client[UnmountAllRequest, UnmountAllResponse]
}

// NewClient creates a client for the server at baseURL. token is sent with
// AdminService calls.
func NewClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &Client{
		baseURL:         baseURL,
		token:           token,
		mount:           connect.NewClient[MountRequest, MountResponse](httpClient, baseURL+PlaybackServiceMountProcedure, opts...),
		startPlayback:   connect.NewClient[PageRequest, StateResponse](httpClient, baseURL+PlaybackServiceStartPlaybackProcedure, opts...),
		togglePlay:      connect.NewClient[PageRequest, StateResponse](httpClient, baseURL+PlaybackServiceTogglePlayProcedure, opts...),
		play:            connect.NewClient[PageRequest, StateResponse](httpClient, baseURL+PlaybackServicePlayProcedure, opts...),
		pause:           connect.NewClient[PageRequest, StateResponse](httpClient, baseURL+PlaybackServicePauseProcedure, opts...),
		next:            connect.NewClient[PageRequest, StateResponse](httpClient, baseURL+PlaybackServiceNextProcedure, opts...),
		previous:        connect.NewClient[PageRequest, StateResponse](httpClient, baseURL+PlaybackServicePreviousProcedure, opts...),
		selectTrack:     connect.NewClient[SelectRequest, StateResponse](httpClient, baseURL+PlaybackServiceSelectProcedure, opts...),
		seek:            connect.NewClient[SeekRequest, StateResponse](httpClient, baseURL+PlaybackServiceSeekProcedure, opts...),
		getState:        connect.NewClient[PageRequest, StateResponse](httpClient, baseURL+PlaybackServiceGetStateProcedure, opts...),
		openExternally:  connect.NewClient[PageRequest, OpenExternallyResponse](httpClient, baseURL+PlaybackServiceOpenExternallyProcedure, opts...),
		unmount:         connect.NewClient[PageRequest, UnmountResponse](httpClient, baseURL+PlaybackServiceUnmountProcedure, opts...),
		getPlaylist:     connect.NewClient[GetPlaylistRequest, GetPlaylistResponse](httpClient, baseURL+PlaybackServiceGetPlaylistProcedure, opts...),
		subscribeEvents: connect.NewClient[SubscribeEventsRequest, Event](httpClient, baseURL+PlaybackServiceSubscribeEventsProcedure, opts...),
		getStatus:       connect.NewClient[GetStatusRequest, GetStatusResponse](httpClient, baseURL+AdminServiceGetStatusProcedure, opts...),
		unmountAll:      connect.NewClient[UnmountAllRequest, UnmountAllResponse](httpClient, baseURL+AdminServiceUnmountAllProcedure, opts...),
	}
}

// Mount mounts a new page for the environment string env.
func (c *Client) Mount(ctx context.Context, env string) (*MountResponse, error) {
	resp, err := c.mount.CallUnary(ctx, connect.NewRequest(&MountRequest{Environment: env}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// StartPlayback performs the explicit user start.
func (c *Client) StartPlayback(ctx context.Context, pageID string) (*PlaybackState, error) {
	return callState(ctx, c.startPlayback, &PageRequest{PageID: pageID})
}

// TogglePlay flips between playing and paused.
func (c *Client) TogglePlay(ctx context.Context, pageID string) (*PlaybackState, error) {
	return callState(ctx, c.togglePlay, &PageRequest{PageID: pageID})
}

// Play requests playback.
func (c *Client) Play(ctx context.Context, pageID string) (*PlaybackState, error) {
	return callState(ctx, c.play, &PageRequest{PageID: pageID})
}

// Pause requests a pause.
func (c *Client) Pause(ctx context.Context, pageID string) (*PlaybackState, error) {
	return callState(ctx, c.pause, &PageRequest{PageID: pageID})
}

// Next moves to the next track.
func (c *Client) Next(ctx context.Context, pageID string) (*PlaybackState, error) {
	return callState(ctx, c.next, &PageRequest{PageID: pageID})
}

// Previous moves to the previous track.
func (c *Client) Previous(ctx context.Context, pageID string) (*PlaybackState, error) {
	return callState(ctx, c.previous, &PageRequest{PageID: pageID})
}

// Select jumps to a playlist index.
func (c *Client) Select(ctx context.Context, pageID string, index int) (*PlaybackState, error) {
	return callState(ctx, c.selectTrack, &SelectRequest{PageID: pageID, Index: index})
}

// Seek moves playback to seconds.
func (c *Client) Seek(ctx context.Context, pageID string, seconds float64) (*PlaybackState, error) {
	return callState(ctx, c.seek, &SeekRequest{PageID: pageID, Seconds: seconds})
}

// GetState returns the page state.
func (c *Client) GetState(ctx context.Context, pageID string) (*PlaybackState, error) {
	return callState(ctx, c.getState, &PageRequest{PageID: pageID})
}

// OpenExternally returns the external browser URL of a page.
func (c *Client) OpenExternally(ctx context.Context, pageID string) (string, error) {
	resp, err := c.openExternally.CallUnary(ctx, connect.NewRequest(&PageRequest{PageID: pageID}))
	if err != nil {
		return "", err
	}
	return resp.Msg.URL, nil
}

// Unmount closes a page.
func (c *Client) Unmount(ctx context.Context, pageID string) error {
	_, err := c.unmount.CallUnary(ctx, connect.NewRequest(&PageRequest{PageID: pageID}))
	return err
}

// GetPlaylist returns the shared playlist.
func (c *Client) GetPlaylist(ctx context.Context) (*GetPlaylistResponse, error) {
	resp, err := c.getPlaylist.CallUnary(ctx, connect.NewRequest(&GetPlaylistRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// SubscribeEvents streams the events of pageID ("" for all pages) to fn until
// ctx is done, the stream ends or fn returns false.
func (c *Client) SubscribeEvents(ctx context.Context, pageID string, fn func(*Event) bool) error {
	stream, err := c.subscribeEvents.CallServerStream(ctx, connect.NewRequest(&SubscribeEventsRequest{PageID: pageID}))
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Receive() {
		if !fn(stream.Msg()) {
			return nil
		}
	}
	return stream.Err()
}

// GetStatus returns the server status. Requires the control token.
func (c *Client) GetStatus(ctx context.Context) (*GetStatusResponse, error) {
	req := connect.NewRequest(&GetStatusRequest{})
	req.Header().Set(ControlTokenHeader, c.token)
	resp, err := c.getStatus.CallUnary(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// UnmountAll closes every page. Requires the control token.
func (c *Client) UnmountAll(ctx context.Context) (int, error) {
	req := connect.NewRequest(&UnmountAllRequest{})
	req.Header().Set(ControlTokenHeader, c.token)
	resp, err := c.unmountAll.CallUnary(ctx, req)
	if err != nil {
		return 0, err
	}
	return resp.Msg.Unmounted, nil
}

func callState[Req any](
	ctx context.Context,
	client *connect.Client[Req, StateResponse],
	msg *Req,
) (*PlaybackState, error) {
	resp, err := client.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return &resp.Msg.State, nil
}
