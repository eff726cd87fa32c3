package connect

import "time"

// Service names and procedures.
const (
	PlaybackServiceName = "jinglebox.v1.PlaybackService"
	AdminServiceName    = "jinglebox.v1.AdminService"

	PlaybackServiceMountProcedure           = "/jinglebox.v1.PlaybackService/Mount"
	PlaybackServiceStartPlaybackProcedure   = "/jinglebox.v1.PlaybackService/StartPlayback"
	PlaybackServiceTogglePlayProcedure      = "/jinglebox.v1.PlaybackService/TogglePlay"
	PlaybackServicePlayProcedure            = "/jinglebox.v1.PlaybackService/Play"
	PlaybackServicePauseProcedure           = "/jinglebox.v1.PlaybackService/Pause"
	PlaybackServiceNextProcedure            = "/jinglebox.v1.PlaybackService/Next"
	PlaybackServicePreviousProcedure        = "/jinglebox.v1.PlaybackService/Previous"
	PlaybackServiceSelectProcedure          = "/jinglebox.v1.PlaybackService/Select"
	PlaybackServiceSeekProcedure            = "/jinglebox.v1.PlaybackService/Seek"
	PlaybackServiceGetStateProcedure        = "/jinglebox.v1.PlaybackService/GetState"
	PlaybackServiceOpenExternallyProcedure  = "/jinglebox.v1.PlaybackService/OpenExternally"
	PlaybackServiceUnmountProcedure         = "/jinglebox.v1.PlaybackService/Unmount"
	PlaybackServiceGetPlaylistProcedure     = "/jinglebox.v1.PlaybackService/GetPlaylist"
	PlaybackServiceSubscribeEventsProcedure = "/jinglebox.v1.PlaybackService/SubscribeEvents"

	AdminServiceGetStatusProcedure  = "/jinglebox.v1.AdminService/GetStatus"
	AdminServiceUnmountAllProcedure = "/jinglebox.v1.AdminService/UnmountAll"
)

// TrackInfo describes one playlist entry.
type TrackInfo struct {
	Index      int    `json:"index"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Cover      string `json:"cover,omitempty"`
	ExternalID string `json:"externalId"`
	Duration   string `json:"duration,omitempty"`
}

// PlaybackState is the state of one mounted page.
type PlaybackState struct {
	PageID           string    `json:"pageId"`
	Position         int       `json:"position"`
	Track            TrackInfo `json:"track"`
	Intent           string    `json:"intent"`
	Lifecycle        string    `json:"lifecycle"`
	Gate             string    `json:"gate"`
	CurrentTime      float64   `json:"currentTime"`
	Duration         float64   `json:"duration"`
	CurrentTimeLabel string    `json:"currentTimeLabel"`
	DurationLabel    string    `json:"durationLabel"`
	Epoch            uint64    `json:"epoch"`
}

// PageInfo describes a mounted page.
type PageInfo struct {
	PageID      string    `json:"pageId"`
	Restricted  bool      `json:"restricted"`
	Signature   string    `json:"signature,omitempty"`
	Platform    string    `json:"platform"`
	Browser     string    `json:"browser,omitempty"`
	Mobile      bool      `json:"mobile"`
	ExternalURL string    `json:"externalUrl"`
	MountedAt   time.Time `json:"mountedAt"`
}

// MountRequest mounts a new page. Environment is the client's User-Agent;
// when empty the request's User-Agent header is used.
type MountRequest struct {
	Environment string `json:"environment"`
}

// MountResponse is the result of Mount.
type MountResponse struct {
	Page  PageInfo      `json:"page"`
	State PlaybackState `json:"state"`
}

// PageRequest addresses a mounted page.
type PageRequest struct {
	PageID string `json:"pageId"`
}

// SelectRequest jumps to a playlist index.
type SelectRequest struct {
	PageID string `json:"pageId"`
	Index  int    `json:"index"`
}

// SeekRequest moves playback to an absolute position.
type SeekRequest struct {
	PageID  string  `json:"pageId"`
	Seconds float64 `json:"seconds"`
}

// StateResponse carries the page state after a call.
type StateResponse struct {
	State PlaybackState `json:"state"`
}

// OpenExternallyResponse carries the URL that opens the page outside the in-app browser.
type OpenExternallyResponse struct {
	URL string `json:"url"`
}

// UnmountResponse is the result of Unmount.
type UnmountResponse struct {
	Success bool `json:"success"`
}

// GetPlaylistRequest requests the shared playlist.
type GetPlaylistRequest struct{}

// GetPlaylistResponse lists the shared playlist.
type GetPlaylistResponse struct {
	Name   string      `json:"name"`
	Tracks []TrackInfo `json:"tracks"`
}

// SubscribeEventsRequest subscribes to the events of a page, or of every page
// when PageID is empty.
type SubscribeEventsRequest struct {
	PageID string `json:"pageId"`
}

// Event is one playback event.
type Event struct {
	SequenceNo uint64        `json:"sequenceNo"`
	PageID     string        `json:"pageId"`
	Type       string        `json:"type"`
	Code       string        `json:"code,omitempty"`
	State      PlaybackState `json:"state"`
	Time       time.Time     `json:"time"`
}

// GetStatusRequest requests the server status.
type GetStatusRequest struct{}

// GetStatusResponse is the server status.
type GetStatusResponse struct {
	PlaylistName string     `json:"playlistName"`
	TrackCount   int        `json:"trackCount"`
	Subscribers  int        `json:"subscribers"`
	Pages        []PageInfo `json:"pages"`
}

// UnmountAllRequest unmounts every page.
type UnmountAllRequest struct{}

// UnmountAllResponse is the result of UnmountAll.
type UnmountAllResponse struct {
	Unmounted int `json:"unmounted"`
}
