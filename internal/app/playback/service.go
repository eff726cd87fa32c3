package playback

import "context"

// HandleOptions are the construction parameters of a player handle.
type HandleOptions struct {
	ContainerID string // Unique mount point id for this handle
	VideoID     string // External id of the first track
	Autoplay    bool   // Start playing as soon as the media is ready
	Muted       bool   // Start muted
	PlaysInline bool   // Request inline playback (restrictive in-app browsers)
	Controls    bool   // Show the player's own controls
}

// Listener receives asynchronous notifications from a player handle.
// Implementations of Handle must deliver notifications in emission order and
// never from inside a Handle method call.
type Listener interface {
	OnReady(durationSeconds float64)
	OnStateChange(state PlayerState)
	OnError(code ErrorCode)
}

// Handle is one constructed instance of the external player.
type Handle interface {
	Play() error
	Pause() error
	Seek(seconds float64) error
	// LoadVideo replaces the current media. Notifications produced by the new
	// media are delivered to l.
	LoadVideo(videoID string, startSeconds float64, l Listener) error
	CurrentTime() float64
	Duration() float64
	State() PlayerState
	Destroy()
}

// Service is the external player service.
type Service interface {
	// Load bootstraps the service. It is shared process-wide: concurrent and
	// repeated calls wait for, or reuse, a single load.
	Load(ctx context.Context) error
	// NewHandle constructs a handle for opts.VideoID and binds l to it.
	NewHandle(ctx context.Context, opts HandleOptions, l Listener) (Handle, error)
}

// Host is what the hosting environment supplies to a controller.
type Host struct {
	Environment string // Environment / user-agent string
	Restricted  bool   // Result of classifying Environment
	ExternalURL string // Page URL to open in an external browser
	Opener      Opener // Optional; nil means the caller opens ExternalURL itself
	OnClose     func() // Invoked once when the controller is closed
}

// Opener opens a URL outside of the current (in-app) browser.
type Opener interface {
	Open(ctx context.Context, rawURL string) error
}
