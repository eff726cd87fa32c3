// Package playback provides the playback controller that drives a playlist through
// an asynchronously initialised external player.
package playback

// Lifecycle represents the lifecycle of the external player handle.
//
//	Unloaded ──activate──▶ Loading ──ready──▶ Ready
//	    │                     │                 │
//	    └─────────close───────┴──────close──────┴──▶ Destroyed
//
// Handle commands (play, pause, seek, load, current time) are only issued in Ready.
type Lifecycle int

const (
	LifecycleUnloaded  Lifecycle = iota // No handle and no load attempt yet
	LifecycleLoading                    // Bootstrap or handle construction in progress
	LifecycleReady                      // Handle reported ready
	LifecycleDestroyed                  // Controller torn down
)

// String returns the string representation of the lifecycle.
func (l Lifecycle) String() string {
	switch l {
	case LifecycleUnloaded:
		return "unloaded"
	case LifecycleLoading:
		return "loading"
	case LifecycleReady:
		return "ready"
	case LifecycleDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Intent is the desired play/pause state.
type Intent int

const (
	IntentPaused  Intent = iota // Paused (initial)
	IntentPlaying               // Playing
)

// String returns the string representation of the intent.
func (i Intent) String() string {
	switch i {
	case IntentPaused:
		return "paused"
	case IntentPlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Gate is the start barrier used in environments that block unsolicited audio.
// Once Open, a gate never closes again.
type Gate int

const (
	GateOpen              Gate = iota // Playback may be attempted
	GateAwaitingUserStart             // An explicit user gesture is required first
)

// String returns the string representation of the gate.
func (g Gate) String() string {
	switch g {
	case GateOpen:
		return "open"
	case GateAwaitingUserStart:
		return "awaiting_user_start"
	default:
		return "unknown"
	}
}

// PlayerState is the state reported by an external player handle.
type PlayerState int

const (
	PlayerUnstarted PlayerState = iota
	PlayerPlaying
	PlayerPaused
	PlayerEnded
	PlayerError
)

// String returns the string representation of the player state.
func (s PlayerState) String() string {
	switch s {
	case PlayerUnstarted:
		return "unstarted"
	case PlayerPlaying:
		return "playing"
	case PlayerPaused:
		return "paused"
	case PlayerEnded:
		return "ended"
	case PlayerError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrorCode classifies a playback error reported by the external player.
type ErrorCode int

const (
	ErrorUnknown       ErrorCode = iota
	ErrorInvalidParam            // Malformed or unknown id
	ErrorUnsupported             // Media cannot be played by this player
	ErrorNotFound                // Media removed or private
	ErrorEmbedRestricted         // Owner disallows embedded playback
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrorInvalidParam:
		return "invalid_param"
	case ErrorUnsupported:
		return "unsupported"
	case ErrorNotFound:
		return "not_found"
	case ErrorEmbedRestricted:
		return "embed_restricted"
	default:
		return "unknown"
	}
}
