package playback

// EventType represents a controller event type.
type EventType int

const (
	EventTrackChanged EventType = iota // Position changed
	EventStateChanged                  // Intent or lifecycle changed
	EventProgress                      // Current time or duration changed
	EventReady                         // Handle became ready
	EventGateOpened                    // Restrictive gate opened
	EventTrackSkipped                  // Track skipped after a playback error
	EventClosed                        // Controller torn down
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackChanged:
		return "track_changed"
	case EventStateChanged:
		return "state_changed"
	case EventProgress:
		return "progress"
	case EventReady:
		return "ready"
	case EventGateOpened:
		return "gate_opened"
	case EventTrackSkipped:
		return "track_skipped"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event represents a controller event.
type Event struct {
	Type     EventType
	Snapshot Snapshot
	Code     ErrorCode // Set for EventTrackSkipped
}
