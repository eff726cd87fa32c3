// Package track provides the Track domain entity.
package track

import "strings"

// Track represents one playable entry of a playlist.
// A Track is defined once when the playlist is built and never mutated.
type Track struct {
	CoverRef      string // Cover art resource locator
	Title         string // Track title
	Artist        string // Artist name
	ExternalID    string // Opaque id understood by the external player service
	DurationLabel string // Display duration (optional, e.g. "4:37")
}

// Label returns a human-readable "Title - Artist" label.
func (t Track) Label() string {
	title := strings.TrimSpace(t.Title)
	artist := strings.TrimSpace(t.Artist)
	switch {
	case title == "" && artist == "":
		return t.ExternalID
	case artist == "":
		return title
	case title == "":
		return artist
	default:
		return title + " - " + artist
	}
}

// IsPlayable reports whether the track carries an id the player service can load.
func (t Track) IsPlayable() bool {
	return strings.TrimSpace(t.ExternalID) != ""
}
