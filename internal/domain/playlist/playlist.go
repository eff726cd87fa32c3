// Package playlist provides the Playlist domain entity.
package playlist

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/jinglebox/internal/domain/track"
)

// ErrEmptyPlaylist is returned when a playlist is built without tracks.
var ErrEmptyPlaylist = errors.New("playlist has no tracks")

// Playlist is an ordered, non-empty sequence of tracks.
// Indices are the navigation unit and the track list is fixed after construction.
type Playlist struct {
	name   string
	tracks []track.Track
}

// New creates a playlist. The track slice is copied.
func New(name string, tracks []track.Track) (*Playlist, error) {
	if len(tracks) == 0 {
		return nil, ErrEmptyPlaylist
	}
	cp := make([]track.Track, len(tracks))
	copy(cp, tracks)
	return &Playlist{name: name, tracks: cp}, nil
}

// Name returns the playlist name.
func (p *Playlist) Name() string {
	return p.name
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// At returns the track at index i after wrapping it into range.
func (p *Playlist) At(i int) track.Track {
	return p.tracks[p.Wrap(i)]
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []track.Track {
	result := make([]track.Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// ExternalIDs returns all external ids in playlist order.
func (p *Playlist) ExternalIDs() []string {
	ids := make([]string, len(p.tracks))
	for i, t := range p.tracks {
		ids[i] = t.ExternalID
	}
	return ids
}

// Wrap maps any integer onto a valid index, circularly.
func (p *Playlist) Wrap(i int) int {
	n := len(p.tracks)
	return ((i % n) + n) % n
}

// Next returns the index after i, wrapping to 0 after the last track.
func (p *Playlist) Next(i int) int {
	return p.Wrap(i + 1)
}

// Previous returns the index before i, wrapping to the last track before 0.
func (p *Playlist) Previous(i int) int {
	return p.Wrap(i - 1)
}

// Contains reports whether i is a valid index.
func (p *Playlist) Contains(i int) bool {
	return i >= 0 && i < len(p.tracks)
}
