package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/jinglebox/internal/app/notification"
	"github.com/osa030/jinglebox/internal/app/playback"
	"github.com/osa030/jinglebox/internal/app/session"
	"github.com/osa030/jinglebox/internal/app/session/registry"
	"github.com/osa030/jinglebox/internal/domain/track"
)

// eventTypeInitialState is the type of the first event sent on a page subscription.
const eventTypeInitialState = "initial_state"

func toTrackInfo(index int, t track.Track) TrackInfo {
	return TrackInfo{
		Index:      index,
		Title:      t.Title,
		Artist:     t.Artist,
		Cover:      t.CoverRef,
		ExternalID: t.ExternalID,
		Duration:   t.DurationLabel,
	}
}

func toPlaybackState(pageID string, s playback.Snapshot) PlaybackState {
	return PlaybackState{
		PageID:           pageID,
		Position:         s.Position,
		Track:            toTrackInfo(s.Position, s.Track),
		Intent:           s.Intent.String(),
		Lifecycle:        s.Lifecycle.String(),
		Gate:             s.Gate.String(),
		CurrentTime:      s.CurrentTime,
		Duration:         s.Duration,
		CurrentTimeLabel: playback.FormatTime(s.CurrentTime),
		DurationLabel:    playback.FormatTime(s.Duration),
		Epoch:            s.Epoch,
	}
}

func toPageInfo(p *registry.Page) PageInfo {
	return PageInfo{
		PageID:      p.ID,
		Restricted:  p.Environment.Restricted,
		Signature:   p.Environment.Signature,
		Platform:    p.Environment.Platform.String(),
		Browser:     p.Environment.Browser,
		Mobile:      p.Environment.Mobile,
		ExternalURL: p.ExternalURL,
		MountedAt:   p.MountedAt,
	}
}

func toEvent(n *notification.Notification) *Event {
	ev := &Event{
		SequenceNo: n.SequenceNo,
		PageID:     n.PageID,
		Type:       n.Event.Type.String(),
		State:      toPlaybackState(n.PageID, n.Event.Snapshot),
		Time:       n.Time,
	}
	if n.Event.Type == playback.EventTrackSkipped {
		ev.Code = n.Event.Code.String()
	}
	return ev
}

// toConnectError maps application errors to Connect error codes.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var code connect.Code
	switch {
	case errors.Is(err, session.ErrNotMounted):
		code = connect.CodeNotFound
	case errors.Is(err, registry.ErrTooManyPages):
		code = connect.CodeResourceExhausted
	case errors.Is(err, session.ErrManagerDown), errors.Is(err, playback.ErrNotLoaded):
		code = connect.CodeUnavailable
	case errors.Is(err, playback.ErrInvalidIndex):
		code = connect.CodeInvalidArgument
	case errors.Is(err, playback.ErrClosed):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	default:
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}
