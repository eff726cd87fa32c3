package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/jinglebox/internal/app/playback"
)

type recordingStream struct {
	mu   sync.Mutex
	got  []*Notification
	wait time.Duration
}

func (s *recordingStream) Send(n *Notification) error {
	if s.wait > 0 {
		time.Sleep(s.wait)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	return nil
}

func (s *recordingStream) Received() []*Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Notification(nil), s.got...)
}

func TestManager_BroadcastSequence(t *testing.T) {
	m := NewManager()
	all := &recordingStream{}
	m.Subscribe("", all)

	m.Publish("p1", playback.Event{Type: playback.EventReady})
	m.Publish("p1", playback.Event{Type: playback.EventProgress})

	got := all.Received()
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].SequenceNo)
	assert.Equal(t, uint64(2), got[1].SequenceNo)
	assert.Equal(t, playback.EventReady, got[0].Event.Type)
	assert.Equal(t, "p1", got[1].PageID)
}

func TestManager_PageFilter(t *testing.T) {
	m := NewManager()
	p1 := &recordingStream{}
	p2 := &recordingStream{}
	m.Subscribe("p1", p1)
	m.Subscribe("p2", p2)

	m.Publish("p1", playback.Event{Type: playback.EventTrackChanged})

	assert.Len(t, p1.Received(), 1)
	assert.Empty(t, p2.Received())
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager()
	s := &recordingStream{}
	id := m.Subscribe("", s)
	assert.Equal(t, 1, m.SubscriberCount())

	m.Unsubscribe(id)
	assert.Equal(t, 0, m.SubscriberCount())

	m.Publish("p1", playback.Event{Type: playback.EventClosed})
	assert.Empty(t, s.Received())
}

func TestManager_SlowSubscriberDoesNotBlock(t *testing.T) {
	m := NewManager()
	slow := &recordingStream{wait: 2 * time.Second}
	fast := &recordingStream{}
	m.Subscribe("", slow)
	m.Subscribe("", fast)

	start := time.Now()
	m.Publish("p1", playback.Event{Type: playback.EventProgress})
	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, fast.Received(), 1)
}

type failingStream struct{}

func (failingStream) Send(*Notification) error { return errors.New("broken pipe") }

func TestManager_DropsFailingSubscriber(t *testing.T) {
	m := NewManager()
	m.Subscribe("", failingStream{})
	ok := &recordingStream{}
	m.Subscribe("", ok)

	for i := 0; i < maxSendFailures-1; i++ {
		m.Publish("p1", playback.Event{Type: playback.EventProgress})
	}
	assert.Equal(t, 2, m.SubscriberCount())

	m.Publish("p1", playback.Event{Type: playback.EventProgress})
	assert.Equal(t, 1, m.SubscriberCount())
	assert.Len(t, ok.Received(), maxSendFailures)
}

func TestManager_Close(t *testing.T) {
	m := NewManager()
	m.Subscribe("", &recordingStream{})
	m.Subscribe("p1", &recordingStream{})
	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())

	s := &recordingStream{}
	assert.Empty(t, m.Subscribe("", s))
	m.Publish("p1", playback.Event{Type: playback.EventClosed})
	assert.Empty(t, s.Received())
}
