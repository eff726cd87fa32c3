// Package notification provides the notification manager for broadcasting
// playback events to stream subscribers.
package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/jinglebox/internal/app/playback"
)

const sendTimeout = 500 * time.Millisecond

// maxSendFailures consecutive failed or timed out sends drop a subscription.
const maxSendFailures = 3

// Notification is one playback event delivered to subscribers.
type Notification struct {
	SequenceNo uint64
	PageID     string
	Event      playback.Event
	Time       time.Time
}

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*Notification) error
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id       string
	pageID   string // Empty receives every page
	stream   Stream
	failures int // Consecutive failed sends, guarded by Manager.mu
}

func (s *subscription) matches(pageID string) bool {
	return s.pageID == "" || s.pageID == pageID
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	closed        bool

	seqMu      sync.Mutex
	sequenceNo uint64
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe adds a subscription for pageID ("" for all pages) and returns
// the subscription ID. After Close it returns an empty ID and the stream
// never receives anything.
func (m *Manager) Subscribe(pageID string, stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ""
	}
	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		pageID: pageID,
		stream: stream,
	}
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// Publish stamps a playback event of pageID and broadcasts it.
func (m *Manager) Publish(pageID string, event playback.Event) *Notification {
	n := &Notification{
		PageID: pageID,
		Event:  event,
		Time:   time.Now(),
	}
	m.Broadcast(n)
	return n
}

// Broadcast assigns the next sequence number and sends n to every matching
// subscriber in parallel. It returns when every send has finished or timed out.
func (m *Manager) Broadcast(n *Notification) {
	m.seqMu.Lock()
	m.sequenceNo++
	n.SequenceNo = m.sequenceNo
	m.seqMu.Unlock()

	m.mu.RLock()
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		if sub.matches(n.PageID) {
			subs = append(subs, sub)
		}
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			m.record(s, deliver(s, n))
		}(sub)
	}
	wg.Wait()
}

// deliver sends n to s, giving up after sendTimeout. A timed out send keeps
// running in the background; the stream decides when it ends.
func deliver(s *subscription, n *Notification) bool {
	done := make(chan error, 1)
	go func() {
		done <- s.stream.Send(n)
	}()

	timer := time.NewTimer(sendTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			zlog.Debug().Msgf("notification: send failed: subscription=%s seq=%d err=%v", s.id, n.SequenceNo, err)
			return false
		}
		return true
	case <-timer.C:
		zlog.Debug().Msgf("notification: send timed out: subscription=%s seq=%d", s.id, n.SequenceNo)
		return false
	}
}

// record updates the failure count of s and drops it after too many
// consecutive failures.
func (m *Manager) record(s *subscription, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ok {
		s.failures = 0
		return
	}
	s.failures++
	if s.failures >= maxSendFailures {
		if _, exists := m.subscriptions[s.id]; exists {
			delete(m.subscriptions, s.id)
			zlog.Info().Msgf("notification: subscription dropped after %d failed sends: subscription=%s", s.failures, s.id)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions and refuses new ones.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.subscriptions = make(map[string]*subscription)
}
