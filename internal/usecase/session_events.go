package usecase

import (
	"time"

	"github.com/shopsmart/backend/internal/domain"
)

// EventKind classifies a session event
type EventKind string

const (
	EventStateChanged   EventKind = "state_changed"
	EventStatusUpdated  EventKind = "status_updated"
	EventTransientError EventKind = "transient_error"
	EventCompleted      EventKind = "completed"
	EventFailed         EventKind = "failed"
	EventCancelled      EventKind = "cancelled"
)

// Event is published to subscribers on every observable session change.
// Err is set for transient_error and failed events.
type Event struct {
	Kind   EventKind
	State  domain.SessionState
	Status domain.JobStatus
	Err    error
	At     time.Time
}

const defaultEventBuffer = 16

// Subscribe registers a listener. Delivery never blocks the session: when the
// buffer is full the event is dropped. The channel is closed by the returned
// func or when the session is closed.
func (s *SearchSession) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	ch := make(chan Event, buffer)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubscriber
	s.nextSubscriber++
	s.subscribers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
}

// publishLocked fans an event out to subscribers; s.mu must be held
func (s *SearchSession) publishLocked(kind EventKind, err error) {
	ev := Event{
		Kind:   kind,
		State:  s.state,
		Status: s.status,
		Err:    err,
		At:     s.updatedAt,
	}
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// closeSubscribersLocked closes every subscriber channel; s.mu must be held
func (s *SearchSession) closeSubscribersLocked() {
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}
