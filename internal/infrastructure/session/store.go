package session

import (
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopsmart/backend/internal/domain"
	"github.com/shopsmart/backend/pkg/logging"
)

const defaultCleanupInterval = time.Minute

// entry is a single stored value with its idle deadline
type entry[V io.Closer] struct {
	value      V
	expiration time.Time
}

// Store is a thread-safe in-memory registry with sliding TTL.
// Values that expire or are deleted are closed.
type Store[V io.Closer] struct {
	data  map[string]entry[V]
	mutex sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	log   *logging.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewStore creates a store and starts its cleanup goroutine
func NewStore[V io.Closer](ttl, cleanupInterval time.Duration, log *logging.Logger) *Store[V] {
	if log == nil {
		log = logging.NewNop()
	}
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}

	s := &Store[V]{
		data: make(map[string]entry[V]),
		ttl:  ttl,
		now:  time.Now,
		log:  log.With("component", "session_store"),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go s.cleanupExpired(cleanupInterval)

	return s
}

// Create stores value under a fresh id
func (s *Store[V]) Create(value V) string {
	id := uuid.NewString()

	s.mutex.Lock()
	s.data[id] = entry[V]{value: value, expiration: s.now().Add(s.ttl)}
	s.mutex.Unlock()

	return id
}

// Get returns the value for id and extends its deadline
func (s *Store[V]) Get(id string) (V, error) {
	var zero V

	if _, err := uuid.Parse(id); err != nil {
		return zero, domain.ErrSessionNotFound
	}

	s.mutex.Lock()
	item, exists := s.data[id]
	if !exists {
		s.mutex.Unlock()
		return zero, domain.ErrSessionNotFound
	}

	now := s.now()
	if now.After(item.expiration) {
		delete(s.data, id)
		s.mutex.Unlock()
		s.evict(id, item.value)
		return zero, domain.ErrSessionNotFound
	}

	item.expiration = now.Add(s.ttl)
	s.data[id] = item
	s.mutex.Unlock()

	return item.value, nil
}

// Delete removes and closes the value for id
func (s *Store[V]) Delete(id string) error {
	s.mutex.Lock()
	item, exists := s.data[id]
	delete(s.data, id)
	s.mutex.Unlock()

	if !exists {
		return domain.ErrSessionNotFound
	}
	return item.value.Close()
}

// Len returns the number of stored values, expired ones included until swept
func (s *Store[V]) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.data)
}

// Stop halts the cleanup goroutine and closes every remaining value
func (s *Store[V]) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done

		s.mutex.Lock()
		items := s.data
		s.data = make(map[string]entry[V])
		s.mutex.Unlock()

		for id, item := range items {
			s.evict(id, item.value)
		}
	})
}

// cleanupExpired removes expired entries periodically
func (s *Store[V]) cleanupExpired(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store[V]) sweep() {
	s.mutex.Lock()
	now := s.now()
	expired := make(map[string]V)
	for id, item := range s.data {
		if now.After(item.expiration) {
			expired[id] = item.value
			delete(s.data, id)
		}
	}
	s.mutex.Unlock()

	// Close may block waiting on a poll loop, so it runs unlocked
	for id, value := range expired {
		s.evict(id, value)
	}
}

func (s *Store[V]) evict(id string, value V) {
	if err := value.Close(); err != nil {
		s.log.Warn("closing evicted session failed", "id", id, "err", err)
		return
	}
	s.log.Debug("session evicted", "id", id)
}
