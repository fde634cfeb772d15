package idempotency

import (
	"sync"
	"time"
)

// Response is a cached handler outcome replayed verbatim on retries.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

type entry struct {
	done      chan struct{}
	response  *Response
	expiresAt time.Time
}

// Store is an in-process TTL cache of handler responses keyed by
// route+method+caller+token. Concurrent requests for the same key serialize:
// one owner executes, the rest wait and replay its response.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	stop    chan struct{}
}

func NewStore(ttl time.Duration) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Acquire returns the cached response for key, or claims ownership. Exactly
// one of the returns is meaningful: a non-nil Response means replay; owner
// true means the caller must execute and finish with Complete or Abandon.
// Otherwise another request owns the key and the caller should Wait.
func (s *Store) Acquire(key string) (*Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		if e.response != nil && time.Now().After(e.expiresAt) {
			delete(s.entries, key)
		} else {
			if e.response != nil {
				return e.response, false
			}
			return nil, false
		}
	}

	s.entries[key] = &entry{done: make(chan struct{})}
	return nil, true
}

// Wait blocks until the key's owner finishes, then reports the cached
// response, nil when the owner abandoned the entry.
func (s *Store) Wait(key string) *Response {
	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	<-e.done

	s.mu.Lock()
	defer s.mu.Unlock()
	return e.response
}

// Complete publishes the owner's response and starts its TTL.
func (s *Store) Complete(key string, resp *Response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return
	}
	e.response = resp
	e.expiresAt = time.Now().Add(s.ttl)
	close(e.done)
}

// Abandon drops the key without caching, releasing any waiters. Used for
// responses that must not be replayed.
func (s *Store) Abandon(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return
	}
	delete(s.entries, key)
	close(e.done)
}

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, e := range s.entries {
				if e.response != nil && now.After(e.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}

func (s *Store) Close() {
	close(s.stop)
}
