package pending

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Broadcast is a sendall request waiting for its message body.
type Broadcast struct {
	Requester string
	ReplyTo   string
	ArmedAt   time.Time
	Deadline  time.Time
}

// Store tracks at most one awaiting broadcast per requester. Entries expire
// after the configured TTL, returning the requester to idle.
type Store struct {
	mu    sync.Mutex
	ttl   time.Duration
	items *cache.Cache
}

// NewStore creates a store whose entries live for ttl. Expired entries are
// dropped on Arm and Len; no janitor goroutine is started.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:   ttl,
		items: cache.New(ttl, 0),
	}
}

// Arm puts requester into the awaiting state, replacing any earlier prompt.
func (s *Store) Arm(requester, replyTo string) Broadcast {
	now := time.Now()
	b := Broadcast{
		Requester: requester,
		ReplyTo:   replyTo,
		ArmedAt:   now,
		Deadline:  now.Add(s.ttl),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.DeleteExpired()
	s.items.Set(requester, b, s.ttl)
	return b
}

// Take returns and clears the awaiting broadcast for requester. Expired
// entries are never returned.
func (s *Store) Take(requester string) (Broadcast, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items.Get(requester)
	if !ok {
		return Broadcast{}, false
	}
	s.items.Delete(requester)
	return v.(Broadcast), true
}

// Awaiting reports whether requester has an unexpired prompt.
func (s *Store) Awaiting(requester string) bool {
	_, ok := s.items.Get(requester)
	return ok
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.items.DeleteExpired()
	return s.items.ItemCount()
}
