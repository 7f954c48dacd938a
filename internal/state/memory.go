package state

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryStore keeps encoded views in process. Views are stored encoded so
// callers never share a mutable value with the store.
type MemoryStore[T any] struct {
	mutex sync.Mutex
	views map[string]memoryEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryStore[T any](ttl time.Duration) *MemoryStore[T] {
	return &MemoryStore[T]{
		views: make(map[string]memoryEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryStore[T]) Create(ctx context.Context, id string, view *T) error {
	data, err := encode(view)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.views[id] = s.entry(data)
	return nil
}

func (s *MemoryStore[T]) Get(ctx context.Context, id string) (*T, error) {
	s.mutex.Lock()
	entry, ok := s.lookup(id)
	s.mutex.Unlock()

	if !ok {
		return nil, ErrViewNotFound
	}
	return decode[T](entry.data)
}

func (s *MemoryStore[T]) Update(ctx context.Context, id string, fn func(view *T) error) (*T, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.lookup(id)
	if !ok {
		return nil, ErrViewNotFound
	}

	view, err := decode[T](entry.data)
	if err != nil {
		return nil, err
	}

	if err := fn(view); err != nil {
		return nil, err
	}

	data, err := encode(view)
	if err != nil {
		return nil, err
	}
	s.views[id] = s.entry(data)

	return view, nil
}

// Sweep drops expired views and reports how many were removed
func (s *MemoryStore[T]) Sweep() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	now := s.now()
	for id, entry := range s.views {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(s.views, id)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore[T]) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.views)
}

// lookup must be called with the mutex held
func (s *MemoryStore[T]) lookup(id string) (memoryEntry, bool) {
	entry, ok := s.views[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.views, id)
		return memoryEntry{}, false
	}
	return entry, true
}

func (s *MemoryStore[T]) entry(data []byte) memoryEntry {
	e := memoryEntry{data: data}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	return e
}
