// Package bank holds the sound, music and SID banks: mutex-guarded tables
// from ids to immutable content. Ids start at 1, only ever increase and
// are never handed out twice.
package bank

import (
	"errors"
	"log/slog"
	"math"
	"sync"
)

var (
	// ErrNotFound is returned for ids that were never issued or were freed.
	ErrNotFound = errors.New("bank: id not found")
	// ErrExhausted is returned once every 32-bit id has been issued.
	ErrExhausted = errors.New("bank: ids exhausted")
)

// entryOverhead approximates the table cost of one entry in MemoryUsage.
const entryOverhead = 64

type store[T any] struct {
	mu    sync.Mutex
	last  uint32
	items map[uint32]T
	size  func(T) int
	kind  string
	log   *slog.Logger
}

func newStore[T any](kind string, size func(T) int, log *slog.Logger) *store[T] {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &store[T]{items: make(map[uint32]T), size: size, kind: kind, log: log}
}

func (s *store[T]) add(v T) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == math.MaxUint32 {
		return 0, ErrExhausted
	}
	s.last++
	s.items[s.last] = v
	s.log.Debug("bank register", "bank", s.kind, "id", s.last, "bytes", s.size(v))
	return s.last, nil
}

func (s *store[T]) get(id uint32) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return v, nil
}

// update replaces the value of an existing id.
func (s *store[T]) update(id uint32, fn func(T) (T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	nv, err := fn(v)
	if err != nil {
		return err
	}
	s.items[id] = nv
	return nil
}

func (s *store[T]) exists(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	return ok
}

func (s *store[T]) free(id uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	s.log.Debug("bank free", "bank", s.kind, "id", id)
	return nil
}

func (s *store[T]) freeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.items)
	clear(s.items)
	s.log.Debug("bank free all", "bank", s.kind, "count", n)
}

func (s *store[T]) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *store[T]) memoryUsage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, v := range s.items {
		total += s.size(v) + entryOverhead
	}
	return total
}
