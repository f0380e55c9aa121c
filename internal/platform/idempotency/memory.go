package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process. It backs the memory driver and tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// lookup must be called with mu held.
func (s *MemoryStore) lookup(id string) *Record {
	if record, ok := s.records[id]; ok {
		return &record
	}
	return nil
}

func (s *MemoryStore) Reserve(_ context.Context, key Key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	id, err := recordID(key)
	if err != nil {
		return Reservation{}, err
	}
	now, ttl = normalise(now, ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	res, write, err := reserve(s.lookup(id), key, fingerprint, now, ttl)
	if err != nil {
		return Reservation{}, err
	}
	if write != nil {
		s.records[id] = *write
	}
	return res, nil
}

func (s *MemoryStore) Complete(_ context.Context, key Key, fingerprint, resourceID string, now time.Time, ttl time.Duration) error {
	id, err := recordID(key)
	if err != nil {
		return err
	}
	now, ttl = normalise(now, ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	done, err := complete(s.lookup(id), key, fingerprint, resourceID, now, ttl)
	if err != nil {
		return err
	}
	s.records[id] = done
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key Key, fingerprint string) error {
	id, err := recordID(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if releasable(s.lookup(id), fingerprint) {
		delete(s.records, id)
	}
	return nil
}

// CleanupExpired deletes up to limit expired records; a non-positive limit removes all of them.
func (s *MemoryStore) CleanupExpired(_ context.Context, now time.Time, limit int) (int, error) {
	now = now.UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, record := range s.records {
		if limit > 0 && removed == limit {
			break
		}
		if record.expiredAt(now) {
			delete(s.records, id)
			removed++
		}
	}
	return removed, nil
}
