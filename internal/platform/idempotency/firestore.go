package idempotency

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultCollection   = "idempotency_keys"
	defaultTxAttempts   = 5
	defaultCleanupLimit = 100
)

// FirestoreStore keeps one document per key and applies each transition in a transaction.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	attempts   int
}

type FirestoreOption func(*FirestoreStore)

// WithCollection overrides the collection holding the key documents.
func WithCollection(name string) FirestoreOption {
	return func(s *FirestoreStore) {
		if name != "" {
			s.collection = name
		}
	}
}

// WithMaxAttempts bounds transaction retries under contention.
func WithMaxAttempts(attempts int) FirestoreOption {
	return func(s *FirestoreStore) {
		if attempts > 0 {
			s.attempts = attempts
		}
	}
}

func NewFirestoreStore(client *firestore.Client, opts ...FirestoreOption) *FirestoreStore {
	s := &FirestoreStore{client: client, collection: defaultCollection, attempts: defaultTxAttempts}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// inTx loads the record for key inside a transaction and hands it to fn, nil when absent.
func (s *FirestoreStore) inTx(ctx context.Context, key Key, fn func(tx *firestore.Transaction, ref *firestore.DocumentRef, stored *Record) error) error {
	id, err := recordID(key)
	if err != nil {
		return err
	}
	ref := s.client.Collection(s.collection).Doc(id)
	return s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return fn(tx, ref, nil)
		}
		if err != nil {
			return err
		}
		var stored Record
		if err := snap.DataTo(&stored); err != nil {
			return err
		}
		stored.CreatedAt = stored.CreatedAt.UTC()
		stored.UpdatedAt = stored.UpdatedAt.UTC()
		stored.ExpiresAt = stored.ExpiresAt.UTC()
		return fn(tx, ref, &stored)
	}, firestore.MaxAttempts(s.attempts))
}

func (s *FirestoreStore) Reserve(ctx context.Context, key Key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	now, ttl = normalise(now, ttl)
	var result Reservation
	err := s.inTx(ctx, key, func(tx *firestore.Transaction, ref *firestore.DocumentRef, stored *Record) error {
		res, write, err := reserve(stored, key, fingerprint, now, ttl)
		if err != nil {
			return err
		}
		result = res
		if write == nil {
			return nil
		}
		return tx.Set(ref, *write)
	})
	if err != nil {
		return Reservation{}, err
	}
	return result, nil
}

func (s *FirestoreStore) Complete(ctx context.Context, key Key, fingerprint, resourceID string, now time.Time, ttl time.Duration) error {
	now, ttl = normalise(now, ttl)
	return s.inTx(ctx, key, func(tx *firestore.Transaction, ref *firestore.DocumentRef, stored *Record) error {
		done, err := complete(stored, key, fingerprint, resourceID, now, ttl)
		if err != nil {
			return err
		}
		return tx.Set(ref, done)
	})
}

func (s *FirestoreStore) Release(ctx context.Context, key Key, fingerprint string) error {
	return s.inTx(ctx, key, func(tx *firestore.Transaction, ref *firestore.DocumentRef, stored *Record) error {
		if !releasable(stored, fingerprint) {
			return nil
		}
		return tx.Delete(ref)
	})
}

// CleanupExpired deletes up to limit expired documents with a BulkWriter and returns how many
// deletes succeeded.
func (s *FirestoreStore) CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = defaultCleanupLimit
	}
	snaps, err := s.client.Collection(s.collection).
		Where("expires_at", "<=", now.UTC()).
		Limit(limit).
		Documents(ctx).GetAll()
	if err != nil || len(snaps) == 0 {
		return 0, err
	}

	writer := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(snaps))
	for _, snap := range snaps {
		job, err := writer.Delete(snap.Ref)
		if err != nil {
			writer.End()
			return 0, err
		}
		jobs = append(jobs, job)
	}
	writer.End()

	removed := 0
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

var (
	_ Store = (*FirestoreStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
