// Package idempotency records client-supplied request tokens so a retried request can be matched
// to the resource the first attempt created.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// DefaultTTL applies when a caller passes a non-positive ttl.
const DefaultTTL = 24 * time.Hour

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// ReservationState is the outcome of Reserve.
type ReservationState int

const (
	// ReservationStateNew means the caller now holds the key and should do the work.
	ReservationStateNew ReservationState = iota
	// ReservationStateCompleted means an earlier request finished; Record.ResourceID names its result.
	ReservationStateCompleted
	// ReservationStatePending means another request holds the key and has not finished.
	ReservationStatePending
)

// Key is a token scoped to one caller, so two shoppers may pick the same value.
type Key struct {
	Scope string
	Value string
}

type Reservation struct {
	State  ReservationState
	Record Record
}

// Record is the stored state of a key. The firestore tags are the document layout.
type Record struct {
	Scope       string    `firestore:"scope"`
	Key         string    `firestore:"key"`
	Fingerprint string    `firestore:"fingerprint"`
	Status      Status    `firestore:"status"`
	ResourceID  string    `firestore:"resource_id,omitempty"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
	ExpiresAt   time.Time `firestore:"expires_at"`
}

func (r Record) expiredAt(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Store persists reservations. Implementations apply reserve, complete and releasable atomically
// per key.
type Store interface {
	Reserve(ctx context.Context, key Key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error)
	Complete(ctx context.Context, key Key, fingerprint, resourceID string, now time.Time, ttl time.Duration) error
	Release(ctx context.Context, key Key, fingerprint string) error
	CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

var (
	// ErrFingerprintMismatch means the key was already used for a different request.
	ErrFingerprintMismatch = errors.New("idempotency: key reserved for different request fingerprint")
	ErrInvalidKey          = errors.New("idempotency: key is required")
)

// Fingerprint hashes the request attributes that must match on a replay.
func Fingerprint(parts ...string) string {
	return hashHex(strings.Join(parts, "\x1f"))
}

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// recordID is the storage id of key. Hashing keeps client tokens out of document paths.
func recordID(key Key) (string, error) {
	value := strings.TrimSpace(key.Value)
	if value == "" {
		return "", ErrInvalidKey
	}
	return hashHex(strings.TrimSpace(key.Scope) + "\x00" + value), nil
}

func normalise(now time.Time, ttl time.Duration) (time.Time, time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return now.UTC(), ttl
}

// reserve applies a reservation to the stored record, nil if absent. It returns the record to
// write, nil when storage must not change. Expired records are replaced.
func reserve(stored *Record, key Key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, *Record, error) {
	if stored == nil || stored.expiredAt(now) {
		fresh := Record{
			Scope:       strings.TrimSpace(key.Scope),
			Key:         strings.TrimSpace(key.Value),
			Fingerprint: fingerprint,
			Status:      StatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
			ExpiresAt:   now.Add(ttl),
		}
		return Reservation{State: ReservationStateNew, Record: fresh}, &fresh, nil
	}
	switch {
	case stored.Fingerprint != fingerprint:
		return Reservation{}, nil, ErrFingerprintMismatch
	case stored.Status == StatusCompleted:
		return Reservation{State: ReservationStateCompleted, Record: *stored}, nil, nil
	default:
		return Reservation{State: ReservationStatePending, Record: *stored}, nil, nil
	}
}

// complete marks the key done. A missing record is created so a lost reservation still leaves a
// replayable result; the retention window restarts from now.
func complete(stored *Record, key Key, fingerprint, resourceID string, now time.Time, ttl time.Duration) (Record, error) {
	var done Record
	if stored != nil {
		if stored.Fingerprint != fingerprint {
			return Record{}, ErrFingerprintMismatch
		}
		done = *stored
	} else {
		_, fresh, _ := reserve(nil, key, fingerprint, now, ttl)
		done = *fresh
	}
	done.Status = StatusCompleted
	done.ResourceID = resourceID
	done.UpdatedAt = now
	done.ExpiresAt = now.Add(ttl)
	return done, nil
}

// releasable reports whether Release may delete stored. Only the holder's pending record goes.
func releasable(stored *Record, fingerprint string) bool {
	return stored != nil && stored.Status == StatusPending && stored.Fingerprint == fingerprint
}
