package inventory

import (
	"errors"
	"strings"
	"sync"
)

var (
	ErrSoldOut         = errors.New("inventory: bucket sold out")
	ErrInvalidCapacity = errors.New("inventory: capacity must not be negative")
	ErrEmptyBucketKey  = errors.New("inventory: bucket key is required")
)

// BucketKey addresses one inventory counter: a sailing plus either a cabin
// type or a normalized cabin category code.
type BucketKey struct {
	SailingID string
	Bucket    string
}

// NewBucketKey normalizes the bucket component so category codes and cabin
// types address a bucket consistently regardless of caller casing.
func NewBucketKey(sailingID, bucket string) (BucketKey, error) {
	b := strings.ToLower(strings.TrimSpace(bucket))
	if strings.TrimSpace(sailingID) == "" || b == "" {
		return BucketKey{}, ErrEmptyBucketKey
	}
	return BucketKey{SailingID: strings.TrimSpace(sailingID), Bucket: b}, nil
}

// Counts is a read snapshot of one bucket.
type Counts struct {
	Capacity  int `json:"capacity"`
	Held      int `json:"held"`
	Confirmed int `json:"confirmed"`
}

type bucket struct {
	capacity  int
	held      int
	confirmed int
}

// Ledger tracks hold/confirm counters per bucket for one tenant. Every
// operation runs as a single critical section over the bucket map, so the
// invariant held+confirmed <= capacity survives any interleaving of
// concurrent callers. The critical sections do no I/O and stay short.
type Ledger struct {
	mu      sync.Mutex
	buckets map[BucketKey]*bucket
}

func NewLedger() *Ledger {
	return &Ledger{buckets: make(map[BucketKey]*bucket)}
}

// AllocateHold reserves one unit. The bucket is created lazily with
// defaultCapacity on first reference. When the bucket is exhausted it
// returns ErrSoldOut without mutating anything.
func (l *Ledger) AllocateHold(key BucketKey, defaultCapacity int) error {
	if defaultCapacity < 0 {
		return ErrInvalidCapacity
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.buckets[key]
	if b == nil {
		b = &bucket{capacity: defaultCapacity}
		l.buckets[key] = b
	}
	if b.held+b.confirmed >= b.capacity {
		return ErrSoldOut
	}
	b.held++
	return nil
}

// ReleaseHold gives one held unit back, floored at zero. Releasing against
// an unknown bucket is a no-op so expiry sweeps stay idempotent.
func (l *Ledger) ReleaseHold(key BucketKey) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.buckets[key]
	if b == nil {
		return
	}
	if b.held > 0 {
		b.held--
	}
}

// CommitHold moves one unit from held to confirmed. The trailing clamp keeps
// the bucket invariant intact even if a caller commits without a matching
// hold; it never triggers when holds are managed through AllocateHold.
func (l *Ledger) CommitHold(key BucketKey) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.buckets[key]
	if b == nil {
		return
	}
	if b.held > 0 {
		b.held--
	}
	b.confirmed++
	if b.held+b.confirmed > b.capacity {
		b.confirmed = b.capacity - b.held
	}
}

// SetCapacity resizes a bucket, creating it when absent. Shrinking below the
// current usage clamps held first, then confirmed, so the invariant holds
// immediately after the write.
func (l *Ledger) SetCapacity(key BucketKey, capacity int) error {
	if capacity < 0 {
		return ErrInvalidCapacity
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.buckets[key]
	if b == nil {
		b = &bucket{}
		l.buckets[key] = b
	}
	b.capacity = capacity
	if over := b.held + b.confirmed - b.capacity; over > 0 {
		if b.held >= over {
			b.held -= over
		} else {
			b.confirmed -= over - b.held
			b.held = 0
		}
	}
	return nil
}

// Counts reports a snapshot of one bucket; unknown buckets read as empty
// with zero capacity.
func (l *Ledger) Counts(key BucketKey) Counts {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.buckets[key]
	if b == nil {
		return Counts{}
	}
	return Counts{Capacity: b.capacity, Held: b.held, Confirmed: b.confirmed}
}
