package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultBcryptCost = 10
	maxPasswordBytes  = 72
)

// Hasher salts and hashes passwords with bcrypt. At most maxConcurrent
// hash or verify operations run at once; callers queue for a slot.
type Hasher struct {
	cost  int
	slots *semaphore.Weighted
	dummy []byte
}

func NewHasher(cost, maxConcurrent int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}

	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("%w: read dummy seed: %w", ErrHashing, err)
	}
	dummy, err := bcrypt.GenerateFromPassword(seed, cost)
	if err != nil {
		return nil, fmt.Errorf("%w: generate dummy hash: %w", ErrHashing, err)
	}

	return &Hasher{
		cost:  cost,
		slots: semaphore.NewWeighted(int64(maxConcurrent)),
		dummy: dummy,
	}, nil
}

// Hash returns a bcrypt hash with a fresh salt. Cancelling ctx only
// aborts the wait for a slot, never a hash already in progress.
func (h *Hasher) Hash(ctx context.Context, plaintext string) ([]byte, error) {
	if plaintext == "" {
		return nil, fmt.Errorf("%w: empty password", ErrHashing)
	}
	if len(plaintext) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password longer than %d bytes", ErrHashing, maxPasswordBytes)
	}

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for hashing slot: %w", err)
	}
	defer h.slots.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHashing, err)
	}

	return hashed, nil
}

// Verify reports whether plaintext matches hashed. A malformed or nil
// hash, or a plaintext longer than bcrypt reads, is compared against a
// dummy hash of the same cost and reports false, so it costs as much as a
// wrong password. The only error is ctx ending while waiting for a slot.
func (h *Hasher) Verify(ctx context.Context, plaintext string, hashed []byte) (bool, error) {
	target, acceptable := hashed, true
	if _, err := bcrypt.Cost(hashed); err != nil || len(plaintext) > maxPasswordBytes {
		target, acceptable = h.dummy, false
	}

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("wait for hashing slot: %w", err)
	}
	defer h.slots.Release(1)

	match := bcrypt.CompareHashAndPassword(target, []byte(plaintext)) == nil
	return match && acceptable, nil
}
