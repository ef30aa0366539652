package repository

import (
	"fmt"
	"sync"
	"time"

	"visitorpass/internal/passes/expiry"
	"visitorpass/pkg/model"
)

type PassRepository interface {
	Insert(key string, pass model.Pass)
	Lookup(key string) (model.Pass, bool)
	Sweep(now time.Time, retention time.Duration) int
	Count() int
}

// StalenessBasis selects which timestamp Sweep measures retention from.
type StalenessBasis string

const (
	BasisValidTo   StalenessBasis = "valid_to"
	BasisCreatedAt StalenessBasis = "created_at"
)

func ParseStalenessBasis(s string) (StalenessBasis, error) {
	switch StalenessBasis(s) {
	case BasisValidTo, BasisCreatedAt:
		return StalenessBasis(s), nil
	default:
		return "", fmt.Errorf("unknown staleness basis %q", s)
	}
}

func (b StalenessBasis) reference(p model.Pass) time.Time {
	if b == BasisCreatedAt {
		return p.CreatedAt
	}
	return p.ValidTo
}

type memoryPassRepository struct {
	mu     sync.RWMutex
	passes map[string]model.Pass
	basis  StalenessBasis
}

// NewMemoryPassRepository returns a process-lifetime store. An empty basis
// means BasisValidTo.
func NewMemoryPassRepository(basis StalenessBasis) PassRepository {
	if basis == "" {
		basis = BasisValidTo
	}
	return &memoryPassRepository{
		passes: make(map[string]model.Pass),
		basis:  basis,
	}
}

// Insert overwrites any record already stored under key.
func (r *memoryPassRepository) Insert(key string, pass model.Pass) {
	pass.ID = key

	r.mu.Lock()
	defer r.mu.Unlock()
	r.passes[key] = pass
}

func (r *memoryPassRepository) Lookup(key string) (model.Pass, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pass, ok := r.passes[key]
	return pass, ok
}

// Sweep holds the write lock for the full pass, so an Insert never
// interleaves with the scan and a record inserted after it is never removed
// by it.
func (r *memoryPassRepository) Sweep(now time.Time, retention time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, pass := range r.passes {
		if expiry.IsStale(now, r.basis.reference(pass), retention) {
			delete(r.passes, key)
			removed++
		}
	}
	return removed
}

func (r *memoryPassRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.passes)
}
