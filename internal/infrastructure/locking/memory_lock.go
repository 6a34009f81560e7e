package locking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/contracts"
)

type lease struct {
	token   string
	expires time.Time
}

// MemoryLockService is a single-instance implementation of the lock
// contract. Leases expire on their own, so a crashed holder cannot wedge a
// key forever. Cross-process deployments need a shared store behind the same
// interface.
type MemoryLockService struct {
	mu    sync.Mutex
	locks map[string]lease
	Now   func() time.Time
}

func NewMemoryLockService() *MemoryLockService {
	return &MemoryLockService{
		locks: make(map[string]lease),
		Now:   time.Now,
	}
}

// Acquire fails fast when the key is held by an unexpired lease.
func (s *MemoryLockService) Acquire(ctx context.Context, key string, duration time.Duration) (contracts.LockHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	if existing, held := s.locks[key]; held && now.Before(existing.expires) {
		return nil, contracts.ErrLockUnavailable
	}

	token := uuid.NewString()
	s.locks[key] = lease{token: token, expires: now.Add(duration)}

	return &handle{svc: s, key: key, token: token}, nil
}

type handle struct {
	svc   *MemoryLockService
	key   string
	token string
	once  sync.Once
}

// Release is a no-op if the lease already expired and someone else holds
// the key.
func (h *handle) Release() {
	h.once.Do(func() {
		h.svc.mu.Lock()
		defer h.svc.mu.Unlock()

		if current, held := h.svc.locks[h.key]; held && current.token == h.token {
			delete(h.svc.locks, h.key)
		}
	})
}
