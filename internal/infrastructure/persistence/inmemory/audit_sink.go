package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/contracts"
)

// AuditSink keeps confirmation audit entries in memory. Useful for tests
// and single-instance deployments without a database.
type AuditSink struct {
	mu      sync.RWMutex
	entries []contracts.AuditEntry
}

func NewAuditSink() *AuditSink {
	return &AuditSink{}
}

func (s *AuditSink) Record(_ context.Context, entry contracts.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	return nil
}

func (s *AuditSink) Entries() []contracts.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.entries)
}

func (s *AuditSink) EntriesForPayment(paymentID string) []contracts.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []contracts.AuditEntry
	for _, entry := range s.entries {
		if entry.PaymentID == paymentID {
			found = append(found, entry)
		}
	}
	return found
}
