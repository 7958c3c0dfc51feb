package memory

import (
	"context"
	"sync"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/payment"
	vestingstore "github.com/xraph/vesting/store"
)

// compile-time interface check
var _ vestingstore.Store = (*Store)(nil)

// Store is the in-process payment registry: a map plus a next-id counter.
type Store struct {
	mu       sync.RWMutex
	payments map[uint64]*payment.Payment
	nextID   uint64
}

// New creates an empty registry. Ids start at 1.
func New() *Store {
	return &Store{
		payments: make(map[uint64]*payment.Payment),
		nextID:   1,
	}
}

// CreatePayment implements store.Store.
func (s *Store) CreatePayment(_ context.Context, p *payment.Payment) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextID
	s.nextID++
	s.payments[p.ID] = p.Clone()
	return p.ID, nil
}

// GetPayment implements store.Store. The returned record is a copy so
// callers can mutate it freely and roll back by simply not updating.
func (s *Store) GetPayment(_ context.Context, paymentID uint64) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[paymentID]
	if !ok {
		return nil, vesting.ErrUnknownPayment
	}
	return p.Clone(), nil
}

// UpdatePayment implements store.Store.
func (s *Store) UpdatePayment(_ context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payments[p.ID]; !ok {
		return vesting.ErrUnknownPayment
	}
	s.payments[p.ID] = p.Clone()
	return nil
}

// ListPayments implements store.Store.
func (s *Store) ListPayments(_ context.Context, opts payment.ListOpts) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*payment.Payment, 0)
	for pid := uint64(1); pid < s.nextID; pid++ {
		p, ok := s.payments[pid]
		if !ok {
			continue
		}
		if !opts.Employer.IsZero() && p.Employer != opts.Employer {
			continue
		}
		if !opts.Employee.IsZero() && p.Employee != opts.Employee {
			continue
		}
		if opts.ActiveOnly && !p.Active {
			continue
		}
		result = append(result, p.Clone())
	}

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// TotalEscrowed implements store.Store.
func (s *Store) TotalEscrowed(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total uint64
	for _, p := range s.payments {
		if p.Active {
			total += p.Balance
		}
	}
	return total, nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}
