package store

import (
	"context"

	"github.com/xraph/vesting/payment"
)

// Store is the persistence interface for the payment registry. The
// registry is append-only: ids are sequential, never reused, and cancelled
// payments remain queryable forever.
//
// Implementations are not required to serialize mutations of the same
// payment; the engine holds a mutex across each mutating operation.
type Store interface {
	// CreatePayment persists p, allocating the next sequential payment id.
	// The id is written back to p.ID and returned.
	CreatePayment(ctx context.Context, p *payment.Payment) (uint64, error)

	// GetPayment returns the payment with the given id.
	GetPayment(ctx context.Context, paymentID uint64) (*payment.Payment, error)

	// UpdatePayment overwrites the stored record for p.ID.
	UpdatePayment(ctx context.Context, p *payment.Payment) error

	// ListPayments returns payments matching opts, ordered by id.
	ListPayments(ctx context.Context, opts payment.ListOpts) ([]*payment.Payment, error)

	// TotalEscrowed returns the sum of balances across active payments,
	// the quantity the escrow holds on behalf of vesting obligations.
	TotalEscrowed(ctx context.Context) (uint64, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
