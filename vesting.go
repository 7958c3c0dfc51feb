package vesting

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/xraph/vesting/payment"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/token"
	"github.com/xraph/vesting/types"
)

// Ledger is the vesting escrow engine. It owns the payment registry,
// computes vesting amounts, enforces access control, and issues transfer
// instructions to the external asset ledger.
//
// Every mutating operation runs as a single indivisible unit under the
// engine mutex: no operation observes another's partially-applied state.
// If the external transfer fails, the registry mutation is rolled back;
// if a registry insert fails after a pull, a compensating refund is issued.
type Ledger struct {
	store   store.Store
	assets  token.Ledger
	escrow  types.Account
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   clockwork.Clock

	allowSelfVesting bool

	mu sync.RWMutex
}

// New creates a new Ledger instance. escrow is the engine's own account on
// the asset ledger, the custodial holder of all un-released funds.
func New(s store.Store, assets token.Ledger, escrow types.Account, opts ...Option) *Ledger {
	l := &Ledger{
		store:   s,
		assets:  assets,
		escrow:  escrow,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		clock:   clockwork.NewRealClock(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithClock sets the clock used for vesting arithmetic. Defaults to the
// wall clock; tests inject a fake to advance time deterministically.
func WithClock(clock clockwork.Clock) Option {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithSelfVestingAllowed permits streams where the employee equals the
// employer. Rejected by default.
func WithSelfVestingAllowed() Option {
	return func(l *Ledger) {
		l.allowSelfVesting = true
	}
}

// Start migrates the registry store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("vesting ledger started",
		"escrow", l.escrow,
		"plugins", l.plugins.Count(),
	)

	return nil
}

// Stop shuts down the Ledger.
func (l *Ledger) Stop() error {
	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// ──────────────────────────────────────────────────
// Stream creation
// ──────────────────────────────────────────────────

// NewPayment creates a payment stream vesting amount units linearly from
// start over duration. It pulls amount from employer's pre-authorized
// allowance into escrow custody, then records the stream under the next
// sequential id, which is returned.
func (l *Ledger) NewPayment(ctx context.Context, employer, employee types.Account, amount uint64, start time.Time, duration time.Duration, cancellable bool) (uint64, error) {
	if employer.IsZero() || employee.IsZero() {
		return 0, fmt.Errorf("%w: employer and employee accounts are required", ErrInvalidInput)
	}
	if amount == 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}
	if employer == employee && !l.allowSelfVesting {
		return 0, fmt.Errorf("%w: employee must differ from employer", ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Pull the full commitment into escrow custody up front.
	if err := l.assets.TransferFrom(ctx, employer, l.escrow, l.escrow, amount); err != nil {
		return 0, err
	}

	p := &payment.Payment{
		Entity:      types.NewEntity(),
		Employer:    employer,
		Employee:    employee,
		Amount:      amount,
		Balance:     amount,
		Start:       start,
		Duration:    duration,
		Cancellable: cancellable,
		Active:      true,
	}

	pid, err := l.store.CreatePayment(ctx, p)
	if err != nil {
		// The pull already happened; return the funds before failing.
		if refundErr := l.assets.Transfer(ctx, l.escrow, employer, amount); refundErr != nil {
			l.logger.Error("failed to refund employer after registry insert failure",
				"employer", employer,
				"amount", amount,
				"error", refundErr,
			)
		}
		return 0, err
	}

	l.logger.Info("payment stream created",
		"payment_id", pid,
		"employer", employer,
		"employee", employee,
		"amount", amount,
		"duration", duration,
		"cancellable", cancellable,
	)

	l.plugins.EmitPaymentCreated(ctx, p)
	return pid, nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// Payment returns the full record for a stream.
func (l *Ledger) Payment(ctx context.Context, paymentID uint64) (*payment.Payment, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.store.GetPayment(ctx, paymentID)
}

// VestedAmount returns the quantity vested as of now under the stream's
// linear schedule. Pure query, no side effect.
func (l *Ledger) VestedAmount(ctx context.Context, paymentID uint64) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, err := l.store.GetPayment(ctx, paymentID)
	if err != nil {
		return 0, err
	}
	return p.VestedAt(l.clock.Now()), nil
}

// ReleasableAmount returns the vested-but-unreleased quantity as of now.
func (l *Ledger) ReleasableAmount(ctx context.Context, paymentID uint64) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, err := l.store.GetPayment(ctx, paymentID)
	if err != nil {
		return 0, err
	}
	return p.ReleasableAt(l.clock.Now()), nil
}

// ListPayments returns streams matching opts, ordered by id.
func (l *Ledger) ListPayments(ctx context.Context, opts payment.ListOpts) ([]*payment.Payment, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.store.ListPayments(ctx, opts)
}

// TotalEscrowed returns the sum of un-released balances across active
// streams. It always equals the escrow account's holdings on the asset
// ledger (funds conservation).
func (l *Ledger) TotalEscrowed(ctx context.Context) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.store.TotalEscrowed(ctx)
}

// ──────────────────────────────────────────────────
// Release
// ──────────────────────────────────────────────────

// Release pays the caller whatever has vested since the last claim. Only
// the stream's employee may call it. A call with nothing newly vested is a
// successful no-op.
func (l *Ledger) Release(ctx context.Context, caller types.Account, paymentID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.store.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	if caller != p.Employee {
		return fmt.Errorf("%w: only assigned employee can claim release", ErrUnauthorized)
	}
	if !p.Active {
		return ErrPaymentInactive
	}

	releasable := p.ReleasableAt(l.clock.Now())
	if releasable == 0 {
		l.logger.Debug("release no-op, nothing vested since last claim",
			"payment_id", paymentID,
		)
		return nil
	}

	snapshot := p.Clone()
	p.Released += releasable
	p.Balance -= releasable
	p.Touch()

	if err := l.store.UpdatePayment(ctx, p); err != nil {
		return err
	}
	if err := l.assets.Transfer(ctx, l.escrow, p.Employee, releasable); err != nil {
		l.rollback(ctx, snapshot)
		l.plugins.EmitTransferFailed(ctx, paymentID, err)
		return err
	}

	l.logger.Info("vested funds released",
		"payment_id", paymentID,
		"employee", p.Employee,
		"amount", releasable,
		"released_total", p.Released,
		"balance", p.Balance,
	)

	l.plugins.EmitReleased(ctx, p, releasable)
	return nil
}

// ──────────────────────────────────────────────────
// Cancel
// ──────────────────────────────────────────────────

// Cancel terminates a cancellable stream. Only the stream's employer may
// call it. The employee is paid whatever is currently releasable, the
// employer is refunded the rest of the escrowed balance, and the stream
// becomes permanently inert. The stored balance keeps its value after the
// employee's final claim as the historical record.
func (l *Ledger) Cancel(ctx context.Context, caller types.Account, paymentID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.store.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	if caller != p.Employer {
		return fmt.Errorf("%w: only employer can cancel payment", ErrUnauthorized)
	}
	if !p.Active {
		return ErrPaymentInactive
	}
	if !p.Cancellable {
		return ErrNotCancellable
	}

	now := l.clock.Now()
	releasable := p.ReleasableAt(now)
	refund := p.Balance - releasable

	snapshot := p.Clone()
	canceledAt := now.UTC()
	p.Released += releasable
	p.Balance -= releasable
	p.Active = false
	p.CanceledAt = &canceledAt
	p.Touch()

	if err := l.store.UpdatePayment(ctx, p); err != nil {
		return err
	}

	// Final claim to the employee first; vested funds are never lost to
	// a cancellation.
	if releasable > 0 {
		if err := l.assets.Transfer(ctx, l.escrow, p.Employee, releasable); err != nil {
			l.rollback(ctx, snapshot)
			l.plugins.EmitTransferFailed(ctx, paymentID, err)
			return err
		}
	}

	if refund > 0 {
		if err := l.assets.Transfer(ctx, l.escrow, p.Employer, refund); err != nil {
			// The employee payout already happened and cannot be pulled
			// back. Record it and leave the stream active: the failed
			// cancel degrades to a release, and the employer can retry.
			snapshot.Released += releasable
			snapshot.Balance -= releasable
			l.rollback(ctx, snapshot)
			l.plugins.EmitTransferFailed(ctx, paymentID, err)
			return err
		}
	}

	l.logger.Info("payment stream cancelled",
		"payment_id", paymentID,
		"employer", p.Employer,
		"employee", p.Employee,
		"final_payout", releasable,
		"refund", refund,
	)

	l.plugins.EmitCanceled(ctx, p, releasable, refund)
	return nil
}

// rollback restores a registry snapshot after an external transfer
// failure. A restore failure leaves the registry out of sync with the
// asset ledger and is surfaced as loudly as a library can.
func (l *Ledger) rollback(ctx context.Context, snapshot *payment.Payment) {
	if err := l.store.UpdatePayment(ctx, snapshot); err != nil {
		l.logger.Error("failed to roll back payment after transfer failure",
			"payment_id", snapshot.ID,
			"error", err,
		)
	}
}
