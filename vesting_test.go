package vesting_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	vesting "github.com/xraph/vesting"
	"github.com/xraph/vesting/payment"
	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/store/memory"
	"github.com/xraph/vesting/token"
	tokenmem "github.com/xraph/vesting/token/memory"
	"github.com/xraph/vesting/types"
)

const (
	employer = types.Account("acme")
	employee = types.Account("alice")
	escrow   = types.Account("escrow")

	monthSeconds = 2592000 // 30 days, the schedule the stream fixtures use
)

type fixture struct {
	t      *testing.T
	ctx    context.Context
	ledger *vesting.Ledger
	assets *tokenmem.Ledger
	clock  clockwork.FakeClock
}

func newFixture(t *testing.T, opts ...vesting.Option) *fixture {
	t.Helper()
	ctx := context.Background()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	assets := tokenmem.New()

	opts = append([]vesting.Option{vesting.WithClock(clock)}, opts...)
	l := vesting.New(memory.New(), assets, escrow, opts...)
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = l.Stop() })

	return &fixture{t: t, ctx: ctx, ledger: l, assets: assets, clock: clock}
}

// fund mints to the employer and authorizes the escrow to pull.
func (f *fixture) fund(account types.Account, amount uint64) {
	f.t.Helper()
	if err := f.assets.Mint(f.ctx, account, amount); err != nil {
		f.t.Fatalf("Mint: %v", err)
	}
	if err := f.assets.Approve(f.ctx, account, escrow, amount); err != nil {
		f.t.Fatalf("Approve: %v", err)
	}
}

func (f *fixture) newStream(amount uint64, cancellable bool) uint64 {
	f.t.Helper()
	pid, err := f.ledger.NewPayment(f.ctx, employer, employee, amount,
		f.clock.Now(), monthSeconds*time.Second, cancellable)
	if err != nil {
		f.t.Fatalf("NewPayment: %v", err)
	}
	return pid
}

func (f *fixture) balance(account types.Account) uint64 {
	f.t.Helper()
	bal, err := f.assets.BalanceOf(f.ctx, account)
	if err != nil {
		f.t.Fatalf("BalanceOf: %v", err)
	}
	return bal
}

// checkConservation verifies the registry's active balances always equal
// the escrow account's holdings on the asset ledger.
func (f *fixture) checkConservation() {
	f.t.Helper()
	total, err := f.ledger.TotalEscrowed(f.ctx)
	if err != nil {
		f.t.Fatalf("TotalEscrowed: %v", err)
	}
	if held := f.balance(escrow); total != held {
		f.t.Fatalf("conservation violated: registry %d, escrow holds %d", total, held)
	}
}

func TestNewPaymentValidation(t *testing.T) {
	f := newFixture(t)
	f.fund(employer, 1000)
	start := f.clock.Now()

	tests := []struct {
		name     string
		employer types.Account
		employee types.Account
		amount   uint64
		duration time.Duration
		wantErr  error
	}{
		{"zero amount", employer, employee, 0, time.Hour, vesting.ErrInvalidInput},
		{"zero duration", employer, employee, 100, 0, vesting.ErrInvalidInput},
		{"negative duration", employer, employee, 100, -time.Hour, vesting.ErrInvalidInput},
		{"missing employer", "", employee, 100, time.Hour, vesting.ErrInvalidInput},
		{"missing employee", employer, "", 100, time.Hour, vesting.ErrInvalidInput},
		{"self vesting", employer, employer, 100, time.Hour, vesting.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.NewPayment(f.ctx, tt.employer, tt.employee, tt.amount, start, tt.duration, true)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Nothing was pulled by the rejected attempts.
	if got := f.balance(employer); got != 1000 {
		t.Errorf("employer balance = %d, want 1000", got)
	}
}

func TestNewPaymentSelfVestingOptIn(t *testing.T) {
	f := newFixture(t, vesting.WithSelfVestingAllowed())
	f.fund(employer, 100)

	_, err := f.ledger.NewPayment(f.ctx, employer, employer, 100,
		f.clock.Now(), time.Hour, false)
	if err != nil {
		t.Errorf("self-vesting stream rejected despite opt-in: %v", err)
	}
}

func TestNewPaymentInsufficientAllowance(t *testing.T) {
	f := newFixture(t)
	_ = f.assets.Mint(f.ctx, employer, 1000)
	_ = f.assets.Approve(f.ctx, employer, escrow, 50)

	_, err := f.ledger.NewPayment(f.ctx, employer, employee, 100,
		f.clock.Now(), time.Hour, true)
	if !errors.Is(err, token.ErrInsufficientAllowance) {
		t.Errorf("error = %v, want ErrInsufficientAllowance", err)
	}
	if !vesting.IsFundsError(err) {
		t.Error("IsFundsError = false for allowance failure")
	}
}

func TestNewPaymentInsufficientBalance(t *testing.T) {
	f := newFixture(t)
	_ = f.assets.Mint(f.ctx, employer, 50)
	_ = f.assets.Approve(f.ctx, employer, escrow, 100)

	_, err := f.ledger.NewPayment(f.ctx, employer, employee, 100,
		f.clock.Now(), time.Hour, true)
	if !errors.Is(err, token.ErrInsufficientBalance) {
		t.Errorf("error = %v, want ErrInsufficientBalance", err)
	}
}

func TestNewPaymentEscrowsFunds(t *testing.T) {
	f := newFixture(t)
	f.fund(employer, 100)

	pid := f.newStream(100, true)
	if pid != 1 {
		t.Errorf("first payment id = %d, want 1", pid)
	}

	if got := f.balance(employer); got != 0 {
		t.Errorf("employer balance = %d, want 0", got)
	}
	if got := f.balance(escrow); got != 100 {
		t.Errorf("escrow balance = %d, want 100", got)
	}

	p, err := f.ledger.Payment(f.ctx, pid)
	if err != nil {
		t.Fatalf("Payment: %v", err)
	}
	if p.Released != 0 || p.Balance != 100 || !p.Active || !p.Cancellable {
		t.Errorf("fresh stream state = %+v", p)
	}
	f.checkConservation()
}

func TestSequentialPaymentIDs(t *testing.T) {
	f := newFixture(t)
	f.fund(employer, 300)

	for want := uint64(1); want <= 3; want++ {
		if pid := f.newStream(100, true); pid != want {
			t.Errorf("payment id = %d, want %d", pid, want)
		}
	}
}

func TestVestedAmountSchedule(t *testing.T) {
	f := newFixture(t)
	f.fund(employer, 100)
	pid := f.newStream(100, true)

	if got, _ := f.ledger.VestedAmount(f.ctx, pid); got != 0 {
		t.Errorf("vested at start = %d, want 0", got)
	}

	f.clock.Advance(monthSeconds / 2 * time.Second)
	if got, _ := f.ledger.VestedAmount(f.ctx, pid); got != 50 {
		t.Errorf("vested at half = %d, want 50", got)
	}

	f.clock.Advance(monthSeconds * time.Second)
	if got, _ := f.ledger.VestedAmount(f.ctx, pid); got != 100 {
		t.Errorf("vested past end = %d, want 100", got)
	}
}

func TestReleaseHalfwayThenFull(t *testing.T) {
	f := newFixture(t)
	f.fund(employer, 100)
	pid := f.newStream(100, true)

	f.clock.Advance(monthSeconds / 2 * time.Second)

	if got, _ := f.ledger.ReleasableAmount(f.ctx, pid); got != 50 {
		t.Fatalf("releasable at half = %d, want 50", got)
	}
	if err := f.ledger.Release(f.ctx, employee, pid); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if got := f.balance(employee); got != 50 {
		t.Errorf("employee balance = %d, want 50", got)
	}
	f.checkConservation()

	// Nothing newly vested: release is a successful no-op.
	if err := f.ledger.Release(f.ctx, employee, pid); err != nil {
		t.Fatalf("no-op Release: %v", err)
	}
	if got := f.balance(employee); got != 50 {
		t.Errorf("employee balance after no-op = %d, want 50", got)
	}

	f.clock.Advance(monthSeconds * time.Second)
	if err := f.ledger.Release(f.ctx, employee, pid); err != nil {
		t.Fatalf("final Release: %v", err)
	}
	if got := f.balance(employee); got != 100 {
		t.Errorf("employee balance after full vest = %d, want 100", got)
	}

	p, _ := f.ledger.Payment(f.ctx, pid)
	if p.Released != 100 || p.Balance != 0 || !p.FullyVested() {
		t.Errorf("final stream state = released %d balance %d", p.Released, p.Balance)
	}
	f.checkConservation()
}

func TestReleaseAuthorization(t *testing.T) {
	f := newFixture(t)
	f.fund(employer, 100)
	pid := f.newStream(100, true)
	f.clock.Advance(monthSeconds / 2 * time.Second)

	for _, caller := range []types.Account{employer, "mallory"} {
		err := f.ledger.Release(f.ctx, caller, pid)
		if !errors.Is(err, vesting.ErrUnauthorized) {
			t.Errorf("Release by %s error = %v, want ErrUnauthorized", caller, err)
		}
		if !strings.Contains(err.Error(), "only assigned employee can claim release") {
			t.Errorf("Release by %s error message = %q", caller, err.Error())
		}
		if !vesting.IsAuthorizationError(err) {
			t.Errorf("IsAuthorizationError = false for %v", err)
		}
	}

	// The rejected calls moved nothing.
	if got := f.balance(employee); got != 0 {
		t.Errorf("employee balance = %d, want 0", got)
	}
	f.checkConservation()
}

func TestCancelRefundsUnvested(t *testing.T) {
	f := newFixture(t)
	f.fund(employer, 100)
	pid := f.newStream(100, true)

	f.clock.Advance(monthSeconds / 2 * time.Second)

	if err := f.ledger.Cancel(f.ctx, employer, pid); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if got := f.balance(employee); got != 50 {
		t.Errorf("employee kept %d, want vested 50", got)
	}
	if got := f.balance(employer); got != 50 {
		t.Errorf("employer refunded %d, want 50", got)
	}
	if got := f.balance(escrow); got != 0 {
		t.Errorf("escrow still holds %d after cancel", got)
	}

	p, _ := f.ledger.Payment(f.ctx, pid)
	if p.Active {
		t.Error("cancelled stream still active")
	}
	if p.CanceledAt == nil {
		t.Error("cancelled stream missing CanceledAt")
	}
	if p.Released != 50 || p.Balance != 50 {
		t.Errorf("cancelled stream released/balance = %d/%d, want 50/50", p.Released, p.Balance)
	}
	f.checkConservation()
}

func TestCancelAfterRelease(t *testing.T) {
	f := newFixture(t)
	f.fund(employer, 100)
	pid := f.newStream(100, true)

	f.clock.Advance(monthSeconds / 2 * time.Second)
	if err := f.ledger.Release(f.ctx, employee, pid); err != nil {
		t.Fatalf("Release: %v", err)
	}

	f.clock.Advance(monthSeconds / 4 * time.Second)
	if err := f.ledger.Cancel(f.ctx, employer, pid); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	// 75 vested in total: 50 claimed earlier, 25 paid on cancel, 25 refunded.
	if got := f.balance(employee); got != 75 {
		t.Errorf("employee balance = %d, want 75", got)
	}
	if got := f.balance(employer); got != 25 {
		t.Errorf("employer refund = %d, want 25", got)
	}
	f.checkConservation()
}

func TestCancelNotCancellable(t *testing.T) {
	f := newFixture(t)
	f.fund(employer, 50)
	pid := f.newStream(50, false)

	for _, advance := range []time.Duration{0, monthSeconds / 2 * time.Second, monthSeconds * time.Second} {
		f.clock.Advance(advance)
		err := f.ledger.Cancel(f.ctx, employer, pid)
		if !errors.Is(err, vesting.ErrNotCancellable) {
			t.Errorf("Cancel after %v error = %v, want ErrNotCancellable", advance, err)
		}
	}

	p, _ := f.ledger.Payment(f.ctx, pid)
	if !p.Active {
		t.Error("non-cancellable stream deactivated by rejected cancels")
	}
	f.checkConservation()
}

func TestCancelAuthorization(t *testing.T) {
	f := newFixture(t)
	f.fund(employer, 100)
	pid := f.newStream(100, true)

	for _, caller := range []types.Account{employee, "mallory"} {
		err := f.ledger.Cancel(f.ctx, caller, pid)
		if !errors.Is(err, vesting.ErrUnauthorized) {
			t.Errorf("Cancel by %s error = %v, want ErrUnauthorized", caller, err)
		}
		if !strings.Contains(err.Error(), "only employer can cancel payment") {
			t.Errorf("Cancel by %s error message = %q", caller, err.Error())
		}
	}
}

func TestOperationsOnCancelledStream(t *testing.T) {
	f := newFixture(t)
	f.fund(employer, 100)
	pid := f.newStream(100, true)

	f.clock.Advance(monthSeconds / 2 * time.Second)
	if err := f.ledger.Cancel(f.ctx, employer, pid); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if err := f.ledger.Release(f.ctx, employee, pid); !errors.Is(err, vesting.ErrPaymentInactive) {
		t.Errorf("Release on cancelled stream error = %v, want ErrPaymentInactive", err)
	}
	if err := f.ledger.Cancel(f.ctx, employer, pid); !errors.Is(err, vesting.ErrPaymentInactive) {
		t.Errorf("second Cancel error = %v, want ErrPaymentInactive", err)
	}

	// Queries still answer for the historical record.
	f.clock.Advance(monthSeconds * time.Second)
	if got, _ := f.ledger.VestedAmount(f.ctx, pid); got != 100 {
		t.Errorf("vested query on cancelled stream = %d, want 100", got)
	}
}

func TestUnknownPayment(t *testing.T) {
	f := newFixture(t)

	if _, err := f.ledger.Payment(f.ctx, 7); !errors.Is(err, vesting.ErrUnknownPayment) {
		t.Errorf("Payment error = %v, want ErrUnknownPayment", err)
	}
	if _, err := f.ledger.VestedAmount(f.ctx, 7); !vesting.IsNotFound(err) {
		t.Errorf("VestedAmount IsNotFound = false, err = %v", err)
	}
	if err := f.ledger.Release(f.ctx, employee, 7); !errors.Is(err, vesting.ErrUnknownPayment) {
		t.Errorf("Release error = %v, want ErrUnknownPayment", err)
	}
	if err := f.ledger.Cancel(f.ctx, employer, 7); !errors.Is(err, vesting.ErrUnknownPayment) {
		t.Errorf("Cancel error = %v, want ErrUnknownPayment", err)
	}
}

func TestListPaymentsFilters(t *testing.T) {
	f := newFixture(t)
	f.fund(employer, 300)
	f.fund("globex", 100)

	_ = f.newStream(100, true)
	pid2 := f.newStream(100, true)
	if _, err := f.ledger.NewPayment(f.ctx, "globex", "bob", 100,
		f.clock.Now(), time.Hour, false); err != nil {
		t.Fatalf("NewPayment: %v", err)
	}

	_ = f.ledger.Cancel(f.ctx, employer, pid2)

	byEmployer, _ := f.ledger.ListPayments(f.ctx, payment.ListOpts{Employer: employer})
	if len(byEmployer) != 2 {
		t.Errorf("by employer = %d streams, want 2", len(byEmployer))
	}

	active, _ := f.ledger.ListPayments(f.ctx, payment.ListOpts{Employer: employer, ActiveOnly: true})
	if len(active) != 1 {
		t.Errorf("active by employer = %d streams, want 1", len(active))
	}
}

// failingStore rejects inserts so the compensating refund path can be
// observed.
type failingStore struct {
	store.Store
}

var errInsertRejected = errors.New("insert rejected")

func (f *failingStore) CreatePayment(context.Context, *payment.Payment) (uint64, error) {
	return 0, errInsertRejected
}

func TestNewPaymentRefundsOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	assets := tokenmem.New()

	l := vesting.New(&failingStore{Store: memory.New()}, assets, escrow,
		vesting.WithClock(clock))

	_ = assets.Mint(ctx, employer, 100)
	_ = assets.Approve(ctx, employer, escrow, 100)

	_, err := l.NewPayment(ctx, employer, employee, 100, clock.Now(), time.Hour, true)
	if !errors.Is(err, errInsertRejected) {
		t.Fatalf("error = %v, want insert rejection", err)
	}

	// The pulled funds went back to the employer.
	if bal, _ := assets.BalanceOf(ctx, employer); bal != 100 {
		t.Errorf("employer balance = %d, want 100 after compensating refund", bal)
	}
	if bal, _ := assets.BalanceOf(ctx, escrow); bal != 0 {
		t.Errorf("escrow balance = %d, want 0", bal)
	}
}

// rejectingLedger fails every push transfer, simulating an asset ledger
// outage after funds were escrowed.
type rejectingLedger struct {
	*tokenmem.Ledger
	reject bool
}

var errLedgerDown = errors.New("asset ledger unavailable")

func (r *rejectingLedger) Transfer(ctx context.Context, owner, recipient types.Account, amount uint64) error {
	if r.reject {
		return errLedgerDown
	}
	return r.Ledger.Transfer(ctx, owner, recipient, amount)
}

func TestReleaseRollsBackOnTransferFailure(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	assets := &rejectingLedger{Ledger: tokenmem.New()}

	l := vesting.New(memory.New(), assets, escrow, vesting.WithClock(clock))
	_ = assets.Mint(ctx, employer, 100)
	_ = assets.Approve(ctx, employer, escrow, 100)

	pid, err := l.NewPayment(ctx, employer, employee, 100, clock.Now(), time.Hour, true)
	if err != nil {
		t.Fatalf("NewPayment: %v", err)
	}

	clock.Advance(30 * time.Minute)
	assets.reject = true

	if err := l.Release(ctx, employee, pid); !errors.Is(err, errLedgerDown) {
		t.Fatalf("Release error = %v, want ledger outage", err)
	}

	// Registry rolled back: the vested funds remain claimable.
	p, _ := l.Payment(ctx, pid)
	if p.Released != 0 || p.Balance != 100 {
		t.Errorf("after failed release released/balance = %d/%d, want 0/100", p.Released, p.Balance)
	}

	assets.reject = false
	if err := l.Release(ctx, employee, pid); err != nil {
		t.Fatalf("retry Release: %v", err)
	}
	if bal, _ := assets.BalanceOf(ctx, employee); bal != 50 {
		t.Errorf("employee balance after retry = %d, want 50", bal)
	}
}
