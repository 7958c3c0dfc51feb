package payment

import (
	"math/big"
	"time"

	"github.com/xraph/vesting/types"
)

// Payment is one escrowed, time-vesting commitment of funds from an
// employer to an employee. Employer, employee, amount, start, duration and
// cancellable are fixed at creation; only released, balance and active
// change over the stream's life.
type Payment struct {
	types.Entity
	ID          uint64        `json:"id"`
	Employer    types.Account `json:"employer"`
	Employee    types.Account `json:"employee"`
	Amount      uint64        `json:"amount"`
	Released    uint64        `json:"released"`
	Balance     uint64        `json:"balance"`
	Start       time.Time     `json:"start"`
	Duration    time.Duration `json:"duration"`
	Cancellable bool          `json:"cancellable"`
	Active      bool          `json:"active"`
	CanceledAt  *time.Time    `json:"canceled_at,omitempty"`
}

// VestedAt returns the quantity vested at time t under cliff-free linear
// vesting: zero before Start, Amount at or after Start+Duration, and the
// floor of Amount*elapsed/Duration in between. Floor, not round: the
// employee never receives more than proportionally earned; the residual
// dust resolves at full vesting or cancellation.
func (p *Payment) VestedAt(t time.Time) uint64 {
	if t.Before(p.Start) {
		return 0
	}
	if !t.Before(p.Start.Add(p.Duration)) {
		return p.Amount
	}
	vested := new(big.Int).SetUint64(p.Amount)
	vested.Mul(vested, big.NewInt(int64(t.Sub(p.Start))))
	vested.Div(vested, big.NewInt(int64(p.Duration)))
	return vested.Uint64()
}

// ReleasableAt returns the vested-but-unreleased quantity at time t.
// Non-negative: Released only ever grows to a previously vested value and
// VestedAt is monotonic in t.
func (p *Payment) ReleasableAt(t time.Time) uint64 {
	return p.VestedAt(t) - p.Released
}

// FullyVested reports whether every committed unit has been released.
// Not a distinct stored state: release becomes a permanent no-op and a
// cancellable stream still cancels, paying a zero refund.
func (p *Payment) FullyVested() bool {
	return p.Released == p.Amount
}

// Clone returns a deep copy of the payment.
func (p *Payment) Clone() *Payment {
	c := *p
	if p.CanceledAt != nil {
		t := *p.CanceledAt
		c.CanceledAt = &t
	}
	return &c
}

// ListOpts filters registry queries.
type ListOpts struct {
	Employer   types.Account
	Employee   types.Account
	ActiveOnly bool
	Limit      int
	Offset     int
}
