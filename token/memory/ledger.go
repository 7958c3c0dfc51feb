// Package memory provides an in-memory fungible-asset ledger with
// mint/approve bootstrap capabilities. It backs tests and single-process
// deployments; production escrows point the engine at a real asset ledger
// instead.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/token"
	"github.com/xraph/vesting/types"
)

// Transfer is one journal entry. Spender is empty for owner-initiated
// moves and for mints.
type Transfer struct {
	ID        id.TransferID `json:"id"`
	From      types.Account `json:"from,omitempty"`
	To        types.Account `json:"to"`
	Spender   types.Account `json:"spender,omitempty"`
	Amount    uint64        `json:"amount"`
	Timestamp time.Time     `json:"timestamp"`
}

// Ledger is an in-memory token.Ledger with ERC20-style allowances.
type Ledger struct {
	mu         sync.RWMutex
	balances   map[types.Account]uint64
	allowances map[types.Account]map[types.Account]uint64
	journal    []Transfer
}

var _ token.Ledger = (*Ledger)(nil)

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances:   make(map[types.Account]uint64),
		allowances: make(map[types.Account]map[types.Account]uint64),
	}
}

// Mint credits amount to account out of thin air. Bootstrap-only.
func (l *Ledger) Mint(_ context.Context, account types.Account, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[account] += amount
	l.record(Transfer{To: account, Amount: amount})
	return nil
}

// Approve grants spender the right to pull up to amount from owner.
// Overwrites any prior allowance for the pair.
func (l *Ledger) Approve(_ context.Context, owner, spender types.Account, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	grants, ok := l.allowances[owner]
	if !ok {
		grants = make(map[types.Account]uint64)
		l.allowances[owner] = grants
	}
	grants[spender] = amount
	return nil
}

// Allowance returns the remaining quantity spender may pull from owner.
func (l *Ledger) Allowance(_ context.Context, owner, spender types.Account) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.allowances[owner][spender], nil
}

// BalanceOf implements token.Ledger.
func (l *Ledger) BalanceOf(_ context.Context, account types.Account) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balances[account], nil
}

// Transfer implements token.Ledger.
func (l *Ledger) Transfer(_ context.Context, owner, recipient types.Account, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[owner] < amount {
		return token.ErrInsufficientBalance
	}
	l.balances[owner] -= amount
	l.balances[recipient] += amount
	l.record(Transfer{From: owner, To: recipient, Amount: amount})
	return nil
}

// TransferFrom implements token.Ledger.
func (l *Ledger) TransferFrom(_ context.Context, owner, spender, recipient types.Account, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.allowances[owner][spender] < amount {
		return token.ErrInsufficientAllowance
	}
	if l.balances[owner] < amount {
		return token.ErrInsufficientBalance
	}
	l.allowances[owner][spender] -= amount
	l.balances[owner] -= amount
	l.balances[recipient] += amount
	l.record(Transfer{From: owner, To: recipient, Spender: spender, Amount: amount})
	return nil
}

// Journal returns a copy of all transfers recorded so far, oldest first.
func (l *Ledger) Journal() []Transfer {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Transfer, len(l.journal))
	copy(out, l.journal)
	return out
}

// record appends a journal entry. Caller holds the write lock.
func (l *Ledger) record(t Transfer) {
	t.ID = id.NewTransferID()
	t.Timestamp = time.Now().UTC()
	l.journal = append(l.journal, t)
}
