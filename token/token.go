// Package token defines the capability the escrow requires of the external
// fungible-asset ledger. The ledger itself is a collaborator, not part of
// the vesting core: the engine only reads balances and issues transfer
// instructions through this interface.
package token

import (
	"context"
	"errors"

	"github.com/xraph/vesting/types"
)

var (
	// ErrInsufficientBalance is returned when the owner does not hold
	// enough units to cover a transfer.
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	// ErrInsufficientAllowance is returned when a pull-transfer exceeds
	// the allowance the owner granted the spender.
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
)

// Ledger is the external asset ledger. Calls are synchronous and either
// succeed or fail outright, with no retry and no partial effect.
type Ledger interface {
	// BalanceOf returns the quantity held by account.
	BalanceOf(ctx context.Context, account types.Account) (uint64, error)

	// Transfer moves amount from owner's own balance to recipient. No
	// allowance is involved; the owner is moving its own custody.
	Transfer(ctx context.Context, owner, recipient types.Account, amount uint64) error

	// TransferFrom moves amount from owner to recipient on behalf of
	// spender, consuming allowance the owner previously granted spender.
	// Fails with ErrInsufficientAllowance or ErrInsufficientBalance.
	TransferFrom(ctx context.Context, owner, spender, recipient types.Account, amount uint64) error
}
