// Package types provides common types used across Vesting.
package types

// Account identifies a participant on the external asset ledger: an
// employer, an employee, or the escrow itself. The value is opaque to the
// engine; it is only ever compared for equality and forwarded to the
// asset ledger.
type Account string

// IsZero reports whether the account is unset.
func (a Account) IsZero() bool { return a == "" }

// String returns the raw account identifier.
func (a Account) String() string { return string(a) }
