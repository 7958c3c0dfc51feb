// Package vesting provides an embeddable token-vesting escrow engine for Go
// applications.
//
// Vesting is designed as a library, not a service. An employer commits a
// fixed quantity of a fungible asset to an employee on a linear, time-based
// release schedule; the engine holds the funds in a custodial escrow
// account, computes what has vested at any moment, and pays out only on the
// employee's claim. Cancellable streams can be revoked by the employer, in
// which case the employee keeps everything vested so far and the remainder
// is refunded.
//
// The engine never holds assets itself. It drives an external fungible
// ledger through the token.Ledger interface, issuing pull and push transfer
// instructions and keeping its payment registry reconciled with the escrow
// account's balance.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/vesting"
//	    "github.com/xraph/vesting/store/memory"
//	    tokenmem "github.com/xraph/vesting/token/memory"
//	)
//
//	assets := tokenmem.New()
//	l := vesting.New(memory.New(), assets, "escrow")
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
//	// Employer funds and authorizes the escrow, then opens a stream.
//	assets.Mint(ctx, "acme", 1_000)
//	assets.Approve(ctx, "acme", "escrow", 1_000)
//	pid, err := l.NewPayment(ctx, "acme", "alice", 1_000,
//	    time.Now(), 30*24*time.Hour, true)
//
//	// Later, the employee claims whatever has vested.
//	err = l.Release(ctx, "alice", pid)
//
// # Stores
//
// The payment registry is pluggable. store/memory suits tests and
// single-process use; store/sqlite, store/postgres and store/mongo persist
// streams durably through the grove ORM. All backends allocate payment ids
// as an append-only sequence starting at 1.
//
// # Plugins
//
// Lifecycle hooks (plugin.OnPaymentCreated, plugin.OnReleased,
// plugin.OnCanceled, plugin.OnTransferFailed) let callers attach audit
// recording, metrics, or custom side effects. Hook failures are logged and
// never affect the operation's outcome. The audit_hook and observability
// packages ship ready-made plugins.
//
// # Forge integration
//
// The extension package adapts the engine to a Forge application:
// configuration binding, dependency injection, and health checks.
package vesting
