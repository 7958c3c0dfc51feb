// Package plugin provides an extensible plugin system for Vesting.
// Plugins can hook into payment lifecycle events to extend functionality.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentCreated is called after a new payment stream is funded and stored.
type OnPaymentCreated interface {
	Plugin
	OnPaymentCreated(ctx context.Context, p interface{}) error
}

// OnReleased is called after vested funds are paid out to the employee.
// Zero-amount no-op releases do not fire this hook.
type OnReleased interface {
	Plugin
	OnReleased(ctx context.Context, p interface{}, amount uint64) error
}

// OnCanceled is called after a stream is cancelled. paid is the final
// payout to the employee, refunded the remainder returned to the employer.
type OnCanceled interface {
	Plugin
	OnCanceled(ctx context.Context, p interface{}, paid, refunded uint64) error
}

// OnTransferFailed is called when the external asset ledger rejects a
// transfer and the operation is rolled back.
type OnTransferFailed interface {
	Plugin
	OnTransferFailed(ctx context.Context, paymentID uint64, err error) error
}
