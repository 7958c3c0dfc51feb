// Package audithook bridges Vesting lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/payment"
	"github.com/xraph/vesting/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin           = (*Extension)(nil)
	_ plugin.OnPaymentCreated = (*Extension)(nil)
	_ plugin.OnReleased       = (*Extension)(nil)
	_ plugin.OnCanceled       = (*Extension)(nil)
	_ plugin.OnTransferFailed = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. Defined
// locally so callers can bridge to whatever trail they run.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one recorded lifecycle event.
type AuditEvent struct {
	ID         id.AuditEventID `json:"id"`
	Action     string          `json:"action"`
	Resource   string          `json:"resource"`
	Category   string          `json:"category"`
	ResourceID string          `json:"resource_id,omitempty"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
	Outcome    string          `json:"outcome"`
	Severity   string          `json:"severity"`
	Reason     string          `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges payment lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// OnPaymentCreated implements plugin.OnPaymentCreated.
func (e *Extension) OnPaymentCreated(ctx context.Context, v interface{}) error {
	p, ok := v.(*payment.Payment)
	if !ok {
		return nil
	}
	return e.record(ctx, ActionPaymentCreated, SeverityInfo, OutcomeSuccess,
		ResourcePayment, formatPaymentID(p.ID), CategoryEscrow, nil,
		"employer", p.Employer.String(),
		"employee", p.Employee.String(),
		"amount", p.Amount,
		"duration", p.Duration.String(),
		"cancellable", p.Cancellable,
	)
}

// OnReleased implements plugin.OnReleased.
func (e *Extension) OnReleased(ctx context.Context, v interface{}, amount uint64) error {
	p, ok := v.(*payment.Payment)
	if !ok {
		return nil
	}
	return e.record(ctx, ActionPaymentReleased, SeverityInfo, OutcomeSuccess,
		ResourcePayment, formatPaymentID(p.ID), CategoryPayout, nil,
		"employee", p.Employee.String(),
		"amount", amount,
		"released_total", p.Released,
	)
}

// OnCanceled implements plugin.OnCanceled.
func (e *Extension) OnCanceled(ctx context.Context, v interface{}, paid, refunded uint64) error {
	p, ok := v.(*payment.Payment)
	if !ok {
		return nil
	}
	return e.record(ctx, ActionPaymentCanceled, SeverityWarning, OutcomeSuccess,
		ResourcePayment, formatPaymentID(p.ID), CategoryEscrow, nil,
		"employer", p.Employer.String(),
		"employee", p.Employee.String(),
		"final_payout", paid,
		"refund", refunded,
	)
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (e *Extension) OnTransferFailed(ctx context.Context, paymentID uint64, err error) error {
	return e.record(ctx, ActionTransferFailed, SeverityCritical, OutcomeFailure,
		ResourceTransfer, formatPaymentID(paymentID), CategoryFailure, err,
		"payment_id", paymentID,
	)
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		ID:         id.NewAuditEventID(),
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

func formatPaymentID(pid uint64) string {
	return strconv.FormatUint(pid, 10)
}
