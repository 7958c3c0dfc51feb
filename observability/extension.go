// Package observability provides a metrics extension for Vesting that
// records payment lifecycle counts and amounts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/vesting/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin           = (*MetricsExtension)(nil)
	_ plugin.OnInit           = (*MetricsExtension)(nil)
	_ plugin.OnPaymentCreated = (*MetricsExtension)(nil)
	_ plugin.OnReleased       = (*MetricsExtension)(nil)
	_ plugin.OnCanceled       = (*MetricsExtension)(nil)
	_ plugin.OnTransferFailed = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Vesting plugin to automatically track escrow activity.
type MetricsExtension struct {
	factory MetricFactory

	// Payment stream metrics
	PaymentsCreated  Counter
	PaymentsCanceled Counter
	EscrowedAmount   Histogram

	// Payout metrics
	Releases       Counter
	ReleasedAmount Histogram
	RefundedAmount Histogram

	// Error metrics
	TransferFailures Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		PaymentsCreated:  factory.Counter("vesting.payment.created"),
		PaymentsCanceled: factory.Counter("vesting.payment.canceled"),
		EscrowedAmount:   factory.Histogram("vesting.payment.escrowed_amount"),

		Releases:       factory.Counter("vesting.release.count"),
		ReleasedAmount: factory.Histogram("vesting.release.amount"),
		RefundedAmount: factory.Histogram("vesting.cancel.refund_amount"),

		TransferFailures: factory.Counter("vesting.transfer.failures"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// OnPaymentCreated implements plugin.OnPaymentCreated.
func (m *MetricsExtension) OnPaymentCreated(_ context.Context, _ interface{}) error {
	m.PaymentsCreated.Inc()
	return nil
}

// OnReleased implements plugin.OnReleased.
func (m *MetricsExtension) OnReleased(_ context.Context, _ interface{}, amount uint64) error {
	m.Releases.Inc()
	m.ReleasedAmount.Observe(float64(amount))
	return nil
}

// OnCanceled implements plugin.OnCanceled.
func (m *MetricsExtension) OnCanceled(_ context.Context, _ interface{}, paid, refunded uint64) error {
	m.PaymentsCanceled.Inc()
	if paid > 0 {
		m.Releases.Inc()
		m.ReleasedAmount.Observe(float64(paid))
	}
	m.RefundedAmount.Observe(float64(refunded))
	return nil
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (m *MetricsExtension) OnTransferFailed(_ context.Context, _ uint64, _ error) error {
	m.TransferFailures.Inc()
	return nil
}
