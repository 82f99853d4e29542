package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/vegasatr/OtpuskPass-bot/internal/model"
)

// PaymentStore is the slice of the repository the worker needs.
type PaymentStore interface {
	GetPendingPayments(ctx context.Context, lookback time.Duration) ([]model.Payment, error)
	GetStalePendingPayments(ctx context.Context, lookback time.Duration) ([]model.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) error
}

// PaymentVerifier reconciles a pending payment against the payment network.
// Satisfied by any ton.Client, so a real verifier can be substituted without
// touching the scan loop.
type PaymentVerifier interface {
	Status(ctx context.Context, address string, amountTON float64) (model.PaymentStatus, error)
}

// PaymentCompleter finalizes a confirmed payment: status flip and night
// accrual commit together, so a failure leaves the payment pending for the
// next scan instead of losing the night.
type PaymentCompleter interface {
	CompletePayment(ctx context.Context, paymentID, subscriptionID uuid.UUID) error
}

// PaymentWorker periodically scans pending payments inside the lookback
// window and reconciles each one. Failures on a single row never abort the
// scan or the next cycle.
type PaymentWorker struct {
	store     PaymentStore
	verifier  PaymentVerifier
	completer PaymentCompleter
	interval  time.Duration
	lookback  time.Duration
}

func NewPaymentWorker(store PaymentStore, verifier PaymentVerifier, completer PaymentCompleter, interval, lookback time.Duration) *PaymentWorker {
	return &PaymentWorker{
		store:     store,
		verifier:  verifier,
		completer: completer,
		interval:  interval,
		lookback:  lookback,
	}
}

// Start runs the scan loop until ctx is cancelled. A scan in progress
// finishes before the loop exits.
func (w *PaymentWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Printf("[Payment Worker] Started, checking every %s", w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("[Payment Worker] Stopped")
			return
		case <-ticker.C:
			w.Scan(ctx)
		}
	}
}

// Scan runs one reconciliation pass. Exported so a cycle can be driven
// directly in tests and from maintenance endpoints.
func (w *PaymentWorker) Scan(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Payment Worker] Recovered from panic during scan: %v", r)
		}
	}()

	payments, err := w.store.GetPendingPayments(ctx, w.lookback)
	if err != nil {
		log.Printf("[Payment Worker] Error getting pending payments: %v", err)
		return
	}

	if len(payments) > 0 {
		log.Printf("[Payment Worker] Processing %d pending payments", len(payments))
	}

	for i := range payments {
		w.processPayment(ctx, &payments[i])
	}

	w.expireStalePayments(ctx)
}

func (w *PaymentWorker) processPayment(ctx context.Context, payment *model.Payment) {
	status, err := w.verifier.Status(ctx, payment.TONAddress, payment.AmountTON)
	if err != nil {
		log.Printf("[Payment Worker] Payment %s: verification error: %v", payment.ID, err)
		return
	}

	switch status {
	case model.PaymentStatusCompleted:
		// One transaction: the payment must not be marked completed
		// unless the night lands, or the row would never be retried.
		if err := w.completer.CompletePayment(ctx, payment.ID, payment.SubscriptionID); err != nil {
			log.Printf("[Payment Worker] Payment %s: error completing: %v", payment.ID, err)
			return
		}
		log.Printf("[Payment Worker] Payment %s completed (%.4f TON)", payment.ID, payment.AmountTON)

	case model.PaymentStatusFailed:
		if err := w.store.UpdatePaymentStatus(ctx, payment.ID, model.PaymentStatusFailed); err != nil {
			log.Printf("[Payment Worker] Payment %s: error updating status: %v", payment.ID, err)
		}

	default:
		// Still pending, next cycle will retry.
	}
}

// expireStalePayments fails pending payments that fell out of the lookback
// window: the quoted address was only valid for that long.
func (w *PaymentWorker) expireStalePayments(ctx context.Context) {
	stale, err := w.store.GetStalePendingPayments(ctx, w.lookback)
	if err != nil {
		log.Printf("[Payment Worker] Error getting stale payments: %v", err)
		return
	}

	for _, payment := range stale {
		if err := w.store.UpdatePaymentStatus(ctx, payment.ID, model.PaymentStatusFailed); err != nil {
			log.Printf("[Payment Worker] Payment %s: error expiring: %v", payment.ID, err)
			continue
		}
		log.Printf("[Payment Worker] Payment %s timed out, marked as failed", payment.ID)
	}
}
