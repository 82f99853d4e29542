package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vegasatr/OtpuskPass-bot/internal/model"
)

var ErrPaymentNotFound = errors.New("payment not found")

func (r *Repository) GetPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.GetContext(ctx, &payment, "SELECT * FROM payments WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *Repository) CreatePaymentTx(ctx context.Context, tx *sqlx.Tx, payment *model.Payment) error {
	query := `
		INSERT INTO payments (subscription_id, amount_ton, status, ton_address, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return tx.QueryRowContext(ctx, query,
		payment.SubscriptionID,
		payment.AmountTON,
		payment.Status,
		payment.TONAddress,
		payment.CompletedAt,
	).Scan(&payment.ID, &payment.CreatedAt)
}

// UpdatePaymentStatus keeps the completed_at invariant: the timestamp is set
// exactly when the status becomes completed and nulled otherwise.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE payments SET status = $2, completed_at = $3 WHERE id = $1",
		id, status, completedAtFor(status),
	)
	return err
}

// UpdatePaymentStatusTx is UpdatePaymentStatus on the caller's transaction,
// so marking a payment completed can commit together with the night accrual.
func (r *Repository) UpdatePaymentStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.PaymentStatus) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE payments SET status = $2, completed_at = $3 WHERE id = $1",
		id, status, completedAtFor(status),
	)
	return err
}

func completedAtFor(status model.PaymentStatus) *time.Time {
	if status != model.PaymentStatusCompleted {
		return nil
	}
	now := time.Now()
	return &now
}

// GetPendingPayments returns payments still pending that were created within
// the lookback window, oldest first.
func (r *Repository) GetPendingPayments(ctx context.Context, lookback time.Duration) ([]model.Payment, error) {
	var payments []model.Payment
	query := `
		SELECT * FROM payments
		WHERE status = 'pending' AND created_at > $1
		ORDER BY created_at ASC`
	err := r.db.SelectContext(ctx, &payments, query, time.Now().Add(-lookback))
	return payments, err
}

// GetStalePendingPayments returns pending payments that fell out of the
// lookback window without ever being confirmed.
func (r *Repository) GetStalePendingPayments(ctx context.Context, lookback time.Duration) ([]model.Payment, error) {
	var payments []model.Payment
	query := `
		SELECT * FROM payments
		WHERE status = 'pending' AND created_at <= $1
		ORDER BY created_at ASC`
	err := r.db.SelectContext(ctx, &payments, query, time.Now().Add(-lookback))
	return payments, err
}

func (r *Repository) GetSubscriptionPayments(ctx context.Context, subscriptionID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	query := "SELECT * FROM payments WHERE subscription_id = $1 ORDER BY created_at DESC"
	err := r.db.SelectContext(ctx, &payments, query, subscriptionID)
	return payments, err
}
