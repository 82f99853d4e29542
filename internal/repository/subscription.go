package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vegasatr/OtpuskPass-bot/internal/model"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

func (r *Repository) GetSubscription(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.GetContext(ctx, &sub, "SELECT * FROM subscriptions WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *Repository) GetSubscriptionTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription
	err := tx.GetContext(ctx, &sub, "SELECT * FROM subscriptions WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *Repository) GetActiveSubscription(ctx context.Context, userID int64) (*model.Subscription, error) {
	var sub model.Subscription
	query := `
		SELECT * FROM subscriptions
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1`

	err := r.db.GetContext(ctx, &sub, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *Repository) GetActiveSubscriptionTx(ctx context.Context, tx *sqlx.Tx, userID int64) (*model.Subscription, error) {
	var sub model.Subscription
	query := `
		SELECT * FROM subscriptions
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1`

	err := tx.GetContext(ctx, &sub, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *Repository) CreateSubscriptionTx(ctx context.Context, tx *sqlx.Tx, sub *model.Subscription) error {
	query := `
		INSERT INTO subscriptions (user_id, start_date, status, accumulated_nights, amount_rub, amount_ton)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return tx.QueryRowContext(ctx, query,
		sub.UserID,
		sub.StartDate,
		sub.Status,
		sub.AccumulatedNights,
		sub.AmountRUB,
		sub.AmountTON,
	).Scan(&sub.ID, &sub.CreatedAt)
}

func (r *Repository) UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status model.SubscriptionStatus) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE subscriptions SET status = $2 WHERE id = $1",
		id, status,
	)
	return err
}

// AddSubscriptionNightsTx accrues nights on an active subscription. The
// status guard keeps accumulated_nights monotone only while active.
func (r *Repository) AddSubscriptionNightsTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, nights int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE subscriptions SET accumulated_nights = accumulated_nights + $2 WHERE id = $1 AND status = 'active'",
		id, nights,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}
