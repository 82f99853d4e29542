package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/vegasatr/OtpuskPass-bot/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE telegram_id = $1", telegramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpsertUserTx creates the user keyed by telegram_id or refreshes the name
// fields of an existing row. Runs on the caller's transaction so activation
// stays atomic.
func (r *Repository) UpsertUserTx(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	query := `
		INSERT INTO users (telegram_id, first_name, last_name, status, role, referral_code, referrer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (telegram_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name
		RETURNING id, current_nights, registration_date, referral_code, referrer_id`

	return tx.QueryRowContext(ctx, query,
		user.TelegramID,
		user.FirstName,
		user.LastName,
		user.Status,
		user.Role,
		user.ReferralCode,
		user.ReferrerID,
	).Scan(&user.ID, &user.CurrentNights, &user.RegistrationDate, &user.ReferralCode, &user.ReferrerID)
}

func (r *Repository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE referral_code = $1", code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) AddUserNightsTx(ctx context.Context, tx *sqlx.Tx, userID int64, nights int) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET current_nights = current_nights + $2 WHERE id = $1",
		userID, nights,
	)
	return err
}

func (r *Repository) GetUserWithSubscription(ctx context.Context, telegramID int64) (*model.UserWithSubscription, error) {
	user, err := r.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	result := &model.UserWithSubscription{User: *user}

	sub, err := r.GetActiveSubscription(ctx, user.ID)
	if err != nil && !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, err
	}
	result.Subscription = sub

	return result, nil
}
