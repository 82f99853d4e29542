package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/vegasatr/OtpuskPass-bot/internal/model"
)

// CreateReferralBonusTx records the bonus in the same transaction as the
// activation that earned it.
func (r *Repository) CreateReferralBonusTx(ctx context.Context, tx *sqlx.Tx, bonus *model.ReferralBonus) error {
	query := `
		INSERT INTO referral_bonuses (user_id, invited_user_id, bonus_month_given_date)
		VALUES ($1, $2, $3)
		RETURNING id`

	return tx.QueryRowContext(ctx, query,
		bonus.UserID,
		bonus.InvitedUserID,
		bonus.BonusMonthGivenDate,
	).Scan(&bonus.ID)
}

// HasReferralBonusTx reports whether the inviter was already credited for
// this invitee. An invitee earns the inviter at most one bonus, no matter how
// many times the subscription is cancelled and re-activated.
func (r *Repository) HasReferralBonusTx(ctx context.Context, tx *sqlx.Tx, userID, invitedUserID int64) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM referral_bonuses WHERE user_id = $1 AND invited_user_id = $2)",
		userID, invitedUserID,
	)
	return exists, err
}

func (r *Repository) GetUserReferralBonuses(ctx context.Context, userID int64) ([]model.ReferralBonus, error) {
	var bonuses []model.ReferralBonus
	query := "SELECT * FROM referral_bonuses WHERE user_id = $1 ORDER BY bonus_month_given_date DESC"
	err := r.db.SelectContext(ctx, &bonuses, query, userID)
	return bonuses, err
}

func (r *Repository) CountUserReferrals(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM referral_bonuses WHERE user_id = $1", userID)
	return count, err
}
