package model

import "time"

type ReferralBonus struct {
	ID                  int64     `json:"id" db:"id"`
	UserID              int64     `json:"user_id" db:"user_id"`
	InvitedUserID       int64     `json:"invited_user_id" db:"invited_user_id"`
	BonusMonthGivenDate time.Time `json:"bonus_month_given_date" db:"bonus_month_given_date"`
}
