package model

import (
	"time"
)

type UserRole string

const (
	UserRoleMember UserRole = "user"
	UserRoleOwner  UserRole = "owner"
	UserRoleAdmin  UserRole = "admin"
)

type User struct {
	ID               int64     `json:"id" db:"id"`
	TelegramID       int64     `json:"telegram_id" db:"telegram_id"`
	FirstName        string    `json:"first_name" db:"first_name"`
	LastName         string    `json:"last_name" db:"last_name"`
	Status           string    `json:"status" db:"status"`
	CurrentNights    int       `json:"current_nights" db:"current_nights"`
	ReferralCode     *string   `json:"referral_code,omitempty" db:"referral_code"`
	ReferrerID       *int64    `json:"referrer_id,omitempty" db:"referrer_id"`
	Role             UserRole  `json:"role" db:"role"`
	RegistrationDate time.Time `json:"registration_date" db:"registration_date"`
}

type UserWithSubscription struct {
	User
	Subscription *Subscription `json:"subscription,omitempty"`
}
