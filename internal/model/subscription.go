package model

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

type Subscription struct {
	ID                uuid.UUID          `json:"id" db:"id"`
	UserID            int64              `json:"user_id" db:"user_id"`
	StartDate         time.Time          `json:"start_date" db:"start_date"`
	Status            SubscriptionStatus `json:"status" db:"status"`
	AccumulatedNights int                `json:"accumulated_nights" db:"accumulated_nights"`
	AmountRUB         float64            `json:"amount_rub" db:"amount_rub"`
	AmountTON         float64            `json:"amount_ton" db:"amount_ton"`
	CreatedAt         time.Time          `json:"created_at" db:"created_at"`
}

func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// NextPaymentDate returns the date the next monthly payment is due.
func (s *Subscription) NextPaymentDate() time.Time {
	return s.StartDate.AddDate(0, 0, 30)
}
