package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type Payment struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	SubscriptionID uuid.UUID     `json:"subscription_id" db:"subscription_id"`
	AmountTON      float64       `json:"amount_ton" db:"amount_ton"`
	Status         PaymentStatus `json:"status" db:"status"`
	TONAddress     string        `json:"ton_address" db:"ton_address"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
}

type TransactionType string

const (
	TransactionTypeSubscription TransactionType = "subscription"
)

// PaymentTransaction is an append-only audit record of money movement,
// written alongside the authoritative payments table.
type PaymentTransaction struct {
	ID              int64           `json:"id" db:"id"`
	UserID          int64           `json:"user_id" db:"user_id"`
	AmountRUB       float64         `json:"amount_rub" db:"amount_rub"`
	AmountTON       float64         `json:"amount_ton" db:"amount_ton"`
	TransactionHash *string         `json:"transaction_hash,omitempty" db:"transaction_hash"`
	Status          string          `json:"status" db:"status"`
	Type            TransactionType `json:"type" db:"type"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}
