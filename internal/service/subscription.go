package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vegasatr/OtpuskPass-bot/internal/config"
	"github.com/vegasatr/OtpuskPass-bot/internal/model"
	"github.com/vegasatr/OtpuskPass-bot/internal/repository"
)

// SubscriptionStore is the slice of the repository the subscription service
// needs. Satisfied by *repository.Repository.
type SubscriptionStore interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	GetUserByReferralCode(ctx context.Context, code string) (*model.User, error)
	UpsertUserTx(ctx context.Context, tx *sqlx.Tx, user *model.User) error
	GetActiveSubscription(ctx context.Context, userID int64) (*model.Subscription, error)
	GetActiveSubscriptionTx(ctx context.Context, tx *sqlx.Tx, userID int64) (*model.Subscription, error)
	CreateSubscriptionTx(ctx context.Context, tx *sqlx.Tx, sub *model.Subscription) error
	HasReferralBonusTx(ctx context.Context, tx *sqlx.Tx, userID, invitedUserID int64) (bool, error)
	CreateReferralBonusTx(ctx context.Context, tx *sqlx.Tx, bonus *model.ReferralBonus) error
	CreatePaymentTx(ctx context.Context, tx *sqlx.Tx, payment *model.Payment) error
	CreatePaymentTransactionTx(ctx context.Context, tx *sqlx.Tx, pt *model.PaymentTransaction) error
	GetSubscriptionTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Subscription, error)
	UpdatePaymentStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.PaymentStatus) error
	AddSubscriptionNightsTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, nights int) error
	AddUserNightsTx(ctx context.Context, tx *sqlx.Tx, userID int64, nights int) error
}

type SubscriptionService struct {
	repo SubscriptionStore
}

func NewSubscriptionService(repo SubscriptionStore) *SubscriptionService {
	return &SubscriptionService{repo: repo}
}

// ActivateParams carries everything captured during the dialogue that is
// needed to activate a subscription once the payment is confirmed.
type ActivateParams struct {
	TelegramID int64
	FirstName  string
	LastName   string
	AmountTON  float64
	TONAddress string
	TxHash     *string
	// ReferralCode is the inviter's code from the start deep link, if any.
	ReferralCode string
}

// Activate records a confirmed payment: the user is upserted by telegram_id,
// exactly one active subscription is ensured, and one completed payment row
// plus an audit record are written. All of it happens in one transaction so
// a repeated status check never half-applies.
func (s *SubscriptionService) Activate(ctx context.Context, params ActivateParams) (*model.Subscription, error) {
	var result *model.Subscription

	// Resolve the inviter outside the write transaction; a dead code is
	// simply ignored.
	var referrerID *int64
	if params.ReferralCode != "" {
		referrer, err := s.repo.GetUserByReferralCode(ctx, params.ReferralCode)
		if err == nil && referrer.TelegramID != params.TelegramID {
			referrerID = &referrer.ID
		}
	}

	err := s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		code := generateReferralCode(referralCodeLength)
		user := &model.User{
			TelegramID:   params.TelegramID,
			FirstName:    params.FirstName,
			LastName:     params.LastName,
			Status:       "active",
			Role:         model.UserRoleMember,
			ReferralCode: &code,
			ReferrerID:   referrerID,
		}
		if err := s.repo.UpsertUserTx(ctx, tx, user); err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}

		subCreated := false
		sub, err := s.repo.GetActiveSubscriptionTx(ctx, tx, user.ID)
		if err != nil {
			if !errors.Is(err, repository.ErrSubscriptionNotFound) {
				return err
			}
			sub = &model.Subscription{
				UserID:    user.ID,
				StartDate: time.Now().UTC(),
				Status:    model.SubscriptionStatusActive,
				AmountRUB: config.SubscriptionPriceRUB,
				AmountTON: params.AmountTON,
			}
			if err := s.repo.CreateSubscriptionTx(ctx, tx, sub); err != nil {
				return fmt.Errorf("failed to create subscription: %w", err)
			}
			subCreated = true
		}

		// The inviter earns a bonus once, on the invitee's first
		// activation. A cancel-and-resubscribe creates a new
		// subscription but must not credit the inviter again.
		if subCreated && user.ReferrerID != nil {
			credited, err := s.repo.HasReferralBonusTx(ctx, tx, *user.ReferrerID, user.ID)
			if err != nil {
				return fmt.Errorf("failed to check referral bonus: %w", err)
			}
			if !credited {
				bonus := &model.ReferralBonus{
					UserID:              *user.ReferrerID,
					InvitedUserID:       user.ID,
					BonusMonthGivenDate: time.Now().UTC(),
				}
				if err := s.repo.CreateReferralBonusTx(ctx, tx, bonus); err != nil {
					return fmt.Errorf("failed to create referral bonus: %w", err)
				}
			}
		}

		now := time.Now().UTC()
		payment := &model.Payment{
			SubscriptionID: sub.ID,
			AmountTON:      params.AmountTON,
			Status:         model.PaymentStatusCompleted,
			TONAddress:     params.TONAddress,
			CompletedAt:    &now,
		}
		if err := s.repo.CreatePaymentTx(ctx, tx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		audit := &model.PaymentTransaction{
			UserID:          user.ID,
			AmountRUB:       config.SubscriptionPriceRUB,
			AmountTON:       params.AmountTON,
			TransactionHash: params.TxHash,
			Status:          string(model.PaymentStatusCompleted),
			Type:            model.TransactionTypeSubscription,
		}
		if err := s.repo.CreatePaymentTransactionTx(ctx, tx, audit); err != nil {
			return fmt.Errorf("failed to create payment transaction: %w", err)
		}

		result = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CompletePayment marks a confirmed payment completed and credits one paid
// night to the subscription and its owner, all in one transaction. On any
// error the payment stays pending so the next scan retries it.
func (s *SubscriptionService) CompletePayment(ctx context.Context, paymentID, subscriptionID uuid.UUID) error {
	return s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		sub, err := s.repo.GetSubscriptionTx(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}

		if err := s.repo.UpdatePaymentStatusTx(ctx, tx, paymentID, model.PaymentStatusCompleted); err != nil {
			return fmt.Errorf("failed to update payment status: %w", err)
		}
		if err := s.repo.AddSubscriptionNightsTx(ctx, tx, subscriptionID, 1); err != nil {
			return fmt.Errorf("failed to add subscription night: %w", err)
		}
		if err := s.repo.AddUserNightsTx(ctx, tx, sub.UserID, 1); err != nil {
			return fmt.Errorf("failed to add user night: %w", err)
		}
		return nil
	})
}

func (s *SubscriptionService) GetActiveSubscription(ctx context.Context, userID int64) (*model.Subscription, error) {
	return s.repo.GetActiveSubscription(ctx, userID)
}
