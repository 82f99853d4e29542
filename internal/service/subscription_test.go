package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasatr/OtpuskPass-bot/internal/model"
	"github.com/vegasatr/OtpuskPass-bot/internal/repository"
)

// fakeSubStore mimics the repository at the level the subscription service
// sees it: WithTx runs the callback directly and records whether the whole
// unit committed or rolled back.
type fakeSubStore struct {
	usersByCode map[string]*model.User
	storedUser  *model.User
	activeSub   *model.Subscription
	completeSub *model.Subscription
	hasBonus    bool

	userNightsErr error

	bonuses       []model.ReferralBonus
	subs          []model.Subscription
	payments      []model.Payment
	audits        []model.PaymentTransaction
	statusUpdates []uuid.UUID
	subNights     int
	userNights    int
	committed     bool
	rolledBack    bool
}

func (f *fakeSubStore) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if err := fn(nil); err != nil {
		f.rolledBack = true
		return err
	}
	f.committed = true
	return nil
}

func (f *fakeSubStore) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	if user, ok := f.usersByCode[code]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeSubStore) UpsertUserTx(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	if f.storedUser != nil {
		// Conflict path: the stored referral identity wins, as the
		// upsert only refreshes the name fields.
		user.ID = f.storedUser.ID
		user.ReferralCode = f.storedUser.ReferralCode
		user.ReferrerID = f.storedUser.ReferrerID
		user.CurrentNights = f.storedUser.CurrentNights
		return nil
	}
	user.ID = 101
	return nil
}

func (f *fakeSubStore) GetActiveSubscription(ctx context.Context, userID int64) (*model.Subscription, error) {
	if f.activeSub != nil {
		return f.activeSub, nil
	}
	return nil, repository.ErrSubscriptionNotFound
}

func (f *fakeSubStore) GetActiveSubscriptionTx(ctx context.Context, tx *sqlx.Tx, userID int64) (*model.Subscription, error) {
	return f.GetActiveSubscription(ctx, userID)
}

func (f *fakeSubStore) CreateSubscriptionTx(ctx context.Context, tx *sqlx.Tx, sub *model.Subscription) error {
	sub.ID = uuid.New()
	f.subs = append(f.subs, *sub)
	return nil
}

func (f *fakeSubStore) HasReferralBonusTx(ctx context.Context, tx *sqlx.Tx, userID, invitedUserID int64) (bool, error) {
	return f.hasBonus, nil
}

func (f *fakeSubStore) CreateReferralBonusTx(ctx context.Context, tx *sqlx.Tx, bonus *model.ReferralBonus) error {
	f.bonuses = append(f.bonuses, *bonus)
	return nil
}

func (f *fakeSubStore) CreatePaymentTx(ctx context.Context, tx *sqlx.Tx, payment *model.Payment) error {
	payment.ID = uuid.New()
	f.payments = append(f.payments, *payment)
	return nil
}

func (f *fakeSubStore) CreatePaymentTransactionTx(ctx context.Context, tx *sqlx.Tx, pt *model.PaymentTransaction) error {
	f.audits = append(f.audits, *pt)
	return nil
}

func (f *fakeSubStore) GetSubscriptionTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Subscription, error) {
	if f.completeSub != nil {
		return f.completeSub, nil
	}
	return nil, repository.ErrSubscriptionNotFound
}

func (f *fakeSubStore) UpdatePaymentStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.PaymentStatus) error {
	f.statusUpdates = append(f.statusUpdates, id)
	return nil
}

func (f *fakeSubStore) AddSubscriptionNightsTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, nights int) error {
	f.subNights += nights
	return nil
}

func (f *fakeSubStore) AddUserNightsTx(ctx context.Context, tx *sqlx.Tx, userID int64, nights int) error {
	if f.userNightsErr != nil {
		return f.userNightsErr
	}
	f.userNights += nights
	return nil
}

func intPtr(v int64) *int64 { return &v }

func TestSubscriptionService_ActivateCreditsReferrerOnFirstActivation(t *testing.T) {
	store := &fakeSubStore{
		usersByCode: map[string]*model.User{
			"FRIEND42": {ID: 7, TelegramID: 555},
		},
	}
	svc := NewSubscriptionService(store)

	sub, err := svc.Activate(context.Background(), ActivateParams{
		TelegramID:   42,
		FirstName:    "Иван",
		LastName:     "Иванов",
		AmountTON:    13.3,
		TONAddress:   "EQDx",
		ReferralCode: "FRIEND42",
	})
	require.NoError(t, err)
	require.NotNil(t, sub)

	require.Len(t, store.bonuses, 1)
	assert.Equal(t, int64(7), store.bonuses[0].UserID)
	assert.Equal(t, int64(101), store.bonuses[0].InvitedUserID)
	assert.Len(t, store.subs, 1)
	assert.Len(t, store.payments, 1)
	assert.Len(t, store.audits, 1)
	assert.True(t, store.committed)
}

func TestSubscriptionService_ReactivationDoesNotCreditReferrerTwice(t *testing.T) {
	// The invitee cancelled and comes back: a fresh subscription is
	// created, but the inviter was already credited once.
	store := &fakeSubStore{
		storedUser: &model.User{ID: 101, TelegramID: 42, ReferrerID: intPtr(7)},
		hasBonus:   true,
	}
	svc := NewSubscriptionService(store)

	sub, err := svc.Activate(context.Background(), ActivateParams{
		TelegramID: 42,
		FirstName:  "Иван",
		LastName:   "Иванов",
		AmountTON:  13.3,
		TONAddress: "EQDx",
	})
	require.NoError(t, err)
	require.NotNil(t, sub)

	assert.Len(t, store.subs, 1, "re-activation creates a new subscription")
	assert.Empty(t, store.bonuses, "the inviter must not be credited again")
}

func TestSubscriptionService_ActivateIgnoresSelfReferral(t *testing.T) {
	store := &fakeSubStore{
		usersByCode: map[string]*model.User{
			"MYOWNCODE": {ID: 101, TelegramID: 42},
		},
	}
	svc := NewSubscriptionService(store)

	_, err := svc.Activate(context.Background(), ActivateParams{
		TelegramID:   42,
		FirstName:    "Иван",
		LastName:     "Иванов",
		AmountTON:    13.3,
		TONAddress:   "EQDx",
		ReferralCode: "MYOWNCODE",
	})
	require.NoError(t, err)

	assert.Empty(t, store.bonuses)
}

func TestSubscriptionService_ActivateKeepsExistingActiveSubscription(t *testing.T) {
	active := &model.Subscription{ID: uuid.New(), UserID: 101, Status: model.SubscriptionStatusActive}
	store := &fakeSubStore{
		storedUser: &model.User{ID: 101, TelegramID: 42, ReferrerID: intPtr(7)},
		activeSub:  active,
	}
	svc := NewSubscriptionService(store)

	sub, err := svc.Activate(context.Background(), ActivateParams{
		TelegramID: 42,
		FirstName:  "Иван",
		LastName:   "Иванов",
		AmountTON:  13.3,
		TONAddress: "EQDx",
	})
	require.NoError(t, err)

	assert.Equal(t, active.ID, sub.ID)
	assert.Empty(t, store.subs, "no second active subscription")
	assert.Empty(t, store.bonuses)
	assert.Len(t, store.payments, 1)
}

func TestSubscriptionService_CompletePaymentCreditsBothNightCounters(t *testing.T) {
	subID := uuid.New()
	store := &fakeSubStore{
		completeSub: &model.Subscription{ID: subID, UserID: 101, Status: model.SubscriptionStatusActive},
	}
	svc := NewSubscriptionService(store)

	paymentID := uuid.New()
	err := svc.CompletePayment(context.Background(), paymentID, subID)
	require.NoError(t, err)

	require.Len(t, store.statusUpdates, 1)
	assert.Equal(t, paymentID, store.statusUpdates[0])
	assert.Equal(t, 1, store.subNights)
	assert.Equal(t, 1, store.userNights)
	assert.True(t, store.committed)
}

func TestSubscriptionService_CompletePaymentRollsBackWhenAccrualFails(t *testing.T) {
	subID := uuid.New()
	store := &fakeSubStore{
		completeSub:   &model.Subscription{ID: subID, UserID: 101, Status: model.SubscriptionStatusActive},
		userNightsErr: errors.New("db down"),
	}
	svc := NewSubscriptionService(store)

	err := svc.CompletePayment(context.Background(), uuid.New(), subID)
	require.Error(t, err)

	// Status flip and accrual live in one transaction: neither survives.
	assert.True(t, store.rolledBack)
	assert.False(t, store.committed)
}
