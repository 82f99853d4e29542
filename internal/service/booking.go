package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vegasatr/OtpuskPass-bot/internal/config"
	"github.com/vegasatr/OtpuskPass-bot/internal/model"
	"github.com/vegasatr/OtpuskPass-bot/internal/repository"
)

var (
	ErrInvalidBookingDates = errors.New("бронирование должно длиться не менее 7 ночей")
	ErrNotEnoughNights     = errors.New("недостаточно накопленных ночей для бронирования")
	ErrNoActiveSub         = errors.New("для бронирования нужна активная подписка")
)

// BookingService books accumulated nights against catalog apartments.
type BookingService struct {
	repo *repository.Repository
}

func NewBookingService(repo *repository.Repository) *BookingService {
	return &BookingService{repo: repo}
}

type BookingParams struct {
	TelegramID  int64
	ApartmentID int64
	StartDate   time.Time
	EndDate     time.Time
}

// Book reserves an apartment for the date range, spending the user's
// accumulated nights. The night deduction and the booking row are written
// in one transaction.
func (s *BookingService) Book(ctx context.Context, params BookingParams) (*model.Booking, error) {
	nights, err := validateBookingDates(params.StartDate, params.EndDate, config.MinNightsForVacation)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByTelegramID(ctx, params.TelegramID)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.GetActiveSubscription(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return nil, ErrNoActiveSub
		}
		return nil, err
	}
	if !sub.IsActive() {
		return nil, ErrNoActiveSub
	}

	if user.CurrentNights < nights {
		return nil, ErrNotEnoughNights
	}

	if _, err := s.repo.GetApartment(ctx, params.ApartmentID); err != nil {
		return nil, err
	}

	booking := &model.Booking{
		UserID:      user.ID,
		ApartmentID: params.ApartmentID,
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		NightsUsed:  nights,
		Status:      "pending",
	}

	err = s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.CreateBookingTx(ctx, tx, booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return s.repo.AddUserNightsTx(ctx, tx, user.ID, -nights)
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) GetUserBookings(ctx context.Context, telegramID int64) ([]model.Booking, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetUserBookings(ctx, user.ID)
}

// validateBookingDates checks the date range and returns the night count.
func validateBookingDates(start, end time.Time, minNights int) (int, error) {
	if !start.Before(end) {
		return 0, ErrInvalidBookingDates
	}
	nights := int(end.Sub(start).Hours() / 24)
	if nights < minNights {
		return 0, ErrInvalidBookingDates
	}
	return nights, nil
}
