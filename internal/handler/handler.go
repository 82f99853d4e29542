package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vegasatr/OtpuskPass-bot/internal/config"
	"github.com/vegasatr/OtpuskPass-bot/internal/model"
	"github.com/vegasatr/OtpuskPass-bot/internal/repository"
	"github.com/vegasatr/OtpuskPass-bot/internal/service"
)

type Handler struct {
	cfg        *config.Config
	repo       *repository.Repository
	ratesSvc   *service.RatesService
	bookingSvc *service.BookingService
}

func New(cfg *config.Config, repo *repository.Repository, ratesSvc *service.RatesService, bookingSvc *service.BookingService) *Handler {
	return &Handler{
		cfg:        cfg,
		repo:       repo,
		ratesSvc:   ratesSvc,
		bookingSvc: bookingSvc,
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

func (h *Handler) GetRates(c *fiber.Ctx) error {
	rates, err := h.ratesSvc.GetRates(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "failed to get rates",
		})
	}

	return c.JSON(rates)
}

func (h *Handler) GetUser(c *fiber.Ctx) error {
	telegramID, err := c.ParamsInt("telegram_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid telegram_id",
		})
	}

	userWithSub, err := h.repo.GetUserWithSubscription(c.Context(), int64(telegramID))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get user",
		})
	}

	return c.JSON(userWithSub)
}

func (h *Handler) GetApartments(c *fiber.Ctx) error {
	city := c.Params("city")
	if city == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "city is required",
		})
	}

	apartments, err := h.repo.GetApartmentsByCity(c.Context(), city)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get apartments",
		})
	}

	return c.JSON(fiber.Map{
		"apartments": apartments,
		"count":      len(apartments),
	})
}

func (h *Handler) GetUserBookings(c *fiber.Ctx) error {
	telegramID, err := c.ParamsInt("telegram_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid telegram_id",
		})
	}

	bookings, err := h.bookingSvc.GetUserBookings(c.Context(), int64(telegramID))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get bookings",
		})
	}

	return c.JSON(fiber.Map{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

type createBookingRequest struct {
	TelegramID  int64     `json:"telegram_id"`
	ApartmentID int64     `json:"apartment_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

func (h *Handler) CreateBooking(c *fiber.Ctx) error {
	var req createBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	booking, err := h.bookingSvc.Book(c.Context(), service.BookingParams{
		TelegramID:  req.TelegramID,
		ApartmentID: req.ApartmentID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidBookingDates),
			errors.Is(err, service.ErrNotEnoughNights),
			errors.Is(err, service.ErrNoActiveSub):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, repository.ErrUserNotFound),
			errors.Is(err, repository.ErrApartmentNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create booking",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(booking)
}

func (h *Handler) GetBooking(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid booking id",
		})
	}

	booking, err := h.bookingSvc.GetBooking(c.Context(), int64(id))
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "booking not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get booking",
		})
	}

	return c.JSON(booking)
}

func (h *Handler) GetUserTransactions(c *fiber.Ctx) error {
	user, ok := h.userFromParams(c)
	if !ok {
		return nil
	}

	txs, err := h.repo.GetUserPaymentTransactions(c.Context(), user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get transactions",
		})
	}

	return c.JSON(fiber.Map{
		"transactions": txs,
		"count":        len(txs),
	})
}

func (h *Handler) GetUserReferrals(c *fiber.Ctx) error {
	user, ok := h.userFromParams(c)
	if !ok {
		return nil
	}

	bonuses, err := h.repo.GetUserReferralBonuses(c.Context(), user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get referrals",
		})
	}

	count, err := h.repo.CountUserReferrals(c.Context(), user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get referrals",
		})
	}

	return c.JSON(fiber.Map{
		"referral_code": user.ReferralCode,
		"count":         count,
		"bonuses":       bonuses,
	})
}

// userFromParams resolves :telegram_id and writes the error response
// itself when the lookup fails.
func (h *Handler) userFromParams(c *fiber.Ctx) (*model.User, bool) {
	telegramID, err := c.ParamsInt("telegram_id")
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid telegram_id",
		})
		return nil, false
	}

	user, err := h.repo.GetUserByTelegramID(c.Context(), int64(telegramID))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "user not found",
			})
		} else {
			_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get user",
			})
		}
		return nil, false
	}

	return user, true
}
