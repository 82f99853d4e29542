// Package dialog implements the subscription dialogue: a deterministic
// mapping from (session stage, inbound event) to outbound messages and the
// next stage. It is transport-free; the telegram package feeds it events.
package dialog

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/vegasatr/OtpuskPass-bot/internal/config"
	"github.com/vegasatr/OtpuskPass-bot/internal/model"
	"github.com/vegasatr/OtpuskPass-bot/internal/repository"
	"github.com/vegasatr/OtpuskPass-bot/internal/service"
	"github.com/vegasatr/OtpuskPass-bot/internal/session"
	"github.com/vegasatr/OtpuskPass-bot/internal/ton"
)

// Catalog is the listing lookup the offer step needs.
type Catalog interface {
	GetBaseApartment(ctx context.Context, city string) (*model.Apartment, error)
}

// Activator persists a confirmed subscription activation atomically.
type Activator interface {
	Activate(ctx context.Context, params service.ActivateParams) (*model.Subscription, error)
}

type Router struct {
	sessions session.Store
	catalog  Catalog
	payments ton.Client
	activate Activator
}

func NewRouter(sessions session.Store, catalog Catalog, payments ton.Client, activate Activator) *Router {
	return &Router{
		sessions: sessions,
		catalog:  catalog,
		payments: payments,
		activate: activate,
	}
}

// HandleEvent dispatches one inbound event for a conversation. It never
// propagates an error or panic to the caller: failures are logged with the
// chat id, event tag and stage, and the user gets a generic apology.
func (r *Router) HandleEvent(ctx context.Context, chatID int64, ev Event, conv Conversation) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[Dialog] Panic handling event chat=%d action=%q kind=%d: %v", chatID, ev.Action, ev.Kind, p)
			_ = conv.Send(genericErrorText, nil)
		}
	}()

	if err := r.dispatch(ctx, chatID, ev, conv); err != nil {
		stage := r.sessions.Get(chatID).Stage
		log.Printf("[Dialog] Error handling event chat=%d action=%q kind=%d stage=%s: %v", chatID, ev.Action, ev.Kind, stage, err)
		_ = conv.Send(genericErrorText, nil)
	}
}

func (r *Router) dispatch(ctx context.Context, chatID int64, ev Event, conv Conversation) error {
	switch ev.Kind {
	case EventStart:
		return r.handleStart(chatID, ev.Text, conv)
	case EventText:
		return r.handleText(ctx, chatID, ev.Text, conv)
	case EventAction:
		return r.handleAction(ctx, chatID, ev.Action, conv)
	}
	return conv.Answer(notAvailableText)
}

func (r *Router) handleStart(chatID int64, referralCode string, conv Conversation) error {
	r.sessions.Clear(chatID)
	if referralCode != "" {
		r.sessions.Set(chatID, session.Data{Stage: session.StageIdle, ReferralCode: referralCode})
	}

	if err := conv.Send(welcomeText, nil); err != nil {
		return err
	}
	return conv.Send(planPromptText(time.Now()), planMenu())
}

func (r *Router) handleAction(ctx context.Context, chatID int64, action string, conv Conversation) error {
	switch {
	case action == ActionPlanDate, action == ActionBackToMonth:
		return conv.Edit(monthPromptText(time.Now()), monthMenu(time.Now()))

	case action == ActionBackToMain:
		return conv.Edit(planPromptText(time.Now()), planMenu())

	case strings.HasPrefix(action, actionMonthPrefix):
		return r.handleMonth(action, conv)

	case strings.HasPrefix(action, actionCityPrefix):
		return r.handleCity(ctx, strings.TrimPrefix(action, actionCityPrefix), conv)

	case action == ActionPlanLater:
		return conv.Edit(planLaterText, offerMenu())

	case action == ActionSubscribe:
		data := r.sessions.Get(chatID)
		data.Stage = session.StageAwaitingName
		r.sessions.Set(chatID, data)
		return conv.Edit(enterNameText, nil)

	case action == ActionAskQuestion:
		return conv.Edit(askQuestionText, nil)

	case action == ActionStartOver:
		return r.handleStart(chatID, r.sessions.Get(chatID).ReferralCode, conv)

	case action == ActionCheckPay:
		return r.handleCheckPayment(ctx, chatID, conv)

	case action == ActionCancel:
		r.sessions.Clear(chatID)
		return conv.Edit(cancelledText, nil)

	default:
		log.Printf("[Dialog] Unknown action %q from chat %d", action, chatID)
		return conv.Answer(notAvailableText)
	}
}

func (r *Router) handleMonth(action string, conv Conversation) error {
	n, err := strconv.Atoi(strings.TrimPrefix(action, actionMonthPrefix))
	if err != nil || n < 1 || n > 12 {
		return conv.Answer(notAvailableText)
	}
	return conv.Edit(cityPromptText(monthNamesRU[time.Month(n)]), cityMenu())
}

func (r *Router) handleCity(ctx context.Context, city string, conv Conversation) error {
	if err := conv.Edit(citySearchingText(city), nil); err != nil {
		return err
	}
	_ = conv.Typing()

	apt, err := r.catalog.GetBaseApartment(ctx, city)
	if err != nil {
		if errors.Is(err, repository.ErrApartmentNotFound) {
			log.Printf("[Dialog] No base apartment for city %q", city)
			if err := conv.Send(apartmentMissingText(city), nil); err != nil {
				return err
			}
			return conv.Send(cityPromptText("выбранный месяц"), cityMenu())
		}
		return err
	}

	if apt.VideoFileID != nil && *apt.VideoFileID != "" {
		// A broken video must not block the offer itself.
		if err := conv.SendVideo(*apt.VideoFileID, "Видео-тур по квартире:"); err != nil {
			log.Printf("[Dialog] Failed to send video for city %q: %v", city, err)
		}
	}

	offer := "На эти даты есть прекрасная квартира бизнес-класса в " + apt.City + ".\n\n" + apt.FormatInfo()
	if err := conv.Send(offer, nil); err != nil {
		return err
	}
	return conv.Send(offerQuestionsText, offerMenu())
}

func (r *Router) handleText(ctx context.Context, chatID int64, text string, conv Conversation) error {
	data := r.sessions.Get(chatID)
	if data.Stage != session.StageAwaitingName {
		return nil
	}

	parts := strings.Fields(text)
	if len(parts) != 2 {
		// Strict by design: exactly "Имя Фамилия", nothing else.
		return conv.Send(invalidNameText, nil)
	}
	firstName, lastName := parts[0], parts[1]

	quote, err := r.payments.Quote(ctx, config.SubscriptionPriceRUB)
	if err != nil {
		log.Printf("[Dialog] Quote failed for chat %d: %v", chatID, err)
		r.sessions.Clear(chatID)
		return conv.Send(supportText, nil)
	}

	r.sessions.Set(chatID, session.Data{
		Stage:          session.StageAwaitingPayment,
		FirstName:      firstName,
		LastName:       lastName,
		PaymentAddress: quote.Address,
		AmountTON:      quote.AmountTON,
		ReferralCode:   data.ReferralCode,
	})

	return conv.Send(paymentInstructionsText(firstName, quote.AmountTON, quote.Address), paymentMenu())
}

func (r *Router) handleCheckPayment(ctx context.Context, chatID int64, conv Conversation) error {
	data := r.sessions.Get(chatID)
	if data.PaymentAddress == "" {
		log.Printf("[Dialog] Chat %d checked a payment that does not exist", chatID)
		return conv.Answer(paymentNotFoundText)
	}

	status, err := r.payments.Status(ctx, data.PaymentAddress, data.AmountTON)
	if err != nil {
		log.Printf("[Dialog] Status check failed for chat %d: %v", chatID, err)
		return conv.Answer(paymentRetryText)
	}

	if status != model.PaymentStatusCompleted {
		return conv.Answer(paymentPendingText)
	}

	_, err = r.activate.Activate(ctx, service.ActivateParams{
		TelegramID:   chatID,
		FirstName:    data.FirstName,
		LastName:     data.LastName,
		AmountTON:    data.AmountTON,
		TONAddress:   data.PaymentAddress,
		ReferralCode: data.ReferralCode,
	})
	if err != nil {
		// Session survives so a retry does not repeat name entry.
		log.Printf("[Dialog] Activation failed for chat %d stage=%s: %v", chatID, data.Stage, err)
		return conv.Answer(paymentRetryText)
	}

	r.sessions.Clear(chatID)
	return conv.Edit(paymentDoneText, nil)
}
