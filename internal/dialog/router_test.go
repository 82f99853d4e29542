package dialog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasatr/OtpuskPass-bot/internal/model"
	"github.com/vegasatr/OtpuskPass-bot/internal/repository"
	"github.com/vegasatr/OtpuskPass-bot/internal/service"
	"github.com/vegasatr/OtpuskPass-bot/internal/session"
	"github.com/vegasatr/OtpuskPass-bot/internal/ton"
)

type sentMsg struct {
	op     string
	text   string
	fileID string
	menu   [][]Button
}

type fakeConv struct {
	msgs []sentMsg
}

func (c *fakeConv) Send(text string, menu [][]Button) error {
	c.msgs = append(c.msgs, sentMsg{op: "send", text: text, menu: menu})
	return nil
}

func (c *fakeConv) Edit(text string, menu [][]Button) error {
	c.msgs = append(c.msgs, sentMsg{op: "edit", text: text, menu: menu})
	return nil
}

func (c *fakeConv) Answer(text string) error {
	c.msgs = append(c.msgs, sentMsg{op: "answer", text: text})
	return nil
}

func (c *fakeConv) SendVideo(fileID, caption string) error {
	c.msgs = append(c.msgs, sentMsg{op: "video", text: caption, fileID: fileID})
	return nil
}

func (c *fakeConv) Typing() error { return nil }

func (c *fakeConv) last() sentMsg {
	if len(c.msgs) == 0 {
		return sentMsg{}
	}
	return c.msgs[len(c.msgs)-1]
}

func (c *fakeConv) ops() []string {
	var ops []string
	for _, m := range c.msgs {
		ops = append(ops, m.op)
	}
	return ops
}

type fakeCatalog struct {
	apartments map[string]*model.Apartment
	lookups    int
}

func (f *fakeCatalog) GetBaseApartment(_ context.Context, city string) (*model.Apartment, error) {
	f.lookups++
	if apt, ok := f.apartments[city]; ok {
		return apt, nil
	}
	return nil, repository.ErrApartmentNotFound
}

type fakeActivator struct {
	calls []service.ActivateParams
	err   error
}

func (f *fakeActivator) Activate(_ context.Context, params service.ActivateParams) (*model.Subscription, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Subscription{Status: model.SubscriptionStatusActive}, nil
}

type fixture struct {
	router    *Router
	sessions  session.Store
	catalog   *fakeCatalog
	payments  *ton.StubClient
	activator *fakeActivator
}

func newFixture() *fixture {
	sessions := session.NewMemoryStore()
	catalog := &fakeCatalog{apartments: make(map[string]*model.Apartment)}
	payments := ton.NewStubClient()
	activator := &fakeActivator{}
	return &fixture{
		router:    NewRouter(sessions, catalog, payments, activator),
		sessions:  sessions,
		catalog:   catalog,
		payments:  payments,
		activator: activator,
	}
}

const chatID = int64(777000)

func TestRouter_StartSendsWelcomeAndPlanPrompt(t *testing.T) {
	f := newFixture()
	conv := &fakeConv{}

	f.router.HandleEvent(context.Background(), chatID, Start(), conv)

	require.Len(t, conv.msgs, 2)
	assert.Contains(t, conv.msgs[0].text, "Добро пожаловать в OtpuskPass_bot")
	assert.Contains(t, conv.msgs[1].text, "Когда вы планируете свой отпуск?")
	require.Len(t, conv.msgs[1].menu, 1)
	assert.Len(t, conv.msgs[1].menu[0], 2)
}

func TestRouter_StartResetsSession(t *testing.T) {
	f := newFixture()
	f.sessions.Set(chatID, session.Data{Stage: session.StageAwaitingPayment, PaymentAddress: "EQDx"})

	f.router.HandleEvent(context.Background(), chatID, Start(), &fakeConv{})

	assert.Equal(t, session.StageIdle, f.sessions.Get(chatID).Stage)
}

func TestRouter_MonthMenuHasTwelveMonthsInRowsOfThree(t *testing.T) {
	f := newFixture()
	conv := &fakeConv{}

	f.router.HandleEvent(context.Background(), chatID, Action(ActionPlanDate), conv)

	last := conv.last()
	assert.Equal(t, "edit", last.op)
	// 4 rows of 3 months plus a back row.
	require.Len(t, last.menu, 5)
	for _, row := range last.menu[:4] {
		assert.Len(t, row, 3)
	}
	assert.Equal(t, ActionBackToMain, last.menu[4][0].Action)
}

func TestRouter_MonthSelectionShowsSixCitiesInRowsOfTwo(t *testing.T) {
	f := newFixture()
	conv := &fakeConv{}

	f.router.HandleEvent(context.Background(), chatID, Action("month_3"), conv)

	last := conv.last()
	assert.Equal(t, "edit", last.op)
	assert.Contains(t, last.text, "Март")
	// 3 rows of 2 cities plus a back row.
	require.Len(t, last.menu, 4)
	for _, row := range last.menu[:3] {
		assert.Len(t, row, 2)
	}
	assert.Equal(t, ActionBackToMonth, last.menu[3][0].Action)
}

func TestRouter_CityWithoutListingRepromptsCities(t *testing.T) {
	f := newFixture()
	conv := &fakeConv{}

	f.router.HandleEvent(context.Background(), chatID, Action("city_Краби"), conv)

	assert.Equal(t, []string{"edit", "send", "send"}, conv.ops())
	assert.Contains(t, conv.msgs[1].text, "базовая квартира пока не найдена")
	// The last message re-prompts city selection.
	require.Len(t, conv.last().menu, 4)
	// And no video was sent.
	for _, m := range conv.msgs {
		assert.NotEqual(t, "video", m.op)
	}
}

func TestRouter_CityWithListingSendsVideoOfferAndMenu(t *testing.T) {
	f := newFixture()
	videoID := "BAADvideo123"
	f.catalog.apartments["Пхукет"] = &model.Apartment{
		City:              "Пхукет",
		ApartmentType:     model.ApartmentTypeBase,
		Address:           "Патонг, ул. Пляжная 5",
		Description:       "Светлая квартира с видом на море",
		Features:          "Кондиционер, Wi-Fi",
		NearbyAttractions: "Пляж Патонг",
		VideoFileID:       &videoID,
		AreaSqm:           50,
		NumBedrooms:       1,
	}
	conv := &fakeConv{}

	f.router.HandleEvent(context.Background(), chatID, Action("city_Пхукет"), conv)

	require.Equal(t, []string{"edit", "video", "send", "send"}, conv.ops())
	assert.Equal(t, videoID, conv.msgs[1].fileID)
	assert.Contains(t, conv.msgs[2].text, "Квартира в Пхукет")
	require.Len(t, conv.last().menu, 3)
	assert.Equal(t, ActionSubscribe, conv.last().menu[0][0].Action)
}

func TestRouter_CityListingWithoutVideoSkipsVideo(t *testing.T) {
	f := newFixture()
	f.catalog.apartments["Самуи"] = &model.Apartment{City: "Самуи", ApartmentType: model.ApartmentTypeBase}
	conv := &fakeConv{}

	f.router.HandleEvent(context.Background(), chatID, Action("city_Самуи"), conv)

	assert.Equal(t, []string{"edit", "send", "send"}, conv.ops())
}

func TestRouter_SubscribeMovesToAwaitingName(t *testing.T) {
	f := newFixture()
	conv := &fakeConv{}

	f.router.HandleEvent(context.Background(), chatID, Action(ActionSubscribe), conv)

	assert.Equal(t, session.StageAwaitingName, f.sessions.Get(chatID).Stage)
	assert.Contains(t, conv.last().text, "введите Имя и Фамилию")
}

func TestRouter_ValidNameProducesQuoteAndAwaitsPayment(t *testing.T) {
	f := newFixture()
	f.sessions.Set(chatID, session.Data{Stage: session.StageAwaitingName})
	conv := &fakeConv{}

	f.router.HandleEvent(context.Background(), chatID, Text("Иван Иванов"), conv)

	data := f.sessions.Get(chatID)
	assert.Equal(t, session.StageAwaitingPayment, data.Stage)
	assert.NotEmpty(t, data.PaymentAddress)
	assert.Greater(t, data.AmountTON, 0.0)
	assert.Equal(t, "Иван", data.FirstName)
	assert.Equal(t, "Иванов", data.LastName)

	last := conv.last()
	assert.Equal(t, "send", last.op)
	assert.Contains(t, last.text, "Отлично, Иван!")
	assert.Contains(t, last.text, data.PaymentAddress)
	require.Len(t, last.menu, 2)
	assert.Equal(t, ActionCheckPay, last.menu[0][0].Action)
	assert.Equal(t, ActionCancel, last.menu[1][0].Action)
}

func TestRouter_MalformedNamesAreRejectedWithoutAdvancing(t *testing.T) {
	for _, input := range []string{"Иван", "", "Иван Иванович Иванов", "   "} {
		t.Run(input, func(t *testing.T) {
			f := newFixture()
			f.sessions.Set(chatID, session.Data{Stage: session.StageAwaitingName})
			conv := &fakeConv{}

			f.router.HandleEvent(context.Background(), chatID, Text(input), conv)

			data := f.sessions.Get(chatID)
			assert.Equal(t, session.StageAwaitingName, data.Stage)
			assert.Empty(t, data.PaymentAddress)
			assert.Contains(t, conv.last().text, "введите имя и фамилию через пробел")
		})
	}
}

func TestRouter_TextOutsideAwaitingNameIsIgnored(t *testing.T) {
	f := newFixture()
	conv := &fakeConv{}

	f.router.HandleEvent(context.Background(), chatID, Text("Иван Иванов"), conv)

	assert.Empty(t, conv.msgs)
	assert.Equal(t, session.StageIdle, f.sessions.Get(chatID).Stage)
}

func TestRouter_CheckPaymentWithoutAddressNeverTouchesStore(t *testing.T) {
	f := newFixture()
	conv := &fakeConv{}

	f.router.HandleEvent(context.Background(), chatID, Action(ActionCheckPay), conv)

	assert.Equal(t, "answer", conv.last().op)
	assert.Equal(t, paymentNotFoundText, conv.last().text)
	assert.Empty(t, f.activator.calls)
	assert.Zero(t, f.catalog.lookups)
}

func TestRouter_CheckPaymentPendingLeavesEverythingUnchanged(t *testing.T) {
	f := newFixture()
	f.sessions.Set(chatID, session.Data{
		Stage:          session.StageAwaitingPayment,
		FirstName:      "Иван",
		LastName:       "Иванов",
		PaymentAddress: "EQDx",
		AmountTON:      13.3,
	})
	conv := &fakeConv{}

	f.router.HandleEvent(context.Background(), chatID, Action(ActionCheckPay), conv)

	assert.Equal(t, "answer", conv.last().op)
	assert.Equal(t, paymentPendingText, conv.last().text)
	assert.Empty(t, f.activator.calls)
	assert.Equal(t, session.StageAwaitingPayment, f.sessions.Get(chatID).Stage)
}

func TestRouter_CheckPaymentCompletedActivatesAndClearsSession(t *testing.T) {
	f := newFixture()
	f.payments.StatusValue = model.PaymentStatusCompleted
	f.sessions.Set(chatID, session.Data{
		Stage:          session.StageAwaitingPayment,
		FirstName:      "Иван",
		LastName:       "Иванов",
		PaymentAddress: "EQDx",
		AmountTON:      13.3,
	})
	conv := &fakeConv{}

	f.router.HandleEvent(context.Background(), chatID, Action(ActionCheckPay), conv)

	require.Len(t, f.activator.calls, 1)
	call := f.activator.calls[0]
	assert.Equal(t, chatID, call.TelegramID)
	assert.Equal(t, "Иван", call.FirstName)
	assert.Equal(t, "Иванов", call.LastName)
	assert.Equal(t, "EQDx", call.TONAddress)
	assert.InDelta(t, 13.3, call.AmountTON, 1e-9)

	assert.Equal(t, session.StageIdle, f.sessions.Get(chatID).Stage)
	assert.Equal(t, "edit", conv.last().op)
	assert.Contains(t, conv.last().text, "Оплата подтверждена")
}

func TestRouter_ActivationFailurePreservesSessionForRetry(t *testing.T) {
	f := newFixture()
	f.payments.StatusValue = model.PaymentStatusCompleted
	f.activator.err = errors.New("db down")
	f.sessions.Set(chatID, session.Data{
		Stage:          session.StageAwaitingPayment,
		FirstName:      "Иван",
		LastName:       "Иванов",
		PaymentAddress: "EQDx",
		AmountTON:      13.3,
	})
	conv := &fakeConv{}

	f.router.HandleEvent(context.Background(), chatID, Action(ActionCheckPay), conv)

	assert.Equal(t, paymentRetryText, conv.last().text)
	data := f.sessions.Get(chatID)
	assert.Equal(t, session.StageAwaitingPayment, data.Stage)
	assert.Equal(t, "EQDx", data.PaymentAddress)

	// A retry succeeds without re-entering the name.
	f.activator.err = nil
	f.router.HandleEvent(context.Background(), chatID, Action(ActionCheckPay), conv)

	require.Len(t, f.activator.calls, 2)
	assert.Equal(t, session.StageIdle, f.sessions.Get(chatID).Stage)
}

func TestRouter_QuoteFailureClearsSessionAndPointsToSupport(t *testing.T) {
	f := newFixture()
	broken := ton.NewWalletClient("", time.Hour, nil, nil) // no wallet configured
	f.router = NewRouter(f.sessions, f.catalog, broken, f.activator)
	f.sessions.Set(chatID, session.Data{Stage: session.StageAwaitingName})
	conv := &fakeConv{}

	f.router.HandleEvent(context.Background(), chatID, Text("Иван Иванов"), conv)

	assert.Equal(t, supportText, conv.last().text)
	assert.Equal(t, session.StageIdle, f.sessions.Get(chatID).Stage)
}

func TestRouter_CancelClearsSessionFromAnyStage(t *testing.T) {
	for _, stage := range []session.Stage{session.StageIdle, session.StageAwaitingName, session.StageAwaitingPayment} {
		t.Run(string(stage), func(t *testing.T) {
			f := newFixture()
			f.sessions.Set(chatID, session.Data{Stage: stage, PaymentAddress: "EQDx"})
			conv := &fakeConv{}

			f.router.HandleEvent(context.Background(), chatID, Action(ActionCancel), conv)

			assert.Equal(t, session.StageIdle, f.sessions.Get(chatID).Stage)
			assert.Equal(t, cancelledText, conv.last().text)
		})
	}
}

func TestRouter_UnknownActionGetsVisibleAcknowledgment(t *testing.T) {
	f := newFixture()
	conv := &fakeConv{}

	f.router.HandleEvent(context.Background(), chatID, Action("mystery_button"), conv)

	assert.Equal(t, "answer", conv.last().op)
	assert.Equal(t, notAvailableText, conv.last().text)
}

func TestRouter_ReferralCodeSurvivesUntilActivation(t *testing.T) {
	f := newFixture()
	f.payments.StatusValue = model.PaymentStatusCompleted
	ctx := context.Background()

	f.router.HandleEvent(ctx, chatID, StartWithCode("FRIEND42"), &fakeConv{})
	f.router.HandleEvent(ctx, chatID, Action(ActionSubscribe), &fakeConv{})
	f.router.HandleEvent(ctx, chatID, Text("Иван Иванов"), &fakeConv{})
	f.router.HandleEvent(ctx, chatID, Action(ActionCheckPay), &fakeConv{})

	require.Len(t, f.activator.calls, 1)
	assert.Equal(t, "FRIEND42", f.activator.calls[0].ReferralCode)
}

func TestRouter_PlainStartCarriesNoReferralCode(t *testing.T) {
	f := newFixture()

	f.router.HandleEvent(context.Background(), chatID, Start(), &fakeConv{})

	assert.Empty(t, f.sessions.Get(chatID).ReferralCode)
}

// The end-to-end walk from /start to a pending payment check.
func TestRouter_FullSubscriptionScenario(t *testing.T) {
	f := newFixture()
	videoID := "BAADphuket"
	f.catalog.apartments["Пхукет"] = &model.Apartment{
		City:          "Пхукет",
		ApartmentType: model.ApartmentTypeBase,
		Address:       "Патонг",
		VideoFileID:   &videoID,
		AreaSqm:       50,
		NumBedrooms:   1,
	}
	ctx := context.Background()

	conv := &fakeConv{}
	f.router.HandleEvent(ctx, chatID, Start(), conv)
	require.Len(t, conv.msgs, 2)

	conv = &fakeConv{}
	f.router.HandleEvent(ctx, chatID, Action(ActionPlanDate), conv)
	require.Len(t, conv.last().menu, 5)

	conv = &fakeConv{}
	f.router.HandleEvent(ctx, chatID, Action("month_3"), conv)
	require.Len(t, conv.last().menu, 4)

	conv = &fakeConv{}
	f.router.HandleEvent(ctx, chatID, Action("city_Пхукет"), conv)
	require.Equal(t, []string{"edit", "video", "send", "send"}, conv.ops())

	conv = &fakeConv{}
	f.router.HandleEvent(ctx, chatID, Action(ActionSubscribe), conv)
	require.Equal(t, session.StageAwaitingName, f.sessions.Get(chatID).Stage)

	conv = &fakeConv{}
	f.router.HandleEvent(ctx, chatID, Text("Ivan Ivanov"), conv)
	data := f.sessions.Get(chatID)
	require.Equal(t, session.StageAwaitingPayment, data.Stage)
	require.NotEmpty(t, data.PaymentAddress)
	require.Greater(t, data.AmountTON, 0.0)

	// Stub always answers pending: the session must stay intact.
	conv = &fakeConv{}
	f.router.HandleEvent(ctx, chatID, Action(ActionCheckPay), conv)
	assert.Equal(t, paymentPendingText, conv.last().text)
	assert.Equal(t, data, f.sessions.Get(chatID))
	assert.Empty(t, f.activator.calls)
}
