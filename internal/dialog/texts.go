package dialog

import (
	"fmt"
	"strconv"
	"time"

	"github.com/vegasatr/OtpuskPass-bot/internal/config"
)

var monthNamesRU = map[time.Month]string{
	time.January:   "Январь",
	time.February:  "Февраль",
	time.March:     "Март",
	time.April:     "Апрель",
	time.May:       "Май",
	time.June:      "Июнь",
	time.July:      "Июль",
	time.August:    "Август",
	time.September: "Сентябрь",
	time.October:   "Октябрь",
	time.November:  "Ноябрь",
	time.December:  "Декабрь",
}

// thailandCities is the fixed set of destinations offered by the service.
var thailandCities = []string{"Пхукет", "Бангкок", "Паттайя", "Самуи", "Пхи-Пхи", "Краби"}

const welcomeText = `Добро пожаловать в OtpuskPass_bot!

Ваша ежемесячная подписка на отпуск теперь доступна прямо в Telegram. Забудьте о долгих поисках и высоких ценах: мы предлагаем вам эксклюзивный доступ к односпальным квартирам бизнес-класса в Таиланде.

Как это работает:

• Всего 3 000 руб. в месяц — и на ваш счет поступает одна ночь отпуска.
• Накопите минимум 7 ночей и отправляйтесь в незабываемое путешествие.
• Мы гарантируем комфорт и качество: все квартиры для размещения в прекрасном состоянии, в хороших локациях и напрямую от собственников.
• Ищете еще больше выгоды? Приглашайте друзей оформить подписку и получайте бесплатные месяцы за каждого нового участника!
• Оплата подписки удобно производится в криптовалюте TON.

OtpuskPass_bot — ваш пропуск в мир беззаботного отдыха, где каждая подписка приближает вас к отпуску мечты.`

const (
	enterNameText = "Для оформления подписки введите Имя и Фамилию в формате:\nИван Иванов"

	invalidNameText = "Пожалуйста, введите имя и фамилию через пробел.\nНапример: Иван Иванов"

	supportText = "Ошибка: платёжный сервис не настроен. Пожалуйста, свяжитесь с поддержкой."

	paymentNotFoundText = "Ошибка: платеж не найден"

	paymentPendingText = "Оплата еще не получена. Пожалуйста, проверьте статус позже."

	paymentRetryText = "Произошла ошибка при активации подписки. Пожалуйста, попробуйте позже."

	paymentDoneText = "Оплата подтверждена! Ваша подписка активирована.\n\nТеперь вы можете накапливать ночи для вашего отпуска."

	cancelledText = "Подписка отменена."

	askQuestionText = "Пожалуйста, задайте свой вопрос. Я постараюсь на него ответить или свяжу вас с поддержкой."

	offerQuestionsText = "У вас остались вопросы?"

	planLaterText = "У вас остались вопросы? Если вы готовы, предлагаем оформить подписку."

	notAvailableText = "В разработке..."

	genericErrorText = "Произошла ошибка при обработке запроса. Пожалуйста, попробуйте позже или начните сначала с команды /start"
)

// nearestAvailableDate is the earliest date a freshly subscribed user could
// have accumulated the minimum vacation nights.
func nearestAvailableDate(now time.Time) time.Time {
	return now.AddDate(0, 0, 30*config.MinNightsForVacation)
}

func planPromptText(now time.Time) string {
	return fmt.Sprintf(
		"Когда вы планируете свой отпуск?\n\nБлижайшая доступная дата для %d ночей: %s",
		config.MinNightsForVacation,
		nearestAvailableDate(now).Format("02.01.2006"),
	)
}

func monthPromptText(now time.Time) string {
	nearest := nearestAvailableDate(now)
	return fmt.Sprintf(
		"На какой месяц планируете в отпуск в Таиланде? Ближайший доступный месяц - %s %d года.",
		monthNamesRU[nearest.Month()],
		nearest.Year(),
	)
}

func cityPromptText(monthName string) string {
	return fmt.Sprintf(
		"Отлично, %s - прекрасный месяц для поездки в Таиланд. В каком городе вы хотели бы отдохнуть? На стоимость подписки это не влияет, поэтому выбирайте по душе!",
		monthName,
	)
}

func citySearchingText(city string) string {
	return fmt.Sprintf("Вы выбрали город: %s. Теперь я подберу для вас квартиру. Минуточку...", city)
}

func apartmentMissingText(city string) string {
	return fmt.Sprintf(
		"Извините, для города %s базовая квартира пока не найдена. Пожалуйста, попробуйте другой город или обратитесь в поддержку.",
		city,
	)
}

func paymentInstructionsText(firstName string, amountTON float64, address string) string {
	return fmt.Sprintf(`Отлично, %s!

Для активации подписки необходимо оплатить %.2f TON

Инструкция по оплате:
1. Откройте ваш TON кошелек
2. Отправьте %.2f TON на адрес:
%s

После подтверждения платежа, ваша подписка будет активирована автоматически.
Срок действия счета: 24 часа`, firstName, amountTON, amountTON, address)
}

func planMenu() [][]Button {
	return [][]Button{{
		{Text: "ДАТА", Action: ActionPlanDate},
		{Text: "ОПРЕДЕЛЮСЬ ПОЗЖЕ", Action: ActionPlanLater},
	}}
}

// monthMenu lays out the 12 forward-looking months in rows of three,
// starting with the month after now. Months are stepped from the first of
// the current month: AddDate on a month-end date normalizes (Jan 31 + 1
// month is Mar 3) and would skip a month.
func monthMenu(now time.Time) [][]Button {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var buttons []Button
	for i := 1; i <= 12; i++ {
		m := first.AddDate(0, i, 0)
		buttons = append(buttons, Button{
			Text:   fmt.Sprintf("%s %d", monthNamesRU[m.Month()], m.Year()),
			Action: actionMonthPrefix + strconv.Itoa(int(m.Month())),
		})
	}

	var menu [][]Button
	for i := 0; i < len(buttons); i += 3 {
		menu = append(menu, buttons[i:i+3])
	}
	menu = append(menu, []Button{{Text: "Вернуться назад", Action: ActionBackToMain}})
	return menu
}

// cityMenu lays out the six cities in rows of two.
func cityMenu() [][]Button {
	var menu [][]Button
	for i := 0; i < len(thailandCities); i += 2 {
		row := []Button{{Text: thailandCities[i], Action: actionCityPrefix + thailandCities[i]}}
		if i+1 < len(thailandCities) {
			row = append(row, Button{Text: thailandCities[i+1], Action: actionCityPrefix + thailandCities[i+1]})
		}
		menu = append(menu, row)
	}
	menu = append(menu, []Button{{Text: "Вернуться назад", Action: ActionBackToMonth}})
	return menu
}

func offerMenu() [][]Button {
	return [][]Button{
		{{Text: "Оформить подписку", Action: ActionSubscribe}},
		{{Text: "Задать вопрос", Action: ActionAskQuestion}},
		{{Text: "Вернуться в начало", Action: ActionStartOver}},
	}
}

func paymentMenu() [][]Button {
	return [][]Button{
		{{Text: "Проверить статус оплаты", Action: ActionCheckPay}},
		{{Text: "Отменить", Action: ActionCancel}},
	}
}
