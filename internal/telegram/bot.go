package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/vegasatr/OtpuskPass-bot/internal/config"
	"github.com/vegasatr/OtpuskPass-bot/internal/dialog"
)

// Bot is a thin telebot transport over the dialogue router: it turns
// incoming updates into dialogue events and renders router output back
// through the telebot context.
type Bot struct {
	bot    *tele.Bot
	cfg    *config.Config
	router *dialog.Router
}

func NewBot(cfg *config.Config, router *dialog.Router) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Telegram.BotToken,
		Poller: &tele.LongPoller{Timeout: 60 * time.Second},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:    bot,
		cfg:    cfg,
		router: router,
	}

	b.registerHandlers()

	return b, nil
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle(tele.OnCallback, b.handleCallback)
	b.bot.Handle(tele.OnText, b.handleText)
}

func (b *Bot) StartPolling(ctx context.Context) {
	go func() {
		<-ctx.Done()
		b.bot.Stop()
	}()
	b.bot.Start()
}

func (b *Bot) GetBotUsername() string {
	return b.bot.Me.Username
}

func (b *Bot) handleStart(c tele.Context) error {
	ev := dialog.Start()
	if payload := c.Message().Payload; strings.HasPrefix(payload, "ref_") {
		ev = dialog.StartWithCode(strings.TrimPrefix(payload, "ref_"))
	}

	conv := &teleConversation{ctx: c}
	b.router.HandleEvent(context.Background(), c.Sender().ID, ev, conv)
	return nil
}

func (b *Bot) handleCallback(c tele.Context) error {
	// telebot prefixes raw callback data with \f
	action := strings.TrimPrefix(c.Callback().Data, "\f")

	conv := &teleConversation{ctx: c}
	b.router.HandleEvent(context.Background(), c.Sender().ID, dialog.Action(action), conv)

	// Acknowledge the callback to clear the loading state, unless the
	// router already responded with an alert.
	if !conv.answered {
		_ = c.Respond()
	}
	return nil
}

func (b *Bot) handleText(c tele.Context) error {
	conv := &teleConversation{ctx: c}
	b.router.HandleEvent(context.Background(), c.Sender().ID, dialog.Text(c.Text()), conv)
	return nil
}

// teleConversation adapts a single telebot update context to the
// dialogue router's output interface.
type teleConversation struct {
	ctx      tele.Context
	answered bool
}

func (c *teleConversation) Send(text string, menu [][]dialog.Button) error {
	if kb := buildKeyboard(menu); kb != nil {
		return c.ctx.Send(text, kb)
	}
	return c.ctx.Send(text)
}

func (c *teleConversation) Edit(text string, menu [][]dialog.Button) error {
	// Outside a callback there is no message to edit, so degrade to a
	// fresh message.
	if c.ctx.Callback() == nil {
		return c.Send(text, menu)
	}
	if kb := buildKeyboard(menu); kb != nil {
		return c.ctx.Edit(text, kb)
	}
	return c.ctx.Edit(text)
}

func (c *teleConversation) Answer(text string) error {
	if c.ctx.Callback() == nil {
		return c.ctx.Send(text)
	}
	c.answered = true
	return c.ctx.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
}

func (c *teleConversation) SendVideo(fileID, caption string) error {
	video := &tele.Video{
		File:    tele.File{FileID: fileID},
		Caption: caption,
	}
	return c.ctx.Send(video)
}

func (c *teleConversation) Typing() error {
	return c.ctx.Notify(tele.Typing)
}

func buildKeyboard(menu [][]dialog.Button) *tele.ReplyMarkup {
	if len(menu) == 0 {
		return nil
	}

	keyboard := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(menu))
	for _, row := range menu {
		btns := make([]tele.Btn, 0, len(row))
		for _, btn := range row {
			btns = append(btns, keyboard.Data(btn.Text, btn.Action))
		}
		rows = append(rows, keyboard.Row(btns...))
	}
	keyboard.Inline(rows...)
	return keyboard
}
