package delivery

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/kpp-all/drip-bot/internal/bot/keyboard"
	errors "github.com/kpp-all/drip-bot/internal/errors"
)

// TelegramTransport implements Transport over telebot. Content units are
// relayed as protected copies from the source channel so that learners
// cannot forward or save them.
type TelegramTransport struct {
	bot       *telebot.Bot
	channelID int64
	kb        *keyboard.Builder
	log       *slog.Logger
}

var _ Transport = (*TelegramTransport)(nil)

// NewTelegramTransport builds the transport for the given source channel.
func NewTelegramTransport(bot *telebot.Bot, channelID int64, kb *keyboard.Builder, log *slog.Logger) *TelegramTransport {
	if log == nil {
		log = slog.Default()
	}

	return &TelegramTransport{
		bot:       bot,
		channelID: channelID,
		kb:        kb,
		log:       log,
	}
}

func (t *TelegramTransport) SendMessage(ctx context.Context, chatID int64, text string, buttons ...Button) error {
	opts := []interface{}{t.kb.Remove()}
	if len(buttons) > 0 {
		opts = []interface{}{t.inlineMarkup(buttons)}
	}

	if _, err := t.bot.Send(telebot.ChatID(chatID), text, opts...); err != nil {
		return errors.NewTelegramError(err)
	}

	return nil
}

func (t *TelegramTransport) SendProtectedContent(ctx context.Context, chatID int64, messageID string, buttons ...Button) error {
	source := telebot.StoredMessage{
		MessageID: messageID,
		ChatID:    t.channelID,
	}

	opts := &telebot.SendOptions{
		Protected:   true,
		ReplyMarkup: t.inlineMarkup(buttons),
	}

	if _, err := t.bot.Copy(telebot.ChatID(chatID), source, opts); err != nil {
		t.log.Error("failed to copy protected content",
			slog.Int64("chat_id", chatID),
			slog.String("message_id", messageID),
			slog.Any("error", err),
		)
		return errors.NewTelegramError(err)
	}

	return nil
}

func (t *TelegramTransport) PromptForPhoneProof(ctx context.Context, chatID int64, text, buttonText string) error {
	if _, err := t.bot.Send(telebot.ChatID(chatID), text, t.kb.ContactRequest(buttonText)); err != nil {
		return errors.NewTelegramError(err)
	}

	return nil
}

func (t *TelegramTransport) inlineMarkup(buttons []Button) *telebot.ReplyMarkup {
	if len(buttons) == 0 {
		return nil
	}

	row := make([]keyboard.InlineButton, 0, len(buttons))
	for _, btn := range buttons {
		row = append(row, keyboard.InlineButton{Text: btn.Text, Data: btn.Data})
	}

	return t.kb.Inline(row)
}
