package keyboard

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"
)

// InlineButton is a lightweight inline keyboard button definition.
type InlineButton struct {
	Text string
	Data string
}

// Builder creates the reply markups the course bot uses.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger) *Builder {
	return &Builder{log: log}
}

// Inline renders rows of inline buttons.
func (b *Builder) Inline(rows ...[]InlineButton) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = make([][]telebot.InlineButton, 0, len(rows))

	for _, row := range rows {
		if len(row) == 0 {
			continue
		}

		rendered := make([]telebot.InlineButton, 0, len(row))
		for _, btn := range row {
			rendered = append(rendered, telebot.InlineButton{
				Text: btn.Text,
				Data: btn.Data,
			})
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, rendered)
	}

	return markup
}

// ContactRequest builds the one-time reply keyboard that asks the user to
// share their contact for phone proof.
func (b *Builder) ContactRequest(buttonText string) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
	markup.ReplyKeyboard = [][]telebot.ReplyButton{
		{
			{
				Text:    buttonText,
				Contact: true,
			},
		},
	}
	return markup
}

// Remove clears a previously sent reply keyboard.
func (b *Builder) Remove() *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{RemoveKeyboard: true}
}
