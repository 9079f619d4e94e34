package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/kpp-all/drip-bot/internal/i18n"
)

// NewHelpHandler replies with a short usage note and the admin contact.
func NewHelpHandler(tr i18n.Translator, adminContact string, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("help handler invoked without sender")
			return nil
		}

		return c.Send(tr.Tf("help.text", adminContact))
	}
}
