package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/kpp-all/drip-bot/internal/delivery"
)

// NewStartHandler handles the entry event: a bound identity resumes the
// course, an unbound one is prompted for phone proof.
func NewStartHandler(controller *delivery.Controller, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("start handler invoked without sender")
			return nil
		}

		return controller.HandleStart(context.Background(), c.Sender().ID)
	}
}
