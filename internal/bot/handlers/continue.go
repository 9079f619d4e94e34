package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/kpp-all/drip-bot/internal/delivery"
)

// NewContinueHandler handles the confirming tap on a "next" button, carrying
// the (day, step) the button was keyed to.
func NewContinueHandler(controller *delivery.Controller, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		callback := c.Callback()
		if callback == nil || c.Sender() == nil {
			log.Warn("continue handler invoked without callback context")
			return nil
		}

		// acknowledge the tap so the client stops its spinner
		_ = c.Respond(&telebot.CallbackResponse{})

		day, step, err := delivery.ParseContinueCallback(callback.Data)
		if err != nil {
			log.Warn("dropping malformed continue callback",
				slog.Int64("chat_id", c.Sender().ID),
				slog.String("data", callback.Data),
			)
			return nil
		}

		return controller.HandleContinue(context.Background(), c.Sender().ID, day, step)
	}
}
