package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/kpp-all/drip-bot/internal/delivery"
)

// NewContactHandler handles the phone-proof event carried by a shared
// contact.
func NewContactHandler(controller *delivery.Controller, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil || c.Message() == nil {
			log.Warn("contact handler invoked without message context")
			return nil
		}

		contact := c.Message().Contact
		if contact == nil || contact.PhoneNumber == "" {
			log.Warn("contact message without a phone number", slog.Int64("chat_id", c.Sender().ID))
			return nil
		}

		return controller.HandlePhoneProof(context.Background(), c.Sender().ID, contact.PhoneNumber)
	}
}
