package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/kpp-all/drip-bot/internal/bot/handlers"
	"github.com/kpp-all/drip-bot/internal/delivery"
	errors "github.com/kpp-all/drip-bot/internal/errors"
	"github.com/kpp-all/drip-bot/internal/i18n"
	"github.com/kpp-all/drip-bot/internal/idempotency"
	"github.com/kpp-all/drip-bot/internal/middleware"
	"github.com/kpp-all/drip-bot/pkg/config"
)

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot            *telebot.Bot
	log                *slog.Logger
	cfg                config.Config
	controller         *delivery.Controller
	tr                 i18n.Translator
	rateLimitMw        *middleware.RateLimitMiddleware
	router             *Router
	errHandler         *errors.Handler
	idempotencyManager idempotency.Manager
}

// New builds a telegram bot instance configured according to the application settings.
func New(
	cfg config.Config,
	log *slog.Logger,
	tb *telebot.Bot,
	controller *delivery.Controller,
	tr i18n.Translator,
	errHandler *errors.Handler,
	idempotencyManager idempotency.Manager,
	rateLimitMw *middleware.RateLimitMiddleware,
) (*Bot, error) {
	if tb == nil {
		return nil, fmt.Errorf("telebot instance is required")
	}
	if controller == nil {
		return nil, fmt.Errorf("delivery controller is required")
	}

	router := NewRouter(log)

	b := &Bot{
		telebot:            tb,
		log:                log,
		cfg:                cfg,
		controller:         controller,
		tr:                 tr,
		rateLimitMw:        rateLimitMw,
		router:             router,
		errHandler:         errHandler,
		idempotencyManager: idempotencyManager,
	}

	b.setupRouter()

	if b.rateLimitMw != nil {
		b.telebot.Use(b.rateLimitMw.Handle)
	}

	b.registerTelebotHandlers()

	return b, nil
}

// NewTelebot constructs the underlying telebot instance for the configured mode.
func NewTelebot(cfg config.Config) (*telebot.Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Bot.WebhookListen,
			Endpoint: &telebot.WebhookEndpoint{
				PublicURL: cfg.Bot.WebhookURL,
			},
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	return tb, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	if b.log != nil {
		b.log.Info("stopping telegram bot...")
	}

	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter() {
	if b.router == nil {
		return
	}

	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(middleware.Idempotency(b.idempotencyManager, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(middleware.Metrics)

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(b.controller, b.log))
	b.router.RegisterCommand(CommandHelp, handlers.NewHelpHandler(b.tr, b.cfg.Bot.AdminContact, b.log))
	b.router.RegisterCallback(delivery.ContinuePrefix, handlers.NewContinueHandler(b.controller, b.log))
	b.router.RegisterContact(handlers.NewContactHandler(b.controller, b.log))
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
	b.telebot.Handle(telebot.OnContact, b.router.Route)
}
