// Package delivery orchestrates one inbound event end to end: resolve the
// identity, authorize it, run the progression decision, and instruct the
// transport.
package delivery

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"

	"github.com/kpp-all/drip-bot/internal/domain"
	errors "github.com/kpp-all/drip-bot/internal/errors"
	"github.com/kpp-all/drip-bot/internal/i18n"
	"github.com/kpp-all/drip-bot/internal/progression"
	"github.com/kpp-all/drip-bot/internal/repository"
)

// Button is one inline action attached to an outgoing message.
type Button struct {
	Text string
	Data string
}

// Transport is the chat-transport collaborator the controller instructs. The
// controller owns no retry policy for delivery failures beyond one
// user-visible error notice.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, buttons ...Button) error
	// SendProtectedContent relays a protected, non-forwardable copy of the
	// referenced source-channel message.
	SendProtectedContent(ctx context.Context, chatID int64, messageID string, buttons ...Button) error
	// PromptForPhoneProof asks the user to share their contact.
	PromptForPhoneProof(ctx context.Context, chatID int64, text, buttonText string) error
}

// Controller handles one inbound event per call. It keeps no state between
// events; the store is re-read every time so that operator edits and blocks
// take effect immediately.
type Controller struct {
	repo         repository.EnrollmentRepository
	engine       *progression.Engine
	locker       progression.Locker
	transport    Transport
	tr           i18n.Translator
	errHandler   *errors.Handler
	adminContact string
	log          *slog.Logger
}

// NewController wires the controller's collaborators.
func NewController(
	repo repository.EnrollmentRepository,
	engine *progression.Engine,
	locker progression.Locker,
	transport Transport,
	tr i18n.Translator,
	errHandler *errors.Handler,
	adminContact string,
	log *slog.Logger,
) *Controller {
	if log == nil {
		log = slog.Default()
	}

	return &Controller{
		repo:         repo,
		engine:       engine,
		locker:       locker,
		transport:    transport,
		tr:           tr,
		errHandler:   errHandler,
		adminContact: adminContact,
		log:          log,
	}
}

// HandleStart processes an entry event.
func (c *Controller) HandleStart(ctx context.Context, chatID int64) error {
	enrollment, err := c.repo.FindByIdentity(ctx, chatID)
	if err != nil {
		if stdErrors.Is(err, domain.ErrNotEnrolled) {
			return c.transport.PromptForPhoneProof(ctx, chatID, c.tr.T("auth.prompt"), c.tr.T("auth.button"))
		}
		return c.notifyFailure(ctx, chatID, err)
	}

	if enrollment.Blocked() {
		return c.transport.SendMessage(ctx, chatID, c.tr.T("course.blocked"))
	}

	day := enrollment.ResumeDay()
	if err := c.transport.SendMessage(ctx, chatID, c.tr.Tf("course.welcome_back", day)); err != nil {
		return err
	}

	return c.progress(ctx, chatID, day, 1)
}

// HandlePhoneProof processes a phone-proof event.
func (c *Controller) HandlePhoneProof(ctx context.Context, chatID int64, phone string) error {
	result, err := c.repo.AuthorizeByPhone(ctx, phone, chatID)
	if err != nil {
		return c.notifyFailure(ctx, chatID, err)
	}

	switch result {
	case AuthBlocked:
		return c.transport.SendMessage(ctx, chatID, c.tr.T("auth.blocked"))
	case AuthNotFound:
		return c.transport.SendMessage(ctx, chatID, c.tr.Tf("auth.not_found", c.adminContact))
	}

	if err := c.transport.SendMessage(ctx, chatID, c.tr.T("auth.success")); err != nil {
		return err
	}

	return c.progress(ctx, chatID, 1, 1)
}

// HandleContinue processes a continue/advance event carrying the (day, step)
// the confirming button was keyed to.
func (c *Controller) HandleContinue(ctx context.Context, chatID int64, day, step int) error {
	return c.progress(ctx, chatID, day, step)
}

// progress runs one decision-plus-write under the identity's lock and
// renders exactly one outcome.
func (c *Controller) progress(ctx context.Context, chatID int64, day, step int) error {
	release, err := c.locker.Acquire(ctx, chatID)
	if err != nil {
		if stdErrors.Is(err, progression.ErrIdentityLocked) {
			// a concurrent tap is already being served; swallow this one
			c.log.Info("dropping concurrent event", slog.Int64("chat_id", chatID))
			return nil
		}
		return c.notifyFailure(ctx, chatID, err)
	}
	defer release()

	// re-read inside the lock so the decision always sees fresh state
	enrollment, err := c.repo.FindByIdentity(ctx, chatID)
	if err != nil && !stdErrors.Is(err, domain.ErrNotEnrolled) {
		return c.notifyFailure(ctx, chatID, err)
	}

	decision, err := c.engine.Decide(ctx, enrollment, day, step)
	if err != nil {
		return c.notifyFailure(ctx, chatID, err)
	}

	return c.render(ctx, chatID, decision)
}

func (c *Controller) render(ctx context.Context, chatID int64, decision *progression.Decision) error {
	switch decision.Outcome {
	case progression.OutcomeRequireAuthorization:
		return c.transport.PromptForPhoneProof(ctx, chatID, c.tr.T("auth.prompt"), c.tr.T("auth.button"))

	case progression.OutcomeDenied:
		return c.transport.SendMessage(ctx, chatID, c.tr.T("course.restricted"))

	case progression.OutcomeDeliver:
		unit := decision.Unit
		next := Button{
			Text: c.tr.T("course.next_button"),
			Data: ContinueCallback(unit.Day, unit.Step+1),
		}
		return c.transport.SendProtectedContent(ctx, chatID, unit.MessageID, next)

	case progression.OutcomeDayReady:
		start := Button{
			Text: c.tr.Tf("course.start_day_button", decision.NextDay),
			Data: ContinueCallback(decision.NextDay, 1),
		}
		return c.transport.SendMessage(ctx, chatID, c.tr.Tf("course.day_done", decision.NextDay-1), start)

	case progression.OutcomeDailyLimit:
		return c.transport.SendMessage(ctx, chatID, c.tr.T("course.daily_limit"))

	case progression.OutcomeCourseComplete:
		return c.transport.SendMessage(ctx, chatID, c.tr.T("course.complete"))

	default:
		return errors.NewProgressionError(fmt.Sprintf("unhandled progression outcome %q", decision.Outcome))
	}
}

// notifyFailure converts an internal failure into its single user-visible
// notice. The error is consumed here; nothing propagates past the
// controller.
func (c *Controller) notifyFailure(ctx context.Context, chatID int64, err error) error {
	userMsg := c.tr.T("error.generic")
	if c.errHandler != nil {
		if msg, _ := c.errHandler.Handle(ctx, err); msg != "" {
			userMsg = msg
		}
	}

	if sendErr := c.transport.SendMessage(ctx, chatID, userMsg); sendErr != nil {
		c.log.Error("failed to deliver error notice", slog.Int64("chat_id", chatID), slog.Any("error", sendErr))
	}

	return nil
}

// Re-exported authorization results keep handler code free of repository
// imports.
const (
	AuthSuccess  = repository.AuthSuccess
	AuthBlocked  = repository.AuthBlocked
	AuthNotFound = repository.AuthNotFound
)
