package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kpp-all/drip-bot/internal/catalog"
	"github.com/kpp-all/drip-bot/internal/delivery"
	apperrors "github.com/kpp-all/drip-bot/internal/errors"
	"github.com/kpp-all/drip-bot/internal/i18n"
	"github.com/kpp-all/drip-bot/internal/repository"
	"github.com/kpp-all/drip-bot/pkg/metrics"
)

// DailyReminderHandler nudges active learners whose next day exists toward
// it. Learners who already consumed today's gate are left alone. The
// registry stores no step position, so the nudge cannot distinguish a
// learner mid-day from one who finished their current day earlier.
type DailyReminderHandler struct {
	repo      repository.EnrollmentRepository
	catalog   catalog.Catalog
	transport delivery.Transport
	tr        i18n.Translator
	log       *slog.Logger
	now       func() time.Time
}

func NewDailyReminderHandler(
	repo repository.EnrollmentRepository,
	cat catalog.Catalog,
	transport delivery.Transport,
	tr i18n.Translator,
	log *slog.Logger,
) *DailyReminderHandler {
	if log == nil {
		log = slog.Default()
	}

	return &DailyReminderHandler{
		repo:      repo,
		catalog:   cat,
		transport: transport,
		tr:        tr,
		log:       log,
		now:       time.Now,
	}
}

func (h *DailyReminderHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	enrollments, err := h.repo.ListActive(ctx)
	if err != nil {
		h.log.ErrorContext(ctx, "daily reminder: failed to load roster", slog.Any("error", err))
		if apperrors.IsStoreUnavailable(err) {
			return err
		}
		// anything but store trouble will not heal on a requeue
		return fmt.Errorf("daily reminder: %w: %w", asynq.SkipRetry, err)
	}

	metrics.SetActiveEnrollments(len(enrollments))

	today := h.now()
	sent := 0

	for _, enrollment := range enrollments {
		if enrollment.CompletedOn(today) {
			continue
		}

		nextDay := enrollment.CurrentDay + 1
		if enrollment.CurrentDay == 0 {
			nextDay = 1
		}

		exists, err := h.catalog.DayExists(ctx, nextDay)
		if err != nil {
			h.log.WarnContext(ctx, "daily reminder: catalog lookup failed",
				slog.Int("day", nextDay), slog.Any("error", err))
			continue
		}
		if !exists {
			continue
		}

		button := delivery.Button{
			Text: h.tr.Tf("course.start_day_button", nextDay),
			Data: delivery.ContinueCallback(nextDay, 1),
		}

		if err := h.transport.SendMessage(ctx, enrollment.ChatID, h.tr.T("reminder.next_day"), button); err != nil {
			h.log.WarnContext(ctx, "daily reminder: send failed",
				slog.Int64("chat_id", enrollment.ChatID), slog.Any("error", err))
			continue
		}

		sent++
	}

	h.log.InfoContext(ctx, "daily reminder: completed",
		slog.Int("active", len(enrollments)), slog.Int("sent", sent))

	return nil
}
