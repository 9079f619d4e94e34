package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpp-all/drip-bot/internal/delivery"
	apperrors "github.com/kpp-all/drip-bot/internal/errors"
	"github.com/kpp-all/drip-bot/internal/domain"
	"github.com/kpp-all/drip-bot/internal/i18n"
	"github.com/kpp-all/drip-bot/internal/jobs"
	"github.com/kpp-all/drip-bot/internal/repository"
)

type fakeRoster struct {
	enrollments []domain.Enrollment
	err         error
}

func (f *fakeRoster) FindByIdentity(ctx context.Context, chatID int64) (*domain.Enrollment, error) {
	return nil, domain.ErrNotEnrolled
}

func (f *fakeRoster) AuthorizeByPhone(ctx context.Context, phone string, chatID int64) (repository.AuthResult, error) {
	return repository.AuthNotFound, nil
}

func (f *fakeRoster) RecordProgress(ctx context.Context, enrollment *domain.Enrollment, day int) error {
	return nil
}

func (f *fakeRoster) RecordDailyCompletion(ctx context.Context, enrollment *domain.Enrollment, date time.Time) error {
	return nil
}

func (f *fakeRoster) ListActive(ctx context.Context) ([]domain.Enrollment, error) {
	return f.enrollments, f.err
}

type fakeDays struct {
	lastDay int
}

func (f *fakeDays) Resolve(ctx context.Context, day, step int) (*domain.ContentUnit, error) {
	return nil, domain.ErrRowNotFound
}

func (f *fakeDays) DayExists(ctx context.Context, day int) (bool, error) {
	return day >= 1 && day <= f.lastDay, nil
}

type sentNudge struct {
	chatID  int64
	buttons []delivery.Button
}

type fakeSender struct {
	sent []sentNudge
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID int64, text string, buttons ...delivery.Button) error {
	f.sent = append(f.sent, sentNudge{chatID: chatID, buttons: buttons})
	return nil
}

func (f *fakeSender) SendProtectedContent(ctx context.Context, chatID int64, messageID string, buttons ...delivery.Button) error {
	return nil
}

func (f *fakeSender) PromptForPhoneProof(ctx context.Context, chatID int64, text, buttonText string) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(value string) time.Time {
	parsed, _ := time.Parse(domain.DateLayout, value)
	return parsed
}

func newReminder(t *testing.T, roster *fakeRoster, days *fakeDays, sender *fakeSender) *DailyReminderHandler {
	t.Helper()

	manager, err := i18n.Load("ru")
	require.NoError(t, err)

	h := NewDailyReminderHandler(roster, days, sender, manager.Translator("ru"), testLogger())
	h.now = func() time.Time { return date("2026-08-31") }
	return h
}

func TestDailyReminder_NudgesLearnersWithOpenNextDay(t *testing.T) {
	roster := &fakeRoster{enrollments: []domain.Enrollment{
		{ChatID: 100, CurrentDay: 2, LastCompletion: date("2026-08-30")},
	}}
	sender := &fakeSender{}

	err := newReminder(t, roster, &fakeDays{lastDay: 7}, sender).ProcessTask(context.Background(), jobs.NewDailyReminderTask())

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(100), sender.sent[0].chatID)
	require.Len(t, sender.sent[0].buttons, 1)
	assert.Equal(t, "next:3:1", sender.sent[0].buttons[0].Data)
}

func TestDailyReminder_SkipsLearnersDoneToday(t *testing.T) {
	roster := &fakeRoster{enrollments: []domain.Enrollment{
		{ChatID: 100, CurrentDay: 2, LastCompletion: date("2026-08-31")},
	}}
	sender := &fakeSender{}

	err := newReminder(t, roster, &fakeDays{lastDay: 7}, sender).ProcessTask(context.Background(), jobs.NewDailyReminderTask())

	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestDailyReminder_SkipsFinishedCourses(t *testing.T) {
	roster := &fakeRoster{enrollments: []domain.Enrollment{
		{ChatID: 100, CurrentDay: 7, LastCompletion: date("2026-08-30")},
	}}
	sender := &fakeSender{}

	err := newReminder(t, roster, &fakeDays{lastDay: 7}, sender).ProcessTask(context.Background(), jobs.NewDailyReminderTask())

	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestDailyReminder_NudgesFreshEnrollmentsTowardDayOne(t *testing.T) {
	roster := &fakeRoster{enrollments: []domain.Enrollment{
		{ChatID: 200, CurrentDay: 0},
	}}
	sender := &fakeSender{}

	err := newReminder(t, roster, &fakeDays{lastDay: 7}, sender).ProcessTask(context.Background(), jobs.NewDailyReminderTask())

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "next:1:1", sender.sent[0].buttons[0].Data)
}

func TestDailyReminder_StoreFailureStaysRetryable(t *testing.T) {
	roster := &fakeRoster{err: apperrors.NewStoreUnavailableError(errors.New("network down"))}

	err := newReminder(t, roster, &fakeDays{lastDay: 7}, &fakeSender{}).ProcessTask(context.Background(), jobs.NewDailyReminderTask())

	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestDailyReminder_OtherFailuresSkipRetry(t *testing.T) {
	roster := &fakeRoster{err: errors.New("bad registry shape")}

	err := newReminder(t, roster, &fakeDays{lastDay: 7}, &fakeSender{}).ProcessTask(context.Background(), jobs.NewDailyReminderTask())

	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
