package delivery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpp-all/drip-bot/internal/domain"
	errors "github.com/kpp-all/drip-bot/internal/errors"
	"github.com/kpp-all/drip-bot/internal/i18n"
	"github.com/kpp-all/drip-bot/internal/progression"
	"github.com/kpp-all/drip-bot/internal/repository"
)

// fakeRepo serves a single enrollment keyed by chat identity.
type fakeRepo struct {
	enrollment *domain.Enrollment
	authResult repository.AuthResult
	authPhone  string
	findErr    error
	authErr    error
}

func (f *fakeRepo) FindByIdentity(ctx context.Context, chatID int64) (*domain.Enrollment, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.enrollment == nil || f.enrollment.ChatID != chatID {
		return nil, domain.ErrNotEnrolled
	}
	snapshot := *f.enrollment
	return &snapshot, nil
}

func (f *fakeRepo) AuthorizeByPhone(ctx context.Context, phone string, chatID int64) (repository.AuthResult, error) {
	f.authPhone = phone
	if f.authErr != nil {
		return 0, f.authErr
	}
	if f.authResult == repository.AuthSuccess && f.enrollment != nil {
		f.enrollment.ChatID = chatID
	}
	return f.authResult, nil
}

func (f *fakeRepo) RecordProgress(ctx context.Context, enrollment *domain.Enrollment, day int) error {
	enrollment.CurrentDay = day
	if f.enrollment != nil {
		f.enrollment.CurrentDay = day
	}
	return nil
}

func (f *fakeRepo) RecordDailyCompletion(ctx context.Context, enrollment *domain.Enrollment, date time.Time) error {
	enrollment.LastCompletion = date
	if f.enrollment != nil {
		f.enrollment.LastCompletion = date
	}
	return nil
}

func (f *fakeRepo) ListActive(ctx context.Context) ([]domain.Enrollment, error) {
	return nil, nil
}

// fakeCatalog holds units keyed "day:step".
type fakeCatalog struct {
	units map[string]string
}

func (f *fakeCatalog) Resolve(ctx context.Context, day, step int) (*domain.ContentUnit, error) {
	msgID, ok := f.units[fmt.Sprintf("%d:%d", day, step)]
	if !ok {
		return nil, domain.ErrRowNotFound
	}
	return &domain.ContentUnit{Day: day, Step: step, MessageID: msgID}, nil
}

func (f *fakeCatalog) DayExists(ctx context.Context, day int) (bool, error) {
	for key := range f.units {
		var d, s int
		if _, err := fmt.Sscanf(key, "%d:%d", &d, &s); err == nil && d == day {
			return true, nil
		}
	}
	return false, nil
}

type sentMessage struct {
	kind    string // "message", "content", "prompt"
	text    string
	buttons []Button
}

type fakeTransport struct {
	sent []sentMessage
}

func (f *fakeTransport) SendMessage(ctx context.Context, chatID int64, text string, buttons ...Button) error {
	f.sent = append(f.sent, sentMessage{kind: "message", text: text, buttons: buttons})
	return nil
}

func (f *fakeTransport) SendProtectedContent(ctx context.Context, chatID int64, messageID string, buttons ...Button) error {
	f.sent = append(f.sent, sentMessage{kind: "content", text: messageID, buttons: buttons})
	return nil
}

func (f *fakeTransport) PromptForPhoneProof(ctx context.Context, chatID int64, text, buttonText string) error {
	f.sent = append(f.sent, sentMessage{kind: "prompt", text: text})
	return nil
}

func (f *fakeTransport) last(t *testing.T) sentMessage {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(t *testing.T, repo *fakeRepo, cat *fakeCatalog) (*Controller, *fakeTransport) {
	t.Helper()

	manager, err := i18n.Load("ru")
	require.NoError(t, err)

	transport := &fakeTransport{}
	engine := progression.NewEngine(repo, cat, testLogger())
	controller := NewController(
		repo,
		engine,
		progression.NewMemoryLocker(),
		transport,
		manager.Translator("ru"),
		errors.NewHandler(testLogger(), false),
		"@admin",
		testLogger(),
	)

	return controller, transport
}

func active(chatID int64, day int) *domain.Enrollment {
	return &domain.Enrollment{
		Row:        2,
		Phone:      "79991234567",
		ChatID:     chatID,
		Status:     domain.StatusActive,
		CurrentDay: day,
	}
}

func TestHandleStart_PromptsUnknownIdentityForPhone(t *testing.T) {
	controller, transport := newTestController(t, &fakeRepo{}, &fakeCatalog{})

	require.NoError(t, controller.HandleStart(context.Background(), 42))

	assert.Equal(t, "prompt", transport.last(t).kind)
}

func TestHandleStart_ResumesFromCurrentDay(t *testing.T) {
	repo := &fakeRepo{enrollment: active(42, 3)}
	cat := &fakeCatalog{units: map[string]string{"3:1": "300"}}
	controller, transport := newTestController(t, repo, cat)

	require.NoError(t, controller.HandleStart(context.Background(), 42))

	require.Len(t, transport.sent, 2)
	assert.Equal(t, "message", transport.sent[0].kind)
	assert.Contains(t, transport.sent[0].text, "День 3")
	assert.Equal(t, "content", transport.sent[1].kind)
	assert.Equal(t, "300", transport.sent[1].text)
}

func TestHandleStart_BlockedEnrollmentGetsNoContent(t *testing.T) {
	enrollment := active(42, 3)
	enrollment.Status = domain.StatusBlocked
	controller, transport := newTestController(t, &fakeRepo{enrollment: enrollment}, &fakeCatalog{})

	require.NoError(t, controller.HandleStart(context.Background(), 42))

	require.Len(t, transport.sent, 1)
	assert.Equal(t, "message", transport.sent[0].kind)
}

func TestHandlePhoneProof_SuccessDeliversFirstUnit(t *testing.T) {
	repo := &fakeRepo{
		enrollment: active(0, 0),
		authResult: repository.AuthSuccess,
	}
	cat := &fakeCatalog{units: map[string]string{"1:1": "100"}}
	controller, transport := newTestController(t, repo, cat)

	require.NoError(t, controller.HandlePhoneProof(context.Background(), 42, "+7 999 123-45-67"))

	assert.Equal(t, "+7 999 123-45-67", repo.authPhone)
	require.Len(t, transport.sent, 2)
	assert.Equal(t, "content", transport.sent[1].kind)
	assert.Equal(t, "100", transport.sent[1].text)
	require.Len(t, transport.sent[1].buttons, 1)
	assert.Equal(t, "next:1:2", transport.sent[1].buttons[0].Data)
}

func TestHandlePhoneProof_NotFoundNamesAdmin(t *testing.T) {
	controller, transport := newTestController(t, &fakeRepo{authResult: repository.AuthNotFound}, &fakeCatalog{})

	require.NoError(t, controller.HandlePhoneProof(context.Background(), 42, "70000000000"))

	last := transport.last(t)
	assert.Equal(t, "message", last.kind)
	assert.Contains(t, last.text, "@admin")
}

func TestHandlePhoneProof_Blocked(t *testing.T) {
	controller, transport := newTestController(t, &fakeRepo{authResult: repository.AuthBlocked}, &fakeCatalog{})

	require.NoError(t, controller.HandlePhoneProof(context.Background(), 42, "79990000002"))

	require.Len(t, transport.sent, 1)
	assert.Equal(t, "message", transport.sent[0].kind)
}

func TestHandleContinue_DeliversRequestedStep(t *testing.T) {
	repo := &fakeRepo{enrollment: active(42, 1)}
	cat := &fakeCatalog{units: map[string]string{"1:1": "100", "1:2": "101"}}
	controller, transport := newTestController(t, repo, cat)

	require.NoError(t, controller.HandleContinue(context.Background(), 42, 1, 2))

	last := transport.last(t)
	assert.Equal(t, "content", last.kind)
	assert.Equal(t, "101", last.text)
	require.Len(t, last.buttons, 1)
	assert.Equal(t, "next:1:3", last.buttons[0].Data)
}

func TestHandleContinue_DayBoundaryOffersNextDay(t *testing.T) {
	repo := &fakeRepo{enrollment: active(42, 1)}
	cat := &fakeCatalog{units: map[string]string{"1:1": "100", "2:1": "200"}}
	controller, transport := newTestController(t, repo, cat)

	require.NoError(t, controller.HandleContinue(context.Background(), 42, 1, 2))

	last := transport.last(t)
	assert.Equal(t, "message", last.kind)
	require.Len(t, last.buttons, 1)
	assert.Equal(t, "next:2:1", last.buttons[0].Data)
	assert.False(t, repo.enrollment.LastCompletion.IsZero(), "day boundary must consume the daily gate")
}

func TestHandleContinue_SecondBoundarySameDayHitsDailyLimit(t *testing.T) {
	repo := &fakeRepo{enrollment: active(42, 1)}
	cat := &fakeCatalog{units: map[string]string{"1:1": "100", "2:1": "200"}}
	controller, transport := newTestController(t, repo, cat)
	ctx := context.Background()

	require.NoError(t, controller.HandleContinue(ctx, 42, 1, 2))
	require.NoError(t, controller.HandleContinue(ctx, 42, 1, 2))

	last := transport.last(t)
	assert.Equal(t, "message", last.kind)
	assert.Empty(t, last.buttons)
}

func TestHandleContinue_CourseComplete(t *testing.T) {
	repo := &fakeRepo{enrollment: active(42, 2)}
	cat := &fakeCatalog{units: map[string]string{"2:1": "200"}}
	controller, transport := newTestController(t, repo, cat)

	require.NoError(t, controller.HandleContinue(context.Background(), 42, 2, 2))

	last := transport.last(t)
	assert.Equal(t, "message", last.kind)
	assert.Empty(t, last.buttons)
}

func TestHandleContinue_UnboundIdentityIsPrompted(t *testing.T) {
	controller, transport := newTestController(t, &fakeRepo{}, &fakeCatalog{})

	require.NoError(t, controller.HandleContinue(context.Background(), 42, 1, 1))

	assert.Equal(t, "prompt", transport.last(t).kind)
}

func TestProgress_StoreFailureYieldsSingleNotice(t *testing.T) {
	repo := &fakeRepo{findErr: errors.NewStoreUnavailableError(fmt.Errorf("api down"))}
	controller, transport := newTestController(t, repo, &fakeCatalog{})

	require.NoError(t, controller.HandleContinue(context.Background(), 42, 1, 1))

	require.Len(t, transport.sent, 1)
	assert.Equal(t, "message", transport.sent[0].kind)
}
