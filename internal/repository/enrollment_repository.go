package repository

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/kpp-all/drip-bot/internal/domain"
	"github.com/kpp-all/drip-bot/internal/store"
)

// User registry layout: columns 1-6, 1-indexed, string-typed cells.
const (
	colPhone          = 1
	colChatID         = 2
	colReserved       = 3
	colStatus         = 4
	colCurrentDay     = 5
	colLastCompletion = 6
)

// Registry header names, used when the sheet is read as records.
const (
	fieldPhone          = "phone"
	fieldChatID         = "chat_id"
	fieldStatus         = "status"
	fieldCurrentDay     = "current_day"
	fieldLastCompletion = "last_completed"
)

// AuthResult is the outcome of a phone authorization attempt. Store failures
// are reported through the error return, never through AuthResult.
type AuthResult int

const (
	AuthSuccess AuthResult = iota
	AuthBlocked
	AuthNotFound
)

// EnrollmentRepository maps user registry rows to typed enrollment
// snapshots. All parsing of string-typed cells happens here.
type EnrollmentRepository interface {
	// FindByIdentity loads the enrollment bound to the chat identity.
	// Returns domain.ErrNotEnrolled when no row is bound to it.
	FindByIdentity(ctx context.Context, chatID int64) (*domain.Enrollment, error)
	// AuthorizeByPhone looks the normalized phone up in the registry and,
	// unless the row is blocked, binds the chat identity to it. Binding is
	// idempotent: repeated Success calls overwrite the same cell and never
	// create rows.
	AuthorizeByPhone(ctx context.Context, phone string, chatID int64) (AuthResult, error)
	// RecordProgress persists the day whose unit was just delivered.
	RecordProgress(ctx context.Context, enrollment *domain.Enrollment, day int) error
	// RecordDailyCompletion persists the date the current day's final step
	// was delivered, consuming the daily gate.
	RecordDailyCompletion(ctx context.Context, enrollment *domain.Enrollment, date time.Time) error
	// ListActive returns every active enrollment with a bound identity.
	ListActive(ctx context.Context) ([]domain.Enrollment, error)
}

type enrollmentRepository struct {
	store store.Client
	sheet string
	log   *slog.Logger
}

// NewEnrollmentRepository creates a repository over the given registry sheet.
func NewEnrollmentRepository(storeClient store.Client, sheet string, log *slog.Logger) EnrollmentRepository {
	if log == nil {
		log = slog.Default()
	}

	return &enrollmentRepository{
		store: storeClient,
		sheet: sheet,
		log:   log,
	}
}

func (r *enrollmentRepository) FindByIdentity(ctx context.Context, chatID int64) (*domain.Enrollment, error) {
	row, err := r.store.FindRow(ctx, r.sheet, colChatID, strconv.FormatInt(chatID, 10))
	if err != nil {
		if stdErrors.Is(err, domain.ErrRowNotFound) {
			return nil, domain.ErrNotEnrolled
		}
		return nil, fmt.Errorf("find enrollment by identity: %w", err)
	}

	cells, err := r.store.ReadRow(ctx, r.sheet, row)
	if err != nil {
		return nil, fmt.Errorf("read enrollment row: %w", err)
	}

	return r.parseRow(row, cells), nil
}

func (r *enrollmentRepository) AuthorizeByPhone(ctx context.Context, phone string, chatID int64) (AuthResult, error) {
	normalized := domain.NormalizePhone(phone)
	if normalized == "" {
		return AuthNotFound, nil
	}

	row, err := r.store.FindRow(ctx, r.sheet, colPhone, normalized)
	if err != nil {
		if stdErrors.Is(err, domain.ErrRowNotFound) {
			return AuthNotFound, nil
		}
		return 0, fmt.Errorf("find enrollment by phone: %w", err)
	}

	status, err := r.store.ReadCell(ctx, r.sheet, row, colStatus)
	if err != nil {
		return 0, fmt.Errorf("read access status: %w", err)
	}

	if domain.AccessStatus(strings.TrimSpace(status)) == domain.StatusBlocked {
		return AuthBlocked, nil
	}

	if err := r.store.WriteCell(ctx, r.sheet, row, colChatID, strconv.FormatInt(chatID, 10)); err != nil {
		return 0, fmt.Errorf("bind chat identity: %w", err)
	}

	r.log.Info("identity bound to enrollment", slog.Int64("chat_id", chatID), slog.Int("row", row))

	return AuthSuccess, nil
}

func (r *enrollmentRepository) RecordProgress(ctx context.Context, enrollment *domain.Enrollment, day int) error {
	if enrollment == nil {
		return fmt.Errorf("record progress: enrollment is nil")
	}

	if err := r.store.WriteCell(ctx, r.sheet, enrollment.Row, colCurrentDay, strconv.Itoa(day)); err != nil {
		return fmt.Errorf("record progress: %w", err)
	}

	enrollment.CurrentDay = day

	return nil
}

func (r *enrollmentRepository) RecordDailyCompletion(ctx context.Context, enrollment *domain.Enrollment, date time.Time) error {
	if enrollment == nil {
		return fmt.Errorf("record daily completion: enrollment is nil")
	}

	if err := r.store.WriteCell(ctx, r.sheet, enrollment.Row, colLastCompletion, date.Format(domain.DateLayout)); err != nil {
		return fmt.Errorf("record daily completion: %w", err)
	}

	enrollment.LastCompletion = date

	return nil
}

// ListActive reads the registry as records; it relies on the canonical
// header row the course operators keep on the sheet.
func (r *enrollmentRepository) ListActive(ctx context.Context) ([]domain.Enrollment, error) {
	records, err := r.store.ReadAllRecords(ctx, r.sheet)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}

	enrollments := make([]domain.Enrollment, 0, len(records))
	for i, record := range records {
		chatID, err := strconv.ParseInt(strings.TrimSpace(record[fieldChatID]), 10, 64)
		if err != nil || chatID == 0 {
			continue
		}

		if domain.AccessStatus(strings.TrimSpace(record[fieldStatus])) == domain.StatusBlocked {
			continue
		}

		// data rows start right below the header
		enrollment := r.parseRow(i+2, []string{
			record[fieldPhone],
			record[fieldChatID],
			"",
			record[fieldStatus],
			record[fieldCurrentDay],
			record[fieldLastCompletion],
		})
		enrollments = append(enrollments, *enrollment)
	}

	return enrollments, nil
}

// parseRow converts raw registry cells into a typed snapshot. Missing
// trailing cells parse as zero values.
func (r *enrollmentRepository) parseRow(row int, cells []string) *domain.Enrollment {
	cell := func(col int) string {
		if col-1 < len(cells) {
			return strings.TrimSpace(cells[col-1])
		}
		return ""
	}

	enrollment := &domain.Enrollment{
		Row:    row,
		Phone:  cell(colPhone),
		Status: domain.AccessStatus(cell(colStatus)),
	}

	if id, err := strconv.ParseInt(cell(colChatID), 10, 64); err == nil {
		enrollment.ChatID = id
	}

	if day, err := strconv.Atoi(cell(colCurrentDay)); err == nil {
		enrollment.CurrentDay = day
	}

	if date, err := time.Parse(domain.DateLayout, cell(colLastCompletion)); err == nil {
		enrollment.LastCompletion = date
	}

	return enrollment
}
