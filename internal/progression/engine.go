// Package progression decides which content a learner receives next and
// persists progress transitions. Per-identity state is derived per request
// from the enrollment snapshot; nothing is held between requests.
package progression

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kpp-all/drip-bot/internal/domain"
)

// Recorder persists the progress transitions a decision requires.
type Recorder interface {
	RecordProgress(ctx context.Context, enrollment *domain.Enrollment, day int) error
	RecordDailyCompletion(ctx context.Context, enrollment *domain.Enrollment, date time.Time) error
}

// Catalog answers which content units exist.
type Catalog interface {
	Resolve(ctx context.Context, day, step int) (*domain.ContentUnit, error)
	DayExists(ctx context.Context, day int) (bool, error)
}

// Engine is the progression state machine.
type Engine struct {
	recorder Recorder
	catalog  Catalog
	log      *slog.Logger
	now      func() time.Time
}

// NewEngine constructs the engine with the system clock.
func NewEngine(recorder Recorder, catalog Catalog, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		recorder: recorder,
		catalog:  catalog,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the engine's clock. Used by tests and nothing else.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Decide runs one progression decision for the requested (day, step). The
// caller supplies a freshly loaded enrollment, or nil when the identity is
// unbound. The requested coordinates are trusted: they originate from the
// continue button keyed to the unit just delivered, and the engine performs
// no independent validation against the learner's recorded day.
func (e *Engine) Decide(ctx context.Context, enrollment *domain.Enrollment, day, step int) (*Decision, error) {
	decision, err := e.decide(ctx, enrollment, day, step)
	if err != nil {
		return nil, err
	}

	decisionRecorder(string(decision.Outcome))

	e.log.Info("progression decision",
		slog.String("outcome", string(decision.Outcome)),
		slog.Int("day", day),
		slog.Int("step", step),
	)

	return decision, nil
}

func (e *Engine) decide(ctx context.Context, enrollment *domain.Enrollment, day, step int) (*Decision, error) {
	if enrollment == nil {
		return &Decision{Outcome: OutcomeRequireAuthorization}, nil
	}

	if enrollment.Blocked() {
		return &Decision{Outcome: OutcomeDenied}, nil
	}

	unit, err := e.catalog.Resolve(ctx, day, step)
	switch {
	case err == nil:
		if err := e.recorder.RecordProgress(ctx, enrollment, unit.Day); err != nil {
			return nil, fmt.Errorf("persist progress: %w", err)
		}
		return &Decision{Outcome: OutcomeDeliver, Unit: unit}, nil
	case stdErrors.Is(err, domain.ErrRowNotFound):
		// the requested day is exhausted, fall through
	default:
		return nil, err
	}

	nextDayExists, err := e.catalog.DayExists(ctx, day+1)
	if err != nil {
		return nil, err
	}

	if !nextDayExists {
		return &Decision{Outcome: OutcomeCourseComplete}, nil
	}

	today := e.now()
	if enrollment.CompletedOn(today) {
		return &Decision{Outcome: OutcomeDailyLimit}, nil
	}

	if err := e.recorder.RecordDailyCompletion(ctx, enrollment, today); err != nil {
		return nil, fmt.Errorf("persist daily completion: %w", err)
	}

	return &Decision{Outcome: OutcomeDayReady, NextDay: day + 1}, nil
}
