package progression

import "github.com/kpp-all/drip-bot/internal/domain"

// Outcome is the single result of one progression decision.
type Outcome string

const (
	// OutcomeRequireAuthorization: no enrollment is bound to the identity;
	// the caller must prompt for phone proof.
	OutcomeRequireAuthorization Outcome = "require_authorization"
	// OutcomeDenied: the enrollment is blocked. Checked fresh on every
	// request so that blocking takes effect immediately.
	OutcomeDenied Outcome = "denied"
	// OutcomeDeliver: the requested unit exists and is released.
	OutcomeDeliver Outcome = "deliver"
	// OutcomeDayReady: the day's steps are exhausted and the next day may
	// be started after one more confirming action.
	OutcomeDayReady Outcome = "day_ready"
	// OutcomeDailyLimit: a day was already completed today; the gate stays
	// shut until the next calendar date.
	OutcomeDailyLimit Outcome = "daily_limit"
	// OutcomeCourseComplete: no further content exists.
	OutcomeCourseComplete Outcome = "course_complete"
)

// Decision carries the outcome plus the data the caller renders: the unit to
// deliver, or the day that is ready to start.
type Decision struct {
	Outcome Outcome
	Unit    *domain.ContentUnit
	NextDay int
}

var decisionRecorder = func(outcome string) {}

// RegisterDecisionRecorder allows external packages to observe decisions.
func RegisterDecisionRecorder(recorder func(outcome string)) {
	if recorder == nil {
		decisionRecorder = func(string) {}
		return
	}

	decisionRecorder = recorder
}
