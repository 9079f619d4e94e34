package domain

import (
	"errors"
	"strings"
	"time"
)

// AccessStatus is the access-control gate stored in the user registry.
type AccessStatus string

const (
	// StatusActive allows content delivery.
	StatusActive AccessStatus = "active"
	// StatusBlocked denies every request until an operator resets the cell.
	StatusBlocked AccessStatus = "blocked"
)

// DateLayout is the cell format of the last completion date column.
const DateLayout = "2006-01-02"

// ErrRowNotFound indicates that a store lookup matched no row.
var ErrRowNotFound = errors.New("row not found")

// ErrNotEnrolled indicates that no registry row is bound to the identity.
var ErrNotEnrolled = errors.New("identity is not enrolled")

// Enrollment is one row of the user registry, parsed into typed values.
// The external store remains the sole durable owner; an Enrollment is a
// per-request snapshot and must never be cached across requests.
type Enrollment struct {
	Row            int
	Phone          string
	ChatID         int64
	Status         AccessStatus
	CurrentDay     int
	LastCompletion time.Time
}

// Blocked reports whether the access gate denies this enrollment.
func (e *Enrollment) Blocked() bool {
	return e != nil && e.Status == StatusBlocked
}

// ResumeDay returns the day to resume from: the recorded current day, or 1
// when progress has not been written yet.
func (e *Enrollment) ResumeDay() int {
	if e == nil || e.CurrentDay < 1 {
		return 1
	}
	return e.CurrentDay
}

// CompletedOn reports whether the daily gate was already consumed on the
// given calendar date.
func (e *Enrollment) CompletedOn(day time.Time) bool {
	if e == nil || e.LastCompletion.IsZero() {
		return false
	}
	return e.LastCompletion.Format(DateLayout) == day.Format(DateLayout)
}

// NormalizePhone reduces a phone number to its digit string, rewriting the
// domestic 8 trunk prefix of 11-digit Russian numbers to 7. "+7 999
// 123-45-67", "79991234567" and "8 (999) 123-45-67" all normalize to the
// same value.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) == 11 && digits[0] == '8' {
		digits = "7" + digits[1:]
	}

	return digits
}
