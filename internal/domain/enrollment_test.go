package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+7 999 123-45-67":  "79991234567",
		"79991234567":       "79991234567",
		"8 (999) 123 45 67": "79991234567",
		"8999123456":        "8999123456",
		"+-() ":             "",
		"":                  "",
	}

	for input, want := range cases {
		assert.Equal(t, want, NormalizePhone(input), "input %q", input)
	}
}

func TestResumeDay(t *testing.T) {
	assert.Equal(t, 1, (&Enrollment{CurrentDay: 0}).ResumeDay())
	assert.Equal(t, 1, (&Enrollment{CurrentDay: -1}).ResumeDay())
	assert.Equal(t, 5, (&Enrollment{CurrentDay: 5}).ResumeDay())
}

func TestCompletedOn_ComparesCalendarDates(t *testing.T) {
	completion, _ := time.Parse(DateLayout, "2026-08-30")
	e := &Enrollment{LastCompletion: completion}

	sameDayLater := completion.Add(23 * time.Hour)
	assert.True(t, e.CompletedOn(sameDayLater))

	nextDay := completion.AddDate(0, 0, 1)
	assert.False(t, e.CompletedOn(nextDay))

	assert.False(t, (&Enrollment{}).CompletedOn(completion), "zero completion never gates")
}

func TestBlocked(t *testing.T) {
	assert.True(t, (&Enrollment{Status: StatusBlocked}).Blocked())
	assert.False(t, (&Enrollment{Status: StatusActive}).Blocked())
	assert.False(t, (&Enrollment{Status: ""}).Blocked())
}
