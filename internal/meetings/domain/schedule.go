package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScheduleSource tags fanned-out personal events with the schedule kind
// that produced them.
type ScheduleSource string

const (
	SourceSuggested ScheduleSource = "suggested"
	SourceRecurring ScheduleSource = "recurring"
)

// IsValid checks if the source is known.
func (s ScheduleSource) IsValid() bool {
	switch s {
	case SourceSuggested, SourceRecurring:
		return true
	default:
		return false
	}
}

// Frequency is the repeat interval of a recurring schedule.
type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
)

// IsValid checks if the frequency is supported.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly:
		return true
	default:
		return false
	}
}

// IntervalWeeks returns the number of weeks between occurrences.
func (f Frequency) IntervalWeeks() int {
	switch f {
	case FrequencyBiweekly:
		return 2
	case FrequencyWeekly:
		return 1
	default:
		return 1
	}
}

// maxRecurringRange bounds how far a recurring pattern may expand.
const maxRecurringRange = 366 * 24 * time.Hour

// Occurrence is one concrete dated instance of a schedule.
type Occurrence struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Location  string `json:"location,omitempty"`
}

// SuggestedSchedule is the single committed date chosen from a suggestion.
type SuggestedSchedule struct {
	ID          uuid.UUID
	Date        string
	StartTime   string
	EndTime     string
	Location    string
	CommittedAt time.Time
}

// Occurrence returns the schedule as its only occurrence.
func (s SuggestedSchedule) Occurrence() Occurrence {
	return Occurrence{Date: s.Date, StartTime: s.StartTime, EndTime: s.EndTime, Location: s.Location}
}

// RecurringSchedule is an owner-defined repeating pattern. DayOfWeek follows
// time.Weekday (0 is Sunday).
type RecurringSchedule struct {
	ID        uuid.UUID
	Frequency Frequency
	DayOfWeek time.Weekday
	StartTime string
	EndTime   string
	From      string
	Until     string
	Location  string
	CreatedAt time.Time
}

// Validate checks the pattern is well formed.
func (r RecurringSchedule) Validate() error {
	if !r.Frequency.IsValid() {
		return fmt.Errorf("%w: frequency %q", ErrInvalidSchedule, r.Frequency)
	}
	if r.DayOfWeek < time.Sunday || r.DayOfWeek > time.Saturday {
		return fmt.Errorf("%w: day of week %d", ErrInvalidSchedule, r.DayOfWeek)
	}
	if err := validateTimeRange(r.StartTime, r.EndTime); err != nil {
		return err
	}

	from, err := ParseDate(r.From, time.UTC)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	until, err := ParseDate(r.Until, time.UTC)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	if until.Before(from) {
		return fmt.Errorf("%w: range ends before it starts", ErrInvalidSchedule)
	}
	if until.Sub(from) > maxRecurringRange {
		return fmt.Errorf("%w: range longer than one year", ErrInvalidSchedule)
	}
	return nil
}

func validateTimeRange(start, end string) error {
	startOffset, err := ParseClock(start)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	endOffset, err := ParseClock(end)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	if endOffset <= startOffset {
		return fmt.Errorf("%w: end time must be after start time", ErrInvalidSchedule)
	}
	return nil
}

// Describe renders a short human summary, e.g. "weekly on Tuesday 14:00-15:00".
func (r RecurringSchedule) Describe() string {
	var b strings.Builder
	b.WriteString(string(r.Frequency))
	b.WriteString(" on ")
	b.WriteString(r.DayOfWeek.String())
	b.WriteString(" ")
	b.WriteString(r.StartTime)
	b.WriteString("-")
	b.WriteString(r.EndTime)
	return b.String()
}
