package services

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	"github.com/teambition/rrule-go"
)

var rruleWeekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// OccurrencePlanner turns suggestions and recurring patterns into dated
// occurrences in a fixed wall-clock location.
type OccurrencePlanner struct {
	grid     domain.SlotGrid
	location *time.Location
}

// NewOccurrencePlanner creates a planner. A nil location means time.Local.
func NewOccurrencePlanner(grid domain.SlotGrid, location *time.Location) *OccurrencePlanner {
	if location == nil {
		location = time.Local
	}
	return &OccurrencePlanner{grid: grid, location: location}
}

// Location returns the wall-clock location used for dates.
func (p *OccurrencePlanner) Location() *time.Location {
	return p.location
}

// NextOccurrence schedules a run of slots on the next calendar date with the
// run's weekday. Today qualifies only while its start time is still ahead.
func (p *OccurrencePlanner) NextOccurrence(start domain.SlotID, runLength int, now time.Time) (domain.Occurrence, error) {
	if runLength < 1 || !p.grid.Contains(start) || start.Index+runLength > p.grid.SlotsPerDay() {
		return domain.Occurrence{}, domain.ErrInvalidSlot
	}

	local := now.In(p.location)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.location)
	startOffset := p.grid.StartOffset(start)

	daysAhead := (int(p.grid.Weekday(start.Day)) - int(local.Weekday()) + 7) % 7
	if daysAhead == 0 && !local.Before(domain.AtClock(today, startOffset)) {
		daysAhead = 7
	}

	date := today.AddDate(0, 0, daysAhead)
	return domain.Occurrence{
		Date:      date.Format(domain.DateLayout),
		StartTime: p.grid.StartTime(start),
		EndTime:   p.grid.EndTime(start, runLength),
	}, nil
}

// Expand lists every occurrence of a recurring pattern between its From and
// Until dates, both inclusive.
func (p *OccurrencePlanner) Expand(schedule domain.RecurringSchedule) ([]domain.Occurrence, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	startOffset, err := domain.ParseClock(schedule.StartTime)
	if err != nil {
		return nil, err
	}
	from, err := domain.ParseDate(schedule.From, p.location)
	if err != nil {
		return nil, err
	}
	until, err := domain.ParseDate(schedule.Until, p.location)
	if err != nil {
		return nil, err
	}

	// Anchor on the first matching weekday so biweekly counting starts there.
	first := from.AddDate(0, 0, (int(schedule.DayOfWeek)-int(from.Weekday())+7)%7)
	if first.After(until) {
		return []domain.Occurrence{}, nil
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Interval:  schedule.Frequency.IntervalWeeks(),
		Byweekday: []rrule.Weekday{rruleWeekdays[schedule.DayOfWeek]},
		Dtstart:   domain.AtClock(first, startOffset),
		Until:     domain.AtClock(until, startOffset),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSchedule, err)
	}

	times := rule.All()
	occurrences := make([]domain.Occurrence, 0, len(times))
	for _, t := range times {
		occurrences = append(occurrences, domain.Occurrence{
			Date:      t.In(p.location).Format(domain.DateLayout),
			StartTime: schedule.StartTime,
			EndTime:   schedule.EndTime,
			Location:  schedule.Location,
		})
	}
	return occurrences, nil
}
