// Package domain holds the personal calendar entries fanned out to meeting
// participants.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source tags a personal event with the schedule kind that produced it.
type Source string

const (
	SourceSuggested Source = "suggested"
	SourceRecurring Source = "recurring"
)

// IsValid checks if the source is known.
func (s Source) IsValid() bool {
	return s == SourceSuggested || s == SourceRecurring
}

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

var (
	ErrInvalidSource = errors.New("invalid personal event source")
	ErrInvalidTime   = errors.New("invalid personal event date or time")
)

// namespace seeds deterministic personal event IDs.
var namespace = uuid.MustParse("6f1c9a52-3be4-4f0e-9a7d-2c51d0a8e4b7")

// PersonalEvent is one participant's copy of a scheduled occurrence.
type PersonalEvent struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	MeetingID  uuid.UUID `json:"meeting_id"`
	ScheduleID uuid.UUID `json:"schedule_id"`
	Source     Source    `json:"source"`
	Title      string    `json:"title"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Location   string    `json:"location,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// EventID derives the stable ID of a personal event, so fanning out the
// same occurrence twice yields the same row.
func EventID(meetingID, scheduleID, userID uuid.UUID, date, startTime string) uuid.UUID {
	name := strings.Join([]string{meetingID.String(), scheduleID.String(), userID.String(), date, startTime}, "|")
	return uuid.NewSHA1(namespace, []byte(name))
}

// NewPersonalEvent validates and builds a personal event.
func NewPersonalEvent(userID, meetingID, scheduleID uuid.UUID, source Source, title, date, startTime, endTime, location string, now time.Time) (PersonalEvent, error) {
	if !source.IsValid() {
		return PersonalEvent{}, ErrInvalidSource
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return PersonalEvent{}, fmt.Errorf("%w: date %q", ErrInvalidTime, date)
	}
	start, err := time.Parse(clockLayout, startTime)
	if err != nil {
		return PersonalEvent{}, fmt.Errorf("%w: start %q", ErrInvalidTime, startTime)
	}
	end, err := time.Parse(clockLayout, endTime)
	if err != nil || !end.After(start) {
		return PersonalEvent{}, fmt.Errorf("%w: end %q", ErrInvalidTime, endTime)
	}

	return PersonalEvent{
		ID:         EventID(meetingID, scheduleID, userID, date, startTime),
		UserID:     userID,
		MeetingID:  meetingID,
		ScheduleID: scheduleID,
		Source:     source,
		Title:      title,
		Date:       date,
		StartTime:  startTime,
		EndTime:    endTime,
		Location:   location,
		CreatedAt:  now,
	}, nil
}

// Span returns the event's start and end instants in loc.
func (e PersonalEvent) Span(loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout+" "+clockLayout, e.Date+" "+e.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTime, err)
	}
	end, err := time.ParseInLocation(dateLayout+" "+clockLayout, e.Date+" "+e.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTime, err)
	}
	return start, end, nil
}
