package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersonalEvent(t *testing.T) {
	userID, meetingID, scheduleID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	event, err := NewPersonalEvent(userID, meetingID, scheduleID, SourceSuggested, "Book club", "2026-10-19", "14:00", "15:00", "Library", now)
	require.NoError(t, err)
	assert.Equal(t, "Book club", event.Title)

	again, err := NewPersonalEvent(userID, meetingID, scheduleID, SourceSuggested, "Book club", "2026-10-19", "14:00", "15:00", "Library", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, event.ID, again.ID, "ids are deterministic")

	other, err := NewPersonalEvent(uuid.New(), meetingID, scheduleID, SourceSuggested, "Book club", "2026-10-19", "14:00", "15:00", "Library", now)
	require.NoError(t, err)
	assert.NotEqual(t, event.ID, other.ID)
}

func TestNewPersonalEvent_Invalid(t *testing.T) {
	tests := []struct {
		name             string
		source           Source
		date, start, end string
		want             error
	}{
		{"source", "manual", "2026-10-19", "14:00", "15:00", ErrInvalidSource},
		{"date", SourceRecurring, "19.10.2026", "14:00", "15:00", ErrInvalidTime},
		{"start", SourceRecurring, "2026-10-19", "2pm", "15:00", ErrInvalidTime},
		{"end before start", SourceRecurring, "2026-10-19", "14:00", "13:00", ErrInvalidTime},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPersonalEvent(uuid.New(), uuid.New(), uuid.New(), tc.source, "x", tc.date, tc.start, tc.end, "", time.Now())
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPersonalEvent_Span(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	event := PersonalEvent{Date: "2026-10-19", StartTime: "14:00", EndTime: "15:30"}

	start, end, err := event.Span(loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC), start.UTC())
	assert.Equal(t, 90*time.Minute, end.Sub(start))
}
