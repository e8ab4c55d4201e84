package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMeeting(t *testing.T, maxParticipants int) (*Meeting, uuid.UUID) {
	t.Helper()
	ownerID := uuid.New()
	meeting, err := NewMeeting(ownerID, "Study group", "", "Library", maxParticipants)
	require.NoError(t, err)
	meeting.ClearDomainEvents()
	return meeting, ownerID
}

func addApproved(t *testing.T, m *Meeting, ownerID uuid.UUID) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	require.NoError(t, m.RequestToJoin(userID, time.Now()))
	require.NoError(t, m.ApproveJoinRequest(ownerID, userID, time.Now()))
	return userID
}

func TestNewMeeting(t *testing.T) {
	ownerID := uuid.New()
	meeting, err := NewMeeting(ownerID, "  Study group ", "weekly prep", "Library", 4)

	require.NoError(t, err)
	assert.Equal(t, "Study group", meeting.Title())
	assert.Equal(t, StatusOpen, meeting.Status())
	assert.Equal(t, []uuid.UUID{ownerID}, meeting.Roster())
	require.Len(t, meeting.DomainEvents(), 1)
	assert.Equal(t, RoutingKeyMeetingCreated, meeting.DomainEvents()[0].RoutingKey())
}

func TestNewMeeting_Validation(t *testing.T) {
	_, err := NewMeeting(uuid.New(), "   ", "", "", 4)
	assert.ErrorIs(t, err, ErrMeetingEmptyTitle)

	_, err = NewMeeting(uuid.New(), "Sync", "", "", 0)
	assert.ErrorIs(t, err, ErrInvalidMaxParticipants)
}

func TestMeeting_JoinRequestLifecycle(t *testing.T) {
	meeting, ownerID := newTestMeeting(t, 4)
	userID := uuid.New()

	require.NoError(t, meeting.RequestToJoin(userID, time.Now()))
	assert.ErrorIs(t, meeting.RequestToJoin(userID, time.Now()), ErrAlreadyParticipant)
	assert.Len(t, meeting.PendingRequests(), 1)
	assert.Equal(t, 1, meeting.TotalParticipants(), "pending users are not on the roster")

	assert.ErrorIs(t, meeting.ApproveJoinRequest(userID, userID, time.Now()), ErrNotOwner)
	require.NoError(t, meeting.ApproveJoinRequest(ownerID, userID, time.Now()))
	assert.True(t, meeting.IsRosterMember(userID))
	assert.Empty(t, meeting.PendingRequests())

	require.NoError(t, meeting.Leave(userID))
	assert.False(t, meeting.IsRosterMember(userID))
	assert.ErrorIs(t, meeting.Leave(ownerID), ErrOwnerCannotLeave)
}

func TestMeeting_CancelAndReject(t *testing.T) {
	meeting, ownerID := newTestMeeting(t, 4)
	a, b := uuid.New(), uuid.New()
	require.NoError(t, meeting.RequestToJoin(a, time.Now()))
	require.NoError(t, meeting.RequestToJoin(b, time.Now()))

	require.NoError(t, meeting.CancelJoinRequest(a))
	assert.ErrorIs(t, meeting.CancelJoinRequest(a), ErrJoinRequestNotFound)

	assert.ErrorIs(t, meeting.RejectJoinRequest(b, b), ErrNotOwner)
	require.NoError(t, meeting.RejectJoinRequest(ownerID, b))
	_, ok := meeting.Participant(b)
	assert.False(t, ok)
}

func TestMeeting_RecruitmentStatus(t *testing.T) {
	meeting, ownerID := newTestMeeting(t, 2)

	require.NoError(t, meeting.UpdateStatus(ownerID, StatusClosed))
	assert.ErrorIs(t, meeting.RequestToJoin(uuid.New(), time.Now()), ErrRecruitmentClosed)
	assert.ErrorIs(t, meeting.UpdateStatus(ownerID, RecruitmentStatus("paused")), ErrInvalidStatus)
	assert.ErrorIs(t, meeting.UpdateStatus(uuid.New(), StatusOpen), ErrNotOwner)

	require.NoError(t, meeting.UpdateStatus(ownerID, StatusOpen))
	addApproved(t, meeting, ownerID)
	assert.Equal(t, StatusFull, meeting.Status(), "filling the roster closes recruitment")
}

func TestMeeting_ApproveWhenFull(t *testing.T) {
	meeting, ownerID := newTestMeeting(t, 2)
	a, b := uuid.New(), uuid.New()
	require.NoError(t, meeting.RequestToJoin(a, time.Now()))
	require.NoError(t, meeting.RequestToJoin(b, time.Now()))

	require.NoError(t, meeting.ApproveJoinRequest(ownerID, a, time.Now()))
	assert.ErrorIs(t, meeting.ApproveJoinRequest(ownerID, b, time.Now()), ErrMeetingFull)
}

func TestMeeting_SetAvailability(t *testing.T) {
	grid := DefaultSlotGrid()
	meeting, ownerID := newTestMeeting(t, 4)

	slots := []SlotID{{Day: 1, Index: 3}, {Day: 0, Index: 2}, {Day: 1, Index: 3}}
	require.NoError(t, meeting.SetAvailability(grid, ownerID, slots))
	assert.Equal(t, []SlotID{{Day: 0, Index: 2}, {Day: 1, Index: 3}}, meeting.Availability(ownerID))

	// Replaced wholesale, not merged.
	require.NoError(t, meeting.SetAvailability(grid, ownerID, []SlotID{{Day: 4, Index: 0}}))
	assert.Equal(t, []SlotID{{Day: 4, Index: 0}}, meeting.Availability(ownerID))

	require.NoError(t, meeting.SetAvailability(grid, ownerID, nil))
	assert.Empty(t, meeting.Availability(ownerID))
	assert.False(t, meeting.HasSelection(ownerID))
}

func TestMeeting_SetAvailability_Invalid(t *testing.T) {
	grid := DefaultSlotGrid()
	meeting, ownerID := newTestMeeting(t, 4)
	require.NoError(t, meeting.SetAvailability(grid, ownerID, []SlotID{{Day: 0, Index: 0}}))

	err := meeting.SetAvailability(grid, ownerID, []SlotID{{Day: 0, Index: 1}, {Day: 5, Index: 0}})
	assert.ErrorIs(t, err, ErrInvalidSlot)
	assert.Equal(t, []SlotID{{Day: 0, Index: 0}}, meeting.Availability(ownerID), "a rejected save leaves the old selection")

	err = meeting.SetAvailability(grid, ownerID, []SlotID{{Day: 0, Index: grid.SlotsPerDay()}})
	assert.ErrorIs(t, err, ErrInvalidSlot)

	err = meeting.SetAvailability(grid, uuid.New(), []SlotID{{Day: 0, Index: 0}})
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestMeeting_CountAtIgnoresPending(t *testing.T) {
	grid := DefaultSlotGrid()
	meeting, ownerID := newTestMeeting(t, 4)
	approved := addApproved(t, meeting, ownerID)
	pending := uuid.New()
	require.NoError(t, meeting.RequestToJoin(pending, time.Now()))

	slot := SlotID{Day: 2, Index: 5}
	require.NoError(t, meeting.SetAvailability(grid, ownerID, []SlotID{slot}))
	require.NoError(t, meeting.SetAvailability(grid, approved, []SlotID{slot}))
	require.NoError(t, meeting.SetAvailability(grid, pending, []SlotID{slot}))

	assert.Equal(t, 2, meeting.CountAt(slot))
	assert.Equal(t, 2, meeting.SlotCounts()[slot])
	assert.Equal(t, 0, meeting.CountAt(SlotID{Day: 2, Index: 6}))
	assert.ElementsMatch(t, []uuid.UUID{ownerID, approved}, meeting.ParticipantsWithAnySelection())
}

func TestMeeting_LeaveDropsAvailability(t *testing.T) {
	grid := DefaultSlotGrid()
	meeting, ownerID := newTestMeeting(t, 4)
	member := addApproved(t, meeting, ownerID)
	require.NoError(t, meeting.SetAvailability(grid, member, []SlotID{{Day: 0, Index: 0}}))

	require.NoError(t, meeting.Leave(member))
	assert.Equal(t, 0, meeting.CountAt(SlotID{Day: 0, Index: 0}))
	assert.Empty(t, meeting.Availability(member))
}

func TestMeeting_SuggestedSchedule(t *testing.T) {
	meeting, ownerID := newTestMeeting(t, 4)
	member := addApproved(t, meeting, ownerID)
	meeting.ClearDomainEvents()

	schedule := SuggestedSchedule{Date: "2026-10-19", StartTime: "14:00", EndTime: "15:00"}
	assert.ErrorIs(t, meeting.CommitSuggestedSchedule(member, schedule), ErrNotOwner)

	require.NoError(t, meeting.CommitSuggestedSchedule(ownerID, schedule))
	committed := meeting.SuggestedSchedule()
	require.NotNil(t, committed)
	assert.NotEqual(t, uuid.Nil, committed.ID)

	require.Len(t, meeting.DomainEvents(), 1)
	event, ok := meeting.DomainEvents()[0].(*SuggestedScheduleCommitted)
	require.True(t, ok)
	assert.Equal(t, committed.ID, event.ScheduleID)
	assert.ElementsMatch(t, []uuid.UUID{ownerID, member}, event.ParticipantIDs)
	assert.Equal(t, []Occurrence{{Date: "2026-10-19", StartTime: "14:00", EndTime: "15:00"}}, event.Occurrences)

	assert.ErrorIs(t, meeting.CommitSuggestedSchedule(ownerID, schedule), ErrScheduleAlreadyExists)

	_, err := meeting.RemoveSuggestedSchedule(member)
	assert.ErrorIs(t, err, ErrNotOwner)

	removed, err := meeting.RemoveSuggestedSchedule(ownerID)
	require.NoError(t, err)
	assert.Equal(t, committed.ID, removed.ID)
	assert.Nil(t, meeting.SuggestedSchedule())

	_, err = meeting.RemoveSuggestedSchedule(ownerID)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestMeeting_CommitSuggestedSchedule_InvalidTimes(t *testing.T) {
	meeting, ownerID := newTestMeeting(t, 4)

	err := meeting.CommitSuggestedSchedule(ownerID, SuggestedSchedule{Date: "2026-10-19", StartTime: "15:00", EndTime: "14:00"})
	assert.ErrorIs(t, err, ErrInvalidSchedule)
	assert.Nil(t, meeting.SuggestedSchedule())
}

func TestMeeting_RecurringSchedule(t *testing.T) {
	meeting, ownerID := newTestMeeting(t, 4)
	pattern := RecurringSchedule{
		Frequency: FrequencyWeekly,
		DayOfWeek: time.Tuesday,
		StartTime: "18:00",
		EndTime:   "19:30",
		From:      "2026-11-01",
		Until:     "2026-11-30",
	}

	replaced, err := meeting.SetRecurringSchedule(ownerID, pattern, nil)
	require.NoError(t, err)
	assert.Nil(t, replaced)
	first := meeting.RecurringSchedule()
	require.NotNil(t, first)

	pattern.Frequency = FrequencyBiweekly
	replaced, err = meeting.SetRecurringSchedule(ownerID, pattern, nil)
	require.NoError(t, err)
	require.NotNil(t, replaced)
	assert.Equal(t, first.ID, replaced.ID)
	assert.NotEqual(t, first.ID, meeting.RecurringSchedule().ID)

	_, err = meeting.SetRecurringSchedule(uuid.New(), pattern, nil)
	assert.ErrorIs(t, err, ErrNotOwner)

	removed, err := meeting.RemoveRecurringSchedule(ownerID)
	require.NoError(t, err)
	assert.Equal(t, FrequencyBiweekly, removed.Frequency)
	_, err = meeting.RemoveRecurringSchedule(ownerID)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestRecurringSchedule_Validate(t *testing.T) {
	valid := RecurringSchedule{
		Frequency: FrequencyWeekly,
		DayOfWeek: time.Monday,
		StartTime: "10:00",
		EndTime:   "11:00",
		From:      "2026-01-01",
		Until:     "2026-03-01",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(r *RecurringSchedule)
	}{
		{"frequency", func(r *RecurringSchedule) { r.Frequency = "monthly" }},
		{"day", func(r *RecurringSchedule) { r.DayOfWeek = 7 }},
		{"end before start", func(r *RecurringSchedule) { r.EndTime = "09:00" }},
		{"bad time", func(r *RecurringSchedule) { r.StartTime = "ten" }},
		{"bad date", func(r *RecurringSchedule) { r.From = "01/01/2026" }},
		{"until before from", func(r *RecurringSchedule) { r.Until = "2025-12-31" }},
		{"too long", func(r *RecurringSchedule) { r.Until = "2027-06-01" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := valid
			tc.mutate(&r)
			assert.ErrorIs(t, r.Validate(), ErrInvalidSchedule)
		})
	}
}
