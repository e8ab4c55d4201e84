package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerFixture struct {
	register *Register
	owner    uuid.UUID
	roster   []uuid.UUID
}

func newRegisterFixture() registerFixture {
	owner := uuid.New()
	return registerFixture{
		register: NewRegister(uuid.New()),
		owner:    owner,
		roster:   []uuid.UUID{owner, uuid.New(), uuid.New()},
	}
}

func (f registerFixture) start(t *testing.T, date string, now time.Time) SessionState {
	t.Helper()
	s, err := f.register.Start(f.owner, f.owner, date, now, DefaultSessionTTL, StaticCode("K7Q2MX"), f.roster)
	require.NoError(t, err)
	return s
}

func TestRegister_ExpiryScenario(t *testing.T) {
	f := newRegisterFixture()
	a, b, c := f.roster[0], f.roster[1], f.roster[2]
	f.start(t, "2026-10-15", t0)

	require.NoError(t, f.register.Submit(a, "K7Q2MX", t0.Add(10*time.Second), f.roster))
	require.NoError(t, f.register.Submit(b, "k7q2mx", t0.Add(20*time.Second), f.roster))

	record, err := f.register.ExpireIfDue(t0.Add(180*time.Second), f.roster)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, []uuid.UUID{a, b}, record.AttendeeIDs())
	assert.Equal(t, 3, record.TotalParticipants())
	assert.Equal(t, 67, record.RatePercent())
	assert.False(t, record.Attended(c))
	assert.Nil(t, f.register.Session())
	assert.True(t, f.register.CompletedOn("2026-10-15"))
}

func TestRegister_EndTwiceProducesOneRecord(t *testing.T) {
	f := newRegisterFixture()
	f.start(t, "2026-10-15", t0)

	first, err := f.register.End(f.owner, f.owner, t0.Add(time.Minute), f.roster)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := f.register.End(f.owner, f.owner, t0.Add(2*time.Minute), f.roster)
	require.NoError(t, err)
	assert.Nil(t, second)

	assert.Len(t, f.register.History(), 1)
	assert.Len(t, f.register.UnsavedRecords(), 1)
}

func TestRegister_AlreadyFinalizedToday(t *testing.T) {
	f := newRegisterFixture()
	f.start(t, "2026-10-15", t0)
	_, err := f.register.End(f.owner, f.owner, t0.Add(time.Minute), f.roster)
	require.NoError(t, err)

	_, err = f.register.Start(f.owner, f.owner, "2026-10-15", t0.Add(time.Hour), DefaultSessionTTL, StaticCode("NEW234"), f.roster)
	assert.ErrorIs(t, err, ErrAlreadyFinalizedToday)

	next := f.start(t, "2026-10-16", t0.Add(24*time.Hour))
	assert.Equal(t, "2026-10-16", next.Date)
}

func TestRegister_StartReturnsOpenSession(t *testing.T) {
	f := newRegisterFixture()
	first := f.start(t, "2026-10-15", t0)
	f.register.ClearDomainEvents()

	again, err := f.register.Start(f.owner, f.owner, "2026-10-15", t0.Add(time.Minute), DefaultSessionTTL, StaticCode("OTHER2"), f.roster)

	require.NoError(t, err)
	assert.Equal(t, first.Code, again.Code)
	assert.Equal(t, first.EndsAt, again.EndsAt)
	assert.Empty(t, f.register.DomainEvents())
}

func TestRegister_StartFinalizesStaleSession(t *testing.T) {
	t.Run("expired on the same date", func(t *testing.T) {
		f := newRegisterFixture()
		f.start(t, "2026-10-15", t0)

		_, err := f.register.Start(f.owner, f.owner, "2026-10-15", t0.Add(10*time.Minute), DefaultSessionTTL, StaticCode("NEW234"), f.roster)

		assert.ErrorIs(t, err, ErrAlreadyFinalizedToday)
		assert.Len(t, f.register.UnsavedRecords(), 1, "the stale session is still finalized")
	})

	t.Run("left open from another date", func(t *testing.T) {
		f := newRegisterFixture()
		f.start(t, "2026-10-14", t0.Add(-24*time.Hour))

		s := f.start(t, "2026-10-15", t0)

		assert.Equal(t, "2026-10-15", s.Date)
		_, ok := f.register.Record("2026-10-14")
		assert.True(t, ok)
	})
}

func TestRegister_Authorization(t *testing.T) {
	f := newRegisterFixture()
	stranger := uuid.New()

	_, err := f.register.Start(stranger, f.owner, "2026-10-15", t0, DefaultSessionTTL, StaticCode("K7Q2MX"), f.roster)
	assert.ErrorIs(t, err, ErrNotOwner)

	f.start(t, "2026-10-15", t0)
	assert.ErrorIs(t, f.register.Submit(stranger, "K7Q2MX", t0, f.roster), ErrNotParticipant)

	_, err = f.register.End(f.roster[1], f.owner, t0, f.roster)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestRegister_InvalidDate(t *testing.T) {
	f := newRegisterFixture()
	_, err := f.register.Start(f.owner, f.owner, "15/10/2026", t0, DefaultSessionTTL, StaticCode("K7Q2MX"), f.roster)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestRegister_LateSubmitFinalizes(t *testing.T) {
	f := newRegisterFixture()
	a, b := f.roster[0], f.roster[1]
	f.start(t, "2026-10-15", t0)
	require.NoError(t, f.register.Submit(a, "K7Q2MX", t0.Add(time.Second), f.roster))

	err := f.register.Submit(b, "K7Q2MX", t0.Add(181*time.Second), f.roster)

	assert.ErrorIs(t, err, ErrSessionNotActive)
	record, ok := f.register.Record("2026-10-15")
	require.True(t, ok)
	assert.Equal(t, []uuid.UUID{a}, record.AttendeeIDs(), "a late code never lands in the record")

	assert.ErrorIs(t, f.register.Submit(b, "K7Q2MX", t0.Add(182*time.Second), f.roster), ErrSessionNotActive)
}

func TestRegister_DuplicateSubmit(t *testing.T) {
	f := newRegisterFixture()
	a := f.roster[1]
	f.start(t, "2026-10-15", t0)
	f.register.ClearDomainEvents()

	require.NoError(t, f.register.Submit(a, "K7Q2MX", t0.Add(time.Second), f.roster))
	require.NoError(t, f.register.Submit(a, "K7Q2MX", t0.Add(2*time.Second), f.roster))

	assert.Len(t, f.register.Session().Attendees, 1)
	assert.Len(t, f.register.DomainEvents(), 1)
}

func TestRegister_RecordUsesRosterAtClose(t *testing.T) {
	f := newRegisterFixture()
	leaver := f.roster[2]
	f.start(t, "2026-10-15", t0)
	require.NoError(t, f.register.Submit(leaver, "K7Q2MX", t0.Add(time.Second), f.roster))

	record, err := f.register.End(f.owner, f.owner, t0.Add(time.Minute), f.roster[:2])

	require.NoError(t, err)
	assert.Equal(t, 2, record.TotalParticipants())
	assert.Zero(t, record.AttendedCount())
}

func TestRegister_EventsAndHistoryOrder(t *testing.T) {
	f := newRegisterFixture()
	for i, date := range []string{"2026-10-13", "2026-10-15", "2026-10-14"} {
		now := t0.Add(time.Duration(i) * time.Hour)
		f.start(t, date, now)
		_, err := f.register.End(f.owner, f.owner, now.Add(time.Minute), f.roster)
		require.NoError(t, err)
	}

	var dates []string
	for _, rec := range f.register.History() {
		dates = append(dates, rec.Date)
	}
	assert.Equal(t, []string{"2026-10-15", "2026-10-14", "2026-10-13"}, dates)

	var keys []string
	for _, e := range f.register.DomainEvents() {
		keys = append(keys, e.RoutingKey())
	}
	assert.Equal(t, []string{
		RoutingKeySessionStarted, RoutingKeySessionFinalized,
		RoutingKeySessionStarted, RoutingKeySessionFinalized,
		RoutingKeySessionStarted, RoutingKeySessionFinalized,
	}, keys)
}
