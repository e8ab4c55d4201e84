package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/huddle/internal/attendance/domain"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *RegisterRepository {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrations.Run(ctx, conn))
	return NewRegisterRepository(conn)
}

var start = time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)

func TestRegisterRepository_FindMissingReturnsEmpty(t *testing.T) {
	repo := newTestRepo(t)

	register, err := repo.Find(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, register.Session())
	assert.Empty(t, register.History())
	assert.Equal(t, 0, register.Version())
}

func TestRegisterRepository_ActiveSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ownerID, memberID := uuid.New(), uuid.New()
	roster := []uuid.UUID{ownerID, memberID}
	meetingID := uuid.New()

	register := domain.NewRegister(meetingID)
	_, err := register.Start(ownerID, ownerID, "2026-10-15", start, domain.DefaultSessionTTL, domain.StaticCode("ABC123"), roster)
	require.NoError(t, err)
	require.NoError(t, register.Submit(memberID, "abc123", start.Add(time.Minute), roster))
	require.NoError(t, repo.Save(ctx, register))
	assert.Equal(t, 1, register.Version())

	loaded, err := repo.Find(ctx, meetingID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Version())

	session := loaded.Session()
	require.NotNil(t, session)
	assert.Equal(t, domain.SessionActive, session.Status)
	assert.Equal(t, "2026-10-15", session.Date)
	assert.Equal(t, "ABC123", session.Code)
	assert.True(t, session.StartedAt.Equal(start))
	assert.True(t, session.EndsAt.Equal(start.Add(domain.DefaultSessionTTL)))
	assert.Equal(t, []uuid.UUID{memberID}, session.Attendees)
}

func TestRegisterRepository_FinalizedRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ownerID, a, b := uuid.New(), uuid.New(), uuid.New()
	roster := []uuid.UUID{ownerID, a, b}
	meetingID := uuid.New()

	register := domain.NewRegister(meetingID)
	_, err := register.Start(ownerID, ownerID, "2026-10-15", start, domain.DefaultSessionTTL, domain.StaticCode("ABC123"), roster)
	require.NoError(t, err)
	require.NoError(t, register.Submit(ownerID, "ABC123", start.Add(10*time.Second), roster))
	require.NoError(t, register.Submit(a, "ABC123", start.Add(20*time.Second), roster))
	require.NoError(t, repo.Save(ctx, register))

	loaded, err := repo.Find(ctx, meetingID)
	require.NoError(t, err)
	_, err = loaded.End(ownerID, ownerID, start.Add(time.Minute), roster)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, loaded))
	assert.Equal(t, 2, loaded.Version())
	assert.Empty(t, loaded.UnsavedRecords())

	reloaded, err := repo.Find(ctx, meetingID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Session())
	assert.True(t, reloaded.CompletedOn("2026-10-15"))

	rec, ok := reloaded.Record("2026-10-15")
	require.True(t, ok)
	assert.Equal(t, 3, rec.TotalParticipants())
	assert.Equal(t, 2, rec.AttendedCount())
	assert.Equal(t, 67, rec.RatePercent())
	assert.True(t, rec.Attended(a))
	assert.False(t, rec.Attended(b))
	assert.True(t, rec.StartedAt.Equal(start))
}

func TestRegisterRepository_RestartClearsStaleAttendees(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ownerID, memberID := uuid.New(), uuid.New()
	roster := []uuid.UUID{ownerID, memberID}
	meetingID := uuid.New()

	register := domain.NewRegister(meetingID)
	_, err := register.Start(ownerID, ownerID, "2026-10-14", start.AddDate(0, 0, -1), domain.DefaultSessionTTL, domain.StaticCode("OLD111"), roster)
	require.NoError(t, err)
	require.NoError(t, register.Submit(memberID, "OLD111", start.AddDate(0, 0, -1).Add(time.Second), roster))
	require.NoError(t, repo.Save(ctx, register))

	loaded, err := repo.Find(ctx, meetingID)
	require.NoError(t, err)
	_, err = loaded.Start(ownerID, ownerID, "2026-10-15", start, domain.DefaultSessionTTL, domain.StaticCode("NEW222"), roster)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, loaded))

	reloaded, err := repo.Find(ctx, meetingID)
	require.NoError(t, err)
	session := reloaded.Session()
	require.NotNil(t, session)
	assert.Equal(t, "NEW222", session.Code)
	assert.Empty(t, session.Attendees)

	rec, ok := reloaded.Record("2026-10-14")
	require.True(t, ok)
	assert.True(t, rec.Attended(memberID))
}

func TestRegisterRepository_OptimisticVersion(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ownerID := uuid.New()
	roster := []uuid.UUID{ownerID}
	meetingID := uuid.New()

	register := domain.NewRegister(meetingID)
	_, err := register.Start(ownerID, ownerID, "2026-10-15", start, domain.DefaultSessionTTL, domain.StaticCode("ABC123"), roster)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, register))

	first, err := repo.Find(ctx, meetingID)
	require.NoError(t, err)
	second, err := repo.Find(ctx, meetingID)
	require.NoError(t, err)

	_, err = first.End(ownerID, ownerID, start.Add(time.Minute), roster)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.Submit(ownerID, "ABC123", start.Add(30*time.Second), roster))
	assert.ErrorIs(t, repo.Save(ctx, second), domain.ErrConcurrentModification)

	reloaded, err := repo.Find(ctx, meetingID)
	require.NoError(t, err)
	rec, ok := reloaded.Record("2026-10-15")
	require.True(t, ok)
	assert.Equal(t, 0, rec.AttendedCount())
}

func TestRegisterRepository_FindExpired(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ownerID := uuid.New()
	roster := []uuid.UUID{ownerID}

	early, late := uuid.New(), uuid.New()
	for _, tc := range []struct {
		id uuid.UUID
		at time.Time
	}{
		{late, start.Add(time.Minute)},
		{early, start},
	} {
		register := domain.NewRegister(tc.id)
		_, err := register.Start(ownerID, ownerID, "2026-10-15", tc.at, domain.DefaultSessionTTL, domain.StaticCode("ABC123"), roster)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, register))
	}

	ids, err := repo.FindExpired(ctx, start.Add(domain.DefaultSessionTTL), 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{early}, ids)

	ids, err = repo.FindExpired(ctx, start.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{early, late}, ids)

	ids, err = repo.FindExpired(ctx, start.Add(time.Hour), 1)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}
