package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/huddle/internal/calendar/domain"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const personalEventColumns = `id, user_id, meeting_id, schedule_id, source, title, date, start_time, end_time, location, created_at`

// PersonalEventRepository implements domain.Repository for both drivers.
type PersonalEventRepository struct {
	conn database.Connection
}

// NewPersonalEventRepository creates a personal event repository.
func NewPersonalEventRepository(conn database.Connection) *PersonalEventRepository {
	return &PersonalEventRepository{conn: conn}
}

// SaveBatch inserts events in one transaction. Existing IDs are skipped.
func (r *PersonalEventRepository) SaveBatch(ctx context.Context, events []domain.PersonalEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	if _, ok := database.TxInfoFromContext(ctx); ok {
		return r.saveBatch(ctx, events)
	}

	uow := database.NewUnitOfWork(r.conn)
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return 0, err
	}
	inserted, err := r.saveBatch(txCtx, events)
	if err != nil {
		_ = uow.Rollback(txCtx)
		return 0, err
	}
	if err := uow.Commit(txCtx); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *PersonalEventRepository) saveBatch(ctx context.Context, events []domain.PersonalEvent) (int, error) {
	exec := database.BoundExecutorFromContext(ctx, r.conn)
	inserted := 0
	for _, e := range events {
		result, err := exec.Exec(ctx, `
			INSERT INTO personal_events (`+personalEventColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`,
			e.ID.String(), e.UserID.String(), e.MeetingID.String(), e.ScheduleID.String(), string(e.Source),
			e.Title, e.Date, e.StartTime, e.EndTime, e.Location, e.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert personal event: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return inserted, err
		}
		inserted += int(n)
	}
	return inserted, nil
}

// DeleteByTag removes every event of meetingID produced by source.
func (r *PersonalEventRepository) DeleteByTag(ctx context.Context, meetingID uuid.UUID, source domain.Source) (int, error) {
	exec := database.BoundExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `DELETE FROM personal_events WHERE meeting_id = ? AND source = ?`,
		meetingID.String(), string(source))
	if err != nil {
		return 0, fmt.Errorf("delete personal events: %w", err)
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// ListForUser returns userID's events between from and to, inclusive.
func (r *PersonalEventRepository) ListForUser(ctx context.Context, userID uuid.UUID, from, to string) ([]domain.PersonalEvent, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + personalEventColumns + ` FROM personal_events WHERE user_id = ?`)
	args := []any{userID.String()}
	if from != "" {
		b.WriteString(` AND date >= ?`)
		args = append(args, from)
	}
	if to != "" {
		b.WriteString(` AND date <= ?`)
		args = append(args, to)
	}
	b.WriteString(` ORDER BY date, start_time, title`)
	return r.list(ctx, b.String(), args...)
}

// ListByTag returns every event of meetingID produced by source.
func (r *PersonalEventRepository) ListByTag(ctx context.Context, meetingID uuid.UUID, source domain.Source) ([]domain.PersonalEvent, error) {
	return r.list(ctx, `
		SELECT `+personalEventColumns+` FROM personal_events
		WHERE meeting_id = ? AND source = ?
		ORDER BY date, start_time, user_id`,
		meetingID.String(), string(source))
}

func (r *PersonalEventRepository) list(ctx context.Context, query string, args ...any) ([]domain.PersonalEvent, error) {
	exec := database.BoundExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []domain.PersonalEvent{}
	for rows.Next() {
		event, err := scanPersonalEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanPersonalEvent(row database.Row) (domain.PersonalEvent, error) {
	var (
		id, userID, meetingID, scheduleID, source string
		e                                         domain.PersonalEvent
		createdAt                                 int64
	)
	if err := row.Scan(&id, &userID, &meetingID, &scheduleID, &source,
		&e.Title, &e.Date, &e.StartTime, &e.EndTime, &e.Location, &createdAt); err != nil {
		return domain.PersonalEvent{}, err
	}

	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return domain.PersonalEvent{}, err
	}
	if e.UserID, err = uuid.Parse(userID); err != nil {
		return domain.PersonalEvent{}, err
	}
	if e.MeetingID, err = uuid.Parse(meetingID); err != nil {
		return domain.PersonalEvent{}, err
	}
	if e.ScheduleID, err = uuid.Parse(scheduleID); err != nil {
		return domain.PersonalEvent{}, err
	}
	e.Source = domain.Source(source)
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	return e, nil
}
