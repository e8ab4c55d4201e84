package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/huddle/internal/meetings/domain"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const meetingColumns = `id, owner_id, title, description, location, max_participants, status, version, created_at, updated_at`

// MeetingRepository implements domain.Repository on either database driver.
type MeetingRepository struct {
	conn database.Connection
	grid domain.SlotGrid
}

// NewMeetingRepository creates a meeting repository. Slot keys are decoded
// against grid; stored keys that fall outside it are skipped on load.
func NewMeetingRepository(conn database.Connection, grid domain.SlotGrid) *MeetingRepository {
	return &MeetingRepository{conn: conn, grid: grid}
}

// Save writes the meeting row, roster and schedules inside the caller's
// transaction, or its own. A stale version yields ErrConcurrentModification.
func (r *MeetingRepository) Save(ctx context.Context, meeting *domain.Meeting) error {
	if _, ok := database.TxInfoFromContext(ctx); ok {
		return r.save(ctx, meeting)
	}
	uow := database.NewUnitOfWork(r.conn)
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}
	if err := r.save(txCtx, meeting); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}
	return uow.Commit(txCtx)
}

func (r *MeetingRepository) save(ctx context.Context, meeting *domain.Meeting) error {
	exec := database.BoundExecutorFromContext(ctx, r.conn)
	id := meeting.ID().String()

	if meeting.Version() == 0 {
		_, err := exec.Exec(ctx, `
			INSERT INTO meetings (`+meetingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			id, meeting.OwnerID().String(), meeting.Title(), meeting.Description(), meeting.Location(),
			meeting.MaxParticipants(), string(meeting.Status()),
			meeting.CreatedAt().UnixMilli(), meeting.UpdatedAt().UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert meeting: %w", err)
		}
	} else {
		result, err := exec.Exec(ctx, `
			UPDATE meetings
			SET title = ?, description = ?, location = ?, max_participants = ?, status = ?,
			    version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?`,
			meeting.Title(), meeting.Description(), meeting.Location(), meeting.MaxParticipants(),
			string(meeting.Status()), meeting.UpdatedAt().UnixMilli(), id, meeting.Version(),
		)
		if err != nil {
			return fmt.Errorf("update meeting: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrConcurrentModification
		}
	}

	if err := r.saveParticipants(ctx, exec, meeting); err != nil {
		return err
	}
	if err := r.saveSchedules(ctx, exec, meeting); err != nil {
		return err
	}

	meeting.IncrementVersion()
	return nil
}

func (r *MeetingRepository) saveParticipants(ctx context.Context, exec database.Executor, meeting *domain.Meeting) error {
	id := meeting.ID().String()
	if _, err := exec.Exec(ctx, `DELETE FROM meeting_participants WHERE meeting_id = ?`, id); err != nil {
		return fmt.Errorf("clear participants: %w", err)
	}
	for _, p := range meeting.Participants() {
		if _, err := exec.Exec(ctx, `
			INSERT INTO meeting_participants (meeting_id, user_id, role, joined_at)
			VALUES (?, ?, ?, ?)`,
			id, p.UserID.String(), string(p.Role), p.JoinedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}

	// Selections of users no longer on the meeting go with them.
	_, err := exec.Exec(ctx, `
		DELETE FROM meeting_availability
		WHERE meeting_id = ?
		  AND user_id NOT IN (SELECT user_id FROM meeting_participants WHERE meeting_id = ?)`,
		id, id,
	)
	if err != nil {
		return fmt.Errorf("prune availability: %w", err)
	}
	return nil
}

func (r *MeetingRepository) saveSchedules(ctx context.Context, exec database.Executor, meeting *domain.Meeting) error {
	id := meeting.ID().String()
	if _, err := exec.Exec(ctx, `DELETE FROM meeting_suggested_schedules WHERE meeting_id = ?`, id); err != nil {
		return fmt.Errorf("clear suggested schedule: %w", err)
	}
	if s := meeting.SuggestedSchedule(); s != nil {
		if _, err := exec.Exec(ctx, `
			INSERT INTO meeting_suggested_schedules (meeting_id, id, date, start_time, end_time, location, committed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, s.ID.String(), s.Date, s.StartTime, s.EndTime, s.Location, s.CommittedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("insert suggested schedule: %w", err)
		}
	}

	if _, err := exec.Exec(ctx, `DELETE FROM meeting_recurring_schedules WHERE meeting_id = ?`, id); err != nil {
		return fmt.Errorf("clear recurring schedule: %w", err)
	}
	if rs := meeting.RecurringSchedule(); rs != nil {
		if _, err := exec.Exec(ctx, `
			INSERT INTO meeting_recurring_schedules
				(meeting_id, id, frequency, day_of_week, start_time, end_time, from_date, until_date, location, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, rs.ID.String(), string(rs.Frequency), int(rs.DayOfWeek), rs.StartTime, rs.EndTime,
			rs.From, rs.Until, rs.Location, rs.CreatedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("insert recurring schedule: %w", err)
		}
	}
	return nil
}

// ReplaceAvailability overwrites one participant's selection.
func (r *MeetingRepository) ReplaceAvailability(ctx context.Context, meetingID, userID uuid.UUID, slots []domain.SlotID) error {
	if _, ok := database.TxInfoFromContext(ctx); !ok {
		uow := database.NewUnitOfWork(r.conn)
		txCtx, err := uow.Begin(ctx)
		if err != nil {
			return err
		}
		if err := r.replaceAvailability(txCtx, meetingID, userID, slots); err != nil {
			_ = uow.Rollback(txCtx)
			return err
		}
		return uow.Commit(txCtx)
	}
	return r.replaceAvailability(ctx, meetingID, userID, slots)
}

func (r *MeetingRepository) replaceAvailability(ctx context.Context, meetingID, userID uuid.UUID, slots []domain.SlotID) error {
	exec := database.BoundExecutorFromContext(ctx, r.conn)
	if _, err := exec.Exec(ctx, `DELETE FROM meeting_availability WHERE meeting_id = ? AND user_id = ?`,
		meetingID.String(), userID.String()); err != nil {
		return fmt.Errorf("clear availability: %w", err)
	}
	for _, slot := range slots {
		if _, err := exec.Exec(ctx, `
			INSERT INTO meeting_availability (meeting_id, user_id, slot_key) VALUES (?, ?, ?)
			ON CONFLICT (meeting_id, user_id, slot_key) DO NOTHING`,
			meetingID.String(), userID.String(), r.grid.Key(slot),
		); err != nil {
			return fmt.Errorf("insert availability: %w", err)
		}
	}
	return nil
}

// FindByID loads a meeting or returns ErrMeetingNotFound.
func (r *MeetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Meeting, error) {
	exec := database.BoundExecutorFromContext(ctx, r.conn)
	row, err := scanMeetingRow(exec.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id.String()))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrMeetingNotFound
		}
		return nil, err
	}
	return r.hydrate(ctx, exec, row)
}

// FindByParticipant returns meetings the user owns, joined or asked to join,
// newest first.
func (r *MeetingRepository) FindByParticipant(ctx context.Context, userID uuid.UUID) ([]*domain.Meeting, error) {
	return r.findMany(ctx, `
		SELECT `+meetingColumns+` FROM meetings
		WHERE id IN (SELECT meeting_id FROM meeting_participants WHERE user_id = ?)
		ORDER BY created_at DESC`,
		userID.String(),
	)
}

// FindOpen lists meetings accepting join requests, newest first.
func (r *MeetingRepository) FindOpen(ctx context.Context, limit int) ([]*domain.Meeting, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.findMany(ctx, `
		SELECT `+meetingColumns+` FROM meetings
		WHERE status = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		string(domain.StatusOpen), limit,
	)
}

func (r *MeetingRepository) findMany(ctx context.Context, query string, args ...any) ([]*domain.Meeting, error) {
	exec := database.BoundExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var meetingRows []meetingRow
	for rows.Next() {
		row, err := scanMeetingRow(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		meetingRows = append(meetingRows, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	meetings := make([]*domain.Meeting, 0, len(meetingRows))
	for _, row := range meetingRows {
		meeting, err := r.hydrate(ctx, exec, row)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	return meetings, nil
}

type meetingRow struct {
	ID              string
	OwnerID         string
	Title           string
	Description     string
	Location        string
	MaxParticipants int
	Status          string
	Version         int
	CreatedAt       int64
	UpdatedAt       int64
}

func scanMeetingRow(row database.Row) (meetingRow, error) {
	var m meetingRow
	err := row.Scan(&m.ID, &m.OwnerID, &m.Title, &m.Description, &m.Location,
		&m.MaxParticipants, &m.Status, &m.Version, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *MeetingRepository) hydrate(ctx context.Context, exec database.Executor, row meetingRow) (*domain.Meeting, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	ownerID, err := uuid.Parse(row.OwnerID)
	if err != nil {
		return nil, err
	}

	participants, err := r.loadParticipants(ctx, exec, row.ID)
	if err != nil {
		return nil, err
	}
	availability, err := r.loadAvailability(ctx, exec, row.ID)
	if err != nil {
		return nil, err
	}
	suggested, err := loadSuggested(ctx, exec, row.ID)
	if err != nil {
		return nil, err
	}
	recurring, err := loadRecurring(ctx, exec, row.ID)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateMeeting(
		id, ownerID, row.Title, row.Description, row.Location, row.MaxParticipants,
		domain.RecruitmentStatus(row.Status), participants, availability, suggested, recurring,
		row.Version, time.UnixMilli(row.CreatedAt).UTC(), time.UnixMilli(row.UpdatedAt).UTC(),
	), nil
}

func (r *MeetingRepository) loadParticipants(ctx context.Context, exec database.Executor, meetingID string) ([]domain.Participant, error) {
	rows, err := exec.Query(ctx, `
		SELECT user_id, role, joined_at FROM meeting_participants
		WHERE meeting_id = ?
		ORDER BY CASE role WHEN 'owner' THEN 0 ELSE 1 END, joined_at, user_id`,
		meetingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var userID, role string
		var joinedAt int64
		if err := rows.Scan(&userID, &role, &joinedAt); err != nil {
			return nil, err
		}
		uid, err := uuid.Parse(userID)
		if err != nil {
			return nil, err
		}
		participants = append(participants, domain.Participant{
			UserID:   uid,
			Role:     domain.Role(role),
			JoinedAt: time.UnixMilli(joinedAt).UTC(),
		})
	}
	return participants, rows.Err()
}

func (r *MeetingRepository) loadAvailability(ctx context.Context, exec database.Executor, meetingID string) (map[uuid.UUID][]domain.SlotID, error) {
	rows, err := exec.Query(ctx, `SELECT user_id, slot_key FROM meeting_availability WHERE meeting_id = ?`, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	availability := make(map[uuid.UUID][]domain.SlotID)
	for rows.Next() {
		var userID, key string
		if err := rows.Scan(&userID, &key); err != nil {
			return nil, err
		}
		uid, err := uuid.Parse(userID)
		if err != nil {
			return nil, err
		}
		slot, err := r.grid.ParseSlotKey(key)
		if err != nil {
			continue
		}
		availability[uid] = append(availability[uid], slot)
	}
	return availability, rows.Err()
}

func loadSuggested(ctx context.Context, exec database.Executor, meetingID string) (*domain.SuggestedSchedule, error) {
	var (
		id          string
		s           domain.SuggestedSchedule
		committedAt int64
	)
	err := exec.QueryRow(ctx, `
		SELECT id, date, start_time, end_time, location, committed_at
		FROM meeting_suggested_schedules WHERE meeting_id = ?`,
		meetingID,
	).Scan(&id, &s.Date, &s.StartTime, &s.EndTime, &s.Location, &committedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	if s.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	s.CommittedAt = time.UnixMilli(committedAt).UTC()
	return &s, nil
}

func loadRecurring(ctx context.Context, exec database.Executor, meetingID string) (*domain.RecurringSchedule, error) {
	var (
		id        string
		frequency string
		dayOfWeek int
		createdAt int64
		location  sql.NullString
		rs        domain.RecurringSchedule
	)
	err := exec.QueryRow(ctx, `
		SELECT id, frequency, day_of_week, start_time, end_time, from_date, until_date, location, created_at
		FROM meeting_recurring_schedules WHERE meeting_id = ?`,
		meetingID,
	).Scan(&id, &frequency, &dayOfWeek, &rs.StartTime, &rs.EndTime, &rs.From, &rs.Until, &location, &createdAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	if rs.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	rs.Frequency = domain.Frequency(frequency)
	rs.DayOfWeek = time.Weekday(dayOfWeek)
	rs.Location = location.String
	rs.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &rs, nil
}
