package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/huddle/internal/attendance/domain"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// RegisterRepository implements domain.Repository on either database driver.
type RegisterRepository struct {
	conn database.Connection
}

// NewRegisterRepository creates a register repository.
func NewRegisterRepository(conn database.Connection) *RegisterRepository {
	return &RegisterRepository{conn: conn}
}

// Save writes the register row, the open session and any newly finalized
// records inside the caller's transaction, or its own.
func (r *RegisterRepository) Save(ctx context.Context, register *domain.Register) error {
	if _, ok := database.TxInfoFromContext(ctx); ok {
		return r.save(ctx, register)
	}
	uow := database.NewUnitOfWork(r.conn)
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}
	if err := r.save(txCtx, register); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}
	return uow.Commit(txCtx)
}

func (r *RegisterRepository) save(ctx context.Context, register *domain.Register) error {
	exec := database.BoundExecutorFromContext(ctx, r.conn)
	id := register.MeetingID().String()
	updatedAt := register.UpdatedAt().UnixMilli()

	if register.Version() == 0 {
		if _, err := exec.Exec(ctx, `
			INSERT INTO attendance_registers (meeting_id, version, updated_at) VALUES (?, 1, ?)`,
			id, updatedAt,
		); err != nil {
			return fmt.Errorf("insert attendance register: %w", err)
		}
	} else {
		result, err := exec.Exec(ctx, `
			UPDATE attendance_registers SET version = version + 1, updated_at = ?
			WHERE meeting_id = ? AND version = ?`,
			updatedAt, id, register.Version(),
		)
		if err != nil {
			return fmt.Errorf("update attendance register: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrConcurrentModification
		}
	}

	if err := r.saveSession(ctx, exec, id, register.Session(), updatedAt); err != nil {
		return err
	}
	for _, rec := range register.UnsavedRecords() {
		if err := r.insertRecord(ctx, exec, rec); err != nil {
			return err
		}
	}

	register.MarkSaved()
	register.IncrementVersion()
	return nil
}

func (r *RegisterRepository) saveSession(ctx context.Context, exec database.Executor, meetingID string, session *domain.SessionState, checkedInAt int64) error {
	if session == nil {
		if _, err := exec.Exec(ctx, `DELETE FROM attendance_session_attendees WHERE meeting_id = ?`, meetingID); err != nil {
			return fmt.Errorf("clear attendees: %w", err)
		}
		if _, err := exec.Exec(ctx, `DELETE FROM attendance_sessions WHERE meeting_id = ?`, meetingID); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return nil
	}

	startedAt := session.StartedAt.UnixMilli()
	// Attendees of an earlier session never carry over.
	if _, err := exec.Exec(ctx, `
		DELETE FROM attendance_session_attendees
		WHERE meeting_id IN (SELECT meeting_id FROM attendance_sessions WHERE meeting_id = ? AND started_at <> ?)`,
		meetingID, startedAt,
	); err != nil {
		return fmt.Errorf("clear stale attendees: %w", err)
	}

	if _, err := exec.Exec(ctx, `
		INSERT INTO attendance_sessions (meeting_id, date, code, started_at, ends_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (meeting_id) DO UPDATE SET
			date = excluded.date,
			code = excluded.code,
			started_at = excluded.started_at,
			ends_at = excluded.ends_at`,
		meetingID, session.Date, session.Code, startedAt, session.EndsAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	for _, userID := range session.Attendees {
		if _, err := exec.Exec(ctx, `
			INSERT INTO attendance_session_attendees (meeting_id, user_id, checked_in_at)
			VALUES (?, ?, ?)
			ON CONFLICT (meeting_id, user_id) DO NOTHING`,
			meetingID, userID.String(), checkedInAt,
		); err != nil {
			return fmt.Errorf("insert attendee: %w", err)
		}
	}
	return nil
}

func (r *RegisterRepository) insertRecord(ctx context.Context, exec database.Executor, rec domain.HistoryRecord) error {
	result, err := exec.Exec(ctx, `
		INSERT INTO attendance_records
			(id, meeting_id, date, started_at, finalized_at, total_participants, attended_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (meeting_id, date) DO NOTHING`,
		rec.ID.String(), rec.MeetingID.String(), rec.Date, rec.StartedAt.UnixMilli(), rec.FinalizedAt.UnixMilli(),
		rec.TotalParticipants(), rec.AttendedCount(),
	)
	if err != nil {
		return fmt.Errorf("insert attendance record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return nil
	}

	for _, m := range rec.Members {
		if _, err := exec.Exec(ctx, `
			INSERT INTO attendance_record_members (record_id, user_id, attended) VALUES (?, ?, ?)`,
			rec.ID.String(), m.UserID.String(), boolToInt(m.Attended),
		); err != nil {
			return fmt.Errorf("insert record member: %w", err)
		}
	}
	return nil
}

// Find loads a register; a meeting without one gets an empty register.
func (r *RegisterRepository) Find(ctx context.Context, meetingID uuid.UUID) (*domain.Register, error) {
	exec := database.BoundExecutorFromContext(ctx, r.conn)
	id := meetingID.String()

	var version int
	var updatedAt int64
	err := exec.QueryRow(ctx, `SELECT version, updated_at FROM attendance_registers WHERE meeting_id = ?`, id).
		Scan(&version, &updatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return domain.NewRegister(meetingID), nil
		}
		return nil, err
	}

	session, err := loadSession(ctx, exec, id)
	if err != nil {
		return nil, err
	}
	records, err := loadRecords(ctx, exec, meetingID)
	if err != nil {
		return nil, err
	}
	return domain.RehydrateRegister(meetingID, session, records, version, time.UnixMilli(updatedAt).UTC()), nil
}

func loadSession(ctx context.Context, exec database.Executor, meetingID string) (*domain.SessionState, error) {
	var date, code string
	var startedAt, endsAt int64
	err := exec.QueryRow(ctx, `
		SELECT date, code, started_at, ends_at FROM attendance_sessions WHERE meeting_id = ?`, meetingID).
		Scan(&date, &code, &startedAt, &endsAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := exec.Query(ctx, `
		SELECT user_id FROM attendance_session_attendees
		WHERE meeting_id = ?
		ORDER BY checked_in_at, user_id`, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attendees := []uuid.UUID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		attendees = append(attendees, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.SessionState{
		Status:    domain.SessionActive,
		Date:      date,
		Code:      code,
		StartedAt: time.UnixMilli(startedAt).UTC(),
		EndsAt:    time.UnixMilli(endsAt).UTC(),
		Attendees: attendees,
	}, nil
}

func loadRecords(ctx context.Context, exec database.Executor, meetingID uuid.UUID) ([]domain.HistoryRecord, error) {
	rows, err := exec.Query(ctx, `
		SELECT id, date, started_at, finalized_at FROM attendance_records
		WHERE meeting_id = ?
		ORDER BY date DESC`, meetingID.String())
	if err != nil {
		return nil, err
	}
	var records []domain.HistoryRecord
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var raw, date string
		var startedAt, finalizedAt int64
		if err := rows.Scan(&raw, &date, &startedAt, &finalizedAt); err != nil {
			rows.Close()
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[id] = len(records)
		records = append(records, domain.HistoryRecord{
			ID:          id,
			MeetingID:   meetingID,
			Date:        date,
			StartedAt:   time.UnixMilli(startedAt).UTC(),
			FinalizedAt: time.UnixMilli(finalizedAt).UTC(),
			Members:     []domain.MemberAttendance{},
		})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(records) == 0 {
		return records, nil
	}

	members, err := exec.Query(ctx, `
		SELECT m.record_id, m.user_id, m.attended
		FROM attendance_record_members m
		JOIN attendance_records r ON r.id = m.record_id
		WHERE r.meeting_id = ?
		ORDER BY m.record_id, m.user_id`, meetingID.String())
	if err != nil {
		return nil, err
	}
	defer members.Close()

	for members.Next() {
		var rawRecord, rawUser string
		var attended int
		if err := members.Scan(&rawRecord, &rawUser, &attended); err != nil {
			return nil, err
		}
		recordID, err := uuid.Parse(rawRecord)
		if err != nil {
			return nil, err
		}
		userID, err := uuid.Parse(rawUser)
		if err != nil {
			return nil, err
		}
		i, ok := index[recordID]
		if !ok {
			continue
		}
		records[i].Members = append(records[i].Members, domain.MemberAttendance{UserID: userID, Attended: attended != 0})
	}
	return records, members.Err()
}

// FindExpired lists meetings whose open session ended at or before now,
// earliest deadline first.
func (r *RegisterRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 100
	}
	exec := database.BoundExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `
		SELECT meeting_id FROM attendance_sessions
		WHERE ends_at <= ?
		ORDER BY ends_at
		LIMIT ?`, now.UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
