package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const outboxColumns = `id, event_id, aggregate_type, aggregate_id, routing_key, payload, created_at,
	published_at, next_retry_at, retry_count, last_error, dead_lettered_at, dead_letter_reason`

// SQLRepository stores the outbox in the outbox_events table on either driver.
type SQLRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLRepository creates an outbox repository.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn, now: time.Now}
}

// Save stores a new outbox message.
func (r *SQLRepository) Save(ctx context.Context, msg *Message) error {
	exec := database.BoundExecutorFromContext(ctx, r.conn)
	return r.insert(ctx, exec, msg)
}

// SaveBatch stores messages in the caller's transaction, or in its own when
// ctx carries none.
func (r *SQLRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if _, ok := database.TxInfoFromContext(ctx); ok {
		exec := database.BoundExecutorFromContext(ctx, r.conn)
		for _, msg := range msgs {
			if err := r.insert(ctx, exec, msg); err != nil {
				return err
			}
		}
		return nil
	}

	uow := database.NewUnitOfWork(r.conn)
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}
	exec := database.BoundExecutorFromContext(txCtx, r.conn)
	for _, msg := range msgs {
		if err := r.insert(txCtx, exec, msg); err != nil {
			_ = uow.Rollback(txCtx)
			return err
		}
	}
	return uow.Commit(txCtx)
}

func (r *SQLRepository) insert(ctx context.Context, exec database.Executor, msg *Message) error {
	return exec.QueryRow(ctx, `
		INSERT INTO outbox_events (event_id, aggregate_type, aggregate_id, routing_key, payload, created_at, retry_count)
		VALUES (?, ?, ?, ?, ?, ?, 0)
		RETURNING id`,
		msg.EventID.String(),
		msg.AggregateType,
		msg.AggregateID.String(),
		msg.RoutingKey,
		string(msg.Payload),
		msg.CreatedAt.UnixMilli(),
	).Scan(&msg.ID)
}

// GetUnpublished returns pending messages whose retry time has come.
func (r *SQLRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	return r.list(ctx, `
		SELECT `+outboxColumns+`
		FROM outbox_events
		WHERE published_at IS NULL AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY id
		LIMIT ?`,
		r.now().UnixMilli(), limit,
	)
}

// GetFailed returns retryable messages that have failed at least once.
func (r *SQLRepository) GetFailed(ctx context.Context, maxRetries, limit int) ([]*Message, error) {
	return r.list(ctx, `
		SELECT `+outboxColumns+`
		FROM outbox_events
		WHERE published_at IS NULL AND dead_lettered_at IS NULL
		  AND retry_count > 0 AND retry_count < ?
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY id
		LIMIT ?`,
		maxRetries, r.now().UnixMilli(), limit,
	)
}

// MarkPublished marks a message as successfully published.
func (r *SQLRepository) MarkPublished(ctx context.Context, id int64) error {
	exec := database.BoundExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `UPDATE outbox_events SET published_at = ?, next_retry_at = NULL WHERE id = ?`,
		r.now().UnixMilli(), id)
	return err
}

// MarkFailed records a publish failure and schedules the next attempt.
func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	exec := database.BoundExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		UPDATE outbox_events
		SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ?
		WHERE id = ?`,
		errMsg, nextRetryAt.UnixMilli(), id)
	return err
}

// MarkDead parks a message that exhausted its retries.
func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	exec := database.BoundExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		UPDATE outbox_events
		SET retry_count = retry_count + 1, dead_lettered_at = ?, dead_letter_reason = ?, last_error = ?
		WHERE id = ?`,
		r.now().UnixMilli(), reason, reason, id)
	return err
}

// DeleteOld removes published messages older than the retention period.
func (r *SQLRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	exec := database.BoundExecutorFromContext(ctx, r.conn)
	cutoff := r.now().AddDate(0, 0, -olderThanDays).UnixMilli()
	result, err := exec.Exec(ctx, `DELETE FROM outbox_events WHERE published_at IS NOT NULL AND published_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *SQLRepository) list(ctx context.Context, query string, args ...any) ([]*Message, error) {
	exec := database.BoundExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func scanMessage(row database.Row) (*Message, error) {
	var (
		msg                         Message
		eventID, aggregateID        string
		payload                     string
		createdAt                   int64
		publishedAt, nextRetryAt    sql.NullInt64
		deadLetteredAt              sql.NullInt64
		lastError, deadLetterReason sql.NullString
	)
	if err := row.Scan(
		&msg.ID, &eventID, &msg.AggregateType, &aggregateID, &msg.RoutingKey, &payload, &createdAt,
		&publishedAt, &nextRetryAt, &msg.RetryCount, &lastError, &deadLetteredAt, &deadLetterReason,
	); err != nil {
		return nil, err
	}

	var err error
	if msg.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, err
	}
	if msg.AggregateID, err = uuid.Parse(aggregateID); err != nil {
		return nil, err
	}
	msg.Payload = json.RawMessage(payload)
	msg.CreatedAt = time.UnixMilli(createdAt).UTC()
	msg.PublishedAt = millisPtr(publishedAt)
	msg.NextRetryAt = millisPtr(nextRetryAt)
	msg.DeadLetteredAt = millisPtr(deadLetteredAt)
	if lastError.Valid {
		msg.LastError = &lastError.String
	}
	if deadLetterReason.Valid {
		msg.DeadLetterReason = &deadLetterReason.String
	}
	return &msg, nil
}

func millisPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}
