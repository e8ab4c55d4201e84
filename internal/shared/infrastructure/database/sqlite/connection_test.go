package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/database"
)

func openFile(t *testing.T) database.Connection {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "huddle.db")
	conn, err := database.Open(context.Background(), database.Config{SQLitePath: path})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec(context.Background(), `CREATE TABLE attendees (meeting_id TEXT, user_id TEXT, PRIMARY KEY (meeting_id, user_id))`)
	require.NoError(t, err)
	return conn
}

func TestOpen_RegisteredDriver(t *testing.T) {
	conn := openFile(t)
	assert.Equal(t, database.DriverSQLite, conn.Driver())
	assert.NoError(t, conn.Ping(context.Background()))
}

func TestNewConnection_RequiresPath(t *testing.T) {
	_, err := NewConnection(context.Background(), database.Config{})
	assert.ErrorContains(t, err, "sqlite path is required")
}

func TestPathFromURL(t *testing.T) {
	assert.Equal(t, "/var/lib/huddle.db", pathFromURL("sqlite:///var/lib/huddle.db"))
	assert.Equal(t, "huddle.db", pathFromURL("file:huddle.db"))
	assert.Equal(t, "plain.db", pathFromURL("plain.db"))
}

func TestConnection_ExecQuery(t *testing.T) {
	ctx := context.Background()
	conn := openFile(t)

	res, err := conn.Exec(ctx, `INSERT INTO attendees VALUES (?, ?), (?, ?)`, "m1", "ada", "m1", "grace")
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	var first string
	require.NoError(t, conn.QueryRow(ctx, `SELECT user_id FROM attendees ORDER BY user_id LIMIT 1`).Scan(&first))
	assert.Equal(t, "ada", first)

	rows, err := conn.Query(ctx, `SELECT user_id FROM attendees WHERE meeting_id = ? ORDER BY user_id`, "m1")
	require.NoError(t, err)
	defer rows.Close()
	var users []string
	for rows.Next() {
		var u string
		require.NoError(t, rows.Scan(&u))
		users = append(users, u)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"ada", "grace"}, users)

	err = conn.QueryRow(ctx, `SELECT user_id FROM attendees WHERE meeting_id = ?`, "missing").Scan(&first)
	assert.True(t, database.IsNoRows(err))
}

func TestConnection_Transactions(t *testing.T) {
	tests := []struct {
		name   string
		commit bool
		want   int
	}{
		{"commit keeps writes", true, 1},
		{"rollback discards writes", false, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			conn := openFile(t)

			tx, err := conn.BeginTx(ctx)
			require.NoError(t, err)
			_, err = tx.Exec(ctx, `INSERT INTO attendees VALUES (?, ?)`, "m1", "ada")
			require.NoError(t, err)
			if tc.commit {
				require.NoError(t, tx.Commit(ctx))
			} else {
				require.NoError(t, tx.Rollback(ctx))
			}

			var count int
			require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM attendees`).Scan(&count))
			assert.Equal(t, tc.want, count)
		})
	}
}

func TestOpenMemory_NestedUnitOfWork(t *testing.T) {
	ctx := context.Background()
	conn, err := OpenMemory(ctx)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(ctx, `CREATE TABLE roster (user_id TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	uow := database.NewUnitOfWork(conn)
	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)

	// The inner commit belongs to the outer transaction.
	innerCtx, err := uow.Begin(txCtx)
	require.NoError(t, err)
	_, err = database.BoundExecutorFromContext(innerCtx, conn).Exec(innerCtx, `INSERT INTO roster (user_id) VALUES (?)`, "u-1")
	require.NoError(t, err)
	require.NoError(t, uow.Commit(innerCtx))

	require.NoError(t, uow.Rollback(txCtx))

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM roster`).Scan(&count))
	assert.Zero(t, count)
}
