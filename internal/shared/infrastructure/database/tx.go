package database

import (
	"context"
	"errors"
)

var errNoTransaction = errors.New("no transaction in context")

type txKey struct{}

// TxInfo is the transaction carried in a context. Owned is false when a
// nested unit of work joined an outer transaction and must not end it.
type TxInfo struct {
	Tx    Transaction
	Owned bool
}

// TxInfoFromContext returns the transaction stored by UnitOfWork.Begin.
func TxInfoFromContext(ctx context.Context) (TxInfo, bool) {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	if !ok || info.Tx == nil {
		return TxInfo{}, false
	}
	return info, true
}

// BoundExecutorFromContext returns the context's transaction, or conn when
// there is none, with '?' placeholders rebound for the connection's driver.
func BoundExecutorFromContext(ctx context.Context, conn Connection) Executor {
	var exec Executor = conn
	if info, ok := TxInfoFromContext(ctx); ok {
		exec = info.Tx
	}
	if conn.Driver() != DriverPostgres {
		return exec
	}
	return reboundExecutor{exec: exec, driver: conn.Driver()}
}

type reboundExecutor struct {
	exec   Executor
	driver Driver
}

func (r reboundExecutor) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	return r.exec.Exec(ctx, r.driver.Rebind(query), args...)
}

func (r reboundExecutor) QueryRow(ctx context.Context, query string, args ...any) Row {
	return r.exec.QueryRow(ctx, r.driver.Rebind(query), args...)
}

func (r reboundExecutor) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return r.exec.Query(ctx, r.driver.Rebind(query), args...)
}

// UnitOfWork implements application.UnitOfWork on a Connection. Begin
// inside an existing transaction joins it instead of opening a new one, so
// a repository that wraps its own writes still commits atomically with the
// command around it.
type UnitOfWork struct {
	conn Connection
}

func NewUnitOfWork(conn Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := TxInfoFromContext(ctx); ok {
		return context.WithValue(ctx, txKey{}, TxInfo{Tx: info.Tx}), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, txKey{}, TxInfo{Tx: tx, Owned: true}), nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return errNoTransaction
	}
	if !info.Owned {
		return nil
	}
	return info.Tx.Commit(ctx)
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return errNoTransaction
	}
	if !info.Owned {
		return nil
	}
	return info.Tx.Rollback(ctx)
}
