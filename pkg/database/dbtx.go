package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface shared by *pgxpool.Pool, pgx.Tx and the pgxmock
// pool. Repositories depend on it instead of a concrete pool.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner is a DBTX that can also open a transaction.
type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}
