package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrDuplicate は一意制約違反を表す。
var ErrDuplicate = errors.New("duplicate key")

// pgUniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const pgUniqueViolation = "23505"

// wrapUniqueViolation は一意制約違反をErrDuplicateでラップする。
// それ以外のエラーはmsgを付けてラップする。
func wrapUniqueViolation(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// querier は*sql.DBと*sql.Txの共通インターフェース。
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// nullString は空文字列をNULLとして扱う。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullInt は0をNULLとして扱う。
func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}

// lookupOwner は所有者IDを返す1行クエリを実行する。
func lookupOwner(ctx context.Context, q querier, query string, args ...any) (string, bool, error) {
	var ownerID string
	err := q.QueryRowContext(ctx, query, args...).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up owner: %w", err)
	}
	return ownerID, true, nil
}
