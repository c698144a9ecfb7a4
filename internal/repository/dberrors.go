package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"agentbay/internal/biddingerrors"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Postgres SQLSTATE codes the store translates
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

type errKind int

const (
	kindOther errKind = iota
	kindUnique
	kindForeignKey
	kindBusy
)

func driverErrKind(err error) errKind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return kindUnique
		case pgForeignKeyViolation:
			return kindForeignKey
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return kindBusy
		}
		return kindOther
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		switch code & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return kindBusy
		case sqlite3.SQLITE_CONSTRAINT:
			msg := liteErr.Error()
			switch {
			case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || strings.Contains(msg, "UNIQUE"):
				return kindUnique
			case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY || strings.Contains(msg, "FOREIGN KEY"):
				return kindForeignKey
			}
		}
	}
	return kindOther
}

// wrapDBError translates a driver error into the bidding error taxonomy.
// Callers that expect sql.ErrNoRows must handle it before calling.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, biddingerrors.ErrContention, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch driverErrKind(err) {
	case kindUnique:
		return fmt.Errorf("%s: %w", op, biddingerrors.ErrDuplicateBid)
	case kindForeignKey:
		return fmt.Errorf("%s: %w", op, biddingerrors.ErrProductNotFound)
	case kindBusy:
		return fmt.Errorf("%s: %w: %w", op, biddingerrors.ErrContention, err)
	}
	if errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("%s: %w: %w", op, biddingerrors.ErrContention, err)
	}
	return fmt.Errorf("%s: %w: %w", op, biddingerrors.ErrPersistence, err)
}
