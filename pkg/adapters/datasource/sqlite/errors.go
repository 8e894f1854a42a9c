package sqlite

import (
	"context"
	"errors"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ekaya-inc/sqlite-mcp/pkg/apperrors"
)

// primaryCode returns the primary SQLite result code of err, or 0 when err
// did not come from the engine. Extended codes carry the primary code in
// their low byte.
func primaryCode(err error) int {
	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() & 0xff
	}
	return 0
}

// timedOut reports whether err was caused by the operation's deadline.
// The driver reports a context deadline as an interrupted statement.
func timedOut(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return primaryCode(err) == sqlite3.SQLITE_INTERRUPT && errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// mapOpenError converts a failure while opening or probing a database.
func mapOpenError(ctx context.Context, err error, path string) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	if timedOut(ctx, err) {
		return apperrors.Wrap(err, apperrors.KindConnection, apperrors.CodeTimeout,
			"timed out opening database %q", path)
	}
	switch primaryCode(err) {
	case sqlite3.SQLITE_NOTADB:
		return apperrors.Wrap(err, apperrors.KindConnection, apperrors.CodeUnreadable,
			"file %q is not a SQLite database", path)
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_PERM, sqlite3.SQLITE_AUTH:
		return apperrors.Wrap(err, apperrors.KindConnection, apperrors.CodeUnreadable,
			"database %q cannot be opened for reading", path)
	case sqlite3.SQLITE_CORRUPT:
		return apperrors.Wrap(err, apperrors.KindConnection, apperrors.CodeUnreadable,
			"database %q is corrupt", path)
	}
	return apperrors.Wrap(err, apperrors.KindConnection, apperrors.CodeUnreadable,
		"database %q could not be read", path)
}

// mapQueryError converts a failure while running a statement. The engine's
// message is kept as the cause for logs but never used as the message.
func mapQueryError(ctx context.Context, err error, op string) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	if timedOut(ctx, err) {
		return apperrors.Wrap(err, apperrors.KindExecution, apperrors.CodeTimeout,
			"%s exceeded the query timeout", op)
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.Wrap(err, apperrors.KindExecution, apperrors.CodeEngineFailure,
			"%s was cancelled", op)
	}
	return apperrors.Wrap(err, apperrors.KindExecution, apperrors.CodeEngineFailure,
		"%s failed", op)
}
