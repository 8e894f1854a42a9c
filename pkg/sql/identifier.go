package sql

import (
	"regexp"
	"strings"
)

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// keywords holds the SQLite keywords that cannot appear as bare identifiers
// in emitted SQL, plus the handful of function-like keywords the reference
// extractor needs to skip.
var keywords = map[string]struct{}{}

func init() {
	for _, kw := range strings.Fields(`
		ABORT ACTION ADD AFTER ALL ALTER ALWAYS ANALYZE AND AS ASC ATTACH AUTOINCREMENT
		BEFORE BEGIN BETWEEN BY CASCADE CASE CAST CHECK COLLATE COLUMN COMMIT CONFLICT
		CONSTRAINT CREATE CROSS CURRENT CURRENT_DATE CURRENT_TIME CURRENT_TIMESTAMP
		DATABASE DEFAULT DEFERRABLE DEFERRED DELETE DESC DETACH DISTINCT DO DROP EACH
		ELSE END ESCAPE EXCEPT EXCLUDE EXCLUSIVE EXISTS EXPLAIN FAIL FILTER FIRST
		FOLLOWING FOR FOREIGN FROM FULL GENERATED GLOB GROUP GROUPS HAVING IF IGNORE
		IMMEDIATE IN INDEX INDEXED INITIALLY INNER INSERT INSTEAD INTERSECT INTO IS
		ISNULL JOIN KEY LAST LEFT LIKE LIMIT MATCH MATERIALIZED NATURAL NO NOT
		NOTHING NOTNULL NULL NULLS OF OFFSET ON OR ORDER OTHERS OUTER OVER PARTITION
		PLAN PRAGMA PRECEDING PRIMARY QUERY RAISE RANGE RECURSIVE REFERENCES REGEXP
		REINDEX RELEASE RENAME REPLACE RESTRICT RETURNING RIGHT ROLLBACK ROW ROWS
		SAVEPOINT SELECT SET TABLE TEMP TEMPORARY THEN TIES TO TRANSACTION TRIGGER
		TRUE FALSE UNBOUNDED UNION UNIQUE UPDATE USING VACUUM VALUES VIEW VIRTUAL
		WHEN WHERE WINDOW WITH WITHOUT`) {
		keywords[kw] = struct{}{}
	}
}

// IsKeyword reports whether word is a reserved SQLite keyword.
func IsKeyword(word string) bool {
	_, ok := keywords[strings.ToUpper(word)]
	return ok
}

// QuoteIdentifier wraps an identifier in double quotes, doubling any
// embedded quote so the result always parses as a single identifier.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// FormatIdentifier returns name unchanged when it is a plain word that is not
// a keyword, and quoted otherwise.
func FormatIdentifier(name string) string {
	if plainIdentifier.MatchString(name) && !IsKeyword(name) {
		return name
	}
	return QuoteIdentifier(name)
}

// NormalizeTableRef strips a schema qualifier such as "main." from a table
// reference.
func NormalizeTableRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if idx := strings.LastIndex(ref, "."); idx >= 0 && idx < len(ref)-1 {
		return ref[idx+1:]
	}
	return ref
}
