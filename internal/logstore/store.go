// internal/logstore/store.go
//
// Email-log table access.
//
// Context
// -------
// Store is the only code that touches `email_log`.  Every method executes
// exactly one parameterised statement (Statistics runs two reads), so no
// transactions are needed.  Row ids come from the database auto-increment
// and `time` is stamped from the store clock, never from caller input.
//
// Workflow
// --------
//  1. Callers pass a context; deadlines flow into the driver.
//  2. Insert sanitizes fields before the write.
//  3. List/Count share one WHERE builder so totals always match pages.
//  4. Storage faults come back as *PersistenceError; "nothing matched" is
//     never an error.
//
// Notes
// -----
//   - SQL sticks to the subset MySQL and SQLite share: `?` placeholders,
//     LIKE with an explicit ESCAPE character, LIMIT/OFFSET.
//   - ORDER BY identifiers come only from the whitelist in model.go.
//   - Oxford commas, two spaces after periods.
package logstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/maillog/internal/sanitize"
)

const selectColumns = `SELECT id, time, to_email, subject, body, status FROM ` + Table

// likeEscape is the ESCAPE character for search patterns.  A non-backslash
// character behaves the same under every MySQL sql_mode and in SQLite.
const likeEscape = '!'

// Store is safe for concurrent use.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces the wall clock.  Tests use it to back-date rows.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New wraps an open pool.  The schema must already exist (see
// internal/database.Migrate).
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// clock returns the store time in UTC at microsecond precision, matching
// DATETIME(6).
func (s *Store) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

/*──────────────────────────────── writes ──────────────────────────────────*/

// Insert writes one row and returns its id.
func (s *Store) Insert(ctx context.Context, f Fields) (int64, error) {
	const q = `INSERT INTO ` + Table + ` (time, to_email, subject, body, status)
	           VALUES (?, ?, ?, ?, ?)`

	status := truncate(sanitize.Text(f.Status), MaxStatusLen)
	if status == "" {
		status = StatusSent
	}

	res, err := s.db.ExecContext(ctx, q,
		s.clock(),
		sanitize.AddressList(f.ToEmail),
		truncate(sanitize.Text(f.Subject), MaxSubjectLen),
		sanitize.HTML(f.Body),
		status,
	)
	if err != nil {
		return 0, fault("insert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fault("insert", err)
	}
	return id, nil
}

// DeleteByID removes one row.  It reports false, not an error, when the id
// does not exist.
func (s *Store) DeleteByID(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM ` + Table + ` WHERE id = ?`

	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, fault("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fault("delete", err)
	}
	return n > 0, nil
}

// DeleteOlderThan removes rows stamped before now minus days and returns
// the count.  Negative days are treated as zero.
func (s *Store) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	const q = `DELETE FROM ` + Table + ` WHERE time < ?`

	if days < 0 {
		days = 0
	}
	cutoff := s.clock().AddDate(0, 0, -days)

	res, err := s.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, fault("delete_older_than", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fault("delete_older_than", err)
	}
	return n, nil
}

// DeleteAll removes every row.  DELETE (not TRUNCATE) keeps the
// auto-increment counter, so ids are never reused.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	const q = `DELETE FROM ` + Table

	res, err := s.db.ExecContext(ctx, q)
	if err != nil {
		return 0, fault("delete_all", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fault("delete_all", err)
	}
	return n, nil
}

/*──────────────────────────────── reads ───────────────────────────────────*/

// GetByID returns one row or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	const q = selectColumns + ` WHERE id = ? LIMIT 1`

	var rec Record
	if err := s.db.GetContext(ctx, &rec, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fault("get", err)
	}
	return &rec, nil
}

// List returns one page of rows.  The query is normalized first, so any
// ListQuery is accepted.  An empty page is an empty, non-nil slice.
func (s *Store) List(ctx context.Context, lq ListQuery) ([]Record, error) {
	lq = lq.Normalize()
	where, args := searchClause(lq.Search)

	// Identifiers below come from the whitelist; values are bound.
	q := selectColumns + where +
		` ORDER BY ` + lq.OrderBy + ` ` + lq.Order + `, id ` + lq.Order +
		` LIMIT ? OFFSET ?`
	args = append(args, lq.PerPage, lq.Offset())

	rows := make([]Record, 0, lq.PerPage)
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fault("list", err)
	}
	return rows, nil
}

// Count returns the number of rows matching search (empty = all).
func (s *Store) Count(ctx context.Context, search string) (int64, error) {
	where, args := searchClause(strings.TrimSpace(search))
	q := `SELECT COUNT(*) FROM ` + Table + where

	var n int64
	if err := s.db.GetContext(ctx, &n, q, args...); err != nil {
		return 0, fault("count", err)
	}
	return n, nil
}

// Statistics returns totals, the today/week/month windows, and a per-status
// breakdown.  Today is the current UTC calendar day.
func (s *Store) Statistics(ctx context.Context) (*Stats, error) {
	const windows = `
	    SELECT COUNT(*) AS total,
	           COALESCE(SUM(CASE WHEN time >= ? AND time < ? THEN 1 ELSE 0 END), 0) AS today,
	           COALESCE(SUM(CASE WHEN time >= ? THEN 1 ELSE 0 END), 0) AS week,
	           COALESCE(SUM(CASE WHEN time >= ? THEN 1 ELSE 0 END), 0) AS month
	    FROM   ` + Table

	const byStatus = `
	    SELECT status, COUNT(*) AS count
	    FROM   ` + Table + `
	    GROUP  BY status`

	now := s.clock()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var st Stats
	row := s.db.QueryRowxContext(ctx, windows,
		dayStart, dayStart.AddDate(0, 0, 1),
		now.AddDate(0, 0, -7),
		now.AddDate(0, 0, -30),
	)
	if err := row.Scan(&st.Total, &st.Today, &st.Week, &st.Month); err != nil {
		return nil, fault("statistics", err)
	}

	var counts []struct {
		Status string `db:"status"`
		Count  int64  `db:"count"`
	}
	if err := s.db.SelectContext(ctx, &counts, byStatus); err != nil {
		return nil, fault("statistics", err)
	}
	st.ByStatus = make(map[string]int64, len(counts))
	for _, c := range counts {
		st.ByStatus[c.Status] = c.Count
	}
	return &st, nil
}

/*─────────────────────────────── helpers ──────────────────────────────────*/

// searchClause builds the OR-across-three-columns filter.  Wildcards in the
// term are escaped so "50%" matches literally.
func searchClause(search string) (string, []any) {
	if search == "" {
		return "", nil
	}
	pattern := "%" + escapeLike(search) + "%"
	const where = ` WHERE to_email LIKE ? ESCAPE '!'` +
		` OR subject LIKE ? ESCAPE '!'` +
		` OR body LIKE ? ESCAPE '!'`
	return where, []any{pattern, pattern, pattern}
}

func escapeLike(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == likeEscape || r == '%' || r == '_' {
			b.WriteRune(likeEscape)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
