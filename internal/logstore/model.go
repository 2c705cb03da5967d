package logstore

import (
	"strings"
	"time"
)

// Table is the fixed name of the log table.  It does not depend on any
// other install state.
const Table = "email_log"

// Status values written by this service.  Callers may store others.
const (
	StatusSent   = "Sent"
	StatusFailed = "Failed"
)

// Column widths of the bounded columns.  Insert truncates to them, counting
// runes, so a strict-mode MySQL never rejects a captured row.
const (
	MaxSubjectLen = 255
	MaxStatusLen  = 20
)

// Paging defaults.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Record mirrors one row in `email_log`.  Rows are never updated; they are
// only inserted and deleted.
type Record struct {
	ID      int64     `db:"id"       json:"id"`
	Time    time.Time `db:"time"     json:"time"`
	ToEmail string    `db:"to_email" json:"to_email"`
	Subject string    `db:"subject"  json:"subject"`
	Body    string    `db:"body"     json:"body"`
	Status  string    `db:"status"   json:"status"`
}

// Fields is what callers supply to Insert.  ID and Time are always assigned
// by the store.
type Fields struct {
	ToEmail string
	Subject string
	Body    string
	Status  string // empty means StatusSent
}

// ListQuery governs a listing request.  Zero value lists the first page of
// everything, newest first.
type ListQuery struct {
	Search  string
	OrderBy string
	Order   string
	Page    int
	PerPage int
}

// Stats is the aggregate view returned by Statistics.  The windows overlap:
// a row from two days ago counts toward Week and Month but not Today.
type Stats struct {
	Total    int64            `json:"total"`
	Today    int64            `json:"today"`
	Week     int64            `json:"week"`
	Month    int64            `json:"month"`
	ByStatus map[string]int64 `json:"by_status"`
}

// sortColumns whitelists ORDER BY targets.  Values are SQL identifiers.
var sortColumns = map[string]string{
	"time":     "time",
	"to_email": "to_email",
	"subject":  "subject",
	"status":   "status",
}

// Normalize applies the fallback policy: unknown sort columns become
// "time", unknown directions become "DESC", and paging is clamped.  It
// never fails.
func (q ListQuery) Normalize() ListQuery {
	col, ok := sortColumns[strings.ToLower(strings.TrimSpace(q.OrderBy))]
	if !ok {
		col = "time"
	}
	q.OrderBy = col

	if strings.EqualFold(strings.TrimSpace(q.Order), "ASC") {
		q.Order = "ASC"
	} else {
		q.Order = "DESC"
	}

	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.PerPage < 1:
		q.PerPage = DefaultPerPage
	case q.PerPage > MaxPerPage:
		q.PerPage = MaxPerPage
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Offset is the row offset for the normalized page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}
