// internal/logquery/service.go
//
// Request-facing query service over the log store.
//
// Context
// -------
// Service turns raw request parameters into store calls and shapes the
// replies.  It never rejects a listing request for its shape: unknown sort
// columns, odd directions, and garbage paging all fall back to defaults.
// Only id-based operations validate input, because a bad id cannot be
// defaulted.
//
// Parameters (HandleList)
// -----------------------
//   - search    substring across to_email, subject, and body
//   - orderby   time | to_email | subject | status
//   - order     ASC | DESC
//   - page      1-based
//   - per_page  1..100, default 10
package logquery

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yanizio/maillog/internal/logstore"
	"github.com/yanizio/maillog/internal/sanitize"
	"github.com/yanizio/maillog/internal/validation"
)

// ErrInvalidID is wrapped by the validation error for a missing or
// malformed id.
var ErrInvalidID = errors.New("invalid log id")

// Store is the subset of *logstore.Store the service uses.
type Store interface {
	List(ctx context.Context, q logstore.ListQuery) ([]logstore.Record, error)
	Count(ctx context.Context, search string) (int64, error)
	Statistics(ctx context.Context) (*logstore.Stats, error)
	GetByID(ctx context.Context, id int64) (*logstore.Record, error)
	DeleteByID(ctx context.Context, id int64) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// ListResult is one page plus paging metadata.
type ListResult struct {
	Logs        []logstore.Record `json:"logs"`
	Total       int64             `json:"total"`
	TotalPages  int64             `json:"total_pages"`
	CurrentPage int               `json:"current_page"`
	PerPage     int               `json:"per_page"`
}

// Result reports a mutation.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Deleted int64  `json:"deleted,omitempty"`
}

// Service is stateless and safe for concurrent use.
type Service struct {
	store Store
}

// New returns a Service over store.
func New(store Store) *Service {
	return &Service{store: store}
}

// ParseListQuery maps request parameters onto a normalized ListQuery.
func ParseListQuery(v url.Values) logstore.ListQuery {
	page, _ := strconv.Atoi(strings.TrimSpace(v.Get("page")))
	perPage, _ := strconv.Atoi(strings.TrimSpace(v.Get("per_page")))
	return logstore.ListQuery{
		Search:  sanitize.Text(v.Get("search")),
		OrderBy: v.Get("orderby"),
		Order:   v.Get("order"),
		Page:    page,
		PerPage: perPage,
	}.Normalize()
}

// HandleList returns one page of logs.
func (s *Service) HandleList(ctx context.Context, v url.Values) (*ListResult, error) {
	q := ParseListQuery(v)

	total, err := s.store.Count(ctx, q.Search)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	logs, err := s.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}

	return &ListResult{
		Logs:        logs,
		Total:       total,
		TotalPages:  (total + int64(q.PerPage) - 1) / int64(q.PerPage),
		CurrentPage: q.Page,
		PerPage:     q.PerPage,
	}, nil
}

// HandleStats returns aggregate counts.
func (s *Service) HandleStats(ctx context.Context) (*logstore.Stats, error) {
	st, err := s.store.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("log statistics: %w", err)
	}
	return st, nil
}

// HandleGet returns one record.
func (s *Service) HandleGet(ctx context.Context, rawID string) (*logstore.Record, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get log %d: %w", id, err)
	}
	return rec, nil
}

// HandleDeleteByID removes one record.  A missing row is ErrNotFound.
func (s *Service) HandleDeleteByID(ctx context.Context, rawID string) (*Result, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	ok, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete log %d: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("delete log %d: %w", id, logstore.ErrNotFound)
	}
	return &Result{Success: true, Message: "Log deleted successfully"}, nil
}

// HandleDeleteAll empties the log.
func (s *Service) HandleDeleteAll(ctx context.Context) (*Result, error) {
	n, err := s.store.DeleteAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("delete all logs: %w", err)
	}
	return &Result{Success: true, Message: "All logs deleted successfully", Deleted: n}, nil
}

// ParseID accepts a positive decimal id.
func ParseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, validation.New("id", "Log ID is required", ErrInvalidID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, validation.New("id", "Log ID must be a positive integer", ErrInvalidID)
	}
	return id, nil
}
