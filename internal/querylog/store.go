package querylog

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"ecourts-casestatus/internal/assert"
	"ecourts-casestatus/internal/chrono"
)

const (
	STATUS_SUCCESS = "Success"
	STATUS_FAILED  = "Failed"

	DEFAULT_LIMIT = 50
	MAX_LIMIT     = 500

	// raw responses above this size are truncated before they are stored.
	MAX_RAW_RESPONSE = 65000

	mostSearchedStates = 10
)

var ErrInvalidLimit = fmt.Errorf("limit must be between 1 and %d", MAX_LIMIT)

// Entry is one logged search submission.
type Entry struct {
	Id              int64     `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	State           string    `json:"state"`
	District        string    `json:"district"`
	CaseNumber      string    `json:"case_number"`
	Status          string    `json:"status"`
	RawJsonResponse string    `json:"raw_json_response"`
}

type StateCount struct {
	State string `json:"state"`
	Count int64  `json:"count"`
}

type Stats struct {
	TotalQueries      int64        `json:"total_queries"`
	SuccessfulQueries int64        `json:"successful_queries"`
	FailedQueries     int64        `json:"failed_queries"`
	SuccessRate       float64      `json:"success_rate"`
	MostSearched      []StateCount `json:"most_searched_states"`
}

func StatusOf(success bool) string {
	if success {
		return STATUS_SUCCESS
	}
	return STATUS_FAILED
}

// Store persists query log entries in sqlite (or a remote libsql database).
type Store struct {
	db   *sql.DB
	time chrono.TimeAPI
}

// NewStore creates the query log tables if they don't exist yet.
func NewStore(ctx context.Context, db *sql.DB, time chrono.TimeAPI) (Store, error) {
	assert.NotNil(db)
	assert.NotNil(time)

	_, err := db.ExecContext(ctx, Schema)
	if err != nil {
		return Store{}, fmt.Errorf("create query log schema: %w", err)
	}
	return Store{db: db, time: time}, nil
}

func truncateUtf8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.ToValidUTF8(s[:max], "")
}

// Insert stores entry and returns its id, a zero Timestamp is replaced with the current time.
func (s Store) Insert(ctx context.Context, entry Entry) (int64, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.time.Now()
	}
	if entry.Status == "" {
		entry.Status = STATUS_FAILED
	}

	res, err := s.db.ExecContext(
		ctx,
		`insert into query_logs (timestamp, state, district, case_number, status, raw_json_response)
		values (?, ?, ?, ?, ?, ?)`,
		entry.Timestamp.UnixMilli(),
		entry.State,
		entry.District,
		entry.CaseNumber,
		entry.Status,
		truncateUtf8(entry.RawJsonResponse, MAX_RAW_RESPONSE),
	)
	if err != nil {
		return 0, fmt.Errorf("insert query log: %w", err)
	}
	return res.LastInsertId()
}

// List returns the most recent entries first.
func (s Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit < 1 || limit > MAX_LIMIT {
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(
		ctx,
		`select id, timestamp, state, district, case_number, status, coalesce(raw_json_response, '')
		from query_logs
		order by timestamp desc, id desc
		limit ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list query logs: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		var timestamp int64
		err := rows.Scan(
			&entry.Id,
			&timestamp,
			&entry.State,
			&entry.District,
			&entry.CaseNumber,
			&entry.Status,
			&entry.RawJsonResponse,
		)
		if err != nil {
			return nil, fmt.Errorf("scan query log: %w", err)
		}
		entry.Timestamp = time.UnixMilli(timestamp).In(chrono.IST())
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(
		ctx,
		`select count(*), coalesce(sum(case when status = ? then 1 else 0 end), 0) from query_logs`,
		STATUS_SUCCESS,
	).Scan(&stats.TotalQueries, &stats.SuccessfulQueries)
	if err != nil {
		return Stats{}, fmt.Errorf("count query logs: %w", err)
	}
	stats.FailedQueries = stats.TotalQueries - stats.SuccessfulQueries
	if stats.TotalQueries > 0 {
		rate := float64(stats.SuccessfulQueries) / float64(stats.TotalQueries) * 100
		stats.SuccessRate = math.Round(rate*100) / 100
	}

	rows, err := s.db.QueryContext(
		ctx,
		`select state, count(*) as searches
		from query_logs
		group by state
		order by searches desc, state asc
		limit ?`,
		mostSearchedStates,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("count states: %w", err)
	}
	defer rows.Close()

	stats.MostSearched = []StateCount{}
	for rows.Next() {
		var count StateCount
		err := rows.Scan(&count.State, &count.Count)
		if err != nil {
			return Stats{}, fmt.Errorf("scan state count: %w", err)
		}
		stats.MostSearched = append(stats.MostSearched, count)
	}
	return stats, rows.Err()
}

// Reset deletes every entry and returns how many were deleted.
func (s Store) Reset(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "delete from query_logs")
	if err != nil {
		return 0, fmt.Errorf("reset query logs: %w", err)
	}
	return res.RowsAffected()
}
