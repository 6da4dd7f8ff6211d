package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/acm-mitb/acm-site/internal/model"
)

// CreateEventParams holds the fields of a new event log row.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullString
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent appends a row to the event log.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (int64, error) {
	if arg.Metadata == "" {
		arg.Metadata = "{}"
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO event_log (level, category, message, user_id, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.Metadata, arg.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("creating event: %w", err)
	}
	return res.LastInsertId()
}

// ListEventsParams filters the event log listing.
type ListEventsParams struct {
	Level  string // empty for every level
	Limit  int
	Offset int
}

// ListEvents returns the newest event log rows first.
func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]model.LogEntry, error) {
	if arg.Limit <= 0 {
		arg.Limit = 50
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, level, category, message, user_id, metadata, created_at FROM event_log
		 WHERE (? = '' OR level = ?)
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		arg.Level, arg.Level, arg.Limit, arg.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.LogEntry
	for rows.Next() {
		var (
			e      model.LogEntry
			userID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &userID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.UserID = userID.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteEventsBefore removes event log rows older than cutoff.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM event_log WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting old events: %w", err)
	}
	return res.RowsAffected()
}
