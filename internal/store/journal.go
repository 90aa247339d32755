package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/presence/internal/event"
)

// EventRecord is one drained event.
type EventRecord struct {
	ID         int64       `json:"id"`
	Kind       event.Event `json:"-"`
	KindName   string      `json:"kind"`
	ReceivedAt time.Time   `json:"received_at"`
}

// Submission is one attempt to push the snapshot to the presence client.
type Submission struct {
	ID          int64     `json:"id"`
	Version     uint64    `json:"version"`
	OK          bool      `json:"ok"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// WriteEvent appends a drained event.
func (s *Store) WriteEvent(ctx context.Context, ev event.Event, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (kind, received_at)
		VALUES (?, ?)
	`, ev.String(), at.UnixMilli())
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// WriteSubmission appends a submission attempt.
func (s *Store) WriteSubmission(ctx context.Context, sub Submission) error {
	ok := 0
	if sub.OK {
		ok = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (version, ok, error, submitted_at)
		VALUES (?, ?, ?, ?)
	`, int64(sub.Version), ok, sub.Error, sub.SubmittedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("write submission: %w", err)
	}
	return nil
}

// ReadEvents returns the most recent events, newest first.
// A limit of zero or less returns every event.
//
// Returns an empty slice (not nil) if none exist.
func (s *Store) ReadEvents(ctx context.Context, limit int) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, received_at
		FROM events
		ORDER BY id DESC
		LIMIT ?
	`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := []EventRecord{}
	for rows.Next() {
		var (
			rec  EventRecord
			kind string
			at   int64
		)
		if err := rows.Scan(&rec.ID, &kind, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.KindName = kind
		if ev, err := event.Parse(kind); err == nil {
			rec.Kind = ev
		}
		rec.ReceivedAt = time.UnixMilli(at).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

// ReadSubmissions returns the most recent submission attempts, newest first.
// A limit of zero or less returns every attempt.
func (s *Store) ReadSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, version, ok, error, submitted_at
		FROM submissions
		ORDER BY id DESC
		LIMIT ?
	`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	subs := []Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return subs, nil
}

func scanSubmission(rows *sql.Rows) (Submission, error) {
	var (
		sub     Submission
		version int64
		ok      int
		at      int64
	)
	if err := rows.Scan(&sub.ID, &version, &ok, &sub.Error, &at); err != nil {
		return Submission{}, fmt.Errorf("scan submission: %w", err)
	}
	sub.Version = uint64(version)
	sub.OK = ok == 1
	sub.SubmittedAt = time.UnixMilli(at).UTC()
	return sub, nil
}

// sqlLimit maps "no limit" onto SQLite's LIMIT -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
