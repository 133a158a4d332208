// Package audit keeps an immutable trail of form submission outcomes.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EventType is the kind of audit entry.
type EventType string

const (
	// EventSubmissionAccepted is logged when a record is persisted.
	EventSubmissionAccepted EventType = "submission.accepted"
	// EventSubmissionRejected is logged when form validation blocks a submission.
	EventSubmissionRejected EventType = "submission.rejected"
)

// Event is one audit row.
type Event struct {
	ID        string          `json:"id"`
	EventType EventType       `json:"event_type"`
	Form      string          `json:"form"`
	RecordID  string          `json:"record_id,omitempty"`
	Status    string          `json:"status,omitempty"`
	Fields    []string        `json:"fields,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Log writes audit events to the submission_audit table.
type Log struct {
	db *sql.DB
}

// NewLog creates an audit log.
func NewLog(db *sql.DB) *Log {
	return &Log{db: db}
}

// Record inserts an event, filling ID and CreatedAt when unset.
func (l *Log) Record(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.Fields == nil {
		event.Fields = []string{}
	}

	query := `
		INSERT INTO submission_audit (
			id, event_type, form, record_id, status, fields, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := l.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Form,
		nullString(event.RecordID),
		nullString(event.Status),
		pq.Array(event.Fields),
		nullJSON(event.Details),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: record event: %w", err)
	}
	return nil
}

// Accepted logs a persisted submission. fields carries checkbox-group values
// such as driver availability.
func (l *Log) Accepted(ctx context.Context, form, recordID, status string, fields []string) error {
	return l.Record(ctx, Event{
		EventType: EventSubmissionAccepted,
		Form:      form,
		RecordID:  recordID,
		Status:    status,
		Fields:    fields,
	})
}

// Rejected logs a submission blocked by validation with the failing field names.
func (l *Log) Rejected(ctx context.Context, form string, failed []string) error {
	return l.Record(ctx, Event{
		EventType: EventSubmissionRejected,
		Form:      form,
		Fields:    failed,
	})
}

// Recent returns the newest events first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query := `
		SELECT id, event_type, form, record_id, status, fields, details, created_at
		FROM submission_audit
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e        Event
			recordID sql.NullString
			status   sql.NullString
			details  []byte
		)
		if err := rows.Scan(&e.ID, &e.EventType, &e.Form, &recordID, &status,
			pq.Array(&e.Fields), &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		e.RecordID = recordID.String
		e.Status = status.String
		if len(details) > 0 {
			e.Details = details
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate events: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
